package bbolt

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corey/featdex/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// bbolt corpus store: save/load snapshot, meta, crash recovery, lock timeout
// Expectation: only the corpus is persisted; indices are rebuilt from it
// =============================================================================

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

// makeTestSnapshot creates a realistic snapshot with stable, beta and
// unstable features.
func makeTestSnapshot() *ports.Snapshot {
	snap := &ports.Snapshot{
		Versions: []ports.Version{
			{Number: "1.41", Channel: ports.Beta, GHMilestoneID: 77},
			{Number: "1.40", Channel: ports.Stable, ReleaseDate: "2019-12-19", ReleaseNotes: "version-1400-2019-12-19", BlogPostPath: "2019/12/19/Rust-1.40.0.html"},
		},
	}
	snap.Features = []ports.Feature{
		{Title: "`Box<[T]>: From<[T; N]>`", Slug: "box_from_array", ImplPRID: 66327, Items: []string{"From"}},
		{Title: "`#[non_exhaustive]`", Flag: "non_exhaustive", Slug: "non_exhaustive", RFCID: 2008, TrackingIssueID: 44109, StabilizationPRID: 64639, DocPath: "reference/attributes/type_system.html"},
		{Title: "`todo!()`", Slug: "todo_macro", Items: []string{"todo!", "core::todo!"}},
		{Title: "never type", Flag: "never_type", Slug: "never_type", UnstableBookPath: "language-features/never-type.html", EditionGuidePath: "x"},
	}
	snap.Features[0].Version = &snap.Versions[0]
	snap.Features[1].Version = &snap.Versions[1]
	snap.Features[2].Version = &snap.Versions[1]
	return snap
}

func TestStore_SaveLoadSnapshot_Roundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	snap := makeTestSnapshot()

	require.NoError(t, store.SaveSnapshot(snap))

	loaded, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snap, loaded)

	// version pointers reference the loaded Versions slice, not copies
	assert.Same(t, &loaded.Versions[1], loaded.Features[1].Version)
	assert.Same(t, loaded.Features[1].Version, loaded.Features[2].Version)
	assert.Nil(t, loaded.Features[3].Version)
}

func TestStore_LoadEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	snap, err := store.LoadSnapshot()
	assert.NoError(t, err)
	assert.Nil(t, snap)

	meta, err := store.Meta()
	assert.NoError(t, err)
	assert.Nil(t, meta)
}

func TestStore_SaveReplaces(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveSnapshot(makeTestSnapshot()))

	small := &ports.Snapshot{Features: []ports.Feature{{Title: "only", Slug: "only"}}}
	require.NoError(t, store.SaveSnapshot(small))

	loaded, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, loaded.Features, 1)
	assert.Equal(t, "only", loaded.Features[0].Title)
	assert.Empty(t, loaded.Versions)
}

func TestStore_SaveNil(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Error(t, store.SaveSnapshot(nil))
}

func TestStore_SaveForeignVersionPointer(t *testing.T) {
	store, _ := newTestStore(t)
	snap := makeTestSnapshot()
	snap.Features[0].Version = &ports.Version{Number: "1.99"}

	err := store.SaveSnapshot(snap)
	assert.ErrorContains(t, err, "not in snapshot")
}

func TestStore_Meta(t *testing.T) {
	store, _ := newTestStore(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	require.NoError(t, store.SaveSnapshot(makeTestSnapshot()))

	meta, err := store.Meta()
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, formatVersion, meta.Format)
	assert.Equal(t, 2, meta.Versions)
	assert.Equal(t, 4, meta.Features)
	assert.Positive(t, meta.Bytes)
	assert.True(t, fixed.Equal(meta.SavedAt))
}

func TestStore_Clear(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveSnapshot(makeTestSnapshot()))

	require.NoError(t, store.Clear())
	snap, err := store.LoadSnapshot()
	require.NoError(t, err)
	assert.Nil(t, snap)

	// idempotent
	assert.NoError(t, store.Clear())
}

func TestStore_CrashRecovery(t *testing.T) {
	// Committed transactions survive a close/reopen; bbolt fsyncs on commit.
	dir := t.TempDir()
	path := filepath.Join(dir, "crash.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	snap := makeTestSnapshot()
	require.NoError(t, store.SaveSnapshot(snap))
	require.NoError(t, store.Close())

	store2, err := NewStore(path)
	require.NoError(t, err)
	defer store2.Close()

	loaded, err := store2.LoadSnapshot()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, len(snap.Features), len(loaded.Features))
	assert.Equal(t, len(snap.Versions), len(loaded.Versions))
}

func TestStore_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ro.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(makeTestSnapshot()))
	require.NoError(t, store.Close())

	r1, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer r2.Close()

	s1, err := r1.LoadSnapshot()
	require.NoError(t, err)
	s2, err := r2.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	assert.Error(t, r1.SaveSnapshot(makeTestSnapshot()))
}

func TestStore_ConcurrentReads(t *testing.T) {
	// bbolt supports concurrent readers, single writer.
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveSnapshot(makeTestSnapshot()))

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := store.LoadSnapshot()
			if err != nil {
				errs <- err
				return
			}
			if snap == nil {
				errs <- fmt.Errorf("got nil snapshot")
				return
			}
			if len(snap.Features) != 4 {
				errs <- fmt.Errorf("expected 4 features, got %d", len(snap.Features))
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent read error: %v", err)
	}
}

func TestStore_LargeCorpus(t *testing.T) {
	store, _ := newTestStore(t)

	snap := &ports.Snapshot{Versions: []ports.Version{{Number: "1.0"}}}
	snap.Features = make([]ports.Feature, 5000)
	for i := range snap.Features {
		snap.Features[i] = ports.Feature{
			Title:   fmt.Sprintf("`feature_%d`", i),
			Slug:    fmt.Sprintf("feature_%d", i),
			Items:   []string{fmt.Sprintf("std::mod%d::item", i%50)},
			Version: &snap.Versions[0],
		}
	}

	require.NoError(t, store.SaveSnapshot(snap))
	loaded, err := store.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	// repetitive text compresses well
	meta, err := store.Meta()
	require.NoError(t, err)
	assert.Less(t, meta.Bytes, 5000*40)
}

func TestStore_OpenTimeout_DoesNotHang(t *testing.T) {
	// A second open while the exclusive lock is held times out after ~1s.
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	defer store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.Error(t, err, "second open should fail with lock timeout")
	assert.Nil(t, store2)
	assert.Contains(t, err.Error(), "bbolt open")
	assert.Contains(t, err.Error(), "timeout")
	assert.Less(t, elapsed, 3*time.Second, "should complete within 3s, not hang")
}
