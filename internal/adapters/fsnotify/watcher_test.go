package fsnotify

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// fsnotify Watcher Adapter: detect data file changes, trigger corpus rebuild
// Expectation: edits under the data dir fire onChange; editor noise does not
// =============================================================================

// waitForCallback waits up to timeout for the callback channel to receive a value.
func waitForCallback(ch <-chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	changed := make(chan string, 32)
	require.NoError(t, w.Watch(dir, func(path string) {
		changed <- path
	}))

	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "1.40")
	require.NoError(t, os.MkdirAll(versionDir, 0755))
	testFile := filepath.Join(versionDir, "todo_macro.toml")
	require.NoError(t, os.WriteFile(testFile, []byte(`title = "a"`), 0644))

	_, changed := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(testFile, []byte(`title = "b"`), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for file change")
	assert.Equal(t, testFile, path)
}

func TestWatcher_DetectsNewVersionDir(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	versionDir := filepath.Join(dir, "1.41")
	require.NoError(t, os.MkdirAll(versionDir, 0755))

	path, ok := waitForCallback(changed, 2*time.Second)
	require.True(t, ok, "expected callback for new directory")
	assert.Equal(t, versionDir, path)

	// give the watcher time to add the new directory
	time.Sleep(100 * time.Millisecond)

	newFile := filepath.Join(versionDir, "version.toml")
	require.NoError(t, os.WriteFile(newFile, []byte(`number = "1.41"`), 0644))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case p := <-changed:
			if p == newFile {
				return
			}
		case <-deadline:
			t.Fatal("expected callback for file in new directory")
		}
	}
}

func TestWatcher_DetectsDeletedFile(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "gone.toml")
	require.NoError(t, os.WriteFile(testFile, []byte(`title = "x"`), 0644))

	_, changed := startWatcher(t, dir)

	require.NoError(t, os.Remove(testFile))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for deleted file")
	assert.Equal(t, testFile, path)
}

func TestWatcher_IgnoresEditorNoise(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0755))

	_, changed := startWatcher(t, dir)

	os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref"), 0644)
	os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, ".feature.toml.swp"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "feature.toml~"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "4913"), []byte("x"), 0644)

	_, ok := waitForCallback(changed, 500*time.Millisecond)
	assert.False(t, ok, "should not have received callback for ignored files")

	dataFile := filepath.Join(dir, "feature.toml")
	require.NoError(t, os.WriteFile(dataFile, []byte(`title = "x"`), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for data file")
	assert.Equal(t, dataFile, path)
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	err = w.Watch(filepath.Join(t.TempDir(), "missing"), func(string) {})
	assert.Error(t, err)
}

func TestWatcher_StopCleanup(t *testing.T) {
	// After Stop(), no more callbacks fire.
	dir := t.TempDir()

	w, err := NewWatcher()
	require.NoError(t, err)

	callCount := 0
	var mu sync.Mutex
	err = w.Watch(dir, func(path string) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, w.Stop())

	mu.Lock()
	countAfterStop := callCount
	mu.Unlock()

	os.WriteFile(filepath.Join(dir, "after_stop.toml"), []byte("x"), 0644)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	countAfterWrite := callCount
	mu.Unlock()

	assert.Equal(t, countAfterStop, countAfterWrite, "callbacks fired after Stop()")

	// Double-stop should be safe
	assert.NoError(t, w.Stop())
}

func TestShouldIgnorePath(t *testing.T) {
	root := "/home/u/.config/featdex/data"
	tests := []struct {
		path string
		want bool
	}{
		{root + "/1.40/x.toml", false},
		{root + "/unstable/never_type.toml", false},
		{root + "/1.40/.x.toml.swp", true},
		{root + "/1.40/x.toml~", true},
		{root + "/.git/index", true},
		{root + "/1.40/4913", true},
		{root + "/1.40/x.toml.bak", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldIgnorePath(root, tt.path), tt.path)
	}
}
