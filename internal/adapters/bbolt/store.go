// Package bbolt implements the ports.Storage interface using bbolt (embedded B+ tree).
// The "corpus" bucket holds one compressed snapshot blob plus a small JSON
// meta record. Writes are transactional; a crash mid-write cannot corrupt a
// previously committed corpus.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/corey/featdex/internal/ports"
)

// Bucket keys
var (
	bucketCorpus = []byte("corpus")
	keySnapshot  = []byte("snapshot")
	keyMeta      = []byte("meta")
)

// Meta describes the stored artifact without decoding it.
type Meta struct {
	Format   int       `json:"format"`
	Versions int       `json:"versions"`
	Features int       `json:"features"`
	Bytes    int       `json:"bytes"`
	SavedAt  time.Time `json:"saved_at"`
}

const formatVersion = 1

// Store implements ports.Storage backed by bbolt.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ ports.Storage = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// OpenReadOnly opens an existing database without taking the write lock, so
// several readers (CLI commands) can share it.
func OpenReadOnly(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the stored corpus.
func (s *Store) SaveSnapshot(snap *ports.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}

	blob, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	metaJSON, err := json.Marshal(Meta{
		Format:   formatVersion,
		Versions: len(snap.Versions),
		Features: len(snap.Features),
		Bytes:    len(blob),
		SavedAt:  s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketCorpus)
		if err != nil {
			return err
		}
		if err := b.Put(keySnapshot, blob); err != nil {
			return err
		}
		return b.Put(keyMeta, metaJSON)
	})
}

// LoadSnapshot retrieves the stored corpus.
// Returns nil, nil if nothing was built yet.
func (s *Store) LoadSnapshot() (*ports.Snapshot, error) {
	var blob []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCorpus)
		if b == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := b.Get(keySnapshot); v != nil {
			blob = make([]byte, len(v))
			copy(blob, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if blob == nil {
		return nil, nil
	}
	snap, err := decodeSnapshot(blob)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Meta returns the stored artifact's meta record, or nil if nothing was
// built yet.
func (s *Store) Meta() (*Meta, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCorpus)
		if b == nil {
			return nil
		}
		if v := b.Get(keyMeta); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}

	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}
	return &m, nil
}

// Clear removes the stored corpus.
// Idempotent: clearing an empty store is not an error.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketCorpus); errors.Is(err, bolt.ErrBucketNotFound) {
			return nil // idempotent
		} else {
			return err
		}
	})
}
