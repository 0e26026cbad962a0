// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

// Snapshot is the loadable form of a corpus: versions plus features in corpus
// order. Feature.Version pointers reference entries of Versions.
type Snapshot struct {
	Versions []Version
	Features []Feature
}

// Storage persists the built corpus artifact. Only the corpus is stored; the
// n-gram tables are rebuilt from it at every startup.
//
// Crash safety: SaveSnapshot must be transactional. A crash mid-write must not
// corrupt a previously committed artifact.
type Storage interface {
	// SaveSnapshot replaces the stored corpus.
	SaveSnapshot(snap *Snapshot) error

	// LoadSnapshot retrieves the stored corpus.
	// Returns nil, nil if nothing was built yet.
	LoadSnapshot() (*Snapshot, error)

	// Clear removes the stored corpus. Idempotent.
	Clear() error
}

// Loader reads a corpus from its source representation (a data directory).
type Loader interface {
	Load(dir string) (*Snapshot, error)
}
