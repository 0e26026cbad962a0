package app

import (
	"fmt"
	"time"

	"github.com/corey/featdex/internal/domain/corpus"
	"github.com/corey/featdex/internal/ports"
)

// BuildResult holds statistics from a Build operation.
type BuildResult struct {
	VersionCount int
	FeatureCount int
	Elapsed      time.Duration
}

// Build reads the data directory, validates the corpus and saves it as the
// stored artifact. Nothing is saved when loading or validation fails, so a
// previously built artifact survives bad data.
func Build(store ports.Storage, loader ports.Loader, dataDir string) (*corpus.Corpus, BuildResult, error) {
	start := time.Now()

	snap, err := loader.Load(dataDir)
	if err != nil {
		return nil, BuildResult{}, fmt.Errorf("load data: %w", err)
	}
	c, err := corpus.New(snap)
	if err != nil {
		return nil, BuildResult{}, fmt.Errorf("validate: %w", err)
	}
	if store != nil {
		if err := store.SaveSnapshot(snap); err != nil {
			return nil, BuildResult{}, fmt.Errorf("save corpus: %w", err)
		}
	}

	return c, BuildResult{
		VersionCount: len(snap.Versions),
		FeatureCount: len(snap.Features),
		Elapsed:      time.Since(start),
	}, nil
}

// LoadCorpus returns the stored corpus. When nothing was built yet it builds
// from dataDir first.
func LoadCorpus(store ports.Storage, loader ports.Loader, dataDir string) (*corpus.Corpus, error) {
	snap, err := store.LoadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if snap == nil {
		c, _, err := Build(store, loader, dataDir)
		return c, err
	}
	c, err := corpus.New(snap)
	if err != nil {
		return nil, fmt.Errorf("validate stored corpus: %w", err)
	}
	return c, nil
}
