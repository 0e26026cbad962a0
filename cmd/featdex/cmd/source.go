package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/corey/featdex/internal/adapters/bbolt"
	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/adapters/tomldata"
	"github.com/corey/featdex/internal/app"
	"github.com/corey/featdex/internal/domain/corpus"
	"github.com/corey/featdex/internal/domain/index"
)

// querier returns the daemon client when a daemon serves this project,
// otherwise an in-process service over the stored corpus.
func querier(root string) (socket.Querier, error) {
	client := socket.NewClient(socket.SocketPath(root))
	if client.Ping() {
		slog.Debug("querying daemon", "socket", socket.SocketPath(root))
		return client, nil
	}
	c, err := localCorpus(root)
	if err != nil {
		return nil, err
	}
	return socket.NewService(index.NewSearchEngine(c), settings.Search.PageSize), nil
}

// localCorpus loads the stored corpus, building it from the data directory
// when nothing is stored yet. A stored corpus is read without the write lock.
func localCorpus(root string) (*corpus.Corpus, error) {
	if _, err := os.Stat(settings.DBPath); err == nil {
		store, err := bbolt.OpenReadOnly(settings.DBPath)
		if err != nil {
			return nil, storeError(root, err)
		}
		snap, err := store.LoadSnapshot()
		store.Close()
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		if snap != nil {
			c, err := corpus.New(snap)
			if err != nil {
				return nil, fmt.Errorf("validate stored corpus: %w", err)
			}
			return c, nil
		}
	}

	if err := app.NewPaths(root).EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	store, err := bbolt.NewStore(settings.DBPath)
	if err != nil {
		return nil, storeError(root, err)
	}
	defer store.Close()
	slog.Debug("no stored corpus, building", "data_dir", settings.DataDir)
	return app.LoadCorpus(store, tomldata.New(), settings.DataDir)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
