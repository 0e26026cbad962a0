// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It recursively watches the corpus data directory, filters out editor noise
// (swap files, backups, hidden files), and debounces rapid events (editors
// often trigger multiple writes per save).
package fsnotify

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/corey/featdex/internal/logger"
	"github.com/corey/featdex/internal/ports"
)

// Suffixes editors use for temporary and backup files.
var ignoreSuffixes = []string{
	".swp",
	".swx",
	".swo",
	".tmp",
	".bak",
	".orig",
	"~",
}

// vim writes this probe file to test directory writability
const vimProbe = "4913"

const debounceInterval = 50 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
	log     *slog.Logger
}

var _ ports.Watcher = (*Watcher)(nil)

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:   fw,
		done: make(chan struct{}),
		log:  logger.WithComponent("watcher"),
	}, nil
}

// Watch starts monitoring dir recursively.
// onChange is called with the absolute path of each changed file.
func (w *Watcher) Watch(dir string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		return err
	}

	// Walk and add all directories
	err = filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if info.IsDir() {
			if isHidden(info.Name()) && path != absPath {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Debounce state: track last event time per file
	debounce := make(map[string]time.Time)

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name

				// New version directories must be watched too
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(path); err == nil && info.IsDir() && !isHidden(info.Name()) {
						if err := w.fw.Add(path); err != nil {
							w.log.Warn("watch new directory", "path", path, "err", err)
						}
					}
				}

				if shouldIgnorePath(absPath, path) {
					continue
				}

				now := time.Now()
				if last, seen := debounce[path]; seen && now.Sub(last) < debounceInterval {
					continue
				}
				debounce[path] = now

				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					w.mu.Lock()
					stopped := w.stopped
					w.mu.Unlock()
					if !stopped {
						onChange(path)
					}
				}

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// fsnotify recovers on its own
				w.log.Warn("fsnotify error", "err", err)

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// shouldIgnorePath returns true if the file path should not trigger onChange.
// Only components below root are checked, so a data dir that itself lives
// under a hidden directory still works.
func shouldIgnorePath(root, path string) bool {
	base := filepath.Base(path)
	if base == vimProbe {
		return true
	}
	for _, suf := range ignoreSuffixes {
		if strings.HasSuffix(base, suf) {
			return true
		}
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if isHidden(part) && part != "." && part != ".." {
			return true
		}
	}
	return false
}
