// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the featdex daemon: create, start, stop.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/corey/featdex/internal/adapters/bbolt"
	fsw "github.com/corey/featdex/internal/adapters/fsnotify"
	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/adapters/tomldata"
	"github.com/corey/featdex/internal/adapters/web"
	"github.com/corey/featdex/internal/config"
	"github.com/corey/featdex/internal/domain/index"
	"github.com/corey/featdex/internal/logger"
	"github.com/corey/featdex/internal/ports"
)

// reloadDelay coalesces bursts of data file events (a git checkout touches
// many files) into one rebuild.
const reloadDelay = 200 * time.Millisecond

// App is the top-level container wiring all components together.
type App struct {
	Paths    *Paths
	Settings *config.Config

	Store     *bbolt.Store
	Loader    ports.Loader
	Engine    *index.SearchEngine
	Metrics   *web.Metrics
	Server    *socket.Server
	WebServer *web.Server
	Watcher   ports.Watcher // nil unless watch is enabled

	log *slog.Logger

	reloadMu    sync.Mutex // serializes reloads; queries never take it
	closed      bool       // guarded by reloadMu
	timerMu     sync.Mutex
	reloadTimer *time.Timer
}

// Config holds initialization parameters for the App.
type Config struct {
	ProjectRoot string
	// Settings must be resolved (see Paths.LoadConfig).
	Settings *config.Config
}

// New creates an App with all dependencies wired. It opens the store and
// loads the corpus, building it from the data directory when nothing is
// stored yet. Does not start services.
func New(cfg Config) (*App, error) {
	if cfg.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	paths := NewPaths(cfg.ProjectRoot)
	if cfg.Settings == nil {
		s, err := paths.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg.Settings = s
	}
	settings := cfg.Settings

	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	store, err := bbolt.NewStore(settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	loader := tomldata.New()
	c, err := LoadCorpus(store, loader, settings.DataDir)
	if err != nil {
		store.Close()
		return nil, err
	}

	engine := index.NewSearchEngine(c)
	metrics := web.NewMetrics()
	metrics.CorpusFeatures.Set(float64(c.Len()))
	engine.SetObserver(metrics.ObserveSearch)

	a := &App{
		Paths:    paths,
		Settings: settings,
		Store:    store,
		Loader:   loader,
		Engine:   engine,
		Metrics:  metrics,
		log:      logger.WithComponent("app"),
	}

	if settings.Watch {
		w, err := fsw.NewWatcher()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		a.Watcher = w
	}

	// Create server with App as query provider (for reload, health)
	a.Server = socket.NewServer(engine, socket.SocketPath(cfg.ProjectRoot), settings.Search.PageSize, a)
	a.WebServer = web.NewServer(engine, metrics, settings.Search.PageSize, paths.PortFile)
	if settings.HTTP.RateLimit > 0 {
		a.WebServer.LimitSearches(settings.HTTP.RateLimit, settings.HTTP.RateBurst)
	}

	return a, nil
}

// Start begins the daemon (socket server + HTTP server + data dir watcher).
func (a *App) Start() error {
	if err := a.Server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	// HTTP is non-fatal if the address is unavailable
	if err := a.WebServer.Start(a.Settings.HTTP.Addr); err != nil {
		a.log.Warn("http server unavailable", "addr", a.Settings.HTTP.Addr, "err", err)
	} else {
		a.log.Info("http server listening", "url", a.WebServer.URL())
	}
	if a.Watcher != nil {
		if err := a.Watcher.Watch(a.Settings.DataDir, a.onDataChanged); err != nil {
			a.log.Warn("data watcher unavailable", "dir", a.Settings.DataDir, "err", err)
		}
	}
	a.log.Info("daemon started",
		"socket", a.Server.Addr(),
		"features", a.Engine.Corpus().Len(),
		"watch", a.Watcher != nil,
	)
	return nil
}

// Stop gracefully shuts down all services and closes the store.
func (a *App) Stop() error {
	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	a.timerMu.Lock()
	if a.reloadTimer != nil {
		a.reloadTimer.Stop()
	}
	a.timerMu.Unlock()

	a.WebServer.Stop(a.Settings.HTTP.ShutdownTimeout)
	a.Server.Stop()
	a.Engine.WaitObservers()

	// wait out a reload in flight before closing the store under it
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()
	a.closed = true
	return a.Store.Close()
}

// Reload rebuilds the corpus from the data directory, saves it and swaps it
// into the search engine. On failure the running corpus stays in place.
// Implements socket.AppQueries.
func (a *App) Reload() (socket.ReloadResult, error) {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()
	if a.closed {
		return socket.ReloadResult{}, errors.New("app stopped")
	}

	c, res, err := Build(a.Store, a.Loader, a.Settings.DataDir)
	a.Metrics.ObserveReload(res.FeatureCount, err)
	if err != nil {
		return socket.ReloadResult{}, err
	}
	a.Engine.Rebuild(c)

	return socket.ReloadResult{
		FeatureCount: res.FeatureCount,
		VersionCount: res.VersionCount,
		ElapsedMs:    res.Elapsed.Milliseconds(),
	}, nil
}

// HTTPAddr returns the web server's bound address, empty if it is not up.
// Implements socket.AppQueries.
func (a *App) HTTPAddr() string {
	return a.WebServer.Addr()
}

// onDataChanged schedules a reload; events arriving within reloadDelay of
// each other collapse into one.
func (a *App) onDataChanged(path string) {
	a.log.Debug("data changed", "path", path)

	a.timerMu.Lock()
	defer a.timerMu.Unlock()
	if a.reloadTimer != nil {
		a.reloadTimer.Stop()
	}
	a.reloadTimer = time.AfterFunc(reloadDelay, func() {
		res, err := a.Reload()
		if err != nil {
			a.log.Error("reload failed, keeping previous corpus", "err", err)
			return
		}
		a.log.Info("corpus reloaded",
			"features", res.FeatureCount,
			"versions", res.VersionCount,
			"elapsed_ms", res.ElapsedMs,
		)
	})
}
