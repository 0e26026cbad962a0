package app

import (
	"os"
	"path/filepath"

	"github.com/corey/featdex/internal/config"
)

// Paths holds all resolved filesystem paths for the .featdex/ project directory.
// All fields are pre-computed strings.
type Paths struct {
	Project string // project root
	Root    string // .featdex/
	DB      string // .featdex/featdex.db
	Config  string // .featdex/featdex.yaml

	LogDir    string // .featdex/log/
	DaemonLog string // .featdex/log/daemon.log

	RunDir   string // .featdex/run/
	PIDFile  string // .featdex/run/daemon.pid
	PortFile string // .featdex/run/http.port

	ExportDir string // .featdex/export/
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".featdex")
	return &Paths{
		Project: projectRoot,
		Root:    root,
		DB:      filepath.Join(root, "featdex.db"),
		Config:  filepath.Join(root, config.FileName),

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),

		RunDir:   filepath.Join(root, "run"),
		PIDFile:  filepath.Join(root, "run", "daemon.pid"),
		PortFile: filepath.Join(root, "run", "http.port"),

		ExportDir: filepath.Join(root, "export"),
	}
}

// EnsureDirs creates all subdirectories under .featdex/. Idempotent.
func (p *Paths) EnsureDirs() error {
	dirs := []string{
		p.Root,
		p.LogDir,
		p.RunDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig reads .featdex/featdex.yaml (defaults when absent), validates it
// and resolves relative paths against the project root.
func (p *Paths) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(p.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Resolve(p.Project, p.DB)
	return cfg, nil
}

// CleanEphemeral removes ephemeral runtime files (PID file and port file).
// Called on clean daemon shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PIDFile)
	os.Remove(p.PortFile)
}
