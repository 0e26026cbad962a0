// Package config loads featdex configuration from .featdex/featdex.yaml with
// FEATDEX_* environment-variable overrides. A missing file means defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the .featdex/ directory.
const FileName = "featdex.yaml"

// Config is the top-level configuration.
type Config struct {
	DataDir string       `yaml:"data_dir"`
	DBPath  string       `yaml:"db_path"`
	HTTP    HTTPConfig   `yaml:"http"`
	Log     LogConfig    `yaml:"log"`
	Search  SearchConfig `yaml:"search"`
	Watch   bool         `yaml:"watch"`
}

// HTTPConfig holds the daemon's web server settings.
type HTTPConfig struct {
	// Addr is host:port; port 0 picks a free port.
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RateLimit caps web searches per second; 0 disables the limit.
	RateLimit       float64       `yaml:"rate_limit"`
	RateBurst       int           `yaml:"rate_burst"`
}

// LogConfig controls structured logging level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SearchConfig controls result paging.
type SearchConfig struct {
	PageSize int `yaml:"page_size"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DataDir: "data",
		HTTP: HTTPConfig{
			Addr:            "127.0.0.1:0",
			ShutdownTimeout: 5 * time.Second,
			RateBurst:       20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Search: SearchConfig{
			PageSize: 20,
		},
	}
}

// Load reads path (if it exists) over the defaults and applies environment
// overrides. It does not validate; call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg, os.Getenv)
	return cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Search.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("search.page_size must be positive, got %d", c.Search.PageSize))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.HTTP.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("http.shutdown_timeout must not be negative"))
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		errs = append(errs, fmt.Errorf("http.rate_limit and http.rate_burst must not be negative"))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Resolve makes relative data and db paths absolute against root. An empty
// DBPath becomes defaultDB.
func (c *Config) Resolve(root, defaultDB string) {
	if !filepath.IsAbs(c.DataDir) {
		c.DataDir = filepath.Join(root, c.DataDir)
	}
	switch {
	case c.DBPath == "":
		c.DBPath = defaultDB
	case !filepath.IsAbs(c.DBPath):
		c.DBPath = filepath.Join(root, c.DBPath)
	}
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// applyEnvOverrides reads FEATDEX_* variables and overrides the
// corresponding fields. Unparseable numbers are ignored.
func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if v := getenv("FEATDEX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := getenv("FEATDEX_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("FEATDEX_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := getenv("FEATDEX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("FEATDEX_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := getenv("FEATDEX_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.PageSize = n
		}
	}
	if v := getenv("FEATDEX_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Watch = b
		}
	}
}
