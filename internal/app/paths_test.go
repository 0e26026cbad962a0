package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/project")
	assert.Equal(t, "/project", p.Project)
	assert.Equal(t, filepath.Join("/project", ".featdex"), p.Root)
	assert.Equal(t, filepath.Join("/project", ".featdex", "featdex.db"), p.DB)
	assert.Equal(t, filepath.Join("/project", ".featdex", "featdex.yaml"), p.Config)
	assert.Equal(t, filepath.Join("/project", ".featdex", "log"), p.LogDir)
	assert.Equal(t, filepath.Join("/project", ".featdex", "log", "daemon.log"), p.DaemonLog)
	assert.Equal(t, filepath.Join("/project", ".featdex", "run"), p.RunDir)
	assert.Equal(t, filepath.Join("/project", ".featdex", "run", "daemon.pid"), p.PIDFile)
	assert.Equal(t, filepath.Join("/project", ".featdex", "run", "http.port"), p.PortFile)
	assert.Equal(t, filepath.Join("/project", ".featdex", "export"), p.ExportDir)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	// First call creates directories.
	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Root, p.LogDir, p.RunDir} {
		info, err := os.Stat(d)
		require.NoError(t, err, "dir %s should exist", d)
		assert.True(t, info.IsDir())
	}

	// Second call is idempotent, no error.
	require.NoError(t, p.EnsureDirs())
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	cfg, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, p.DB, cfg.DBPath)
	assert.Equal(t, 20, cfg.Search.PageSize)
}

func TestLoadConfig_FileAndValidation(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)
	require.NoError(t, p.EnsureDirs())

	require.NoError(t, os.WriteFile(p.Config, []byte("data_dir: /srv/features\nsearch:\n  page_size: 5\n"), 0644))
	cfg, err := p.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/srv/features", cfg.DataDir)
	assert.Equal(t, 5, cfg.Search.PageSize)

	require.NoError(t, os.WriteFile(p.Config, []byte("search:\n  page_size: 0\n"), 0644))
	_, err = p.LoadConfig()
	assert.ErrorContains(t, err, "page_size")
}

func TestCleanEphemeral(t *testing.T) {
	p := NewPaths(t.TempDir())
	require.NoError(t, p.EnsureDirs())
	require.NoError(t, os.WriteFile(p.PIDFile, []byte("1"), 0644))
	require.NoError(t, os.WriteFile(p.PortFile, []byte("2"), 0644))

	p.CleanEphemeral()
	assert.NoFileExists(t, p.PIDFile)
	assert.NoFileExists(t, p.PortFile)
}
