package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/domain/index"
)

// =============================================================================
// Commands: run the cobra tree against a temp project, no daemon
// =============================================================================

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	data := filepath.Join(root, "data")
	writeFile(t, filepath.Join(data, "1.40", "version.toml"), "number = \"1.40\"\nrelease_date = \"2019-12-19\"\n")
	writeFile(t, filepath.Join(data, "1.40", "todo_macro.toml"), "title = \"`todo!()` macro\"\nitems = [\"todo!\"]\n")
	writeFile(t, filepath.Join(data, "1.39", "version.toml"), "number = \"1.39\"\nrelease_date = \"2019-11-07\"\n")
	writeFile(t, filepath.Join(data, "1.39", "async_await.toml"), "title = \"`async`/`await`\"\nflag = \"async_await\"\nitems = [\"async fn\", \".await\"]\n")
	writeFile(t, filepath.Join(data, "unstable", "never_type.toml"), "title = \"never type\"\nflag = \"never_type\"\n")
	return root
}

// resetFlags puts every flag back to its default; cobra keeps parsed values
// in package variables between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI in root with color off and returns stdout.
func run(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--project", root, "--no-color"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommand_Build(t *testing.T) {
	root := newTestProject(t)

	out, err := run(t, root, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "built corpus: 3 features, 2 versions")
	assert.FileExists(t, filepath.Join(root, ".featdex", "featdex.db"))

	out, err = run(t, root, "build", "--clean")
	require.NoError(t, err)
	assert.Contains(t, out, "3 features")
}

func TestCommand_BuildValidationError(t *testing.T) {
	root := newTestProject(t)
	writeFile(t, filepath.Join(root, "data", "1.40", "bad.toml"), "title = \"bad\"\nitems = [\"a`b\"]\n")

	_, err := run(t, root, "build")
	require.Error(t, err)
	assert.Equal(t, exitValidation, ExitCode(err))
}

func TestCommand_Search(t *testing.T) {
	root := newTestProject(t)

	// no build first: the corpus is built on demand
	out, err := run(t, root, "search", "todo")
	require.NoError(t, err)
	assert.Contains(t, out, "⚡ 1 results")
	assert.Contains(t, out, "`todo!()` macro  1.40  todo_macro")

	out, err = run(t, root, "search", "zzzz")
	require.NoError(t, err)
	assert.Contains(t, out, msgEmpty)

	out, err = run(t, root, "search", "café")
	assert.ErrorIs(t, err, index.ErrInvalidQuery)
	assert.Equal(t, exitInvalidQuery, ExitCode(err))
	assert.Contains(t, out, msgInvalid)
}

func TestCommand_SearchJSONPaging(t *testing.T) {
	root := newTestProject(t)

	out, err := run(t, root, "search", "t", "--limit", "1", "--offset", "1", "--json")
	require.NoError(t, err)

	var res socket.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, index.StatusOK, res.Status)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Offset)
	assert.Len(t, res.Hits, 1)
	assert.True(t, res.More)
}

func TestCommand_SearchNegativeOffset(t *testing.T) {
	_, err := run(t, newTestProject(t), "search", "t", "--offset", "-1")
	assert.ErrorContains(t, err, "invalid offset")
}

func TestCommand_Show(t *testing.T) {
	root := newTestProject(t)

	out, err := run(t, root, "show", "async_await")
	require.NoError(t, err)
	assert.Contains(t, out, "⚡ `async`/`await`")
	assert.Contains(t, out, "1.39 (stable, 2019-11-07)")
	assert.Contains(t, out, "async fn  .await")

	_, err = run(t, root, "show", "missing")
	assert.ErrorIs(t, err, socket.ErrNotFound)
}

func TestCommand_Explore(t *testing.T) {
	root := newTestProject(t)

	out, err := run(t, root, "explore")
	require.NoError(t, err)
	assert.Contains(t, out, "⚡ stable │ 2 shown")
	assert.Contains(t, out, "todo_macro")
	assert.Contains(t, out, "async_await")
	assert.NotContains(t, out, "never_type")

	out, err = run(t, root, "explore", "unstable", "--json")
	require.NoError(t, err)
	var res socket.ExploreResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Features, 1)
	assert.Equal(t, "never_type", res.Features[0].Slug)

	_, err = run(t, root, "explore", "sideways")
	assert.ErrorContains(t, err, "unknown view")
}

func TestCommand_Version(t *testing.T) {
	root := newTestProject(t)

	out, err := run(t, root, "version", "1.40")
	require.NoError(t, err)
	assert.Contains(t, out, "⚡ 1.40 (stable, 2019-12-19) │ 1 features")
	assert.Contains(t, out, "todo_macro")

	_, err = run(t, root, "version", "0.1")
	assert.ErrorIs(t, err, socket.ErrNotFound)
}

func TestCommand_Export(t *testing.T) {
	root := newTestProject(t)
	dir := filepath.Join(t.TempDir(), "site")

	out, err := run(t, root, "export", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 3 features")
	assert.FileExists(t, filepath.Join(dir, "features.json"))
	assert.FileExists(t, filepath.Join(dir, "index.html"))
}

func TestCommand_HealthWithoutDaemon(t *testing.T) {
	root := newTestProject(t)

	out, err := run(t, root, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "daemon is not running")
	assert.Contains(t, out, "not built")

	_, err = run(t, root, "build")
	require.NoError(t, err)
	out, err = run(t, root, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "3 features, 2 versions")
}

func TestCommand_Config(t *testing.T) {
	root := newTestProject(t)
	writeFile(t, filepath.Join(root, ".featdex", "featdex.yaml"), "search:\n  page_size: 7\n")

	out, err := run(t, root, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "⚡ featdex config")
	assert.Contains(t, out, "not running")
	assert.Contains(t, out, "page_size: 7")
	assert.Contains(t, out, filepath.Join(root, "data"))
}

func TestCommand_BadConfig(t *testing.T) {
	root := newTestProject(t)
	writeFile(t, filepath.Join(root, ".featdex", "featdex.yaml"), "search:\n  page_size: 0\n")

	_, err := run(t, root, "search", "todo")
	assert.ErrorContains(t, err, "page_size")
}
