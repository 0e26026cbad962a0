package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newTestProject creates a project root with a small data directory:
// two stable versions and one unstable feature.
func newTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	data := filepath.Join(root, "data")
	writeTestFile(t, filepath.Join(data, "1.40", "version.toml"), `
number = "1.40"
release_date = "2019-12-19"
`)
	writeTestFile(t, filepath.Join(data, "1.40", "todo_macro.toml"), "title = \"`todo!()` macro\"\nitems = [\"todo!\"]\n")
	writeTestFile(t, filepath.Join(data, "1.39", "version.toml"), `
number = "1.39"
release_date = "2019-11-07"
`)
	writeTestFile(t, filepath.Join(data, "1.39", "async_await.toml"), "title = \"`async`/`await`\"\nflag = \"async_await\"\nitems = [\"async fn\", \".await\"]\n")
	writeTestFile(t, filepath.Join(data, "unstable", "never_type.toml"), `
title = "never type"
flag = "never_type"
`)
	return root
}
