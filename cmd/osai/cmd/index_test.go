package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCmd_LocalPlain(t *testing.T) {
	// Given: no daemon and a fixture tree of two files and one folder
	cliEnv(t)

	// When: indexing with plain output
	out, err := execute(t, "index", "--plain")

	// Then: the summary counts every entry type
	require.NoError(t, err)
	assert.Contains(t, out, "Complete: 4 entries (2 files, 1 folders, 1 applications)")
	assert.NotContains(t, out, "truncated")
}

func TestIndexCmd_PathAndMaxFilesOverrides(t *testing.T) {
	// Given: a second tree outside the configured search paths
	home, _ := cliEnv(t)
	other := filepath.Join(home, "other")
	require.NoError(t, os.MkdirAll(other, 0o755))
	for _, n := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(other, n), []byte("x"), 0o644))
	}

	// When: indexing it with a cap below its size
	out, err := execute(t, "index", "--plain", "--path", other, "--max-files", "2")

	// Then: the walk stops at the cap
	require.NoError(t, err)
	assert.Contains(t, out, "Complete: 3 entries (2 files, 0 folders, 1 applications)")
	assert.Contains(t, out, "truncated at max_index_files")
}

func TestIndexCmd_InvalidConfig(t *testing.T) {
	// Given: a config file with an unknown search mode
	home, _ := cliEnv(t)
	path := filepath.Join(home, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search_mode: telepathy\n"), 0o644))

	// When: indexing with it
	_, err := execute(t, "--config", path, "index", "--plain")

	// Then: the settings are rejected before any walk
	assert.Error(t, err)
}

func TestIndexCmd_ViaDaemon(t *testing.T) {
	// Given: a running daemon
	cliEnv(t)
	startDaemon(t)

	// When: requesting a rebuild and waiting for it
	out, err := execute(t, "index")

	// Then: the daemon reports the new generation's counts
	require.NoError(t, err)
	assert.Contains(t, out, "Index rebuilt: 4 entries (2 files, 1 folders, 1 applications)")
}
