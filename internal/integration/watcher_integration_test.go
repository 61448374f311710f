package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/watcher"
)

// TestWatcher_ConfigChangeMovesIndex follows the settings-update path:
// the config file changes, the watcher reports it, the settings are
// reloaded and the next rebuild walks the new roots.
func TestWatcher_ConfigChangeMovesIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Given: an index over the first root, built from a watched config file
	clearEnv(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first")
	second := filepath.Join(dir, "second")
	writeTree(t, first, "alpha.txt")
	writeTree(t, second, "beta.txt")
	path := writeConfig(t, filepath.Join(dir, "config.yaml"), fmt.Sprintf("search_paths: [%q]\n", first))

	s, err := config.LoadFile(path)
	require.NoError(t, err)
	ix := newIndexer(t, s)
	require.NoError(t, ix.Rebuild(t.Context(), nil))
	assert.Equal(t, []string{"alpha.txt"}, names(t, ix, "a.txt"))

	w := watcher.NewFileWatcher(watcher.Options{
		DebounceWindow: 20 * time.Millisecond,
		PollInterval:   20 * time.Millisecond,
		ForcePolling:   true,
	}, path)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	defer func() { _ = w.Stop() }()
	time.Sleep(60 * time.Millisecond)

	// When: the config file is rewritten to the second root
	writeConfig(t, path, fmt.Sprintf("search_paths: [%q]\nmax_search_results: 5\n", second))

	var events []watcher.FileEvent
	select {
	case events = <-w.Events():
	case <-ctx.Done():
		t.Fatal("timed out waiting for config change")
	}
	require.NotEmpty(t, events)
	assert.Equal(t, watcher.OpModify, events[0].Operation)

	updated, err := config.LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, ix.Rebuild(t.Context(), updated))

	// Then: the new generation holds only the second root
	assert.Equal(t, []string{"beta.txt"}, names(t, ix, "a.txt"))
	assert.Equal(t, []string{second}, ix.Stats().SearchPaths)
	assert.Equal(t, 5, ix.Settings().MaxSearchResults)
}

func TestWatcher_DeletedConfigEmitsDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, filepath.Join(dir, "config.yaml"), "max_index_files: 10\n")

	w := watcher.NewFileWatcher(watcher.Options{
		DebounceWindow: 20 * time.Millisecond,
		PollInterval:   20 * time.Millisecond,
		ForcePolling:   true,
	}, path)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	defer func() { _ = w.Stop() }()
	time.Sleep(60 * time.Millisecond)

	require.NoError(t, os.Remove(path))

	select {
	case events := <-w.Events():
		require.NotEmpty(t, events)
		assert.Equal(t, watcher.OpDelete, events[0].Operation)
	case <-ctx.Done():
		t.Fatal("timed out waiting for delete event")
	}

	// A deleted file falls back to the defaults.
	s, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.NewSettings().MaxIndexFiles, s.MaxIndexFiles)
}
