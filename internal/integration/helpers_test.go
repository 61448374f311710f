// Package integration exercises the config, index, search and watcher
// packages together, the way the daemon wires them.
package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osai-labs/osai/internal/apps"
	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/policy"
	"github.com/osai-labs/osai/internal/scanner"
)

func permissive(s *config.Settings) scanner.Admitter {
	return policy.NewWithAnchors(policy.Anchors{Separator: string(filepath.Separator)}, s)
}

// writeTree creates files (and their parent folders) under root.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

// writeConfig writes a YAML config file and returns its path.
func writeConfig(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OSAI_SEARCH_PATHS", "OSAI_MAX_INDEX_FILES", "OSAI_MAX_SEARCH_RESULTS",
		"OSAI_SEARCH_MODE", "OSAI_INDEX_TIMEOUT", "OSAI_ENUMERATE_APPS", "OSAI_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func newIndexer(t *testing.T, s *config.Settings, appList ...apps.App) *index.Indexer {
	t.Helper()
	ix, err := index.New(s,
		index.WithPolicy(permissive),
		index.WithAppSource(&apps.Static{Apps: appList}),
		index.WithLockDir(t.TempDir()))
	require.NoError(t, err)
	return ix
}

func names(t *testing.T, ix *index.Indexer, q string) []string {
	t.Helper()
	results, err := ix.Search(t.Context(), q)
	require.NoError(t, err)
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}
