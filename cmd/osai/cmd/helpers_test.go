package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/osai-labs/osai/internal/apps"
	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/daemon"
	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/policy"
	"github.com/osai-labs/osai/internal/scanner"
)

// permissive admits everything under the search paths; temp directories
// live under locations the host anchors may reject.
func permissive(s *config.Settings) scanner.Admitter {
	return policy.NewWithAnchors(policy.Anchors{Separator: string(filepath.Separator)}, s)
}

// cliEnv isolates HOME, the config dir and OSAI_* variables, and points the
// search paths at a small fixture tree:
//
//	<root>/Reports/
//	<root>/Reports/q1 report.txt
//	<root>/notes.md
//
// plus one enumerated application, "Report Builder". The home directory is
// created under /tmp to keep the daemon socket path short.
func cliEnv(t *testing.T) (home, root string) {
	t.Helper()

	home, err := os.MkdirTemp("/tmp", "osai-cli-")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(home) })

	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, k := range []string{
		"OSAI_MAX_INDEX_FILES", "OSAI_MAX_SEARCH_RESULTS", "OSAI_SEARCH_MODE",
		"OSAI_INDEX_TIMEOUT", "OSAI_ENUMERATE_APPS", "OSAI_LOG_LEVEL", "NO_COLOR",
	} {
		t.Setenv(k, "")
	}

	root = filepath.Join(home, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Reports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Reports", "q1 report.txt"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("data"), 0o644))
	t.Setenv("OSAI_SEARCH_PATHS", root)

	prev := localIndexOptions
	localIndexOptions = []index.Option{
		index.WithPolicy(permissive),
		index.WithAppSource(&apps.Static{Apps: []apps.App{{Name: "Report Builder", Location: "/opt/report-builder"}}}),
	}
	t.Cleanup(func() { localIndexOptions = prev })

	return home, root
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// startDaemon runs a daemon for the current environment until the test
// ends and waits for its first generation.
func startDaemon(t *testing.T) *daemon.Client {
	t.Helper()

	settings, err := loadSettings()
	require.NoError(t, err)

	cfg := daemonConfig()
	cfg.WatchConfig = false
	cfg.RefreshInterval = 0
	d, err := daemon.NewDaemon(cfg,
		daemon.WithSettings(settings),
		daemon.WithIndexOptions(localIndexOptions...))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})

	client := daemon.NewClient(cfg)
	require.Eventually(t, client.IsRunning, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		st, err := client.Status(context.Background())
		return err == nil && st.Index.Ready && !st.Index.Rebuilding
	}, 5*time.Second, 20*time.Millisecond)
	return client
}
