package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/daemon"
	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/output"
	"github.com/osai-labs/osai/internal/profiling"
	"github.com/osai-labs/osai/internal/ui"
)

type indexOptions struct {
	plain    bool
	noColor  bool
	local    bool
	noWait   bool
	paths    []string
	maxFiles int
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the index",
		Long: `Rebuild the file, folder and application index.

When the daemon is running it is asked to rebuild its index. Otherwise,
or with --local, a one-off index is built in this process to report what
would be indexed.

--path and --max-files override the configured values for a local build.`,
		Example: `  # Rebuild the daemon's index and wait for it
  osai index

  # Build locally over one directory
  osai index --local --path ~/Documents --max-files 5000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain text progress output")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Build in this process even if the daemon is running")
	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "Return once the daemon has started rebuilding")
	cmd.Flags().StringSliceVar(&opts.paths, "path", nil, "Search path to index (repeatable)")
	cmd.Flags().IntVar(&opts.maxFiles, "max-files", 0, "Override max_index_files")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	overridden := len(opts.paths) > 0 || opts.maxFiles > 0
	if !opts.local && !overridden {
		if runningDaemon() != nil {
			cfg := daemonConfig()
			cfg.Timeout = rebuildTimeout(settings)
			return runDaemonRebuild(ctx, cmd, daemon.NewClient(cfg), !opts.noWait)
		}
	}

	if len(opts.paths) > 0 {
		settings.SearchPaths = nil
		for _, p := range opts.paths {
			settings.SearchPaths = append(settings.SearchPaths, config.ResolvePath(p))
		}
	}
	if opts.maxFiles > 0 {
		settings.MaxIndexFiles = opts.maxFiles
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.plain),
		ui.WithNoColor(opts.noColor)))
	if err := renderer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start progress display: %w", err)
	}

	limit := settings.MaxIndexFiles
	progress := func(stage index.Stage, n int) {
		ev := ui.ProgressEvent{Stage: ui.StageFrom(stage), Count: n}
		if stage == index.StageWalking {
			ev.Limit = limit
		}
		renderer.UpdateProgress(ev)
	}

	ix, err := buildLocalIndex(ctx, settings, progress)
	if err != nil {
		renderer.Fail(err)
		_ = renderer.Stop()
		return err
	}

	stats := ix.Stats()
	slog.Debug("local index built",
		slog.Int("entries", stats.Total),
		slog.String("heap", profiling.FormatBytes(profiling.HeapAlloc())))
	renderer.Complete(ui.CompletionStats{
		Generation:   stats.Generation,
		Files:        stats.Files,
		Folders:      stats.Folders,
		Applications: stats.Applications,
		Truncated:    stats.Truncated,
		Duration:     stats.BuildTime,
	})
	return renderer.Stop()
}

// rebuildTimeout bounds a waited daemon rebuild: the index timeout plus
// the default request timeout.
func rebuildTimeout(s *config.Settings) time.Duration {
	return s.IndexTimeoutDuration() + daemon.DefaultConfig().Timeout
}

func runDaemonRebuild(ctx context.Context, cmd *cobra.Command, client *daemon.Client, wait bool) error {
	out := output.New(cmd.OutOrStdout())

	res, err := client.Rebuild(ctx, daemon.RebuildParams{Wait: wait})
	if err != nil {
		return fmt.Errorf("daemon rebuild failed: %w", err)
	}

	if !res.Finished {
		if res.Started {
			out.Success("Daemon started rebuilding the index")
		} else {
			out.Status("⏳", "A rebuild is already running; another one is queued")
		}
		if p := res.Progress; p.EntriesLimit > 0 && p.EntriesWalked < p.EntriesLimit {
			out.Progress(p.EntriesWalked, p.EntriesLimit, p.Stage)
			out.ProgressDone()
		}
		out.Status("💡", "Run 'osai status' to follow progress")
		return nil
	}

	if res.Progress.ErrorMessage != "" {
		out.Errorf("Rebuild failed: %s", res.Progress.ErrorMessage)
		return fmt.Errorf("rebuild failed: %s", res.Progress.ErrorMessage)
	}

	s := res.Index
	out.Successf("Index rebuilt: %d entries (%d files, %d folders, %d applications)",
		s.Total, s.Files, s.Folders, s.Applications)
	if s.Truncated {
		out.Warningf("Walk stopped at max_index_files (%d); raise it to index more", res.Progress.EntriesLimit)
	}
	return nil
}
