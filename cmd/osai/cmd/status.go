package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/osai-labs/osai/internal/async"
	"github.com/osai-labs/osai/internal/daemon"
	"github.com/osai-labs/osai/internal/ui"
	"github.com/osai-labs/osai/pkg/version"
)

func newStatusCmd() *cobra.Command {
	var (
		jsonOutput bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and index status",
		Long: `Show whether the daemon is running and the state of its index:
entry counts per type, when it was last built, and any rebuild in
progress or last error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput, noColor)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput, noColor bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var info ui.StatusInfo
	if client := runningDaemon(); client != nil {
		res, err := client.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		info = statusInfoFrom(res)
	} else {
		info = ui.StatusInfo{
			DaemonStatus: "stopped",
			IndexStatus:  "empty",
			ConfigPath:   settingsPath(),
		}
		if settings, err := loadSettings(); err == nil {
			info.SearchMode = string(settings.SearchMode)
			info.SearchPaths = settings.SearchPaths
		}
	}

	info.Version = version.String()
	if info.DaemonVersion == info.Version {
		info.DaemonVersion = ""
	}

	r := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor || ui.DetectNoColor())
	if jsonOutput {
		return r.RenderJSON(info)
	}
	if err := r.Render(info); err != nil {
		return err
	}
	if info.DaemonStatus == "stopped" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "\n  Run 'osai serve --detach' to start the daemon")
	}
	return nil
}

// statusInfoFrom maps a daemon status reply to the status view.
func statusInfoFrom(res *daemon.StatusResult) ui.StatusInfo {
	uptime, _ := time.ParseDuration(res.Uptime)
	ix := res.Index

	info := ui.StatusInfo{
		DaemonStatus: "stopped",
		PID:          res.PID,
		Uptime:       uptime,
		ConfigPath:   res.ConfigPath,
		Generation:   ix.Generation,
		Files:        ix.Files,
		Folders:      ix.Folders,
		Applications: ix.Applications,
		Truncated:    ix.Truncated,
		LastIndexed:  ix.BuiltAt,
		LastError:    ix.LastError,
		SearchMode:   ix.SearchMode,
		SearchPaths:  ix.SearchPaths,
	}
	if res.Running {
		info.DaemonStatus = "running"
	}
	if res.Build.Version != "" {
		info.DaemonVersion = res.Build.String()
	}

	switch {
	case res.Rebuild.Status == string(async.StatusIndexing):
		info.IndexStatus = "indexing"
		info.RebuildStage = res.Rebuild.Stage
		info.EntriesWalked = res.Rebuild.EntriesWalked
	case ix.LastError != "":
		info.IndexStatus = "error"
	case ix.Ready:
		info.IndexStatus = "ready"
	default:
		info.IndexStatus = "empty"
	}
	return info
}
