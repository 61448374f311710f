// Package cmd provides the CLI commands for osai.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/daemon"
	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/logging"
	"github.com/osai-labs/osai/internal/profiling"
	"github.com/osai-labs/osai/pkg/version"
)

// Profiling flags
var (
	profileOpts profiling.Options
	profiler    *profiling.Session
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// configFile overrides the user config path for every subcommand.
var configFile string

// localIndexOptions are appended to every index built in-process.
var localIndexOptions []index.Option

// NewRootCmd creates the root command for the osai CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "osai",
		Short: "Fast local file, folder and application launcher index",
		Long: `osai keeps an in-memory index of the files, folders and applications
on this machine and answers ranked queries for launchers.

Run 'osai serve' to keep the index warm in the background, then query it
with 'osai search' or pick interactively with 'osai find'.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("osai version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.osai/logs/")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: user config path)")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Mem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFindCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts debug logging and profiling if flags are set.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Short()))
	}

	if profileOpts.Enabled() {
		s, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profiler = s
	}
	return nil
}

// stopProfilingAndLogging flushes profiles and closes the debug log.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}

	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		msg := oerrors.FormatForUser(err, debugMode)
		if oerrors.GetCode(err) == "" {
			msg = "Error: " + msg
		}
		_, _ = fmt.Fprintln(os.Stderr, msg)
	}
	return err
}

// settingsPath returns the config file in effect.
func settingsPath() string {
	if configFile != "" {
		return configFile
	}
	return config.GetUserConfigPath()
}

// loadSettings loads the layered settings from the config file in effect.
func loadSettings() (*config.Settings, error) {
	return config.LoadFile(settingsPath())
}

// daemonConfig returns the daemon configuration for the config file in effect.
func daemonConfig() daemon.Config {
	cfg := daemon.DefaultConfig()
	cfg.ConfigPath = settingsPath()
	return cfg
}
