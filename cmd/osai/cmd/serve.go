package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/osai-labs/osai/internal/daemon"
	"github.com/osai-labs/osai/internal/logging"
	"github.com/osai-labs/osai/internal/output"
)

func newServeCmd() *cobra.Command {
	var detach bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the index daemon",
		Long: `Run the daemon that keeps the index in memory.

The daemon builds the index in the background as soon as it starts and
answers 'osai search', 'osai find' and 'osai status' over a Unix socket.
It rebuilds when the config file changes and refreshes a stale index
while idle.

By default it runs in the foreground; use --detach to start it in the
background.`,
		Example: `  # Run in the foreground (Ctrl+C to stop)
  osai serve

  # Start in the background, then stop it
  osai serve --detach
  osai serve stop`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if detach {
				return runServeDetached(cmd)
			}
			return runServe(cmd.Context(), cmd)
		},
	}

	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Start the daemon in the background")
	cmd.AddCommand(newServeStopCmd())

	return cmd
}

func newServeStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Long: `Stop the running daemon.

Sends SIGTERM for a graceful shutdown, then SIGKILL if the daemon has
not exited after five seconds.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeStop(cmd)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := output.New(cmd.OutOrStdout())
	cfg := daemonConfig()

	if daemon.NewClient(cfg).IsRunning() {
		out.Status("", "Daemon is already running")
		return nil
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if t := rebuildTimeout(settings); t > cfg.Timeout {
		cfg.Timeout = t
	}

	logger := slog.Default()
	if !debugMode {
		logCfg := logging.DefaultConfig()
		logCfg.Level = settings.LogLevel
		l, cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		defer cleanup()
		logger = l
		slog.SetDefault(l)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := daemon.NewDaemon(cfg,
		daemon.WithSettings(settings),
		daemon.WithLogger(logger),
		daemon.WithIndexOptions(localIndexOptions...))
	if err != nil {
		logger.Error("failed to create daemon", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	out.Status("", fmt.Sprintf("Socket: %s", cfg.SocketPath))
	out.Status("", fmt.Sprintf("Logs:   %s", logging.DefaultLogPath()))
	out.Status("", "Press Ctrl+C to stop")

	err = d.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runServeDetached(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())
	cfg := daemonConfig()

	client := daemon.NewClient(cfg)
	if client.IsRunning() {
		out.Status("", "Daemon is already running")
		return nil
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"serve"}
	if configFile != "" {
		args = append(args, "--config", configFile)
	}
	if debugMode {
		args = append(args, "--debug")
	}

	bg := exec.Command(execPath, args...)
	bg.Stdout = nil
	bg.Stderr = nil
	bg.Stdin = nil
	bg.SysProcAttr = detachedProcAttr()

	if err := bg.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Reap the child and notice if it dies before listening.
	done := make(chan error, 1)
	go func() { done <- bg.Wait() }()

	for i := 0; i < 20; i++ {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("daemon process exited unexpectedly: %w", err)
			}
			return fmt.Errorf("daemon process exited unexpectedly with code 0")
		default:
		}

		time.Sleep(100 * time.Millisecond)
		if client.IsRunning() {
			out.Success(fmt.Sprintf("Daemon started (pid: %d)", bg.Process.Pid))
			out.Status("💡", "The index is building in the background; see 'osai status'")
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

func runServeStop(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())
	pidFile := daemon.NewPIDFile(daemonConfig().PIDPath)

	if !pidFile.IsRunning() {
		out.Status("", "Daemon is not running")
		return nil
	}

	pid, err := pidFile.Read()
	if err != nil {
		return fmt.Errorf("failed to read PID: %w", err)
	}

	if err := pidFile.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !pidFile.IsRunning() {
			out.Success(fmt.Sprintf("Daemon stopped (was pid: %d)", pid))
			return nil
		}
	}

	out.Status("", "Daemon not responding, sending SIGKILL...")
	if err := pidFile.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill daemon: %w", err)
	}
	_ = pidFile.Remove()

	out.Success("Daemon killed")
	return nil
}
