package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/osai-labs/osai/internal/async"
	"github.com/osai-labs/osai/internal/daemon"
	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/logging"
	"github.com/osai-labs/osai/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the index to AI assistants over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: search_files, rebuild_index, index_status.
Resources: osai://index/status, osai://index/summary, osai://config.

The index is built in the background at startup; search_files reports
build progress until the first generation is ready. stdout carries only
protocol messages, so logs go to ~/.osai/logs/osai.log.`,
		Example: `  # Register with an MCP client
  {"command": "osai", "args": ["mcp"]}`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context())
		},
	}
	return cmd
}

func runMCP(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	// stdout belongs to the protocol: log to file only.
	logger := slog.Default()
	if !debugMode {
		l, cleanup, err := logging.Setup(logging.QuietConfig(settings.LogLevel))
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		defer cleanup()
		logger = l
		slog.SetDefault(l)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if async.HasIncompleteRebuild(daemon.DataDir()) {
		logger.Info("previous rebuild was interrupted, rebuilding from scratch")
	}

	var ix *index.Indexer
	rebuilder := async.NewBackgroundRebuilder(async.Config{
		DataDir: daemon.DataDir(),
		Limit:   settings.MaxIndexFiles,
		Logger:  logger,
	}, func(ctx context.Context, _ *async.Progress) error {
		return ix.Rebuild(ctx, nil)
	})

	opts := []index.Option{
		index.WithLogger(logger),
		index.WithLockDir(daemon.DataDir()),
		index.WithProgress(rebuilder.Progress().Observe),
	}
	ix, err = index.New(settings, append(opts, localIndexOptions...)...)
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(ix)
	if err != nil {
		return err
	}
	srv.SetLogger(logger)
	srv.SetRebuilder(rebuilder)

	rebuilder.Start(ctx)
	defer rebuilder.Stop()

	err = srv.Serve(ctx, "stdio")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
