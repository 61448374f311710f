package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/daemon"
	"github.com/osai-labs/osai/internal/index"
)

// pingTimeout bounds the liveness check before a command uses the daemon.
const pingTimeout = 2 * time.Second

// newLocalIndex creates an in-process indexer sharing the daemon's rebuild
// lock, so a local build never walks concurrently with the daemon's.
func newLocalIndex(settings *config.Settings, progress index.ProgressFunc) (*index.Indexer, error) {
	opts := []index.Option{
		index.WithLogger(slog.Default()),
		index.WithLockDir(daemon.DataDir()),
	}
	if progress != nil {
		opts = append(opts, index.WithProgress(progress))
	}
	opts = append(opts, localIndexOptions...)
	return index.New(settings, opts...)
}

// buildLocalIndex builds one generation in-process.
func buildLocalIndex(ctx context.Context, settings *config.Settings, progress index.ProgressFunc) (*index.Indexer, error) {
	ix, err := newLocalIndex(settings, progress)
	if err != nil {
		return nil, err
	}
	if err := ix.Rebuild(ctx, nil); err != nil {
		return nil, err
	}
	return ix, nil
}

// runningDaemon returns a client for the daemon, or nil when none is
// running or it does not answer a ping.
func runningDaemon() *daemon.Client {
	client := daemon.NewClient(daemonConfig())
	if !client.IsRunning() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		slog.Debug("daemon not responding", slog.String("error", err.Error()))
		return nil
	}
	return client
}
