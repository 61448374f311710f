package async

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	oerrors "github.com/osai-labs/osai/internal/errors"
)

// MarkerFileName marks a rebuild in progress. It is left behind when the
// process dies mid-rebuild.
const MarkerFileName = "rebuilding.marker"

// RebuildFunc performs one rebuild, reporting into progress.
type RebuildFunc func(ctx context.Context, progress *Progress) error

// Config configures the BackgroundRebuilder.
type Config struct {
	// DataDir holds the in-progress marker. Empty disables the marker.
	DataDir string
	// Limit is the walk cap used for progress percentages.
	Limit  int
	Logger *slog.Logger
}

// BackgroundRebuilder runs rebuilds in a background goroutine, one at a
// time, with progress tracking. Unlike a one-shot job it can be started
// again after a run finishes.
type BackgroundRebuilder struct {
	config   Config
	progress *Progress
	logger   *slog.Logger

	// RebuildFunc is the work to run. Injected by the caller.
	RebuildFunc RebuildFunc

	mu      sync.Mutex
	running bool
	rerun   bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// NewBackgroundRebuilder creates an idle rebuilder.
func NewBackgroundRebuilder(cfg Config, fn RebuildFunc) *BackgroundRebuilder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	done := make(chan struct{})
	close(done)
	return &BackgroundRebuilder{
		config:      cfg,
		progress:    NewProgress(),
		logger:      logger,
		RebuildFunc: fn,
		done:        done,
	}
}

// Progress returns the progress tracker.
func (b *BackgroundRebuilder) Progress() *Progress {
	return b.progress
}

// SetLimit updates the walk cap used for later progress reports.
func (b *BackgroundRebuilder) SetLimit(limit int) {
	b.mu.Lock()
	b.config.Limit = limit
	b.mu.Unlock()
}

// IsRunning returns true while a rebuild is in progress.
func (b *BackgroundRebuilder) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Start begins a rebuild in the background and returns immediately.
// It returns false, without starting anything, if a rebuild is running.
// Use Wait to block until completion.
func (b *BackgroundRebuilder) Start(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return false
	}
	b.startLocked(ctx)
	return true
}

// Request starts a rebuild like Start. If one is running, another run is
// queued to follow it; any number of requests made during a run collapse
// into a single follow-up. It returns true when a new run was started.
func (b *BackgroundRebuilder) Request(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		b.rerun = true
		return false
	}
	b.startLocked(ctx)
	return true
}

func (b *BackgroundRebuilder) startLocked(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.running = true
	b.cancel = cancel
	b.done = make(chan struct{})
	b.err = nil

	b.progress.Begin(b.config.Limit)
	go b.run(ctx, cancel, b.done)
}

func (b *BackgroundRebuilder) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	for {
		err := b.execute(ctx)
		b.finish(err)

		b.mu.Lock()
		again := b.rerun && ctx.Err() == nil
		b.rerun = false
		if !again {
			b.running = false
			b.err = err
			b.mu.Unlock()
			return
		}
		limit := b.config.Limit
		b.mu.Unlock()

		b.progress.Begin(limit)
	}
}

func (b *BackgroundRebuilder) finish(err error) {
	if err != nil {
		b.progress.SetError(err.Error())
		if errors.Is(err, context.Canceled) {
			return
		}
		level := slog.LevelError
		if oerrors.IsRetryable(err) {
			level = slog.LevelWarn
		}
		b.logger.Log(context.Background(), level, "background rebuild failed",
			slog.Any("error", oerrors.FormatForLog(err)))
		return
	}
	b.progress.SetReady()
}

func (b *BackgroundRebuilder) execute(ctx context.Context) error {
	if b.config.DataDir != "" {
		if err := os.MkdirAll(b.config.DataDir, 0o755); err != nil {
			return err
		}
		marker := filepath.Join(b.config.DataDir, MarkerFileName)
		if err := os.WriteFile(marker, []byte(time.Now().Format(time.RFC3339)), 0o644); err != nil {
			return err
		}
		defer func() { _ = os.Remove(marker) }()
	}

	if b.RebuildFunc == nil {
		return nil
	}
	return b.RebuildFunc(ctx, b.progress)
}

// Stop cancels a running rebuild and waits for it to finish.
func (b *BackgroundRebuilder) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	cancel()
	<-done
}

// Wait blocks until the current rebuild completes and returns its error.
// It returns immediately when nothing was started.
func (b *BackgroundRebuilder) Wait() error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()

	<-done

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// HasIncompleteRebuild reports whether a previous rebuild left its marker.
func HasIncompleteRebuild(dataDir string) bool {
	_, err := os.Stat(filepath.Join(dataDir, MarkerFileName))
	return err == nil
}
