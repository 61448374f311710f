package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/osai-labs/osai/internal/async"
	"github.com/osai-labs/osai/internal/config"
	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/model"
	"github.com/osai-labs/osai/internal/watcher"
)

// Daemon owns one Indexer and serves it over the socket.
type Daemon struct {
	config      Config
	logger      *slog.Logger
	settings    *config.Settings
	indexOpts   []index.Option
	watcherOpts watcher.Options

	indexer   *index.Indexer
	rebuilder *async.BackgroundRebuilder
	refresh   *RefreshScheduler
	server    *Server
	pidFile   *PIDFile

	// mu guards pending and runCtx.
	mu      sync.Mutex
	pending *config.Settings
	runCtx  context.Context
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithSettings uses s instead of loading Config.ConfigPath at start.
func WithSettings(s *config.Settings) Option {
	return func(d *Daemon) { d.settings = s }
}

// WithLogger sets the logger for the daemon and its components.
func WithLogger(l *slog.Logger) Option {
	return func(d *Daemon) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithIndexOptions passes extra options to the Indexer.
func WithIndexOptions(opts ...index.Option) Option {
	return func(d *Daemon) { d.indexOpts = append(d.indexOpts, opts...) }
}

// WithWatcherOptions sets the config watcher options.
func WithWatcherOptions(o watcher.Options) Option {
	return func(d *Daemon) { d.watcherOpts = o }
}

// NewDaemon creates a daemon. Settings are loaded from cfg.ConfigPath
// unless WithSettings is given.
func NewDaemon(cfg Config, opts ...Option) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daemon config: %w", err)
	}

	d := &Daemon{
		config:      cfg,
		logger:      slog.Default(),
		watcherOpts: watcher.DefaultOptions(),
		runCtx:      context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.settings == nil {
		s, err := d.loadSettings()
		if err != nil {
			return nil, err
		}
		d.settings = s
	}

	d.rebuilder = async.NewBackgroundRebuilder(async.Config{
		DataDir: cfg.DataDir,
		Limit:   d.settings.MaxIndexFiles,
		Logger:  d.logger,
	}, d.rebuild)

	ixOpts := []index.Option{
		index.WithLogger(d.logger),
		index.WithProgress(d.rebuilder.Progress().Observe),
	}
	if cfg.DataDir != "" {
		ixOpts = append(ixOpts, index.WithLockDir(cfg.DataDir))
	}
	ixOpts = append(ixOpts, d.indexOpts...)

	ix, err := index.New(d.settings, ixOpts...)
	if err != nil {
		return nil, err
	}
	d.indexer = ix

	server, err := NewServer(cfg.SocketPath)
	if err != nil {
		return nil, err
	}
	server.SetHandler(d)
	server.SetLogger(d.logger)
	server.SetTimeout(cfg.Timeout)
	d.server = server

	d.pidFile = NewPIDFile(cfg.PIDPath)

	if cfg.RefreshInterval > 0 {
		d.refresh = NewRefreshScheduler(cfg.RefreshInterval, cfg.IdleTimeout,
			func() time.Time { return d.indexer.Stats().BuiltAt },
			func() { d.requestRebuild(nil) },
			d.logger)
	}

	return d, nil
}

func (d *Daemon) loadSettings() (*config.Settings, error) {
	if d.config.ConfigPath == "" {
		return config.NewSettings(), nil
	}
	return config.LoadFile(d.config.ConfigPath)
}

// Indexer returns the daemon's index.
func (d *Daemon) Indexer() *index.Indexer {
	return d.indexer
}

// Start runs the daemon until ctx is cancelled. It builds the index in the
// background, so the socket answers (with an index-not-ready error for
// searches) while the first generation is built.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.config.EnsureDir(); err != nil {
		return err
	}
	if err := d.pidFile.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := d.pidFile.Remove(); err != nil {
			d.logger.Warn("failed to remove PID file", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	d.runCtx = ctx
	d.mu.Unlock()

	d.logger.Info("daemon starting",
		slog.String("socket", d.config.SocketPath),
		slog.String("config", d.config.ConfigPath),
		slog.Any("search_paths", d.settings.SearchPaths))

	d.rebuilder.Request(ctx)

	var wg sync.WaitGroup
	var w *watcher.FileWatcher
	if d.config.WatchConfig {
		w = watcher.NewFileWatcher(d.watcherOpts, d.config.ConfigPath)
		w.SetLogger(d.logger)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Warn("config watcher stopped", slog.String("error", err.Error()))
			}
		}()
		go func() {
			defer wg.Done()
			d.watchConfig(ctx, w)
		}()
	}

	if d.refresh != nil {
		d.refresh.Start()
	}

	err := d.server.ListenAndServe(ctx)

	cancel()
	if d.refresh != nil {
		d.refresh.Stop()
	}
	d.rebuilder.Stop()
	if w != nil {
		_ = w.Stop()
	}
	wg.Wait()

	d.logger.Info("daemon stopped")
	return err
}

// watchConfig reloads settings when the config file changes and queues a
// rebuild with them. An invalid file is logged and ignored, keeping the
// current settings and index.
func (d *Daemon) watchConfig(ctx context.Context, w *watcher.FileWatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			d.logger.Warn("config watcher error", slog.String("error", err.Error()))
		case events, ok := <-w.Events():
			if !ok {
				return
			}
			d.onConfigEvents(events)
		}
	}
}

func (d *Daemon) onConfigEvents(events []watcher.FileEvent) {
	for _, ev := range events {
		d.logger.Info("config file changed",
			slog.String("path", ev.Path),
			slog.String("op", ev.Operation.String()))
	}

	// A deleted file reverts to defaults and env overrides.
	s, err := d.loadSettings()
	if err != nil {
		d.logger.Error("ignoring invalid config change",
			slog.String("path", d.config.ConfigPath),
			slog.Any("error", oerrors.FormatForLog(err)))
		return
	}
	d.requestRebuild(s)
}

// requestRebuild queues a rebuild. s replaces the pending settings when
// non-nil; several requests during one rebuild collapse into one follow-up
// that uses the newest settings.
func (d *Daemon) requestRebuild(s *config.Settings) bool {
	d.mu.Lock()
	if s != nil {
		d.pending = s
	}
	ctx := d.runCtx
	d.mu.Unlock()

	if s != nil {
		d.rebuilder.SetLimit(s.MaxIndexFiles)
	}
	return d.rebuilder.Request(ctx)
}

// rebuild is the rebuilder's work function.
func (d *Daemon) rebuild(ctx context.Context, _ *async.Progress) error {
	d.mu.Lock()
	s := d.pending
	d.pending = nil
	d.mu.Unlock()

	return d.indexer.Rebuild(ctx, s)
}

// HandleSearch implements RequestHandler.
func (d *Daemon) HandleSearch(ctx context.Context, params SearchParams) ([]model.SearchResult, error) {
	if d.refresh != nil {
		d.refresh.OnSearch()
	}

	results, err := d.indexer.Search(ctx, params.Query)
	if err != nil {
		return nil, err
	}
	if len(params.Types) == 0 {
		return results, nil
	}

	filtered := results[:0]
	for _, r := range results {
		if params.Keep(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// HandleRebuild implements RequestHandler.
func (d *Daemon) HandleRebuild(ctx context.Context, params RebuildParams) (RebuildResult, error) {
	started := d.requestRebuild(nil)

	result := RebuildResult{Started: started}
	if params.Wait {
		err := d.waitRebuild(ctx)
		if err != nil {
			return result, err
		}
		result.Finished = true
	}

	result.Progress = d.rebuilder.Progress().Snapshot()
	result.Index = d.indexer.Stats()
	return result, nil
}

// waitRebuild blocks until the rebuilder is idle or ctx is done.
func (d *Daemon) waitRebuild(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- d.rebuilder.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetStatus implements RequestHandler.
func (d *Daemon) GetStatus() StatusResult {
	return StatusResult{
		ConfigPath: d.config.ConfigPath,
		Index:      d.indexer.Stats(),
		Rebuild:    d.rebuilder.Progress().Snapshot(),
	}
}
