package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches individual files using fsnotify on their parent
// directories, falling back to polling.
type FileWatcher struct {
	opts      Options
	files     map[string]struct{}
	debouncer *Debouncer
	errors    chan error
	stopCh    chan struct{}
	logger    *slog.Logger

	mu      sync.Mutex
	stopped bool
	polling bool
}

// NewFileWatcher creates a watcher for the given files. Paths are made
// absolute; the files need not exist yet.
func NewFileWatcher(opts Options, paths ...string) *FileWatcher {
	opts = opts.WithDefaults()

	files := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		files[filepath.Clean(p)] = struct{}{}
	}

	return &FileWatcher{
		opts:      opts,
		files:     files,
		debouncer: NewDebouncer(opts.DebounceWindow),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		logger:    slog.Default(),
	}
}

// SetLogger replaces the logger.
func (w *FileWatcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// Start watches until ctx is cancelled or Stop is called. It blocks.
func (w *FileWatcher) Start(ctx context.Context) error {
	if len(w.files) == 0 {
		return fmt.Errorf("no files to watch")
	}

	if !w.opts.ForcePolling {
		fsw, err := w.newFsnotify()
		if err == nil {
			defer fsw.Close()
			return w.runFsnotify(ctx, fsw)
		}
		w.logger.Warn("fsnotify unavailable, falling back to polling",
			slog.String("error", err.Error()))
	}

	w.mu.Lock()
	w.polling = true
	w.mu.Unlock()
	return w.runPolling(ctx)
}

// Polling reports whether the watcher fell back to polling.
func (w *FileWatcher) Polling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

func (w *FileWatcher) newFsnotify() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return fsw, nil
}

func (w *FileWatcher) runFsnotify(ctx context.Context, fsw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// handleFsnotifyEvent converts events on watched files; everything else in
// the parent directory is ignored.
func (w *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = OpDelete
	default:
		return
	}

	w.debouncer.Add(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
}

type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

func statSnapshot(path string) fileSnapshot {
	info, err := os.Stat(path)
	if err != nil {
		return fileSnapshot{}
	}
	return fileSnapshot{exists: true, modTime: info.ModTime(), size: info.Size()}
}

func (w *FileWatcher) runPolling(ctx context.Context) error {
	state := make(map[string]fileSnapshot, len(w.files))
	for f := range w.files {
		state[f] = statSnapshot(f)
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			for f, prev := range state {
				cur := statSnapshot(f)
				if op, changed := diffSnapshot(prev, cur); changed {
					w.debouncer.Add(FileEvent{Path: f, Operation: op, Timestamp: time.Now()})
				}
				state[f] = cur
			}
		}
	}
}

func diffSnapshot(prev, cur fileSnapshot) (Operation, bool) {
	switch {
	case !prev.exists && cur.exists:
		return OpCreate, true
	case prev.exists && !cur.exists:
		return OpDelete, true
	case prev.exists && (!prev.modTime.Equal(cur.modTime) || prev.size != cur.size):
		return OpModify, true
	}
	return 0, false
}

// Events returns debounced batches of file events.
// The channel is closed when the watcher stops.
func (w *FileWatcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Errors returns non-fatal watcher errors.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}

func (w *FileWatcher) emitError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
		w.logger.Warn("watcher error dropped", slog.String("error", err.Error()))
	}
}

// Stop stops the watcher and closes its channels.
// Safe to call multiple times.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	close(w.errors)
	return nil
}
