package daemon

import (
	"log/slog"
	"sync"
	"time"
)

// RefreshScheduler rebuilds the index in the background once it is older
// than the refresh interval, picking up filesystem changes the watcher
// cannot see.
//
// A refresh runs only when:
// 1. A generation exists (the daemon's first rebuild already ran)
// 2. The generation is at least Interval old
// 3. No search arrived for IdleTimeout
//
// Searches never wait on a refresh; they keep reading the current
// generation until the new one is swapped in.
type RefreshScheduler struct {
	interval time.Duration
	idle     time.Duration
	builtAt  func() time.Time
	trigger  func()
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	lastSearch time.Time
	timer      *time.Timer
	stopped    bool
	stopOnce   sync.Once
}

// NewRefreshScheduler creates a scheduler. builtAt reports when the current
// generation was built (zero when none); trigger starts a rebuild and must
// not block.
func NewRefreshScheduler(interval, idle time.Duration, builtAt func() time.Time, trigger func(), logger *slog.Logger) *RefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{
		interval: interval,
		idle:     idle,
		builtAt:  builtAt,
		trigger:  trigger,
		logger:   logger,
		now:      time.Now,
	}
}

// Start arms the scheduler.
func (r *RefreshScheduler) Start() {
	r.logger.Debug("refresh scheduler started",
		slog.Duration("interval", r.interval),
		slog.Duration("idle_timeout", r.idle))
	r.schedule(r.interval)
}

// Stop disarms the scheduler. A refresh already triggered keeps running.
func (r *RefreshScheduler) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.stopped = true
		if r.timer != nil {
			r.timer.Stop()
		}
	})
}

// OnSearch records query activity, postponing a due refresh.
func (r *RefreshScheduler) OnSearch() {
	r.mu.Lock()
	r.lastSearch = r.now()
	r.mu.Unlock()
}

func (r *RefreshScheduler) schedule(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(d, r.check)
}

// check runs on the timer and either triggers a refresh or re-arms itself
// for when one could next be due.
func (r *RefreshScheduler) check() {
	now := r.now()

	built := r.builtAt()
	if built.IsZero() {
		r.schedule(r.interval)
		return
	}
	if age := now.Sub(built); age < r.interval {
		r.schedule(r.interval - age)
		return
	}

	r.mu.Lock()
	quiet := now.Sub(r.lastSearch)
	stopped := r.stopped
	r.mu.Unlock()

	if stopped {
		return
	}
	if quiet < r.idle {
		r.schedule(r.idle - quiet)
		return
	}

	r.logger.Info("refreshing stale index",
		slog.Duration("age", now.Sub(built)))
	r.trigger()
	r.schedule(r.interval)
}
