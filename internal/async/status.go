// Package async runs index rebuilds in the background and tracks their
// progress for the daemon and the MCP server.
package async

import (
	"sync"
	"time"

	"github.com/osai-labs/osai/internal/index"
)

// RebuildStatus represents the overall rebuild state.
type RebuildStatus string

const (
	// StatusIdle indicates no rebuild has started yet.
	StatusIdle RebuildStatus = "idle"
	// StatusIndexing indicates a rebuild is in progress.
	StatusIndexing RebuildStatus = "indexing"
	// StatusReady indicates the last rebuild completed.
	StatusReady RebuildStatus = "ready"
	// StatusError indicates the last rebuild failed.
	StatusError RebuildStatus = "error"
)

// ProgressSnapshot is an immutable snapshot of rebuild progress.
type ProgressSnapshot struct {
	Status         string  `json:"status"`
	Stage          string  `json:"stage,omitempty"`
	EntriesWalked  int     `json:"entries_walked"`
	EntriesLimit   int     `json:"entries_limit"`
	AppsFound      int     `json:"apps_found"`
	Indexed        int     `json:"indexed"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	Runs           int     `json:"runs"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Progress provides thread-safe tracking of rebuild progress.
type Progress struct {
	mu sync.RWMutex

	status       RebuildStatus
	stage        index.Stage
	walked       int
	limit        int
	apps         int
	indexed      int
	runs         int
	startTime    time.Time
	finishTime   time.Time
	errorMessage string
}

// NewProgress creates an idle progress tracker.
func NewProgress() *Progress {
	return &Progress{status: StatusIdle}
}

// Begin resets the tracker for a new rebuild. limit is the walk cap used
// to compute the percentage.
func (p *Progress) Begin(limit int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusIndexing
	p.stage = index.StageWalking
	p.walked, p.apps, p.indexed = 0, 0, 0
	p.limit = limit
	p.runs++
	p.startTime = time.Now()
	p.finishTime = time.Time{}
	p.errorMessage = ""
}

// Observe records a stage report. Its signature matches index.ProgressFunc.
func (p *Progress) Observe(stage index.Stage, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch stage {
	case index.StageWalking:
		if count > p.walked {
			p.walked = count
		}
	case index.StageEnumerating:
		p.apps = count
	case index.StageSwapping:
		p.indexed = count
	}
	p.stage = stage
}

// SetError marks the rebuild as failed.
func (p *Progress) SetError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusError
	p.errorMessage = message
	p.finishTime = time.Now()
}

// SetReady marks the rebuild as complete.
func (p *Progress) SetReady() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusReady
	p.finishTime = time.Now()
}

// IsIndexing returns true while a rebuild is in progress.
func (p *Progress) IsIndexing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status == StatusIndexing
}

// Snapshot returns an immutable copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var pct float64
	switch {
	case p.status == StatusReady:
		pct = 100
	case p.limit > 0:
		pct = float64(p.walked) / float64(p.limit) * 100.0
	}

	var elapsed time.Duration
	switch {
	case p.startTime.IsZero():
	case p.finishTime.IsZero():
		elapsed = time.Since(p.startTime)
	default:
		elapsed = p.finishTime.Sub(p.startTime)
	}

	return ProgressSnapshot{
		Status:         string(p.status),
		Stage:          string(p.stage),
		EntriesWalked:  p.walked,
		EntriesLimit:   p.limit,
		AppsFound:      p.apps,
		Indexed:        p.indexed,
		ProgressPct:    pct,
		ElapsedSeconds: int(elapsed.Seconds()),
		Runs:           p.runs,
		ErrorMessage:   p.errorMessage,
	}
}
