package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	stage   Stage
	started bool
	// lastCount throttles walk updates to one line per reportEvery entries.
	lastCount int
}

const reportEvery = 5000

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stageChanged := !r.started || event.Stage != r.stage
	r.started = true
	r.stage = event.Stage
	if !stageChanged && event.Count-r.lastCount < reportEvery {
		return
	}
	r.lastCount = event.Count

	switch {
	case event.Message != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), event.Message)
	case event.Limit > 0:
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d entries\n", event.Stage.Icon(), event.Count, event.Limit)
	default:
		_, _ = fmt.Fprintf(r.out, "[%s] %d\n", event.Stage.Icon(), event.Count)
	}
}

// Fail implements Renderer.
func (r *PlainRenderer) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "ERROR: %v\n", err)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d entries (%d files, %d folders, %d applications) in %s",
		stats.Total(), stats.Files, stats.Folders, stats.Applications, stats.Duration.Round(100*time.Millisecond))
	if stats.Truncated {
		_, _ = fmt.Fprint(r.out, " (truncated at max_index_files)")
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
