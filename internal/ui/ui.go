// Package ui provides terminal UI components: rebuild progress, status
// display and the interactive launcher picker.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/osai-labs/osai/internal/index"
)

// Stage represents a rebuild stage.
type Stage int

const (
	// StageWalking is the filesystem walk.
	StageWalking Stage = iota
	// StageEnumerating is platform application enumeration.
	StageEnumerating
	// StageSwapping is catalog construction and the generation swap.
	StageSwapping
	// StageComplete indicates the rebuild finished.
	StageComplete
)

// StageFrom maps an indexer progress stage to a display stage.
func StageFrom(s index.Stage) Stage {
	switch s {
	case index.StageEnumerating:
		return StageEnumerating
	case index.StageSwapping:
		return StageSwapping
	default:
		return StageWalking
	}
}

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageWalking:
		return "Walking"
	case StageEnumerating:
		return "Enumerating"
	case StageSwapping:
		return "Swapping"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage icon for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageWalking:
		return "WALK"
	case StageEnumerating:
		return "APPS"
	case StageSwapping:
		return "SWAP"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	Stage Stage
	// Count is the number of entries seen so far in this stage.
	Count int
	// Limit is max_index_files during the walk; zero when unknown.
	Limit   int
	Message string
}

// CompletionStats contains final rebuild statistics.
type CompletionStats struct {
	Generation   uint64
	Files        int
	Folders      int
	Applications int
	Truncated    bool
	Duration     time.Duration
}

// Total returns the number of indexed entries.
func (c CompletionStats) Total() int {
	return c.Files + c.Folders + c.Applications
}

// Renderer defines the interface for progress display.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates progress display.
	UpdateProgress(event ProgressEvent)

	// Fail reports a failed rebuild.
	Fail(err error)

	// Complete marks rendering as complete with summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer creates an appropriate renderer based on config and environment.
// It returns a TUI renderer for interactive terminals, and a plain text
// renderer for CI environments, pipes, or when --plain is specified.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
