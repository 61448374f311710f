package watcher

import (
	"fmt"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates the file appeared.
	OpCreate Operation = iota
	// OpModify indicates the file content or metadata changed.
	OpModify
	// OpDelete indicates the file was removed or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a change to one watched file.
type FileEvent struct {
	// Path is the absolute, cleaned path of the watched file.
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is how long to wait after the last event before
	// emitting a batch.
	DebounceWindow time.Duration
	// PollInterval is the stat interval used by the polling fallback.
	PollInterval time.Duration
	// ForcePolling skips fsnotify entirely.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow: 500 * time.Millisecond,
		PollInterval:   2 * time.Second,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.DebounceWindow < 0 {
		return fmt.Errorf("debounce window must be non-negative, got %s", o.DebounceWindow)
	}
	if o.PollInterval < 0 {
		return fmt.Errorf("poll interval must be non-negative, got %s", o.PollInterval)
	}
	return nil
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	return o
}
