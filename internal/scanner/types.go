// Package scanner walks the configured search roots and turns admitted
// filesystem entries into index records.
package scanner

// Admitter decides whether a path may enter the index.
// *policy.Policy satisfies it.
type Admitter interface {
	ShouldIndex(path string) bool
}

// ScanOptions configures one walk.
type ScanOptions struct {
	// Roots are walked in order.
	Roots []string

	// Policy filters every entry, including each root itself.
	Policy Admitter

	// MaxEntries caps admitted entries across all roots (0 = unlimited).
	MaxEntries int

	// AppExtensions mark regular files as applications
	// (nil = DefaultAppExtensions). Compared case-insensitively.
	AppExtensions []string

	// ProgressFunc is called with the running count of admitted entries.
	ProgressFunc func(admitted int)
}

// DefaultAppExtensions are the executable markers of Windows, macOS and
// freedesktop systems.
var DefaultAppExtensions = []string{".exe", ".app", ".desktop"}

// Stats summarizes a finished walk.
type Stats struct {
	// Admitted is the number of records produced.
	Admitted int
	// Rejected counts entries refused by the policy.
	Rejected int
	// Unreadable counts directories that could not be listed and were skipped.
	Unreadable int
	// Truncated is set when MaxEntries stopped the walk early.
	Truncated bool
}
