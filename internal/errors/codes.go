// Package errors provides structured error handling for osai.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Settings and configuration errors
//   - 2XX: IO errors (filesystem, walk)
//   - 3XX: External command errors (app enumeration, timeouts)
//   - 5XX: Indexing and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates settings or configuration errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates filesystem and traversal errors.
	CategoryIO Category = "IO"
	// CategoryCommand indicates subprocess and timeout errors.
	CategoryCommand Category = "COMMAND"
	// CategoryInternal indicates indexing and unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Settings errors (100-199)
	ErrCodeInvalidSettings = "ERR_101_INVALID_SETTINGS"
	ErrCodeConfigInvalid   = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigNotFound  = "ERR_103_CONFIG_NOT_FOUND"

	// IO errors (200-299)
	ErrCodeIO         = "ERR_201_IO"
	ErrCodeWalkFailed = "ERR_202_WALK_FAILED"

	// Command errors (300-399)
	ErrCodeCommandFailed = "ERR_301_COMMAND_FAILED"
	ErrCodeTimeout       = "ERR_302_TIMEOUT"

	// Indexing and internal errors (500-599)
	ErrCodeIndexing         = "ERR_501_INDEXING"
	ErrCodeStoreUnavailable = "ERR_502_STORE_UNAVAILABLE"
	ErrCodeInternal         = "ERR_503_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryCommand
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStoreUnavailable:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// A timed out rebuild may succeed once a slow mount or registry query recovers.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeTimeout:
		return true
	default:
		return false
	}
}
