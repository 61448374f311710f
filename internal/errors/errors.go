package errors

import (
	stderrors "errors"
	"fmt"
)

// OsaiError is the structured error type for osai.
// It provides rich context for error handling, logging, and user presentation.
type OsaiError struct {
	// Code is the unique error code (e.g., "ERR_202_WALK_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Command, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *OsaiError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *OsaiError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with OsaiError.
func (e *OsaiError) Is(target error) bool {
	if t, ok := target.(*OsaiError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *OsaiError) WithDetail(key, value string) *OsaiError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *OsaiError) WithSuggestion(suggestion string) *OsaiError {
	e.Suggestion = suggestion
	return e
}

// New creates a new OsaiError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *OsaiError {
	return &OsaiError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an OsaiError from an existing error.
// The error's message becomes the OsaiError message.
func Wrap(code string, err error) *OsaiError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is checks against a kind, ignoring the message.
var (
	ErrInvalidSettings  = &OsaiError{Code: ErrCodeInvalidSettings}
	ErrIO               = &OsaiError{Code: ErrCodeIO}
	ErrWalkFailed       = &OsaiError{Code: ErrCodeWalkFailed}
	ErrCommandFailed    = &OsaiError{Code: ErrCodeCommandFailed}
	ErrTimeout          = &OsaiError{Code: ErrCodeTimeout}
	ErrIndexing         = &OsaiError{Code: ErrCodeIndexing}
	ErrStoreUnavailable = &OsaiError{Code: ErrCodeStoreUnavailable}
)

// InvalidSettings creates a settings validation error.
func InvalidSettings(message string, cause error) *OsaiError {
	return New(ErrCodeInvalidSettings, message, cause)
}

// ConfigError creates a configuration file error.
func ConfigError(message string, cause error) *OsaiError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *OsaiError {
	return New(ErrCodeIO, message, cause)
}

// WalkError creates a traversal error.
func WalkError(message string, cause error) *OsaiError {
	return New(ErrCodeWalkFailed, message, cause)
}

// CommandError creates an app enumeration subprocess error.
func CommandError(message string, cause error) *OsaiError {
	return New(ErrCodeCommandFailed, message, cause)
}

// TimeoutError creates a timeout error.
// Timeouts are retryable.
func TimeoutError(message string, cause error) *OsaiError {
	return New(ErrCodeTimeout, message, cause)
}

// IndexingError creates an indexing error (metadata read, invalid name, lock).
func IndexingError(message string, cause error) *OsaiError {
	return New(ErrCodeIndexing, message, cause)
}

// StoreUnavailable creates an error for searches that cannot reach an index.
func StoreUnavailable(message string) *OsaiError {
	return New(ErrCodeStoreUnavailable, message, nil)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *OsaiError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error chain holds an OsaiError with Retryable set.
func IsRetryable(err error) bool {
	var oe *OsaiError
	if stderrors.As(err, &oe) {
		return oe.Retryable
	}
	return false
}

// GetCode extracts the error code from the first OsaiError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var oe *OsaiError
	if stderrors.As(err, &oe) {
		return oe.Code
	}
	return ""
}
