package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// FormatForUser returns a user-friendly error message.
// If debug is true, includes the underlying cause.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}

	var oe *OsaiError
	if !stderrors.As(err, &oe) {
		return err.Error()
	}

	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(oe.Message)
	sb.WriteString("\n")

	if oe.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(oe.Suggestion)
		sb.WriteString("\n")
	}

	if debug && oe.Cause != nil {
		sb.WriteString("\nCause: ")
		sb.WriteString(oe.Cause.Error())
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n[%s]", oe.Code))

	return sb.String()
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	var oe *OsaiError
	if !stderrors.As(err, &oe) {
		return map[string]any{
			"error": err.Error(),
		}
	}

	result := map[string]any{
		"error_code": oe.Code,
		"message":    oe.Message,
		"category":   string(oe.Category),
		"severity":   string(oe.Severity),
		"retryable":  oe.Retryable,
	}

	if oe.Cause != nil {
		result["cause"] = oe.Cause.Error()
	}

	if oe.Suggestion != "" {
		result["suggestion"] = oe.Suggestion
	}

	for k, v := range oe.Details {
		result["detail_"+k] = v
	}

	return result
}
