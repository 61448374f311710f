// Package mcp implements the Model Context Protocol server that exposes the
// osai index to AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"

	oerrors "github.com/osai-labs/osai/internal/errors"
)

// Custom MCP error codes for osai.
const (
	// ErrCodeIndexNotReady indicates no generation has been built yet.
	ErrCodeIndexNotReady = -32001

	// ErrCodeEnumerationFailed indicates a platform app query failed.
	ErrCodeEnumerationFailed = -32002

	// ErrCodeTimeout indicates the request or rebuild timed out.
	ErrCodeTimeout = -32003

	// ErrCodeRebuildFailed indicates a rebuild failed for another reason.
	ErrCodeRebuildFailed = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrResourceNotFound indicates the requested resource does not exist.
	ErrResourceNotFound = errors.New("resource not found")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var osaiErr *oerrors.OsaiError
	if errors.As(err, &osaiErr) {
		return mapOsaiError(osaiErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{
			Code:    ErrCodeMethodNotFound,
			Message: "Tool not found.",
		}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid parameters.",
		}
	case errors.Is(err, ErrResourceNotFound):
		return &MCPError{
			Code:    ErrCodeMethodNotFound,
			Message: "Resource not found.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

// mapOsaiError converts an OsaiError to an MCPError by code.
func mapOsaiError(oe *oerrors.OsaiError) *MCPError {
	message := oe.Message
	if oe.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", oe.Message, oe.Suggestion)
	}

	code := ErrCodeInternalError
	switch oe.Code {
	case oerrors.ErrCodeStoreUnavailable:
		code = ErrCodeIndexNotReady
	case oerrors.ErrCodeTimeout:
		code = ErrCodeTimeout
	case oerrors.ErrCodeCommandFailed:
		code = ErrCodeEnumerationFailed
	case oerrors.ErrCodeInvalidSettings, oerrors.ErrCodeConfigInvalid:
		code = ErrCodeInvalidParams
	case oerrors.ErrCodeIndexing, oerrors.ErrCodeWalkFailed, oerrors.ErrCodeIO:
		code = ErrCodeRebuildFailed
	}
	return &MCPError{Code: code, Message: message}
}
