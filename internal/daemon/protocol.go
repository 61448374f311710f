package daemon

import (
	"fmt"
	"strings"

	"github.com/osai-labs/osai/internal/async"
	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/model"
	"github.com/osai-labs/osai/pkg/version"
)

// JSON-RPC 2.0 method names.
const (
	MethodSearch  = "search"
	MethodRebuild = "rebuild"
	MethodStatus  = "status"
	MethodPing    = "ping"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Custom error codes for daemon-specific errors.
const (
	ErrCodeIndexNotReady = -32001
	ErrCodeSearchFailed  = -32002
	ErrCodeRebuildFailed = -32003
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      string `json:"id"`
}

// Error represents a JSON-RPC 2.0 error. Data carries the osai error code
// when the failure came from the index.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	return Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
		},
		ID: id,
	}
}

// newIndexErrorResponse maps an index failure onto an RPC error, keeping
// the osai code in Data.
func newIndexErrorResponse(id string, fallback int, err error) Response {
	code := fallback
	if oerrors.GetCode(err) == oerrors.ErrCodeStoreUnavailable {
		code = ErrCodeIndexNotReady
	}
	resp := NewErrorResponse(id, code, err.Error())
	if c := oerrors.GetCode(err); c != "" {
		resp.Error.Data = c
	}
	return resp
}

// SearchParams are the parameters for the search method.
type SearchParams struct {
	// Query is the search query (required).
	Query string `json:"query"`

	// Types keeps only results of these types (optional).
	Types []model.ResultType `json:"types,omitempty"`
}

// Validate checks that required fields are present.
func (p *SearchParams) Validate() error {
	if strings.TrimSpace(p.Query) == "" {
		return fmt.Errorf("query is required")
	}
	for _, t := range p.Types {
		if !t.Valid() {
			return fmt.Errorf("unknown result type %q", t)
		}
	}
	return nil
}

// Keep reports whether r passes the type filter.
func (p *SearchParams) Keep(r model.SearchResult) bool {
	if len(p.Types) == 0 {
		return true
	}
	for _, t := range p.Types {
		if r.Type == t {
			return true
		}
	}
	return false
}

// RebuildParams are the parameters for the rebuild method.
type RebuildParams struct {
	// Wait blocks the call until the rebuild finishes.
	Wait bool `json:"wait,omitempty"`
}

// RebuildResult reports the outcome of a rebuild request.
type RebuildResult struct {
	// Started is false when the request was queued behind a running rebuild.
	Started  bool                   `json:"started"`
	Finished bool                   `json:"finished"`
	Progress async.ProgressSnapshot `json:"progress"`
	Index    index.Stats            `json:"index"`
}

// StatusResult contains daemon status information.
type StatusResult struct {
	Running    bool                   `json:"running"`
	PID        int                    `json:"pid"`
	Uptime     string                 `json:"uptime"`
	ConfigPath string                 `json:"config_path,omitempty"`
	Build      version.Info           `json:"build"`
	Index      index.Stats            `json:"index"`
	Rebuild    async.ProgressSnapshot `json:"rebuild"`
}

// PingResult is the response to a ping request.
type PingResult struct {
	Pong bool `json:"pong"`
}
