package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/model"
)

// RPCError is a daemon-side failure returned over the socket.
type RPCError struct {
	Method string
	Code   int
	// OsaiCode is the index error code, when the daemon sent one.
	OsaiCode string
	Message  string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s failed: %s (code: %d)", e.Method, e.Message, e.Code)
}

// Is matches osai error sentinels by code, so callers can test
// errors.Is(err, errors.ErrStoreUnavailable) across the socket.
func (e *RPCError) Is(target error) bool {
	oe, ok := target.(*oerrors.OsaiError)
	return ok && e.OsaiCode != "" && oe.Code == e.OsaiCode
}

// Client connects to the daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
	requestID  atomic.Uint64
}

// NewClient creates a new daemon client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		socketPath: cfg.SocketPath,
		timeout:    timeout,
	}
}

// Connect establishes a connection to the daemon.
func (c *Client) Connect() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return conn, nil
}

// IsRunning checks if the daemon is accepting connections.
func (c *Client) IsRunning() bool {
	conn, err := c.Connect()
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Ping checks if the daemon is responsive.
func (c *Client) Ping(ctx context.Context) error {
	var pong PingResult
	if err := c.call(ctx, MethodPing, nil, &pong); err != nil {
		return err
	}
	if !pong.Pong {
		return fmt.Errorf("ping failed: unexpected response")
	}
	return nil
}

// Search sends a search request to the daemon.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]model.SearchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	var results []model.SearchResult
	if err := c.call(ctx, MethodSearch, params, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Rebuild asks the daemon to rebuild its index.
func (c *Client) Rebuild(ctx context.Context, params RebuildParams) (*RebuildResult, error) {
	var result RebuildResult
	if err := c.call(ctx, MethodRebuild, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status retrieves daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	var status StatusResult
	if err := c.call(ctx, MethodStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// call performs one request/response exchange on a fresh connection.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	conn, err := c.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	// Set deadline from context or timeout
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID(),
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("failed to receive response: %w", err)
	}

	if resp.Error != nil {
		rpcErr := &RPCError{Method: method, Code: resp.Error.Code, Message: resp.Error.Message}
		if code, ok := resp.Error.Data.(string); ok {
			rpcErr.OsaiCode = code
		}
		return rpcErr
	}

	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// nextID generates a unique request ID.
func (c *Client) nextID() string {
	id := c.requestID.Add(1)
	return fmt.Sprintf("req-%d", id)
}
