package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/model"
	"github.com/osai-labs/osai/pkg/version"
)

// mockHandler answers from canned data.
type mockHandler struct {
	results    []model.SearchResult
	searchErr  error
	rebuildErr error

	mu        sync.Mutex
	lastQuery string
}

func (m *mockHandler) HandleSearch(_ context.Context, params SearchParams) ([]model.SearchResult, error) {
	m.mu.Lock()
	m.lastQuery = params.Query
	m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

func (m *mockHandler) HandleRebuild(_ context.Context, params RebuildParams) (RebuildResult, error) {
	if m.rebuildErr != nil {
		return RebuildResult{}, m.rebuildErr
	}
	return RebuildResult{Started: true, Finished: params.Wait, Index: index.Stats{Ready: true, Generation: 7}}, nil
}

func (m *mockHandler) GetStatus() StatusResult {
	return StatusResult{ConfigPath: "/etc/osai.yaml", Index: index.Stats{Ready: true, Total: 3}}
}

// testSocketPath creates a short unique socket path; macOS caps socket
// paths near 104 bytes, which t.TempDir often exceeds.
func testSocketPath(t *testing.T, kind string) string {
	t.Helper()
	socketPath := filepath.Join("/tmp", fmt.Sprintf("osai-%s-%d.sock", kind, time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(socketPath) })
	return socketPath
}

// startServer runs a server with h until the test ends.
func startServer(t *testing.T, h RequestHandler) string {
	t.Helper()
	socketPath := testSocketPath(t, "server")

	srv, err := NewServer(socketPath)
	require.NoError(t, err)
	if h != nil {
		srv.SetHandler(h)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", socketPath)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)
	return socketPath
}

// roundTrip sends a raw request and decodes the raw response.
func roundTrip(t *testing.T, socketPath string, req any) Response {
	t.Helper()
	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, json.NewEncoder(conn).Encode(req))
	var resp Response
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	return resp
}

func TestNewServer(t *testing.T) {
	socketPath := testSocketPath(t, "server")

	srv, err := NewServer(socketPath)
	require.NoError(t, err)
	assert.Equal(t, socketPath, srv.socketPath)

	_, err = NewServer("")
	assert.Error(t, err)
}

func TestServer_ListenAndServe(t *testing.T) {
	socketPath := testSocketPath(t, "server")
	srv, err := NewServer(socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(socketPath)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	// Socket is removed on shutdown.
	_, err = os.Stat(socketPath)
	assert.True(t, os.IsNotExist(err))
}

func TestServer_StaleSocketReplaced(t *testing.T) {
	socketPath := testSocketPath(t, "server")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o644))

	srv, err := NewServer(socketPath)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.ListenAndServe(ctx) }()

	assert.Eventually(t, func() bool {
		conn, err := net.Dial("unix", socketPath)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_HandlePing(t *testing.T) {
	socketPath := startServer(t, nil)

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodPing, ID: "1"})

	assert.Nil(t, resp.Error)
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, map[string]any{"pong": true}, resp.Result)
}

func TestServer_HandleStatus(t *testing.T) {
	socketPath := startServer(t, &mockHandler{})

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodStatus, ID: "2"})

	require.Nil(t, resp.Error)
	status := resp.Result.(map[string]any)
	assert.Equal(t, true, status["running"])
	assert.Equal(t, float64(os.Getpid()), status["pid"])
	assert.Equal(t, "/etc/osai.yaml", status["config_path"])
	assert.NotEmpty(t, status["uptime"])
	build := status["build"].(map[string]any)
	assert.Equal(t, version.Short(), build["version"])
	assert.NotEmpty(t, build["platform"])
}

func TestServer_HandleSearch(t *testing.T) {
	h := &mockHandler{results: []model.SearchResult{{ID: "/a", Name: "a", Type: model.TypeFile, Path: "/a"}}}
	socketPath := startServer(t, h)

	resp := roundTrip(t, socketPath, Request{
		JSONRPC: "2.0",
		Method:  MethodSearch,
		Params:  SearchParams{Query: "a"},
		ID:      "3",
	})

	require.Nil(t, resp.Error)
	h.mu.Lock()
	assert.Equal(t, "a", h.lastQuery)
	h.mu.Unlock()
	assert.Len(t, resp.Result, 1)
}

func TestServer_HandleSearch_EmptyResultIsArray(t *testing.T) {
	socketPath := startServer(t, &mockHandler{})

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, json.NewEncoder(conn).Encode(Request{JSONRPC: "2.0", Method: MethodSearch, Params: SearchParams{Query: "zzz"}, ID: "4"}))

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(conn).Decode(&raw))
	assert.Equal(t, "[]", string(raw["result"]))
}

func TestServer_HandleSearch_InvalidParams(t *testing.T) {
	socketPath := startServer(t, &mockHandler{})

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodSearch, Params: map[string]any{"query": ""}, ID: "5"})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidParams, resp.Error.Code)
}

func TestServer_HandleSearch_NoHandler(t *testing.T) {
	socketPath := startServer(t, nil)

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodSearch, Params: SearchParams{Query: "a"}, ID: "6"})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInternalError, resp.Error.Code)
}

func TestServer_HandleSearch_IndexNotReady(t *testing.T) {
	socketPath := startServer(t, &mockHandler{searchErr: oerrors.StoreUnavailable("index has not been built yet")})

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodSearch, Params: SearchParams{Query: "a"}, ID: "7"})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeIndexNotReady, resp.Error.Code)
	assert.Equal(t, oerrors.ErrCodeStoreUnavailable, resp.Error.Data)
}

func TestServer_HandleRebuild(t *testing.T) {
	socketPath := startServer(t, &mockHandler{})

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodRebuild, Params: RebuildParams{Wait: true}, ID: "8"})

	require.Nil(t, resp.Error)
	result := resp.Result.(map[string]any)
	assert.Equal(t, true, result["started"])
	assert.Equal(t, true, result["finished"])
}

func TestServer_HandleRebuild_Failure(t *testing.T) {
	socketPath := startServer(t, &mockHandler{rebuildErr: oerrors.TimeoutError("index rebuild timed out", nil)})

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: MethodRebuild, ID: "9"})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRebuildFailed, resp.Error.Code)
	assert.Equal(t, oerrors.ErrCodeTimeout, resp.Error.Data)
}

func TestServer_UnknownMethod(t *testing.T) {
	socketPath := startServer(t, nil)

	resp := roundTrip(t, socketPath, Request{JSONRPC: "2.0", Method: "launch", ID: "10"})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "launch")
}

func TestServer_WrongVersion(t *testing.T) {
	socketPath := startServer(t, nil)

	resp := roundTrip(t, socketPath, Request{JSONRPC: "1.0", Method: MethodPing, ID: "11"})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidRequest, resp.Error.Code)
}

func TestServer_ParseError(t *testing.T) {
	socketPath := startServer(t, nil)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("{not json\n"))
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.NewDecoder(conn).Decode(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParseError, resp.Error.Code)
}
