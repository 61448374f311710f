package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/model"
)

func clientFor(socketPath string) *Client {
	return NewClient(Config{SocketPath: socketPath, Timeout: 2 * time.Second})
}

func TestClient_NotRunning(t *testing.T) {
	c := clientFor(testSocketPath(t, "client"))

	assert.False(t, c.IsRunning())
	assert.Error(t, c.Ping(context.Background()))
	_, err := c.Status(context.Background())
	assert.Error(t, err)
}

func TestClient_DefaultTimeout(t *testing.T) {
	c := NewClient(Config{SocketPath: "/tmp/x.sock"})
	assert.Equal(t, 30*time.Second, c.timeout)
}

func TestClient_PingAndStatus(t *testing.T) {
	c := clientFor(startServer(t, &mockHandler{}))
	ctx := context.Background()

	assert.True(t, c.IsRunning())
	require.NoError(t, c.Ping(ctx))

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.True(t, status.Index.Ready)
	assert.Equal(t, 3, status.Index.Total)
}

func TestClient_Search(t *testing.T) {
	h := &mockHandler{results: []model.SearchResult{
		{ID: "/docs", Name: "docs", Type: model.TypeFolder, Path: "/docs"},
		{ID: "/docs/a.txt", Name: "a.txt", Type: model.TypeFile, Path: "/docs/a.txt", Size: 4},
	}}
	c := clientFor(startServer(t, h))

	results, err := c.Search(context.Background(), SearchParams{Query: "docs"})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, model.TypeFolder, results[0].Type)
	assert.Equal(t, int64(4), results[1].Size)
}

func TestClient_Search_InvalidParams(t *testing.T) {
	c := clientFor(testSocketPath(t, "client"))

	_, err := c.Search(context.Background(), SearchParams{})

	assert.ErrorContains(t, err, "invalid params")
}

func TestClient_Search_ErrorKeepsOsaiCode(t *testing.T) {
	// Given: a daemon whose index is not built yet
	c := clientFor(startServer(t, &mockHandler{searchErr: oerrors.StoreUnavailable("index has not been built yet")}))

	// When: searching
	_, err := c.Search(context.Background(), SearchParams{Query: "x"})

	// Then: the error matches the osai sentinel across the socket
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrStoreUnavailable))
	assert.False(t, errors.Is(err, oerrors.ErrTimeout))

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, ErrCodeIndexNotReady, rpcErr.Code)
	assert.Equal(t, MethodSearch, rpcErr.Method)
}

func TestClient_Rebuild(t *testing.T) {
	c := clientFor(startServer(t, &mockHandler{}))

	result, err := c.Rebuild(context.Background(), RebuildParams{Wait: true})

	require.NoError(t, err)
	assert.True(t, result.Started)
	assert.True(t, result.Finished)
	assert.Equal(t, uint64(7), result.Index.Generation)
}

func TestClient_NextIDUnique(t *testing.T) {
	c := clientFor("/tmp/unused.sock")
	assert.NotEqual(t, c.nextID(), c.nextID())
}
