package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/osai-labs/osai/internal/async"
	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/model"
	"github.com/osai-labs/osai/pkg/version"
)

// ServerName is the implementation name reported to MCP clients.
const ServerName = "osai"

// Backend is the index the server answers from. *index.Indexer satisfies it.
type Backend interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
	Rebuild(ctx context.Context, settings *config.Settings) error
	Stats() index.Stats
	Settings() *config.Settings
}

var _ Backend = (*index.Indexer)(nil)

// Server is the MCP server for osai.
// It exposes the launcher index to AI assistants.
type Server struct {
	mcp     *mcp.Server
	backend Backend
	logger  *slog.Logger

	// Background rebuild runner (nil when rebuilds run inline)
	rebuilder *async.BackgroundRebuilder

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

const (
	searchFilesDescription = "Find files, folders and installed applications by name. " +
		"Matching is case and accent insensitive; results come back ranked with folders first, then files, then applications."
	rebuildIndexDescription = "Rebuild the file and application index from the configured search paths. " +
		"Searches keep using the previous index until the rebuild completes."
	indexStatusDescription = "Report whether the index is ready, how many entries it holds, and the progress of any running rebuild."
)

// NewServer creates a new MCP server backed by b.
func NewServer(b Backend) (*Server, error) {
	if b == nil {
		return nil, errors.New("index backend is required")
	}

	s := &Server{
		backend: b,
		logger:  slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Short(),
		},
		nil,
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// SetLogger sets the logger used for request logging.
func (s *Server) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// SetRebuilder routes rebuild_index through a background runner and
// reports its progress from index_status.
func (s *Server) SetRebuilder(r *async.BackgroundRebuilder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuilder = r
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Short()
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "search_files", Description: searchFilesDescription},
		{Name: "rebuild_index", Description: rebuildIndexDescription},
		{Name: "index_status", Description: indexStatusDescription},
	}
}

// CallTool invokes a tool by name with JSON-decoded arguments.
// search_files returns markdown; the other tools return their output structs.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search_files":
		input, err := searchInputFromArgs(args)
		if err != nil {
			return nil, err
		}
		results, _, err := s.search(ctx, input)
		if err != nil {
			return nil, MapError(err)
		}
		return FormatSearchResults(input.Query, results), nil
	case "rebuild_index":
		wait, _ := args["wait"].(bool)
		out, err := s.rebuild(ctx, RebuildIndexInput{Wait: wait})
		if err != nil {
			return nil, MapError(err)
		}
		return out, nil
	case "index_status":
		return s.indexStatus(), nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func searchInputFromArgs(args map[string]any) (SearchFilesInput, error) {
	var input SearchFilesInput
	query, ok := args["query"].(string)
	if !ok {
		return input, NewInvalidParamsError("query parameter is required and must be a string")
	}
	input.Query = query

	if l, ok := args["limit"].(float64); ok {
		input.Limit = int(l)
	} else if l, ok := args["limit"].(int); ok {
		input.Limit = l
	}

	switch types := args["types"].(type) {
	case []string:
		input.Types = types
	case []any:
		for _, t := range types {
			name, ok := t.(string)
			if !ok {
				return input, NewInvalidParamsError("types must be a list of strings")
			}
			input.Types = append(input.Types, name)
		}
	}
	return input, nil
}

// search runs a query and applies the type filter and limit.
// It returns the kept results and the match count before the limit.
func (s *Server) search(ctx context.Context, input SearchFilesInput) ([]model.SearchResult, int, error) {
	if input.Limit < 0 {
		return nil, 0, NewInvalidParamsError("limit must not be negative")
	}
	keep := make(map[model.ResultType]bool, len(input.Types))
	for _, name := range input.Types {
		t, err := model.ParseResultType(name)
		if err != nil {
			return nil, 0, NewInvalidParamsError(err.Error())
		}
		keep[t] = true
	}

	s.mu.RLock()
	logger := s.logger
	s.mu.RUnlock()

	start := time.Now()
	requestID := generateRequestID()
	results, err := s.backend.Search(ctx, input.Query)
	if err != nil {
		logger.Warn("search_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, 0, s.notReady(err)
	}

	if len(keep) > 0 {
		filtered := results[:0]
		for _, r := range results {
			if keep[r.Type] {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	total := len(results)
	if input.Limit > 0 && len(results) > input.Limit {
		results = results[:input.Limit]
	}

	logger.Debug("search_completed",
		slog.String("request_id", requestID),
		slog.Int("query_len", len(input.Query)),
		slog.Int("results", len(results)),
		slog.Int("total", total),
		slog.Duration("took", time.Since(start)))
	return results, total, nil
}

// notReady adds rebuild progress to a not-ready error.
func (s *Server) notReady(err error) error {
	s.mu.RLock()
	r := s.rebuilder
	s.mu.RUnlock()

	mapped := MapError(err)
	if mapped.Code != ErrCodeIndexNotReady || r == nil || !r.Progress().IsIndexing() {
		return mapped
	}
	snap := r.Progress().Snapshot()
	return &MCPError{
		Code: ErrCodeIndexNotReady,
		Message: fmt.Sprintf("Index is being built (%s, %d entries so far). Try again in a moment.",
			snap.Stage, snap.EntriesWalked),
	}
}

func (s *Server) rebuild(ctx context.Context, input RebuildIndexInput) (RebuildIndexOutput, error) {
	s.mu.RLock()
	r := s.rebuilder
	s.mu.RUnlock()

	var out RebuildIndexOutput
	if r == nil {
		// No runner: rebuild inline with the current settings.
		if err := s.backend.Rebuild(ctx, nil); err != nil {
			return out, err
		}
		out.Started = true
		out.Finished = true
	} else {
		out.Started = r.Request(context.WithoutCancel(ctx))
		if input.Wait {
			if err := waitRebuild(ctx, r); err != nil {
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
				out.Error = err.Error()
			}
			out.Finished = true
		}
	}

	stats := s.backend.Stats()
	out.Generation = stats.Generation
	out.Total = stats.Total
	return out, nil
}

// waitRebuild blocks until the runner is idle or ctx is done.
func waitRebuild(ctx context.Context, r *async.BackgroundRebuilder) error {
	done := make(chan error, 1)
	go func() { done <- r.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) indexStatus() *IndexStatusOutput {
	stats := s.backend.Stats()
	out := &IndexStatusOutput{
		Ready:        stats.Ready,
		Generation:   stats.Generation,
		Files:        stats.Files,
		Folders:      stats.Folders,
		Applications: stats.Applications,
		Total:        stats.Total,
		Truncated:    stats.Truncated,
		BuildMillis:  stats.BuildTime.Milliseconds(),
		LastError:    stats.LastError,
		SearchMode:   stats.SearchMode,
		SearchPaths:  stats.SearchPaths,
	}
	if !stats.BuiltAt.IsZero() {
		out.LastIndexed = stats.BuiltAt.UTC().Format(time.RFC3339)
	}

	s.mu.RLock()
	r := s.rebuilder
	s.mu.RUnlock()
	if r != nil {
		snap := r.Progress().Snapshot()
		out.Indexing = &IndexingProgress{
			Status:         snap.Status,
			Stage:          snap.Stage,
			EntriesWalked:  snap.EntriesWalked,
			AppsFound:      snap.AppsFound,
			ProgressPct:    snap.ProgressPct,
			ElapsedSeconds: snap.ElapsedSeconds,
			ErrorMessage:   snap.ErrorMessage,
		}
	}
	return out
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_files",
		Description: searchFilesDescription,
	}, s.mcpSearchFilesHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "rebuild_index",
		Description: rebuildIndexDescription,
	}, s.mcpRebuildIndexHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: indexStatusDescription,
	}, s.mcpIndexStatusHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", 3))
}

func (s *Server) mcpSearchFilesHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchFilesInput) (
	*mcp.CallToolResult,
	SearchFilesOutput,
	error,
) {
	results, total, err := s.search(ctx, input)
	if err != nil {
		return nil, SearchFilesOutput{}, MapError(err)
	}

	output := SearchFilesOutput{
		Results: make([]ResultOutput, 0, len(results)),
		Total:   total,
	}
	for _, r := range results {
		output.Results = append(output.Results, ToResultOutput(r))
	}
	return nil, output, nil
}

func (s *Server) mcpRebuildIndexHandler(ctx context.Context, _ *mcp.CallToolRequest, input RebuildIndexInput) (
	*mcp.CallToolResult,
	RebuildIndexOutput,
	error,
) {
	out, err := s.rebuild(ctx, input)
	if err != nil {
		return nil, RebuildIndexOutput{}, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) mcpIndexStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*IndexStatusOutput,
	error,
) {
	return nil, s.indexStatus(), nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch strings.ToLower(transport) {
	case "stdio", "":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		} else {
			s.logger.Info("mcp_server_stopped")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
