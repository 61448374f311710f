package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/model"
)

// Options configures one query.
type Options struct {
	Mode config.SearchMode
	// MaxResults caps file/folder results (<= 0: no cap). Application
	// results are never capped.
	MaxResults int
}

// OptionsFrom derives query options from settings.
func OptionsFrom(s *config.Settings) Options {
	return Options{Mode: s.SearchMode, MaxResults: s.MaxSearchResults}
}

// Engine runs queries against a Catalog.
type Engine struct {
	logger *slog.Logger
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for query traces.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a query engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns file/folder results followed by application results.
//
// Applications whose name contains the query are collected in discovery
// order in every mode. In custom_index mode, folders whose name equals the
// query are returned alone when any exist; otherwise files and folders
// whose name or path contains the query are returned. That list puts
// folders first (ordered by name), then the rest by relevance, and is cut
// to MaxResults. The query is matched as typed, surrounding spaces
// included; a blank query matches nothing.
func (e *Engine) Search(ctx context.Context, c *Catalog, query string, opts Options) ([]model.SearchResult, error) {
	start := time.Now()
	q := Normalize(query)
	if strings.TrimSpace(q) == "" || c == nil {
		return nil, nil
	}

	var apps []model.SearchResult
	for _, a := range c.apps {
		if strings.Contains(a.name, q) {
			apps = append(apps, a.rec)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []model.SearchResult
	if opts.Mode == config.SearchModeCustomIndex {
		files = e.searchFilesAndFolders(c, q, opts.MaxResults)
	}

	results := make([]model.SearchResult, 0, len(files)+len(apps))
	results = append(results, files...)
	results = append(results, apps...)

	e.logger.Debug("search",
		slog.String("query", q),
		slog.Int("files", len(files)),
		slog.Int("apps", len(apps)),
		slog.Duration("took", time.Since(start)))

	return results, nil
}

type scored struct {
	entry
	score int64
}

func (e *Engine) searchFilesAndFolders(c *Catalog, q string, limit int) []model.SearchResult {
	var hits []scored

	for _, f := range c.files {
		if f.rec.IsFolder() && f.base == q {
			hits = append(hits, scored{entry: f})
		}
	}

	if len(hits) == 0 {
		for _, f := range c.files {
			if strings.Contains(f.base, q) || strings.Contains(f.path, q) {
				hits = append(hits, scored{entry: f, score: Relevance(f.name, q)})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		aFolder, bFolder := a.rec.IsFolder(), b.rec.IsFolder()
		switch {
		case aFolder && bFolder:
			return a.rec.Name < b.rec.Name
		case aFolder != bFolder:
			return aFolder
		default:
			return a.score > b.score
		}
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]model.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = h.rec
	}
	return out
}
