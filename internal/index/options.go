package index

import (
	"log/slog"
	"runtime"

	"github.com/osai-labs/osai/internal/apps"
	"github.com/osai-labs/osai/internal/config"
	"github.com/osai-labs/osai/internal/policy"
	"github.com/osai-labs/osai/internal/scanner"
	"github.com/osai-labs/osai/internal/search"
)

// DefaultCacheSize is the number of query results cached per generation.
const DefaultCacheSize = 256

// Stage is a step of a rebuild, reported through ProgressFunc.
type Stage string

const (
	StageWalking     Stage = "walking"
	StageEnumerating Stage = "enumerating"
	StageSwapping    Stage = "swapping"
)

// ProgressFunc receives rebuild progress. count is the number of records
// produced so far by the stage. It is called from rebuild goroutines and
// must be safe for concurrent use.
type ProgressFunc func(stage Stage, count int)

// PolicyFunc builds the inclusion policy for a settings snapshot.
type PolicyFunc func(s *config.Settings) scanner.Admitter

// Option configures an Indexer.
type Option func(*Indexer)

// WithAppSource sets the platform application source. nil disables
// enumeration. Without it the host registry is used, logging through the
// indexer's logger.
func WithAppSource(src apps.PlatformAppSource) Option {
	return func(ix *Indexer) {
		ix.apps = src
		ix.appsSet = true
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) {
		if l != nil {
			ix.logger = l
		}
	}
}

// WithScanner replaces the filesystem walker.
func WithScanner(s *scanner.Scanner) Option {
	return func(ix *Indexer) {
		if s != nil {
			ix.scanner = s
		}
	}
}

// WithPolicy replaces the inclusion policy factory.
func WithPolicy(fn PolicyFunc) Option {
	return func(ix *Indexer) {
		if fn != nil {
			ix.policy = fn
		}
	}
}

// WithLockDir enables the cross-process rebuild lock in dir.
func WithLockDir(dir string) Option {
	return func(ix *Indexer) { ix.lockDir = dir }
}

// WithCacheSize sets the per-generation query cache size (0 disables it).
func WithCacheSize(n int) Option {
	return func(ix *Indexer) { ix.cacheSize = n }
}

// WithProgress sets the rebuild progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(ix *Indexer) { ix.progress = fn }
}

func hostPolicy(s *config.Settings) scanner.Admitter {
	return policy.NewFor(runtime.GOOS, s)
}

func defaultEngine(l *slog.Logger) *search.Engine {
	return search.NewEngine(search.WithLogger(l))
}
