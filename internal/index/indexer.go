// Package index owns the searchable index: it rebuilds generations from
// the filesystem and the platform application registry, and answers
// queries against the current generation.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/osai-labs/osai/internal/apps"
	"github.com/osai-labs/osai/internal/config"
	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/model"
	"github.com/osai-labs/osai/internal/scanner"
	"github.com/osai-labs/osai/internal/search"
	"github.com/osai-labs/osai/internal/store"
)

// generation is one complete, immutable index.
type generation struct {
	number   uint64
	store    *store.Store
	catalog  *search.Catalog
	settings *config.Settings
	builtAt  time.Time
	took     time.Duration
	walk     scanner.Stats
	cache    *lru.Cache[string, []model.SearchResult]
}

// Indexer builds and queries the index.
//
// A rebuild fills a fresh store and swaps it in only on success, so
// searches always see a complete generation and a failed rebuild keeps
// the previous one. Rebuilds are serialized.
type Indexer struct {
	// sem admits one rebuild at a time.
	sem chan struct{}
	gen atomic.Pointer[generation]

	// mu guards the fields below. It is held only for swaps and reads,
	// never across a rebuild.
	mu          sync.RWMutex
	settings    *config.Settings
	lastErr     error
	lastAttempt time.Time
	rebuilding  bool

	apps      apps.PlatformAppSource
	appsSet   bool
	scanner   *scanner.Scanner
	engine    *search.Engine
	policy    PolicyFunc
	logger    *slog.Logger
	lockDir   string
	cacheSize int
	progress  ProgressFunc
	sequence  atomic.Uint64
}

// New creates an Indexer with no generation; call Rebuild before Search.
// By default applications come from the host's registry.
func New(settings *config.Settings, opts ...Option) (*Indexer, error) {
	if settings == nil {
		return nil, oerrors.InvalidSettings("settings are required", nil)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	ix := &Indexer{
		sem:       make(chan struct{}, 1),
		settings:  resolved(settings),
		logger:    slog.Default(),
		policy:    hostPolicy,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	if !ix.appsSet {
		ix.apps = apps.ForHost(apps.WithLogger(ix.logger))
	}
	if ix.scanner == nil {
		ix.scanner = scanner.New(scanner.WithLogger(ix.logger))
	}
	if ix.engine == nil {
		ix.engine = defaultEngine(ix.logger)
	}
	return ix, nil
}

// resolved copies s with every search path made absolute and clean, so
// the walker and the policy see the same roots.
func resolved(s *config.Settings) *config.Settings {
	c := s.Clone()
	c.ResolveSearchPaths()
	return c
}

// Settings returns a copy of the settings of the current generation, or
// the initial settings before the first rebuild.
func (ix *Indexer) Settings() *config.Settings {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.settings.Clone()
}

// Rebuild builds a new generation from settings and makes it current.
// It blocks while another rebuild runs. On failure the previous
// generation and settings stay in place and the error is returned.
func (ix *Indexer) Rebuild(ctx context.Context, settings *config.Settings) error {
	if settings == nil {
		settings = ix.Settings()
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	settings = resolved(settings)

	select {
	case ix.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-ix.sem }()

	ix.setRebuilding(true)
	defer ix.setRebuilding(false)

	err := ix.rebuild(ctx, settings)

	ix.mu.Lock()
	ix.lastAttempt = time.Now()
	ix.lastErr = err
	ix.mu.Unlock()

	return err
}

func (ix *Indexer) rebuild(ctx context.Context, settings *config.Settings) error {
	start := time.Now()

	if ix.lockDir != "" {
		lock := NewFileLock(ix.lockDir)
		acquired, err := lock.TryLock()
		if err == nil && !acquired {
			ix.logger.Info("waiting for another osai process to finish rebuilding",
				slog.String("lock", lock.Path()))
			err = lock.Lock(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return oerrors.IndexingError("failed to acquire rebuild lock", err).
				WithDetail("lock", lock.Path())
		}
		defer func() { _ = lock.Unlock() }()
	}

	if d := settings.IndexTimeoutDuration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	st := store.New()
	var (
		walkStats scanner.Stats
		appRecs   []model.SearchResult
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ix.report(StageWalking, 0)
		stats, err := ix.scanner.Walk(gctx, &scanner.ScanOptions{
			Roots:      settings.SearchPaths,
			Policy:     ix.policy(settings),
			MaxEntries: settings.MaxIndexFiles,
			ProgressFunc: func(n int) {
				if n%1000 == 0 {
					ix.report(StageWalking, n)
				}
			},
		}, func(r model.SearchResult) error {
			st.Insert(r)
			return nil
		})
		walkStats = stats
		return err
	})

	if settings.EnumerateApps && ix.apps != nil {
		src := ix.apps
		g.Go(func() error {
			ix.report(StageEnumerating, 0)
			ectx := gctx
			if d := settings.EnumerateTimeoutDuration(); d > 0 {
				var cancel context.CancelFunc
				ectx, cancel = context.WithTimeout(gctx, d)
				defer cancel()
			}
			list, err := src.Enumerate(ectx)
			if err != nil {
				return err
			}
			appRecs = apps.Records(list)
			ix.report(StageEnumerating, len(appRecs))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		err = ix.classify(ctx, err)
		ix.logger.Error("index rebuild failed",
			slog.String("error", err.Error()),
			slog.String("code", oerrors.GetCode(err)),
			slog.Duration("took", time.Since(start)))
		return err
	}

	// Registry records go in after the walk so they deterministically win
	// over a filesystem record with the same location.
	st.InsertAll(appRecs)

	ix.report(StageSwapping, st.Len())
	ix.swap(st, settings, walkStats, start)
	return nil
}

// classify makes every rebuild failure an OsaiError.
func (ix *Indexer) classify(ctx context.Context, err error) error {
	var oe *oerrors.OsaiError
	switch {
	case errors.As(err, &oe):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return oerrors.TimeoutError("index rebuild timed out", err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return oerrors.IndexingError("index rebuild failed", err)
	}
}

func (ix *Indexer) swap(st *store.Store, settings *config.Settings, walk scanner.Stats, start time.Time) {
	g := &generation{
		number:   ix.sequence.Add(1),
		store:    st,
		catalog:  search.NewCatalog(st.Snapshot()),
		settings: settings,
		builtAt:  time.Now(),
		took:     time.Since(start),
		walk:     walk,
	}
	if ix.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		g.cache, _ = lru.New[string, []model.SearchResult](ix.cacheSize)
	}

	ix.mu.Lock()
	ix.settings = settings
	ix.gen.Store(g)
	ix.mu.Unlock()

	counts := st.Counts()
	ix.logger.Info("index rebuilt",
		slog.Uint64("generation", g.number),
		slog.Int("files", counts[model.TypeFile]),
		slog.Int("folders", counts[model.TypeFolder]),
		slog.Int("applications", counts[model.TypeApplication]),
		slog.Bool("truncated", walk.Truncated),
		slog.Duration("took", g.took))
}

// Search queries the current generation. It returns a StoreUnavailable
// error before the first successful rebuild.
func (ix *Indexer) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	g := ix.gen.Load()
	if g == nil {
		return nil, oerrors.StoreUnavailable("index has not been built yet").
			WithSuggestion("Run 'osai index' or wait for the daemon to finish its first rebuild")
	}

	key := search.Normalize(query)
	if g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			return cloneResults(cached), nil
		}
	}

	results, err := ix.engine.Search(ctx, g.catalog, query, search.OptionsFrom(g.settings))
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		g.cache.Add(key, cloneResults(results))
	}
	return results, nil
}

func cloneResults(rs []model.SearchResult) []model.SearchResult {
	if rs == nil {
		return nil
	}
	out := make([]model.SearchResult, len(rs))
	copy(out, rs)
	return out
}

func (ix *Indexer) report(stage Stage, n int) {
	if ix.progress != nil {
		ix.progress(stage, n)
	}
}

func (ix *Indexer) setRebuilding(v bool) {
	ix.mu.Lock()
	ix.rebuilding = v
	ix.mu.Unlock()
}

// Get returns the record with the given ID from the current generation.
func (ix *Indexer) Get(id string) (model.SearchResult, error) {
	g := ix.gen.Load()
	if g == nil {
		return model.SearchResult{}, oerrors.StoreUnavailable("index has not been built yet")
	}
	r, ok := g.store.Get(id)
	if !ok {
		return model.SearchResult{}, fmt.Errorf("no indexed entry %q", id)
	}
	return r, nil
}
