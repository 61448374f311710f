package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/model"
	"github.com/osai-labs/osai/internal/policy"
)

// errCapReached stops the walk once MaxEntries records were produced.
var errCapReached = errors.New("entry cap reached")

// Scanner discovers indexable entries under the search roots.
type Scanner struct {
	logger *slog.Logger
	stat   func(path string, d fs.DirEntry) (fs.FileInfo, error)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for skipped roots and directories.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStat replaces how entry metadata is read. The default is
// fs.DirEntry.Info.
func WithStat(fn func(path string, d fs.DirEntry) (fs.FileInfo, error)) Option {
	return func(s *Scanner) {
		if fn != nil {
			s.stat = fn
		}
	}
}

// New creates a new Scanner instance.
func New(opts ...Option) *Scanner {
	s := &Scanner{logger: slog.Default(), stat: dirEntryInfo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Walk traverses every root in order and calls emit for each admitted
// entry until MaxEntries is reached.
//
// Directories that cannot be listed are skipped, as are missing roots.
// A metadata read failure on an admitted entry aborts the walk with an
// IndexingError. An expired ctx deadline yields a Timeout error.
func (s *Scanner) Walk(ctx context.Context, opts *ScanOptions, emit func(model.SearchResult) error) (Stats, error) {
	var stats Stats
	if opts == nil || opts.Policy == nil {
		return stats, fmt.Errorf("scan options require a policy")
	}

	exts := opts.AppExtensions
	if exts == nil {
		exts = DefaultAppExtensions
	}

	for _, root := range opts.Roots {
		err := s.walkRoot(ctx, root, opts, exts, emit, &stats)
		if errors.Is(err, errCapReached) {
			stats.Truncated = true
			s.logger.Info("index cap reached",
				slog.Int("max_index_files", opts.MaxEntries),
				slog.String("root", root))
			return stats, nil
		}
		if err != nil {
			return stats, s.mapContextErr(ctx, err)
		}
	}

	return stats, nil
}

func (s *Scanner) walkRoot(ctx context.Context, root string, opts *ScanOptions, exts []string, emit func(model.SearchResult) error, stats *Stats) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return oerrors.WalkError(fmt.Sprintf("failed to resolve search path %s", root), err)
	}

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if d == nil || path == absRoot {
				s.logger.Warn("search path unavailable, skipping",
					slog.String("root", absRoot),
					slog.String("error", walkErr.Error()))
				return filepath.SkipDir
			}
			stats.Unreadable++
			s.logger.Debug("skipping unreadable directory",
				slog.String("path", path),
				slog.String("error", walkErr.Error()))
			return filepath.SkipDir
		}

		decision, admitted := decide(opts.Policy, path)
		if !admitted {
			stats.Rejected++
			// Rejection by substring or system prefix carries over to every
			// descendant, so the subtree can be skipped.
			if d.IsDir() && (decision == policy.RejectIgnored || decision == policy.RejectSystem) {
				return filepath.SkipDir
			}
			return nil
		}

		typ, ok := classify(d, exts)
		if !ok {
			return nil
		}

		name := filepath.Base(path)
		if name == "." || name == string(filepath.Separator) {
			// Volume roots have no name and are not entries themselves.
			return nil
		}

		info, err := s.stat(path, d)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Removed between listing and stat.
				return nil
			}
			return oerrors.IndexingError(fmt.Sprintf("failed to read metadata of %s", path), err).
				WithDetail("path", path)
		}

		rec := model.SearchResult{
			ID:           path,
			Name:         name,
			Type:         typ,
			Path:         path,
			LastModified: info.ModTime(),
			Source:       model.SourceFilesystem,
		}
		if typ != model.TypeFolder {
			rec.Size = info.Size()
		}

		if err := emit(rec); err != nil {
			return err
		}
		stats.Admitted++
		if opts.ProgressFunc != nil {
			opts.ProgressFunc(stats.Admitted)
		}
		if opts.MaxEntries > 0 && stats.Admitted >= opts.MaxEntries {
			return errCapReached
		}
		return nil
	})
}

func dirEntryInfo(_ string, d fs.DirEntry) (fs.FileInfo, error) {
	return d.Info()
}

// decide uses the detailed decision when the admitter provides one.
func decide(a Admitter, path string) (policy.Decision, bool) {
	if p, ok := a.(*policy.Policy); ok {
		d := p.Decide(path)
		return d, d.Accepted()
	}
	if a.ShouldIndex(path) {
		return policy.AcceptSearchPath, true
	}
	return policy.RejectOutside, false
}

// classify maps a directory entry to a result type. Symlinks, devices,
// sockets and pipes are not indexed.
func classify(d fs.DirEntry, exts []string) (model.ResultType, bool) {
	switch {
	case d.IsDir():
		return model.TypeFolder, true
	case d.Type().IsRegular():
		ext := strings.ToLower(filepath.Ext(d.Name()))
		for _, e := range exts {
			if ext != "" && ext == strings.ToLower(e) {
				return model.TypeApplication, true
			}
		}
		return model.TypeFile, true
	default:
		return "", false
	}
}

func (s *Scanner) mapContextErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return oerrors.TimeoutError("filesystem walk timed out", err).
			WithSuggestion("Raise index_timeout or narrow search_paths")
	}
	return err
}
