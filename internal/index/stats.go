package index

import (
	"time"

	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/model"
)

// Stats describes the current generation and the last rebuild attempt.
type Stats struct {
	Ready      bool   `json:"ready"`
	Generation uint64 `json:"generation"`
	Rebuilding bool   `json:"rebuilding"`

	Files        int `json:"files"`
	Folders      int `json:"folders"`
	Applications int `json:"applications"`
	Total        int `json:"total"`
	// Truncated is set when max_index_files stopped the walk.
	Truncated bool `json:"truncated"`

	BuiltAt     time.Time     `json:"built_at,omitempty"`
	BuildTime   time.Duration `json:"build_time_ns,omitempty"`
	LastAttempt time.Time     `json:"last_attempt,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	LastErrCode string        `json:"last_error_code,omitempty"`
	SearchMode  string        `json:"search_mode"`
	SearchPaths []string      `json:"search_paths"`
}

// Stats returns a snapshot of the index state.
func (ix *Indexer) Stats() Stats {
	ix.mu.RLock()
	s := Stats{
		Rebuilding:  ix.rebuilding,
		LastAttempt: ix.lastAttempt,
		SearchMode:  string(ix.settings.SearchMode),
		SearchPaths: append([]string(nil), ix.settings.SearchPaths...),
	}
	if ix.lastErr != nil {
		s.LastError = ix.lastErr.Error()
		s.LastErrCode = oerrors.GetCode(ix.lastErr)
	}
	ix.mu.RUnlock()

	g := ix.gen.Load()
	if g == nil {
		return s
	}

	counts := g.store.Counts()
	s.Ready = true
	s.Generation = g.number
	s.Files = counts[model.TypeFile]
	s.Folders = counts[model.TypeFolder]
	s.Applications = counts[model.TypeApplication]
	s.Total = s.Files + s.Folders + s.Applications
	s.Truncated = g.walk.Truncated
	s.BuiltAt = g.builtAt
	s.BuildTime = g.took
	return s
}
