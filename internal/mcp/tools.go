package mcp

import (
	"time"

	"github.com/osai-labs/osai/internal/model"
)

// SearchFilesInput defines the input schema for the search_files tool.
type SearchFilesInput struct {
	Query string   `json:"query" jsonschema:"name or path fragment to look for; case and accent insensitive"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum number of results after ranking, 0 for all"`
	Types []string `json:"types,omitempty" jsonschema:"keep only these result types: file, folder, application"`
}

// SearchFilesOutput defines the output schema for the search_files tool.
type SearchFilesOutput struct {
	Results []ResultOutput `json:"results" jsonschema:"matches in ranking order: folders, then files, then applications"`
	Total   int            `json:"total" jsonschema:"number of matches before the limit"`
}

// ResultOutput is one index entry.
type ResultOutput struct {
	Name         string `json:"name" jsonschema:"display name"`
	Type         string `json:"type" jsonschema:"file, folder or application"`
	Path         string `json:"path" jsonschema:"absolute path or launch target"`
	MIMEType     string `json:"mime_type" jsonschema:"MIME type a launcher would open the entry with"`
	LastModified string `json:"last_modified,omitempty" jsonschema:"RFC 3339 modification time, when known"`
	Size         int64  `json:"size,omitempty" jsonschema:"size in bytes for files"`
	Source       string `json:"source,omitempty" jsonschema:"filesystem or registry"`
}

// ToResultOutput converts an index record for the wire.
func ToResultOutput(r model.SearchResult) ResultOutput {
	out := ResultOutput{
		Name:     r.Name,
		Type:     string(r.Type),
		Path:     r.Path,
		MIMEType: MimeTypeForResult(r),
		Size:     r.Size,
		Source:   string(r.Source),
	}
	if !r.LastModified.IsZero() {
		out.LastModified = r.LastModified.UTC().Format(time.RFC3339)
	}
	return out
}

// RebuildIndexInput defines the input schema for the rebuild_index tool.
type RebuildIndexInput struct {
	Wait bool `json:"wait,omitempty" jsonschema:"block until the rebuild finishes"`
}

// RebuildIndexOutput defines the output schema for the rebuild_index tool.
type RebuildIndexOutput struct {
	Started    bool   `json:"started" jsonschema:"false when queued behind a running rebuild"`
	Finished   bool   `json:"finished" jsonschema:"true when the call waited for completion"`
	Generation uint64 `json:"generation" jsonschema:"current index generation"`
	Total      int    `json:"total" jsonschema:"entries in the current generation"`
	Error      string `json:"error,omitempty" jsonschema:"failure of the waited-for rebuild"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Ready        bool              `json:"ready"`
	Generation   uint64            `json:"generation"`
	Files        int               `json:"files"`
	Folders      int               `json:"folders"`
	Applications int               `json:"applications"`
	Total        int               `json:"total"`
	Truncated    bool              `json:"truncated"`
	LastIndexed  string            `json:"last_indexed,omitempty"`
	BuildMillis  int64             `json:"build_ms,omitempty"`
	LastError    string            `json:"last_error,omitempty"`
	SearchMode   string            `json:"search_mode"`
	SearchPaths  []string          `json:"search_paths"`
	Indexing     *IndexingProgress `json:"indexing,omitempty"` // Present once a background rebuild has run
}

// IndexingProgress contains information about background rebuilds.
type IndexingProgress struct {
	Status         string  `json:"status"`          // "idle", "indexing", "ready", or "error"
	Stage          string  `json:"stage,omitempty"` // "walking", "enumerating", "swapping"
	EntriesWalked  int     `json:"entries_walked"`
	AppsFound      int     `json:"apps_found"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}
