package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/osai-labs/osai/internal/index"
	"github.com/osai-labs/osai/internal/model"
)

// FormatSearchResults formats results as markdown, in ranking order.
func FormatSearchResults(query string, results []model.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for \"%s\"", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\"\n\n", query))
	sb.WriteString(fmt.Sprintf("Found %d result", len(results)))
	if len(results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range results {
		formatResult(&sb, i+1, r)
	}

	return sb.String()
}

func formatResult(sb *strings.Builder, n int, r model.SearchResult) {
	sb.WriteString(fmt.Sprintf("### %d. %s (%s)\n", n, r.Name, r.Type))
	sb.WriteString(fmt.Sprintf("**Path:** `%s`\n", r.Path))

	var meta []string
	if !r.LastModified.IsZero() {
		meta = append(meta, "modified "+r.LastModified.Format(time.RFC3339))
	}
	if r.Type == model.TypeFile {
		meta = append(meta, humanSize(r.Size))
	}
	if r.Source == model.SourceRegistry {
		meta = append(meta, "from app registry")
	}
	if len(meta) > 0 {
		sb.WriteString(strings.Join(meta, " · "))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// FormatIndexStatus formats index statistics as markdown.
func FormatIndexStatus(stats index.Stats) string {
	var sb strings.Builder
	sb.WriteString("## Index Status\n\n")

	if !stats.Ready {
		sb.WriteString("**Status:** not built yet\n")
		if stats.Rebuilding {
			sb.WriteString("A rebuild is in progress.\n")
		}
		if stats.LastError != "" {
			sb.WriteString(fmt.Sprintf("**Last error:** %s\n", stats.LastError))
		}
		return sb.String()
	}

	status := "ready"
	if stats.Rebuilding {
		status = "ready (rebuilding)"
	}
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", status))
	sb.WriteString(fmt.Sprintf("**Generation:** %d, built %s in %s\n",
		stats.Generation, stats.BuiltAt.Format(time.RFC3339), stats.BuildTime.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("**Entries:** %d (%d files, %d folders, %d applications)\n",
		stats.Total, stats.Files, stats.Folders, stats.Applications))
	if stats.Truncated {
		sb.WriteString("**Note:** the walk stopped at max_index_files; some entries are missing.\n")
	}
	if stats.LastError != "" {
		sb.WriteString(fmt.Sprintf("**Last rebuild failed:** %s\n", stats.LastError))
	}
	return sb.String()
}

// humanSize formats a byte count for display.
func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
