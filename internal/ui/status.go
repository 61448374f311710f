package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// StatusInfo contains daemon and index health information.
type StatusInfo struct {
	// Daemon
	DaemonStatus string        `json:"daemon_status"` // "running", "stopped"
	PID          int           `json:"pid,omitempty"`
	Uptime       time.Duration `json:"uptime_ns,omitempty"`
	ConfigPath   string        `json:"config_path,omitempty"`

	// Build of this CLI and, when it differs, of the running daemon.
	Version       string `json:"version,omitempty"`
	DaemonVersion string `json:"daemon_version,omitempty"`

	// Index
	IndexStatus  string    `json:"index_status"` // "ready", "indexing", "error", "empty"
	Generation   uint64    `json:"generation"`
	Files        int       `json:"files"`
	Folders      int       `json:"folders"`
	Applications int       `json:"applications"`
	Truncated    bool      `json:"truncated"`
	LastIndexed  time.Time `json:"last_indexed"`
	LastError    string    `json:"last_error,omitempty"`

	// Rebuild in progress
	RebuildStage  string `json:"rebuild_stage,omitempty"`
	EntriesWalked int    `json:"entries_walked,omitempty"`

	SearchMode  string   `json:"search_mode"`
	SearchPaths []string `json:"search_paths"`
}

// Total returns the number of indexed entries.
func (s StatusInfo) Total() int {
	return s.Files + s.Folders + s.Applications
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("osai status"))

	_, _ = fmt.Fprintf(r.out, "  Daemon:       %s", r.renderStatus(info.DaemonStatus))
	if info.PID > 0 {
		_, _ = fmt.Fprintf(r.out, " (pid %d, up %s)", info.PID, formatDuration(info.Uptime))
	}
	_, _ = fmt.Fprintln(r.out)
	if info.ConfigPath != "" {
		_, _ = fmt.Fprintf(r.out, "  Config:       %s\n", info.ConfigPath)
	}
	if info.Version != "" {
		_, _ = fmt.Fprintf(r.out, "  Version:      %s\n", info.Version)
	}
	if info.DaemonVersion != "" {
		_, _ = fmt.Fprintf(r.out, "  Daemon build: %s\n", info.DaemonVersion)
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.styles.Warning.Render(
			"daemon runs another build; restart it with 'osai serve stop' and 'osai serve --detach'"))
	}
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintf(r.out, "  Index:        %s\n", r.renderStatus(info.IndexStatus))
	if info.Generation > 0 {
		_, _ = fmt.Fprintf(r.out, "  Generation:   %d\n", info.Generation)
		_, _ = fmt.Fprintf(r.out, "  Entries:      %d\n", info.Total())
		_, _ = fmt.Fprintf(r.out, "    Files:        %d\n", info.Files)
		_, _ = fmt.Fprintf(r.out, "    Folders:      %d\n", info.Folders)
		_, _ = fmt.Fprintf(r.out, "    Applications: %d\n", info.Applications)
	}
	if !info.LastIndexed.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Last indexed: %s\n", formatTime(info.LastIndexed))
	}
	if info.Truncated {
		_, _ = fmt.Fprintf(r.out, "  %s\n", r.styles.Warning.Render("walk stopped at max_index_files"))
	}
	if info.RebuildStage != "" {
		_, _ = fmt.Fprintf(r.out, "  Rebuilding:   %s (%d entries)\n", info.RebuildStage, info.EntriesWalked)
	}
	if info.LastError != "" {
		_, _ = fmt.Fprintf(r.out, "  Last error:   %s\n", r.styles.Error.Render(info.LastError))
	}
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintf(r.out, "  Search mode:  %s\n", info.SearchMode)
	if len(info.SearchPaths) > 0 {
		_, _ = fmt.Fprintf(r.out, "  Search paths: %s\n", strings.Join(info.SearchPaths, ", "))
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// renderStatus formats a status string with color.
func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "ready", "running":
		return r.styles.Success.Render(status)
	case "indexing", "stopped", "empty":
		return r.styles.Warning.Render(status)
	case "error":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
