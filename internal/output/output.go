// Package output provides consistent CLI output formatting: status lines,
// progress bars and search result listings.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/osai-labs/osai/internal/model"
)

// Format selects how search results are printed.
type Format string

const (
	// FormatText prints one aligned row per result.
	FormatText Format = "text"
	// FormatJSON prints the result array as JSON.
	FormatJSON Format = "json"
	// FormatPaths prints bare paths, one per line, for piping.
	FormatPaths Format = "paths"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatPaths:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use: text, json, paths)", s)
	}
}

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.Status(icon, msg)
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Code prints a code block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	// Indent each line
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Progress prints a progress bar with message.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}

	pct := float64(current) / float64(total) * 100
	bar := renderProgressBar(current, total, 30)

	// Use carriage return for in-place updates
	_, _ = fmt.Fprintf(w.out, "\r[%s] %.0f%% %s", bar, pct, msg)

	// Add newline when complete
	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

// ProgressDone completes a progress line with newline.
func (w *Writer) ProgressDone() {
	_, _ = fmt.Fprintln(w.out)
}

// renderProgressBar creates a text progress bar.
func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}

	pct := float64(current) / float64(total)
	filled := int(pct * float64(width))

	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Results prints search results in the given format, preserving order.
func (w *Writer) Results(results []model.SearchResult, format Format) error {
	switch format {
	case FormatJSON:
		if results == nil {
			results = []model.SearchResult{}
		}
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case FormatPaths:
		for _, r := range results {
			if _, err := fmt.Fprintln(w.out, r.Path); err != nil {
				return err
			}
		}
		return nil
	default:
		return w.resultsText(results)
	}
}

func (w *Writer) resultsText(results []model.SearchResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w.out, "No results.")
		return err
	}

	nameWidth := 0
	for _, r := range results {
		nameWidth = max(nameWidth, len([]rune(r.Name)))
	}
	nameWidth = min(nameWidth, 40)

	for _, r := range results {
		name := truncate(r.Name, nameWidth)
		pad := strings.Repeat(" ", nameWidth-len([]rune(name)))
		if _, err := fmt.Fprintf(w.out, "%-6s %s%s  %s%s\n", typeTag(r.Type), name, pad, r.Path, modified(r)); err != nil {
			return err
		}
	}
	return nil
}

func typeTag(t model.ResultType) string {
	switch t {
	case model.TypeFolder:
		return "dir"
	case model.TypeApplication:
		return "app"
	default:
		return "file"
	}
}

func modified(r model.SearchResult) string {
	if r.LastModified.IsZero() {
		return ""
	}
	return "  " + r.LastModified.Local().Format(time.DateTime)
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
