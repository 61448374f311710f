package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osai-labs/osai/internal/model"
)

func TestWriter_StatusLines(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{"success", func(w *Writer) { w.Success("Index rebuilt") }, "✅ Index rebuilt\n"},
		{"warning", func(w *Writer) { w.Warningf("%d roots skipped", 2) }, "⚠️  2 roots skipped\n"},
		{"error", func(w *Writer) { w.Errorf("daemon not running") }, "❌ daemon not running\n"},
		{"no icon", func(w *Writer) { w.Status("", "indented") }, "   indented\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.write(New(buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_Code_IndentsLines(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Code("search_paths:\n  - /home/u")

	assert.Equal(t, "\n  search_paths:\n    - /home/u\n\n", buf.String())
}

func TestWriter_Progress(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Progress(0, 0, "ignored")
	assert.Empty(t, buf.String())

	w.Progress(10, 10, "done")
	assert.Contains(t, buf.String(), "100% done\n")
}

func TestRenderProgressBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("░", 10), renderProgressBar(0, 0, 10))
	assert.Equal(t, strings.Repeat("█", 5)+strings.Repeat("░", 5), renderProgressBar(5, 10, 10))
	assert.Equal(t, strings.Repeat("█", 10), renderProgressBar(20, 10, 10))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: "paths", want: FormatPaths},
		{in: "yaml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func sampleResults() []model.SearchResult {
	return []model.SearchResult{
		{ID: "/home/u/Reports", Name: "Reports", Type: model.TypeFolder, Path: "/home/u/Reports"},
		{ID: "/home/u/q1.txt", Name: "q1.txt", Type: model.TypeFile, Path: "/home/u/q1.txt",
			LastModified: time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)},
		{ID: "/opt/rb", Name: "Report Builder", Type: model.TypeApplication, Path: "/opt/rb"},
	}
}

func TestWriter_Results_Text(t *testing.T) {
	// Given: ranked results
	buf := &bytes.Buffer{}

	// When: printing as text
	require.NoError(t, New(buf).Results(sampleResults(), FormatText))

	// Then: one aligned row per result, in order
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "dir    Reports         /home/u/Reports", lines[0])
	assert.Equal(t, "file   q1.txt          /home/u/q1.txt  2024-05-06 07:08:09", lines[1])
	assert.Equal(t, "app    Report Builder  /opt/rb", lines[2])
}

func TestWriter_Results_TextEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, New(buf).Results(nil, FormatText))
	assert.Equal(t, "No results.\n", buf.String())
}

func TestWriter_Results_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, New(buf).Results(sampleResults(), FormatJSON))

	var decoded []model.SearchResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, model.TypeFolder, decoded[0].Type)
	assert.Equal(t, "Report Builder", decoded[2].Name)
}

func TestWriter_Results_JSONEmptyIsArray(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, New(buf).Results(nil, FormatJSON))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriter_Results_Paths(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, New(buf).Results(sampleResults(), FormatPaths))
	assert.Equal(t, "/home/u/Reports\n/home/u/q1.txt\n/opt/rb\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Résum…", truncate("Résumé final", 6))
}
