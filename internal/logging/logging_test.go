package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("Debug"))
	assert.True(t, ValidLevel("warning"))
	assert.False(t, ValidLevel("verbose"))
	assert.False(t, ValidLevel(""))
}

func TestDefaultLogPath_UnderOsaiDir(t *testing.T) {
	path := DefaultLogPath()
	assert.Equal(t, "osai.log", filepath.Base(path))
	assert.Equal(t, "logs", filepath.Base(filepath.Dir(path)))
	assert.Equal(t, ".osai", filepath.Base(filepath.Dir(filepath.Dir(path))))
}

func TestQuietConfig_NoStderr(t *testing.T) {
	cfg := QuietConfig("debug")
	assert.False(t, cfg.WriteToStderr)
	assert.Equal(t, "debug", cfg.Level)
	assert.NotEmpty(t, cfg.FilePath)
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: file-only logging in a temp dir
	path := filepath.Join(t.TempDir(), "nested", "osai.log")
	logger, cleanup, err := Setup(Config{Level: "info", FilePath: path, MaxSizeMB: 1, MaxFiles: 2})
	require.NoError(t, err)

	// When: logging below and at the threshold
	logger.Debug("hidden")
	logger.Info("index rebuilt", slog.Int("records", 42))
	cleanup()

	// Then: only the info line is written, as JSON
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "index rebuilt", entry["msg"])
	assert.Equal(t, float64(42), entry["records"])
}

func TestRotatingWriter_RotatesAndPrunes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "osai.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// Each chunk fills most of the 1MB budget so every write after the
	// first triggers a rotation.
	chunk := []byte(strings.Repeat("x", 700*1024))
	for i := 0; i < 4; i++ {
		n, err := w.Write(chunk)
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "osai.log")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 1)
	require.NoError(t, err)
	_, err = w.Write([]byte("next\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous\nnext\n", string(data))
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "osai.log"), 1, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, w.Close())
}
