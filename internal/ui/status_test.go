package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRenderer_Render(t *testing.T) {
	// Given: a running daemon with a built index
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)
	info := StatusInfo{
		DaemonStatus: "running",
		PID:          4242,
		Uptime:       90 * time.Second,
		IndexStatus:  "ready",
		Generation:   3,
		Files:        120,
		Folders:      30,
		Applications: 12,
		Truncated:    true,
		LastIndexed:  time.Now().Add(-5 * time.Minute),
		SearchMode:   "home",
		SearchPaths:  []string{"/home/u"},
	}

	// When: rendering
	require.NoError(t, r.Render(info))

	// Then: the summary lists daemon, counts and paths
	out := buf.String()
	assert.Contains(t, out, "running (pid 4242, up 1m 30s)")
	assert.Contains(t, out, "Entries:      162")
	assert.Contains(t, out, "Applications: 12")
	assert.Contains(t, out, "5 minutes ago")
	assert.Contains(t, out, "max_index_files")
	assert.Contains(t, out, "/home/u")
	assert.NotContains(t, out, "\x1b[")
}

func TestStatusRenderer_RenderBuilds(t *testing.T) {
	// Given: a daemon from another build than the CLI
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)
	info := StatusInfo{
		DaemonStatus:  "running",
		IndexStatus:   "ready",
		Version:       "osai v0.4.0 (go1.25.5, linux/amd64)",
		DaemonVersion: "osai v0.3.0 (go1.25.5, linux/amd64)",
	}

	// When: rendering
	require.NoError(t, r.Render(info))

	// Then: both builds are listed with a restart hint
	out := buf.String()
	assert.Contains(t, out, "Version:      osai v0.4.0")
	assert.Contains(t, out, "Daemon build: osai v0.3.0")
	assert.Contains(t, out, "osai serve stop")
}

func TestStatusRenderer_RenderStopped(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.Render(StatusInfo{DaemonStatus: "stopped", IndexStatus: "empty", SearchMode: "home"}))

	out := buf.String()
	assert.Contains(t, out, "Daemon:       stopped\n")
	assert.NotContains(t, out, "Generation")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.RenderJSON(StatusInfo{DaemonStatus: "running", IndexStatus: "ready", Files: 4}))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "running", parsed["daemon_status"])
	assert.Equal(t, float64(4), parsed["files"])
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "just now", formatTime(time.Now()))
	assert.Equal(t, "1 hour ago", formatTime(time.Now().Add(-61*time.Minute)))
	old := time.Date(2020, 1, 2, 3, 4, 0, 0, time.Local)
	assert.Equal(t, "2020-01-02 03:04", formatTime(old))
}
