package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupFile_NoConfig_ReturnsEmpty(t *testing.T) {
	path, err := BackupFile(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupFile_KeepsNewestThree(t *testing.T) {
	// Given: an existing config
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hotkey: a\n"), 0o644))

	// When: backing it up five times
	var made []string
	for i := 0; i < 5; i++ {
		b, err := BackupFile(path)
		require.NoError(t, err)
		require.NotEmpty(t, b)
		made = append(made, b)
	}

	// Then: only MaxBackups remain and all are distinct
	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Contains(t, backups, made[len(made)-1])

	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "hotkey: a\n", string(data))
}

func TestSave_BacksUpPreviousAndWrites(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	first := NewSettings()
	first.Hotkey = "Alt+Space"

	backup, err := Save(first, path)
	require.NoError(t, err)
	assert.Empty(t, backup)

	second := first.Clone()
	second.Hotkey = "Ctrl+K"
	backup, err = Save(second, path)
	require.NoError(t, err)
	require.NotEmpty(t, backup)

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+K", loaded.Hotkey)

	require.NoError(t, RestoreFile(path, backup))
	restored, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Alt+Space", restored.Hotkey)
}

func TestSave_InvalidSettings_DoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	s := NewSettings()
	s.MaxSearchResults = 0

	_, err := Save(s, path)
	assert.Error(t, err)
	assert.NoFileExists(t, path)
}
