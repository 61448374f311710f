package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/osai-labs/osai/internal/errors"
)

// clearEnv unsets every OSAI_* override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OSAI_SEARCH_PATHS", "OSAI_MAX_INDEX_FILES", "OSAI_MAX_SEARCH_RESULTS",
		"OSAI_SEARCH_MODE", "OSAI_INDEX_TIMEOUT", "OSAI_ENUMERATE_APPS", "OSAI_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultSettingsFor_PerOS(t *testing.T) {
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}

	tests := []struct {
		name string
		goos string
		env  map[string]string
		want string
	}{
		{"windows profile", "windows", map[string]string{"USERPROFILE": `C:\Users\ann`}, `C:\Users\ann`},
		{"windows fallback", "windows", nil, `C:\Users`},
		{"darwin home", "darwin", map[string]string{"HOME": "/Users/ann"}, "/Users/ann"},
		{"darwin fallback", "darwin", nil, "/Users"},
		{"linux home", "linux", map[string]string{"HOME": "/home/ann"}, "/home/ann"},
		{"linux fallback", "linux", nil, "/home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettingsFor(tt.goos, env(tt.env))
			assert.Equal(t, []string{tt.want}, s.SearchPaths)
		})
	}
}

func TestNewSettings_ReturnsDefaults(t *testing.T) {
	s := NewSettings()

	assert.Len(t, s.SearchPaths, 1)
	assert.Equal(t, []string{
		"node_modules", "target", "build", "dist", ".git", ".svn",
		"vendor", ".vscode", ".idea", "__pycache__", "venv",
	}, s.IgnoredDirectories)
	assert.Equal(t, "CommandOrControl+Space", s.Hotkey)
	assert.Equal(t, 100000, s.MaxIndexFiles)
	assert.Equal(t, 10, s.MaxSearchResults)
	assert.Equal(t, SearchModeCustomIndex, s.SearchMode)
	assert.Equal(t, 5*time.Minute, s.IndexTimeoutDuration())
	assert.Equal(t, 30*time.Second, s.EnumerateTimeoutDuration())
	assert.True(t, s.EnumerateApps)
	assert.NoError(t, s.Validate())
}

func TestClone_IsDeep(t *testing.T) {
	s := NewSettings()
	c := s.Clone()
	c.SearchPaths[0] = "/elsewhere"
	c.IgnoredDirectories = append(c.IgnoredDirectories[:0], "x")

	assert.NotEqual(t, "/elsewhere", s.SearchPaths[0])
	assert.Equal(t, "node_modules", s.IgnoredDirectories[0])
}

func TestLoadFile_MissingFile_ReturnsDefaults(t *testing.T) {
	clearEnv(t)

	s, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, NewSettings(), s)
}

func TestLoadFile_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)

	// Given: a user file setting some keys
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search_paths:
  - /data/docs
  - /data/media
ignored_directories: [cache]
max_search_results: 25
search_mode: windows_native
enumerate_apps: false
`), 0o644))

	// When: loading
	s, err := LoadFile(path)
	require.NoError(t, err)

	// Then: file values replace defaults and the rest stay default
	assert.Equal(t, []string{"/data/docs", "/data/media"}, s.SearchPaths)
	assert.Equal(t, []string{"cache"}, s.IgnoredDirectories)
	assert.Equal(t, 25, s.MaxSearchResults)
	assert.Equal(t, SearchModeWindowsNative, s.SearchMode)
	assert.False(t, s.EnumerateApps)
	assert.Equal(t, 100000, s.MaxIndexFiles)
	assert.Equal(t, "CommandOrControl+Space", s.Hotkey)
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_index_files: 500\nsearch_mode: windows_native\n"), 0o644))

	t.Setenv("OSAI_MAX_INDEX_FILES", "42")
	t.Setenv("OSAI_SEARCH_MODE", "CUSTOM_INDEX")
	t.Setenv("OSAI_SEARCH_PATHS", "/a"+string(os.PathListSeparator)+"/b")
	t.Setenv("OSAI_ENUMERATE_APPS", "0")

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, s.MaxIndexFiles)
	assert.Equal(t, SearchModeCustomIndex, s.SearchMode)
	assert.Equal(t, []string{"/a", "/b"}, s.SearchPaths)
	assert.False(t, s.EnumerateApps)
}

func TestLoadFile_InvalidYAML_ReturnsConfigError(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search_paths: [unclosed\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Equal(t, oerrors.ErrCodeConfigInvalid, oerrors.GetCode(err))
}

func TestLoadFile_InvalidValues_ReturnInvalidSettings(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_index_files: -1\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrInvalidSettings)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"no search paths", func(s *Settings) { s.SearchPaths = nil }, true},
		{"blank search path", func(s *Settings) { s.SearchPaths = []string{" "} }, true},
		{"empty ignore entry", func(s *Settings) { s.IgnoredDirectories = []string{""} }, true},
		{"zero max index", func(s *Settings) { s.MaxIndexFiles = 0 }, true},
		{"zero max results", func(s *Settings) { s.MaxSearchResults = 0 }, true},
		{"unknown mode", func(s *Settings) { s.SearchMode = "spotlight" }, true},
		{"bad timeout", func(s *Settings) { s.IndexTimeout = "soon" }, true},
		{"negative timeout", func(s *Settings) { s.EnumerateTimeout = "-1s" }, true},
		{"empty timeout", func(s *Settings) { s.IndexTimeout = "" }, false},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettingsFor("linux", func(string) string { return "/home/u" })
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, oerrors.ErrInvalidSettings)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSet(t *testing.T) {
	s := NewSettings()

	require.NoError(t, s.Set("max_search_results", "3"))
	require.NoError(t, s.Set("search_mode", "windows_native"))
	require.NoError(t, s.Set("enumerate_apps", "false"))
	require.NoError(t, s.Set("search_paths", "/x"+string(os.PathListSeparator)+"/y"))

	assert.Equal(t, 3, s.MaxSearchResults)
	assert.Equal(t, SearchModeWindowsNative, s.SearchMode)
	assert.False(t, s.EnumerateApps)
	assert.Equal(t, []string{"/x", "/y"}, s.SearchPaths)

	assert.Error(t, s.Set("max_search_results", "many"))
	assert.Error(t, s.Set("max_search_results", "0"))
	assert.Error(t, s.Set("colour", "blue"))
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	s := NewSettings()
	s.SearchPaths = []string{"/srv/files"}
	s.MaxIndexFiles = 77
	require.NoError(t, s.WriteYAML(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestGetUserConfigPath_HonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "osai", "config.yaml"), GetUserConfigPath())
	assert.False(t, UserConfigExists())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "Documents"), ExpandHome("~/Documents"))
	assert.Equal(t, "/srv/~data", ExpandHome("/srv/~data"))
	assert.Equal(t, "~user/docs", ExpandHome("~user/docs"))
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	parent := t.TempDir()
	t.Chdir(parent)
	sep := string(filepath.Separator)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"relative", "proj", filepath.Join(parent, "proj")},
		{"dot relative", "." + sep + "proj", filepath.Join(parent, "proj")},
		{"parent segment", parent + sep + "proj" + sep + "sub" + sep + "..", filepath.Join(parent, "proj")},
		{"doubled separator", parent + sep + sep + "proj", filepath.Join(parent, "proj")},
		{"trailing separator", parent + sep + "proj" + sep, filepath.Join(parent, "proj")},
		{"home", " ~/docs ", filepath.Join(home, "docs")},
		{"blank", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.in))
		})
	}
}

func TestSet_ResolvesRelativeSearchPaths(t *testing.T) {
	parent := t.TempDir()
	t.Chdir(parent)
	s := NewSettings()

	require.NoError(t, s.Set("search_paths", "proj"+string(os.PathListSeparator)+"."))

	assert.Equal(t, []string{filepath.Join(parent, "proj"), parent}, s.SearchPaths)
}

func TestLoadFile_ExpandsHomeInSearchPaths(t *testing.T) {
	clearEnv(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	// Given: a file using ~ for the home directory
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search_paths: [\"~/\", /opt]\n"), 0o644))

	// When: loading
	s, err := LoadFile(path)
	require.NoError(t, err)

	// Then: the home prefix is expanded and absolute paths are untouched
	assert.Equal(t, []string{home, "/opt"}, s.SearchPaths)
}
