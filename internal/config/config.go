// Package config holds the Settings consumed by the indexer and the layered
// loading of those settings from defaults, the user YAML file and OSAI_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/logging"
)

// SearchMode selects how files and folders are searched.
type SearchMode string

const (
	// SearchModeWindowsNative defers file/folder search to the host search
	// facility. Not integrated: it contributes no file/folder results.
	SearchModeWindowsNative SearchMode = "windows_native"
	// SearchModeCustomIndex searches files and folders in the in-memory index.
	SearchModeCustomIndex SearchMode = "custom_index"
)

// Valid reports whether m is a known search mode.
func (m SearchMode) Valid() bool {
	return m == SearchModeWindowsNative || m == SearchModeCustomIndex
}

// Settings is the configuration snapshot consumed by one index rebuild.
// A Settings value is never mutated after it is handed to the indexer;
// updates replace it wholesale.
type Settings struct {
	// SearchPaths are the ordered roots for the filesystem walk.
	SearchPaths []string `yaml:"search_paths" json:"search_paths"`
	// IgnoredDirectories are matched as case-insensitive substrings of the path.
	IgnoredDirectories []string `yaml:"ignored_directories" json:"ignored_directories"`
	// Hotkey is opaque to the indexer.
	Hotkey string `yaml:"hotkey" json:"hotkey"`
	// MaxIndexFiles caps filesystem entries admitted per rebuild, across all roots.
	MaxIndexFiles int `yaml:"max_index_files" json:"max_index_files"`
	// MaxSearchResults caps the file/folder results of one query.
	MaxSearchResults int        `yaml:"max_search_results" json:"max_search_results"`
	SearchMode       SearchMode `yaml:"search_mode" json:"search_mode"`

	// IndexTimeout bounds a whole rebuild (Go duration string).
	IndexTimeout string `yaml:"index_timeout" json:"index_timeout"`
	// EnumerateTimeout bounds platform application enumeration.
	EnumerateTimeout string `yaml:"enumerate_timeout" json:"enumerate_timeout"`
	// EnumerateApps enables platform application enumeration.
	EnumerateApps bool `yaml:"enumerate_apps" json:"enumerate_apps"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

var defaultIgnoredDirectories = []string{
	"node_modules",
	"target",
	"build",
	"dist",
	".git",
	".svn",
	"vendor",
	".vscode",
	".idea",
	"__pycache__",
	"venv",
}

// NewSettings returns the defaults for the host OS.
func NewSettings() *Settings {
	return DefaultSettingsFor(runtime.GOOS, os.Getenv)
}

// DefaultSettingsFor returns the defaults for goos, reading the home
// directory through getenv.
func DefaultSettingsFor(goos string, getenv func(string) string) *Settings {
	return &Settings{
		SearchPaths:        []string{defaultSearchPath(goos, getenv)},
		IgnoredDirectories: slices.Clone(defaultIgnoredDirectories),
		Hotkey:             "CommandOrControl+Space",
		MaxIndexFiles:      100000,
		MaxSearchResults:   10,
		SearchMode:         SearchModeCustomIndex,
		IndexTimeout:       "5m",
		EnumerateTimeout:   "30s",
		EnumerateApps:      true,
		LogLevel:           "info",
	}
}

func defaultSearchPath(goos string, getenv func(string) string) string {
	switch goos {
	case "windows":
		if v := getenv("USERPROFILE"); v != "" {
			return v
		}
		return `C:\Users`
	case "darwin":
		if v := getenv("HOME"); v != "" {
			return v
		}
		return "/Users"
	default:
		if v := getenv("HOME"); v != "" {
			return v
		}
		return "/home"
	}
}

// Clone returns a deep copy of s.
func (s *Settings) Clone() *Settings {
	c := *s
	c.SearchPaths = slices.Clone(s.SearchPaths)
	c.IgnoredDirectories = slices.Clone(s.IgnoredDirectories)
	return &c
}

// IndexTimeoutDuration returns IndexTimeout parsed, or 0 when unset.
func (s *Settings) IndexTimeoutDuration() time.Duration {
	return parseDuration(s.IndexTimeout)
}

// EnumerateTimeoutDuration returns EnumerateTimeout parsed, or 0 when unset.
func (s *Settings) EnumerateTimeoutDuration() time.Duration {
	return parseDuration(s.EnumerateTimeout)
}

func parseDuration(v string) time.Duration {
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/osai/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/osai/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "osai", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "osai", "config.yaml")
	}
	return filepath.Join(home, ".config", "osai", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads settings in order of increasing precedence:
//  1. Defaults for the host OS
//  2. User config (~/.config/osai/config.yaml)
//  3. Environment variables (OSAI_*)
//
// The result is validated.
func Load() (*Settings, error) {
	return LoadFile(GetUserConfigPath())
}

// LoadFile is Load with an explicit config file path. A missing file is not
// an error.
func LoadFile(path string) (*Settings, error) {
	s := NewSettings()

	if fileExists(path) {
		if err := s.loadYAML(path); err != nil {
			return nil, err
		}
	}

	s.applyEnvOverrides()
	s.ResolveSearchPaths()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadYAML decodes path over s. Keys absent from the file keep their
// current values; lists present in the file replace the defaults.
func (s *Settings) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return oerrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return oerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithSuggestion("Check the YAML syntax, or regenerate it with 'osai config init --force'")
	}
	return nil
}

func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("OSAI_SEARCH_PATHS"); v != "" {
		var paths []string
		for _, p := range filepath.SplitList(v) {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		s.SearchPaths = paths
	}
	if v := os.Getenv("OSAI_MAX_INDEX_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxIndexFiles = n
		}
	}
	if v := os.Getenv("OSAI_MAX_SEARCH_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxSearchResults = n
		}
	}
	if v := os.Getenv("OSAI_SEARCH_MODE"); v != "" {
		s.SearchMode = SearchMode(strings.ToLower(v))
	}
	if v := os.Getenv("OSAI_INDEX_TIMEOUT"); v != "" {
		s.IndexTimeout = v
	}
	if v := os.Getenv("OSAI_ENUMERATE_APPS"); v != "" {
		s.EnumerateApps = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("OSAI_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

// ResolvePath expands a leading ~ and returns p as a clean absolute path,
// the form the walker and the inclusion policy both compare against.
// A blank p is returned empty so Validate still rejects it.
func ResolvePath(p string) string {
	p = ExpandHome(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// ResolveSearchPaths applies ResolvePath to every search path in place.
func (s *Settings) ResolveSearchPaths() {
	for i, p := range s.SearchPaths {
		s.SearchPaths[i] = ResolvePath(p)
	}
}

// Validate reports the first invalid field as an InvalidSettings error.
func (s *Settings) Validate() error {
	if len(s.SearchPaths) == 0 {
		return oerrors.InvalidSettings("search_paths must contain at least one directory", nil)
	}
	for _, p := range s.SearchPaths {
		if strings.TrimSpace(p) == "" {
			return oerrors.InvalidSettings("search_paths must not contain empty entries", nil)
		}
	}
	for _, d := range s.IgnoredDirectories {
		if d == "" {
			// An empty substring would match every path.
			return oerrors.InvalidSettings("ignored_directories must not contain empty entries", nil)
		}
	}
	if s.MaxIndexFiles <= 0 {
		return oerrors.InvalidSettings(fmt.Sprintf("max_index_files must be positive, got %d", s.MaxIndexFiles), nil)
	}
	if s.MaxSearchResults <= 0 {
		return oerrors.InvalidSettings(fmt.Sprintf("max_search_results must be positive, got %d", s.MaxSearchResults), nil)
	}
	if !s.SearchMode.Valid() {
		return oerrors.InvalidSettings(fmt.Sprintf("search_mode must be 'windows_native' or 'custom_index', got %q", s.SearchMode), nil)
	}
	if err := validateDuration("index_timeout", s.IndexTimeout); err != nil {
		return err
	}
	if err := validateDuration("enumerate_timeout", s.EnumerateTimeout); err != nil {
		return err
	}
	if s.LogLevel != "" && !logging.ValidLevel(s.LogLevel) {
		return oerrors.InvalidSettings(fmt.Sprintf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", s.LogLevel), nil)
	}
	return nil
}

func validateDuration(name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return oerrors.InvalidSettings(fmt.Sprintf("%s must be a positive duration like '30s', got %q", name, v), err)
	}
	return nil
}

// WriteYAML writes the settings to a YAML file, creating its directory.
func (s *Settings) WriteYAML(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Set assigns a single key by its YAML name, as used by 'osai config set'.
// List keys take os.PathListSeparator-separated values.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "search_paths":
		s.SearchPaths = filepath.SplitList(value)
		s.ResolveSearchPaths()
	case "ignored_directories":
		s.IgnoredDirectories = filepath.SplitList(value)
	case "hotkey":
		s.Hotkey = value
	case "max_index_files", "max_search_results":
		n, err := strconv.Atoi(value)
		if err != nil {
			return oerrors.InvalidSettings(fmt.Sprintf("%s must be an integer, got %q", key, value), nil)
		}
		if key == "max_index_files" {
			s.MaxIndexFiles = n
		} else {
			s.MaxSearchResults = n
		}
	case "search_mode":
		s.SearchMode = SearchMode(strings.ToLower(value))
	case "index_timeout":
		s.IndexTimeout = value
	case "enumerate_timeout":
		s.EnumerateTimeout = value
	case "enumerate_apps":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return oerrors.InvalidSettings(fmt.Sprintf("enumerate_apps must be true or false, got %q", value), nil)
		}
		s.EnumerateApps = b
	case "log_level":
		s.LogLevel = value
	default:
		return oerrors.InvalidSettings(fmt.Sprintf("unknown config key %q", key), nil).
			WithSuggestion("Valid keys: " + strings.Join(Keys(), ", "))
	}
	return s.Validate()
}

// Keys returns the configurable keys in file order.
func Keys() []string {
	return []string{
		"search_paths", "ignored_directories", "hotkey", "max_index_files",
		"max_search_results", "search_mode", "index_timeout",
		"enumerate_timeout", "enumerate_apps", "log_level",
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
