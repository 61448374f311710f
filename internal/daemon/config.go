// Package daemon provides the background service that keeps the index in
// memory. It rebuilds on start, on settings changes and periodically when
// idle, and answers CLI and launcher queries over a Unix socket.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/osai-labs/osai/internal/config"
)

// Config holds configuration for the daemon service.
type Config struct {
	// SocketPath is the Unix domain socket path for IPC.
	// Default: ~/.osai/daemon.sock
	SocketPath string

	// PIDPath is the file path for storing the daemon's process ID.
	// Default: ~/.osai/daemon.pid
	PIDPath string

	// DataDir holds the rebuild lock and marker files.
	// Default: ~/.osai
	DataDir string

	// ConfigPath is the settings file loaded at start and watched for
	// changes. Default: the user config path.
	ConfigPath string

	// WatchConfig rebuilds the index when ConfigPath changes.
	// Default: true
	WatchConfig bool

	// Timeout is the maximum duration for client-daemon communication.
	// Default: 30s
	Timeout time.Duration

	// ShutdownGracePeriod is the time to wait for graceful shutdown.
	// Default: 10s
	ShutdownGracePeriod time.Duration

	// RefreshInterval is the age after which an idle daemon rebuilds to
	// pick up filesystem changes. Zero disables refreshing.
	// Default: 30m
	RefreshInterval time.Duration

	// IdleTimeout is how long without searches counts as idle.
	// Default: 30s
	IdleTimeout time.Duration
}

// DataDir returns ~/.osai, or a temp directory when home is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "osai")
	}
	return filepath.Join(home, ".osai")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	dir := DataDir()

	return Config{
		SocketPath:          filepath.Join(dir, "daemon.sock"),
		PIDPath:             filepath.Join(dir, "daemon.pid"),
		DataDir:             dir,
		ConfigPath:          config.GetUserConfigPath(),
		WatchConfig:         true,
		Timeout:             30 * time.Second,
		ShutdownGracePeriod: 10 * time.Second,
		RefreshInterval:     30 * time.Minute,
		IdleTimeout:         30 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path cannot be empty")
	}
	if c.PIDPath == "" {
		return fmt.Errorf("PID path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown grace period must be positive")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval cannot be negative")
	}
	if c.RefreshInterval > 0 && c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive when refreshing")
	}
	if c.WatchConfig && c.ConfigPath == "" {
		return fmt.Errorf("config path is required to watch config")
	}
	return nil
}

// EnsureDir creates the directories for socket, PID and data files.
func (c Config) EnsureDir() error {
	dirs := []string{filepath.Dir(c.SocketPath), filepath.Dir(c.PIDPath)}
	if c.DataDir != "" {
		dirs = append(dirs, c.DataDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
