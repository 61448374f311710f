// Package apps enumerates installed applications through the host's own
// registry: the Windows uninstall keys, the macOS system profiler or the
// freedesktop application entries.
package apps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	oerrors "github.com/osai-labs/osai/internal/errors"
	"github.com/osai-labs/osai/internal/model"
)

// App is one installed application.
type App struct {
	Name string `json:"name"`
	// Location is the install directory, bundle path or desktop entry path.
	Location string `json:"location"`
}

// PlatformAppSource enumerates the applications installed on one platform.
type PlatformAppSource interface {
	// Name identifies the source in logs and status output.
	Name() string
	// Enumerate lists installed applications. Entries without a name or
	// location are dropped. A failing or unparsable query is an error for
	// the whole enumeration.
	Enumerate(ctx context.Context) ([]App, error)
}

// Runner runs a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with exec.CommandContext. A non-zero exit is
// reported with the command's standard error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}
		return out, err
	}
	return out, nil
}

type options struct {
	runner Runner
	logger *slog.Logger
	getenv func(string) string
}

// Option configures the source returned by ForOS.
type Option func(*options)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithGetenv replaces environment lookup (desktop entry directories).
func WithGetenv(fn func(string) string) Option {
	return func(o *options) { o.getenv = fn }
}

func buildOptions(opts []Option) options {
	o := options{runner: ExecRunner, logger: slog.Default(), getenv: os.Getenv}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ForOS returns the application source for a GOOS value.
func ForOS(goos string, opts ...Option) PlatformAppSource {
	o := buildOptions(opts)
	switch goos {
	case "windows":
		return &Windows{run: o.runner}
	case "darwin":
		return &Darwin{run: o.runner}
	default:
		return &Desktop{Dirs: DesktopDirs(o.getenv), logger: o.logger}
	}
}

// ForHost returns the application source for the running system.
func ForHost(opts ...Option) PlatformAppSource {
	return ForOS(runtime.GOOS, opts...)
}

// Records converts applications to index records keyed by location.
// Duplicate locations keep the last entry.
func Records(apps []App) []model.SearchResult {
	out := make([]model.SearchResult, 0, len(apps))
	for _, a := range apps {
		out = append(out, model.SearchResult{
			ID:           a.Location,
			Name:         a.Name,
			Type:         model.TypeApplication,
			Path:         a.Location,
			LastModified: modTime(a.Location),
			Source:       model.SourceRegistry,
		})
	}
	return out
}

// modTime is best-effort; install locations may be gone or inaccessible.
func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// commandError maps a runner failure to Timeout or CommandExecutionFailed.
func commandError(ctx context.Context, source string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return oerrors.TimeoutError(fmt.Sprintf("%s application enumeration timed out", source), err).
			WithSuggestion("Raise enumerate_timeout, or set enumerate_apps: false")
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return oerrors.CommandError(fmt.Sprintf("%s application enumeration failed", source), err)
}

func clean(apps []App) []App {
	out := apps[:0]
	for _, a := range apps {
		a.Name = strings.TrimSpace(a.Name)
		a.Location = strings.TrimSpace(a.Location)
		if a.Name == "" || a.Location == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}
