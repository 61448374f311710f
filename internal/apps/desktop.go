package apps

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Desktop reads freedesktop.org desktop entries.
type Desktop struct {
	// Dirs are application directories in precedence order. An entry ID
	// (path relative to its directory) found in an earlier directory hides
	// the same ID in later ones.
	Dirs   []string
	logger *slog.Logger
}

// NewDesktop returns a desktop entry source over dirs.
func NewDesktop(dirs []string, logger *slog.Logger) *Desktop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Desktop{Dirs: dirs, logger: logger}
}

func (d *Desktop) Name() string { return "desktop-entries" }

// DesktopDirs returns $XDG_DATA_HOME/applications followed by
// <dir>/applications for each entry of $XDG_DATA_DIRS, with the XDG
// defaults when unset.
func DesktopDirs(getenv func(string) string) []string {
	dataHome := getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home := getenv("HOME"); home != "" {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	dataDirs := getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}

	var dirs []string
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}
	for _, d := range strings.Split(dataDirs, ":") {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}
	return dirs
}

func (d *Desktop) Enumerate(ctx context.Context) ([]App, error) {
	seen := make(map[string]bool)
	var apps []App

	for _, dir := range d.Dirs {
		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if entry == nil || entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".desktop") {
				return nil
			}

			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return nil
			}
			id := strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
			if seen[id] {
				return nil
			}
			seen[id] = true

			app, ok, parseErr := parseDesktopEntry(path)
			if parseErr != nil {
				d.logger.Debug("skipping unreadable desktop entry",
					slog.String("path", path),
					slog.String("error", parseErr.Error()))
				return nil
			}
			if ok {
				apps = append(apps, app)
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, commandError(ctx, d.Name(), err)
		}
	}

	return clean(apps), nil
}

// parseDesktopEntry returns ok=false for entries that are not visible
// applications.
func parseDesktopEntry(path string) (App, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return App{}, false, err
	}

	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return App{}, false, err
	}

	sec, err := f.GetSection("Desktop Entry")
	if err != nil {
		return App{}, false, nil
	}
	if sec.Key("Type").String() != "Application" {
		return App{}, false, nil
	}
	if sec.Key("NoDisplay").MustBool(false) || sec.Key("Hidden").MustBool(false) {
		return App{}, false, nil
	}
	if sec.Key("Exec").String() == "" {
		return App{}, false, nil
	}

	return App{Name: sec.Key("Name").String(), Location: path}, true, nil
}
