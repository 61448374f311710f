// Package version identifies the running osai build.
//
// Release builds stamp Version, Commit and Date through -ldflags -X.
// Binaries from 'go install' or 'go build' fall back to the module
// version and VCS stamps the toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Stamped at link time; empty or "dev" means unstamped.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// shortCommit is how many characters of a revision are shown.
const shortCommit = 12

// Info describes one osai build. The daemon reports it in its status so
// the CLI can tell when it talks to a daemon from another build.
type Info struct {
	Version  string `json:"version"`
	Commit   string `json:"commit,omitempty"`
	Built    string `json:"built,omitempty"`
	Modified bool   `json:"modified,omitempty"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Get returns the build information of the running binary.
func Get() Info {
	info := Info{
		Version:  Version,
		Commit:   Commit,
		Built:    Date,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info.trimmed()
	}
	if info.Version == "" || info.Version == "dev" {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		}
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Built == "" {
				info.Built = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info.trimmed()
}

func (i Info) trimmed() Info {
	if i.Version == "" {
		i.Version = "dev"
	}
	if len(i.Commit) > shortCommit {
		i.Commit = i.Commit[:shortCommit]
	}
	return i
}

// String renders the build on one line, e.g.
// "osai v0.4.0 (3f2c1a9b7e10, 2026-05-02T10:00:00Z, go1.25.5, linux/amd64)".
func (i Info) String() string {
	parts := make([]string, 0, 4)
	if i.Commit != "" {
		c := i.Commit
		if i.Modified {
			c += "-dirty"
		}
		parts = append(parts, c)
	}
	if i.Built != "" {
		parts = append(parts, i.Built)
	}
	parts = append(parts, i.Go, i.Platform)
	return fmt.Sprintf("osai %s (%s)", i.Version, strings.Join(parts, ", "))
}

// String is Get().String().
func String() string {
	return Get().String()
}

// Short returns the version alone.
func Short() string {
	return Get().Version
}
