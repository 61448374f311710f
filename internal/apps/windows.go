package apps

import (
	"bytes"
	"context"
	"encoding/json"

	oerrors "github.com/osai-labs/osai/internal/errors"
)

// windowsQuery lists machine-wide, 32-bit and per-user uninstall entries.
const windowsQuery = `Get-ItemProperty ` +
	`HKLM:\Software\Microsoft\Windows\CurrentVersion\Uninstall\*, ` +
	`HKLM:\Software\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall\*, ` +
	`HKCU:\Software\Microsoft\Windows\CurrentVersion\Uninstall\* ` +
	`-ErrorAction SilentlyContinue | ` +
	`Where-Object { $_.DisplayName -and $_.InstallLocation } | ` +
	`Select-Object DisplayName, InstallLocation | ConvertTo-Json -Compress`

// Windows reads the Uninstall registry keys through PowerShell.
type Windows struct {
	run Runner
}

// NewWindows returns the Windows source using r (nil = ExecRunner).
func NewWindows(r Runner) *Windows {
	if r == nil {
		r = ExecRunner
	}
	return &Windows{run: r}
}

func (w *Windows) Name() string { return "windows-registry" }

type uninstallEntry struct {
	DisplayName     string `json:"DisplayName"`
	InstallLocation string `json:"InstallLocation"`
}

func (w *Windows) Enumerate(ctx context.Context) ([]App, error) {
	out, err := w.run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", windowsQuery)
	if err != nil {
		return nil, commandError(ctx, w.Name(), err)
	}
	return parseUninstallJSON(out)
}

// parseUninstallJSON accepts the ConvertTo-Json forms: nothing, a single
// object, or an array of objects.
func parseUninstallJSON(out []byte) ([]App, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, nil
	}

	var entries []uninstallEntry
	if out[0] == '{' {
		var one uninstallEntry
		if err := json.Unmarshal(out, &one); err != nil {
			return nil, oerrors.CommandError("unreadable registry query output", err)
		}
		entries = []uninstallEntry{one}
	} else if err := json.Unmarshal(out, &entries); err != nil {
		return nil, oerrors.CommandError("unreadable registry query output", err)
	}

	apps := make([]App, 0, len(entries))
	for _, e := range entries {
		apps = append(apps, App{Name: e.DisplayName, Location: e.InstallLocation})
	}
	return clean(apps), nil
}
