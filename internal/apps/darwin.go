package apps

import (
	"context"
	"encoding/json"

	oerrors "github.com/osai-labs/osai/internal/errors"
)

// Darwin lists applications with system_profiler.
type Darwin struct {
	run Runner
}

// NewDarwin returns the macOS source using r (nil = ExecRunner).
func NewDarwin(r Runner) *Darwin {
	if r == nil {
		r = ExecRunner
	}
	return &Darwin{run: r}
}

func (d *Darwin) Name() string { return "system-profiler" }

type profilerOutput struct {
	Applications []struct {
		Name string `json:"_name"`
		Path string `json:"path"`
	} `json:"SPApplicationsDataType"`
}

func (d *Darwin) Enumerate(ctx context.Context) ([]App, error) {
	out, err := d.run(ctx, "system_profiler", "SPApplicationsDataType", "-json", "-detailLevel", "mini")
	if err != nil {
		return nil, commandError(ctx, d.Name(), err)
	}
	return parseProfilerJSON(out)
}

func parseProfilerJSON(out []byte) ([]App, error) {
	var parsed profilerOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, oerrors.CommandError("unreadable system_profiler output", err)
	}

	apps := make([]App, 0, len(parsed.Applications))
	for _, a := range parsed.Applications {
		apps = append(apps, App{Name: a.Name, Location: a.Path})
	}
	return clean(apps), nil
}
