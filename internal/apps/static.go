package apps

import (
	"context"
	"time"
)

// Static is a fixed application list, for tests and for disabling
// enumeration.
type Static struct {
	Apps []App
	// Err is returned instead of the list when set.
	Err error
	// Delay blocks Enumerate, honouring ctx.
	Delay time.Duration
}

func (s *Static) Name() string { return "static" }

func (s *Static) Enumerate(ctx context.Context) ([]App, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, commandError(ctx, s.Name(), ctx.Err())
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]App, len(s.Apps))
	copy(out, s.Apps)
	return out, nil
}
