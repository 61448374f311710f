package async

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osai-labs/osai/internal/index"
)

func TestNewBackgroundRebuilder(t *testing.T) {
	// Given/When: a new rebuilder
	b := NewBackgroundRebuilder(Config{DataDir: t.TempDir()}, nil)

	// Then: it is idle and Wait does not block
	require.NotNil(t, b.Progress())
	assert.False(t, b.IsRunning())
	assert.NoError(t, b.Wait())
	assert.Equal(t, string(StatusIdle), b.Progress().Snapshot().Status)
}

func TestBackgroundRebuilder_Start_RunsInGoroutine(t *testing.T) {
	// Given: a rebuilder with a blocking task
	release := make(chan struct{})
	var ran atomic.Bool
	b := NewBackgroundRebuilder(Config{DataDir: t.TempDir()}, func(ctx context.Context, p *Progress) error {
		<-release
		ran.Store(true)
		return nil
	})

	// When: starting it
	require.True(t, b.Start(context.Background()))

	// Then: it runs in the background until released
	assert.True(t, b.IsRunning())
	assert.True(t, b.Progress().IsIndexing())
	close(release)
	require.NoError(t, b.Wait())
	assert.True(t, ran.Load())
	assert.False(t, b.IsRunning())
	assert.Equal(t, string(StatusReady), b.Progress().Snapshot().Status)
}

func TestBackgroundRebuilder_Start_RefusedWhileRunning(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	b := NewBackgroundRebuilder(Config{}, func(ctx context.Context, p *Progress) error {
		calls.Add(1)
		<-release
		return nil
	})

	require.True(t, b.Start(context.Background()))
	assert.False(t, b.Start(context.Background()))

	close(release)
	require.NoError(t, b.Wait())
	assert.Equal(t, int32(1), calls.Load())
}

func TestBackgroundRebuilder_Restartable(t *testing.T) {
	// Given: a rebuilder that already finished once
	var calls atomic.Int32
	b := NewBackgroundRebuilder(Config{}, func(ctx context.Context, p *Progress) error {
		calls.Add(1)
		return nil
	})
	require.True(t, b.Start(context.Background()))
	require.NoError(t, b.Wait())

	// When: starting again
	require.True(t, b.Start(context.Background()))
	require.NoError(t, b.Wait())

	// Then: both runs happened and are counted
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, b.Progress().Snapshot().Runs)
}

func TestBackgroundRebuilder_Stop_CancelsRun(t *testing.T) {
	// Given: a task that waits for cancellation
	b := NewBackgroundRebuilder(Config{}, func(ctx context.Context, p *Progress) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.True(t, b.Start(context.Background()))

	// When: stopping
	done := make(chan struct{})
	go func() {
		b.Stop()
		close(done)
	}()

	// Then: Stop returns promptly and the error is the cancellation
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.ErrorIs(t, b.Wait(), context.Canceled)
	assert.False(t, b.IsRunning())
}

func TestBackgroundRebuilder_ParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBackgroundRebuilder(Config{}, func(ctx context.Context, p *Progress) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.True(t, b.Start(ctx))

	cancel()

	assert.ErrorIs(t, b.Wait(), context.Canceled)
}

func TestBackgroundRebuilder_StopWhenIdle(t *testing.T) {
	b := NewBackgroundRebuilder(Config{}, nil)
	b.Stop()
	assert.False(t, b.IsRunning())
}

func TestBackgroundRebuilder_Error_SetsProgress(t *testing.T) {
	b := NewBackgroundRebuilder(Config{}, func(ctx context.Context, p *Progress) error {
		return errors.New("walk failed")
	})

	require.True(t, b.Start(context.Background()))
	err := b.Wait()

	require.Error(t, err)
	snap := b.Progress().Snapshot()
	assert.Equal(t, string(StatusError), snap.Status)
	assert.Equal(t, "walk failed", snap.ErrorMessage)
}

func TestBackgroundRebuilder_Marker(t *testing.T) {
	// Given: a rebuild that checks for the marker while running
	dir := filepath.Join(t.TempDir(), "data")
	var seen atomic.Bool
	b := NewBackgroundRebuilder(Config{DataDir: dir}, func(ctx context.Context, p *Progress) error {
		seen.Store(HasIncompleteRebuild(dir))
		return nil
	})

	// When: the rebuild completes
	require.True(t, b.Start(context.Background()))
	require.NoError(t, b.Wait())

	// Then: the marker existed during the run and is gone after it
	assert.True(t, seen.Load())
	assert.False(t, HasIncompleteRebuild(dir))
}

func TestHasIncompleteRebuild(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, HasIncompleteRebuild(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerFileName), []byte("x"), 0o644))
	assert.True(t, HasIncompleteRebuild(dir))
}

func TestBackgroundRebuilder_ProgressFromIndexStages(t *testing.T) {
	b := NewBackgroundRebuilder(Config{Limit: 100}, func(ctx context.Context, p *Progress) error {
		p.Observe(index.StageWalking, 50)
		p.Observe(index.StageEnumerating, 3)
		p.Observe(index.StageSwapping, 53)
		return nil
	})

	require.True(t, b.Start(context.Background()))
	require.NoError(t, b.Wait())

	snap := b.Progress().Snapshot()
	assert.Equal(t, 50, snap.EntriesWalked)
	assert.Equal(t, 100, snap.EntriesLimit)
	assert.Equal(t, 3, snap.AppsFound)
	assert.Equal(t, 53, snap.Indexed)
	assert.Equal(t, string(index.StageSwapping), snap.Stage)
	assert.Equal(t, 100.0, snap.ProgressPct)
}

func TestBackgroundRebuilder_Request_CoalescesWhileRunning(t *testing.T) {
	// Given: a running rebuild
	release := make(chan struct{})
	var calls atomic.Int32
	b := NewBackgroundRebuilder(Config{}, func(ctx context.Context, p *Progress) error {
		if calls.Add(1) == 1 {
			<-release
		}
		return nil
	})
	require.True(t, b.Request(context.Background()))

	// When: several more requests arrive mid-run
	assert.False(t, b.Request(context.Background()))
	assert.False(t, b.Request(context.Background()))
	close(release)

	// Then: exactly one follow-up run happens
	require.NoError(t, b.Wait())
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, b.Progress().Snapshot().Runs)
	assert.False(t, b.IsRunning())
}

func TestBackgroundRebuilder_Request_NoRerunAfterStop(t *testing.T) {
	var calls atomic.Int32
	b := NewBackgroundRebuilder(Config{}, func(ctx context.Context, p *Progress) error {
		calls.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})
	require.True(t, b.Request(context.Background()))
	assert.False(t, b.Request(context.Background()))

	b.Stop()

	assert.Equal(t, int32(1), calls.Load())
}
