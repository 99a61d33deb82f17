package background

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeCleaner struct {
	calls atomic.Int64
}

func (f *fakeCleaner) ClearExpiredMFACodes(_ context.Context) (int64, error) {
	f.calls.Add(1)
	return 2, nil
}

type fakePruner struct {
	calls  atomic.Int64
	cutoff atomic.Value
}

func (f *fakePruner) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	f.calls.Add(1)
	f.cutoff.Store(before)
	return 1, nil
}

func TestCleanupManager_RunsImmediatelyOnStart(t *testing.T) {
	cleaner := &fakeCleaner{}
	pruner := &fakePruner{}
	cm := NewCleanupManager(cleaner, pruner, slog.Default(), time.Hour, 90*24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for cleaner.calls.Load() == 0 || pruner.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("cleanup did not run on startup")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	cutoff := pruner.cutoff.Load().(time.Time)
	wantCutoff := time.Now().Add(-90 * 24 * time.Hour)
	if cutoff.Before(wantCutoff.Add(-time.Minute)) || cutoff.After(wantCutoff.Add(time.Minute)) {
		t.Errorf("audit cutoff %v not near retention boundary %v", cutoff, wantCutoff)
	}
}

func TestCleanupManager_StopTerminatesLoop(t *testing.T) {
	cm := NewCleanupManager(&fakeCleaner{}, &fakePruner{}, slog.Default(), time.Hour, time.Hour)

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cm.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
