package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RespectsLimit(t *testing.T) {
	pool := NewPool("test", 3)

	var inFlight, peak atomic.Int64
	err := pool.Run(context.Background(), 20, func(ctx context.Context, i int) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 3 {
		t.Errorf("peak concurrency %d exceeds limit 3", peak.Load())
	}
	snap := pool.Metrics().GetSnapshot()
	if snap.TasksSubmitted != 20 || snap.TasksCompleted != 20 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.MaxInFlight > 3 {
		t.Errorf("recorded in-flight %d exceeds limit", snap.MaxInFlight)
	}
}

func TestPool_FailuresDoNotCancelSiblings(t *testing.T) {
	pool := NewPool("test", 2)

	var ran atomic.Int64
	err := pool.Run(context.Background(), 10, func(ctx context.Context, i int) error {
		ran.Add(1)
		if i%2 == 0 {
			return errors.New("unit failed")
		}
		return ctx.Err()
	})

	if err == nil {
		t.Fatal("expected joined error")
	}
	if ran.Load() != 10 {
		t.Errorf("expected all 10 units to run, ran %d", ran.Load())
	}
	if failed := pool.Metrics().GetSnapshot().TasksFailed; failed != 5 {
		t.Errorf("expected 5 failures, got %d", failed)
	}
}

func TestPool_RecoversPanics(t *testing.T) {
	pool := NewPool("test", 4)

	err := pool.Run(context.Background(), 3, func(ctx context.Context, i int) error {
		if i == 1 {
			panic("boom")
		}
		return nil
	})

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if pe.Value != "boom" {
		t.Errorf("unexpected panic value %v", pe.Value)
	}
	if pool.Metrics().GetSnapshot().Panics != 1 {
		t.Error("panic not counted")
	}
}

func TestPool_CancelledContextSkipsWork(t *testing.T) {
	pool := NewPool("test", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int64
	err := pool.Run(ctx, 5, func(ctx context.Context, i int) error {
		ran.Add(1)
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ran.Load() != 0 {
		t.Errorf("expected no units to run, ran %d", ran.Load())
	}
}
