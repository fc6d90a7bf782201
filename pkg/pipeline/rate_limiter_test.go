package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func recordGrants(rl *RateLimiter) func() []time.Time {
	var mu sync.Mutex
	var grants []time.Time
	rl.onGrant = func(t time.Time) {
		mu.Lock()
		grants = append(grants, t)
		mu.Unlock()
	}
	return func() []time.Time {
		mu.Lock()
		defer mu.Unlock()
		out := append([]time.Time(nil), grants...)
		sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
		return out
	}
}

// assertWindow checks that no trailing window of length w holds more than limit grants
func assertWindow(t *testing.T, grants []time.Time, limit int, w time.Duration) {
	t.Helper()
	for i := 0; i+limit < len(grants); i++ {
		if gap := grants[i+limit].Sub(grants[i]); gap < w {
			t.Fatalf("grants %d and %d are %v apart, %d grants inside a %v window", i, i+limit, gap, limit+1, w)
		}
	}
}

func TestRateLimiter_SequentialBurst(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(240, time.Minute, WithLimiterClock(clock))
	grants := recordGrants(rl)

	start := clock.Now()
	for i := 0; i < 600; i++ {
		if err := rl.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
	}

	got := grants()
	if len(got) != 600 {
		t.Fatalf("expected 600 grants, got %d", len(got))
	}
	assertWindow(t, got, 240, time.Minute)

	if !got[239].Equal(start) {
		t.Errorf("first 240 grants should be immediate")
	}
	if got[240].Sub(start) < time.Minute {
		t.Errorf("grant 241 came after %v, before the window elapsed", got[240].Sub(start))
	}
	for _, d := range clock.Sleeps() {
		if d != DefaultLimiterRetryPeriod {
			t.Fatalf("unexpected wait interval %v", d)
		}
	}

	stats := rl.Stats()
	if stats.TotalGrants != 600 || stats.TotalWaits == 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestRateLimiter_ConcurrentCallers(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(20, 10*time.Second, WithLimiterClock(clock))
	grants := recordGrants(rl)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if err := rl.Acquire(context.Background()); err != nil {
					t.Errorf("Acquire failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got := grants()
	if len(got) != 200 {
		t.Fatalf("expected 200 grants, got %d", len(got))
	}
	assertWindow(t, got, 20, 10*time.Second)
}

func TestRateLimiter_WallClock(t *testing.T) {
	rl := NewRateLimiter(3, 100*time.Millisecond, WithRetryInterval(5*time.Millisecond))
	grants := recordGrants(rl)

	start := time.Now()
	for i := 0; i < 7; i++ {
		if err := rl.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("7 grants at 3 per 100ms finished in %v", elapsed)
	}
	assertWindow(t, grants(), 3, 100*time.Millisecond)
}

func TestRateLimiter_CancelWhileWaiting(t *testing.T) {
	clock := newFakeClock()
	rl := NewRateLimiter(1, time.Minute, WithLimiterClock(clock))

	if err := rl.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if rl.Stats().TotalGrants != 1 {
		t.Error("cancelled caller must not consume a permit")
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	stats := rl.Stats()
	if stats.Limit != DefaultRateLimit || stats.Window != DefaultRateWindow {
		t.Errorf("unexpected defaults %+v", stats)
	}
}
