package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"trends-go/pkg/logger"
	"trends-go/pkg/metrics"
)

const (
	DefaultRateLimit          = 240
	DefaultRateWindow         = 60 * time.Second
	DefaultLimiterRetryPeriod = 50 * time.Millisecond
)

// RateLimiter grants at most limit permits within any trailing window.
// Grants are kept as an ordered log; trimming, checking and appending
// happen under one lock so concurrent callers never share a slot.
// Waiters re-check on a fixed interval and are not served in FIFO order.
type RateLimiter struct {
	mu            sync.Mutex
	grants        []time.Time
	limit         int
	window        time.Duration
	retryInterval time.Duration
	clock         Clock
	log           *logger.Logger

	// called under mu with the grant time
	onGrant func(time.Time)

	totalGrants uint64
	totalWaits  uint64
}

// LimiterOption customizes a RateLimiter
type LimiterOption func(*RateLimiter)

// WithLimiterClock injects the time source
func WithLimiterClock(c Clock) LimiterOption {
	return func(rl *RateLimiter) {
		rl.clock = c
	}
}

// WithRetryInterval sets the re-check interval while the window is full
func WithRetryInterval(d time.Duration) LimiterOption {
	return func(rl *RateLimiter) {
		if d > 0 {
			rl.retryInterval = d
		}
	}
}

// NewRateLimiter creates a limiter; non-positive arguments use 240 per 60s
func NewRateLimiter(limit int, window time.Duration, opts ...LimiterOption) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	rl := &RateLimiter{
		grants:        make([]time.Time, 0, limit),
		limit:         limit,
		window:        window,
		retryInterval: DefaultLimiterRetryPeriod,
		clock:         RealClock{},
		log:           logger.GetLogger().WithField("component", "rate_limiter"),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Acquire blocks until a permit is granted. It fails only when ctx is done.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	if rl.tryAcquire() {
		return nil
	}

	atomic.AddUint64(&rl.totalWaits, 1)
	started := rl.clock.Now()
	logged := false

	for {
		if err := rl.clock.Sleep(ctx, rl.retryInterval); err != nil {
			return err
		}
		if rl.tryAcquire() {
			metrics.LimiterWaitDuration.Observe(rl.clock.Now().Sub(started).Seconds())
			return nil
		}
		if !logged {
			rl.log.WithFields(map[string]interface{}{
				"limit":  rl.limit,
				"window": rl.window.String(),
			}).Debug("Rate limit window full, waiting for a permit")
			logged = true
		}
	}
}

func (rl *RateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	rl.trim(now)
	if len(rl.grants) >= rl.limit {
		return false
	}

	rl.grants = append(rl.grants, now)
	atomic.AddUint64(&rl.totalGrants, 1)
	if rl.onGrant != nil {
		rl.onGrant(now)
	}
	return true
}

// trim drops grants that fell out of (now-window, now]; must hold mu
func (rl *RateLimiter) trim(now time.Time) {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.grants) && !rl.grants[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.grants = append(rl.grants[:0], rl.grants[i:]...)
	}
}

// LimiterStats is a snapshot of limiter activity
type LimiterStats struct {
	Limit       int           `json:"limit"`
	Window      time.Duration `json:"window"`
	InWindow    int           `json:"in_window"`
	TotalGrants uint64        `json:"total_grants"`
	TotalWaits  uint64        `json:"total_waits"`
}

// Stats returns current counters
func (rl *RateLimiter) Stats() LimiterStats {
	rl.mu.Lock()
	rl.trim(rl.clock.Now())
	inWindow := len(rl.grants)
	rl.mu.Unlock()

	return LimiterStats{
		Limit:       rl.limit,
		Window:      rl.window,
		InWindow:    inWindow,
		TotalGrants: atomic.LoadUint64(&rl.totalGrants),
		TotalWaits:  atomic.LoadUint64(&rl.totalWaits),
	}
}
