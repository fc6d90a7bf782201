package api

import (
	"context"
	"math"
	"time"
)

// BackoffPolicy describes exponential backoff between attempts
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	MaxDelay    time.Duration
}

// DefaultBackoffPolicy allows 3 attempts waiting 1s then 2s
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		Factor:      2.0,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based)
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt-1)))
	if p.MaxDelay > 0 && (d > p.MaxDelay || d < 0) {
		return p.MaxDelay
	}
	return d
}

// Retrier runs a call under a BackoffPolicy
type Retrier struct {
	policy    BackoffPolicy
	retryable func(error) bool
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a retrier classifying errors with IsRetryable
func NewRetrier(policy BackoffPolicy) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Factor <= 0 {
		policy.Factor = 1
	}
	return &Retrier{
		policy:    policy,
		retryable: IsRetryable,
		sleep:     sleepContext,
	}
}

// WithSleep replaces the wait function, used by tests to skip real delays
func (r *Retrier) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Retrier {
	r.sleep = sleep
	return r
}

// Policy returns the configured policy
func (r *Retrier) Policy() BackoffPolicy {
	return r.policy
}

// Do calls fn until it succeeds, returns a non-retryable error, or attempts run out.
// It returns the number of attempts made and the last error.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return attempt - 1, lastErr
			}
			return attempt - 1, err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if attempt == r.policy.MaxAttempts || !r.retryable(err) {
			return attempt, err
		}

		if err := r.sleep(ctx, r.policy.Delay(attempt)); err != nil {
			return attempt, lastErr
		}
	}

	return r.policy.MaxAttempts, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
