package pipeline

import (
	"context"
	"time"
)

// Clock abstracts time for the limiter and the poll loop
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock uses the wall clock
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d or until ctx is done
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
