package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle spaces calls by a fixed minimum interval. It never adapts to
// responses; a zero interval disables it.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a Throttle allowing one call per interval.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// Pause sleeps for d or until ctx is done, whichever comes first.
func Pause(ctx context.Context, d time.Duration) error {
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
