package executor

import (
	"context"
	"time"
)

// Sleeper abstracts the inter-attempt pause so tests can record delays
// instead of waiting them out.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// clockSleeper is the production Sleeper. It honors context cancellation.
type clockSleeper struct{}

func (clockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// linearDelay grows the pause proportionally to the attempt number:
// base, 2*base, 3*base, ...
func linearDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt)
}

// exponentialDelay doubles the pause each attempt: base, 2*base, 4*base, ...
func exponentialDelay(base time.Duration, attempt int) time.Duration {
	return base << (attempt - 1)
}
