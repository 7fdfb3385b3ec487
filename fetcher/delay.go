package fetcher

import (
	"context"
	"math/rand/v2"
	"time"
)

// maxBackoff caps the exponential component so large attempt numbers cannot
// overflow.
const maxBackoff = 2 * time.Minute

// AdaptiveDelay is the pacing delay before a retry, before jitter. It grows
// by one step for every three requests the fetcher has made.
func AdaptiveDelay(base, step time.Duration, requestCount int) time.Duration {
	if requestCount < 0 {
		requestCount = 0
	}
	return base + time.Duration(requestCount/3)*step
}

// BackoffDelay is the exponential component before retry number attempt
// (1-based): 2^(attempt-1) * base, doubled when escalate is set. It is
// non-decreasing in attempt.
func BackoffDelay(base time.Duration, attempt int, escalate bool) time.Duration {
	if attempt < 1 || base <= 0 {
		return 0
	}

	d := base
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	if escalate {
		d *= 2
	}
	return min(d, maxBackoff)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Jitter returns a uniformly random duration in [0, max).
type Jitter func(max time.Duration) time.Duration

func sleepContext(ctx context.Context, d time.Duration) error {
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

func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}
