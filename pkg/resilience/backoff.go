package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy defines retry backoff behavior
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     float64 // fraction of the delay, 0.1 means ±10%
}

// StartupBackoff is used while waiting for Postgres and Redis at process start
//
// Sequence (±10% jitter): ~500ms, ~1s, ~2s, ~4s, ~8s, then capped at 10s.
func StartupBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// NextDelay returns BaseDelay * Multiplier^attempt ± jitter, capped at MaxDelay
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return eb.BaseDelay
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	jitterAmount := delay * eb.Jitter
	finalDelay := time.Duration(delay + (rand.Float64()*2-1)*jitterAmount)
	if finalDelay < 0 {
		finalDelay = eb.BaseDelay
	}
	return finalDelay
}

// Retry calls fn up to attempts times, sleeping between failures. onRetry, if
// set, sees each failure before the sleep. The last error is returned.
func Retry(ctx context.Context, attempts int, backoff BackoffStrategy, fn func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}

		timer := time.NewTimer(backoff.NextDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
