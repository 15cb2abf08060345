package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedBackoff time.Duration

func (f fixedBackoff) NextDelay(int) time.Duration { return time.Duration(f) }

func TestExponentialBackoff_NextDelay(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 100 * time.Millisecond},
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{6, 6400 * time.Millisecond},
		{7, 10 * time.Second},
		{20, 10 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_JitterStaysInRange(t *testing.T) {
	backoff := StartupBackoff()

	for i := 0; i < 100; i++ {
		d := backoff.NextDelay(1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int

	err := Retry(context.Background(), 5, fixedBackoff(time.Millisecond), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, func(attempt int, err error) {
		retried = append(retried, attempt)
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, fixedBackoff(time.Millisecond), func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	}, nil)

	assert.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Retry(ctx, 10, fixedBackoff(time.Hour), func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
