package ingest

import (
	"context"
	"errors"
	"math"
	"time"

	"spot-analytics/internal/data"
)

// RetryPolicy decides how often and how long to wait when a chunk request fails.
// It knows nothing about HTTP; Fetcher applies it around any IndicatorSource.
type RetryPolicy struct {
	// MaxAttempts counts every attempt, including the first.
	MaxAttempts int
	// Backoff is the pause after failed attempt n (0-based).
	Backoff func(attempt int) time.Duration
	// Sleep is swapped out in tests; nil means a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy makes 3 attempts with 1s and 2s pauses in between.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(time.Second),
	}
}

// ExponentialBackoff returns base * 2^attempt.
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	}
}

// Do runs call until it succeeds, returns a permanent error, or the attempts run out.
// It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, call func(ctx context.Context) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt, err
		}

		err = call(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		if !Retryable(err) || attempt == maxAttempts-1 {
			return attempt + 1, err
		}

		if sleepErr := p.sleep(ctx, p.wait(attempt, err)); sleepErr != nil {
			return attempt + 1, err
		}
	}
	return maxAttempts, err
}

func (p RetryPolicy) wait(attempt int, err error) time.Duration {
	var d time.Duration
	if p.Backoff != nil {
		d = p.Backoff(attempt)
	}
	var apiErr *data.ESIOSError
	if errors.As(err, &apiErr) {
		if ra := apiErr.RetryAfterDuration(); ra > d {
			d = ra
		}
	}
	return d
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext blocks for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
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

// Retryable reports whether a failed chunk request is worth repeating.
// API answers are classified by status; transport and decode failures are always retried,
// cancellation never is.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *data.ESIOSError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
