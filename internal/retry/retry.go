// Package retry implements the shared backoff policy used by the
// ingestion jobs for external calls.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// ExhaustedError reports that every attempt failed. It wraps the last
// failure so callers can still inspect the underlying cause.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Policy controls the retry loop. Retryable decides whether a failure
// is worth another attempt; nil retries everything. OnRetry is invoked
// before each re-attempt with the attempt number that just failed.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
	OnRetry     func(attempt int, err error)
}

// Do runs fn up to policy.MaxAttempts times, sleeping
// BaseDelay * 2^(attempt-1) with jitter between attempts. It returns
// fn's first success, the first non-retryable error as-is, or an
// *ExhaustedError once the ceiling is hit. Context cancellation aborts
// the wait immediately.
func Do[T any](ctx context.Context, policy Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if policy.Retryable != nil && !policy.Retryable(err) {
			return zero, err
		}
		if attempt == policy.MaxAttempts {
			break
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
		if err := sleep(ctx, backoffDelay(policy, attempt)); err != nil {
			return zero, err
		}
	}

	return zero, &ExhaustedError{Attempts: policy.MaxAttempts, Last: lastErr}
}

func backoffDelay(policy Policy, attempt int) time.Duration {
	delay := policy.BaseDelay << (attempt - 1)
	if policy.MaxDelay > 0 && delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	if delay <= 0 {
		return 0
	}
	// Up to 25% jitter so concurrent jobs don't fall into lockstep
	// against the same source.
	return delay + time.Duration(rand.Int63n(int64(delay)/4+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
