package apierr

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how a failing API call is retried.
type Policy struct {
	// Attempts is the total number of calls, first one included.
	// Values below 1 mean a single call.
	Attempts int
	// Base is the wait before the second call. It doubles on every
	// further retry up to Max.
	Base time.Duration
	Max  time.Duration
	// Retryable decides whether an error deserves another call.
	// Nil means IsRetryable.
	Retryable func(error) bool
}

func (p Policy) attempts() int {
	return max(p.Attempts, 1)
}

// Delay returns the wait before call n, counting from 1. The first call
// never waits.
func (p Policy) Delay(n int) time.Duration {
	if n <= 1 {
		return 0
	}
	base := max(p.Base, time.Millisecond)
	ceiling := max(p.Max, base)
	d := base
	for i := 2; i < n && d < ceiling; i++ {
		d *= 2
	}
	return min(d, ceiling)
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsRetryable(err)
}

// Do calls fn until it succeeds, fails with an error the policy does not
// retry, or runs out of attempts. fn receives the 1-based call number.
// Cancelling ctx while waiting returns ctx.Err().
func Do[T any](ctx context.Context, p Policy, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for n := 1; n <= p.attempts(); n++ {
		if wait := p.Delay(n); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		v, err := fn(n)
		if err == nil {
			return v, nil
		}
		if !p.retryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, fmt.Errorf("gave up after %d attempt(s): %w", p.attempts(), lastErr)
}
