package fn

import (
	"context"
	"math/rand"
	"time"
)

// Backoff returns how long to wait after the given zero-based failed attempt.
type Backoff func(attempt int) time.Duration

// LinearBackoff waits initial*(attempt+1): 500ms, 1s, 1.5s, ... for 500ms.
func LinearBackoff(initial time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return initial * time.Duration(attempt+1)
	}
}

// ExponentialBackoff doubles the wait after every attempt, capped at max.
// With jitter each wait is scaled by a random factor in [0.5, 1.5).
func ExponentialBackoff(initial, max time.Duration, jitter bool) Backoff {
	return func(attempt int) time.Duration {
		wait := initial
		for i := 0; i < attempt && wait < max; i++ {
			wait *= 2
		}
		if jitter {
			wait = time.Duration(float64(wait) * (0.5 + rand.Float64()))
		}
		if max > 0 && wait > max {
			wait = max
		}
		return wait
	}
}

// RetryOpts configures retry behavior.
type RetryOpts struct {
	MaxAttempts int
	Backoff     Backoff
	// Retryable reports whether a failure is worth another attempt.
	// Nil retries every error.
	Retryable func(error) bool
	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(context.Context, time.Duration) error
}

// Retry calls f up to MaxAttempts times, sleeping Backoff(attempt) between
// retryable failures. A nil Backoff waits 1s, 2s, 4s, ... with jitter, capped
// at 30s. The last failure is returned unchanged.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	var result Result[T]
	sleep := opts.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	backoff := opts.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff(time.Second, 30*time.Second, true)
	}

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		result = f(ctx)
		if result.IsOk() {
			return result
		}
		if opts.Retryable != nil && !opts.Retryable(result.err) {
			return result
		}
		if attempt == opts.MaxAttempts-1 {
			break
		}
		if err := sleep(ctx, backoff(attempt)); err != nil {
			return Err[T](err)
		}
	}
	return result
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
