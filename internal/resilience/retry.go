package resilience

import (
	"context"
	"time"
)

// RetryPolicy describes a bounded retry loop with backoff between attempts.
// Backoff doubles per attempt up to MaxBackoff when Exponential is set,
// otherwise each wait is exactly Backoff.
type RetryPolicy struct {
	Attempts    int
	Backoff     time.Duration
	MaxBackoff  time.Duration
	Exponential bool
}

// Retry runs fn up to p.Attempts+1 times (one initial call plus p.Attempts
// retries), sleeping between attempts. It returns nil on the first success,
// the last error once attempts are exhausted, or the context error if the
// context is cancelled while waiting.
func Retry(ctx context.Context, p RetryPolicy, fn func() error) error {
	attempts := p.Attempts
	if attempts < 0 {
		attempts = 0
	}

	var err error
	wait := p.Backoff
	for i := 0; i <= attempts; i++ {
		if i > 0 {
			if sleepErr := sleep(ctx, wait); sleepErr != nil {
				return sleepErr
			}
			if p.Exponential {
				wait *= 2
				if p.MaxBackoff > 0 && wait > p.MaxBackoff {
					wait = p.MaxBackoff
				}
			}
		}

		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
