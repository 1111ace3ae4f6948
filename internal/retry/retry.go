// Package retry runs an operation again after retryable failures, waiting an
// exponentially growing delay between attempts.
package retry

import (
	"context"
	"time"
)

// Policy bounds the retry loop. Delay before attempt n (n >= 2) is
// InitialDelay * Multiplier^(n-2), capped at MaxDelay.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultPolicy is three attempts waiting 500ms then 1s.
var DefaultPolicy = Policy{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	Multiplier:   2,
	MaxDelay:     2 * time.Second,
}

// Delay returns the wait before the given attempt, counted from 1.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := float64(p.InitialDelay)
	for i := 2; i < attempt; i++ {
		d *= p.Multiplier
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

type config struct {
	sleep   func(ctx context.Context, d time.Duration) error
	onRetry func(attempt int, delay time.Duration, err error)
}

type Option func(*config)

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *config) {
		c.sleep = sleep
	}
}

// OnRetry is called before each wait with the attempt that just failed.
func OnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// Do calls op until it succeeds, returns an error retryable rejects, or the
// policy runs out of attempts. The last error is returned unchanged. If ctx is
// done while waiting, ctx.Err() is returned.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), retryable func(error) bool, opts ...Option) (T, error) {
	cfg := config{sleep: sleep}
	for _, opt := range opts {
		opt(&cfg)
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == attempts || !retryable(err) || ctx.Err() != nil {
			return result, err
		}

		delay := p.Delay(attempt + 1)
		if cfg.onRetry != nil {
			cfg.onRetry(attempt, delay, err)
		}
		if serr := cfg.sleep(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}
	}
	return result, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
