package retry

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Policy configures retry behavior around a single network call.
type Policy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Jitter      bool
	// Retryable decides whether an error is worth another attempt. Nil retries nothing.
	Retryable func(error) bool
}

// DefaultPolicy retries rate-limit errors four times, waiting 1s doubling up to 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		InitialWait: time.Second,
		MaxWait:     10 * time.Second,
		Jitter:      true,
		Retryable:   IsRateLimit,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out.
// The last error is returned.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	return DoWithSleeper(ctx, p, sleep, fn)
}

// DoWithSleeper is Do with an injectable wait, used by tests.
func DoWithSleeper(ctx context.Context, p Policy, wait Sleeper, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) || attempt == attempts-1 {
			return err
		}
		if waitErr := wait(ctx, p.Backoff(attempt)); waitErr != nil {
			return waitErr
		}
	}
	return err
}

// Backoff returns the wait before retry number attempt+1.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.InitialWait
	for i := 0; i < attempt && d < p.MaxWait; i++ {
		d *= 2
	}
	if p.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()))
	}
	if p.MaxWait > 0 && d > p.MaxWait {
		d = p.MaxWait
	}
	return d
}

// IsRateLimit reports whether err text looks like a provider rate-limit response.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}

func sleep(ctx context.Context, d time.Duration) error {
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
