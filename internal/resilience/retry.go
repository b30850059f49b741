// Package resilience retries calls to external services with exponential
// backoff and jitter.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy controls Do and DoVal.
type RetryPolicy struct {
	// Attempts is the total number of tries, the first included. Default 3.
	Attempts int
	// BaseDelay is the wait before the first retry. Default 250ms.
	BaseDelay time.Duration
	// MaxDelay caps any single wait. Default 5s.
	MaxDelay time.Duration
	// Jitter randomizes each wait by up to this fraction. Zero disables it.
	Jitter float64
	// Retryable decides whether an error deserves another try. Default IsTransient.
	Retryable func(err error) bool
	// Logger, when set, receives a warning before every retry.
	Logger *zap.Logger
	// Operation labels retry log lines.
	Operation string
}

// DefaultRetryPolicy returns the policy used for mapping API calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		BaseDelay: 250 * time.Millisecond,
		MaxDelay:  5 * time.Second,
		Jitter:    0.2,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted, or ctx is done. The last error is returned.
func Do(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions that return a value.
func DoVal[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		var val T
		val, err = fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt == p.Attempts {
			return zero, err
		}

		if p.Logger != nil {
			p.Logger.Warn("retrying operation",
				zap.String("operation", p.Operation),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}

		timer := time.NewTimer(p.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
	return zero, err
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 250 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// backoff returns the wait after the given 1-based attempt.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := math.Min(float64(p.BaseDelay)*math.Pow(2, float64(attempt-1)), float64(p.MaxDelay))
	if p.Jitter > 0 {
		delay += delay * p.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(math.Max(delay, 0))
}
