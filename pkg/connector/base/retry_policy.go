package base

import (
	"context"
	"time"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
)

// RetryPolicy implements retry with exponential backoff for retryable
// errors. Non-retryable errors abort immediately.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	multiplier  float64
	maxDelay    time.Duration
}

// NewRetryPolicy creates a retry policy. maxAttempts is the number of
// retries after the first try; zero disables retries.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration, multiplier float64, maxDelay time.Duration) *RetryPolicy {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if multiplier < 1.0 {
		multiplier = 2.0
	}
	if maxDelay <= 0 {
		maxDelay = time.Minute
	}
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		multiplier:  multiplier,
		maxDelay:    maxDelay,
	}
}

// Execute runs fn, retrying retryable failures with exponential backoff
// until the attempt budget is exhausted or the context is cancelled.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	var lastErr error

	delay := rp.baseDelay
	for attempt := 0; attempt <= rp.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "retry cancelled")
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * rp.multiplier)
			if delay > rp.maxDelay {
				delay = rp.maxDelay
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !errors.IsRetryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// Delay returns the backoff delay for the given attempt (0-based).
func (rp *RetryPolicy) Delay(attempt int) time.Duration {
	delay := rp.baseDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * rp.multiplier)
		if delay >= rp.maxDelay {
			return rp.maxDelay
		}
	}
	return delay
}
