package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds retries for outbound provider calls. The zero-delay
// policy used in tests sets the intervals to 0.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64

	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries everything.
	Retryable func(error) bool
}

// DefaultRetryPolicy matches the dispatch bounds: 3 attempts with
// exponential backoff.
func DefaultRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 2 * time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2,
		Retryable:       retryable,
	}
}

// CredentialRetryPolicy matches the token refresh bounds: 3 attempts,
// 4s base delay, 2x multiplier, 10s cap.
func CredentialRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 4 * time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2,
		Retryable:       retryable,
	}
}

// ZeroDelayPolicy retries immediately; for tests
func ZeroDelayPolicy(maxAttempts int, retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Multiplier:  1,
		Retryable:   retryable,
	}
}

// Run executes op, retrying per the policy until attempts are exhausted,
// the error is classified non-retryable, or ctx is cancelled.
func (p RetryPolicy) Run(ctx context.Context, op func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval
	expo.MaxInterval = p.MaxInterval
	if p.Multiplier > 0 {
		expo.Multiplier = p.Multiplier
	}
	expo.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(attempts-1)), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
