package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// Retry calls fn up to maxAttempts times, sleeping a fixed delay between
// attempts. It stops early when ctx is cancelled.
func Retry(ctx context.Context, maxAttempts int, delay time.Duration, fn func(attempt int) error, logger *Logger) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	op := func() error {
		attempt++
		return fn(attempt)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Attempt %d/%d failed: %v (retrying in %v)", attempt, maxAttempts, err, wait)
	}

	// WithMaxRetries counts retries, not attempts.
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(maxAttempts-1)),
		ctx,
	)

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return errors.Wrapf(err, "all %d attempts failed", attempt)
	}
	return nil
}
