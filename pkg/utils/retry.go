package utils

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
)

// DefaultBackoffConfig returns the recommended exponential backoff configuration
// with 10% jitter so retries from several hosts do not line up against tgtd
func DefaultBackoffConfig() wait.Backoff {
	return wait.Backoff{
		Steps:    5,               // Maximum 5 attempts
		Duration: 1 * time.Second, // Initial delay: 1 second
		Factor:   2.0,             // Double each time: 1s, 2s, 4s, 8s, 16s
		Jitter:   0.1,             // 10% jitter
	}
}

// RetryWithBackoff retries an operation with exponential backoff until success or exhaustion
//
// Parameters:
//   - ctx: Context for cancellation/timeout
//   - backoff: Backoff configuration (use DefaultBackoffConfig() for defaults)
//   - retryable: Reports whether a failure is worth another attempt
//   - fn: Function to retry, returns nil on success or error on failure
//
// Returns:
//   - nil if fn() succeeds
//   - the last error wrapped with ErrOperationTimeout if all attempts failed with retryable errors
//   - the actual error if fn() returns a non-retryable error
//   - context.Canceled or context.DeadlineExceeded if context is cancelled
func RetryWithBackoff(ctx context.Context, backoff wait.Backoff, retryable func(error) bool, fn func() error) error {
	var lastErr error
	attempt := 0

	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempt++
		lastErr = fn()

		if lastErr == nil {
			klog.V(4).Infof("Operation succeeded on attempt %d", attempt)
			return true, nil
		}

		if retryable != nil && retryable(lastErr) {
			klog.V(4).Infof("Attempt %d failed with retryable error: %v", attempt, lastErr)
			return false, nil
		}

		klog.V(4).Infof("Attempt %d failed with non-retryable error: %v", attempt, lastErr)
		return false, lastErr
	})

	if err != nil && wait.Interrupted(err) && lastErr != nil && ctx.Err() == nil {
		klog.V(2).Infof("All %d retry attempts exhausted, last error: %v", attempt, lastErr)
		return fmt.Errorf("%w after %d attempts: %w", ErrOperationTimeout, attempt, lastErr)
	}

	return err
}
