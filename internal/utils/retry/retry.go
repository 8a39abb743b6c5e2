package retry

import (
	"context"
	"fmt"
	"time"
)

// Do runs fn up to attempts times, sleeping delay between tries. It is a
// plain helper for callers that want retries around a venue or webhook call;
// nothing in the router applies it automatically.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if last = fn(); last == nil {
			return nil
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, last)
}
