package services

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/JoaoMarques95/dinners/internal/common"
)

// runWithConflictRetry executes fn, retrying up to attempts times when it
// fails with ErrorConflict (an optimistic-lock race). Stock and shopping-list
// writes are human-paced and low-contention, so a short constant backoff is
// enough; after the final attempt the conflict is surfaced to the caller.
func runWithConflictRetry(ctx context.Context, attempts uint64, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(attempts, retry.NewConstant(20*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if errors.Is(err, common.ErrorConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}
