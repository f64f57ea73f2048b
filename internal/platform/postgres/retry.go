package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// Retry policy for transient store failures: a bounded number of attempts
// with a fixed backoff. Conflict and validation failures are never retried.
const (
	retryAttempts = 3
	retryBackoff  = 250 * time.Millisecond
)

// withRetry executes fn, retrying when the returned error is classified as
// transient. The error returned by fn must already be mapped through
// MapError. Retries stop as soon as the error is non-transient, the attempt
// budget is exhausted, or the context is done.
//
// enabled is false for transaction-bound stores: once a statement inside a
// transaction fails, the transaction is poisoned, so retrying individual
// statements there is useless. The enclosing atomic unit fails instead.
func withRetry(ctx context.Context, enabled bool, op string, fn func() error) error {
	err := fn()
	if !enabled {
		return err
	}

	for attempt := 1; attempt < retryAttempts; attempt++ {
		if err == nil || !store.IsTransientError(err) {
			return err
		}

		log := logger.FromContext(ctx)
		log.Warn("retrying store operation after transient failure",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return err
		case <-time.After(retryBackoff):
		}

		err = fn()
	}

	return err
}
