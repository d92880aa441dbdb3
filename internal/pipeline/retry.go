package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/llm"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// Retry defaults
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 2 * time.Second
)

// retrier re-runs network-bound calls that failed with a retryable error,
// waiting a fixed delay between attempts
type retrier struct {
	attempts int
	delay    time.Duration
	logger   *slog.Logger
	metrics  Metrics
	wait     func(ctx context.Context, d time.Duration) error
}

func newRetrier(attempts int, delay time.Duration, logger *slog.Logger, metrics Metrics) *retrier {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if delay < 0 {
		delay = 0
	}
	return &retrier{attempts: attempts, delay: delay, logger: logger, metrics: metrics, wait: waitWithContext}
}

func (r *retrier) do(ctx context.Context, stage types.Stage, userID string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !llm.IsRetryable(err) || attempt == r.attempts {
			return err
		}
		r.logger.Warn("retrying after transport error",
			"user_id", userID, "stage", stage, "attempt", attempt, "error", err)
		r.metrics.IncRetry(stage)
		if waitErr := r.wait(ctx, r.delay); waitErr != nil {
			return waitErr
		}
	}
	return err
}

func waitWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
