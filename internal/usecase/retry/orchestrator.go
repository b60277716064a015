package retry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/domain"
	logpkg "github.com/kailas-cloud/ghcount/internal/logger"
	"github.com/kailas-cloud/ghcount/internal/metrics"
)

// DefaultMaxAttempts is the total number of counting attempts per fragment.
const DefaultMaxAttempts = 8

// Orchestrator drives a Counter with a bounded retry budget. Retryable
// failures are absorbed here and never reach the caller.
type Orchestrator struct {
	counter     Counter
	waiter      Waiter
	maxAttempts int
	logger      *zap.Logger
}

// New creates an Orchestrator with DefaultMaxAttempts.
func New(counter Counter, waiter Waiter, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		counter:     counter,
		waiter:      waiter,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger,
	}
}

// WithMaxAttempts overrides the retry budget. Non-positive values are ignored.
func (o *Orchestrator) WithMaxAttempts(n int) *Orchestrator {
	if n > 0 {
		o.maxAttempts = n
	}
	return o
}

// TryCount returns the first successful count. The waiter runs between a
// retryable failure and the next attempt: never before the first attempt,
// never after the last.
func (o *Orchestrator) TryCount(ctx context.Context, fragment string) (int64, error) {
	logger := logpkg.FromContextOr(ctx, o.logger)

	var last error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := o.waiter.Wait(ctx); err != nil {
				return 0, fmt.Errorf("try count %q: %w", fragment, err)
			}
		}

		n, err := o.counter.Count(ctx, fragment)
		if err == nil {
			if attempt > 1 {
				logger.Info("Count obtained after retries",
					zap.String("fragment", fragment),
					zap.Int("attempt", attempt),
				)
			}
			return n, nil
		}
		if !domain.IsRetryable(err) {
			return 0, err
		}

		last = err
		logger.Warn("Retryable count failure",
			zap.String("fragment", fragment),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", o.maxAttempts),
			zap.String("kind", domain.KindOf(err).String()),
			zap.Error(err),
		)
	}

	metrics.RetryExhaustedTotal.WithLabelValues(fragment).Inc()
	return 0, &domain.RetryExhaustedError{
		Fragment: fragment,
		Attempts: o.maxAttempts,
		Last:     last,
	}
}
