package wait

import (
	"context"
	"fmt"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/ghcount/internal/logger"
	"github.com/kailas-cloud/ghcount/internal/metrics"
)

// Waiter suspends the caller until the shared search quota window resets.
// No quota state is kept between calls; the reset is re-read on every Wait.
type Waiter struct {
	limiter RateLimiter
	clock   quartz.Clock
	logger  *zap.Logger
}

// New creates a Waiter.
func New(limiter RateLimiter, clock quartz.Clock, logger *zap.Logger) *Waiter {
	return &Waiter{limiter: limiter, clock: clock, logger: logger}
}

// Wait reads the search reset time and sleeps until it. A reset that has
// already passed returns immediately. A failing status query is fatal.
func (w *Waiter) Wait(ctx context.Context) error {
	status, err := w.limiter.RateLimit(ctx)
	if err != nil {
		return fmt.Errorf("rate limit status: %w", err)
	}

	logger := logpkg.FromContextOr(ctx, w.logger)
	delay := status.DelayUntilReset(w.clock.Now("Waiter", "now"))
	if delay <= 0 {
		logger.Debug("Search quota already reset",
			zap.Time("reset_at", status.ResetAt()),
			zap.Duration("delay", delay),
		)
		return nil
	}

	metrics.RateLimitWaitsTotal.Inc()
	metrics.RateLimitWaitSeconds.Add(delay.Seconds())
	logger.Info("Waiting for search quota reset",
		zap.Time("reset_at", status.ResetAt()),
		zap.Duration("delay", delay),
	)

	timer := w.clock.NewTimer(delay, "Waiter", "reset")
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait for rate limit reset: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
