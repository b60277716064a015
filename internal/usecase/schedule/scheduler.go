package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/domain"
)

// LastRun is the outcome of the most recent finished run.
type LastRun struct {
	FinishedAt time.Time
	Err        error
}

// Scheduler repeats collection runs on a fixed interval.
// Runs never overlap: the next run starts only after the current one returns.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	clock    quartz.Clock
	logger   *zap.Logger

	mu   sync.RWMutex
	last *LastRun
}

// New creates a Scheduler. An interval of zero means a single run.
func New(runner Runner, interval time.Duration, clock quartz.Clock, logger *zap.Logger) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, clock: clock, logger: logger}
}

// Start runs immediately. In once mode the run's error is returned as is.
// Otherwise it keeps running every interval until ctx is done; failed runs
// are logged and the schedule continues, except for output failures, which
// stop the daemon with the run's error.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return s.runOnce(ctx)
	}

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))
	next := s.clock.Now("Scheduler", "start")
	for {
		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, domain.ErrSinkWrite) || errors.Is(err, domain.ErrWriterClosed) {
				s.logger.Error("Output unusable, stopping scheduler", zap.Error(err))
				return err
			}
			s.logger.Error("Collection run failed", zap.Error(err))
		}

		next = next.Add(s.interval)
		now := s.clock.Now("Scheduler", "now")
		for !next.After(now) {
			// A run longer than the interval skips the missed slots.
			next = next.Add(s.interval)
		}

		timer := s.clock.NewTimer(next.Sub(now), "Scheduler", "tick")
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Scheduler stopped")
			return nil
		case <-timer.C:
		}
	}
}

// Last returns the outcome of the most recent run, or nil before the first one finishes.
func (s *Scheduler) Last() *LastRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	last := *s.last
	return &last
}

func (s *Scheduler) runOnce(ctx context.Context) error {
	_, err := s.runner.Run(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}

	s.mu.Lock()
	s.last = &LastRun{FinishedAt: s.clock.Now("Scheduler", "finished"), Err: err}
	s.mu.Unlock()
	return err
}
