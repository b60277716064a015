package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/domain/record"
	logpkg "github.com/kailas-cloud/ghcount/internal/logger"
	"github.com/kailas-cloud/ghcount/internal/metrics"
)

// DefaultFragments are counted when none are configured: a multi-byte symbol
// and its escaped code point spelling, which search should treat alike.
var DefaultFragments = []string{"💩", `\u{1f4a9}`}

// Summary describes one finished run.
type Summary struct {
	Timestamp string
	Records   int
	Duration  time.Duration
}

// Service is the run driver: one timestamp, every fragment in order, one record each.
type Service struct {
	counter   Counter
	writer    RecordWriter
	fragments []string
	clock     quartz.Clock
	logger    *zap.Logger
}

// New creates a Service. An empty fragment list falls back to DefaultFragments.
func New(counter Counter, writer RecordWriter, fragments []string, clock quartz.Clock, logger *zap.Logger) *Service {
	if len(fragments) == 0 {
		fragments = DefaultFragments
	}
	return &Service{
		counter:   counter,
		writer:    writer,
		fragments: append([]string(nil), fragments...),
		clock:     clock,
		logger:    logger,
	}
}

// Fragments returns a copy of the configured fragment list.
func (s *Service) Fragments() []string {
	return append([]string(nil), s.fragments...)
}

// Run counts every fragment sequentially and writes its record before
// moving on. The first fatal error stops the run; records already written stay.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	start := s.clock.Now("Collector", "start")
	summary := Summary{Timestamp: record.FormatTimestamp(start)}

	runLogger := s.logger.With(zap.String("run_timestamp", summary.Timestamp))
	ctx = logpkg.ContextWithLogger(ctx, runLogger)

	runLogger.Info("Collection run started", zap.Strings("fragments", s.fragments))

	for _, fragment := range s.fragments {
		if err := s.collectOne(ctx, fragment, summary.Timestamp); err != nil {
			summary.Duration = s.clock.Since(start)
			metrics.RunsTotal.WithLabelValues("failure").Inc()
			metrics.RunDuration.Observe(summary.Duration.Seconds())
			return summary, err
		}
		summary.Records++
	}

	summary.Duration = s.clock.Since(start)
	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.RunDuration.Observe(summary.Duration.Seconds())
	metrics.LastSuccessTimestamp.Set(float64(s.clock.Now("Collector", "end").Unix()))

	runLogger.Info("Collection run finished",
		zap.Int("records", summary.Records),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (s *Service) collectOne(ctx context.Context, fragment, timestamp string) error {
	val, err := s.counter.TryCount(ctx, fragment)
	if err != nil {
		return fmt.Errorf("fragment %q: %w", fragment, err)
	}

	rec, err := record.New(fragment, val, timestamp)
	if err != nil {
		return fmt.Errorf("fragment %q: %w", fragment, err)
	}
	if err := s.writer.Write(ctx, rec); err != nil {
		return fmt.Errorf("fragment %q: write: %w", fragment, err)
	}

	metrics.RecordsWrittenTotal.WithLabelValues(fragment).Inc()
	metrics.FragmentCount.WithLabelValues(fragment).Set(float64(val))
	logpkg.FromContextOr(ctx, s.logger).Info("Fragment counted",
		zap.String("fragment", fragment),
		zap.Int64("val", val),
	)
	return nil
}
