package count

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/domain"
	"github.com/kailas-cloud/ghcount/internal/metrics"
)

// DefaultPerPage keeps the search response to one item; only total_count is used.
const DefaultPerPage = 1

// Counter obtains a validated occurrence count for one fragment with a single call.
type Counter struct {
	searcher Searcher
	perPage  int
	logger   *zap.Logger
}

// New creates a Counter.
func New(searcher Searcher, logger *zap.Logger) *Counter {
	return &Counter{
		searcher: searcher,
		perPage:  DefaultPerPage,
		logger:   logger,
	}
}

// WithPerPage overrides the requested page size. Non-positive values are ignored.
func (c *Counter) WithPerPage(n int) *Counter {
	if n > 0 {
		c.perPage = n
	}
	return c
}

// Count issues one search and returns total_count. Partial results are
// reported as a retryable IncompleteResults failure, never as a count.
func (c *Counter) Count(ctx context.Context, fragment string) (int64, error) {
	start := time.Now()
	res, err := c.searcher.SearchCode(ctx, fragment, c.perPage)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SearchAttemptsTotal.WithLabelValues(outcome(err)).Inc()
		return 0, fmt.Errorf("count %q: %w", fragment, err)
	}

	if res.IncompleteResults {
		metrics.SearchAttemptsTotal.WithLabelValues(domain.KindIncompleteResults.String()).Inc()
		c.logger.Debug("Search returned incomplete results",
			zap.String("fragment", fragment),
			zap.Int64("total_count", res.TotalCount),
		)
		return 0, fmt.Errorf("count %q: %w", fragment,
			domain.NewCallError(domain.KindIncompleteResults, "search/code", 0, nil))
	}

	if res.TotalCount < 0 {
		metrics.SearchAttemptsTotal.WithLabelValues(domain.KindSchemaValidation.String()).Inc()
		return 0, fmt.Errorf("count %q: %w", fragment,
			domain.NewCallError(domain.KindSchemaValidation, "search/code", 0,
				fmt.Errorf("negative total_count %d", res.TotalCount)))
	}

	metrics.SearchAttemptsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return res.TotalCount, nil
}

func outcome(err error) string {
	if k := domain.KindOf(err); k != 0 {
		return k.String()
	}
	return metrics.OutcomeError
}
