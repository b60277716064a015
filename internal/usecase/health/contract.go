package health

import (
	"context"

	"github.com/kailas-cloud/ghcount/internal/usecase/schedule"
)

// RedisChecker checks redis mirror availability and reports the stream size.
type RedisChecker interface {
	Ping(ctx context.Context) error
	XLen(ctx context.Context, key string) (int64, error)
}

// RunReporter exposes the outcome of the latest collection run.
type RunReporter interface {
	Last() *schedule.LastRun
}
