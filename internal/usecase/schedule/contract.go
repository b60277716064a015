package schedule

import (
	"context"

	"github.com/kailas-cloud/ghcount/internal/usecase/collect"
)

// Runner performs one collection run.
type Runner interface {
	Run(ctx context.Context) (collect.Summary, error)
}
