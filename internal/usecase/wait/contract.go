package wait

import (
	"context"

	"github.com/kailas-cloud/ghcount/internal/domain"
)

// RateLimiter is the consumer interface for the rate limit status call (ISP).
type RateLimiter interface {
	RateLimit(ctx context.Context) (domain.RateLimitStatus, error)
}
