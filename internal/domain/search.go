package domain

import (
	"context"
	"time"
)

// SearchAPI is the external code-search contract shared by the transport backends.
// Implementations return *CallError for every classified failure.
type SearchAPI interface {
	SearchCode(ctx context.Context, fragment string, perPage int) (SearchResult, error)
	RateLimit(ctx context.Context) (RateLimitStatus, error)
}

// SearchResult is the validated subset of a code-search response.
type SearchResult struct {
	TotalCount        int64
	IncompleteResults bool
}

// RateLimitStatus carries the search resource quota window.
type RateLimitStatus struct {
	SearchReset int64 // epoch seconds
}

// ResetAt returns the search window reset as a time.
func (s RateLimitStatus) ResetAt() time.Time {
	return time.Unix(s.SearchReset, 0)
}

// DelayUntilReset returns reset*1000 - now (millis). Negative when the reset has passed.
func (s RateLimitStatus) DelayUntilReset(now time.Time) time.Duration {
	return time.Duration(s.SearchReset*1000-now.UnixMilli()) * time.Millisecond
}
