package retry

import "context"

// Counter performs one counting attempt.
type Counter interface {
	Count(ctx context.Context, fragment string) (int64, error)
}

// Waiter blocks until another attempt may be issued.
type Waiter interface {
	Wait(ctx context.Context) error
}
