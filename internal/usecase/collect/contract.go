package collect

import (
	"context"

	"github.com/kailas-cloud/ghcount/internal/domain/record"
)

// Counter obtains a trustworthy count for one fragment, retries included.
type Counter interface {
	TryCount(ctx context.Context, fragment string) (int64, error)
}

// RecordWriter accepts the records of a run in order.
type RecordWriter interface {
	Write(ctx context.Context, rec record.Record) error
}
