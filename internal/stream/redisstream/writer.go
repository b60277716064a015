// Package redisstream mirrors count records into a Redis stream.
package redisstream

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/db"
	"github.com/kailas-cloud/ghcount/internal/domain"
	"github.com/kailas-cloud/ghcount/internal/domain/record"
)

// DefaultKey is the stream that receives records when none is configured.
const DefaultKey = "ghcount:records"

// streamAdder is the consumer interface for stream appends (ISP).
type streamAdder interface {
	XAdd(ctx context.Context, key string, maxLen int64, fields []db.FieldValue) (string, error)
}

// Writer appends one stream entry per record. It does not own the store.
type Writer struct {
	store  streamAdder
	key    string
	maxLen int64
	logger *zap.Logger
}

// New creates a stream writer. maxLen <= 0 keeps the stream unbounded.
func New(store streamAdder, key string, maxLen int64, logger *zap.Logger) *Writer {
	if key == "" {
		key = DefaultKey
	}
	return &Writer{store: store, key: key, maxLen: maxLen, logger: logger}
}

// Write appends rec with fields version, fragment, val, timestamp.
func (w *Writer) Write(ctx context.Context, rec record.Record) error {
	id, err := w.store.XAdd(ctx, w.key, w.maxLen, []db.FieldValue{
		{Field: "version", Value: rec.Version()},
		{Field: "fragment", Value: rec.Fragment()},
		{Field: "val", Value: strconv.FormatInt(rec.Val(), 10)},
		{Field: "timestamp", Value: rec.Timestamp()},
	})
	if err != nil {
		return fmt.Errorf("%w: stream %s: %w", domain.ErrSinkWrite, w.key, err)
	}

	w.logger.Debug("Record mirrored to stream",
		zap.String("stream", w.key),
		zap.String("id", id),
		zap.String("fragment", rec.Fragment()),
	)
	return nil
}

// Close is a no-op; the store is closed by its owner.
func (w *Writer) Close() error { return nil }
