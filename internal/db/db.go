package db

import (
	"context"
	"time"
)

// Store is the database facade used by the record mirror.
type Store interface {
	Pinger
	StreamStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// FieldValue is one field of a stream entry. Entries keep field order.
type FieldValue struct {
	Field string
	Value string
}

// StreamStore provides append-only stream operations.
type StreamStore interface {
	// XAdd appends an entry and returns its ID. maxLen > 0 trims the stream
	// approximately to that many entries.
	XAdd(ctx context.Context, key string, maxLen int64, fields []FieldValue) (string, error)
	XLen(ctx context.Context, key string) (int64, error)
}
