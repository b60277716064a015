// Package stream appends records to the ndjson count log.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kailas-cloud/ghcount/internal/domain"
	"github.com/kailas-cloud/ghcount/internal/domain/record"
)

// RecordWriter is the output contract of a collection run.
type RecordWriter interface {
	Write(ctx context.Context, rec record.Record) error
	Close() error
}

// Compile-time check: Writer implements RecordWriter.
var _ RecordWriter = (*Writer)(nil)

type flusher interface {
	Flush() error
}

// Writer serializes records as ndjson onto a sink. A single readiness token
// gates the sink: a write waits for it, so writes never interleave and never
// outpace the sink.
type Writer struct {
	sink   io.Writer
	ready  chan struct{}
	closed bool // guarded by the token
}

// NewWriter creates a Writer. If sink is an io.Closer it is closed by Close.
func NewWriter(sink io.Writer) *Writer {
	w := &Writer{
		sink:  sink,
		ready: make(chan struct{}, 1),
	}
	w.ready <- struct{}{}
	return w
}

// Write appends rec as one compact JSON line.
func (w *Writer) Write(ctx context.Context, rec record.Record) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("await sink readiness: %w", ctx.Err())
	case <-w.ready:
	}
	defer func() { w.ready <- struct{}{} }()

	if w.closed {
		return domain.ErrWriterClosed
	}

	line, err := rec.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	line = append(line, '\n')

	if _, err := w.sink.Write(line); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSinkWrite, err)
	}
	if f, ok := w.sink.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("%w: flush: %w", domain.ErrSinkWrite, err)
		}
	}
	return nil
}

// Close waits for an in-flight write, then rejects further writes and closes the sink.
func (w *Writer) Close() error {
	<-w.ready
	defer func() { w.ready <- struct{}{} }()

	if w.closed {
		return nil
	}
	w.closed = true

	if c, ok := w.sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("%w: close: %w", domain.ErrSinkWrite, err)
		}
	}
	return nil
}

// Tee writes each record to every writer in order, stopping at the first failure.
type Tee []RecordWriter

// Write implements RecordWriter.
func (t Tee) Write(ctx context.Context, rec record.Record) error {
	for _, w := range t {
		if err := w.Write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and joins their errors.
func (t Tee) Close() error {
	var errs []error
	for _, w := range t {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
