// Package record defines the immutable unit of output appended to the count log.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/ghcount/internal/domain"
)

// Version is the schema version stamped on every record.
const Version = "v1"

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Record is one counted fragment of one run.
type Record struct {
	fragment  string
	val       int64
	timestamp string
}

// New creates a Record. val must come from a complete search result.
func New(fragment string, val int64, timestamp string) (Record, error) {
	if fragment == "" {
		return Record{}, fmt.Errorf("empty fragment: %w", domain.ErrInvalidRecord)
	}
	if !utf8.ValidString(fragment) {
		// JSON would replace the invalid bytes and the logged fragment would differ.
		return Record{}, fmt.Errorf("fragment %q is not valid UTF-8: %w", fragment, domain.ErrInvalidRecord)
	}
	if val < 0 {
		return Record{}, fmt.Errorf("negative val %d: %w", val, domain.ErrInvalidRecord)
	}
	if timestamp == "" {
		return Record{}, fmt.Errorf("empty timestamp: %w", domain.ErrInvalidRecord)
	}
	return Record{fragment: fragment, val: val, timestamp: timestamp}, nil
}

// FormatTimestamp renders t the way run timestamps are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Version returns the schema version.
func (r Record) Version() string { return Version }

// Fragment returns the counted query fragment.
func (r Record) Fragment() string { return r.fragment }

// Val returns the reported total count.
func (r Record) Val() int64 { return r.val }

// Timestamp returns the run timestamp.
func (r Record) Timestamp() string { return r.timestamp }

// wire is the ndjson shape. Field order is part of the log format.
type wire struct {
	Version   string `json:"version"`
	Fragment  string `json:"fragment"`
	Val       int64  `json:"val"`
	Timestamp string `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler. HTML characters are kept as-is.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(wire{
		Version:   Version,
		Fragment:  r.fragment,
		Val:       r.val,
		Timestamp: r.timestamp,
	}); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON implements json.Unmarshaler. Used by log readers and tests.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if w.Version != Version {
		return fmt.Errorf("unsupported record version %q: %w", w.Version, domain.ErrInvalidRecord)
	}
	parsed, err := New(w.Fragment, w.Val, w.Timestamp)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
