package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/ghcount/internal/db"
)

// XAdd appends an entry with an auto-generated ID.
func (s *Store) XAdd(ctx context.Context, key string, maxLen int64, fields []db.FieldValue) (string, error) {
	if len(fields) == 0 {
		return "", &db.Error{Op: db.OpXAdd, Err: db.ErrNoFields}
	}

	args := make([]string, 0, 4+2*len(fields))
	if maxLen > 0 {
		args = append(args, "MAXLEN", "~", strconv.FormatInt(maxLen, 10))
	}
	args = append(args, "*")
	for _, f := range fields {
		args = append(args, f.Field, f.Value)
	}

	cmd := s.b().Arbitrary(db.OpXAdd).Keys(key).Args(args...).Build()
	id, err := s.do(ctx, cmd).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpXAdd, Err: err}
	}
	return id, nil
}

// XLen returns the number of entries in the stream. A missing key has length 0.
func (s *Store) XLen(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Xlen().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpXLen, Err: err}
	}
	return n, nil
}
