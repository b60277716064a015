package redisstream

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/db"
	dbRedis "github.com/kailas-cloud/ghcount/internal/db/redis"
	"github.com/kailas-cloud/ghcount/internal/domain"
	"github.com/kailas-cloud/ghcount/internal/domain/record"
)

type mockAdder struct {
	key    string
	maxLen int64
	fields []db.FieldValue
	err    error
}

func (m *mockAdder) XAdd(_ context.Context, key string, maxLen int64, fields []db.FieldValue) (string, error) {
	m.key, m.maxLen, m.fields = key, maxLen, fields
	return "1-0", m.err
}

func TestWrite_Fields(t *testing.T) {
	m := &mockAdder{}
	w := New(m, "", 500, zap.NewNop())
	rec, _ := record.New("💩", 31337, "2024-01-02T03:04:05.678Z")

	if err := w.Write(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.key != DefaultKey || m.maxLen != 500 {
		t.Errorf("key=%q maxLen=%d", m.key, m.maxLen)
	}
	want := []db.FieldValue{
		{Field: "version", Value: "v1"},
		{Field: "fragment", Value: "💩"},
		{Field: "val", Value: "31337"},
		{Field: "timestamp", Value: "2024-01-02T03:04:05.678Z"},
	}
	if !reflect.DeepEqual(m.fields, want) {
		t.Errorf("fields = %v, want %v", m.fields, want)
	}
}

func TestWrite_ErrorIsSinkWrite(t *testing.T) {
	w := New(&mockAdder{err: errors.New("conn refused")}, "k", 0, zap.NewNop())
	rec, _ := record.New("x", 1, "t")

	if err := w.Write(context.Background(), rec); !errors.Is(err, domain.ErrSinkWrite) {
		t.Fatalf("expected ErrSinkWrite, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWrite_ThroughRedisStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"XADD", "ghcount:records", "MAXLEN", "~", "100", "*",
			"version", "v1", "fragment", `\u{1f4a9}`, "val", "7", "timestamp", "2024-01-02T03:04:05.678Z",
		)).
		Return(mock.Result(mock.RedisString("1700000000000-0")))

	w := New(dbRedis.NewStoreForTest(c), "ghcount:records", 100, zap.NewNop())
	rec, _ := record.New(`\u{1f4a9}`, 7, "2024-01-02T03:04:05.678Z")
	if err := w.Write(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
