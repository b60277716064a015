package collect

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/coder/quartz"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/domain"
	"github.com/kailas-cloud/ghcount/internal/domain/record"
)

type mockCounter struct {
	vals  map[string]int64
	errs  map[string]error
	calls []string
}

func (m *mockCounter) TryCount(_ context.Context, fragment string) (int64, error) {
	m.calls = append(m.calls, fragment)
	if err := m.errs[fragment]; err != nil {
		return 0, err
	}
	return m.vals[fragment], nil
}

type mockWriter struct {
	records []record.Record
	err     error
}

func (m *mockWriter) Write(_ context.Context, rec record.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func newMockClock(t *testing.T) *quartz.Mock {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mClock := quartz.NewMock(t)
	mClock.Set(time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC)).MustWait(ctx)
	return mClock
}

func TestRun_WritesOneRecordPerFragmentInOrder(t *testing.T) {
	counter := &mockCounter{vals: map[string]int64{"a": 1, "b": 0, "c": 3}}
	writer := &mockWriter{}
	svc := New(counter, writer, []string{"a", "b", "c"}, newMockClock(t), zap.NewNop())

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Records != 3 {
		t.Errorf("Records = %d, want 3", summary.Records)
	}
	if summary.Timestamp != "2024-05-06T07:08:09.123Z" {
		t.Errorf("Timestamp = %q", summary.Timestamp)
	}
	if !reflect.DeepEqual(counter.calls, []string{"a", "b", "c"}) {
		t.Errorf("calls = %v", counter.calls)
	}

	wantVals := []int64{1, 0, 3}
	for i, r := range writer.records {
		if r.Fragment() != counter.calls[i] {
			t.Errorf("record %d fragment = %q", i, r.Fragment())
		}
		if r.Val() != wantVals[i] {
			t.Errorf("record %d val = %d, want %d", i, r.Val(), wantVals[i])
		}
		if r.Timestamp() != summary.Timestamp {
			t.Errorf("record %d timestamp = %q, want run timestamp", i, r.Timestamp())
		}
	}
}

func TestRun_DefaultFragments(t *testing.T) {
	counter := &mockCounter{}
	svc := New(counter, &mockWriter{}, nil, newMockClock(t), zap.NewNop())

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(counter.calls, []string{"💩", `\u{1f4a9}`}) {
		t.Errorf("calls = %v", counter.calls)
	}
	if !reflect.DeepEqual(svc.Fragments(), DefaultFragments) {
		t.Errorf("Fragments() = %v", svc.Fragments())
	}
}

func TestRun_FatalStopsRemainingFragments(t *testing.T) {
	exhausted := &domain.RetryExhaustedError{Fragment: "b", Attempts: 8}
	counter := &mockCounter{
		vals: map[string]int64{"a": 10, "c": 30},
		errs: map[string]error{"b": exhausted},
	}
	writer := &mockWriter{}
	svc := New(counter, writer, []string{"a", "b", "c"}, newMockClock(t), zap.NewNop())

	summary, err := svc.Run(context.Background())
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if summary.Records != 1 || len(writer.records) != 1 {
		t.Fatalf("expected only the first record, got %d", len(writer.records))
	}
	if writer.records[0].Fragment() != "a" {
		t.Errorf("record fragment = %q", writer.records[0].Fragment())
	}
	if !reflect.DeepEqual(counter.calls, []string{"a", "b"}) {
		t.Errorf("later fragments must stay unprocessed, calls = %v", counter.calls)
	}
}

func TestRun_SinkErrorIsFatal(t *testing.T) {
	counter := &mockCounter{}
	writer := &mockWriter{err: domain.ErrSinkWrite}
	svc := New(counter, writer, []string{"a", "b"}, newMockClock(t), zap.NewNop())

	_, err := svc.Run(context.Background())
	if !errors.Is(err, domain.ErrSinkWrite) {
		t.Fatalf("expected ErrSinkWrite, got %v", err)
	}
	if len(counter.calls) != 1 {
		t.Errorf("expected run to stop after the failed write, calls = %v", counter.calls)
	}
}

func TestRun_TimestampsDifferAcrossRuns(t *testing.T) {
	mClock := newMockClock(t)
	svc := New(&mockCounter{}, &mockWriter{}, []string{"a"}, mClock, zap.NewNop())

	first, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run 1: %v", err)
	}
	mClock.Advance(time.Hour)
	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run 2: %v", err)
	}
	if first.Timestamp == second.Timestamp {
		t.Error("each run must capture its own timestamp")
	}
}

func TestNew_CopiesFragments(t *testing.T) {
	frags := []string{"a", "b"}
	svc := New(&mockCounter{}, &mockWriter{}, frags, newMockClock(t), zap.NewNop())
	frags[0] = "changed"
	if svc.Fragments()[0] != "a" {
		t.Error("service must not alias the caller's slice")
	}
}
