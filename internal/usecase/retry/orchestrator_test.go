package retry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/domain"
)

type step struct {
	val int64
	err error
}

// recorder logs the order of count and wait calls.
type recorder struct {
	steps   []step
	waitErr error
	events  []string
}

func (r *recorder) Count(_ context.Context, _ string) (int64, error) {
	r.events = append(r.events, "count")
	s := r.steps[0]
	r.steps = r.steps[1:]
	return s.val, s.err
}

func (r *recorder) Wait(_ context.Context) error {
	r.events = append(r.events, "wait")
	return r.waitErr
}

func searchFailed() error {
	return domain.NewCallError(domain.KindSearchFailed, "search/code", 1, nil)
}

func incomplete() error {
	return domain.NewCallError(domain.KindIncompleteResults, "search/code", 0, nil)
}

func newOrchestrator(r *recorder) *Orchestrator {
	return New(r, r, zap.NewNop())
}

func TestTryCount_FirstAttemptSucceeds(t *testing.T) {
	r := &recorder{steps: []step{{val: 10}}}

	got, err := newOrchestrator(r).TryCount(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10 {
		t.Errorf("TryCount() = %d, want 10", got)
	}
	if !reflect.DeepEqual(r.events, []string{"count"}) {
		t.Errorf("events = %v", r.events)
	}
}

func TestTryCount_SucceedsOnLastAttempt(t *testing.T) {
	r := &recorder{}
	for i := 0; i < 7; i++ {
		r.steps = append(r.steps, step{err: searchFailed()})
	}
	r.steps = append(r.steps, step{val: 4242})

	got, err := newOrchestrator(r).TryCount(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4242 {
		t.Errorf("TryCount() = %d, want 4242", got)
	}

	want := []string{"count"}
	for i := 0; i < 7; i++ {
		want = append(want, "wait", "count")
	}
	if !reflect.DeepEqual(r.events, want) {
		t.Errorf("events = %v, want %v", r.events, want)
	}
}

func TestTryCount_Exhausted(t *testing.T) {
	r := &recorder{}
	for i := 0; i < 8; i++ {
		r.steps = append(r.steps, step{err: searchFailed()})
	}

	_, err := newOrchestrator(r).TryCount(context.Background(), "💩")
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}

	var exhausted *domain.RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *domain.RetryExhaustedError, got %T", err)
	}
	if exhausted.Fragment != "💩" || exhausted.Attempts != 8 {
		t.Errorf("got %+v", exhausted)
	}
	if !errors.Is(exhausted.Last, domain.ErrSearchFailed) {
		t.Errorf("Last = %v, want search failed", exhausted.Last)
	}

	counts, waits := 0, 0
	for _, e := range r.events {
		switch e {
		case "count":
			counts++
		case "wait":
			waits++
		}
	}
	if counts != 8 || waits != 7 {
		t.Errorf("counts=%d waits=%d, want 8 and 7", counts, waits)
	}
	if r.events[len(r.events)-1] != "count" {
		t.Error("must not wait after the last attempt")
	}
}

func TestTryCount_IncompleteThenComplete(t *testing.T) {
	r := &recorder{steps: []step{{err: incomplete()}, {err: incomplete()}, {val: 77}}}

	got, err := newOrchestrator(r).TryCount(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 77 {
		t.Errorf("TryCount() = %d, want 77", got)
	}
	want := []string{"count", "wait", "count", "wait", "count"}
	if !reflect.DeepEqual(r.events, want) {
		t.Errorf("events = %v, want %v", r.events, want)
	}
}

func TestTryCount_FatalPropagatesImmediately(t *testing.T) {
	fatal := []error{
		domain.NewCallError(domain.KindSchemaValidation, "search/code", 0, nil),
		domain.NewCallError(domain.KindUnexpectedExitStatus, "search/code", 2, nil),
		errors.New("exec: gh: not found"),
	}
	for _, ferr := range fatal {
		r := &recorder{steps: []step{{err: searchFailed()}, {err: ferr}, {val: 1}}}

		_, err := newOrchestrator(r).TryCount(context.Background(), "x")
		if !errors.Is(err, ferr) {
			t.Fatalf("expected %v, got %v", ferr, err)
		}
		if errors.Is(err, domain.ErrRetryExhausted) {
			t.Error("fatal error must not be reported as exhaustion")
		}
		want := []string{"count", "wait", "count"}
		if !reflect.DeepEqual(r.events, want) {
			t.Errorf("events = %v, want %v", r.events, want)
		}
	}
}

func TestTryCount_WaitFailureIsFatal(t *testing.T) {
	waitErr := domain.NewCallError(domain.KindUnexpectedExitStatus, "rate_limit", 1, nil)
	r := &recorder{steps: []step{{err: searchFailed()}, {val: 1}}, waitErr: waitErr}

	_, err := newOrchestrator(r).TryCount(context.Background(), "x")
	if !errors.Is(err, waitErr) {
		t.Fatalf("expected wait error, got %v", err)
	}
	if !reflect.DeepEqual(r.events, []string{"count", "wait"}) {
		t.Errorf("events = %v", r.events)
	}
}

func TestTryCount_WithMaxAttempts(t *testing.T) {
	r := &recorder{steps: []step{{err: searchFailed()}, {err: searchFailed()}}}

	_, err := New(r, r, zap.NewNop()).WithMaxAttempts(2).WithMaxAttempts(-1).TryCount(context.Background(), "x")
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if !reflect.DeepEqual(r.events, []string{"count", "wait", "count"}) {
		t.Errorf("events = %v", r.events)
	}
}
