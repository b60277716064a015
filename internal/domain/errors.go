package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSearchFailed signals a documented search failure (retryable).
	ErrSearchFailed = errors.New("search failed")
	// ErrIncompleteResults signals a partial search result whose total is not authoritative (retryable).
	ErrIncompleteResults = errors.New("incomplete results")
	// ErrSchemaValidation signals a response that does not match the expected shape.
	ErrSchemaValidation = errors.New("schema validation failed")
	// ErrUnexpectedExitStatus signals an undocumented completion status.
	ErrUnexpectedExitStatus = errors.New("unexpected exit status")

	// ErrRetryExhausted signals that the retry budget was consumed without a trustworthy count.
	ErrRetryExhausted = errors.New("retry exhausted")
	// ErrSinkWrite signals that the output destination rejected a write.
	ErrSinkWrite = errors.New("sink write failed")
	// ErrWriterClosed signals a write issued after the stream was closed.
	ErrWriterClosed = errors.New("writer closed")
	// ErrInvalidRecord signals an attempt to build a record from invalid values.
	ErrInvalidRecord = errors.New("invalid record")
)

// Kind tags the failure modes of a single API call.
type Kind int

// Failure kinds.
const (
	KindSearchFailed Kind = iota + 1
	KindIncompleteResults
	KindSchemaValidation
	KindUnexpectedExitStatus
)

func (k Kind) String() string {
	switch k {
	case KindSearchFailed:
		return "search_failed"
	case KindIncompleteResults:
		return "incomplete_results"
	case KindSchemaValidation:
		return "schema_validation"
	case KindUnexpectedExitStatus:
		return "unexpected_exit_status"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindSearchFailed:
		return ErrSearchFailed
	case KindIncompleteResults:
		return ErrIncompleteResults
	case KindSchemaValidation:
		return ErrSchemaValidation
	case KindUnexpectedExitStatus:
		return ErrUnexpectedExitStatus
	default:
		return nil
	}
}

// CallError is a classified failure of one external API call.
// Status holds the exit code (or HTTP status) when the kind carries one.
type CallError struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *CallError) Error() string {
	text := "unknown failure"
	if s := e.Kind.sentinel(); s != nil {
		text = s.Error()
	}
	msg := e.Op + ": " + text
	if e.Kind == KindUnexpectedExitStatus {
		msg = fmt.Sprintf("%s: exit code %d", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is/As.
func (e *CallError) Unwrap() []error {
	var errs []error
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Retryable reports whether the retry loop may absorb this failure.
func (e *CallError) Retryable() bool {
	return e.Kind == KindSearchFailed || e.Kind == KindIncompleteResults
}

// NewCallError creates a classified call error.
func NewCallError(kind Kind, op string, status int, err error) error {
	return &CallError{Kind: kind, Op: op, Status: status, Err: err}
}

// IsRetryable reports whether err carries a retryable call failure.
func IsRetryable(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Retryable()
	}
	return false
}

// KindOf returns the failure kind carried by err, or zero.
func KindOf(err error) Kind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// RetryExhaustedError wraps ErrRetryExhausted with the fragment and the last retryable cause.
type RetryExhaustedError struct {
	Fragment string
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s: fragment %q after %d attempts: %v",
		ErrRetryExhausted.Error(), e.Fragment, e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return ErrRetryExhausted }
