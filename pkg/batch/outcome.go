package batch

import (
	"context"
	"fmt"
)

// Status tags an Outcome.
type Status string

const (
	// StatusSuccess marks an outcome carrying a value.
	StatusSuccess Status = "success"

	// StatusFailure marks an outcome carrying an error.
	StatusFailure Status = "failure"
)

// Task is one unit of work. It receives the batch context and returns either a
// value or an error. Tasks should not panic; if one does, the orchestrator
// records the panic as a Failure.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the settled result of one Task.
// A Failure never carries a value: Value is the zero T whenever Status is StatusFailure.
type Outcome[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Succeeded builds a success outcome.
func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{Status: StatusSuccess, Value: v}
}

// Failed builds a failure outcome. A nil err is replaced by ErrUnknownFailure.
func Failed[T any](err error) Outcome[T] {
	if err == nil {
		err = ErrUnknownFailure
	}
	return Outcome[T]{Status: StatusFailure, Err: err}
}

// OK reports whether the outcome is a success.
func (o Outcome[T]) OK() bool {
	return o.Status == StatusSuccess
}

// Reason returns the failure message, or "" for a success.
func (o Outcome[T]) Reason() string {
	if o.Status != StatusFailure || o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}
