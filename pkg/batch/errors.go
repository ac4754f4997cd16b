package batch

import "errors"

// ErrUnknownFailure is recorded when a task fails without an error value.
var ErrUnknownFailure = errors.New("task failed without an error")
