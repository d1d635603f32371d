package deferred

import (
	"errors"
	"fmt"
)

// ErrCompile is the sentinel error matched by all compilation failures, so
// that errors.Is(err, ErrCompile) reports whether err is a *CompileError.
var ErrCompile = errors.New("compile error")

// ErrUninitialized is returned when calling or refreshing a zero-value
// Callable that was never assigned a source.
var ErrUninitialized = errors.New("deferred: callable has no source")

// CompileError is the error returned when a source cannot be compiled into an
// executable. Err is the underlying error, usually a scanner.ErrorList with
// the syntax or resolution errors.
type CompileError struct {
	Source string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCompile, e.Err)
}

func (e *CompileError) Unwrap() []error { return []error{ErrCompile, e.Err} }
