// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package machine

import (
	"github.com/mna/srcfn/lang/token"
)

// An EvalError is a runtime error raised during the execution of a function.
// It records the position where the error occurred and the call stack at that
// point.
type EvalError struct {
	Msg       string
	Filename  string
	Pos       token.Pos
	CallStack CallStack
	cause     error
}

func (e *EvalError) Error() string {
	if e.Pos.Unknown() {
		return e.Msg
	}
	return token.FormatPos(token.PosLong, e.Filename, e.Pos) + ": " + e.Msg
}

// Backtrace returns a user-friendly error message describing the stack of
// calls that led to this error.
func (e *EvalError) Backtrace() string {
	return e.CallStack.String() + "Error: " + e.Msg
}

func (e *EvalError) Unwrap() error { return e.cause }

// evalError creates the EvalError for err at the current point of execution
// of the thread.
func (th *Thread) evalError(err error) *EvalError {
	stack := th.CallStack()
	e := &EvalError{Msg: err.Error(), CallStack: stack, cause: err}
	// report the position of the innermost frame that has one
	for i := len(stack) - 1; i >= 0; i-- {
		if !stack[i].Pos.Unknown() {
			e.Filename, e.Pos = stack[i].Filename, stack[i].Pos
			break
		}
	}
	return e
}
