package machine

import (
	"context"
	"errors"
	"fmt"

	"github.com/mna/srcfn/lang/types"
)

// Call calls the Callable value v with the arguments. Errors are returned as
// *EvalError, created in the innermost call where the error occurred.
func Call(th *Thread, v types.Value, args types.Tuple) (types.Value, error) {
	cb, ok := v.(Callable)
	if !ok {
		return nil, fmt.Errorf("invalid call of non-function (%s)", v.Type())
	}
	if limit := th.MaxCallStackDepth; limit > 0 && len(th.callStack) >= limit {
		return nil, fmt.Errorf("call stack depth exceeded (%d)", limit)
	}
	if th.ctx == nil {
		// not started by Thread.Call, e.g. a builtin called directly
		stop := th.start(context.Background())
		defer stop()
	}

	th.pushFrame(cb)
	// popped even if a builtin panics
	defer th.popFrame()

	res, err := cb.CallInternal(th, args)
	switch {
	case err != nil:
		if ee := (*EvalError)(nil); !errors.As(err, &ee) {
			err = th.evalError(err)
		}
		return nil, err
	case res == nil:
		return nil, th.evalError(fmt.Errorf("internal error: nil (not Nil) returned from %s", cb))
	}
	return res, nil
}

// pushFrame pushes the frame for a call to cb. Frames beyond the length of
// the call stack are reused.
func (th *Thread) pushFrame(cb Callable) {
	n := len(th.callStack)
	var fr *Frame
	if n < cap(th.callStack) {
		fr = th.callStack[:n+1][n]
	}
	if fr == nil {
		fr = new(Frame)
	}
	fr.callable = cb
	th.callStack = append(th.callStack, fr)
}

func (th *Thread) popFrame() {
	last := len(th.callStack) - 1
	*th.callStack[last] = Frame{}
	th.callStack = th.callStack[:last]
}

// Truth returns the truthiness of v: every value is true except false and
// nil.
func Truth(v types.Value) types.Bool {
	switch v := v.(type) {
	case types.Bool:
		return v
	case types.NilType:
		return types.False
	}
	return types.True
}

// Iterate returns an iterator over x, or nil if x is not iterable. The caller
// must call Done on a non-nil iterator once finished.
func Iterate(x types.Value) types.Iterator {
	if it, ok := x.(types.Iterable); ok {
		return it.Iterate()
	}
	return nil
}
