package deferred

import (
	"context"

	"github.com/mna/srcfn/lang/machine"
	"github.com/mna/srcfn/lang/types"
)

// Executable is the executable form of a source. Call runs it with the
// provided arguments and returns its result. Errors raised by the executed
// code are returned as-is.
type Executable interface {
	Call(ctx context.Context, args ...types.Value) (types.Value, error)
}

// ExecutableFunc is an adapter to use an ordinary function as an Executable.
type ExecutableFunc func(ctx context.Context, args ...types.Value) (types.Value, error)

// Call calls fn(ctx, args...).
func (fn ExecutableFunc) Call(ctx context.Context, args ...types.Value) (types.Value, error) {
	return fn(ctx, args...)
}

// Filter returns the values for which exec returns a truthy value.
func Filter(ctx context.Context, exec Executable, values []types.Value) ([]types.Value, error) {
	var out []types.Value
	for _, v := range values {
		res, err := exec.Call(ctx, v)
		if err != nil {
			return nil, err
		}
		if machine.Truth(res) {
			out = append(out, v)
		}
	}
	return out, nil
}

// Map returns the results of calling exec with each value.
func Map(ctx context.Context, exec Executable, values []types.Value) ([]types.Value, error) {
	out := make([]types.Value, 0, len(values))
	for _, v := range values {
		res, err := exec.Call(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Reduce folds values into an accumulator, starting at init, by calling exec
// with the accumulator and each value in turn.
func Reduce(ctx context.Context, exec Executable, init types.Value, values []types.Value) (types.Value, error) {
	acc := init
	for _, v := range values {
		res, err := exec.Call(ctx, acc, v)
		if err != nil {
			return nil, err
		}
		acc = res
	}
	return acc, nil
}
