package machine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/mna/srcfn/lang/compiler"
	"github.com/mna/srcfn/lang/types"
)

// ErrStepLimit is the cause of the error returned when a thread exceeds its
// MaxSteps.
var ErrStepLimit = errors.New("step limit exceeded")

// A Thread contains the state of a machine execution. A Thread must not be
// used concurrently, but a Function value may be called from many threads
// at the same time.
type Thread struct {
	// Name is an optional name that describes the thread, mostly for debugging.
	Name string

	// Stdout is the output of the print built-in. If nil, os.Stdout is used.
	Stdout io.Writer

	// MaxSteps is the maximum number of "steps", a deliberately unspecified
	// measure of machine execution time, before the thread is cancelled. A value
	// <= 0 means no limit.
	MaxSteps int

	// MaxCallStackDepth limits the number of nested function calls. If the limit
	// is reached, the thread is cancelled. A value <= 0 means no limit.
	MaxCallStackDepth int

	// MaxCompareDepth limits the number of nested comparison depth for compound
	// types to prevent comparing cyclic values. A value <= 0 means a default
	// limit.
	MaxCompareDepth int

	ctx       context.Context
	callStack []*Frame
	cancelled atomic.Bool

	steps, maxSteps uint64
	maxCompareDepth uint64
}

const defaultMaxCompareDepth = 1000

// start prepares the thread for a new top-level execution. The returned
// function must be called when the execution is done.
func (th *Thread) start(ctx context.Context) (stop func()) {
	if th.MaxSteps <= 0 {
		th.maxSteps = 0
		th.maxSteps-- // (MaxUint64)
	} else {
		th.maxSteps = uint64(th.MaxSteps)
	}
	if th.MaxCompareDepth <= 0 {
		th.maxCompareDepth = defaultMaxCompareDepth
	} else {
		th.maxCompareDepth = uint64(th.MaxCompareDepth)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	th.ctx = ctx
	th.steps = 0
	th.cancelled.Store(ctx.Err() != nil)

	stopWatch := context.AfterFunc(ctx, func() { th.cancelled.Store(true) })
	return func() { stopWatch() }
}

// RunProgram executes the top-level code of the program p and returns its
// result. For a program compiled from a function body, that result is the
// function value.
func (th *Thread) RunProgram(ctx context.Context, p *compiler.Program) (types.Value, error) {
	mod, err := NewModule(p)
	if err != nil {
		return nil, err
	}
	toplevel := &Function{Funcode: p.Toplevel, Module: mod}
	return th.Call(ctx, toplevel, nil)
}

// Call calls the function or Callable value fn with the specified arguments,
// as the top-level execution of the thread. It must not be called while the
// thread is already running.
func (th *Thread) Call(ctx context.Context, fn types.Value, args types.Tuple) (types.Value, error) {
	if len(th.callStack) > 0 {
		return nil, fmt.Errorf("thread %s is already running", th.Name)
	}
	stop := th.start(ctx)
	defer stop()
	return Call(th, fn, args)
}

// Context returns the context of the current execution of the thread.
func (th *Thread) Context() context.Context {
	if th.ctx == nil {
		return context.Background()
	}
	return th.ctx
}

// Steps returns the number of steps executed by the thread in its current or
// last execution.
func (th *Thread) Steps() uint64 { return th.steps }

// CallStack returns a new slice containing the thread's stack of call frames.
func (th *Thread) CallStack() CallStack {
	frames := make([]CallFrame, 0, len(th.callStack))
	for _, fr := range th.callStack {
		filename, pos := fr.Position()
		frames = append(frames, CallFrame{
			Name:     fr.callable.Name(),
			Filename: filename,
			Pos:      pos,
		})
	}
	return frames
}

// CallStackDepth returns the number of frames in the current call stack.
func (th *Thread) CallStackDepth() int { return len(th.callStack) }

func (th *Thread) stdout() io.Writer {
	if th.Stdout != nil {
		return th.Stdout
	}
	return os.Stdout
}

// cancelError returns the error to report when the thread is cancelled.
func (th *Thread) cancelError() error {
	if th.steps >= th.maxSteps {
		return fmt.Errorf("thread cancelled: %w", ErrStepLimit)
	}
	return fmt.Errorf("thread cancelled: %w", context.Cause(th.ctx))
}
