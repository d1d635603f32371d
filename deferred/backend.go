package deferred

import (
	"context"
	"fmt"
	"io"

	"github.com/mna/srcfn/lang/compiler"
	"github.com/mna/srcfn/lang/machine"
	"github.com/mna/srcfn/lang/parser"
	"github.com/mna/srcfn/lang/resolver"
	"github.com/mna/srcfn/lang/types"
)

// Filename is the name used for the source of a Callable in positions of
// compilation and runtime errors.
const Filename = "srcfn"

// Backend compiles a source into its executable form. It is the single point
// where sources are turned into executables. Compile must return a
// *CompileError if the source is invalid.
type Backend interface {
	Compile(source string) (Executable, error)
}

// BackendFunc is an adapter to use an ordinary function as a Backend.
type BackendFunc func(source string) (Executable, error)

// Compile calls fn(source).
func (fn BackendFunc) Compile(source string) (Executable, error) { return fn(source) }

// LangBackend compiles sources written in the srcfn block language. The
// source is wrapped in a function literal template, so that it must be of the
// form "|params| body", and the resulting function is the executable.
type LangBackend struct {
	// MaxSteps limits the number of steps executed by each call, <= 0 means no
	// limit.
	MaxSteps int
	// MaxCallDepth limits the depth of nested calls made by each call, <= 0
	// means no limit.
	MaxCallDepth int
	// Stdout is the output of the print built-in, os.Stdout if nil.
	Stdout io.Writer
}

// Compile parses, resolves and compiles source, and runs the resulting
// program to obtain the function value.
func (b LangBackend) Compile(source string) (Executable, error) {
	prog, err := CompileProgram(source)
	if err != nil {
		return nil, err
	}

	var th machine.Thread
	v, err := th.RunProgram(context.Background(), prog)
	if err != nil {
		return nil, &CompileError{Source: source, Err: err}
	}
	fn, ok := v.(*machine.Function)
	if !ok {
		return nil, &CompileError{Source: source, Err: fmt.Errorf("source did not compile to a function: %s", v.Type())}
	}
	return &langExecutable{fn: fn, backend: b}, nil
}

// CompileProgram compiles source to its bytecode program. The top-level code
// of the program returns the function value.
func CompileProgram(source string) (*compiler.Program, error) {
	ch, err := parser.ParseFunc(0, Filename, source)
	if err != nil {
		return nil, &CompileError{Source: source, Err: err}
	}
	if err := resolver.ResolveChunk(ch, 0, machine.IsUniverse); err != nil {
		return nil, &CompileError{Source: source, Err: err}
	}
	return compiler.CompileChunk(ch), nil
}

type langExecutable struct {
	fn      *machine.Function
	backend LangBackend
}

// Call runs the function on a new thread, so that an executable can be
// called concurrently.
func (e *langExecutable) Call(ctx context.Context, args ...types.Value) (types.Value, error) {
	th := machine.Thread{
		Name:              Filename,
		Stdout:            e.backend.Stdout,
		MaxSteps:          e.backend.MaxSteps,
		MaxCallStackDepth: e.backend.MaxCallDepth,
	}
	return th.Call(ctx, e.fn, args)
}

// NumParams returns the number of parameters of the function.
func (e *langExecutable) NumParams() int { return e.fn.NumParams() }

func (e *langExecutable) String() string { return e.fn.String() }
