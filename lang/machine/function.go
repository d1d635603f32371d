package machine

import (
	"fmt"

	"github.com/mna/srcfn/lang/compiler"
	"github.com/mna/srcfn/lang/types"
)

// A Callable value f may be the operand of a function call, f(x). Clients
// should use the Call function, never the CallInternal method.
type Callable interface {
	types.Value
	Name() string
	CallInternal(th *Thread, args types.Tuple) (types.Value, error)
}

// A Function is a function defined by a function literal. The top-level code
// of a program is also represented by a Function.
type Function struct {
	Funcode  *compiler.Funcode
	Module   *Module
	Freevars types.Tuple
}

var (
	_ types.Value = (*Function)(nil)
	_ Callable    = (*Function)(nil)
)

// A Module is the dynamic counterpart to a compiler.Program, which is the unit
// of compilation. All functions in the same program share a module.
type Module struct {
	Program   *compiler.Program
	Constants []types.Value
}

// NewModule creates the module for p, converting its constants to values.
func NewModule(p *compiler.Program) (*Module, error) {
	consts := make([]types.Value, len(p.Constants))
	for i, c := range p.Constants {
		switch c := c.(type) {
		case int64:
			consts[i] = types.Int(c)
		case float64:
			consts[i] = types.Float(c)
		case string:
			consts[i] = types.String(c)
		default:
			return nil, fmt.Errorf("unexpected constant %d of type %T", i, c)
		}
	}
	return &Module{Program: p, Constants: consts}, nil
}

func (fn *Function) String() string { return fmt.Sprintf("function(%s)", fn.Name()) }
func (fn *Function) Type() string   { return "function" }

// NumParams returns the number of parameters of the function.
func (fn *Function) NumParams() int { return fn.Funcode.NumParams }

func (fn *Function) CallInternal(th *Thread, args types.Tuple) (types.Value, error) {
	return run(th, fn, args)
}

func (fn *Function) Name() string {
	nm := fn.Funcode.Name
	if nm == "" {
		nm = "unknown"
	}
	return nm
}

// A Builtin is a function implemented in Go. Methods returned by attribute
// access are builtins bound to their receiver.
type Builtin struct {
	name string
	fn   func(th *Thread, b *Builtin, args types.Tuple) (types.Value, error)
	recv types.Value
}

var _ Callable = (*Builtin)(nil)

// NewBuiltin returns a new builtin function value with the given name and Go
// implementation.
func NewBuiltin(name string, fn func(th *Thread, b *Builtin, args types.Tuple) (types.Value, error)) *Builtin {
	return &Builtin{name: name, fn: fn}
}

// BindReceiver returns a new Builtin value representing a method closure, that
// is, a built-in function bound to a receiver value.
func (b *Builtin) BindReceiver(recv types.Value) *Builtin {
	return &Builtin{name: b.name, fn: b.fn, recv: recv}
}

func (b *Builtin) Name() string         { return b.name }
func (b *Builtin) Receiver() types.Value { return b.recv }
func (b *Builtin) Type() string         { return "builtin_function" }

func (b *Builtin) String() string {
	if b.recv != nil {
		return fmt.Sprintf("builtin(%s.%s)", b.recv.Type(), b.name)
	}
	return fmt.Sprintf("builtin(%s)", b.name)
}

func (b *Builtin) CallInternal(th *Thread, args types.Tuple) (types.Value, error) {
	return b.fn(th, b, args)
}
