// Package machine implements the virtual machine that executes the bytecode
// produced by the compiler.
package machine

import (
	"fmt"

	"github.com/mna/srcfn/lang/compiler"
	"github.com/mna/srcfn/lang/token"
	"github.com/mna/srcfn/lang/types"
)

// run executes fn in the frame at the top of the thread's call stack.
func run(th *Thread, fn *Function, args types.Tuple) (types.Value, error) {
	in, err := newInterp(th, fn, args)
	if err != nil {
		return nil, err
	}
	// iterators must be released even if a builtin panics
	defer in.release()
	return in.loop()
}

// interp is the execution state of a single call to a Function.
type interp struct {
	th   *Thread
	fn   *Function
	fr   *Frame
	code []byte
	pc   uint32

	locals []types.Value // parameters first
	stack  []types.Value // operand stack
	sp     int
	iters  []types.Iterator

	result types.Value
	done   bool
}

func newInterp(th *Thread, fn *Function, args types.Tuple) (*interp, error) {
	fc := fn.Funcode
	if len(args) != fc.NumParams {
		return nil, arityError(fn, len(args))
	}

	n := len(fc.Locals)
	space := make([]types.Value, n+fc.MaxStack)
	in := &interp{
		th:     th,
		fn:     fn,
		fr:     th.callStack[len(th.callStack)-1],
		code:   fc.Code,
		locals: space[:n:n],
		stack:  space[n:],
	}
	copy(in.locals, args)

	// locals captured by nested functions are boxed, one allocation per cell
	for _, ix := range fc.Cells {
		in.locals[ix] = &cell{in.locals[ix]}
	}
	return in, nil
}

func arityError(fn *Function, got int) error {
	switch want := fn.Funcode.NumParams; want {
	case 0:
		return fmt.Errorf("function %s accepts no arguments (%d given)", fn.Name(), got)
	case 1:
		return fmt.Errorf("function %s accepts 1 argument (%d given)", fn.Name(), got)
	default:
		return fmt.Errorf("function %s accepts %d arguments (%d given)", fn.Name(), want, got)
	}
}

func (in *interp) release() {
	for _, it := range in.iters {
		it.Done()
	}
	in.iters = nil
}

func (in *interp) push(v types.Value) {
	in.stack[in.sp] = v
	in.sp++
}

func (in *interp) pop() types.Value {
	in.sp--
	return in.stack[in.sp]
}

// pop2 pops the two topmost values, y being the topmost.
func (in *interp) pop2() (x, y types.Value) {
	in.sp -= 2
	return in.stack[in.sp], in.stack[in.sp+1]
}

// popN pops the n topmost values, in push order. The returned slice aliases
// the stack.
func (in *interp) popN(n int) []types.Value {
	in.sp -= n
	return in.stack[in.sp : in.sp+n]
}

func (in *interp) top() types.Value     { return in.stack[in.sp-1] }
func (in *interp) setTop(v types.Value) { in.stack[in.sp-1] = v }

// fetch decodes the instruction at pc and advances pc past it.
func (in *interp) fetch() (compiler.Opcode, uint32) {
	op := compiler.Opcode(in.code[in.pc])
	in.pc++
	if op < compiler.OpcodeArgMin {
		return op, 0
	}

	var arg uint32
	for shift := uint(0); ; shift += 7 {
		b := in.code[in.pc]
		in.pc++
		arg |= uint32(b&0x7f) << shift
		if b < 0x80 {
			return op, arg
		}
	}
}

func (in *interp) loop() (types.Value, error) {
	th := in.th
	for !in.done {
		th.steps++
		if th.steps >= th.maxSteps || th.cancelled.Load() {
			return nil, th.cancelError()
		}

		in.fr.pc = in.pc
		op, arg := in.fetch()
		if err := in.exec(op, arg); err != nil {
			return nil, err
		}
	}
	return in.result, nil
}

func (in *interp) exec(op compiler.Opcode, arg uint32) error {
	switch {
	case op >= compiler.EQL && op <= compiler.LE:
		x, y := in.pop2()
		ok, err := CompareDepth(token.Token(op-compiler.EQL)+token.EQEQ, x, y, in.th.maxCompareDepth)
		if err != nil {
			return err
		}
		in.push(types.Bool(ok))
		return nil

	case op >= compiler.PLUS && op <= compiler.DOTDOT:
		x, y := in.pop2()
		z, err := Binary(token.Token(op-compiler.PLUS)+token.PLUS, x, y)
		if err != nil {
			return err
		}
		in.push(z)
		return nil

	case op >= compiler.OpcodeArgMin:
		return in.execArg(op, arg)
	}

	switch op {
	case compiler.NOP:

	case compiler.DUP:
		in.push(in.top())

	case compiler.DUP2:
		x, y := in.stack[in.sp-2], in.stack[in.sp-1]
		in.push(x)
		in.push(y)

	case compiler.POP:
		in.sp--

	case compiler.EXCH:
		x, y := in.pop2()
		in.push(y)
		in.push(x)

	case compiler.UPLUS, compiler.UMINUS:
		unop := token.PLUS
		if op == compiler.UMINUS {
			unop = token.MINUS
		}
		v, err := Unary(unop, in.top())
		if err != nil {
			return err
		}
		in.setTop(v)

	case compiler.NOT:
		in.setTop(!Truth(in.top()))

	case compiler.NIL:
		in.push(types.Nil)

	case compiler.TRUE:
		in.push(types.True)

	case compiler.FALSE:
		in.push(types.False)

	case compiler.ITERPUSH:
		x := in.pop()
		it := Iterate(x)
		if it == nil {
			return fmt.Errorf("%s value is not iterable", x.Type())
		}
		in.iters = append(in.iters, it)

	case compiler.ITERPOP:
		last := len(in.iters) - 1
		in.iters[last].Done()
		in.iters = in.iters[:last]

	case compiler.RETURN:
		in.result = in.pop()
		in.done = true

	case compiler.SETINDEX:
		vals := in.popN(3)
		return setIndex(vals[0], vals[1], vals[2])

	case compiler.INDEX:
		x, y := in.pop2()
		z, err := getIndex(x, y)
		if err != nil {
			return err
		}
		in.push(z)

	case compiler.SETMAP:
		// only emitted for map literals, the map is always at the bottom
		vals := in.popN(3)
		return vals[0].(*types.Map).SetKey(vals[1], vals[2])

	default:
		return fmt.Errorf("unimplemented: %s", op)
	}
	return nil
}

// execArg executes the instructions that take an argument.
func (in *interp) execArg(op compiler.Opcode, arg uint32) error {
	fn := in.fn
	prog := fn.Module.Program

	switch op {
	case compiler.JMP:
		in.pc = arg

	case compiler.CJMP:
		if Truth(in.pop()) {
			in.pc = arg
		}

	case compiler.ITERJMP:
		it := in.iters[len(in.iters)-1]
		if it.Next(&in.stack[in.sp]) {
			in.sp++
		} else {
			in.pc = arg
		}

	case compiler.CONSTANT:
		in.push(fn.Module.Constants[arg])

	case compiler.MAKETUPLE:
		in.push(append(types.Tuple(nil), in.popN(int(arg))...))

	case compiler.MAKEARRAY:
		in.push(types.NewArray(append([]types.Value(nil), in.popN(int(arg))...)))

	case compiler.MAKEFUNC:
		in.setTop(&Function{
			Funcode:  prog.Functions[arg],
			Module:   fn.Module,
			Freevars: in.top().(types.Tuple),
		})

	case compiler.MAKEMAP:
		in.push(types.NewMap(int(arg)))

	case compiler.SETLOCAL:
		in.locals[arg] = in.pop()

	case compiler.SETLOCALCELL:
		in.locals[arg].(*cell).v = in.pop()

	case compiler.INITCELL:
		// closures created before keep the previous cell
		in.locals[arg] = &cell{in.pop()}

	case compiler.SETFREECELL:
		fn.Freevars[arg].(*cell).v = in.pop()

	case compiler.LOCAL:
		return in.pushVar(in.locals[arg], fn.Funcode.Locals[arg].Name)

	case compiler.LOCALCELL:
		return in.pushVar(in.locals[arg].(*cell).v, fn.Funcode.Locals[arg].Name)

	case compiler.FREECELL:
		return in.pushVar(fn.Freevars[arg].(*cell).v, fn.Funcode.Freevars[arg].Name)

	case compiler.FREE:
		in.push(fn.Freevars[arg])

	case compiler.UNIVERSAL:
		name := prog.Names[arg]
		v := Universe[name]
		if v == nil {
			return fmt.Errorf("undefined universal: %s", name)
		}
		in.push(v)

	case compiler.ATTR:
		v, err := getAttr(in.top(), prog.Names[arg])
		if err != nil {
			return err
		}
		in.setTop(v)

	case compiler.CALL:
		args := types.Tuple(in.popN(int(arg)))
		callee := in.top()
		// a Function does not retain or mutate its arguments, others get a copy
		if _, ok := callee.(*Function); !ok && len(args) > 0 {
			args = append(types.Tuple(nil), args...)
		}
		if len(args) == 0 {
			args = nil
		}
		v, err := Call(in.th, callee, args)
		if err != nil {
			return err
		}
		in.setTop(v)

	default:
		return fmt.Errorf("unimplemented: %s", op)
	}
	return nil
}

// pushVar pushes the value of the variable name, which must be assigned.
func (in *interp) pushVar(v types.Value, name string) error {
	if v == nil {
		return fmt.Errorf("local variable %s referenced before assignment", name)
	}
	in.push(v)
	return nil
}
