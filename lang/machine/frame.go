package machine

import (
	"fmt"
	"strings"

	"github.com/mna/srcfn/lang/token"
)

// Frame records a call to a Callable value (including module toplevel) or a
// built-in function or method.
type Frame struct {
	callable Callable
	pc       uint32 // program counter (non built-in only)
}

// Position returns the filename and source position of the current point of
// execution in this frame. Built-ins have no position.
func (fr *Frame) Position() (string, token.Pos) {
	if fn, ok := fr.callable.(*Function); ok {
		return fn.Funcode.Prog.Filename, fn.Funcode.Position(fr.pc)
	}
	return "<builtin>", token.NoPos
}

// A CallFrame represents the function name and current position of execution
// of an enclosing call frame.
type CallFrame struct {
	Name     string
	Filename string
	Pos      token.Pos
}

func (fr CallFrame) String() string {
	return fmt.Sprintf("%s: in %s", token.FormatPos(token.PosLong, fr.Filename, fr.Pos), fr.Name)
}

// A CallStack is a stack of call frames, outermost first.
type CallStack []CallFrame

// At returns a copy of the frame at depth i. At(0) returns the topmost frame.
func (stack CallStack) At(i int) CallFrame { return stack[len(stack)-1-i] }

// Pop removes and returns the topmost frame.
func (stack *CallStack) Pop() CallFrame {
	last := len(*stack) - 1
	top := (*stack)[last]
	*stack = (*stack)[:last]
	return top
}

// String returns a user-friendly description of the stack.
func (stack CallStack) String() string {
	var sb strings.Builder
	sb.WriteString("call stack (most recent call last):\n")
	for _, fr := range stack {
		fmt.Fprintf(&sb, "  %s\n", fr)
	}
	return sb.String()
}
