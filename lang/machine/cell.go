package machine

import "github.com/mna/srcfn/lang/types"

// cell boxes a local variable captured by a closure, so that the declaring
// function and its closures share it. Only the *CELL opcodes read or write
// through a cell, and a function's Freevars hold cells exclusively.
type cell struct{ v types.Value }

var _ types.Value = (*cell)(nil)

func (*cell) String() string { return "cell" }
func (*cell) Type() string   { return "cell" }
