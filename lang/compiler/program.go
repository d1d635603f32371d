package compiler

import (
	"sort"

	"github.com/mna/srcfn/lang/token"
)

// Program is the result of compiling a chunk. It holds the pools shared by
// all functions of the chunk and the top-level function that is executed to
// load it.
type Program struct {
	Filename  string
	Names     []string   // names of attributes and universals
	Constants []any      // = string | int64 | float64
	Functions []*Funcode // functions referenced by MAKEFUNC, excluding Toplevel
	Toplevel  *Funcode   // top-level code of the chunk
}

// A Funcode is the code of a compiled function.
type Funcode struct {
	Prog      *Program
	Pos       token.Pos // position of the function literal
	Name      string    // name of this function
	Code      []byte    // the byte code
	Locals    []Binding // locals, parameters first
	Cells     []int     // indices of Locals that require cells
	Freevars  []Binding // for tracing
	MaxStack  int
	NumParams int

	pcpos []pcPos // sorted by pc, only instructions that can fail
}

// Binding is the compiled form of a resolver.Binding, the name and
// declaration position of a local or free variable.
type Binding struct {
	Name string
	Pos  token.Pos
}

type pcPos struct {
	pc  uint32
	pos token.Pos
}

// Position returns the source position of the instruction at the specified
// program counter. It returns the position of the function if pc does not map
// to a recorded position.
func (fn *Funcode) Position(pc uint32) token.Pos {
	i := sort.Search(len(fn.pcpos), func(i int) bool { return fn.pcpos[i].pc > pc })
	if i == 0 {
		return fn.Pos
	}
	return fn.pcpos[i-1].pos
}
