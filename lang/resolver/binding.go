package resolver

import (
	"fmt"

	"github.com/mna/srcfn/lang/ast"
)

// The Scope of Binding indicates what kind of scope it has.
type Scope uint8

const (
	Undefined Scope = iota // name is not defined
	Local                  // name is local to its function
	Cell                   // name is function-local but shared with a nested function
	Free                   // name is cell of some enclosing function
	Universal              // name is universal (a language built-in)
)

var scopeNames = [...]string{
	Undefined: "undefined",
	Local:     "local",
	Cell:      "cell",
	Free:      "free",
	Universal: "universal",
}

func (s Scope) String() string {
	if int(s) >= len(scopeNames) {
		return fmt.Sprintf("<invalid Scope %d>", s)
	}
	return scopeNames[s]
}

// A Binding contains resolver information about an identifier. The resolver
// creates a binding for each declaration and it ties together all identifiers
// that denote the same variable.
type Binding struct {
	Scope Scope

	// Index records the index into the enclosing
	// - function's Locals, if Scope==Local or Scope==Cell
	// - function's FreeVars, if Scope==Free
	// It is zero if Scope is Universal or Undefined.
	Index int

	// Decl is the identifier that declares this binding. For universal
	// bindings, it is the first identifier that referenced it.
	Decl *ast.IdentExpr

	// BlockName is the name of the block where the binding is declared, only
	// set when the NameBlocks mode is used.
	BlockName string
}

func (b *Binding) String() string {
	switch b.Scope {
	case Undefined, Universal:
		return b.Scope.String()
	}
	s := fmt.Sprintf("%s %d", b.Scope, b.Index)
	if b.BlockName != "" {
		s += " @" + b.BlockName
	}
	return s
}

// Function is the resolver information about a function literal or a
// chunk's top-level.
type Function struct {
	Name       string
	Definition ast.Node   // *ast.Chunk or *ast.FuncExpr
	Locals     []*Binding // this function's local/cell variables, parameters first
	FreeVars   []*Binding // enclosing cells to capture in closure
	NumParams  int
}
