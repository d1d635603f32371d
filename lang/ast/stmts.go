package ast

import (
	"fmt"

	"github.com/mna/srcfn/lang/token"
)

// AssignStmt is an assignment, x = 1 or a, b = b, a, an augmented
// assignment, x += 1, or a let declaration, let a, b = 1, 2.
type AssignStmt struct {
	Let         token.Pos // unknown unless a let declaration
	Left        []Expr    // a single target for an augmented assignment
	LeftCommas  []token.Pos
	AssignTok   token.Token // EQ or an augmented operator, ILLEGAL for let without values
	AssignPos   token.Pos
	Right       []Expr // empty for let without values
	RightCommas []token.Pos
}

// BadStmt stands for a statement that could not be parsed.
type BadStmt struct {
	Start, End token.Pos
}

// ExprStmt is an expression evaluated as a statement. As the last statement
// of a function body, its value is the result of the function.
type ExprStmt struct {
	Expr Expr
}

// ForInStmt is a loop over the values of an iterable, for x in y do ... end.
type ForInStmt struct {
	For   token.Pos
	Left  *IdentExpr
	In    token.Pos
	Right Expr
	Do    token.Pos
	Body  *Block
	End   token.Pos
}

// WhileStmt is a conditional loop, while x do ... end.
type WhileStmt struct {
	While token.Pos
	Cond  Expr
	Do    token.Pos
	Body  *Block
	End   token.Pos
}

// IfStmt is an if statement. An elseif clause is represented as an IfStmt
// with Type ELSEIF, the only statement of the False block of the previous
// clause.
type IfStmt struct {
	Type  token.Token // IF or ELSEIF
	Start token.Pos
	Cond  Expr
	Then  token.Pos
	True  *Block
	Else  token.Pos // unknown without else or elseif
	False *Block    // nil without else or elseif
	End   token.Pos // unknown for an elseif clause
}

// ReturnLikeStmt is a return, break or continue statement.
type ReturnLikeStmt struct {
	Type  token.Token
	Start token.Pos
	Expr  Expr // optional return value, always nil for break and continue
}

// IsDecl reports whether the statement is a let declaration.
func (n *AssignStmt) IsDecl() bool { return !n.Let.Unknown() }

func (n *AssignStmt) BlockEnding() bool     { return false }
func (n *BadStmt) BlockEnding() bool        { return false }
func (n *ExprStmt) BlockEnding() bool       { return false }
func (n *ForInStmt) BlockEnding() bool      { return false }
func (n *WhileStmt) BlockEnding() bool      { return false }
func (n *IfStmt) BlockEnding() bool         { return false }
func (n *ReturnLikeStmt) BlockEnding() bool { return true }

func (n *AssignStmt) Format(f fmt.State, verb rune) {
	label := "assignment"
	switch {
	case n.IsDecl():
		label = "let declaration"
	case n.AssignTok != token.EQ:
		label = "augmented assignment " + n.AssignTok.GoString()
	}
	format(f, verb, n, label, count{"left", len(n.Left)}, count{"right", len(n.Right)})
}
func (n *AssignStmt) Span() (start, end token.Pos) {
	last := n.Left[len(n.Left)-1]
	if len(n.Right) > 0 {
		last = n.Right[len(n.Right)-1]
	}
	if n.IsDecl() {
		_, end = last.Span()
		return n.Let, end
	}
	return between(n.Left[0], last)
}
func (n *AssignStmt) Walk(v Visitor) {
	walkList(v, n.Left)
	walkList(v, n.Right)
}

func (n *BadStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "!bad stmt!") }
func (n *BadStmt) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *BadStmt) Walk(Visitor)                  {}

func (n *ExprStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "expr") }
func (n *ExprStmt) Span() (start, end token.Pos)  { return n.Expr.Span() }
func (n *ExprStmt) Walk(v Visitor)                { Walk(v, n.Expr) }

func (n *ForInStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, fmt.Sprintf("for %s in", n.Left.Lit))
}
func (n *ForInStmt) Span() (start, end token.Pos) { return n.For, endOf(n.End, token.END) }

// Walk visits the iterated expression before the loop variable, in
// evaluation order.
func (n *ForInStmt) Walk(v Visitor) {
	Walk(v, n.Right)
	Walk(v, n.Left)
	Walk(v, n.Body)
}

func (n *WhileStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "while") }
func (n *WhileStmt) Span() (start, end token.Pos)  { return n.While, endOf(n.End, token.END) }
func (n *WhileStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}

func (n *IfStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, n.Type.String(), count{"else", optional(n.False != nil)})
}
func (n *IfStmt) Span() (start, end token.Pos) {
	switch {
	case !n.End.Unknown():
		end = endOf(n.End, token.END)
	case n.False != nil:
		_, end = n.False.Span()
	default:
		_, end = n.True.Span()
	}
	return n.Start, end
}
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.True)
	if n.False != nil {
		Walk(v, n.False)
	}
}

func (n *ReturnLikeStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, n.Type.String(), count{"expr", optional(n.Expr != nil)})
}
func (n *ReturnLikeStmt) Span() (start, end token.Pos) {
	if n.Expr == nil {
		return n.Start, endOf(n.Start, n.Type)
	}
	_, end = n.Expr.Span()
	return n.Start, end
}
func (n *ReturnLikeStmt) Walk(v Visitor) {
	if n.Expr != nil {
		Walk(v, n.Expr)
	}
}
