package ast

import (
	"fmt"

	"github.com/mna/srcfn/lang/token"
)

// ArrayExpr is an array literal, [a, b].
type ArrayExpr struct {
	Lbrack token.Pos
	Items  []Expr
	Commas []token.Pos // one per separator, plus an optional trailing one
	Rbrack token.Pos
}

// BadExpr stands for an expression that could not be parsed.
type BadExpr struct {
	Start, End token.Pos
}

// BinOpExpr is a binary operation, x + y, including comparisons and the
// logical and/or.
type BinOpExpr struct {
	Left  Expr
	Type  token.Token
	Op    token.Pos
	Right Expr
}

// CallExpr is a function call, f(a, b).
type CallExpr struct {
	Fn     Expr
	Lparen token.Pos
	Args   []Expr
	Commas []token.Pos // one per separator, plus an optional trailing one
	Rparen token.Pos
}

// DotExpr is an attribute lookup, x.name.
type DotExpr struct {
	Left  Expr
	Dot   token.Pos
	Right *IdentExpr
}

// FuncExpr is a function literal, do |x| x * 2 end. The do keyword is
// implicit (with an unknown position) for the function that wraps a source
// body.
type FuncExpr struct {
	Do   token.Pos
	Sig  *FuncSignature
	Body *Block
	End  token.Pos

	// Function is set by the resolver to a *resolver.Function.
	Function any
}

// IdentExpr is a name.
type IdentExpr struct {
	Start token.Pos
	Lit   string

	// Binding is set by the resolver to a *resolver.Binding.
	Binding any
}

// IndexExpr is an index lookup, x[i].
type IndexExpr struct {
	Prefix Expr
	Lbrack token.Pos
	Index  Expr
	Rbrack token.Pos
}

// LiteralExpr is a nil, boolean, number or string literal.
type LiteralExpr struct {
	Type  token.Token
	Start token.Pos
	Raw   string // source text
	Value any    // string, int64 or float64, nil for the keyword literals
}

// MapExpr is a map literal, {a: 1, ["b"]: 2}.
type MapExpr struct {
	Lbrace token.Pos
	Items  []*KeyVal
	Commas []token.Pos // one per separator, plus an optional trailing one
	Rbrace token.Pos
}

// ParenExpr is an expression in parentheses.
type ParenExpr struct {
	Lparen token.Pos
	Expr   Expr
	Rparen token.Pos
}

// UnaryOpExpr is a unary operation, -x or not x.
type UnaryOpExpr struct {
	Type  token.Token
	Op    token.Pos
	Right Expr
}

func (n *ArrayExpr) expr()   {}
func (n *BadExpr) expr()     {}
func (n *BinOpExpr) expr()   {}
func (n *CallExpr) expr()    {}
func (n *DotExpr) expr()     {}
func (n *FuncExpr) expr()    {}
func (n *IdentExpr) expr()   {}
func (n *IndexExpr) expr()   {}
func (n *LiteralExpr) expr() {}
func (n *MapExpr) expr()     {}
func (n *ParenExpr) expr()   {}
func (n *UnaryOpExpr) expr() {}

func (n *ArrayExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "array", count{"items", len(n.Items)})
}
func (n *ArrayExpr) Span() (start, end token.Pos) { return n.Lbrack, n.Rbrack.Add(1) }
func (n *ArrayExpr) Walk(v Visitor)               { walkList(v, n.Items) }

func (n *BadExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "!bad expr!") }
func (n *BadExpr) Span() (start, end token.Pos)  { return n.Start, n.End }
func (n *BadExpr) Walk(Visitor)                  {}

func (n *BinOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "binary "+n.Type.GoString())
}
func (n *BinOpExpr) Span() (start, end token.Pos) { return between(n.Left, n.Right) }
func (n *BinOpExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

func (n *CallExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call", count{"args", len(n.Args)})
}
func (n *CallExpr) Span() (start, end token.Pos) {
	start, _ = n.Fn.Span()
	return start, n.Rparen.Add(1)
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Fn)
	walkList(v, n.Args)
}

func (n *DotExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "expr."+n.Right.Lit)
}
func (n *DotExpr) Span() (start, end token.Pos) { return between(n.Left, n.Right) }
func (n *DotExpr) Walk(v Visitor)               { Walk(v, n.Left) }

func (n *FuncExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "fn", count{"params", len(n.Sig.Params)})
}
func (n *FuncExpr) Span() (start, end token.Pos) {
	switch {
	case !n.Do.Unknown():
		start = n.Do
	case !n.Sig.Lpipe.Unknown():
		start = n.Sig.Lpipe
	default:
		start, _ = n.Body.Span()
	}
	return start, endOf(n.End, token.END)
}
func (n *FuncExpr) Walk(v Visitor) {
	walkList(v, n.Sig.Params)
	Walk(v, n.Body)
}

func (n *IdentExpr) Format(f fmt.State, verb rune) {
	label := n.Lit
	if b, ok := n.Binding.(fmt.Stringer); ok {
		label = fmt.Sprintf("%s [%s]", n.Lit, b)
	}
	format(f, verb, n, label)
}
func (n *IdentExpr) Span() (start, end token.Pos) { return n.Start, n.Start.Add(len(n.Lit)) }
func (n *IdentExpr) Walk(Visitor)                 {}

func (n *IndexExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "expr[index]") }
func (n *IndexExpr) Span() (start, end token.Pos) {
	start, _ = n.Prefix.Span()
	return start, n.Rbrack.Add(1)
}
func (n *IndexExpr) Walk(v Visitor) {
	Walk(v, n.Prefix)
	Walk(v, n.Index)
}

func (n *LiteralExpr) Format(f fmt.State, verb rune) {
	label := n.Type.String()
	if n.Value != nil {
		label += " " + n.Raw
	}
	format(f, verb, n, label)
}
func (n *LiteralExpr) Span() (start, end token.Pos) { return n.Start, n.Start.Add(len(n.Raw)) }
func (n *LiteralExpr) Walk(Visitor)                 {}

func (n *MapExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "map", count{"keyvals", len(n.Items)})
}
func (n *MapExpr) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace.Add(1) }
func (n *MapExpr) Walk(v Visitor) {
	for _, kv := range n.Items {
		Walk(v, kv.Key)
		Walk(v, kv.Value)
	}
}

func (n *ParenExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "(expr)") }
func (n *ParenExpr) Span() (start, end token.Pos)  { return n.Lparen, n.Rparen.Add(1) }
func (n *ParenExpr) Walk(v Visitor)                { Walk(v, n.Expr) }

func (n *UnaryOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "unary "+n.Type.GoString())
}
func (n *UnaryOpExpr) Span() (start, end token.Pos) {
	_, end = n.Right.Span()
	return n.Op, end
}
func (n *UnaryOpExpr) Walk(v Visitor) { Walk(v, n.Right) }
