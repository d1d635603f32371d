// Package ast declares the syntax tree produced by the parser. Nodes record
// the position of the tokens that make them up, so that the source span of
// any node can be computed, but whitespace and optional semicolons are lost.
//
// Comments are collected only on request. They live in the Chunk, outside of
// the tree, each attached to the statement it most likely documents, and do
// not affect the span of any node.
//
// The package is exercised by the golden tests of the parser and resolver.
package ast

import (
	"fmt"

	"github.com/mna/srcfn/lang/token"
)

// Node is implemented by all nodes of the tree.
type Node interface {
	// Format prints a one-line description of the node, for the 'v' and 's'
	// verbs. The '#' flag adds the number of children by kind. A width pads
	// (on the left, or on the right with '-') or truncates the description,
	// '+' disables the padding.
	fmt.Formatter

	// Span returns the position of the first character of the node and the
	// position just past its last character.
	Span() (start, end token.Pos)

	// Walk calls the package-level Walk on each direct child of the node.
	Walk(v Visitor)
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	expr()
}

// Stmt is a node of a block's statement list.
type Stmt interface {
	Node

	// BlockEnding reports whether the statement can only be the last of its
	// block, as is the case for return, break and continue.
	BlockEnding() bool
}

// FuncSignature is the parameter list of a function literal, |a, b|. It is
// not a node.
type FuncSignature struct {
	Lpipe  token.Pos // unknown without a parameter list
	Params []*IdentExpr
	Commas []token.Pos // one per separator, plus an optional trailing one
	Rpipe  token.Pos
}

// KeyVal is an entry of a map literal, either name: v or [expr]: v. It is not
// a node.
type KeyVal struct {
	Lbrack token.Pos // unknown for the name: v form
	Key    Expr
	Rbrack token.Pos
	Colon  token.Pos
	Value  Expr
}

// Unwrap strips any number of enclosing parentheses from e.
func Unwrap(e Expr) Expr {
	for {
		pe, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = pe.Expr
	}
}

// IsAssignable reports whether e is a valid assignment target: a variable
// or an index expression.
func IsAssignable(e Expr) bool {
	switch e.(type) {
	case *IdentExpr, *IndexExpr:
		return true
	}
	return false
}

// FuncOf returns the function literal of a chunk whose only statement is a
// function literal, nil otherwise.
func FuncOf(ch *Chunk) *FuncExpr {
	if ch == nil || ch.Block == nil || len(ch.Block.Stmts) != 1 {
		return nil
	}
	if es, ok := ch.Block.Stmts[0].(*ExprStmt); ok {
		if fn, ok := es.Expr.(*FuncExpr); ok {
			return fn
		}
	}
	return nil
}

// endOf returns the position just past the keyword tok that starts at pos.
func endOf(pos token.Pos, tok token.Token) token.Pos {
	return pos.Add(len(tok.String()))
}

// between returns the span that goes from the start of first to the end of
// last.
func between(first, last Node) (start, end token.Pos) {
	start, _ = first.Span()
	_, end = last.Span()
	return start, end
}

func walkList[T Node](v Visitor, nodes []T) {
	for _, n := range nodes {
		Walk(v, n)
	}
}
