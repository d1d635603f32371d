package ast

import (
	"fmt"
	"path/filepath"

	"github.com/mna/srcfn/lang/token"
)

// Chunk is the root of the tree of a source file. Unlike a Block, it has a
// position even when empty, that of its EOF.
type Chunk struct {
	Name string // filename, may be empty

	// Comments in source order, only collected when requested. Each one is
	// attached to a node of the tree, see Comment.Node.
	Comments []*Comment

	Block *Block
	EOF   token.Pos

	// Function is set by the resolver to the *resolver.Function of the
	// top-level code.
	Function any
}

// Comment is a single '#' comment.
type Comment struct {
	Node  Node      // statement or chunk the comment belongs to
	Start token.Pos // position of the '#'
	Raw   string    // comment text, '#' included
	Val   string    // comment text without the '#'
}

// Block is a list of statements. Its span may extend past its statements to
// include comments.
type Block struct {
	Start token.Pos
	End   token.Pos
	Stmts []Stmt
}

func (n *Chunk) Format(f fmt.State, verb rune) {
	if n.Name == "" {
		format(f, verb, n, "chunk")
		return
	}
	format(f, verb, n, "chunk "+filepath.ToSlash(n.Name))
}

func (n *Chunk) Span() (start, end token.Pos) {
	if n.Block == nil {
		return n.EOF, n.EOF
	}
	return n.Block.Span()
}

func (n *Chunk) Walk(v Visitor) {
	if n.Block != nil {
		Walk(v, n.Block)
	}
}

func (n *Comment) Format(f fmt.State, verb rune) {
	format(f, verb, n, "comment #"+n.Val)
}
func (n *Comment) Span() (start, end token.Pos) { return n.Start, n.Start.Add(len(n.Raw)) }
func (n *Comment) Walk(Visitor)                 {}

func (n *Block) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", count{"stmts", len(n.Stmts)})
}
func (n *Block) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *Block) Walk(v Visitor)               { walkList(v, n.Stmts) }
