package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/mna/srcfn/lang/token"
)

// Printer prints a tree one node per line, indented by depth.
type Printer struct {
	Output io.Writer

	// Pos is how the span of each node is printed, token.PosNone to omit it.
	Pos token.PosMode

	// NodeFmt is the format of the node descriptions, see Node for the
	// supported verb and flags. It defaults to "%v".
	NodeFmt string
}

// Print prints the tree rooted at n. The comments of a Chunk are printed
// after the node they are attached to, one level deeper, and its name is
// the filename printed by the token.PosLong mode.
func (p *Printer) Print(n Node) error {
	pp := &printer{Printer: *p}
	if pp.NodeFmt == "" {
		pp.NodeFmt = "%v"
	}
	if ch, ok := n.(*Chunk); ok {
		pp.filename = ch.Name
		for _, c := range ch.Comments {
			if pp.comments == nil {
				pp.comments = make(map[Node][]*Comment)
			}
			pp.comments[c.Node] = append(pp.comments[c.Node], c)
		}
	}
	Walk(pp, n)
	return pp.err
}

type printer struct {
	Printer
	filename string
	comments map[Node][]*Comment
	depth    int
	err      error
}

func (p *printer) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit || p.err != nil {
		p.depth--
		return nil
	}

	p.line(n, p.depth)
	p.depth++
	for _, c := range p.comments[n] {
		p.line(c, p.depth)
	}
	return p
}

// line prints n at the given depth.
func (p *printer) line(n Node, depth int) {
	if p.err != nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(". ", depth))
	if p.Pos != token.PosNone {
		start, end := n.Span()
		// the filename is only printed for the start
		endMode := p.Pos
		if endMode == token.PosLong {
			endMode = token.PosLineCol
		}
		fmt.Fprintf(&sb, "[%s:%s] ",
			token.FormatPos(p.Pos, p.filename, start),
			token.FormatPos(endMode, p.filename, end))
	}
	fmt.Fprintf(&sb, p.NodeFmt, n)
	sb.WriteByte('\n')

	_, p.err = io.WriteString(p.Output, sb.String())
}
