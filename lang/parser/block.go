package parser

import (
	"slices"

	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/token"
)

// chunk parses a whole source. When too many errors stop the parsing, the
// statements parsed so far are kept.
func (p *parser) chunk() *ast.Chunk {
	ch := &ast.Chunk{Name: p.filename}
	defer func() {
		if e := recover(); e != nil {
			if e != errTooManyErrors {
				panic(e)
			}
			if ch.Block == nil {
				ch.Block = &ast.Block{}
			}
		}
		if p.parseComments {
			p.attachComments(ch)
		}
	}()

	ch.Block = p.block()
	ch.EOF = p.val.Pos
	return ch
}

// block parses statements up to one of the ends tokens or EOF, which is not
// consumed. Return, break and continue must be the last statement of the
// block, the first statement that follows one is reported.
func (p *parser) block(ends ...token.Token) *ast.Block {
	b := &ast.Block{Start: p.preCommentPos}

	var ended, reported bool
	for p.tok != token.EOF && !slices.Contains(ends, p.tok) {
		stmt := p.stmt()
		if stmt == nil {
			continue
		}
		if ended && !reported {
			pos, _ := stmt.Span()
			p.errorExpected(pos, "end of block")
			reported = true
		}
		ended = ended || stmt.BlockEnding()
		b.Stmts = append(b.Stmts, stmt)
	}
	b.End = p.val.Pos
	return b
}

// attachComments sets the node of each comment collected while parsing ch to
// the innermost statement on the same line or on the next one, or to ch if
// there is none.
func (p *parser) attachComments(ch *ast.Chunk) {
	for _, c := range p.pendingComments {
		c.Node = ch
		cline, _ := c.Start.LineCol()

		ast.Inspect(ch, func(n ast.Node) bool {
			if _, ok := n.(ast.Stmt); !ok {
				return true
			}
			start, end := n.Span()
			sline, _ := start.LineCol()
			eline, _ := end.LineCol()
			if (cline >= sline && cline <= eline) || cline+1 == sline {
				c.Node = n
				return true
			}
			return false
		})
	}
	ch.Comments = p.pendingComments
	p.pendingComments = nil
}
