package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/scanner"
	"github.com/mna/srcfn/lang/token"
)

// Mode is a set of bit flags that configures the parsing. By default (0), the
// AST is parsed fully, all errors are reported and comments are ignored.
type Mode uint

// List of supported parsing modes, which can be combined with bitwise or.
const (
	Comments Mode = 1 << iota // parse and report comments, associate them with their AST node.
)

// maximum number of errors reported for a single chunk before giving up.
const maxErrors = 10

// ParseFiles is a helper function that parses the source files and returns
// the ASTs and any error encountered. Each file contains the source of a
// function body and is parsed as ParseFunc does. The error, if non-nil, is
// guaranteed to be a scanner.ErrorList.
func ParseFiles(ctx context.Context, mode Mode, files ...string) ([]*ast.Chunk, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var p parser
	p.parseComments = mode&Comments != 0

	res := make([]*ast.Chunk, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		b, err := os.ReadFile(file)
		if err != nil {
			p.errors.Add(file, token.NoPos, err.Error())
			continue
		}
		res = append(res, p.parseFunc(file, string(b)))
	}
	p.errors.Sort()
	return res, p.errors.Err()
}

// ParseChunk is a helper function that parses a single chunk from a slice of
// bytes and returns the AST and any error encountered. The error, if non-nil,
// is guaranteed to be a scanner.ErrorList.
func ParseChunk(mode Mode, filename string, src []byte) (*ast.Chunk, error) {
	var p parser
	p.parseComments = mode&Comments != 0
	p.init(filename, src, 1)
	ch := p.chunk()
	p.errors.Sort()
	return ch, p.errors.Err()
}

// Template is the function literal template in which the source of a
// function body is inserted by ParseFunc. It starts with a newline so that
// positions reported for the body are the same as in the body's own text.
const Template = "do\n%s\nend"

// ParseFunc wraps body in the function literal Template and parses the
// result. The body must be a valid function body, i.e. an optional parameter
// list followed by statements, e.g. "|i| i ** 2". The resulting chunk
// contains a single expression statement, the function literal, which can
// be retrieved with ast.FuncOf. Positions in the AST and in errors refer to
// the body text, an error on the closing end of the template is reported at
// the end of the body. The error, if non-nil, is guaranteed to be a
// scanner.ErrorList.
func ParseFunc(mode Mode, filename, body string) (*ast.Chunk, error) {
	var p parser
	p.parseComments = mode&Comments != 0
	ch := p.parseFunc(filename, body)
	p.errors.Sort()
	return ch, p.errors.Err()
}

func (p *parser) parseFunc(filename, body string) *ast.Chunk {
	nerr := len(p.errors)
	p.init(filename, []byte(fmt.Sprintf(Template, body)), 0)
	ch := p.chunk()

	fn := ast.FuncOf(ch)
	if fn != nil {
		// the chunk starts where the actual source starts
		ch.Block.Start, _ = fn.Span()
	} else if len(p.errors) == nerr {
		pos := ch.EOF
		if ch.Block != nil && len(ch.Block.Stmts) > 1 {
			pos, _ = ch.Block.Stmts[1].Span()
		}
		p.error(pos, "source must be a single function body")
	}
	p.clampErrors(nerr, body)
	return ch
}

// clampErrors moves the errors of p.errors[from:] reported on the closing end
// of the template to the end of body. Only the first of them is kept.
func (p *parser) clampErrors(from int, body string) {
	end := bodyEnd(body)
	endLine, _ := end.LineCol()

	kept, clamped := p.errors[:from], false
	for _, e := range p.errors[from:] {
		if line, _ := e.Pos.LineCol(); line > endLine {
			if clamped {
				continue
			}
			clamped = true
			e.Pos = end
			if strings.HasSuffix(e.Msg, ", found end") {
				e.Msg += " of file"
			}
		}
		kept = append(kept, e)
	}
	p.errors = kept
}

// bodyEnd returns the position just after the last character of body.
func bodyEnd(body string) token.Pos {
	line := 1 + strings.Count(body, "\n")
	last := body[strings.LastIndexByte(body, '\n')+1:]
	return token.MakePos(line, utf8.RuneCountInString(last)+1)
}

type parser struct {
	// set once, before the first chunk
	parseComments bool
	scanner       scanner.Scanner
	errors        scanner.ErrorList

	filename string
	errStart int // len(errors) when the chunk started

	tok token.Token
	val token.Value

	// position of the first comment before the current token, or of the token
	// if there is none, where a block that starts at this token starts
	preCommentPos token.Pos

	// comments collected by advance, attached to their node once the chunk is
	// parsed
	pendingComments []*ast.Comment
}

func (p *parser) init(filename string, src []byte, line int) {
	p.filename = filename
	p.errStart = len(p.errors)
	p.pendingComments = nil
	p.scanner.InitAt(filename, src, line, p.errors.Add)
	p.advance()
}

// advance moves to the next token, collecting the comments it skips if
// requested.
func (p *parser) advance() {
	p.tok = p.scanner.Scan(&p.val)
	p.preCommentPos = p.val.Pos
	for ; p.tok == token.COMMENT; p.tok = p.scanner.Scan(&p.val) {
		if !p.parseComments {
			continue
		}
		c := &ast.Comment{Start: p.val.Pos, Raw: p.val.Raw, Val: p.val.String}
		p.pendingComments = append(p.pendingComments, c)
	}
}

// expect consumes the current token if it is one of toks and returns its
// position. Otherwise it reports an error and panics with errPanicMode, to be
// recovered at the statement level.
func (p *parser) expect(toks ...token.Token) token.Pos {
	pos := p.val.Pos
	if slices.Contains(toks, p.tok) {
		p.advance()
		return pos
	}

	want := make([]string, len(toks))
	for i, tok := range toks {
		want[i] = tok.GoString()
	}
	p.errorExpected(pos, strings.Join(want, " or "))
	panic(errPanicMode)
}

var (
	errPanicMode     = errors.New("panic mode")
	errTooManyErrors = errors.New("too many errors")
)

// error records an error at pos, and stops the parsing of the chunk with
// errTooManyErrors once maxErrors is reached.
func (p *parser) error(pos token.Pos, msg string) {
	p.errors.Add(p.filename, pos, msg)
	if len(p.errors)-p.errStart < maxErrors {
		return
	}
	p.errors.Add(p.filename, pos, "too many errors")
	panic(errTooManyErrors)
}

// errorExpected reports that what was expected is missing at pos. The
// current token is described if it is at pos.
func (p *parser) errorExpected(pos token.Pos, what string) {
	msg := "expected " + what
	if pos == p.val.Pos {
		switch p.tok {
		case token.EOF:
			msg += ", found end of file"
		case token.IDENT, token.INT, token.FLOAT, token.STRING:
			msg += fmt.Sprintf(", found %s %s", p.tok, p.val.Raw)
		default:
			msg += fmt.Sprintf(", found %#v", p.tok)
		}
	}
	p.error(pos, msg)
}
