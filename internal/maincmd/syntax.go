package maincmd

import (
	"context"

	"github.com/mna/mainer"
	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/machine"
	"github.com/mna/srcfn/lang/parser"
	"github.com/mna/srcfn/lang/resolver"
	"github.com/mna/srcfn/lang/scanner"
	"github.com/mna/srcfn/lang/token"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(ctx, stdio, c.parseMode(), token.PosLong, "", args...)
}

func (c *Cmd) Resolve(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ResolveFiles(ctx, stdio, c.parseMode(), resolver.NameBlocks, token.PosLong, "", args...)
}

func (c *Cmd) parseMode() parser.Mode {
	if c.WithComments {
		return parser.Comments
	}
	return 0
}

// ParseFiles prints the AST of each file. The chunks that parsed are printed
// even if others failed.
func ParseFiles(ctx context.Context, stdio mainer.Stdio, parseMode parser.Mode, posMode token.PosMode, nodeFmt string, files ...string) error {
	chunks, err := parser.ParseFiles(ctx, parseMode, files...)
	if perr := printChunks(stdio, posMode, nodeFmt, chunks); perr != nil {
		return perr
	}
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
	}
	return err
}

// ResolveFiles prints the resolved AST of each file, with the binding of
// each identifier. Nothing is resolved if any file fails to parse.
func ResolveFiles(ctx context.Context, stdio mainer.Stdio, parseMode parser.Mode,
	resolveMode resolver.Mode, posMode token.PosMode, nodeFmt string, files ...string) error {

	chunks, err := parser.ParseFiles(ctx, parseMode, files...)
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
		return err
	}

	err = resolver.ResolveFiles(ctx, chunks, resolveMode, machine.IsUniverse)
	if perr := printChunks(stdio, posMode, nodeFmt, chunks); perr != nil {
		return perr
	}
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
	}
	return err
}

func printChunks(stdio mainer.Stdio, posMode token.PosMode, nodeFmt string, chunks []*ast.Chunk) error {
	p := ast.Printer{Output: stdio.Stdout, Pos: posMode, NodeFmt: nodeFmt}
	for _, ch := range chunks {
		if err := p.Print(ch); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}
