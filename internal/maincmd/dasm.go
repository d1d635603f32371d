package maincmd

import (
	"context"

	"github.com/mna/mainer"
	"github.com/mna/srcfn/lang/compiler"
	"github.com/mna/srcfn/lang/machine"
	"github.com/mna/srcfn/lang/parser"
	"github.com/mna/srcfn/lang/resolver"
	"github.com/mna/srcfn/lang/scanner"
)

func (c *Cmd) Dasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DasmFiles(ctx, stdio, args...)
}

// DasmFiles compiles each file and prints its program in the assembly
// format.
func DasmFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	chunks, err := parser.ParseFiles(ctx, 0, files...)
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
		return err
	}
	if err := resolver.ResolveFiles(ctx, chunks, 0, machine.IsUniverse); err != nil {
		scanner.PrintError(stdio.Stderr, err)
		return err
	}

	progs, err := compiler.CompileFiles(ctx, chunks)
	if err != nil {
		return printError(stdio, err)
	}
	for _, p := range progs {
		b, err := compiler.Dasm(p)
		if err != nil {
			return printError(stdio, err)
		}
		if _, err := stdio.Stdout.Write(b); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}
