package maincmd

import (
	"context"
	"io"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/srcfn/lang/scanner"
	"github.com/mna/srcfn/lang/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, token.PosLong, args...)
}

// TokenizeFiles prints the tokens of each file, one per line, preceded by
// their position formatted according to posMode.
func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, posMode token.PosMode, files ...string) error {
	all, err := scanner.ScanFiles(ctx, files...)
	var sb strings.Builder
	for i, toks := range all {
		for _, tv := range toks {
			sb.Reset()
			if pos := token.FormatPos(posMode, files[i], tv.Value.Pos); pos != "" {
				sb.WriteString(pos + ": ")
			}
			sb.WriteString(tv.Token.String())
			if lit := tv.Token.Literal(tv.Value); lit != "" {
				sb.WriteString(" " + lit)
			}
			sb.WriteByte('\n')
			io.WriteString(stdio.Stdout, sb.String())
		}
	}
	if err != nil {
		scanner.PrintError(stdio.Stderr, err)
	}
	return err
}
