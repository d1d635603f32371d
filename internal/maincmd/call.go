package maincmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/srcfn/deferred"
	"github.com/mna/srcfn/lang/machine"
	"github.com/mna/srcfn/lang/types"
)

func (c *Cmd) Call(ctx context.Context, stdio mainer.Stdio, args []string) error {
	fn, err := deferred.New(args[0], c.options()...)
	if err != nil {
		return printError(stdio, err)
	}
	vals, err := parseArgs(args[1:])
	if err != nil {
		return printError(stdio, err)
	}
	return callAndPrint(ctx, stdio, fn, vals)
}

func (c *Cmd) Serialize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	fn, err := deferred.New(args[0], c.options()...)
	if err != nil {
		return printError(stdio, err)
	}
	b, err := fn.Encode(c.cfg.Format)
	if err != nil {
		return printError(stdio, err)
	}
	if c.cfg.Format != "binary" && !bytes.HasSuffix(b, []byte("\n")) {
		b = append(b, '\n')
	}
	if _, err := stdio.Stdout.Write(b); err != nil {
		return printError(stdio, err)
	}
	return nil
}

func (c *Cmd) Deserialize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	b, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	fn, err := deferred.Decode(c.cfg.Format, b, c.options()...)
	if err != nil {
		return printError(stdio, fmt.Errorf("%s: %w", args[0], err))
	}

	if !c.DoCall {
		fmt.Fprintln(stdio.Stdout, fn.Source())
		return nil
	}
	vals, err := parseArgs(args[1:])
	if err != nil {
		return printError(stdio, err)
	}
	return callAndPrint(ctx, stdio, fn, vals)
}

// callAndPrint calls fn with vals and prints the JSON representation of the
// result. On failure, the error is printed along with the call stack if
// there is more than one call frame.
func callAndPrint(ctx context.Context, stdio mainer.Stdio, fn *deferred.Callable, vals []types.Value) error {
	res, err := fn.Call(ctx, vals...)
	if err != nil {
		var ee *machine.EvalError
		if errors.As(err, &ee) && len(ee.CallStack) > 1 {
			fmt.Fprintln(stdio.Stderr, ee.Backtrace())
			return err
		}
		return printError(stdio, err)
	}

	b, err := json.Marshal(types.ToGo(res))
	if err != nil {
		return printError(stdio, err)
	}
	fmt.Fprintf(stdio.Stdout, "%s\n", b)
	return nil
}

// parseArgs decodes each raw argument as a single JSON value.
func parseArgs(raw []string) ([]types.Value, error) {
	vals := make([]types.Value, 0, len(raw))
	for i, s := range raw {
		vs, err := parseArgStream(s)
		if err == nil && len(vs) != 1 {
			err = errors.New("expected a single JSON value")
		}
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		vals = append(vals, vs[0])
	}
	return vals, nil
}

// parseArgStream decodes the whitespace-separated JSON values of s.
func parseArgStream(s string) ([]types.Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var vals []types.Value
	for {
		var v any
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return vals, nil
			}
			return nil, err
		}
		tv, err := types.FromGo(v)
		if err != nil {
			return nil, err
		}
		vals = append(vals, tv)
	}
}
