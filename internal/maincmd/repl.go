package maincmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/srcfn/deferred"
	"github.com/peterh/liner"
)

const (
	historyFile = ".srcfn_history"
	promptMain  = "srcfn> "
)

const replHelp = `Enter a function source such as '|i| i ** 2' to set the current function.
Commands:
  :call [<arg>...]   Call the current function, the arguments are JSON values.
  :source            Print the source of the current function.
  :save <path>       Serialize the current function to the file.
  :load <path>       Deserialize the function stored in the file.
  :help              Print this help.
  :quit              Exit the session.
`

func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	var histPath string
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sess := &replSession{cmd: c, stdio: stdio}
	for {
		line, err := ln.Prompt(promptMain)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(stdio.Stdout)
				return nil
			}
			return printError(stdio, err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		if sess.eval(ctx, line) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// replSession holds the state of an interactive session: the current
// function, if any.
type replSession struct {
	cmd   *Cmd
	stdio mainer.Stdio
	fn    *deferred.Callable
}

// eval executes a single line of input and returns true if the session must
// end. Errors are printed and do not end the session.
func (s *replSession) eval(ctx context.Context, line string) (exit bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		s.setSource(line)
		return false
	}

	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch name {
	case "quit", "q":
		return true

	case "help":
		fmt.Fprint(s.stdio.Stdout, replHelp)

	case "source":
		if s.fn == nil {
			fmt.Fprintln(s.stdio.Stderr, "no function defined")
			break
		}
		fmt.Fprintln(s.stdio.Stdout, s.fn.Source())

	case "call":
		if s.fn == nil {
			fmt.Fprintln(s.stdio.Stderr, "no function defined")
			break
		}
		vals, err := parseArgStream(rest)
		if err != nil {
			fmt.Fprintf(s.stdio.Stderr, "invalid arguments: %s\n", err)
			break
		}
		_ = callAndPrint(ctx, s.stdio, s.fn, vals)

	case "save":
		if s.fn == nil {
			fmt.Fprintln(s.stdio.Stderr, "no function defined")
			break
		}
		if rest == "" {
			fmt.Fprintln(s.stdio.Stderr, "save: a file must be provided")
			break
		}
		b, err := s.fn.Encode(s.cmd.cfg.Format)
		if err == nil {
			err = os.WriteFile(rest, b, 0o600)
		}
		if err != nil {
			fmt.Fprintf(s.stdio.Stderr, "save: %s\n", err)
		}

	case "load":
		if rest == "" {
			fmt.Fprintln(s.stdio.Stderr, "load: a file must be provided")
			break
		}
		b, err := os.ReadFile(rest)
		if err != nil {
			fmt.Fprintf(s.stdio.Stderr, "load: %s\n", err)
			break
		}
		fn, err := deferred.Decode(s.cmd.cfg.Format, b, s.cmd.options()...)
		if err != nil {
			fmt.Fprintf(s.stdio.Stderr, "load: %s\n", err)
			break
		}
		s.fn = fn
		fmt.Fprintln(s.stdio.Stdout, fn.Source())

	default:
		fmt.Fprintf(s.stdio.Stderr, "unknown command: %s (type :help for the list of commands)\n", name)
	}
	return false
}

// setSource replaces the source of the current function. If it fails to
// compile, the current function is unchanged.
func (s *replSession) setSource(src string) {
	if s.fn == nil {
		fn, err := deferred.New(src, s.cmd.options()...)
		if err != nil {
			fmt.Fprintln(s.stdio.Stderr, err)
			return
		}
		s.fn = fn
		return
	}
	if _, err := s.fn.SetSource(src); err != nil {
		fmt.Fprintln(s.stdio.Stderr, err)
	}
}
