package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/srcfn/deferred"
	"github.com/mna/srcfn/internal/config"
	"github.com/mna/srcfn/internal/registry"
	"github.com/mna/srcfn/lang/compiler"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const binName = "srcfn"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<arg>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<arg>...]
       %[1]s -h|--help
       %[1]s -v|--version

Serializable deferred functions and all-in-one tool for the %[1]s
block language.

The <command> can be one of:
       call <source> [<arg>...]  Compile the function source and call
                                 it with the arguments, which are JSON
                                 values. The result is printed as JSON.
       dasm <path>...            Compile the function source files and
                                 print the bytecode in assembly form.
       deserialize <path>        Decode the serialized function stored
                                 in the file and print its source.
       modules                   List the registered modules.
       parse <path>...           Execute the parser phase of the
                                 compilation and print the resulting
                                 abstract syntax tree (AST).
       repl                      Start an interactive session where
                                 each input sets the function source.
       resolve <path>...         Execute the resolver phase of the
                                 compilation and print the resulting
                                 abstract syntax tree (AST) with symbol
                                 resolution information.
       serialize <source>        Compile the function source and print
                                 its serialized form.
       tokenize <path>...        Execute the scanner phase of the
                                 compilation and print the resulting
                                 tokens.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --max-steps N             Limit the number of instructions
                                 executed by a call (<call>, <repl> and
                                 <deserialize> commands).

Valid flag options for the <parse> and <resolve> commands are:
       --with-comments           Include comments in the AST (excluded
                                 by default).

Valid flag options for the <serialize>, <deserialize> and <repl> commands
are:
       --format NAME             Name of the serialization format, one
                                 of %[2]s.

Valid flag options for the <deserialize> command are:
       --call                    Call the decoded function with the
                                 remaining arguments and print the result.

The following environment variables are supported:
       SRCFN_MAX_STEPS           Default value of --max-steps.
       SRCFN_MAX_CALL_DEPTH      Maximum depth of the call stack.
       SRCFN_CACHE_SIZE          Number of compiled sources to cache.
       SRCFN_LOG_LEVEL           Minimum level of the logs printed to
                                 stderr (debug, info, warn, error).
       SRCFN_FORMAT              Default value of --format.

More information on the %[1]s repository:
       https://github.com/mna/srcfn
`, binName, strings.Join(deferred.Codecs(), ", "))
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	WithComments bool   `flag:"with-comments"`
	Format       string `flag:"format"`
	MaxSteps     int    `flag:"max-steps"`
	DoCall       bool   `flag:"call"`

	args  []string
	flags map[string]bool
	cmdFn commandFunc

	cfg      *config.Config
	logger   *zap.Logger
	registry *registry.Registry
	backend  *deferred.CachingBackend
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

// flagCommands lists the commands that accept each command-specific flag.
var flagCommands = map[string][]string{
	"with-comments": {"parse", "resolve"},
	"format":        {"serialize", "deserialize", "repl"},
	"max-steps":     {"call", "deserialize", "repl"},
	"call":          {"deserialize"},
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}
	cmdName, nargs := c.args[0], len(c.args)-1
	if c.cmdFn = commands(c)[cmdName]; c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	switch cmdName {
	case "tokenize", "parse", "resolve", "dasm":
		if nargs == 0 {
			return fmt.Errorf("%s: at least one file must be provided", cmdName)
		}
	case "call":
		if nargs == 0 {
			return fmt.Errorf("%s: a function source must be provided", cmdName)
		}
	case "serialize":
		if nargs != 1 {
			return fmt.Errorf("%s: exactly one function source must be provided", cmdName)
		}
	case "deserialize":
		if nargs == 0 {
			return fmt.Errorf("%s: a file must be provided", cmdName)
		}
		if nargs > 1 && !c.DoCall {
			return fmt.Errorf("%s: arguments are only valid with the 'call' flag", cmdName)
		}
	case "repl", "modules":
		if nargs != 0 {
			return fmt.Errorf("%s: no argument expected", cmdName)
		}
	}

	for flag, cmds := range flagCommands {
		if c.flags[flag] && !slices.Contains(cmds, cmdName) {
			return fmt.Errorf("%s: invalid flag '%s'", cmdName, flag)
		}
	}

	if c.flags["max-steps"] && c.MaxSteps < 0 {
		return fmt.Errorf("%s: invalid max-steps: %d", cmdName, c.MaxSteps)
	}
	if c.flags["format"] {
		if _, err := deferred.LookupCodec(c.Format); err != nil {
			return fmt.Errorf("%s: %w", cmdName, err)
		}
	}

	return nil
}

// printError prints err, if any, on stderr and returns it.
func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
	}
	return err
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false, // configuration comes from internal/config
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	if c.Help {
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	}
	if c.Version {
		fmt.Fprintln(stdio.Stdout, binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	if err := c.setup(stdio); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid configuration: %s\n", err)
		return mainer.InvalidArgs
	}
	defer c.teardown()

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	// commands print their own errors
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

// setup loads the configuration, applies the flags over it and initializes
// the logger, the module registry and the compilation backend.
func (c *Cmd) setup(stdio mainer.Stdio) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.flags["max-steps"] {
		cfg.MaxSteps = c.MaxSteps
	}
	if c.flags["format"] {
		cfg.Format = c.Format
	}
	if _, err := deferred.LookupCodec(cfg.Format); err != nil {
		return err
	}
	c.cfg = cfg

	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(stdio.Stderr)),
		lvl,
	)
	c.logger = zap.New(core).Named(binName)

	cb, err := deferred.NewCachingBackend(deferred.LangBackend{
		MaxSteps:     cfg.MaxSteps,
		MaxCallDepth: cfg.MaxCallDepth,
		Stdout:       stdio.Stdout,
	}, cfg.CacheSize)
	if err != nil {
		return err
	}
	c.backend = cb

	c.registerModules()
	return nil
}

// registerModules records the binary and the bytecode format in the module
// registry. Failures are logged, the registry is informational.
func (c *Cmd) registerModules() {
	reg, err := registry.New()
	if err != nil {
		c.logger.Warn("module registry unavailable", zap.Error(err))
		return
	}
	c.registry = reg

	mods := []struct{ name, version string }{
		{binName, c.BuildVersion},
		{binName + "/bytecode", strconv.Itoa(compiler.Version)},
		{binName + "/serial", strings.Join(deferred.Codecs(), ",")},
	}
	for _, m := range mods {
		id, err := reg.Register(m.name, m.version)
		if err != nil {
			c.logger.Warn("module registration failed", zap.String("module", m.name), zap.Error(err))
			continue
		}
		c.logger.Debug("module registered", zap.String("module", m.name),
			zap.String("version", m.version), zap.Stringer("id", id))
	}
}

func (c *Cmd) teardown() {
	if c.backend != nil {
		hits, misses := c.backend.Stats()
		c.logger.Debug("compile cache", zap.Uint64("hits", hits), zap.Uint64("misses", misses))
		c.backend.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// options returns the options to create the Callables of the commands.
func (c *Cmd) options() []deferred.Option {
	return []deferred.Option{
		deferred.WithBackend(c.backend),
		deferred.WithLogger(c.logger),
	}
}

// commandFunc is the signature of the methods of Cmd that implement a
// command.
type commandFunc = func(context.Context, mainer.Stdio, []string) error

// commands returns the methods of v that implement a command, by lowercase
// name.
func commands(v any) map[string]commandFunc {
	want := reflect.TypeFor[commandFunc]()
	val := reflect.ValueOf(v)
	typ := val.Type()

	cmds := make(map[string]commandFunc)
	for i := range typ.NumMethod() {
		if m := val.Method(i); m.Type() == want {
			cmds[strings.ToLower(typ.Method(i).Name)] = m.Interface().(commandFunc)
		}
	}
	return cmds
}
