package deferred

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mna/srcfn/lang/types"
	"go.uber.org/zap"
)

// Callable pairs the source of a function body with its executable form. The
// zero value has no source and must be initialized by one of the unmarshal
// methods before use, otherwise use New or Deserialize.
type Callable struct {
	backend      Backend
	logger       *zap.Logger
	maxSteps     int
	maxCallDepth int

	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[snapshot]
}

// snapshot is the source and the executable compiled from it, always
// replaced as a unit.
type snapshot struct {
	source string
	exec   Executable
}

var _ Executable = (*Callable)(nil)

// New compiles source and returns the Callable for it. It returns a
// *CompileError if the source cannot be compiled.
func New(source string, opts ...Option) (*Callable, error) {
	var c Callable
	for _, o := range opts {
		o(&c)
	}
	if _, err := c.SetSource(source); err != nil {
		return nil, err
	}
	return &c, nil
}

// Source returns the current source.
func (c *Callable) Source() string {
	if s := c.snap.Load(); s != nil {
		return s.source
	}
	return ""
}

// SetSource compiles v and, on success, replaces both the source and the
// executable and returns v. On failure, the Callable is left unchanged and
// a *CompileError is returned.
func (c *Callable) SetSource(v string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exec, err := c.compile(v)
	if err != nil {
		return "", err
	}
	c.snap.Store(&snapshot{source: v, exec: exec})
	return v, nil
}

// Refresh recompiles the current source and replaces the executable with the
// result. On failure the current executable is kept. It returns
// ErrUninitialized if c was never assigned a source.
func (c *Callable) Refresh() (Executable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	if cur == nil {
		return nil, ErrUninitialized
	}
	src := cur.source
	exec, err := c.compile(src)
	if err != nil {
		return nil, err
	}
	c.snap.Store(&snapshot{source: src, exec: exec})
	return exec, nil
}

// Call calls the executable with args and returns its result. Errors raised
// by the executable are returned unchanged.
func (c *Callable) Call(ctx context.Context, args ...types.Value) (types.Value, error) {
	s := c.snap.Load()
	if s == nil {
		return nil, ErrUninitialized
	}
	return s.exec.Call(ctx, args...)
}

// Invoke is like Call but it converts the arguments from and the result to Go
// values, as done by types.FromGo and types.ToGo.
func (c *Callable) Invoke(ctx context.Context, args ...any) (any, error) {
	vals := make([]types.Value, len(args))
	for i, a := range args {
		v, err := types.FromGo(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		vals[i] = v
	}
	res, err := c.Call(ctx, vals...)
	if err != nil {
		return nil, err
	}
	return types.ToGo(res), nil
}

// Executable returns the current executable. It is not affected by
// subsequent changes of the source.
func (c *Callable) Executable() Executable {
	if s := c.snap.Load(); s != nil {
		return s.exec
	}
	return nil
}

// Func returns the current executable as a function value.
func (c *Callable) Func() func(context.Context, ...types.Value) (types.Value, error) {
	exec := c.Executable()
	if exec == nil {
		return func(context.Context, ...types.Value) (types.Value, error) {
			return nil, ErrUninitialized
		}
	}
	return exec.Call
}

// Fingerprint returns the hash of the current source.
func (c *Callable) Fingerprint() uint64 {
	return Fingerprint(c.Source())
}

func (c *Callable) String() string {
	return fmt.Sprintf("deferred(%q)", c.Source())
}

func (c *Callable) compile(source string) (Executable, error) {
	b := c.backend
	if b == nil {
		b = LangBackend{MaxSteps: c.maxSteps, MaxCallDepth: c.maxCallDepth}
	}
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	exec, err := b.Compile(source)
	fields := []zap.Field{
		zap.String("fingerprint", fmt.Sprintf("%016x", Fingerprint(source))),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		logger.Debug("compile failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	logger.Debug("compiled source", fields...)
	return exec, nil
}
