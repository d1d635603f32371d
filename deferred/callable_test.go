package deferred_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/mna/srcfn/deferred"
	"github.com/mna/srcfn/lang/machine"
	"github.com/mna/srcfn/lang/scanner"
	"github.com/mna/srcfn/lang/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func intRange(from, to int64) []types.Value {
	var vals []types.Value
	for i := from; i <= to; i++ {
		vals = append(vals, types.Int(i))
	}
	return vals
}

func TestSquare(t *testing.T) {
	c, err := deferred.New("|i| i ** 2")
	require.NoError(t, err)
	assert.Equal(t, "|i| i ** 2", c.Source())

	v, err := c.Call(context.Background(), types.Int(3))
	require.NoError(t, err)
	assert.Equal(t, types.Int(9), v)
}

func TestFilter(t *testing.T) {
	c, err := deferred.New("|i| (i % 3).zero?")
	require.NoError(t, err)

	got, err := deferred.Filter(context.Background(), c, intRange(1, 10))
	require.NoError(t, err)
	assert.Equal(t, []types.Value{types.Int(3), types.Int(6), types.Int(9)}, got)
}

func TestMapReduce(t *testing.T) {
	ctx := context.Background()
	sq, err := deferred.New("|i| i * i")
	require.NoError(t, err)
	add, err := deferred.New("|acc, x| acc + x")
	require.NoError(t, err)

	squares, err := deferred.Map(ctx, sq, intRange(1, 4))
	require.NoError(t, err)
	assert.Equal(t, []types.Value{types.Int(1), types.Int(4), types.Int(9), types.Int(16)}, squares)

	sum, err := deferred.Reduce(ctx, add, types.Int(0), squares)
	require.NoError(t, err)
	assert.Equal(t, types.Int(30), sum)

	_, err = deferred.Map(ctx, sq, []types.Value{types.String("x")})
	assert.ErrorContains(t, err, "unsupported binary op: string * string")
}

func TestRoundTrip(t *testing.T) {
	c, err := deferred.New("|i| i ** 2")
	require.NoError(t, err)

	form := c.Serialize()
	assert.Equal(t, deferred.SerialForm{Source: "|i| i ** 2"}, form)

	c2, err := deferred.Deserialize(form)
	require.NoError(t, err)
	assert.Equal(t, c.Source(), c2.Source())

	v, err := c2.Call(context.Background(), types.Int(4))
	require.NoError(t, err)
	assert.Equal(t, types.Int(16), v)
}

func TestCompileError(t *testing.T) {
	_, err := deferred.New("not valid (( syntax")
	require.Error(t, err)
	assert.ErrorIs(t, err, deferred.ErrCompile)

	var ce *deferred.CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "not valid (( syntax", ce.Source)

	var el scanner.ErrorList
	require.True(t, errors.As(err, &el))
	assert.NotEmpty(t, el)
	assert.EqualError(t, err, "compile error: srcfn:1:20: expected ')', found end of file")

	// the body is wrapped in a template, errors on its end are at the end of
	// the body
	_, err = deferred.New("|i| i +")
	assert.EqualError(t, err, "compile error: srcfn:1:8: expected expression, found end of file")
	_, err = deferred.New("|i|\nlet x = [i,")
	assert.EqualError(t, err, "compile error: srcfn:2:12: expected expression, found end of file")

	_, err = deferred.New("|a| b")
	assert.ErrorIs(t, err, deferred.ErrCompile)
	assert.ErrorContains(t, err, "undefined: b")

	_, err = deferred.New("|a| a end 1")
	assert.ErrorIs(t, err, deferred.ErrCompile)
}

func TestEmptySource(t *testing.T) {
	c, err := deferred.New("")
	require.NoError(t, err)
	v, err := c.Call(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Nil, v)
}

func TestSetSourceAtomic(t *testing.T) {
	ctx := context.Background()
	c, err := deferred.New("|i| i ** 2")
	require.NoError(t, err)
	before := c.Executable()

	_, err = c.SetSource("|i| i +")
	require.Error(t, err)
	assert.ErrorIs(t, err, deferred.ErrCompile)

	assert.Equal(t, "|i| i ** 2", c.Source())
	assert.Same(t, before, c.Executable())
	v, err := c.Call(ctx, types.Int(5))
	require.NoError(t, err)
	assert.Equal(t, types.Int(25), v)

	got, err := c.SetSource("|i| i + 1")
	require.NoError(t, err)
	assert.Equal(t, "|i| i + 1", got)
	v, err = c.Call(ctx, types.Int(5))
	require.NoError(t, err)
	assert.Equal(t, types.Int(6), v)

	// the previous executable is not affected
	v, err = before.Call(ctx, types.Int(5))
	require.NoError(t, err)
	assert.Equal(t, types.Int(25), v)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	c, err := deferred.New("|i| i - 1")
	require.NoError(t, err)
	before := c.Executable()

	exec, err := c.Refresh()
	require.NoError(t, err)
	assert.NotSame(t, before, exec)
	assert.Same(t, exec, c.Executable())
	assert.Equal(t, "|i| i - 1", c.Source())

	for _, fn := range []deferred.Executable{before, exec, c} {
		v, err := fn.Call(ctx, types.Int(10))
		require.NoError(t, err)
		assert.Equal(t, types.Int(9), v)
	}

	_, err = c.Refresh()
	require.NoError(t, err)
	assert.Equal(t, "|i| i - 1", c.Source())
}

func TestCallErrorPassthrough(t *testing.T) {
	c, err := deferred.New("|x| x + 'a'")
	require.NoError(t, err)

	_, err = c.Call(context.Background(), types.Int(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, deferred.ErrCompile)

	var ee *machine.EvalError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "srcfn:1:7: unsupported binary op: int + string", err.Error())

	_, err = c.Call(context.Background())
	assert.ErrorContains(t, err, "accepts 1 argument (0 given)")
}

func TestInvoke(t *testing.T) {
	c, err := deferred.New("|xs, f| xs.map(do |x| x * f end)")
	require.NoError(t, err)

	v, err := c.Invoke(context.Background(), []any{1, 2.5}, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), 5.0}, v)

	_, err = c.Invoke(context.Background(), struct{}{}, 1)
	assert.ErrorContains(t, err, "argument 0")
}

func TestFunc(t *testing.T) {
	c, err := deferred.New("|a, b| a .. b")
	require.NoError(t, err)
	fn := c.Func()

	_, err = c.SetSource("|a, b| a")
	require.NoError(t, err)

	v, err := fn(context.Background(), types.Int(1), types.Int(3))
	require.NoError(t, err)
	assert.Equal(t, types.Range{Start: 1, End: 3}, v)
}

func TestZeroValue(t *testing.T) {
	var c deferred.Callable
	assert.Equal(t, "", c.Source())
	assert.Nil(t, c.Executable())

	_, err := c.Call(context.Background())
	assert.ErrorIs(t, err, deferred.ErrUninitialized)
	_, err = c.Func()(context.Background())
	assert.ErrorIs(t, err, deferred.ErrUninitialized)
	exec, err := c.Refresh()
	assert.ErrorIs(t, err, deferred.ErrUninitialized)
	assert.Nil(t, exec)
	assert.Equal(t, "", c.Source())

	require.NoError(t, json.Unmarshal([]byte(`{"source": "|| 42"}`), &c))
	v, err := c.Call(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Int(42), v)
}

func TestLimits(t *testing.T) {
	c, err := deferred.New("|| while true do end", deferred.WithLimits(1000, 0))
	require.NoError(t, err)
	_, err = c.Call(context.Background())
	assert.ErrorIs(t, err, machine.ErrStepLimit)

	c, err = deferred.New("|| let f = nil; f = do || f() end; f()", deferred.WithLimits(0, 10))
	require.NoError(t, err)
	_, err = c.Call(context.Background())
	assert.ErrorContains(t, err, "call stack depth exceeded")
}

func TestCancelledCall(t *testing.T) {
	c, err := deferred.New("|| while true do end")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Call(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithBackend(t *testing.T) {
	var compiled []string
	b := deferred.BackendFunc(func(source string) (deferred.Executable, error) {
		compiled = append(compiled, source)
		if source == "bad" {
			return nil, &deferred.CompileError{Source: source, Err: errors.New("bad source")}
		}
		return deferred.ExecutableFunc(func(_ context.Context, args ...types.Value) (types.Value, error) {
			return types.String(source), nil
		}), nil
	})

	c, err := deferred.New("echo", deferred.WithBackend(b))
	require.NoError(t, err)
	v, err := c.Call(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.String("echo"), v)

	_, err = c.SetSource("bad")
	assert.ErrorIs(t, err, deferred.ErrCompile)
	assert.Equal(t, "echo", c.Source())

	_, err = c.Refresh()
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "bad", "echo"}, compiled)
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	c, err := deferred.New("|i| i", deferred.WithLogger(logger))
	require.NoError(t, err)
	_, err = c.SetSource("|i| i +")
	require.Error(t, err)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "compiled source", entries[0].Message)
	assert.Equal(t, "compile failed", entries[1].Message)

	fields := entries[0].ContextMap()
	assert.Contains(t, fields, "fingerprint")
	assert.Contains(t, fields, "duration")
	assert.Contains(t, entries[1].ContextMap(), "error")

	// calls are never logged
	_, err = c.Call(context.Background(), types.Int(1))
	require.NoError(t, err)
	assert.Equal(t, 2, logs.Len())
}

func TestConcurrentUse(t *testing.T) {
	ctx := context.Background()
	c, err := deferred.New("|i| i + 1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errc := make(chan error, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			v, err := c.Call(ctx, types.Int(1))
			if err == nil && v != types.Int(2) && v != types.Int(3) {
				err = errors.New("unexpected result: " + v.String())
			}
			errc <- err
		}()
		go func(i int) {
			defer wg.Done()
			src := "|i| i + 1"
			if i%2 == 0 {
				src = "|i| i + 2"
			}
			_, err := c.SetSource(src)
			errc <- err
		}(i)
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		assert.NoError(t, err)
	}

	// source and executable are consistent
	v, err := c.Call(ctx, types.Int(1))
	require.NoError(t, err)
	want := types.Int(2)
	if c.Source() == "|i| i + 2" {
		want = types.Int(3)
	}
	assert.Equal(t, want, v)
}
