package machine_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mna/srcfn/lang/compiler"
	"github.com/mna/srcfn/lang/machine"
	"github.com/mna/srcfn/lang/parser"
	"github.com/mna/srcfn/lang/resolver"
	"github.com/mna/srcfn/lang/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rxAssert = regexp.MustCompile(`(?m)^\s*###\s*(fail|nofail):\s*(.+)$`)

// TestExecAsm loads the assembly files in testdata/asm/*.asm and runs the
// resulting program. Expected results are provided as comments in the asm
// file in the form of:
//   - ### fail: <error message>
//   - ### nofail: <value>
//
// Values can be 'nil', a number, a quoted string or 'true' and 'false'. The
// nofail value is the value returned by the program.
func TestExecAsm(t *testing.T) {
	dir := filepath.Join("testdata", "asm")
	des, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, de := range des {
		if de.IsDir() || !de.Type().IsRegular() || filepath.Ext(de.Name()) != ".asm" {
			continue
		}
		t.Run(de.Name(), func(t *testing.T) {
			filename := filepath.Join(dir, de.Name())
			b, err := os.ReadFile(filename)
			require.NoError(t, err)

			cprog, err := compiler.Asm(b)
			require.NoError(t, err)

			var thread machine.Thread
			res, err := thread.RunProgram(context.Background(), cprog)

			ms := rxAssert.FindAllStringSubmatch(string(b), -1)
			require.Len(t, ms, 1, "exactly one assertion must be provided")
			want := strings.TrimSpace(ms[0][2])
			switch ms[0][1] {
			case "fail":
				assert.ErrorContains(t, err, want, "result: %v", res)
			case "nofail":
				if assert.NoError(t, err, "result: %v", res) {
					assertValue(t, want, res)
				}
			}
		})
	}
}

func assertValue(t *testing.T, want string, got types.Value) bool {
	t.Helper()

	if want == "nil" {
		return assert.Equal(t, types.Nil, got)
	} else if want == "true" || want == "false" {
		return assert.Equal(t, types.Bool(want == "true"), got)
	} else if qs, err := strconv.Unquote(want); err == nil {
		got, ok := machine.AsString(got)
		if assert.True(t, ok) {
			return assert.Equal(t, qs, got)
		}
	} else if n, err := strconv.ParseInt(want, 10, 64); err == nil {
		got, err := machine.AsExactInt(got)
		if assert.NoError(t, err) {
			return assert.Equal(t, n, int64(got))
		}
	} else {
		return assert.Failf(t, "unexpected result", "want %s, got %v (%[2]T)", want, got)
	}
	return false
}

// compileFunc compiles a function body and returns its function value.
func compileFunc(t *testing.T, src string) *machine.Function {
	t.Helper()

	ch, err := parser.ParseFunc(0, "test", src)
	require.NoError(t, err)
	require.NoError(t, resolver.ResolveChunk(ch, 0, machine.IsUniverse))
	prog := compiler.CompileChunk(ch)

	var th machine.Thread
	v, err := th.RunProgram(context.Background(), prog)
	require.NoError(t, err)
	fn, ok := v.(*machine.Function)
	require.True(t, ok, "got %T", v)
	return fn
}

func callFunc(t *testing.T, src string, args ...types.Value) (types.Value, error) {
	t.Helper()
	fn := compileFunc(t, src)
	var th machine.Thread
	return th.Call(context.Background(), fn, args)
}

func TestCallFunction(t *testing.T) {
	i := func(n int64) types.Value { return types.Int(n) }
	cases := []struct {
		src  string
		args []types.Value
		want string
	}{
		{"|i| i ** 2", []types.Value{i(3)}, "9"},
		{"|i| i ** -1", []types.Value{i(2)}, "0.5"},
		{"|i| (i % 3).zero?", []types.Value{i(3)}, "true"},
		{"|i| (i % 3).zero?", []types.Value{i(4)}, "false"},
		{"|| (1..10).select(do |i| (i % 3).zero? end)", nil, "[3, 6, 9]"},
		{"|| (1..4).map(do |i| i * i end).sum", nil, "30"},
		{"|| (1..4).reduce(0, do |acc, x| acc - x end)", nil, "-10"},
		{"|n| let f = do |x| x + n end; f(1)", []types.Value{i(41)}, "42"},
		{"|| let n = 0; let inc = do || n += 1 end; inc(); inc(); n", nil, "2"},
		{"|n| let f = nil; f = do |n| if n <= 1 then 1 else n * f(n - 1) end end; f(n)", []types.Value{i(5)}, "120"},
		{"|a, b| a // b", []types.Value{i(-7), i(2)}, "-4"},
		{"|a, b| a % b", []types.Value{i(-7), i(3)}, "2"},
		{"|a, b| a / b", []types.Value{i(7), i(2)}, "3.5"},
		{"|s| s.upcase + str(len(s))", []types.Value{types.String("abc")}, `"ABC3"`},
		{"|| let m = {a: 1, 'b': 2}; m['c'] = m['a'] + m['b']; m.keys", nil, `["a", "b", "c"]`},
		{"|| let m = {x: 1}; m.get('y', 2) + m.size", nil, "3"},
		{"|| let a = [1, 2]; a.push(3); a[-1] += 10; a", nil, "[1, 2, 13]"},
		{"|xs| let n = 0\nfor x in xs do if x > 2 then break end; n += x end\nn", []types.Value{types.NewArray([]types.Value{i(1), i(2), i(3)})}, "3"},
		{"|| let n = 0; while n < 5 do n += 1; if n == 2 then continue end end; n", nil, "5"},
		{"|x| if x then 'yes' elseif x == nil then 'nil' else 'no' end", []types.Value{types.Nil}, `"nil"`},
		{"|x| x and 1 or 2", []types.Value{types.False}, "2"},
		{"|| let t = 0; for kv in {a: 1, b: 2} do t += kv[1] end; t", nil, "3"},
		{"|| type(1.5) + type(nil) + type([])", nil, `"floatnilarray"`},
		{"|| int('0x10') + int(2.9)", nil, "18"},
		{"|| [1, 2] + [3]", nil, "[1, 2, 3]"},
		{"|| 5.abs + (-2).abs + 2.5.to_i", nil, "9"},
		{"|| range(3).to_a", nil, "[0, 1, 2]"},
		{"|| [1, 'a'].include?('a')", nil, "true"},
		{"|| 'abc'.reverse", nil, `"cba"`},
		{"|| 1 == 1.0", nil, "true"},
		{"|x| let y\ny", []types.Value{i(1)}, "nil"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got, err := callFunc(t, c.src, c.args...)
			require.NoError(t, err)
			assert.Equal(t, c.want, got.String())
		})
	}
}

func TestCallErrors(t *testing.T) {
	cases := []struct {
		src  string
		args []types.Value
		err  string
	}{
		{"|x| x + 'a'", []types.Value{types.Int(1)}, "test:1:7: unsupported binary op: int + string"},
		{"|x| x", nil, "function anonymous accepts 1 argument (0 given)"},
		{"|| fail('boom')", nil, "boom"},
		{"|| 1 // 0", nil, "floored division by zero"},
		{"|| [1][2]", nil, "array index 2 out of range [-1:0]"},
		{"|| 1.nope", nil, "int has no .nope field or method"},
		{"|| 1(2)", nil, "invalid call of non-function (int)"},
		{"|| for x in nil do end", nil, "nil value is not iterable"},
		{"|| let a = [1]; for x in a do a.push(x) end", nil, "cannot append to array during iteration"},
		{"|| {[[]]: 1}", nil, "unhashable type: array"},
		{"|| [] < []", nil, "array < array not implemented"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			_, err := callFunc(t, c.src, c.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.err)

			var ee *machine.EvalError
			assert.True(t, errors.As(err, &ee))
		})
	}
}

func TestLoopClosures(t *testing.T) {
	xs := types.NewArray([]types.Value{types.Int(1), types.Int(2), types.Int(3)})
	cases := []struct {
		src  string
		args []types.Value
		want string
	}{
		{"|xs| let fs = []; for x in xs do fs.push(do x end) end; fs.map(do |f| f() end)", []types.Value{xs}, "[1, 2, 3]"},
		{"|| let fs = []; let i = 0; while i < 3 do let j = i; fs.push(do j end); i += 1 end; fs.map(do |f| f() end)", nil, "[0, 1, 2]"},
		{"|| let fs = []; for x in 1..2 do let y = x; fs.push(do y end); y = y * 10 end; fs.map(do |f| f() end)", nil, "[10, 20]"},
		// declared outside of the loop, the variable is shared
		{"|| let fs = []; let n = 0; for x in 1..3 do n = x; fs.push(do n end) end; fs.map(do |f| f() end)", nil, "[3, 3, 3]"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got, err := callFunc(t, c.src, c.args...)
			require.NoError(t, err)
			assert.Equal(t, c.want, got.String())
		})
	}
}

func TestIntOverflow(t *testing.T) {
	cases := []struct {
		src  string
		args []types.Value
		want string // empty if the call overflows
	}{
		{"|i| i ** 100", []types.Value{types.Int(2)}, ""},
		{"|| 3 ** 40", nil, ""},
		{"|| 3 ** 39", nil, "4052555153018976267"},
		{"|| 2 ** 62", nil, "4611686018427387904"},
		{"|| (-2) ** 63", nil, "-9223372036854775808"},
		{"|| 2 ** 63", nil, ""},
		{"|| 9223372036854775807 + 1", nil, ""},
		{"|| -9223372036854775807 - 2", nil, ""},
		{"|| -9223372036854775807 - 1", nil, "-9223372036854775808"},
		{"|| 3037000500 * 3037000500", nil, ""},
		{"|| 3037000499 * -3037000499", nil, "-9223372030926249001"},
		{"|| (-9223372036854775807 - 1) * -1", nil, ""},
		{"|| (-9223372036854775807 - 1) // -1", nil, ""},
		{"|| (-9223372036854775807 - 1).abs", nil, ""},
		{"|| -(-9223372036854775807 - 1)", nil, ""},
		{"|| 7 % -3", nil, "-2"},
		{"|| 9223372036854775807 % -2", nil, "-1"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got, err := callFunc(t, c.src, c.args...)
			if c.want != "" {
				require.NoError(t, err)
				assert.Equal(t, c.want, got.String())
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrIntOverflow)
			var ee *machine.EvalError
			assert.True(t, errors.As(err, &ee))
		})
	}
}

func TestEvalErrorCallStack(t *testing.T) {
	_, err := callFunc(t, "|| let f = do |x| x.nope end\nf(1)")
	var ee *machine.EvalError
	require.True(t, errors.As(err, &ee))
	require.Len(t, ee.CallStack, 2)
	assert.Equal(t, "test:1:20: int has no .nope field or method", ee.Error())
	assert.Contains(t, ee.Backtrace(), "test:2:2: in anonymous")
}

func TestStepLimit(t *testing.T) {
	fn := compileFunc(t, "|| while true do end")
	th := machine.Thread{MaxSteps: 1000}
	_, err := th.Call(context.Background(), fn, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, machine.ErrStepLimit)
}

func TestCallStackDepth(t *testing.T) {
	fn := compileFunc(t, "|| let f = nil; f = do || f() end; f()")
	th := machine.Thread{MaxCallStackDepth: 50}
	_, err := th.Call(context.Background(), fn, nil)
	assert.ErrorContains(t, err, "call stack depth exceeded (50)")
}

func TestCancel(t *testing.T) {
	fn := compileFunc(t, "|| while true do end")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	var th machine.Thread
	_, err := th.Call(ctx, fn, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the thread can be reused once the call is done
	fn = compileFunc(t, "|| 1")
	v, err := th.Call(context.Background(), fn, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Int(1), v)
}

func TestPrint(t *testing.T) {
	fn := compileFunc(t, "|x| print('x is', x, [x])")
	var buf bytes.Buffer
	th := machine.Thread{Stdout: &buf}
	v, err := th.Call(context.Background(), fn, types.Tuple{types.String("a")})
	require.NoError(t, err)
	assert.Equal(t, types.Nil, v)
	assert.Equal(t, "x is a [\"a\"]\n", buf.String())
}

func TestConcurrentCalls(t *testing.T) {
	fn := compileFunc(t, "|n| (1..n).sum")

	errc := make(chan error, 10)
	for i := 1; i <= 10; i++ {
		go func(n int64) {
			var th machine.Thread
			v, err := th.Call(context.Background(), fn, types.Tuple{types.Int(n)})
			if err == nil && v != types.Int(n*(n+1)/2) {
				err = fmt.Errorf("sum of 1..%d: got %v", n, v)
			}
			errc <- err
		}(int64(i))
	}
	for i := 0; i < 10; i++ {
		assert.NoError(t, <-errc)
	}
}
