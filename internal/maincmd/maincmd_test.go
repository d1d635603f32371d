package maincmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMain(t *testing.T, args ...string) (code mainer.ExitCode, stdout, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader(""),
		Stdout: &out,
		Stderr: &errOut,
	}
	c := Cmd{BuildVersion: "1.2.3", BuildDate: "2024-01-02"}
	code = c.Main(append([]string{binName}, args...), stdio)
	return code, out.String(), errOut.String()
}

func newTestCmd(t *testing.T) (*Cmd, mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader(""),
		Stdout: &out,
		Stderr: &errOut,
	}
	c := &Cmd{BuildVersion: "1.2.3", flags: map[string]bool{}}
	require.NoError(t, c.setup(stdio))
	t.Cleanup(c.teardown)
	return c, stdio, &out, &errOut
}

func TestMainVersion(t *testing.T) {
	code, out, _ := runMain(t, "--version")
	assert.Equal(t, mainer.Success, code)
	assert.Equal(t, "srcfn 1.2.3 2024-01-02\n", out)
}

func TestMainHelp(t *testing.T) {
	code, out, _ := runMain(t, "--help")
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out, "usage: srcfn")
	assert.Contains(t, out, "binary, json, yaml")
}

func TestMainInvalidArgs(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{nil, "no command specified"},
		{[]string{"nope"}, "unknown command: nope"},
		{[]string{"parse"}, "parse: at least one file must be provided"},
		{[]string{"dasm"}, "dasm: at least one file must be provided"},
		{[]string{"call"}, "call: a function source must be provided"},
		{[]string{"serialize", "|i| i", "|j| j"}, "serialize: exactly one function source must be provided"},
		{[]string{"deserialize"}, "deserialize: a file must be provided"},
		{[]string{"deserialize", "a", "b"}, "deserialize: arguments are only valid with the 'call' flag"},
		{[]string{"modules", "x"}, "modules: no argument expected"},
	}
	for _, c := range cases {
		t.Run(c.want, func(t *testing.T) {
			code, _, errOut := runMain(t, c.args...)
			assert.Equal(t, mainer.InvalidArgs, code)
			assert.Contains(t, errOut, c.want)
		})
	}
}

func TestMainCall(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"|i| i ** 2", "3"}, "9\n"},
		{[]string{"|xs| xs.select(do |i| (i % 3).zero? end)", "[1,2,3,4,5,6,7,8,9,10]"}, "[3,6,9]\n"},
		{[]string{"(1..10).select(do |i| (i % 3).zero? end)"}, "[3,6,9]\n"},
		{[]string{"|m| m['a'] + 1", `{"a": 41}`}, "42\n"},
		{[]string{"|s| s.upcase", `"abc"`}, "\"ABC\"\n"},
		{[]string{"|x| x / 2", "3"}, "1.5\n"},
		{[]string{"nil"}, "null\n"},
	}
	for _, c := range cases {
		t.Run(c.args[0], func(t *testing.T) {
			code, out, errOut := runMain(t, append([]string{"call"}, c.args...)...)
			assert.Equal(t, mainer.Success, code, errOut)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestMainCallErrors(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"not valid (( syntax"}, "compile error: srcfn:1:"},
		{[]string{"|i| i + 'a'", "1"}, "srcfn:1:7: unsupported binary op: int + string"},
		{[]string{"|i| i", "nope"}, "argument 1: invalid character"},
		{[]string{"|i| i", "1 2"}, "argument 1: expected a single JSON value"},
		{[]string{"|i| i"}, "function anonymous accepts 1 argument (0 given)"},
		{[]string{"let f = do fail('boom') end; f()"}, "boom"},
	}
	for _, c := range cases {
		t.Run(c.want, func(t *testing.T) {
			code, out, errOut := runMain(t, append([]string{"call"}, c.args...)...)
			assert.Equal(t, mainer.Failure, code)
			assert.Empty(t, out)
			assert.Contains(t, errOut, c.want)
		})
	}
}

func TestMainSerializeRoundTrip(t *testing.T) {
	code, out, errOut := runMain(t, "serialize", "|i| i ** 2")
	require.Equal(t, mainer.Success, code, errOut)
	assert.Equal(t, "{\"source\":\"|i| i ** 2\"}\n", out)

	file := filepath.Join(t.TempDir(), "fn.json")
	require.NoError(t, os.WriteFile(file, []byte(out), 0o600))

	code, out, errOut = runMain(t, "deserialize", file)
	require.Equal(t, mainer.Success, code, errOut)
	assert.Equal(t, "|i| i ** 2\n", out)
}

func TestMainDeserializeInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"source": "|i| i +"}`), 0o600))
	missing := filepath.Join(dir, "missing.json")
	require.NoError(t, os.WriteFile(missing, []byte(`{}`), 0o600))

	code, _, errOut := runMain(t, "deserialize", bad)
	assert.Equal(t, mainer.Failure, code)
	assert.Contains(t, errOut, "compile error")

	code, _, errOut = runMain(t, "deserialize", missing)
	assert.Equal(t, mainer.Failure, code)
	assert.Contains(t, errOut, "missing source field")

	code, _, errOut = runMain(t, "deserialize", filepath.Join(dir, "nope.json"))
	assert.Equal(t, mainer.Failure, code)
	assert.Contains(t, errOut, "nope.json")
}

func TestDeserializeCall(t *testing.T) {
	c, stdio, out, errOut := newTestCmd(t)
	c.cfg.Format = "yaml"
	c.DoCall = true

	file := filepath.Join(t.TempDir(), "fn.yaml")
	require.NoError(t, os.WriteFile(file, []byte("source: '|i| i ** 2'\n"), 0o600))

	err := c.Deserialize(context.Background(), stdio, []string{file, "4"})
	require.NoError(t, err, errOut.String())
	assert.Equal(t, "16\n", out.String())
}

func TestSerializeBinary(t *testing.T) {
	c, stdio, out, _ := newTestCmd(t)
	c.cfg.Format = "binary"

	require.NoError(t, c.Serialize(context.Background(), stdio, []string{"|i| i"}))
	assert.Equal(t, "SRCF\x01\x05|i| i", out.String())
}

func TestMainDasm(t *testing.T) {
	file := filepath.Join(t.TempDir(), "square.srcfn")
	require.NoError(t, os.WriteFile(file, []byte("|i| i ** 2"), 0o600))

	code, out, errOut := runMain(t, "dasm", file)
	require.Equal(t, mainer.Success, code, errOut)
	assert.Contains(t, out, "function: anonymous 2 1\t@1:1\n")
	assert.Contains(t, out, "\t\tstarstar\t@1:7\t# 002\n")
}

func TestMainTokenize(t *testing.T) {
	file := filepath.Join(t.TempDir(), "square.srcfn")
	require.NoError(t, os.WriteFile(file, []byte("|i| i ** 2"), 0o600))

	code, out, errOut := runMain(t, "tokenize", file)
	require.Equal(t, mainer.Success, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], file+":1:1: "), lines[0])
	assert.True(t, strings.HasSuffix(lines[5], " 2"), lines[5])
}

func TestMainModules(t *testing.T) {
	code, out, errOut := runMain(t, "modules")
	require.Equal(t, mainer.Success, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "srcfn "), lines[0])
	assert.Contains(t, lines[0], "1.2.3")
	assert.True(t, strings.HasPrefix(lines[1], "srcfn/bytecode "), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "srcfn/serial "), lines[2])
	assert.Contains(t, lines[2], "binary,json,yaml")
}

func TestMainInvalidConfig(t *testing.T) {
	t.Setenv("SRCFN_CACHE_SIZE", "0")
	code, _, errOut := runMain(t, "call", "|i| i", "1")
	assert.Equal(t, mainer.InvalidArgs, code)
	assert.Contains(t, errOut, "invalid SRCFN_CACHE_SIZE: 0")
}

func TestMainMaxStepsFromEnv(t *testing.T) {
	t.Setenv("SRCFN_MAX_STEPS", "100")
	code, _, errOut := runMain(t, "call", "while true do end")
	assert.Equal(t, mainer.Failure, code)
	assert.Contains(t, errOut, "step limit")
}

func TestReplSession(t *testing.T) {
	c, stdio, out, errOut := newTestCmd(t)
	sess := &replSession{cmd: c, stdio: stdio}
	ctx := context.Background()

	assert.False(t, sess.eval(ctx, ":call 1"))
	assert.Equal(t, "no function defined\n", errOut.String())
	errOut.Reset()

	assert.False(t, sess.eval(ctx, "|i| i ** 2"))
	assert.False(t, sess.eval(ctx, ":call 3"))
	assert.Equal(t, "9\n", out.String())
	out.Reset()

	// invalid source leaves the function unchanged
	assert.False(t, sess.eval(ctx, "|i| i +"))
	assert.Contains(t, errOut.String(), "compile error")
	errOut.Reset()
	assert.False(t, sess.eval(ctx, ":source"))
	assert.Equal(t, "|i| i ** 2\n", out.String())
	out.Reset()

	file := filepath.Join(t.TempDir(), "fn.json")
	assert.False(t, sess.eval(ctx, ":save "+file))
	assert.Empty(t, errOut.String())
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, `{"source":"|i| i ** 2"}`, string(b))

	assert.False(t, sess.eval(ctx, "|a, b| a + b"))
	assert.False(t, sess.eval(ctx, ":call 1 [2]"))
	assert.Contains(t, errOut.String(), "unsupported binary op: int + array")
	errOut.Reset()

	assert.False(t, sess.eval(ctx, ":load "+file))
	assert.Equal(t, "|i| i ** 2\n", out.String())
	out.Reset()
	assert.False(t, sess.eval(ctx, ":call 4"))
	assert.Equal(t, "16\n", out.String())

	assert.False(t, sess.eval(ctx, ":nope"))
	assert.Contains(t, errOut.String(), "unknown command: nope")

	assert.True(t, sess.eval(ctx, ":quit"))
}
