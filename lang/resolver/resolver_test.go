package resolver_test

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/mna/srcfn/internal/filetest"
	"github.com/mna/srcfn/internal/maincmd"
	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/parser"
	"github.com/mna/srcfn/lang/resolver"
	"github.com/mna/srcfn/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpdateResolverTests = flag.Bool("test.update-resolver-tests", false, "If set, replace expected resolver test results with actual results.")

func TestResolver(t *testing.T) {
	ctx := context.Background()

	g := filetest.Golden{
		SrcDir:    filepath.Join("testdata", "in"),
		ResultDir: filepath.Join("testdata", "out"),
		Ext:       ".srcfn",
		Update:    testUpdateResolverTests,
	}
	g.Run(t, func(t *testing.T, stdio mainer.Stdio, file string) {
		// the error is printed to stderr, which is compared with the golden file
		_ = maincmd.ResolveFiles(ctx, stdio, 0, resolver.NameBlocks,
			token.PosLineCol, "%#v", file)
	})
}

func isTestUniverse(name string) bool {
	return name == "len" || name == "print"
}

func resolveFunc(t *testing.T, src string) (*ast.FuncExpr, error) {
	t.Helper()
	ch, err := parser.ParseFunc(0, "test", src)
	require.NoError(t, err)
	err = resolver.ResolveChunk(ch, 0, isTestUniverse)
	fn := ast.FuncOf(ch)
	require.NotNil(t, fn)
	return fn, err
}

func TestResolveLocals(t *testing.T) {
	fn, err := resolveFunc(t, "|a, b| let c = a + b\nfor x in c do print(x) end\nc")
	require.NoError(t, err)

	f := fn.Function.(*resolver.Function)
	assert.Equal(t, 2, f.NumParams)
	require.Len(t, f.Locals, 4)
	names := make([]string, 0, len(f.Locals))
	for _, l := range f.Locals {
		names = append(names, l.Decl.Lit)
		assert.Equal(t, resolver.Local, l.Scope)
	}
	assert.Equal(t, []string{"a", "b", "c", "x"}, names)
	assert.Empty(t, f.FreeVars)

	last := fn.Body.Stmts[len(fn.Body.Stmts)-1].(*ast.ExprStmt)
	bdg := last.Expr.(*ast.IdentExpr).Binding.(*resolver.Binding)
	assert.Equal(t, resolver.Local, bdg.Scope)
	assert.Equal(t, 2, bdg.Index)
}

func TestResolveClosures(t *testing.T) {
	fn, err := resolveFunc(t, "|n| do || do || n end end")
	require.NoError(t, err)

	outer := fn.Function.(*resolver.Function)
	require.Len(t, outer.Locals, 1)
	assert.Equal(t, resolver.Cell, outer.Locals[0].Scope)

	mid := fn.Body.Stmts[0].(*ast.ExprStmt).Expr.(*ast.FuncExpr)
	midFn := mid.Function.(*resolver.Function)
	require.Len(t, midFn.FreeVars, 1)
	assert.Same(t, outer.Locals[0], midFn.FreeVars[0])

	inner := mid.Body.Stmts[0].(*ast.ExprStmt).Expr.(*ast.FuncExpr)
	innerFn := inner.Function.(*resolver.Function)
	require.Len(t, innerFn.FreeVars, 1)
	assert.Equal(t, resolver.Free, innerFn.FreeVars[0].Scope)

	use := inner.Body.Stmts[0].(*ast.ExprStmt).Expr.(*ast.IdentExpr)
	bdg := use.Binding.(*resolver.Binding)
	assert.Equal(t, resolver.Free, bdg.Scope)
	assert.Equal(t, 0, bdg.Index)
}

func TestResolveShadowing(t *testing.T) {
	fn, err := resolveFunc(t, "|x| if x then let x = 1; x end")
	require.NoError(t, err)
	f := fn.Function.(*resolver.Function)
	require.Len(t, f.Locals, 2)

	ifst := fn.Body.Stmts[0].(*ast.IfStmt)
	use := ifst.True.Stmts[1].(*ast.ExprStmt).Expr.(*ast.IdentExpr)
	assert.Same(t, f.Locals[1], use.Binding)
}

func TestResolveErrors(t *testing.T) {
	cases := []struct {
		src string
		err string
	}{
		{"|a| b", "test:1:5: undefined: b"},
		{"|a| let a = 1; let a = 2", "already declared in this block: a"},
		{"|a, a| a", "already declared in this block: a"},
		{"break", "invalid break outside a loop"},
		{"while true do do || continue end end", "invalid continue outside a loop"},
		{"len = 1", "cannot assign to universal: len"},
		{"x += 1", "undefined: x"},
		{"let x = x", "undefined: x"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			_, err := resolveFunc(t, c.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.err)
		})
	}
}

func TestResolveUniverse(t *testing.T) {
	fn, err := resolveFunc(t, "|s| print(len(s))")
	require.NoError(t, err)

	call := fn.Body.Stmts[0].(*ast.ExprStmt).Expr.(*ast.CallExpr)
	bdg := call.Fn.(*ast.IdentExpr).Binding.(*resolver.Binding)
	assert.Equal(t, resolver.Universal, bdg.Scope)
	assert.Equal(t, "universal", bdg.String())
}
