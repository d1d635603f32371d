package compiler_test

import (
	"testing"

	"github.com/mna/srcfn/lang/compiler"
	"github.com/mna/srcfn/lang/parser"
	"github.com/mna/srcfn/lang/resolver"
	"github.com/mna/srcfn/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isTestUniverse(name string) bool {
	return name == "len" || name == "print"
}

func compileFunc(t *testing.T, src string) *compiler.Program {
	t.Helper()
	ch, err := parser.ParseFunc(0, "test", src)
	require.NoError(t, err)
	require.NoError(t, resolver.ResolveChunk(ch, 0, isTestUniverse))
	return compiler.CompileChunk(ch)
}

func TestCompileSquare(t *testing.T) {
	p := compileFunc(t, "|i| i ** 2")
	b, err := compiler.Dasm(p)
	require.NoError(t, err)

	want := "program: \"test\"\n" +
		"\tconstants:\n" +
		"\t\tint\t2\t# 000\n" +
		"\n" +
		"function: toplevel 1 0\t@1:1\n" +
		"\tcode:\n" +
		"\t\tmaketuple 000\t# 000\n" +
		"\t\tmakefunc 000\t# 001\n" +
		"\t\treturn\t# 002\n" +
		"\n" +
		"function: anonymous 2 1\t@1:1\n" +
		"\tlocals:\n" +
		"\t\ti\t# 000\n" +
		"\tcode:\n" +
		"\t\tlocal 000\t@1:5\t# 000\n" +
		"\t\tconstant 000\t# 001\n" +
		"\t\tstarstar\t@1:7\t# 002\n" +
		"\t\treturn\t# 003\n"
	assert.Equal(t, want, string(b))

	// LOCAL 0 (2 bytes), CONSTANT 0 (2 bytes), STARSTAR at pc 4
	fn := p.Functions[0]
	assert.Equal(t, token.MakePos(1, 7), fn.Position(4))
	assert.Equal(t, token.MakePos(1, 5), fn.Position(0))
}

func TestCompileClosure(t *testing.T) {
	p := compileFunc(t, "|n| let f = do |x| x + n end; f(1)")
	require.Len(t, p.Functions, 2)

	inner, outer := p.Functions[0], p.Functions[1]
	assert.Equal(t, 2, outer.MaxStack)
	assert.Equal(t, []int{0}, outer.Cells)
	require.Len(t, outer.Locals, 2)
	assert.Equal(t, "n", outer.Locals[0].Name)
	assert.Equal(t, "f", outer.Locals[1].Name)

	require.Len(t, inner.Freevars, 1)
	assert.Equal(t, "n", inner.Freevars[0].Name)
	assert.Equal(t, 1, inner.NumParams)

	assert.Equal(t, []byte{
		byte(compiler.LOCAL), 0,
		byte(compiler.MAKETUPLE), 1,
		byte(compiler.MAKEFUNC), 0,
		byte(compiler.SETLOCAL), 1,
		byte(compiler.LOCAL), 1,
		byte(compiler.CONSTANT), 0,
		byte(compiler.CALL), 1,
		byte(compiler.RETURN),
	}, outer.Code)
	assert.Equal(t, []byte{
		byte(compiler.LOCAL), 0,
		byte(compiler.FREECELL), 0,
		byte(compiler.PLUS),
		byte(compiler.RETURN),
	}, inner.Code)
}

func TestCompileImplicitReturn(t *testing.T) {
	cases := []struct {
		desc string
		src  string
		want compiler.Opcode
	}{
		{"expression", "|x| x", compiler.LOCAL},
		{"declaration", "|x| let y = x", compiler.NIL},
		{"explicit", "|x| return x + 1", compiler.PLUS},
		{"loop", "|x| while x do x = false end", compiler.NIL},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			p := compileFunc(t, c.src)
			fn := p.Functions[len(p.Functions)-1]
			insns := decode(t, fn.Code)
			assert.Contains(t, insns, compiler.RETURN)
			assert.Contains(t, insns, c.want)
		})
	}
}

func TestCompileIfBranchesReturn(t *testing.T) {
	p := compileFunc(t, "|x| if x then 1 else 2 end")
	fn := p.Functions[len(p.Functions)-1]
	insns := decode(t, fn.Code)

	var returns int
	for _, op := range insns {
		if op == compiler.RETURN {
			returns++
		}
	}
	// each branch returns, the implicit nil return is unreachable
	assert.Equal(t, 2, returns)
	assert.NotContains(t, insns, compiler.NIL)
}

func TestCompileLoops(t *testing.T) {
	p := compileFunc(t, "|xs| let n = 0\nfor x in xs do if x then break end; n += x end\nn")
	fn := p.Functions[len(p.Functions)-1]
	insns := decode(t, fn.Code)
	assert.Contains(t, insns, compiler.ITERPUSH)
	assert.Contains(t, insns, compiler.ITERJMP)
	assert.Contains(t, insns, compiler.ITERPOP)
	assert.Contains(t, insns, compiler.JMP)
}

func TestAsmRoundtrip(t *testing.T) {
	srcs := []string{
		"|i| i ** 2",
		"|i| (i % 3).zero?",
		"|a, b| let m = {a: a, [b]: [1, 2.5, 'x y']}; m[b][0] += 1; m",
		"|n| let f = do |x| x + n end; f(1)",
		"|xs| let n = 0\nfor x in xs do if x > 1 and x < 10 or not x then continue end; n += x end\nn",
	}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			p := compileFunc(t, src)
			b1, err := compiler.Dasm(p)
			require.NoError(t, err)

			p2, err := compiler.Asm(b1)
			require.NoError(t, err)
			b2, err := compiler.Dasm(p2)
			require.NoError(t, err)
			assert.Equal(t, string(b1), string(b2))

			require.Len(t, p2.Functions, len(p.Functions))
			assert.Equal(t, p.Filename, p2.Filename)
			for i, fn := range p.Functions {
				assert.Equal(t, fn.Code, p2.Functions[i].Code)
				for pc := range fn.Code {
					want, got := fn.Position(uint32(pc)), p2.Functions[i].Position(uint32(pc))
					if want.Unknown() {
						assert.True(t, got.Unknown(), "pc %d", pc)
						continue
					}
					assert.Equal(t, want, got, "pc %d", pc)
				}
			}
		})
	}
}

// decode returns the opcodes of the encoded code.
func decode(t *testing.T, code []byte) []compiler.Opcode {
	t.Helper()

	var ops []compiler.Opcode
	for pc := 0; pc < len(code); {
		op := compiler.Opcode(code[pc])
		ops = append(ops, op)
		pc++
		if op >= compiler.OpcodeArgMin {
			if op == compiler.JMP || op == compiler.CJMP || op == compiler.ITERJMP {
				pc += 4
				continue
			}
			for code[pc] >= 0x80 {
				pc++
			}
			pc++
		}
	}
	return ops
}
