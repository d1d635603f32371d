package compiler_test

import (
	"testing"

	"github.com/mna/srcfn/lang/compiler"
	"github.com/stretchr/testify/require"
)

func TestAsm(t *testing.T) {
	cases := []struct {
		desc string
		in   string
		err  string // error "contains" this err string, no error if empty
	}{
		{"empty", ``, "expected program section"},
		{"not program", `function:`, "expected program section"},
		{"program only", `program: "foo bar +baz"`, "missing top-level function"},
		{"invalid filename", `program: foo`, "invalid program filename"},

		{"invalid function", `
				program:
					function: MissingNumArgs
						code:
			`, "invalid function: want 4 or 5 fields"},

		{"minimally valid", `
				program:
					function: Top 0 0
						code:
			`, ""},

		{"missing code", `
				program:
					function: Top 0 0
			`, "expected code section"},

		{"missing code followed by function", `
				program:
					function: Top 0 0
					function: Top 0 0
						code:
			`, "expected code section"},

		{"extra unknown section", `
				program:
					function: Top 0 0
						code:
				locals:
				`, "unexpected section: locals:"},

		{"invalid opcode", `
				program:
					function: Top 0 0
						code:
							foobar
				`, "invalid opcode: foobar"},

		{"missing opcode arg", `
				program:
					function: Top 0 0
						code:
							JMP
				`, "expected an argument for opcode JMP"},

		{"extra opcode arg", `
				program:
					function: Top 0 0
						code:
							JMP 1 2
				`, "expected an argument for opcode JMP, got 3 fields"},

		{"unexpected opcode arg", `
				program:
					function: Top 0 0
						code:
							NOP 1
				`, "expected no argument for opcode NOP"},

		{"invalid jump address", `
				program:
					function: Top 0 0
						code:
							NOP
							JMP 2
				`, "invalid jump index 2"},

		{"invalid cell", `
				program:
					function: Top 0 0
						locals:
							x
							y
						cells:
							z
				`, "invalid cell"},

		{"invalid constant number of fields", `
				program:
					constants:
						123
				`, "invalid constant: expected type and value"},

		{"invalid constant type", `
				program:
					constants:
						foo 123
				`, "invalid constant type"},

		{"invalid integer constant", `
				program:
					constants:
						int abc
				`, "invalid integer"},

		{"invalid float constant", `
				program:
					constants:
						float abc
				`, "invalid float"},

		{"invalid string constant", `
				program:
					constants:
						string "a'
				`, "invalid string"},

		{"invalid function position", `
				program:
					function: Top 0 0 1:2
						code:
				`, "invalid position: 1:2"},

		{"invalid instruction position", `
				program:
					function: Top 1 0
						code:
							true @0:3
				`, "invalid position: @0:3"},

		{"positions", `
				program: "test"
					function: Top 1 0 @1:1
						code:
							true @1:3
							return
				`, ""},

		{"maximally valid", `
				program:
					names:
						name
						age
					constants:
						string "abc"
						int 1234
						float 3.1415

					function: Top 1 0
						locals:
							z
						cells:
							z
						code:
							NOP

					function: Nested 2 1
						locals:
							x
							y
						cells:
							x
						freevars:
							z
						code:
							TRUE
							DUP
							FALSE
							NOP
							JMP 1

			`, ""},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			_, err := compiler.Asm([]byte(c.in))
			if c.err == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, c.err)
		})
	}
}

func TestDasm(t *testing.T) {
	cases := []struct {
		desc string
		p    compiler.Program
		err  string // error "contains" this err string, no error if empty
	}{
		{"empty", compiler.Program{}, "missing top-level function"},

		{"invalid constant type", compiler.Program{
			Toplevel:  &compiler.Funcode{},
			Constants: []any{true},
		}, "unsupported constant type: bool"},

		{"invalid opcode argument", compiler.Program{
			Toplevel: &compiler.Funcode{
				Code: []byte{byte(compiler.JMP), '\xff', '\xff', '\xff', '\xff', '\xff', '\x00'},
			},
		}, "invalid uvarint argument"},

		{"invalid jump", compiler.Program{
			Toplevel: &compiler.Funcode{
				Code: []byte{byte(compiler.JMP), '\x02', '\x00', '\x00', '\x00', byte(compiler.NOP)},
			},
		}, "invalid jump address"},

		{"valid code", compiler.Program{
			Toplevel: &compiler.Funcode{
				Code: []byte{byte(compiler.NOP), byte(compiler.JMP), '\x06', '\x00', '\x00', '\x00', byte(compiler.NOP)},
			},
		}, ""},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			p := c.p
			_, err := compiler.Dasm(&p)
			if c.err == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, c.err)
		})
	}
}
