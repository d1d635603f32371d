package compiler

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mna/srcfn/lang/token"
)

// This file implements the textual assembly form of a compiled program, used
// to test the machine without going through the parser, and printed by the
// dasm command to inspect the code generated for a function source.
//
// The format (indentation is arbitrary, the order of sections is significant):
//
//	program: "filename"                  # filename is optional
//		names:                             # optional, attribute and universe names
//			len
//		constants:                         # optional
//			string "abc"
//			int    1234
//			float  1.34
//
//	function: NAME <stack> <params> [@L:C] # at least one, the first is top-level
//		locals:                            # optional, parameters first
//			x
//		cells:                             # optional, locals that require a cell
//			x
//		freevars:                          # optional
//			y
//		code:                              # required
//			nop
//			jmp 3                            # jump argument is an instruction index
//			call 2 @1:12                     # position of the instruction if it can fail
//
// Everything after a '#' is a comment.

var sections = map[string]bool{
	"program:":   true,
	"names:":     true,
	"constants:": true,
	"function:":  true,
	"locals:":    true,
	"cells:":     true,
	"freevars:":  true,
	"code:":      true,
}

// Asm loads a compiled program from its assembly form.
func Asm(b []byte) (*Program, error) {
	a := asm{s: bufio.NewScanner(bytes.NewReader(b))}

	a.program(a.next())

	fields := a.next()
	fields = a.list(fields, "names:", func(f []string) {
		a.p.Names = append(a.p.Names, f[0])
	})
	fields = a.constants(fields)
	for a.at(fields, "function:") {
		fields = a.function(fields)
	}

	if a.err == nil {
		switch {
		case len(fields) > 0:
			a.err = fmt.Errorf("unexpected section: %s", fields[0])
		case a.p.Toplevel == nil:
			a.err = errors.New("missing top-level function")
		}
	}
	return a.p, a.err
}

type asm struct {
	s    *bufio.Scanner
	line string // raw text of the current line
	p    *Program
	fn   *Funcode
	err  error
}

// at returns true if fields is the start of the section.
func (a *asm) at(fields []string, section string) bool {
	return a.err == nil && len(fields) > 0 && strings.EqualFold(fields[0], section)
}

// list calls fn for each line of the optional section and returns the
// fields of the line that follows it.
func (a *asm) list(fields []string, section string, fn func([]string)) []string {
	if !a.at(fields, section) {
		return fields
	}
	for fields = a.next(); len(fields) > 0 && !sections[strings.ToLower(fields[0])]; fields = a.next() {
		fn(fields)
		if a.err != nil {
			return fields
		}
	}
	return fields
}

func (a *asm) program(fields []string) {
	if a.err != nil {
		return
	}
	if !a.at(fields, "program:") {
		msg := "expected program section"
		if len(fields) > 0 {
			msg += ", found " + fields[0]
		}
		a.err = errors.New(msg)
		return
	}

	a.p = new(Program)
	if len(fields) > 1 {
		_, rest, _ := strings.Cut(a.line, ":")
		a.p.Filename = a.quoted(strings.TrimSpace(rest), "program filename")
	}
}

var rxStringConst = regexp.MustCompile(`^\s*string\s+(.+)$`)

func (a *asm) constants(fields []string) []string {
	return a.list(fields, "constants:", func(f []string) {
		// string values may contain spaces, take them from the raw line
		m := rxStringConst.FindStringSubmatch(a.line)
		if m == nil && len(f) != 2 {
			a.err = fmt.Errorf("invalid constant: expected type and value, got %d fields", len(f))
			return
		}

		var c any
		switch f[0] {
		case "int":
			c = a.int(f[1])
		case "float":
			v, err := strconv.ParseFloat(f[1], 64)
			if err != nil {
				a.err = fmt.Errorf("invalid float: %s: %w", f[1], err)
				return
			}
			c = v
		case "string":
			c = a.quoted(m[1], "string")
		default:
			a.err = fmt.Errorf("invalid constant type: %s", f[0])
			return
		}
		a.p.Constants = append(a.p.Constants, c)
	})
}

func (a *asm) function(fields []string) []string {
	if len(fields) < 4 || len(fields) > 5 {
		a.err = fmt.Errorf("invalid function: want 4 or 5 fields: 'function: NAME <stack> <params> [@L:C]', got %d fields (%s)",
			len(fields), strings.Join(fields, " "))
		return a.next()
	}

	fn := &Funcode{
		Prog:      a.p,
		Name:      fields[1],
		MaxStack:  int(a.int(fields[2])),
		NumParams: int(a.int(fields[3])),
	}
	if len(fields) == 5 {
		fn.Pos = a.pos(fields[4])
	}
	a.fn = fn

	fields = a.next()
	fields = a.list(fields, "locals:", func(f []string) {
		fn.Locals = append(fn.Locals, Binding{Name: f[0]})
	})
	fields = a.list(fields, "cells:", func(f []string) {
		for i, l := range fn.Locals {
			if l.Name == f[0] {
				fn.Cells = append(fn.Cells, i)
				return
			}
		}
		a.err = fmt.Errorf("invalid cell: %q is not an existing local", f[0])
	})
	fields = a.list(fields, "freevars:", func(f []string) {
		fn.Freevars = append(fn.Freevars, Binding{Name: f[0]})
	})
	fields = a.code(fields)
	a.fn = nil

	if a.p.Toplevel == nil {
		a.p.Toplevel = fn
	} else {
		a.p.Functions = append(a.p.Functions, fn)
	}
	return fields
}

// code parses the code section of the current function, translating the
// jump indexes to addresses.
func (a *asm) code(fields []string) []string {
	if a.err != nil {
		return fields
	}
	if !a.at(fields, "code:") {
		msg := "expected code section"
		if len(fields) > 0 {
			msg += ", found " + fields[0]
		}
		a.err = errors.New(msg)
		return fields
	}

	var insns []insn
	var addrs []uint32
	var addr uint32
	fields = a.list(fields, "code:", func(f []string) {
		var pos token.Pos
		if last := f[len(f)-1]; len(f) > 1 && strings.HasPrefix(last, "@") {
			pos = a.pos(last)
			f = f[:len(f)-1]
		}

		op, ok := opcodesByName[strings.ToLower(f[0])]
		if !ok {
			a.err = fmt.Errorf("invalid opcode: %s", f[0])
			return
		}

		var arg uint32
		switch {
		case op >= OpcodeArgMin && len(f) != 2:
			a.err = fmt.Errorf("expected an argument for opcode %s, got %d fields", f[0], len(f))
			return
		case op >= OpcodeArgMin:
			arg = uint32(a.uint(f[1]))
		case len(f) != 1:
			a.err = fmt.Errorf("expected no argument for opcode %s, got %d fields", f[0], len(f))
			return
		}
		insns = append(insns, insn{op: op, arg: arg, pos: pos})
		addrs = append(addrs, addr)
		addr += uint32(encodedSize(op, arg))
	})
	if a.err != nil {
		return fields
	}

	fn := a.fn
	for i, in := range insns {
		if isJump(in.op) {
			if in.arg >= uint32(len(addrs)) {
				a.err = fmt.Errorf("invalid jump index %d: instruction %s at index %d", in.arg, in.op, i)
				return fields
			}
			in.arg = addrs[in.arg]
		}
		if !in.pos.Unknown() {
			fn.pcpos = append(fn.pcpos, pcPos{pc: uint32(len(fn.Code)), pos: in.pos})
		}
		fn.Code = encodeInsn(fn.Code, in.op, in.arg)
	}
	return fields
}

func (a *asm) quoted(s, what string) string {
	qs, err := strconv.QuotedPrefix(s)
	if err == nil {
		s, err = strconv.Unquote(qs)
	}
	if err != nil {
		a.err = fmt.Errorf("invalid %s: %q: %w", what, s, err)
	}
	return s
}

// pos parses a position in the @L:C form.
func (a *asm) pos(s string) token.Pos {
	ls, cs, ok := strings.Cut(strings.TrimPrefix(s, "@"), ":")
	if ok && strings.HasPrefix(s, "@") {
		l, lerr := strconv.Atoi(ls)
		c, cerr := strconv.Atoi(cs)
		if lerr == nil && cerr == nil && l > 0 && l <= token.MaxLines && c > 0 && c <= token.MaxCols {
			return token.MakePos(l, c)
		}
	}
	a.err = fmt.Errorf("invalid position: %s", s)
	return token.NoPos
}

func (a *asm) int(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		a.err = fmt.Errorf("invalid integer: %s: %w", s, err)
	}
	return i
}

func (a *asm) uint(s string) uint64 {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		a.err = fmt.Errorf("invalid unsigned integer: %s: %w", s, err)
	}
	return u
}

// next returns the fields of the next line that is not empty once comments
// are removed.
func (a *asm) next() []string {
	a.line = ""
	if a.err != nil {
		return nil
	}
	for a.s.Scan() {
		line := a.s.Text()
		fields := strings.Fields(line)
		for i, f := range fields {
			if strings.HasPrefix(f, "#") {
				fields = fields[:i]
				break
			}
		}
		if len(fields) > 0 {
			a.line = line
			return fields
		}
	}
	a.err = a.s.Err()
	return nil
}

// Dasm writes a compiled program in its assembly form.
func Dasm(p *Program) ([]byte, error) {
	d := dasm{p: p}
	d.program()
	d.write("\n")

	if p.Toplevel == nil {
		return d.buf.Bytes(), errors.New("missing top-level function")
	}
	d.function(p.Toplevel)
	for _, fn := range p.Functions {
		d.write("\n")
		d.function(fn)
	}
	return d.buf.Bytes(), d.err
}

type dasm struct {
	p   *Program
	buf bytes.Buffer
	err error
}

func (d *dasm) program() {
	if d.p.Filename != "" {
		d.writef("program: %q\n", d.p.Filename)
	} else {
		d.write("program:\n")
	}
	writeList(d, "names", d.p.Names, func(s string) string { return s })

	if len(d.p.Constants) == 0 {
		return
	}
	d.write("\tconstants:\n")
	for i, c := range d.p.Constants {
		switch c := c.(type) {
		case string:
			d.writef("\t\tstring\t%q\t# %03d\n", c, i)
		case int64:
			d.writef("\t\tint\t%d\t# %03d\n", c, i)
		case float64:
			d.writef("\t\tfloat\t%g\t# %03d\n", c, i)
		default:
			d.err = fmt.Errorf("unsupported constant type: %T", c)
			return
		}
	}
}

func (d *dasm) function(fn *Funcode) {
	if d.err != nil {
		return
	}

	d.writef("function: %s %d %d%s\n", fn.Name, fn.MaxStack, fn.NumParams, fmtPos("\t", fn.Pos))
	name := func(b Binding) string { return b.Name }
	writeList(d, "locals", fn.Locals, name)
	cells := make([]Binding, len(fn.Cells))
	for i, c := range fn.Cells {
		cells[i] = fn.Locals[c]
	}
	writeList(d, "cells", cells, name)
	writeList(d, "freevars", fn.Freevars, name)

	insns, err := decodeInsns(fn)
	if err != nil {
		d.err = err
		return
	}
	if len(insns) == 0 {
		return
	}

	// the code is printed with jump targets as instruction indexes
	index := make(map[uint32]int, len(insns))
	for i, in := range insns {
		index[in.addr] = i
	}
	positions := make(map[uint32]token.Pos, len(fn.pcpos))
	for _, pp := range fn.pcpos {
		positions[pp.pc] = pp.pos
	}

	d.write("\tcode:\n")
	for i, in := range insns {
		pos := fmtPos("\t", positions[in.addr])
		if in.op < OpcodeArgMin {
			d.writef("\t\t%s%s\t# %03d\n", in.op, pos, i)
			continue
		}
		arg := in.arg
		if isJump(in.op) {
			ix, ok := index[arg]
			if !ok {
				d.err = fmt.Errorf("invalid jump address %d in function %s, instruction %d (%s)", arg, fn.Name, i, in.op)
				return
			}
			arg = uint32(ix)
		}
		d.writef("\t\t%s %03d%s\t# %03d\n", in.op, arg, pos, i)
	}
}

// writeList writes the optional section listing the names of the values.
func writeList[T any](d *dasm, section string, list []T, name func(T) string) {
	if len(list) == 0 {
		return
	}
	d.writef("\t%s:\n", section)
	for i, v := range list {
		d.writef("\t\t%s\t# %03d\n", name(v), i)
	}
}

type decodedInsn struct {
	insn
	addr uint32
}

// decodeInsns decodes the code of fn.
func decodeInsns(fn *Funcode) ([]decodedInsn, error) {
	var insns []decodedInsn
	for addr := 0; addr < len(fn.Code); {
		op := Opcode(fn.Code[addr])
		size := 1

		var arg uint32
		if op >= OpcodeArgMin {
			v, n := binary.Uvarint(fn.Code[addr+1:])
			if n <= 0 || v > math.MaxUint32 {
				return nil, fmt.Errorf("invalid uvarint argument in function %s code at index %d (%s)", fn.Name, addr, op)
			}
			arg = uint32(v)
			if isJump(op) && n < 4 {
				n = 4
			}
			size += n
		}
		insns = append(insns, decodedInsn{insn: insn{op: op, arg: arg}, addr: uint32(addr)})
		addr += size
	}
	return insns, nil
}

// fmtPos returns the @L:C form of pos preceded by sep, or an empty string if
// pos is unknown.
func fmtPos(sep string, pos token.Pos) string {
	if pos.Unknown() {
		return ""
	}
	l, c := pos.LineCol()
	return fmt.Sprintf("%s@%d:%d", sep, l, c)
}

func (d *dasm) writef(s string, args ...any) {
	d.write(fmt.Sprintf(s, args...))
}

func (d *dasm) write(s string) {
	if d.err != nil {
		return
	}
	_, d.err = d.buf.WriteString(s)
}
