// Much of the compiler package is adapted from the Starlark source code:
// https://github.com/google/starlark-go/tree/ee8ed142361c69d52fe8e9fb5e311d2a0a7c02de
//
// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compiler takes a parsed and resolved AST and compiles it to bytecode
// that can be executed by the virtual machine. It also provides a
// pseudo-assembly serialization and deserialization to encode in textual form
// a program that closely matches the binary format of the compiled form.
//
// The value of the last expression statement of a function body is the
// implicit return value of that function. If the last statement is an if
// statement, the rule applies recursively to each of its branches.
package compiler

import (
	"context"

	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/resolver"
	"github.com/mna/srcfn/lang/token"
)

// CompileFiles compiles the chunks of a successful resolve phase, returning
// one program per chunk. The only possible error is the cancellation of ctx.
//
// Chunks that failed to resolve must not be compiled, the compiler panics on
// an invalid AST.
func CompileFiles(ctx context.Context, chunks []*ast.Chunk) ([]*Program, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	progs := make([]*Program, 0, len(chunks))
	for _, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progs = append(progs, CompileChunk(ch))
	}
	return progs, nil
}

// CompileChunk compiles a single resolved chunk to a program.
func CompileChunk(ch *ast.Chunk) *Program {
	p := &progCompiler{prog: &Program{Filename: ch.Name}}

	var stmts []ast.Stmt
	if ch.Block != nil {
		stmts = ch.Block.Stmts
	}
	fn, _ := ch.Function.(*resolver.Function)
	if fn == nil {
		fn = &resolver.Function{Name: "toplevel", Definition: ch}
	}
	start, _ := ch.Span()
	p.prog.Toplevel = p.function(fn, start, stmts)

	p.prog.Names = p.names.items
	p.prog.Constants = p.constants.items
	p.prog.Functions = p.functions.items
	return p.prog
}

// pool interns values, each distinct value gets the index of its first
// addition.
type pool[T comparable] struct {
	index map[T]uint32
	items []T
}

func (p *pool[T]) add(v T) uint32 {
	if ix, ok := p.index[v]; ok {
		return ix
	}
	if p.index == nil {
		p.index = make(map[T]uint32)
	}
	ix := uint32(len(p.items))
	p.index[v] = ix
	p.items = append(p.items, v)
	return ix
}

// progCompiler holds the state shared by the functions of a program.
type progCompiler struct {
	prog      *Program
	names     pool[string]
	constants pool[any] // int64, float64 or string
	functions pool[*Funcode]
}

// function compiles the function f with body stmts. Nested functions are
// added to the functions pool before their parent.
func (p *progCompiler) function(f *resolver.Function, pos token.Pos, stmts []ast.Stmt) *Funcode {
	fn := &Funcode{
		Prog:      p.prog,
		Pos:       pos,
		Name:      f.Name,
		Locals:    bindings(f.Locals),
		Freevars:  bindings(f.FreeVars),
		NumParams: f.NumParams,
	}
	for i, local := range f.Locals {
		if local.Scope == resolver.Cell {
			fn.Cells = append(fn.Cells, i)
		}
	}

	c := &funcCompiler{prog: p, fn: fn}
	entry := newBlock()
	c.block = entry
	c.body(stmts)
	if c.block != nil {
		// falling off the end returns nil
		c.emit(NIL)
		c.emit(RETURN)
	}

	l := linker{name: f.Name}
	l.layout(entry)
	fn.MaxStack = l.maxStack
	l.generate(fn)
	if l.err != nil {
		panic("internal error: " + l.err.Error())
	}
	return fn
}

// funcCompiler holds the state of the compilation of a function.
type funcCompiler struct {
	prog  *progCompiler
	fn    *Funcode
	pos   token.Pos // position recorded for the next instruction
	loops []loop
	block *block // current block, nil after a jump
}

type loop struct {
	brk, cont *block
}

// bindings converts resolver bindings to their compiled form.
func bindings(binds []*resolver.Binding) []Binding {
	res := make([]Binding, len(binds))
	for i, b := range binds {
		res[i] = Binding{Name: b.Decl.Lit, Pos: b.Decl.Start}
	}
	return res
}
