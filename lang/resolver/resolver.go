// Much of the resolver package is adapted from the Starlark source code:
// https://github.com/google/starlark-go/tree/ee8ed142361c69d52fe8e9fb5e311d2a0a7c02de
//
// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolver binds each identifier of a parsed AST to the variable it
// denotes, and computes the local and free variables of each function.
//
// # Scopes
//
// A name refers to a local variable of the current function, to a free
// variable (a local of an enclosing function, captured by a closure), or to
// a universal value, built into the language. A local captured by a nested
// function is a cell. There are no global variables, and a name that is none
// of those is an error.
//
// # Declarations
//
// Names are declared by:
//   - let x, y = 1, 2: in the enclosing block, after the values are resolved
//     so that let x = x refers to an outer x.
//   - for x in xs do ... end: in the body of the loop.
//   - do |a, b| ... end: in the body of the function.
//
// A name is declared at most once per block, and may shadow a declaration of
// an enclosing block. Universal names cannot be assigned.
package resolver

import (
	"context"
	"fmt"

	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/scanner"
	"github.com/mna/srcfn/lang/token"
)

// Mode is a set of flags that control the resolver.
type Mode uint

const (
	// NameBlocks names each block and records in each binding the name of its
	// block, for debugging output.
	NameBlocks Mode = 1 << iota
)

// ResolveFiles resolves the chunks of a successful parse, setting the
// Binding of identifiers and the Function of chunks and function literals.
// Chunks with parse errors must not be resolved.
//
// The error, if non-nil, is a scanner.ErrorList or the error of ctx.
func ResolveFiles(ctx context.Context, chunks []*ast.Chunk, mode Mode, isUniversal func(name string) bool) error {
	r := newResolver(isUniversal)
	for _, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.chunk(ch, mode)
	}
	r.errors.Sort()
	return r.errors.Err()
}

// ResolveChunk resolves a single chunk, see ResolveFiles.
func ResolveChunk(ch *ast.Chunk, mode Mode, isUniversal func(name string) bool) error {
	r := newResolver(isUniversal)
	r.chunk(ch, mode)
	r.errors.Sort()
	return r.errors.Err()
}

func newResolver(isUniversal func(name string) bool) *resolver {
	if isUniversal == nil {
		isUniversal = func(string) bool { return false }
	}
	return &resolver{isUniversal: isUniversal}
}

type resolver struct {
	isUniversal func(name string) bool
	errors      scanner.ErrorList

	// state of the current chunk
	filename   string
	env        *block // innermost block
	root       *block
	universals map[string]*Binding // shared by all uses of a universal
}

// block is a lexical block.
type block struct {
	parent   *block
	children []*block
	fn       *Function
	isLoop   bool
	name     string

	bindings map[string]*Binding // declared in the block
	free     map[string]*Binding // captured variables, in the root block of a function only
}

// inLoop reports whether b is in the body of a loop of its own function.
func (b *block) inLoop() bool {
	for env := b; env != nil && env.fn == b.fn; env = env.parent {
		if env.isLoop {
			return true
		}
	}
	return false
}

func (r *resolver) chunk(ch *ast.Chunk, mode Mode) {
	r.filename = ch.Name
	r.env, r.root = nil, nil
	r.universals = make(map[string]*Binding)

	top := &Function{Name: "toplevel", Definition: ch}
	ch.Function = top
	if ch.Block == nil {
		return
	}
	r.block(ch.Block, &block{fn: top})
	if mode&NameBlocks != 0 {
		r.nameBlocks()
	}
}

// enter makes b the innermost block, a child of the current one. It belongs
// to the current function unless its fn is set.
func (r *resolver) enter(b *block) {
	b.parent = r.env
	switch {
	case r.env == nil:
		r.root = b
	default:
		r.env.children = append(r.env.children, b)
		if b.fn == nil {
			b.fn = r.env.fn
		}
	}
	r.env = b
}

func (r *resolver) leave() { r.env = r.env.parent }

func (r *resolver) errorf(pos token.Pos, format string, args ...any) {
	r.errors.Add(r.filename, pos, fmt.Sprintf(format, args...))
}

// declare creates the local variable id in the innermost block.
func (r *resolver) declare(id *ast.IdentExpr) {
	env := r.env
	if _, dup := env.bindings[id.Lit]; dup {
		r.errorf(id.Start, "already declared in this block: %s", id.Lit)
		id.Binding = &Binding{Scope: Undefined, Decl: id}
		return
	}

	bdg := &Binding{Scope: Local, Index: len(env.fn.Locals), Decl: id}
	env.fn.Locals = append(env.fn.Locals, bdg)
	if env.bindings == nil {
		env.bindings = make(map[string]*Binding)
	}
	env.bindings[id.Lit] = bdg
	id.Binding = bdg
}

// use binds id to the variable or universal it refers to, assigned tells if
// it is the target of an assignment.
func (r *resolver) use(id *ast.IdentExpr, assigned bool) {
	if bdg := r.lookup(id.Lit, r.env); bdg != nil {
		id.Binding = bdg
		return
	}

	if !r.isUniversal(id.Lit) {
		r.errorf(id.Start, "undefined: %s", id.Lit)
		id.Binding = &Binding{Scope: Undefined, Decl: id}
		return
	}

	if assigned {
		r.errorf(id.Start, "cannot assign to universal: %s", id.Lit)
	}
	bdg := r.universals[id.Lit]
	if bdg == nil {
		bdg = &Binding{Scope: Universal, Decl: id}
		r.universals[id.Lit] = bdg
	}
	id.Binding = bdg
}

// lookup returns the binding of name visible from env, nil if there is none.
// When the declaration is in an enclosing function, it becomes a cell and is
// captured as a free variable by each function between it and env.
func (r *resolver) lookup(name string, env *block) *Binding {
	if env == nil {
		return nil
	}
	if bdg, ok := env.bindings[name]; ok {
		return bdg
	}
	if bdg, ok := env.free[name]; ok {
		return bdg
	}

	outer := r.lookup(name, env.parent)
	if outer == nil || env.parent == nil || env.parent.fn == env.fn {
		return outer
	}

	// env is the root block of its function
	if outer.Scope == Local {
		outer.Scope = Cell
	}
	free := &Binding{Scope: Free, Index: len(env.fn.FreeVars), Decl: outer.Decl}
	env.fn.FreeVars = append(env.fn.FreeVars, outer)
	if env.free == nil {
		env.free = make(map[string]*Binding)
	}
	env.free[name] = free
	return free
}
