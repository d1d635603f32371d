package compiler

import (
	"fmt"

	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/resolver"
	"github.com/mna/srcfn/lang/token"
)

func (c *funcCompiler) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.ParenExpr:
		c.expr(e.Expr)

	case *ast.IdentExpr:
		c.lookup(e)

	case *ast.LiteralExpr:
		c.literal(e)

	case *ast.ArrayExpr:
		for _, item := range e.Items {
			c.expr(item)
		}
		c.emit1(MAKEARRAY, uint32(len(e.Items)))

	case *ast.MapExpr:
		c.mapLiteral(e)

	case *ast.FuncExpr:
		c.funcLiteral(e)

	case *ast.DotExpr:
		c.expr(e.Left)
		c.at(e.Dot)
		c.emit1(ATTR, c.prog.names.add(e.Right.Lit))

	case *ast.IndexExpr:
		c.expr(e.Prefix)
		c.expr(e.Index)
		c.at(e.Lbrack)
		c.emit(INDEX)

	case *ast.CallExpr:
		c.expr(e.Fn)
		for _, arg := range e.Args {
			c.expr(arg)
		}
		c.at(e.Lparen)
		c.emit1(CALL, uint32(len(e.Args)))

	case *ast.UnaryOpExpr:
		c.expr(e.Right)
		c.at(e.Op)
		c.emit(unaryOpcode(e))

	case *ast.BinOpExpr:
		switch e.Type {
		case token.AND, token.OR:
			c.logical(e)
		default:
			c.expr(e.Left)
			c.expr(e.Right)
			c.binop(e.Op, e.Type)
		}

	default:
		panic(fmt.Sprintf("unexpected expr %T", e))
	}
}

func unaryOpcode(e *ast.UnaryOpExpr) Opcode {
	switch e.Type {
	case token.MINUS:
		return UMINUS
	case token.PLUS:
		return UPLUS
	case token.NOT:
		return NOT
	}
	panic(fmt.Sprintf("%s: unexpected unary op: %s", e.Op, e.Type))
}

func (c *funcCompiler) literal(e *ast.LiteralExpr) {
	switch e.Type {
	case token.NIL:
		c.emit(NIL)
	case token.TRUE:
		c.emit(TRUE)
	case token.FALSE:
		c.emit(FALSE)
	default:
		// int64, float64 or string
		c.emit1(CONSTANT, c.prog.constants.add(e.Value))
	}
}

func (c *funcCompiler) mapLiteral(e *ast.MapExpr) {
	c.emit1(MAKEMAP, uint32(len(e.Items)))
	for _, kv := range e.Items {
		c.emit(DUP)
		if id, ok := kv.Key.(*ast.IdentExpr); ok && kv.Lbrack.Unknown() {
			// {name: v} is the same as {"name": v}
			c.emit1(CONSTANT, c.prog.constants.add(id.Lit))
		} else {
			c.expr(kv.Key)
		}
		c.expr(kv.Value)
		c.at(kv.Colon)
		c.emit(SETMAP)
	}
}

// logical compiles the short-circuit operators, whose value is the last
// operand evaluated: x or y is x if x is truthy, y otherwise. x and y is x if
// x is falsy, y otherwise.
func (c *funcCompiler) logical(e *ast.BinOpExpr) {
	done, right := newBlock(), newBlock()

	c.expr(e.Left)
	c.emit(DUP)
	if e.Type == token.OR {
		c.condjump(CJMP, done, right)
	} else {
		c.condjump(CJMP, right, done)
	}

	c.block = right
	c.emit(POP)
	c.expr(e.Right)
	c.jump(done)

	c.block = done
}

// binop emits the instruction of the strict binary operator op, comparisons
// included.
func (c *funcCompiler) binop(pos token.Pos, op token.Token) {
	c.at(pos)
	switch {
	case op >= token.PLUS && op <= token.DOTDOT:
		c.emit(PLUS + Opcode(op-token.PLUS))
	case op >= token.EQEQ && op <= token.LE:
		c.emit(EQL + Opcode(op-token.EQEQ))
	default:
		panic(fmt.Sprintf("%s: unexpected binary op: %s", pos, op))
	}
}

// ifelse jumps to t if cond is truthy, to f otherwise. The operators not, and
// and or are compiled as control flow, without computing their value.
func (c *funcCompiler) ifelse(cond ast.Expr, t, f *block) {
	switch cond := cond.(type) {
	case *ast.UnaryOpExpr:
		if cond.Type == token.NOT {
			c.ifelse(cond.Right, f, t)
			return
		}

	case *ast.BinOpExpr:
		if cond.Type == token.AND || cond.Type == token.OR {
			right := newBlock()
			c.expr(cond.Left)
			if cond.Type == token.AND {
				c.condjump(CJMP, right, f)
			} else {
				c.condjump(CJMP, t, right)
			}
			c.block = right
			c.ifelse(cond.Right, t, f)
			return
		}
	}

	c.expr(cond)
	c.condjump(CJMP, t, f)
}

// funcLiteral compiles a nested function and emits the code to create its
// closure.
func (c *funcCompiler) funcLiteral(e *ast.FuncExpr) {
	f := e.Function.(*resolver.Function)

	// the closure captures the cells themselves, not their content
	for _, fv := range f.FreeVars {
		switch fv.Scope {
		case resolver.Free:
			c.emit1(FREE, uint32(fv.Index))
		case resolver.Cell:
			c.emit1(LOCAL, uint32(fv.Index))
		}
	}
	c.emit1(MAKETUPLE, uint32(len(f.FreeVars)))

	start, _ := e.Span()
	fn := c.prog.function(f, start, e.Body.Stmts)
	c.emit1(MAKEFUNC, c.prog.functions.add(fn))
}

// lookup pushes the value of the variable id.
func (c *funcCompiler) lookup(id *ast.IdentExpr) {
	bind := id.Binding.(*resolver.Binding)
	switch bind.Scope {
	case resolver.Local:
		c.at(id.Start)
		c.emit1(LOCAL, uint32(bind.Index))
	case resolver.Free:
		c.at(id.Start)
		c.emit1(FREECELL, uint32(bind.Index))
	case resolver.Cell:
		c.at(id.Start)
		c.emit1(LOCALCELL, uint32(bind.Index))
	case resolver.Universal:
		c.emit1(UNIVERSAL, c.prog.names.add(id.Lit))
	default:
		panic(fmt.Sprintf("%s: lookup(%s): unexpected scope %s", id.Start, id.Lit, bind.Scope))
	}
}

// set stores the value on top of the stack in the variable id.
// declare stores the value on top of the stack in the variable declared by
// id. A captured variable gets a new cell on each execution of its
// declaration, so that each iteration of a loop has its own.
func (c *funcCompiler) declare(id *ast.IdentExpr) {
	bind := id.Binding.(*resolver.Binding)
	if bind.Scope == resolver.Cell {
		c.emit1(INITCELL, uint32(bind.Index))
		return
	}
	c.set(id)
}

func (c *funcCompiler) set(id *ast.IdentExpr) {
	bind := id.Binding.(*resolver.Binding)
	switch bind.Scope {
	case resolver.Local:
		c.emit1(SETLOCAL, uint32(bind.Index))
	case resolver.Cell:
		c.emit1(SETLOCALCELL, uint32(bind.Index))
	case resolver.Free:
		c.emit1(SETFREECELL, uint32(bind.Index))
	default:
		panic(fmt.Sprintf("%s: set(%s): unexpected scope %s", id.Start, id.Lit, bind.Scope))
	}
}
