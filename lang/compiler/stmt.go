package compiler

import (
	"fmt"

	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/token"
)

func (c *funcCompiler) stmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		c.stmt(stmt)
	}
}

// body compiles the statements of a function body. If the last one is an
// expression statement, its value is returned.
func (c *funcCompiler) body(stmts []ast.Stmt) {
	if len(stmts) == 0 {
		return
	}
	last := len(stmts) - 1
	c.stmts(stmts[:last])

	switch stmt := stmts[last].(type) {
	case *ast.ExprStmt:
		c.expr(stmt.Expr)
		c.emit(RETURN)
		c.deadCode()
	case *ast.IfStmt:
		c.ifStmt(stmt, true)
	default:
		c.stmt(stmt)
	}
}

func (c *funcCompiler) stmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.ExprStmt:
		c.expr(stmt.Expr)
		c.emit(POP)

	case *ast.ReturnLikeStmt:
		c.returnLike(stmt)

	case *ast.IfStmt:
		c.ifStmt(stmt, false)

	case *ast.AssignStmt:
		switch {
		case stmt.IsDecl() && len(stmt.Right) == 0:
			// let without values declares nil variables
			for _, lhs := range stmt.Left {
				c.emit(NIL)
				c.declare(lhs.(*ast.IdentExpr))
			}
		case stmt.AssignTok.IsAugBinop():
			c.augAssign(stmt)
		default:
			// all values are computed before any assignment
			for _, rhs := range stmt.Right {
				c.expr(rhs)
			}
			for i := len(stmt.Left) - 1; i >= 0; i-- {
				if stmt.IsDecl() {
					c.declare(stmt.Left[i].(*ast.IdentExpr))
				} else {
					c.assign(stmt.Left[i])
				}
			}
		}

	case *ast.ForInStmt:
		c.forIn(stmt)

	case *ast.WhileStmt:
		c.while(stmt)

	default:
		panic(fmt.Sprintf("unexpected stmt %T", stmt))
	}
}

// returnLike compiles return, break and continue. The resolver guarantees
// that break and continue are inside a loop.
func (c *funcCompiler) returnLike(stmt *ast.ReturnLikeStmt) {
	switch stmt.Type {
	case token.BREAK:
		c.jump(c.loops[len(c.loops)-1].brk)
	case token.CONTINUE:
		c.jump(c.loops[len(c.loops)-1].cont)
	case token.RETURN:
		if stmt.Expr == nil {
			c.emit(NIL)
		} else {
			c.expr(stmt.Expr)
		}
		c.emit(RETURN)
	default:
		panic(fmt.Sprintf("unexpected statement %s", stmt.Type))
	}
	c.deadCode()
}

// augAssign compiles x op= y, where the target x is evaluated once.
func (c *funcCompiler) augAssign(stmt *ast.AssignStmt) {
	var store func()
	switch lhs := ast.Unwrap(stmt.Left[0]).(type) {
	case *ast.IdentExpr:
		c.lookup(lhs)
		store = func() { c.set(lhs) }

	case *ast.IndexExpr:
		c.expr(lhs.Prefix)
		c.expr(lhs.Index)
		c.emit(DUP2)
		c.at(lhs.Lbrack)
		c.emit(INDEX)
		store = func() {
			c.at(lhs.Lbrack)
			c.emit(SETINDEX)
		}

	default:
		panic(fmt.Sprintf("unexpected augmented assignment target %T", lhs))
	}

	c.expr(stmt.Right[0])
	c.binop(stmt.AssignPos, stmt.AssignTok.Binop())
	store()
}

// assign stores the value on top of the stack in the target lhs.
func (c *funcCompiler) assign(lhs ast.Expr) {
	switch lhs := ast.Unwrap(lhs).(type) {
	case *ast.IdentExpr:
		c.set(lhs)

	case *ast.IndexExpr:
		// value x i => x i value
		c.expr(lhs.Prefix)
		c.emit(EXCH)
		c.expr(lhs.Index)
		c.emit(EXCH)
		c.at(lhs.Lbrack)
		c.emit(SETINDEX)

	default:
		panic(fmt.Sprintf("unexpected assignment target %T", lhs))
	}
}

// ifStmt compiles an if statement. If tail is true, it is the last statement
// of a function body and each branch returns the value of its own last
// statement.
func (c *funcCompiler) ifStmt(stmt *ast.IfStmt, tail bool) {
	branch := c.stmts
	if tail {
		branch = c.body
	}
	then, els, done := newBlock(), newBlock(), newBlock()

	c.ifelse(stmt.Cond, then, els)

	c.block = then
	branch(stmt.True.Stmts)
	c.jump(done)

	c.block = els
	if stmt.False != nil {
		branch(stmt.False.Stmts)
	}
	c.jump(done)

	c.block = done
}

func (c *funcCompiler) forIn(stmt *ast.ForInStmt) {
	head, body, done := newBlock(), newBlock(), newBlock()

	c.expr(stmt.Right)
	c.at(stmt.For)
	c.emit(ITERPUSH)
	c.jump(head)

	c.block = head
	c.condjump(ITERJMP, done, body)

	c.block = body
	c.declare(stmt.Left)
	c.loopBody(stmt.Body.Stmts, loop{brk: done, cont: head})

	c.block = done
	c.emit(ITERPOP)
}

func (c *funcCompiler) while(stmt *ast.WhileStmt) {
	head, body, done := newBlock(), newBlock(), newBlock()

	c.jump(head)
	c.block = head
	c.ifelse(stmt.Cond, body, done)

	c.block = body
	c.loopBody(stmt.Body.Stmts, loop{brk: done, cont: head})

	c.block = done
}

// loopBody compiles the statements of a loop, then jumps back to its head.
func (c *funcCompiler) loopBody(stmts []ast.Stmt, lp loop) {
	c.loops = append(c.loops, lp)
	c.stmts(stmts)
	c.loops = c.loops[:len(c.loops)-1]
	c.jump(lp.cont)
}
