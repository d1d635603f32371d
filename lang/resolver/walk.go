package resolver

import (
	"fmt"

	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/token"
)

// block resolves the statements of b in the new lexical block env.
func (r *resolver) block(b *ast.Block, env *block) {
	r.enter(env)
	for _, stmt := range b.Stmts {
		r.stmt(stmt)
	}
	r.leave()
}

func (r *resolver) stmt(stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.ExprStmt:
		r.expr(stmt.Expr)

	case *ast.AssignStmt:
		for _, e := range stmt.Right {
			r.expr(e)
		}
		for _, e := range stmt.Left {
			if stmt.IsDecl() {
				r.declare(e.(*ast.IdentExpr))
				continue
			}
			if id, ok := ast.Unwrap(e).(*ast.IdentExpr); ok {
				r.use(id, true)
			} else {
				// x[i] = v reads x
				r.expr(e)
			}
		}

	case *ast.IfStmt:
		r.expr(stmt.Cond)
		r.block(stmt.True, new(block))
		switch {
		case stmt.False == nil:
		case isElseIf(stmt.False):
			r.stmt(stmt.False.Stmts[0])
		default:
			r.block(stmt.False, new(block))
		}

	case *ast.WhileStmt:
		r.expr(stmt.Cond)
		r.block(stmt.Body, &block{isLoop: true})

	case *ast.ForInStmt:
		r.expr(stmt.Right)
		// the loop variable is declared in a block of its own around the body
		r.enter(&block{isLoop: true})
		r.declare(stmt.Left)
		r.block(stmt.Body, &block{isLoop: true})
		r.leave()

	case *ast.ReturnLikeStmt:
		if stmt.Type == token.RETURN {
			if stmt.Expr != nil {
				r.expr(stmt.Expr)
			}
		} else if !r.env.inLoop() {
			r.errorf(stmt.Start, "invalid %s outside a loop", stmt.Type)
		}

	case *ast.BadStmt:

	default:
		panic(fmt.Sprintf("unexpected stmt %T", stmt))
	}
}

// isElseIf reports whether b holds the elseif clause of an if statement,
// which does not get a block of its own.
func isElseIf(b *ast.Block) bool {
	if len(b.Stmts) != 1 {
		return false
	}
	ifs, ok := b.Stmts[0].(*ast.IfStmt)
	return ok && ifs.Type == token.ELSEIF
}

// expr resolves the identifiers used in e, in evaluation order.
func (r *resolver) expr(e ast.Expr) {
	ast.Inspect(e, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.IdentExpr:
			r.use(n, false)

		case *ast.DotExpr:
			// the attribute name is not a variable
			r.expr(n.Left)
			return false

		case *ast.MapExpr:
			for _, kv := range n.Items {
				// in {name: v}, name is a string key
				if _, ok := kv.Key.(*ast.IdentExpr); !ok || !kv.Lbrack.Unknown() {
					r.expr(kv.Key)
				}
				r.expr(kv.Value)
			}
			return false

		case *ast.FuncExpr:
			r.function(n)
			return false
		}
		return true
	})
}

func (r *resolver) function(fe *ast.FuncExpr) {
	fn := &Function{Name: "anonymous", Definition: fe, NumParams: len(fe.Sig.Params)}
	fe.Function = fn

	// the parameters are declared in the root block of the function, the body
	// is a child block
	r.enter(&block{fn: fn})
	for _, param := range fe.Sig.Params {
		r.declare(param)
	}
	r.block(fe.Body, new(block))
	r.leave()
}
