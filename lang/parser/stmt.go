package parser

import (
	"fmt"

	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/token"
)

// stmt parses a statement, returning nil for an empty one (";"). On a syntax
// error, it skips to the next synchronization point and returns a BadStmt
// that covers the skipped tokens.
func (p *parser) stmt() (stmt ast.Stmt) {
	start := p.val.Pos
	defer func() {
		if e := recover(); e != nil {
			if e != errPanicMode {
				panic(e)
			}
			stmt = &ast.BadStmt{Start: start, End: p.synchronize()}
		}
	}()

	switch p.tok {
	case token.SEMICOLON:
		p.advance()
		return nil
	case token.LET:
		return p.letStmt()
	case token.IF:
		return p.ifStmt(token.NoPos)
	case token.WHILE:
		return p.whileStmt()
	case token.FOR:
		return p.forInStmt()
	case token.RETURN:
		return p.returnLike(true)
	case token.BREAK, token.CONTINUE:
		return p.returnLike(false)
	}
	return p.simpleStmt()
}

func (p *parser) letStmt() *ast.AssignStmt {
	stmt := &ast.AssignStmt{Let: p.expect(token.LET)}
	stmt.Left = append(stmt.Left, p.ident())
	for p.tok == token.COMMA {
		stmt.LeftCommas = append(stmt.LeftCommas, p.expect(token.COMMA))
		stmt.Left = append(stmt.Left, p.ident())
	}

	if p.tok == token.EQ {
		p.assignRight(stmt)
		p.checkCount(stmt)
	}
	return stmt
}

// simpleStmt parses an expression statement or an assignment.
func (p *parser) simpleStmt() ast.Stmt {
	left, commas := p.exprList()

	if p.tok != token.EQ && !p.tok.IsAugBinop() {
		if len(left) > 1 {
			p.errorExpected(commas[0], "single expression")
		}
		return &ast.ExprStmt{Expr: left[0]}
	}

	stmt := &ast.AssignStmt{Left: left, LeftCommas: commas}
	if p.tok == token.EQ {
		p.assignRight(stmt)
		p.checkTargets(left)
		p.checkCount(stmt)
		return stmt
	}

	stmt.AssignTok = p.tok
	stmt.AssignPos = p.expect(p.tok)
	stmt.Right = []ast.Expr{p.expr()}
	if len(left) != 1 {
		p.error(stmt.AssignPos, fmt.Sprintf("augmented assignment %#v requires a single variable", stmt.AssignTok))
	}
	p.checkTargets(left)
	return stmt
}

// assignRight parses the "= values" part of an assignment or declaration.
func (p *parser) assignRight(stmt *ast.AssignStmt) {
	stmt.AssignTok = token.EQ
	stmt.AssignPos = p.expect(token.EQ)
	stmt.Right, stmt.RightCommas = p.exprList()
}

func (p *parser) checkTargets(targets []ast.Expr) {
	for _, e := range targets {
		if !ast.IsAssignable(e) {
			pos, _ := e.Span()
			p.error(pos, fmt.Sprintf("cannot assign to %v", e))
		}
	}
}

func (p *parser) checkCount(stmt *ast.AssignStmt) {
	if nl, nr := len(stmt.Left), len(stmt.Right); nl != nr {
		p.error(stmt.AssignPos, fmt.Sprintf("assignment mismatch: %d variable(s) but %d value(s)", nl, nr))
	}
}

// ifStmt parses an if statement, or the elseif clause that starts at elseif
// if it is a known position, in which case the keyword is already consumed.
func (p *parser) ifStmt(elseif token.Pos) *ast.IfStmt {
	stmt := &ast.IfStmt{Type: token.ELSEIF, Start: elseif}
	if elseif.Unknown() {
		stmt.Type = token.IF
		stmt.Start = p.expect(token.IF)
	}

	stmt.Cond = p.expr()
	stmt.Then = p.expect(token.THEN)
	stmt.True = p.block(token.ELSEIF, token.ELSE, token.END)

	switch p.tok {
	case token.ELSEIF:
		stmt.Else = p.expect(token.ELSEIF)
		clause := p.ifStmt(stmt.Else)
		start, end := clause.Span()
		stmt.False = &ast.Block{Start: start, End: end, Stmts: []ast.Stmt{clause}}
	case token.ELSE:
		stmt.Else = p.expect(token.ELSE)
		stmt.False = p.block(token.END)
	case token.END:
	default:
		// reports the error and panics
		p.expect(token.ELSE, token.ELSEIF)
	}

	// the end keyword belongs to the outermost if
	if stmt.Type == token.IF {
		stmt.End = p.expect(token.END)
	}
	return stmt
}

func (p *parser) whileStmt() *ast.WhileStmt {
	stmt := &ast.WhileStmt{While: p.expect(token.WHILE)}
	stmt.Cond = p.expr()
	stmt.Do, stmt.Body, stmt.End = p.loopBody()
	return stmt
}

func (p *parser) forInStmt() *ast.ForInStmt {
	stmt := &ast.ForInStmt{For: p.expect(token.FOR)}
	stmt.Left = p.ident()
	stmt.In = p.expect(token.IN)
	stmt.Right = p.expr()
	stmt.Do, stmt.Body, stmt.End = p.loopBody()
	return stmt
}

// loopBody parses do ... end.
func (p *parser) loopBody() (do token.Pos, body *ast.Block, end token.Pos) {
	do = p.expect(token.DO)
	body = p.block(token.END)
	end = p.expect(token.END)
	return do, body, end
}

func (p *parser) returnLike(withValue bool) *ast.ReturnLikeStmt {
	stmt := &ast.ReturnLikeStmt{Type: p.tok}
	stmt.Start = p.expect(stmt.Type)
	if withValue && !endsValue(p.tok) {
		stmt.Expr = p.expr()
	}
	return stmt
}

// endsValue reports whether tok cannot start the optional value of a return
// statement: it starts another statement or ends the block.
func endsValue(tok token.Token) bool {
	switch tok {
	case token.SEMICOLON, token.IF, token.WHILE, token.FOR, token.LET,
		token.RETURN, token.BREAK, token.CONTINUE,
		token.ILLEGAL, token.EOF, token.END, token.ELSEIF, token.ELSE:
		return true
	}
	return false
}

// synchronize skips tokens after a syntax error up to a point where parsing
// can resume, and returns the position of that point. It stops after a
// semicolon or end, or at a keyword that starts a statement, unless it is
// the token where the error occurred. Do and let are not safe points as
// they also appear inside statements.
func (p *parser) synchronize() token.Pos {
	start := p.val.Pos
	for ; p.tok != token.EOF; p.advance() {
		switch p.tok {
		case token.SEMICOLON, token.END:
			p.advance()
			return p.val.Pos
		case token.IF, token.WHILE, token.FOR, token.RETURN, token.BREAK, token.CONTINUE:
			if p.val.Pos != start {
				return p.val.Pos
			}
		}
	}
	return p.val.Pos
}
