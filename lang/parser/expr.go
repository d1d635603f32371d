package parser

import (
	"github.com/mna/srcfn/lang/ast"
	"github.com/mna/srcfn/lang/token"
)

// precedence of the unary operators, between the additive and the
// multiplicative ones
const unaryPrec = 12

// binaryPrec returns the precedence of the binary operator tok on its left
// and right side, or ok=false if tok is not a binary operator. A higher right
// precedence makes the operator left-associative.
func binaryPrec(tok token.Token) (left, right int, ok bool) {
	switch tok {
	case token.OR:
		return 1, 1, true
	case token.AND:
		return 2, 2, true
	case token.EQEQ, token.BANGEQ, token.LT, token.LE, token.GT, token.GE:
		return 3, 3, true
	case token.DOTDOT:
		return 4, 4, true
	case token.PLUS, token.MINUS:
		return 10, 10, true
	case token.STAR, token.SLASH, token.SLASHSLASH, token.PERCENT:
		return 11, 11, true
	case token.STARSTAR:
		// right-associative
		return 14, 13, true
	}
	return 0, 0, false
}

func (p *parser) expr() ast.Expr { return p.binaryExpr(0) }

// binaryExpr parses an expression in which the binary operators bind tighter
// than prec, by precedence climbing.
func (p *parser) binaryExpr(prec int) ast.Expr {
	var x ast.Expr
	switch p.tok {
	case token.PLUS, token.MINUS, token.NOT:
		un := &ast.UnaryOpExpr{Type: p.tok}
		un.Op = p.expect(p.tok)
		un.Right = p.binaryExpr(unaryPrec)
		x = un
	default:
		x = p.suffixedExpr()
	}

	for {
		left, right, ok := binaryPrec(p.tok)
		if !ok || left <= prec {
			return x
		}
		bin := &ast.BinOpExpr{Left: x, Type: p.tok}
		bin.Op = p.expect(p.tok)
		bin.Right = p.binaryExpr(right)
		x = bin
	}
}

// suffixedExpr parses an operand followed by any number of calls, index and
// attribute lookups.
func (p *parser) suffixedExpr() ast.Expr {
	x := p.operand()
	for {
		switch p.tok {
		case token.LPAREN:
			call := &ast.CallExpr{Fn: x, Lparen: p.expect(token.LPAREN)}
			call.Args, call.Commas, call.Rparen = list(p, token.RPAREN, p.expr)
			x = call

		case token.LBRACK:
			ix := &ast.IndexExpr{Prefix: x, Lbrack: p.expect(token.LBRACK)}
			ix.Index = p.expr()
			ix.Rbrack = p.expect(token.RBRACK)
			x = ix

		case token.DOT:
			dot := &ast.DotExpr{Left: x, Dot: p.expect(token.DOT)}
			dot.Right = p.ident()
			x = dot

		default:
			return x
		}
	}
}

func (p *parser) operand() ast.Expr {
	switch p.tok {
	case token.IDENT:
		return p.ident()

	case token.NIL, token.TRUE, token.FALSE, token.INT, token.FLOAT, token.STRING:
		return p.literal()

	case token.LPAREN:
		paren := &ast.ParenExpr{Lparen: p.expect(token.LPAREN)}
		paren.Expr = p.expr()
		paren.Rparen = p.expect(token.RPAREN)
		return paren

	case token.LBRACK:
		arr := &ast.ArrayExpr{Lbrack: p.expect(token.LBRACK)}
		arr.Items, arr.Commas, arr.Rbrack = list(p, token.RBRACK, p.expr)
		return arr

	case token.LBRACE:
		m := &ast.MapExpr{Lbrace: p.expect(token.LBRACE)}
		m.Items, m.Commas, m.Rbrace = list(p, token.RBRACE, p.keyVal)
		return m

	case token.DO:
		return p.funcExpr()
	}

	p.errorExpected(p.val.Pos, "expression")
	panic(errPanicMode)
}

// list parses the comma-separated items up to and including the closing
// token, a trailing comma being allowed.
func list[T any](p *parser, closing token.Token, item func() T) (items []T, commas []token.Pos, end token.Pos) {
	for p.tok != closing && p.tok != token.EOF {
		items = append(items, item())
		if p.tok != token.COMMA {
			break
		}
		commas = append(commas, p.expect(token.COMMA))
	}
	return items, commas, p.expect(closing)
}

func (p *parser) literal() *ast.LiteralExpr {
	lit := &ast.LiteralExpr{Type: p.tok, Start: p.val.Pos, Raw: p.val.Raw}
	switch p.tok {
	case token.INT:
		lit.Value = p.val.Int
	case token.FLOAT:
		lit.Value = p.val.Float
	case token.STRING:
		lit.Value = p.val.String
	}
	p.expect(p.tok)
	return lit
}

// keyVal parses a map entry, [expr]: v or name: v, where the name can also be
// a string or int literal.
func (p *parser) keyVal() *ast.KeyVal {
	kv := new(ast.KeyVal)
	switch p.tok {
	case token.LBRACK:
		kv.Lbrack = p.expect(token.LBRACK)
		kv.Key = p.expr()
		kv.Rbrack = p.expect(token.RBRACK)
	case token.STRING, token.INT:
		kv.Key = p.literal()
	default:
		kv.Key = p.ident()
	}
	kv.Colon = p.expect(token.COLON)
	kv.Value = p.expr()
	return kv
}

func (p *parser) funcExpr() *ast.FuncExpr {
	fn := &ast.FuncExpr{Do: p.expect(token.DO), Sig: p.signature()}
	fn.Body = p.block(token.END)
	fn.End = p.expect(token.END)
	return fn
}

// signature parses the optional parameter list of a function literal.
func (p *parser) signature() *ast.FuncSignature {
	sig := new(ast.FuncSignature)
	if p.tok != token.PIPE {
		return sig
	}
	sig.Lpipe = p.expect(token.PIPE)
	for p.tok == token.IDENT {
		sig.Params = append(sig.Params, p.ident())
		if p.tok != token.COMMA {
			break
		}
		sig.Commas = append(sig.Commas, p.expect(token.COMMA))
	}
	sig.Rpipe = p.expect(token.PIPE)
	return sig
}

func (p *parser) ident() *ast.IdentExpr {
	id := &ast.IdentExpr{Lit: p.val.Raw}
	id.Start = p.expect(token.IDENT)
	return id
}

// exprList parses one or more comma-separated expressions, without trailing
// comma.
func (p *parser) exprList() (exprs []ast.Expr, commas []token.Pos) {
	exprs = append(exprs, p.expr())
	for p.tok == token.COMMA {
		commas = append(commas, p.expect(token.COMMA))
		exprs = append(exprs, p.expr())
	}
	return exprs, commas
}
