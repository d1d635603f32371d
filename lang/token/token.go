package token

import (
	"strconv"
	"strings"
)

// Token is the kind of a lexical token.
type Token int8

// The order of the operators is relied upon: the binary and comparison
// operators map to compiler opcodes, and the augmented assignments to the
// binary operators.
//
//nolint:revive
const (
	ILLEGAL Token = iota
	EOF

	COMMENT
	IDENT
	INT
	FLOAT
	STRING

	// binary operators
	PLUS
	MINUS
	STAR
	SLASH
	SLASHSLASH
	PERCENT
	STARSTAR
	DOTDOT

	// augmented assignments
	PLUSEQ
	MINUSEQ
	STAREQ
	SLASHEQ
	SLASHSLASHEQ
	PERCENTEQ
	STARSTAREQ

	// comparisons
	EQEQ
	BANGEQ
	LT
	GT
	GE
	LE

	SEMICOLON
	COMMA
	LBRACE
	RBRACE
	LBRACK
	RBRACK
	LPAREN
	RPAREN
	COLON
	DOT
	PIPE
	EQ

	// keywords
	NIL
	TRUE
	FALSE
	END
	IF
	THEN
	ELSEIF
	ELSE
	DO
	WHILE
	FOR
	IN
	LET
	RETURN
	BREAK
	CONTINUE
	AND
	OR
	NOT

	maxToken   = NOT
	punctStart = PLUS
	punctEnd   = EQ
	kwStart    = NIL
	kwEnd      = NOT
)

// The source text of punctuation and keywords, in declaration order.
const (
	punctText   = "+ - * / // % ** .. += -= *= /= //= %= **= == != < > >= <= ; , { } [ ] ( ) : . | ="
	keywordText = "nil true false end if then elseif else do while for in let return break continue and or not"
)

var (
	names = [maxToken + 1]string{
		ILLEGAL: "illegal token",
		EOF:     "end of file",
		COMMENT: "comment",
		IDENT:   "identifier",
		INT:     "int literal",
		FLOAT:   "float literal",
		STRING:  "string literal",
	}
	keywords     = make(map[string]Token, kwEnd-kwStart+1)
	punctuations = make(map[string]Token, punctEnd-punctStart+1)
)

func init() {
	register := func(text string, first Token, m map[string]Token) {
		for i, s := range strings.Fields(text) {
			tok := first + Token(i)
			names[tok] = s
			m[s] = tok
		}
	}
	register(punctText, punctStart, punctuations)
	register(keywordText, kwStart, keywords)
}

func (tok Token) String() string { return names[tok] }

// GoString returns the token's string, quoted for punctuation. It is what
// the %#v verb prints, the form used in error messages.
func (tok Token) GoString() string {
	if tok.isPunct() {
		return "'" + names[tok] + "'"
	}
	return names[tok]
}

func (tok Token) isPunct() bool { return tok >= punctStart && tok <= punctEnd }

// IsKeyword reports whether tok is a reserved word.
func (tok Token) IsKeyword() bool { return tok >= kwStart && tok <= kwEnd }

// IsAugBinop reports whether tok is an augmented assignment such as +=.
func (tok Token) IsAugBinop() bool { return tok >= PLUSEQ && tok <= STARSTAREQ }

// Binop returns the binary operator of the augmented assignment tok, or
// ILLEGAL.
func (tok Token) Binop() Token {
	if tok.IsAugBinop() {
		return PLUS + (tok - PLUSEQ)
	}
	return ILLEGAL
}

// LookupKw returns the keyword spelled ident, or IDENT.
func LookupKw(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// LookupPunct returns the punctuation spelled s, or ILLEGAL.
func LookupPunct(s string) Token {
	if tok, ok := punctuations[s]; ok {
		return tok
	}
	return ILLEGAL
}

// Value holds the details of a scanned token. Only the field of the decoded
// value that matches the token kind is set.
type Value struct {
	Raw    string // source text
	Int    int64
	Float  float64
	String string // decoded string literal or comment text
	Pos    Pos
}

// Literal returns the decoded value of a literal token as text, or an empty
// string for other tokens.
func (tok Token) Literal(v Value) string {
	switch tok {
	case IDENT:
		return v.Raw
	case COMMENT:
		return v.String
	case STRING:
		return strconv.Quote(v.String)
	case INT:
		return strconv.FormatInt(v.Int, 10)
	case FLOAT:
		return strconv.FormatFloat(v.Float, 'g', 10, 64)
	}
	return ""
}
