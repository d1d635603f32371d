package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok <= maxToken; tok++ {
		if tok.String() == "" {
			t.Errorf("missing string representation of token %d", tok)
		}
	}
}

func TestTokenText(t *testing.T) {
	assert.Len(t, strings.Fields(punctText), int(punctEnd-punctStart+1))
	assert.Len(t, strings.Fields(keywordText), int(kwEnd-kwStart+1))
	assert.Equal(t, "//=", SLASHSLASHEQ.String())
	assert.Equal(t, "elseif", ELSEIF.String())
	assert.Equal(t, "=", EQ.String())
}

func TestLookup(t *testing.T) {
	for tok := kwStart; tok <= kwEnd; tok++ {
		assert.Equal(t, tok, LookupKw(tok.String()), tok.String())
	}
	for tok := punctStart; tok <= punctEnd; tok++ {
		assert.Equal(t, tok, LookupPunct(tok.String()), tok.String())
	}
	assert.Equal(t, IDENT, LookupKw("zero?"))
	assert.Equal(t, ILLEGAL, LookupPunct("!"))
}

func TestBinop(t *testing.T) {
	cases := map[Token]Token{
		PLUSEQ:       PLUS,
		MINUSEQ:      MINUS,
		STAREQ:       STAR,
		SLASHEQ:      SLASH,
		SLASHSLASHEQ: SLASHSLASH,
		PERCENTEQ:    PERCENT,
		STARSTAREQ:   STARSTAR,
		EQ:           ILLEGAL,
		PLUS:         ILLEGAL,
	}
	for aug, want := range cases {
		assert.Equal(t, want, aug.Binop(), aug.String())
	}
}

func TestGoString(t *testing.T) {
	assert.Equal(t, "'|'", PIPE.GoString())
	assert.Equal(t, "end", END.GoString())
	assert.Equal(t, "identifier", IDENT.GoString())
}
