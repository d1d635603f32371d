package token

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type startEnd struct {
	s, e Pos
}

func (se startEnd) Span() (start, end Pos) { return se.s, se.e }

func TestMakePos(t *testing.T) {
	cases := []struct{ line, col int }{
		{1, 1},
		{1, 2},
		{10, 1},
		{MaxLines, MaxCols},
		{123, 456},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%d:%d", c.line, c.col), func(t *testing.T) {
			p := MakePos(c.line, c.col)
			l, col := p.LineCol()
			require.Equal(t, c.line, l)
			require.Equal(t, c.col, col)
			require.False(t, p.Unknown())
		})
	}
	require.True(t, NoPos.Unknown())
}

func TestPosInside(t *testing.T) {
	p := func(l, c int) Pos { return MakePos(l, c) }
	cases := []struct {
		ref, test startEnd
		want      bool
	}{
		{startEnd{p(1, 1), p(1, 2)}, startEnd{p(1, 3), p(1, 4)}, false},
		{startEnd{p(1, 1), p(1, 3)}, startEnd{p(1, 3), p(1, 4)}, false},
		{startEnd{p(1, 1), p(1, 4)}, startEnd{p(1, 3), p(1, 4)}, true},
		{startEnd{p(1, 2), p(1, 4)}, startEnd{p(1, 3), p(1, 4)}, true},
		{startEnd{p(1, 3), p(1, 4)}, startEnd{p(1, 3), p(1, 4)}, true},
		{startEnd{p(1, 4), p(1, 5)}, startEnd{p(1, 3), p(1, 4)}, false},
		{startEnd{p(1, 9), p(3, 1)}, startEnd{p(2, 1), p(2, 40)}, true},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%v-%v", c.ref, c.test), func(t *testing.T) {
			got := PosInside(c.ref, c.test)
			if c.want != got {
				t.Errorf("want %t, got %t", c.want, got)
			}
		})
	}
}

func TestFormatPos(t *testing.T) {
	cases := []struct {
		pos  Pos
		mode PosMode
		want string
	}{
		{NoPos, PosLong, "test:-:-"},
		{NoPos, PosLineCol, "-:-"},
		{NoPos, PosRaw, "0"},
		{NoPos, PosNone, ""},
		{MakePos(1, 1), PosLong, "test:1:1"},
		{MakePos(1, 1), PosLineCol, "1:1"},
		{MakePos(1, 1), PosRaw, "262145"},
		{MakePos(1, 1), PosNone, ""},
		{MakePos(12, 3), PosLong, "test:12:3"},
		{MakePos(12, 3), PosLineCol, "12:3"},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%d:%s", c.pos, c.mode), func(t *testing.T) {
			got := FormatPos(c.mode, "test", c.pos)
			if got != c.want {
				t.Errorf("want %q, got %q", c.want, got)
			}
		})
	}
}
