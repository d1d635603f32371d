package token

import (
	"fmt"
	"strconv"
)

const (
	lineBits = 18
	colBits  = 32 - lineBits

	// MaxLines is the maximum 1-based line number value that can be encoded in
	// Pos.
	MaxLines = (1 << lineBits) - 1
	// MaxCols is the maximum 1-based column number value that can be encoded in
	// Pos.
	MaxCols = (1 << colBits) - 1

	lineMask = MaxLines
	colMask  = MaxCols
)

// Pos is an efficient encoding of a 1-based line and column position in a
// 32-bit unsigned integer. A value of 0 for either line or column should be
// interpreted as "unknown".
type Pos uint32

// NoPos is the unknown position.
const NoPos Pos = 0

// MakePos creates a Pos value encoding the provided line and col. It is the
// caller's responsibility to ensure the values are > 0 and <= the maximum
// allowed.
func MakePos(line, col int) Pos {
	return Pos(col<<lineBits | line)
}

// LineCol returns the line and column values encoded in Pos.
func (p Pos) LineCol() (int, int) {
	l := p & lineMask
	c := (p >> lineBits) & colMask
	return int(l), int(c)
}

// Unknown returns true if either line or column value is unknown.
func (p Pos) Unknown() bool {
	l, c := p.LineCol()
	return l == 0 || c == 0
}

// Before returns true if p is strictly before other. Unknown positions are
// never before anything.
func (p Pos) Before(other Pos) bool {
	if p.Unknown() || other.Unknown() {
		return false
	}
	l1, c1 := p.LineCol()
	l2, c2 := other.LineCol()
	return l1 < l2 || (l1 == l2 && c1 < c2)
}

func (p Pos) String() string {
	l, c := p.LineCol()
	return fmt.Sprintf("%d:%d", l, c)
}

// PosMode controls how positions are formatted by FormatPos.
type PosMode int

// List of supported position modes.
const (
	PosNone    PosMode = iota // no position
	PosLong                   // filename:line:col
	PosLineCol                // line:col
	PosRaw                    // the raw encoded Pos value
)

func (m PosMode) String() string {
	switch m {
	case PosNone:
		return "none"
	case PosLong:
		return "long"
	case PosLineCol:
		return "linecol"
	case PosRaw:
		return "raw"
	default:
		return fmt.Sprintf("PosMode(%d)", int(m))
	}
}

// FormatPos formats pos according to mode. The filename is only used in
// PosLong mode. Unknown line or column values are printed as "-".
func FormatPos(mode PosMode, filename string, pos Pos) string {
	switch mode {
	case PosLong, PosLineCol:
		l, c := pos.LineCol()
		ls, cs := "-", "-"
		if l > 0 {
			ls = strconv.Itoa(l)
		}
		if c > 0 {
			cs = strconv.Itoa(c)
		}
		if mode == PosLineCol {
			return ls + ":" + cs
		}
		return filename + ":" + ls + ":" + cs
	case PosRaw:
		return strconv.FormatUint(uint64(pos), 10)
	default:
		return ""
	}
}

// Spanner is implemented by values that cover a range of positions, such as
// AST nodes.
type Spanner interface {
	Span() (start, end Pos)
}

// PosInside returns true if the span of test is fully inside the span of
// ref, inclusively.
func PosInside(ref, test Spanner) bool {
	rs, re := ref.Span()
	ts, te := test.Span()
	return !ts.Before(rs) && !re.Before(te)
}

// Add returns the position n columns after p on the same line. It returns p
// unchanged if p is unknown.
func (p Pos) Add(n int) Pos {
	if p.Unknown() {
		return p
	}
	l, c := p.LineCol()
	return MakePos(l, c+n)
}
