package scanner

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// litBuffer accumulates the decoded value of a string literal. A surrogate
// half is held until the next rune: if it is the matching half, the pair is
// decoded, otherwise the held half becomes the replacement rune.
type litBuffer struct {
	strings.Builder
	half rune
}

func (b *litBuffer) reset() {
	b.Reset()
	b.half = 0
}

func (b *litBuffer) flushHalf() {
	if b.half != 0 {
		b.WriteRune(utf8.RuneError)
		b.half = 0
	}
}

func (b *litBuffer) add(rn rune) {
	if !utf16.IsSurrogate(rn) {
		b.flushHalf()
		b.WriteRune(rn)
		return
	}
	if b.half == 0 {
		b.half = rn
		return
	}
	b.WriteRune(utf16.DecodeRune(b.half, rn))
	b.half = 0
}

func (b *litBuffer) value() string {
	b.flushHalf()
	return b.String()
}

// shortString scans a string literal delimited by quote, which is already
// consumed. It returns the raw literal and its decoded value.
func (s *Scanner) shortString(quote rune) (lit, val string) {
	startOff, startLine, startCol := s.off-1, s.line, s.col-1
	s.lit.reset()

	// set after a \z escape, until the next non-whitespace
	skipws := false
	for {
		cur := s.cur
		if cur < 0 || (cur == '\n' && !skipws) {
			s.error(startLine, startCol, "string literal not terminated")
			break
		}
		s.advance()

		switch {
		case cur == quote:
			return string(s.src[startOff:s.off]), s.lit.value()
		case cur == '\\':
			skipws = s.escape()
		case skipws && isWhitespace(cur):
		default:
			skipws = false
			s.lit.add(cur)
		}
	}
	return string(s.src[startOff:s.off]), s.lit.value()
}

var singleEscapes = map[rune]rune{
	'a': '\a', 'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v',
	'\\': '\\', '/': '/', '\'': '\'', '"': '"', '\n': '\n',
}

// escape scans an escape sequence, the backslash being already consumed, and
// adds its value to the literal. It reports whether it was \z, which skips
// the whitespace that follows. On error, it stops at the offending character.
func (s *Scanner) escape() (skipws bool) {
	line, col := s.line, s.col-1

	if s.advanceIf("z") {
		return true
	}
	if v, ok := singleEscapes[s.cur]; ok {
		s.advance()
		s.lit.add(v)
		return false
	}

	var (
		v     uint32
		limit uint32 = unicode.MaxRune
		ok    bool
	)
	switch {
	case isDecimal(s.cur):
		// \d, \dd or \ddd, a byte
		limit = 255
		v, ok = s.decimalEscape(), true
	case s.advanceIf("x"):
		// \xhh, a byte
		limit = 255
		v, ok = s.hexEscape(line, col, 2)
	case s.advanceIf("u"):
		if s.advanceIf("{") {
			// \u{h...}, up to 8 digits
			v, ok = s.bracedEscape(line, col)
		} else {
			// \uhhhh, as in JSON
			v, ok = s.hexEscape(line, col, 4)
		}
	case s.cur < 0:
		s.error(line, col, "escape sequence not terminated")
	default:
		s.error(line, col, "unknown escape sequence")
	}
	if !ok {
		return false
	}

	if v > limit {
		if limit == 255 {
			s.error(line, col, "escape sequence is invalid byte value")
		} else {
			s.error(line, col, "escape sequence is invalid Unicode code point")
		}
		return false
	}
	s.lit.add(rune(v))
	return false
}

func (s *Scanner) decimalEscape() uint32 {
	var v uint32
	for i := 0; i < 3 && isDecimal(s.cur); i++ {
		v = v*10 + uint32(digitVal(s.cur))
		s.advance()
	}
	return v
}

// hexEscape scans exactly n hexadecimal digits.
func (s *Scanner) hexEscape(line, col, n int) (uint32, bool) {
	var v uint32
	for i := 0; i < n; i++ {
		if !isHexadecimal(s.cur) {
			s.badEscapeChar(line, col)
			return 0, false
		}
		v = v*16 + uint32(digitVal(s.cur))
		s.advance()
	}
	return v, true
}

// bracedEscape scans the hexadecimal digits and closing brace of a \u{...}
// escape.
func (s *Scanner) bracedEscape(line, col int) (uint32, bool) {
	var (
		v uint32
		n int
	)
	for ; isHexadecimal(s.cur); n++ {
		v = v*16 + uint32(digitVal(s.cur))
		s.advance()
	}
	if !s.advanceIf("}") {
		s.badEscapeChar(line, col)
		return 0, false
	}
	if n > 8 {
		s.error(line, col, "escape sequence has too many hexadecimal digits")
		return 0, false
	}
	return v, true
}

// badEscapeChar reports the current character as invalid in the escape
// sequence that starts at line:col, or the sequence as unterminated at EOF.
func (s *Scanner) badEscapeChar(line, col int) {
	if s.cur < 0 {
		s.error(line, col, "escape sequence not terminated")
		return
	}
	s.errorf(s.line, s.col, "illegal character %#U in escape sequence", s.cur)
}

// digitVal returns the value of a hexadecimal digit, or 16 if rn is not one.
func digitVal(rn rune) int {
	switch {
	case isDecimal(rn):
		return int(rn - '0')
	case 'a' <= lower(rn) && lower(rn) <= 'f':
		return int(lower(rn) - 'a' + 10)
	}
	return 16
}
