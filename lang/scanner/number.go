package scanner

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mna/srcfn/lang/token"
)

// number scans an integer or float literal. A '.' is only part of the
// number if it is immediately followed by a decimal digit, so that "3.abs"
// and "1..10" scan as an integer followed by punctuation.
func (s *Scanner) number() (tok token.Token, base int, lit string) {
	start, line, col := s.off, s.line, s.col
	tok, base = token.INT, 10

	var (
		prefix     rune
		hasDigits  bool
		hasSep     bool
		badDigitAt = -1 // offset of the first digit invalid in base
	)
	scanDigits := func(base int) {
		d, sep := s.digits(base, &badDigitAt)
		hasDigits, hasSep = hasDigits || d, hasSep || sep
	}

	if s.cur == '0' {
		s.advance()
		if b := prefixBase(lower(s.cur)); b != 0 {
			prefix, base = lower(s.cur), b
			s.advance()
		} else {
			hasDigits = true
		}
	}
	scanDigits(base)

	if prefix == 0 && s.cur == '.' && isDecimal(rune(s.peek())) {
		tok = token.FLOAT
		s.advance()
		scanDigits(base)
	}
	if !hasDigits {
		s.error(s.line, s.col, litname(prefix)+" has no digits")
	}

	if prefix == 0 && lower(s.cur) == 'e' {
		tok = token.FLOAT
		s.advance()
		s.advanceIf("+-")
		d, sep := s.digits(10, nil)
		hasSep = hasSep || sep
		if !d {
			s.error(s.line, s.col, "exponent has no digits")
		}
	}

	lit = string(s.src[start:s.off])
	if tok == token.INT && badDigitAt >= 0 {
		i := badDigitAt - start
		s.errorf(line, col+i, "invalid digit %q in %s", lit[i], litname(prefix))
	}
	if hasSep {
		if i := badSeparator(lit); i >= 0 {
			s.error(line, col+i, "'_' must separate successive digits")
		}
	}
	return tok, base, lit
}

// digits scans a sequence of digits and '_' separators. All decimal digits
// are accepted for bases up to 10, the offset of the first one that is
// invalid in base is stored in *badDigitAt if it is not already set.
func (s *Scanner) digits(base int, badDigitAt *int) (hasDigits, hasSep bool) {
	for {
		switch {
		case s.cur == '_':
			hasSep = true
		case base <= 10 && isDecimal(s.cur):
			hasDigits = true
			if s.cur >= rune('0'+base) && badDigitAt != nil && *badDigitAt < 0 {
				*badDigitAt = s.off
			}
		case base > 10 && isHexadecimal(s.cur):
			hasDigits = true
		default:
			return hasDigits, hasSep
		}
		s.advance()
	}
}

// badSeparator returns the index of the first '_' in lit that is not
// between two digits, or -1. The base prefix counts as a digit.
func badSeparator(lit string) int {
	const (
		other = iota
		digit
		sep
	)

	hex := prefixOf(lit) == 'x'
	prev, i := other, 0
	if prefixOf(lit) != 0 {
		prev, i = digit, 2
	}
	for ; i < len(lit); i++ {
		c := rune(lit[i])
		switch {
		case c == '_':
			if prev != digit {
				return i
			}
			prev = sep
		case isDecimal(c) || (hex && isHexadecimal(c)):
			prev = digit
		default:
			if prev == sep {
				return i - 1
			}
			prev = other
		}
	}
	if prev == sep {
		return len(lit) - 1
	}
	return -1
}

func isDecimal(rn rune) bool { return '0' <= rn && rn <= '9' }

func isHexadecimal(rn rune) bool {
	lc := lower(rn)
	return isDecimal(rn) || ('a' <= lc && lc <= 'f')
}

// prefixBase returns the base indicated by the lowercase prefix letter p, or
// 0 if p is not a base prefix.
func prefixBase(p rune) int {
	switch p {
	case 'x':
		return 16
	case 'o':
		return 8
	case 'b':
		return 2
	}
	return 0
}

func prefixOf(lit string) rune {
	if len(lit) >= 2 && lit[0] == '0' && prefixBase(lower(rune(lit[1]))) != 0 {
		return lower(rune(lit[1]))
	}
	return 0
}

func litname(prefix rune) string {
	switch prefix {
	case 'x':
		return "hexadecimal literal"
	case 'o':
		return "octal literal"
	case 'b':
		return "binary literal"
	}
	return "decimal literal"
}

// lower returns the lowercase of an ASCII letter, other runes are altered
// in unspecified ways.
func lower(ch rune) rune { return ('a' - 'A') | ch }

// intValue decodes an integer literal in base.
func intValue(lit string, base int) (int64, error) {
	if base != 10 {
		lit = lit[2:]
	}
	return strconv.ParseInt(strings.ReplaceAll(lit, "_", ""), base, 64)
}

// floatValue decodes a float literal, ParseFloat accepts the '_' separators.
func floatValue(lit string) (float64, error) {
	return strconv.ParseFloat(lit, 64)
}

// numErrReason strips the function and input from a strconv.NumError.
func numErrReason(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}
