// Some of the scanner package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mna/srcfn/lang/token"
)

// TokenAndValue is a scanned token with its details.
type TokenAndValue struct {
	Token token.Token
	Value token.Value
}

// ScanFiles tokenizes each file up to and including its EOF token. The
// tokens of files[i] are at index i, nil if the file could not be read. The
// error, if non-nil, is a sorted ErrorList or the error of ctx.
func ScanFiles(ctx context.Context, files ...string) ([][]TokenAndValue, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var errs ErrorList
	res := make([][]TokenAndValue, len(files))
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		src, err := os.ReadFile(file)
		if err != nil {
			errs.Add(file, token.NoPos, err.Error())
			continue
		}
		res[i] = scanAll(file, src, &errs)
	}
	errs.Sort()
	return res, errs.Err()
}

// ScanSource is like ScanFiles for a single source held in memory.
func ScanSource(filename string, src []byte) ([]TokenAndValue, error) {
	var errs ErrorList
	toks := scanAll(filename, src, &errs)
	errs.Sort()
	return toks, errs.Err()
}

func scanAll(filename string, src []byte, errs *ErrorList) (toks []TokenAndValue) {
	var s Scanner
	s.Init(filename, src, errs.Add)
	for {
		var tv TokenAndValue
		tv.Token = s.Scan(&tv.Value)
		toks = append(toks, tv)
		if tv.Token == token.EOF {
			return toks
		}
	}
}

// ErrorHandler receives the errors found by the Scanner.
type ErrorHandler func(filename string, pos token.Pos, msg string)

// Scanner splits a source into tokens, one call to Scan at a time. The zero
// value must be initialized with Init or InitAt before use.
type Scanner struct {
	filename string
	src      []byte
	err      ErrorHandler

	lit         litBuffer // decoded string literal
	invalidByte byte      // byte that failed to decode when cur is utf8.RuneError
	cur         rune      // current character, -1 at EOF
	line, col   int       // position of cur
	off         int       // offset of cur
	roff        int       // offset of the character after cur
}

// Init prepares s to scan src, which starts at line 1. Errors are reported
// to errHandler if it is not nil.
func (s *Scanner) Init(filename string, src []byte, errHandler ErrorHandler) {
	s.InitAt(filename, src, 1, errHandler)
}

// InitAt is like Init, with src starting at the given line. Positions on
// line 0 are unknown, which allows src to start with a synthetic line that
// does not exist in the source known to the user.
func (s *Scanner) InitAt(filename string, src []byte, line int, errHandler ErrorHandler) {
	*s = Scanner{filename: filename, src: src, err: errHandler, cur: ' ', line: line}
	s.lit.reset()

	// a leading byte order mark is ignored
	if bytes.HasPrefix(src, []byte("\uFEFF")) {
		s.off, s.roff = 3, 3
	}
	s.advance()
}

// peek returns the byte after the current character, 0 at the end of the
// source.
func (s *Scanner) peek() byte {
	if s.roff >= len(s.src) {
		return 0
	}
	return s.src[s.roff]
}

// advance moves to the next character. At the end of the source, cur is -1
// and the column is one past the last character.
func (s *Scanner) advance() {
	if s.cur == '\n' {
		s.line, s.col = s.line+1, 0
	}
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		if s.cur >= 0 {
			s.col++
		}
		s.cur = -1
		return
	}

	s.off = s.roff
	s.invalidByte = 0
	r, w := rune(s.src[s.off]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.off:])
		if r == utf8.RuneError && w == 1 {
			s.invalidByte = s.src[s.off]
			s.error(s.line, s.col+1, "illegal UTF-8 encoding")
		}
	}
	s.roff += w
	s.cur = r
	s.col++
}

func (s *Scanner) error(line, col int, msg string) {
	if s.err != nil {
		s.err(s.filename, makePos(line, col), msg)
	}
}

func (s *Scanner) errorf(line, col int, format string, args ...any) {
	s.error(line, col, fmt.Sprintf(format, args...))
}

// makePos panics if the position exceeds the limits of token.Pos.
func makePos(line, col int) token.Pos {
	switch {
	case line > token.MaxLines:
		panic(fmt.Sprintf("number of lines exceeded: %d", line))
	case col > token.MaxCols:
		panic(fmt.Sprintf("number of columns exceeded at line %d: %d", line, col))
	}
	return token.MakePos(line, col)
}

// advanceIf consumes the current character if it is one of chars.
func (s *Scanner) advanceIf(chars string) bool {
	if s.cur < 0 || !strings.ContainsRune(chars, s.cur) {
		return false
	}
	s.advance()
	return true
}

// Scan returns the next token in the source file.
func (s *Scanner) Scan(tokVal *token.Value) (tok token.Token) {
	s.skipWhitespace()

	// current token start
	startOff, startLine, startCol := s.off, s.line, s.col
	pos := makePos(startLine, startCol)

	switch cur := s.cur; {
	case isLetter(cur):
		// keywords and identifiers
		lit := s.ident()
		tok = token.IDENT
		if len(lit) > 1 {
			// keywords are longer than one letter - avoid lookup otherwise
			tok = token.LookupKw(lit)
		}
		*tokVal = token.Value{Raw: lit, Pos: pos}

	case isDecimal(cur):
		tok = s.numberToken(tokVal, pos)

	default:
		s.advance() // always make progress
		switch {
		case cur == '"' || cur == '\'':
			tok = token.STRING
			lit, val := s.shortString(cur)
			*tokVal = token.Value{Raw: lit, Pos: pos, String: val}
			return tok

		case cur == '#':
			tok = token.COMMENT
			lit, val := s.comment()
			*tokVal = token.Value{Raw: lit, Pos: pos, String: val}
			return tok

		case cur < 0:
			tok = token.EOF

		case strings.ContainsRune(punctStart, cur):
			if tok = s.punct(cur); tok == token.ILLEGAL {
				s.errorf(startLine, startCol, "illegal character %#U", cur)
			}

		default:
			if cur == utf8.RuneError && s.invalidByte > 0 {
				cur = rune(s.invalidByte)
				s.invalidByte = 0
			}
			s.errorf(startLine, startCol, "illegal character %#U", cur)
			*tokVal = token.Value{Raw: string(cur), Pos: pos}
			return token.ILLEGAL
		}
		*tokVal = token.Value{Raw: string(s.src[startOff:s.off]), Pos: pos}
	}
	return tok
}

// punctStart is the set of characters that start a punctuation.
const punctStart = ";,{}[]():|%+-*/.=<>!"

// punct scans the longest punctuation that starts with first, which is
// already consumed. It returns ILLEGAL if there is none.
func (s *Scanner) punct(first rune) token.Token {
	op := string(first)
	for s.cur > 0 && s.cur < utf8.RuneSelf {
		longer := op + string(s.cur)
		if token.LookupPunct(longer) == token.ILLEGAL {
			break
		}
		op = longer
		s.advance()
	}
	return token.LookupPunct(op)
}

// numberToken scans a number literal and decodes its value.
func (s *Scanner) numberToken(tokVal *token.Value, pos token.Pos) token.Token {
	line, col := s.line, s.col
	tok, base, lit := s.number()
	*tokVal = token.Value{Raw: lit, Pos: pos}

	var err error
	switch tok {
	case token.INT:
		tokVal.Int, err = intValue(lit, base)
		if errors.Is(err, strconv.ErrRange) {
			s.errorf(line, col, "invalid %s: %s", litname(prefixOf(lit)), numErrReason(err))
		}
	case token.FLOAT:
		tokVal.Float, err = floatValue(lit)
		if errors.Is(err, strconv.ErrRange) {
			s.errorf(line, col, "invalid float literal: %s", numErrReason(err))
		}
	}
	return tok
}

// ident scans an identifier, which may end with a single '?'.
func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	s.advanceIf("?")
	return string(s.src[start:s.off])
}

func (s *Scanner) skipWhitespace() {
	for isWhitespace(s.cur) {
		s.advance()
	}
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func isLetter(r rune) bool {
	if r < utf8.RuneSelf {
		return r == '_' || 'a' <= lower(r) && lower(r) <= 'z'
	}
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	if r < utf8.RuneSelf {
		return '0' <= r && r <= '9'
	}
	return unicode.IsDigit(r)
}
