// Some of the errors are adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/errors.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scanner

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/mna/srcfn/lang/token"
)

// Error is a diagnostic reported at a specific position in a source file.
type Error struct {
	Filename string
	Pos      token.Pos
	Msg      string
}

func (e Error) Error() string {
	if e.Filename != "" || !e.Pos.Unknown() {
		return token.FormatPos(token.PosLong, e.Filename, e.Pos) + ": " + e.Msg
	}
	return e.Msg
}

// ErrorList is a list of *Error values. The zero value is an empty list
// ready to use.
type ErrorList []*Error

// Add adds an Error with the provided position and message to the list.
func (p *ErrorList) Add(filename string, pos token.Pos, msg string) {
	*p = append(*p, &Error{Filename: filename, Pos: pos, Msg: msg})
}

// Reset resets the list to no errors.
func (p *ErrorList) Reset() { *p = (*p)[0:0] }

func (p ErrorList) Len() int      { return len(p) }
func (p ErrorList) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p ErrorList) Less(i, j int) bool {
	e, f := p[i], p[j]
	if e.Filename != f.Filename {
		return e.Filename < f.Filename
	}
	if e.Pos != f.Pos {
		return e.Pos.Before(f.Pos)
	}
	return e.Msg < f.Msg
}

// Sort sorts the list by filename, then position, then message.
func (p ErrorList) Sort() {
	sort.Stable(p)
}

// RemoveMultiples sorts the list and removes all but the first error per
// line.
func (p *ErrorList) RemoveMultiples() {
	sort.Stable(p)
	var last *Error
	i := 0
	for _, e := range *p {
		if last != nil && e.Filename == last.Filename {
			l1, _ := e.Pos.LineCol()
			l2, _ := last.Pos.LineCol()
			if l1 == l2 {
				continue
			}
		}
		last = e
		(*p)[i] = e
		i++
	}
	(*p) = (*p)[0:i]
}

func (p ErrorList) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0], len(p)-1)
}

// Unwrap returns the errors of the list, so that errors.Is and errors.As
// can inspect each one.
func (p ErrorList) Unwrap() []error {
	errs := make([]error, len(p))
	for i, e := range p {
		errs[i] = e
	}
	return errs
}

// Err returns an error equivalent to this error list. If the list is empty,
// Err returns nil.
func (p ErrorList) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// PrintError is a utility function that prints a list of errors to w, one
// error per line, if the err parameter is an ErrorList. Otherwise it prints
// the err string.
func PrintError(w io.Writer, err error) {
	var list ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			fmt.Fprintf(w, "%s\n", e)
		}
	} else if err != nil {
		fmt.Fprintf(w, "%s\n", err)
	}
}
