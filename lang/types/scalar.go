package types

import (
	"strconv"
	"strings"
)

// NilType is the type of Nil, its only value.
type NilType struct{}

// Nil is the absence of a value, and the result of a function that does not
// return one.
var Nil = NilType{}

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }

// Bool is a boolean value.
type Bool bool

const (
	False Bool = false
	True  Bool = true
)

var _ Ordered = False

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }
func (b Bool) Type() string   { return "bool" }

// Cmp orders false before true.
func (b Bool) Cmp(y Value, _ int) (int, error) {
	switch c := y.(Bool); {
	case b == c:
		return 0, nil
	case bool(b):
		return 1, nil
	default:
		return -1, nil
	}
}

// String is an immutable byte string. Its elements are single-byte strings.
type String string

var (
	_ Ordered   = String("")
	_ Indexable = String("")
)

func (s String) String() string    { return strconv.Quote(string(s)) }
func (s String) Type() string      { return "string" }
func (s String) Len() int          { return len(s) }
func (s String) Index(i int) Value { return s[i : i+1] }

func (s String) Cmp(y Value, _ int) (int, error) {
	return strings.Compare(string(s), string(y.(String))), nil
}
