package types

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mna/srcfn/lang/token"
)

// Int is a 64-bit signed integer. Iterating over n yields 0 to n-1.
type Int int64

// ErrIntOverflow is returned by integer operations whose result does not fit
// in an Int.
var ErrIntOverflow = errors.New("integer overflow")

var (
	_ Ordered  = Int(0)
	_ Iterable = Int(0)
	_ HasUnary = Int(0)
)

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Type() string   { return "int" }

func (i Int) Cmp(y Value, _ int) (int, error) { return cmp.Compare(i, y.(Int)), nil }

func (i Int) Unary(op token.Token) (Value, error) {
	switch op {
	case token.PLUS:
		return i, nil
	case token.MINUS:
		if i == math.MinInt64 {
			return nil, fmt.Errorf("-%s: %w", i, ErrIntOverflow)
		}
		return -i, nil
	}
	return nil, nil
}

func (i Int) Iterate() Iterator { return &countIterator{end: int64(i)} }

type countIterator struct {
	next, end int64
}

func (it *countIterator) Next(p *Value) bool {
	if it.next >= it.end {
		return false
	}
	*p = Int(it.next)
	it.next++
	return true
}

func (it *countIterator) Done() {}

// Float is a 64-bit floating-point number.
type Float float64

var (
	_ Ordered  = Float(0)
	_ HasUnary = Float(0)
)

// String returns the shortest text that reads back as the same float, with
// a ".0" suffix for integral values.
func (f Float) String() string {
	switch x := float64(f); {
	case math.IsNaN(x):
		return "nan"
	case math.IsInf(x, 0):
		if x > 0 {
			return "+inf"
		}
		return "-inf"
	}

	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (f Float) Type() string { return "float" }

// Cmp orders floats totally, NaN being greater than any other value and
// equal to itself.
func (f Float) Cmp(y Value, _ int) (int, error) {
	x, z := float64(f), float64(y.(Float))
	if xn, zn := math.IsNaN(x), math.IsNaN(z); xn || zn {
		// cmp.Compare orders NaN first
		return -cmp.Compare(x, z), nil
	}
	return cmp.Compare(x, z), nil
}

func (f Float) Unary(op token.Token) (Value, error) {
	switch op {
	case token.PLUS:
		return f, nil
	case token.MINUS:
		return -f, nil
	}
	return nil, nil
}
