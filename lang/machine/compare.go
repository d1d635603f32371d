package machine

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/mna/srcfn/lang/token"
	"github.com/mna/srcfn/lang/types"
)

// Compare returns the result of the comparison op applied to x and y, using
// the default maximum comparison depth.
func Compare(op token.Token, x, y types.Value) (bool, error) {
	return CompareDepth(op, x, y, defaultMaxCompareDepth)
}

// CompareDepth applies the comparison op (one of EQEQ, BANGEQ, LT, LE, GT or
// GE) to x and y. Values of the same type that are not ordered, and values
// of different types other than numbers, only support equality, which is
// identity. The depth bounds the recursion into compound values.
func CompareDepth(op token.Token, x, y types.Value, depth uint64) (bool, error) {
	if depth < 1 {
		return false, errors.New("comparison exceeded maximum recursion depth")
	}

	c, ordered, err := order(x, y, depth)
	if err != nil {
		return false, err
	}
	if ordered {
		return threeway(op, c), nil
	}

	switch op {
	case token.EQEQ:
		return identical(x, y), nil
	case token.BANGEQ:
		return !identical(x, y), nil
	}
	return false, fmt.Errorf("%s %s %s not implemented", x.Type(), op, y.Type())
}

// order returns the three-way comparison of x and y, with ordered set to
// false if the values have no order relative to each other.
func order(x, y types.Value, depth uint64) (c int, ordered bool, err error) {
	if sameType(x, y) {
		switch x := x.(type) {
		case types.Ordered:
			c, err = x.Cmp(y, int(depth))
			return c, true, err
		case types.Tuple:
			c, err = cmpTuple(x, y.(types.Tuple), depth-1)
			return c, true, err
		}
		return 0, false, nil
	}

	switch x := x.(type) {
	case types.Int:
		if y, ok := y.(types.Float); ok {
			return cmpIntFloat(x, y), true, nil
		}
	case types.Float:
		if y, ok := y.(types.Int); ok {
			return -cmpIntFloat(y, x), true, nil
		}
	}
	return 0, false, nil
}

// cmpIntFloat compares an int with a float. NaN is greater than any int.
func cmpIntFloat(i types.Int, f types.Float) int {
	switch {
	case math.IsNaN(float64(f)), math.IsInf(float64(f), 1):
		return -1
	case math.IsInf(float64(f), -1):
		return +1
	}
	return cmp.Compare(float64(i), float64(f))
}

// cmpTuple compares tuples lexicographically. Elements without an order must
// be identical.
func cmpTuple(x, y types.Tuple, depth uint64) (int, error) {
	if depth < 1 {
		return 0, errors.New("comparison exceeded maximum recursion depth")
	}
	for i := range min(len(x), len(y)) {
		c, ordered, err := order(x[i], y[i], depth)
		if err != nil {
			return 0, err
		}
		if !ordered {
			if identical(x[i], y[i]) {
				continue
			}
			return 0, fmt.Errorf("%s %s %s not implemented", x[i].Type(), token.LT, y[i].Type())
		}
		if c != 0 {
			return c, nil
		}
	}
	return cmp.Compare(len(x), len(y)), nil
}

func sameType(x, y types.Value) bool {
	return reflect.TypeOf(x) == reflect.TypeOf(y)
}

func identical(x, y types.Value) bool {
	return sameType(x, y) && x == y
}

// threeway converts the three-way comparison result c to the boolean result
// of op.
func threeway(op token.Token, c int) bool {
	switch op {
	case token.EQEQ:
		return c == 0
	case token.BANGEQ:
		return c != 0
	case token.LT:
		return c < 0
	case token.LE:
		return c <= 0
	case token.GT:
		return c > 0
	case token.GE:
		return c >= 0
	}
	panic(fmt.Sprintf("invalid comparison operator: %s", op))
}
