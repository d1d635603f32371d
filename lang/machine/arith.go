package machine

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/mna/srcfn/lang/token"
	"github.com/mna/srcfn/lang/types"
)

// Unary applies the unary operator op (PLUS or MINUS) to x.
func Unary(op token.Token, x types.Value) (types.Value, error) {
	if u, ok := x.(types.HasUnary); ok {
		if y, err := u.Unary(op); y != nil || err != nil {
			return y, err
		}
	}
	return nil, fmt.Errorf("unsupported unary op: %s%s", op, x.Type())
}

// Binary applies the arithmetic or range operator op to l and r. The
// comparison operators are implemented by Compare, and the logical ones are
// compiled as jumps.
//
// Arithmetic on two ints is done on ints, except for "/" which always
// produces a float and "**" with a negative exponent. Otherwise numbers are
// converted to floats. An int result that overflows is an error wrapping
// types.ErrIntOverflow.
func Binary(op token.Token, l, r types.Value) (types.Value, error) {
	var (
		v   types.Value
		err error
	)
	switch op {
	case token.PLUS:
		if v = concat(l, r); v == nil {
			v, err = arith(op, l, r)
		}
	case token.MINUS, token.STAR, token.SLASH, token.SLASHSLASH, token.PERCENT, token.STARSTAR:
		v, err = arith(op, l, r)
	case token.DOTDOT:
		v, err = makeRange(l, r)
	default:
		return nil, unsupportedBinary(op, l, r)
	}
	if v != nil || err != nil {
		return v, err
	}

	// values that implement the operator themselves, (nil, nil) if they don't
	if lb, ok := l.(types.HasBinary); ok {
		if v, err := lb.Binary(op, r, types.Left); v != nil || err != nil {
			return v, err
		}
	}
	if rb, ok := r.(types.HasBinary); ok {
		if v, err := rb.Binary(op, l, types.Right); v != nil || err != nil {
			return v, err
		}
	}
	return nil, unsupportedBinary(op, l, r)
}

func unsupportedBinary(op token.Token, l, r types.Value) error {
	return fmt.Errorf("unsupported binary op: %s %s %s", l.Type(), op, r.Type())
}

// concat returns the concatenation of two strings or two arrays, or nil.
func concat(l, r types.Value) types.Value {
	switch l := l.(type) {
	case types.String:
		if r, ok := r.(types.String); ok {
			return l + r
		}
	case *types.Array:
		if r, ok := r.(*types.Array); ok {
			elems := make([]types.Value, 0, l.Len()+r.Len())
			elems = append(elems, l.Values()...)
			return types.NewArray(append(elems, r.Values()...))
		}
	}
	return nil
}

// arith applies the arithmetic op to l and r, or returns (nil, nil) if they
// are not both numbers.
func arith(op token.Token, l, r types.Value) (types.Value, error) {
	li, lok := l.(types.Int)
	ri, rok := r.(types.Int)
	if lok && rok {
		if v, err := intArith(op, li, ri); v != nil || err != nil {
			return v, err
		}
	}

	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return nil, nil
	}
	return floatArith(op, lf, rf)
}

// intArith returns (nil, nil) for the operations that are done on floats
// even if both operands are ints.
func intArith(op token.Token, l, r types.Int) (types.Value, error) {
	var (
		v  types.Int
		ok = true
	)
	switch op {
	case token.PLUS:
		v, ok = addInt(l, r)
	case token.MINUS:
		v, ok = subInt(l, r)
	case token.STAR:
		v, ok = mulInt(l, r)
	case token.SLASHSLASH:
		if r == 0 {
			return nil, errors.New("floored division by zero")
		}
		v, ok = floorDiv(l, r)
	case token.PERCENT:
		if r == 0 {
			return nil, errors.New("integer modulo by zero")
		}
		v = modInt(l, r)
	case token.STARSTAR:
		if r < 0 {
			return nil, nil
		}
		v, ok = powInt(l, r)
	default:
		return nil, nil
	}
	if !ok {
		return nil, fmt.Errorf("%s %s %s: %w", l, op, r, types.ErrIntOverflow)
	}
	return v, nil
}

func floatArith(op token.Token, l, r types.Float) (types.Value, error) {
	switch op {
	case token.PLUS:
		return l + r, nil
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return nil, errors.New("floating-point division by zero")
		}
		return l / r, nil
	case token.SLASHSLASH:
		if r == 0 {
			return nil, errors.New("floored division by zero")
		}
		return types.Float(math.Floor(float64(l / r))), nil
	case token.PERCENT:
		if r == 0 {
			return nil, errors.New("floating-point modulo by zero")
		}
		return modFloat(l, r), nil
	case token.STARSTAR:
		return types.Float(math.Pow(float64(l), float64(r))), nil
	}
	return nil, nil
}

// makeRange creates the inclusive range l..r. Floats are accepted if they
// hold an exact integer.
func makeRange(l, r types.Value) (types.Value, error) {
	if _, ok := asFloat(l); !ok {
		return nil, nil
	}
	if _, ok := asFloat(r); !ok {
		return nil, nil
	}
	start, err := AsExactInt(l)
	if err != nil {
		return nil, err
	}
	end, err := AsExactInt(r)
	if err != nil {
		return nil, err
	}
	return types.NewRange(int64(start), int64(end))
}

func asFloat(v types.Value) (types.Float, bool) {
	switch v := v.(type) {
	case types.Int:
		return types.Float(v), true
	case types.Float:
		return v, true
	}
	return 0, false
}

// floorDiv rounds the quotient towards negative infinity.
func floorDiv(l, r types.Int) (types.Int, bool) {
	if l == math.MinInt64 && r == -1 {
		return 0, false
	}
	q := l / r
	if (l%r != 0) && ((l < 0) != (r < 0)) {
		q--
	}
	return q, true
}

// modInt is the int version of modFloat.
func modInt(l, r types.Int) types.Int {
	m := l % r
	if m != 0 && (m < 0) != (r < 0) {
		m += r
	}
	return m
}

// modFloat returns the remainder with the sign of the divisor.
func modFloat(l, r types.Float) types.Float {
	v := types.Float(math.Mod(float64(l), float64(r)))
	if v != 0 && (v < 0) != (r < 0) {
		v += r
	}
	return v
}

func addInt(l, r types.Int) (types.Int, bool) {
	v := l + r
	return v, (v > l) == (r > 0)
}

func subInt(l, r types.Int) (types.Int, bool) {
	v := l - r
	return v, (v < l) == (r > 0)
}

func mulInt(l, r types.Int) (types.Int, bool) {
	if l == 0 || r == 0 {
		return 0, true
	}
	hi, lo := bits.Mul64(uint64(absInt(l)), uint64(absInt(r)))
	neg := (l < 0) != (r < 0)
	switch {
	case hi != 0, lo > 1<<63, lo == 1<<63 && !neg:
		return 0, false
	case neg:
		return types.Int(-lo), true
	}
	return types.Int(lo), true
}

// absInt returns the absolute value of i as a two's complement bit pattern,
// so that it is correct for math.MinInt64 once converted to uint64.
func absInt(i types.Int) types.Int {
	if i < 0 {
		return -i
	}
	return i
}

// powInt computes b**e by repeated squaring, ok is false on overflow.
func powInt(b, e types.Int) (res types.Int, ok bool) {
	res = 1
	for {
		if e&1 == 1 {
			if res, ok = mulInt(res, b); !ok {
				return 0, false
			}
		}
		if e >>= 1; e == 0 {
			return res, true
		}
		if b, ok = mulInt(b, b); !ok {
			return 0, false
		}
	}
}
