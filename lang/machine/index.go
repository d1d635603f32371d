package machine

import (
	"fmt"
	"math"

	"github.com/mna/srcfn/lang/types"
)

// getIndex implements x[y]. A missing map key yields nil.
func getIndex(x, y types.Value) (types.Value, error) {
	if m, ok := x.(types.Mapping); ok {
		v, found, err := m.Get(y)
		if !found {
			v = types.Nil
		}
		return v, err
	}

	ix, ok := x.(types.Indexable)
	if !ok {
		return nil, fmt.Errorf("unsupported index operation %s[%s]", x.Type(), y.Type())
	}
	i, err := indexOf(ix, y)
	if err != nil {
		return nil, err
	}
	return ix.Index(i), nil
}

// setIndex implements x[y] = z.
func setIndex(x, y, z types.Value) error {
	if m, ok := x.(types.HasSetKey); ok {
		return m.SetKey(y, z)
	}

	ix, ok := x.(types.HasSetIndex)
	if !ok {
		return fmt.Errorf("%s value does not support item assignment", x.Type())
	}
	i, err := indexOf(ix, y)
	if err != nil {
		return err
	}
	return ix.SetIndex(i, z)
}

// indexOf converts y to a valid index into x.
func indexOf(x types.Indexable, y types.Value) (int, error) {
	i, err := AsExactInt(y)
	if err != nil {
		return 0, fmt.Errorf("%s index: %w", x.Type(), err)
	}
	return checkIndex(x, i)
}

// checkIndex resolves a negative index i from the end of x and checks that
// it is in range.
func checkIndex(x types.Indexable, i int) (int, error) {
	n := x.Len()
	abs := i
	if abs < 0 {
		abs = n + i
	}
	if abs >= 0 && abs < n {
		return abs, nil
	}
	return 0, fmt.Errorf("%s index %d out of range [%d:%d]", x.Type(), i, -n, n-1)
}

// AsExactInt converts v to an int. Only ints and floats that hold an exact
// integer value can be converted.
func AsExactInt(v types.Value) (int, error) {
	if i, ok := v.(types.Int); ok {
		return int(i), nil
	}
	f, ok := v.(types.Float)
	if !ok {
		return 0, fmt.Errorf("%s cannot be converted to integer", v.Type())
	}
	// NaN and infinities fail the range check or the truncation check
	if x := float64(f); x >= -(1<<63) && x < 1<<63 && x == math.Trunc(x) {
		return int(x), nil
	}
	return 0, fmt.Errorf("no exact integer representation possible for %s value %v", f.Type(), f)
}

// AsString returns the Go string of v if it is a string.
func AsString(v types.Value) (string, bool) {
	s, ok := v.(types.String)
	return string(s), ok
}
