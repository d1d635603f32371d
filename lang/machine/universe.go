package machine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mna/srcfn/lang/types"
)

// Universe defines the set of universal built-ins core to the language. This
// should not be modified, so that the language built-ins are always
// available.
var Universe = map[string]types.Value{
	"fail":  NewBuiltin("fail", builtinFail),
	"float": NewBuiltin("float", builtinFloat),
	"int":   NewBuiltin("int", builtinInt),
	"len":   NewBuiltin("len", builtinLen),
	"print": NewBuiltin("print", builtinPrint),
	"range": NewBuiltin("range", builtinRange),
	"str":   NewBuiltin("str", builtinStr),
	"type":  NewBuiltin("type", builtinType),
}

// IsUniverse returns true if name is a universal built-in. It is suitable as
// the isUniversal argument of the resolver.
func IsUniverse(name string) bool {
	_, ok := Universe[name]
	return ok
}

// checkArgs returns an error if the number of args is not between min and max
// inclusively.
func checkArgs(b *Builtin, args types.Tuple, min, max int) error {
	if len(args) >= min && len(args) <= max {
		return nil
	}
	name := b.Name()
	if b.Receiver() != nil {
		name = b.Receiver().Type() + "." + name
	}
	if min == max {
		return fmt.Errorf("%s: got %d arguments, want %d", name, len(args), min)
	}
	return fmt.Errorf("%s: got %d arguments, want %d to %d", name, len(args), min, max)
}

func builtinFail(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.New("fail")
	}
	return nil, errors.New(toStr(args[0]))
}

func builtinFloat(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case types.Int:
		return types.Float(x), nil
	case types.Float:
		return x, nil
	case types.Bool:
		if x {
			return types.Float(1), nil
		}
		return types.Float(0), nil
	case types.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil, fmt.Errorf("float: invalid literal: %s", x)
		}
		return types.Float(f), nil
	default:
		return nil, fmt.Errorf("float: cannot convert %s", x.Type())
	}
}

func builtinInt(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case types.Int:
		return x, nil
	case types.Float:
		f := math.Trunc(float64(x))
		if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("int: cannot convert %s to integer", x)
		}
		return types.Int(f), nil
	case types.Bool:
		if x {
			return types.Int(1), nil
		}
		return types.Int(0), nil
	case types.String:
		s := strings.ReplaceAll(strings.TrimSpace(string(x)), "_", "")
		i, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("int: invalid literal: %s", x)
		}
		return types.Int(i), nil
	default:
		return nil, fmt.Errorf("int: cannot convert %s", x.Type())
	}
}

func builtinLen(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	n, ok := length(args[0])
	if !ok {
		return nil, fmt.Errorf("len: value of type %s has no len", args[0].Type())
	}
	return types.Int(n), nil
}

func builtinPrint(th *Thread, _ *Builtin, args types.Tuple) (types.Value, error) {
	var sb strings.Builder
	for i, v := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(toStr(v))
	}
	sb.WriteByte('\n')
	if _, err := th.stdout().Write([]byte(sb.String())); err != nil {
		return nil, err
	}
	return types.Nil, nil
}

// range(n) returns 0..n-1, range(a, b) returns a..b-1.
func builtinRange(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 2); err != nil {
		return nil, err
	}
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, err := AsExactInt(a)
		if err != nil {
			return nil, fmt.Errorf("range: %w", err)
		}
		bounds[i] = int64(n)
	}
	if len(bounds) == 1 {
		return types.NewRange(0, bounds[0]-1)
	}
	return types.NewRange(bounds[0], bounds[1]-1)
}

func builtinStr(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	return types.String(toStr(args[0])), nil
}

func builtinType(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	return types.String(args[0].Type()), nil
}

// toStr returns the string form of v, which is the raw string for a String
// and its String representation otherwise.
func toStr(v types.Value) string {
	if s, ok := v.(types.String); ok {
		return string(s)
	}
	return v.String()
}

func length(v types.Value) (int, bool) {
	switch v := v.(type) {
	case types.Sequence:
		return v.Len(), true
	case types.Indexable:
		return v.Len(), true
	}
	return 0, false
}
