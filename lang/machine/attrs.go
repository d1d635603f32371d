package machine

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mna/srcfn/lang/token"
	"github.com/mna/srcfn/lang/types"
)

// getAttr implements x.name. Attributes that take no argument are properties
// and evaluate to their value directly, the others evaluate to a builtin
// method bound to x.
func getAttr(x types.Value, name string) (types.Value, error) {
	var (
		v   types.Value
		err error
	)
	switch x := x.(type) {
	case types.HasAttrs:
		v, err = x.Attr(name)
	case types.Int:
		v, err = intAttr(x, name)
	case types.Float:
		v, err = floatAttr(x, name)
	case types.String:
		v = stringAttr(x, name)
	case *types.Array:
		v, err = arrayAttr(x, name)
	case types.Range:
		v, err = rangeAttr(x, name)
	case *types.Map:
		v = mapAttr(x, name)
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%s has no .%s field or method", x.Type(), name)
	}
	return v, nil
}

// AttrNames returns the names of the attributes supported by x, sorted.
func AttrNames(x types.Value) []string {
	switch x := x.(type) {
	case types.HasAttrs:
		return x.AttrNames()
	case types.Int, types.Float:
		return []string{"abs", "even?", "negative?", "odd?", "positive?", "to_f", "to_i", "to_s", "zero?"}
	case types.String:
		return []string{"downcase", "empty?", "reverse", "size", "upcase"}
	case *types.Array:
		return []string{"each", "empty?", "first", "include?", "last", "map", "push", "reduce", "reject", "select", "size", "sum"}
	case types.Range:
		return []string{"each", "include?", "map", "reduce", "reject", "select", "size", "sum", "to_a"}
	case *types.Map:
		return []string{"get", "has?", "keys", "size", "values"}
	}
	return nil
}

func intAttr(i types.Int, name string) (types.Value, error) {
	switch name {
	case "zero?":
		return types.Bool(i == 0), nil
	case "even?":
		return types.Bool(i%2 == 0), nil
	case "odd?":
		return types.Bool(i%2 != 0), nil
	case "positive?":
		return types.Bool(i > 0), nil
	case "negative?":
		return types.Bool(i < 0), nil
	case "abs":
		if i < 0 {
			return i.Unary(token.MINUS)
		}
		return i, nil
	case "to_s":
		return types.String(i.String()), nil
	case "to_f":
		return types.Float(i), nil
	case "to_i":
		return i, nil
	}
	return nil, nil
}

func floatAttr(f types.Float, name string) (types.Value, error) {
	switch name {
	case "zero?":
		return types.Bool(f == 0), nil
	case "even?", "odd?":
		i, err := AsExactInt(f)
		if err != nil {
			return types.False, nil
		}
		if name == "even?" {
			return types.Bool(i%2 == 0), nil
		}
		return types.Bool(i%2 != 0), nil
	case "positive?":
		return types.Bool(f > 0), nil
	case "negative?":
		return types.Bool(f < 0), nil
	case "abs":
		return types.Float(math.Abs(float64(f))), nil
	case "to_s":
		return types.String(f.String()), nil
	case "to_f":
		return f, nil
	case "to_i":
		t := math.Trunc(float64(f))
		if math.IsNaN(t) || math.IsInf(t, 0) || t < math.MinInt64 || t >= math.MaxInt64 {
			return nil, fmt.Errorf("cannot convert %s to integer", f)
		}
		return types.Int(t), nil
	}
	return nil, nil
}

func stringAttr(s types.String, name string) types.Value {
	switch name {
	case "size":
		return types.Int(utf8.RuneCountInString(string(s)))
	case "empty?":
		return types.Bool(s == "")
	case "upcase":
		return types.String(strings.ToUpper(string(s)))
	case "downcase":
		return types.String(strings.ToLower(string(s)))
	case "reverse":
		rs := []rune(string(s))
		for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
			rs[i], rs[j] = rs[j], rs[i]
		}
		return types.String(rs)
	}
	return nil
}

var seqMethods = map[string]*Builtin{
	"each":     NewBuiltin("each", seqEach),
	"include?": NewBuiltin("include?", seqInclude),
	"map":      NewBuiltin("map", seqMap),
	"reduce":   NewBuiltin("reduce", seqReduce),
	"reject":   NewBuiltin("reject", seqReject),
	"select":   NewBuiltin("select", seqSelect),
}

func arrayAttr(a *types.Array, name string) (types.Value, error) {
	switch name {
	case "size":
		return types.Int(a.Len()), nil
	case "empty?":
		return types.Bool(a.Len() == 0), nil
	case "first":
		if a.Len() == 0 {
			return types.Nil, nil
		}
		return a.Index(0), nil
	case "last":
		if a.Len() == 0 {
			return types.Nil, nil
		}
		return a.Index(a.Len() - 1), nil
	case "sum":
		return seqSum(a)
	case "push":
		return NewBuiltin("push", arrayPush).BindReceiver(a), nil
	}
	if m := seqMethods[name]; m != nil {
		return m.BindReceiver(a), nil
	}
	return nil, nil
}

func rangeAttr(r types.Range, name string) (types.Value, error) {
	switch name {
	case "size":
		return types.Int(r.Len()), nil
	case "to_a":
		return types.NewArray(collect(r)), nil
	case "sum":
		return seqSum(r)
	}
	if m := seqMethods[name]; m != nil {
		return m.BindReceiver(r), nil
	}
	return nil, nil
}

var mapMethods = map[string]*Builtin{
	"get":  NewBuiltin("get", mapGet),
	"has?": NewBuiltin("has?", mapHas),
}

func mapAttr(m *types.Map, name string) types.Value {
	switch name {
	case "size":
		return types.Int(m.Len())
	case "keys":
		return types.NewArray(m.Keys())
	case "values":
		return types.NewArray(m.Values())
	}
	if b := mapMethods[name]; b != nil {
		return b.BindReceiver(m)
	}
	return nil
}

func collect(it types.Iterable) []types.Value {
	var out []types.Value
	if s, ok := it.(types.Sequence); ok {
		out = make([]types.Value, 0, s.Len())
	}
	iter := it.Iterate()
	defer iter.Done()
	var x types.Value
	for iter.Next(&x) {
		out = append(out, x)
	}
	return out
}

func seqSum(it types.Iterable) (types.Value, error) {
	var sum types.Value = types.Int(0)
	iter := it.Iterate()
	defer iter.Done()
	var x types.Value
	for iter.Next(&x) {
		v, err := Binary(token.PLUS, sum, x)
		if err != nil {
			return nil, fmt.Errorf("sum: %w", err)
		}
		sum = v
	}
	return sum, nil
}

// forEach calls f with each element of the receiver of b.
func forEach(th *Thread, b *Builtin, f types.Value, do func(x, res types.Value) error) error {
	it, ok := b.Receiver().(types.Iterable)
	if !ok {
		return fmt.Errorf("%s: %s value is not iterable", b.Name(), b.Receiver().Type())
	}
	iter := it.Iterate()
	defer iter.Done()
	var x types.Value
	for iter.Next(&x) {
		res, err := Call(th, f, types.Tuple{x})
		if err != nil {
			return err
		}
		if err := do(x, res); err != nil {
			return err
		}
	}
	return nil
}

func seqEach(th *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	err := forEach(th, b, args[0], func(_, _ types.Value) error { return nil })
	if err != nil {
		return nil, err
	}
	return b.Receiver(), nil
}

func seqMap(th *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	var out []types.Value
	err := forEach(th, b, args[0], func(_, res types.Value) error {
		out = append(out, res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return types.NewArray(out), nil
}

func seqFilter(th *Thread, b *Builtin, args types.Tuple, keep bool) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	var out []types.Value
	err := forEach(th, b, args[0], func(x, res types.Value) error {
		if bool(Truth(res)) == keep {
			out = append(out, x)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return types.NewArray(out), nil
}

func seqSelect(th *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	return seqFilter(th, b, args, true)
}

func seqReject(th *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	return seqFilter(th, b, args, false)
}

func seqReduce(th *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 2, 2); err != nil {
		return nil, err
	}
	it, ok := b.Receiver().(types.Iterable)
	if !ok {
		return nil, fmt.Errorf("reduce: %s value is not iterable", b.Receiver().Type())
	}
	acc, f := args[0], args[1]
	iter := it.Iterate()
	defer iter.Done()
	var x types.Value
	for iter.Next(&x) {
		v, err := Call(th, f, types.Tuple{acc, x})
		if err != nil {
			return nil, err
		}
		acc = v
	}
	return acc, nil
}

func seqInclude(th *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	if r, ok := b.Receiver().(types.Range); ok {
		n, err := AsExactInt(args[0])
		if err != nil {
			return types.False, nil
		}
		return types.Bool(r.Contains(int64(n))), nil
	}

	it := b.Receiver().(types.Iterable)
	iter := it.Iterate()
	defer iter.Done()
	var x types.Value
	for iter.Next(&x) {
		eq, err := CompareDepth(token.EQEQ, x, args[0], th.maxCompareDepth)
		if err != nil {
			return nil, err
		}
		if eq {
			return types.True, nil
		}
	}
	return types.False, nil
}

func arrayPush(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	a := b.Receiver().(*types.Array)
	if err := a.Append(args[0]); err != nil {
		return nil, err
	}
	return a, nil
}

func mapGet(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 2); err != nil {
		return nil, err
	}
	m := b.Receiver().(*types.Map)
	v, ok, err := m.Get(args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		if len(args) == 2 {
			return args[1], nil
		}
		return types.Nil, nil
	}
	return v, nil
}

func mapHas(_ *Thread, b *Builtin, args types.Tuple) (types.Value, error) {
	if err := checkArgs(b, args, 1, 1); err != nil {
		return nil, err
	}
	m := b.Receiver().(*types.Map)
	_, ok, err := m.Get(args[0])
	if err != nil {
		return nil, err
	}
	return types.Bool(ok), nil
}
