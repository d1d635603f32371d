package types

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// FromGo converts a Go value to the corresponding Value. It supports nil,
// booleans, all integer and float types, strings, json.Number, slices and
// maps with string keys (recursively) and values that already implement
// Value.
func FromGo(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Nil, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(v), nil
	case int16:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(v), nil
	case uint16:
		return Int(v), nil
	case uint32:
		return Int(v), nil
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number: %s", v)
		}
		return Float(f), nil
	case []any:
		elems := make([]Value, len(v))
		for i, e := range v {
			ev, err := FromGo(e)
			if err != nil {
				return nil, err
			}
			elems[i] = ev
		}
		return NewArray(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		m := NewMap(len(v))
		for _, k := range keys {
			ev, err := FromGo(v[k])
			if err != nil {
				return nil, err
			}
			if err := m.SetKey(String(k), ev); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	// fall back to reflection for typed slices (e.g. []int)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		elems := make([]Value, rv.Len())
		for i := range elems {
			ev, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			elems[i] = ev
		}
		return NewArray(elems), nil
	}
	return nil, fmt.Errorf("cannot convert Go value of type %T", v)
}

// ToGo converts v to a plain Go value: nil, bool, int64, float64, string,
// []any or map[string]any. Map keys that are not strings use their String
// representation. Values with no Go equivalent, such as functions, convert
// to their String representation.
func ToGo(v Value) any {
	switch v := v.(type) {
	case nil, NilType:
		return nil
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case *Map:
		m := make(map[string]any, v.Len())
		for _, e := range v.entries {
			k := e.key.String()
			if s, ok := e.key.(String); ok {
				k = string(s)
			}
			m[k] = ToGo(e.val)
		}
		return m
	case Sequence:
		out := make([]any, 0, v.Len())
		it := v.Iterate()
		defer it.Done()
		var x Value
		for it.Next(&x) {
			out = append(out, ToGo(x))
		}
		return out
	default:
		return v.String()
	}
}
