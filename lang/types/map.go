package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/dolthub/swiss"
)

// A Map represents a map or dictionary. Keys are restricted to nil, bool,
// int, float and string values, and a float key with an exact integer value
// is the same key as that integer. Iteration yields (key, value) tuples in
// insertion order.
type Map struct {
	index     *swiss.Map[Value, int]
	entries   []mapEntry
	itercount uint32
}

type mapEntry struct {
	key, val Value
}

var (
	_ Value     = (*Map)(nil)
	_ Mapping   = (*Map)(nil)
	_ HasSetKey = (*Map)(nil)
	_ Sequence  = (*Map)(nil)
)

// NewMap returns a map with initial capacity for at least size items.
func NewMap(size int) *Map {
	return &Map{
		index:   swiss.NewMap[Value, int](uint32(size)),
		entries: make([]mapEntry, 0, size),
	}
}

func (m *Map) String() string {
	var sb strings.Builder
	m.format(&sb, maxFormatDepth)
	return sb.String()
}

func (m *Map) format(sb *strings.Builder, depth int) {
	sb.WriteString("{")
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeValue(sb, e.key, depth)
		sb.WriteString(": ")
		writeValue(sb, e.val, depth)
	}
	sb.WriteString("}")
}

func (m *Map) Type() string { return "map" }
func (m *Map) Len() int     { return len(m.entries) }

// Get returns the value associated with k. It fails if k is not a valid key
// type.
func (m *Map) Get(k Value) (Value, bool, error) {
	k, err := mapKey(k)
	if err != nil {
		return nil, false, err
	}
	if i, ok := m.index.Get(k); ok {
		return m.entries[i].val, true, nil
	}
	return nil, false, nil
}

// SetKey associates v with k, replacing any existing value.
func (m *Map) SetKey(k, v Value) error {
	if err := m.checkMutable("insert into"); err != nil {
		return err
	}
	k, err := mapKey(k)
	if err != nil {
		return err
	}
	if i, ok := m.index.Get(k); ok {
		m.entries[i].val = v
		return nil
	}
	m.index.Put(k, len(m.entries))
	m.entries = append(m.entries, mapEntry{key: k, val: v})
	return nil
}

// Delete removes k from the map and returns the value it had, if any.
func (m *Map) Delete(k Value) (Value, bool, error) {
	if err := m.checkMutable("delete from"); err != nil {
		return nil, false, err
	}
	k, err := mapKey(k)
	if err != nil {
		return nil, false, err
	}
	i, ok := m.index.Get(k)
	if !ok {
		return nil, false, nil
	}
	v := m.entries[i].val
	m.index.Delete(k)
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	for j := i; j < len(m.entries); j++ {
		m.index.Put(m.entries[j].key, j)
	}
	return v, true, nil
}

// Keys returns the keys of the map in insertion order.
func (m *Map) Keys() []Value {
	keys := make([]Value, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// Values returns the values of the map in insertion order.
func (m *Map) Values() []Value {
	vals := make([]Value, len(m.entries))
	for i, e := range m.entries {
		vals[i] = e.val
	}
	return vals
}

func (m *Map) Iterate() Iterator {
	m.itercount++
	return &mapIterator{m: m}
}

func (m *Map) checkMutable(verb string) error {
	if m.itercount > 0 {
		return fmt.Errorf("cannot %s map during iteration", verb)
	}
	return nil
}

// mapKey validates and normalizes k for use as a map key.
func mapKey(k Value) (Value, error) {
	switch k := k.(type) {
	case NilType, Bool, Int, String:
		return k, nil
	case Float:
		f := float64(k)
		if math.IsNaN(f) {
			return nil, fmt.Errorf("invalid map key: nan")
		}
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return Int(int64(f)), nil
		}
		return k, nil
	default:
		return nil, fmt.Errorf("unhashable type: %s", k.Type())
	}
}

type mapIterator struct {
	m *Map
	i int
}

func (it *mapIterator) Next(p *Value) bool {
	if it.i < len(it.m.entries) {
		e := it.m.entries[it.i]
		*p = Tuple{e.key, e.val}
		it.i++
		return true
	}
	return false
}

func (it *mapIterator) Done() {
	it.m.itercount--
}
