package types

import (
	"fmt"
	"strings"
)

// Array is a mutable list of values. It cannot be modified while it is being
// iterated over.
type Array struct {
	elems []Value
	iters int // active iterators
}

var (
	_ Sequence    = (*Array)(nil)
	_ HasSetIndex = (*Array)(nil)
)

// NewArray returns an array that takes ownership of elems.
func NewArray(elems []Value) *Array { return &Array{elems: elems} }

func (a *Array) String() string {
	var sb strings.Builder
	a.format(&sb, maxFormatDepth)
	return sb.String()
}

func (a *Array) format(sb *strings.Builder, depth int) {
	writeList(sb, "[", "]", a.elems, depth)
}

func (a *Array) Type() string      { return "array" }
func (a *Array) Len() int          { return len(a.elems) }
func (a *Array) Index(i int) Value { return a.elems[i] }

// Values returns a copy of the elements.
func (a *Array) Values() []Value { return append([]Value(nil), a.elems...) }

func (a *Array) SetIndex(i int, v Value) error {
	if err := a.frozen("assign to element of"); err != nil {
		return err
	}
	a.elems[i] = v
	return nil
}

// Append adds v to the end of the array.
func (a *Array) Append(v Value) error {
	if err := a.frozen("append to"); err != nil {
		return err
	}
	a.elems = append(a.elems, v)
	return nil
}

// frozen returns an error describing the failed action if an iteration is in
// progress.
func (a *Array) frozen(action string) error {
	if a.iters == 0 {
		return nil
	}
	return fmt.Errorf("cannot %s array during iteration", action)
}

func (a *Array) Iterate() Iterator {
	a.iters++
	return &arrayIterator{arr: a}
}

type arrayIterator struct {
	arr  *Array
	next int
}

func (it *arrayIterator) Next(p *Value) bool {
	if it.next >= len(it.arr.elems) {
		return false
	}
	*p = it.arr.elems[it.next]
	it.next++
	return true
}

func (it *arrayIterator) Done() { it.arr.iters-- }
