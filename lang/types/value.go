// Package types implements the values of the language and declares the
// optional interfaces through which the machine operates on them. Host code
// can provide its own values by implementing Value and any of those
// interfaces.
package types

import "github.com/mna/srcfn/lang/token"

// Value is any value the machine can manipulate.
type Value interface {
	// String returns the value as printed by the language.
	String() string

	// Type returns the name of the value's type, as used in error messages.
	Type() string
}

// Ordered is implemented by values that support <, <=, > and >= with values
// of the same type.
type Ordered interface {
	Value

	// Cmp returns a negative number, zero or a positive number if the receiver
	// is respectively less than, equal to or greater than y, which has the same
	// type. Containers compare their elements with depth-1 and fail once depth
	// is exhausted. Code outside this package calls machine.Compare instead.
	Cmp(y Value, depth int) (int, error)
}

// Iterable is implemented by values that can be the subject of a for loop.
type Iterable interface {
	Value

	// Iterate returns an iterator positioned before the first element. Its
	// Done method must be called once iteration ends.
	Iterate() Iterator
}

// Sequence is an Iterable with a known length.
type Sequence interface {
	Iterable
	Len() int
}

// Indexable is implemented by values that support x[i] for 0 <= i < Len().
// Negative indices are adjusted by the machine before the call.
type Indexable interface {
	Value
	Index(i int) Value
	Len() int
}

// HasSetIndex is an Indexable that supports x[i] = v.
type HasSetIndex interface {
	Indexable
	SetIndex(i int, v Value) error
}

// Iterator produces the elements of an Iterable. Containers reject mutation
// while an iterator on them is not Done.
//
//	it := x.Iterate()
//	defer it.Done()
//	var v Value
//	for it.Next(&v) {
//		// use v
//	}
type Iterator interface {
	// Next stores the next element in *p and returns true, or returns false
	// once exhausted.
	Next(p *Value) bool
	Done()
}

// Mapping is implemented by values that support the lookup of a key, x[k].
type Mapping interface {
	Value

	// Get returns the value associated with k. found is false if there is
	// none, err is set if k cannot be a key.
	Get(k Value) (v Value, found bool, err error)
}

// HasSetKey is a Mapping that supports x[k] = v.
type HasSetKey interface {
	Mapping
	SetKey(k, v Value) error
}

// Side tells which operand of a binary operation the receiver is.
type Side bool

const (
	Left  Side = false
	Right Side = true
)

// HasBinary is implemented by values that support arithmetic operators
// beyond the builtin rules, as the left or right operand. Returning (nil,
// nil) declines the operation, so callers go through machine.Binary.
type HasBinary interface {
	Value
	Binary(op token.Token, y Value, side Side) (Value, error)
}

// HasUnary is implemented by values that support the unary + and -
// operators. Returning (nil, nil) declines the operation.
type HasUnary interface {
	Value
	Unary(op token.Token) (Value, error)
}

// HasAttrs is implemented by values with named attributes, read with x.name.
type HasAttrs interface {
	Value

	// Attr returns the attribute name, or (nil, nil) if there is no such
	// attribute.
	Attr(name string) (Value, error)

	// AttrNames returns the sorted names of the attributes. It must not be
	// modified.
	AttrNames() []string
}
