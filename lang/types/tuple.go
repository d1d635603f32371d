package types

import "strings"

// A Tuple represents an immutable list of values. The machine uses it for the
// captured free variables of a function and for the key-value pairs produced
// when iterating over a map.
type Tuple []Value

var (
	_ Value     = Tuple(nil)
	_ Sequence  = Tuple(nil)
	_ Indexable = Tuple(nil)
)

func (t Tuple) String() string {
	var sb strings.Builder
	t.format(&sb, maxFormatDepth)
	return sb.String()
}

func (t Tuple) format(sb *strings.Builder, depth int) {
	writeList(sb, "(", ")", t, depth)
}

func (t Tuple) Type() string      { return "tuple" }
func (t Tuple) Len() int          { return len(t) }
func (t Tuple) Index(i int) Value { return t[i] }

func (t Tuple) Iterate() Iterator { return &tupleIterator{elems: t} }

type tupleIterator struct{ elems Tuple }

func (it *tupleIterator) Next(p *Value) bool {
	if len(it.elems) > 0 {
		*p = it.elems[0]
		it.elems = it.elems[1:]
		return true
	}
	return false
}

func (it *tupleIterator) Done() {}
