package types

import (
	"fmt"
	"strconv"
)

// Range is an inclusive range of integers, as produced by the .. operator.
// A range where End < Start is empty.
type Range struct {
	Start, End int64
}

var (
	_ Value     = Range{}
	_ Sequence  = Range{}
	_ Indexable = Range{}
)

func (r Range) String() string {
	return strconv.FormatInt(r.Start, 10) + ".." + strconv.FormatInt(r.End, 10)
}

func (r Range) Type() string { return "range" }

func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return int(r.End - r.Start + 1)
}

func (r Range) Index(i int) Value { return Int(r.Start + int64(i)) }

// Contains returns true if n is in the range.
func (r Range) Contains(n int64) bool { return n >= r.Start && n <= r.End }

func (r Range) Iterate() Iterator { return &rangeIterator{next: r.Start, end: r.End} }

// NewRange returns the range covering start to end inclusively. It fails if
// the range would hold more values than an int can count.
func NewRange(start, end int64) (Range, error) {
	if end >= start && uint64(end-start) >= uint64(maxRangeLen) {
		return Range{}, fmt.Errorf("range %d..%d is too large", start, end)
	}
	return Range{Start: start, End: end}, nil
}

const maxRangeLen = 1<<31 - 1

type rangeIterator struct {
	next, end int64
	done      bool
}

func (it *rangeIterator) Next(p *Value) bool {
	if it.done || it.next > it.end {
		return false
	}
	*p = Int(it.next)
	if it.next == it.end {
		it.done = true
	} else {
		it.next++
	}
	return true
}

func (it *rangeIterator) Done() {}
