package types

import "strings"

// maxFormatDepth bounds the nesting printed by String for containers, so
// that cyclic structures terminate.
const maxFormatDepth = 32

type depthFormatter interface {
	format(sb *strings.Builder, depth int)
}

func writeValue(sb *strings.Builder, v Value, depth int) {
	if df, ok := v.(depthFormatter); ok {
		if depth <= 0 {
			sb.WriteString("...")
			return
		}
		df.format(sb, depth-1)
		return
	}
	sb.WriteString(v.String())
}

func writeList(sb *strings.Builder, open, close string, elems []Value, depth int) {
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeValue(sb, e, depth)
	}
	sb.WriteString(close)
}
