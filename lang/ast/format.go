package ast

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// count is the number of children of a node of a given kind, printed with
// the '#' flag.
type count struct {
	name string
	n    int
}

// whitespace that would break the one-line description of a node
var controlChars = strings.NewReplacer(
	"\r\n", "⏎",
	"\n", "⏎",
	"\t", "⭾",
	"\v", "⭿",
)

// format implements fmt.Formatter for node n. The counts are printed in the
// order given, which is alphabetical by name.
func format(f fmt.State, verb rune, n Node, label string, counts ...count) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	label = controlChars.Replace(label)
	if w, ok := f.Width(); ok {
		label = fit(label, w, f.Flag('-'), f.Flag('+'))
	}

	var sb strings.Builder
	sb.WriteString(label)
	if f.Flag('#') && len(counts) > 0 {
		sb.WriteString(" {")
		for i, c := range counts {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%d", c.name, c.n)
		}
		sb.WriteByte('}')
	}
	fmt.Fprint(f, sb.String())
}

// fit truncates s to w runes, or pads it with spaces up to w runes, on the
// left unless right is set. No padding is added if noPad is set.
func fit(s string, w int, right, noPad bool) string {
	n := utf8.RuneCountInString(s)
	switch {
	case n >= w:
		return string([]rune(s)[:w])
	case noPad:
		return s
	case right:
		return s + strings.Repeat(" ", w-n)
	default:
		return strings.Repeat(" ", w-n) + s
	}
}

// optional returns 1 if present is true, 0 otherwise.
func optional(present bool) int {
	if present {
		return 1
	}
	return 0
}
