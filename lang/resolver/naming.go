package resolver

import "maps"

// nameBlocks names the blocks of the chunk for debugging output: the root is
// "_" and each child adds a letter to its parent's name, in order of
// appearance ("_a", "_b", "_ab", ...). Each binding gets the name of the
// block where it is declared or, for free variables, materialized.
func (r *resolver) nameBlocks() {
	var visit func(b *block, name string)
	visit = func(b *block, name string) {
		b.name = name
		for _, binds := range []map[string]*Binding{b.bindings, b.free} {
			for bdg := range maps.Values(binds) {
				if bdg.BlockName == "" {
					bdg.BlockName = name
				}
			}
		}
		for i, child := range b.children {
			visit(child, name+childLetter(i))
		}
	}
	visit(r.root, "_")
}

// childLetter returns the letter of the i-th child block, a-z then A-Z, and
// "?" past 52 children.
func childLetter(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if i < len(letters) {
		return letters[i : i+1]
	}
	return "?"
}
