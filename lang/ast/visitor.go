package ast

// VisitDirection tells whether Visit is called on entry or on exit of a
// node.
type VisitDirection int

const (
	VisitEnter VisitDirection = iota
	VisitExit
)

// Visitor is called by Walk for each node of a tree. Returning a nil Visitor
// on entry skips the children of the node and its exit call.
type Visitor interface {
	Visit(n Node, dir VisitDirection) (w Visitor)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(n Node, dir VisitDirection) Visitor

func (f VisitorFunc) Visit(n Node, dir VisitDirection) Visitor { return f(n, dir) }

// Walk traverses the tree rooted at node depth-first. The children of node
// are visited with the Visitor returned by the entry call, which is also
// called on exit.
func Walk(v Visitor, node Node) {
	w := v.Visit(node, VisitEnter)
	if w == nil {
		return
	}
	node.Walk(w)
	w.Visit(node, VisitExit)
}

// Inspect calls fn on entry of each node of the tree rooted at node, in
// depth-first order. The children of a node are skipped if fn returns false.
func Inspect(node Node, fn func(Node) bool) {
	Walk(inspector(fn), node)
}

type inspector func(Node) bool

func (f inspector) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitEnter && f(n) {
		return f
	}
	return nil
}
