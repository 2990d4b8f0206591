package ast

// Visitor is implemented by callers of Walk to traverse the AST.
// Visit is called with every node Walk descends into; if it returns a
// non-nil Visitor, Walk uses it to visit the node's children, then calls
// Visit(nil) to signal the node is done being visited (mirroring the
// teacher's enter/exit Visit pattern so traversal order is unambiguous for
// callers that need it, e.g. the resolver's scope-stack bookkeeping).
type Visitor interface {
	Visit(n Node) Visitor
}

// Walk traverses the AST rooted at n in depth-first, source order,
// invoking v.Visit at each node.
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	if v = v.Visit(n); v == nil {
		return
	}
	n.Walk(v)
	v.Visit(nil)
}
