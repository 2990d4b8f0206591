package ast

import (
	"github.com/barracuda-lang/barracuda/lang/token"
	"github.com/barracuda-lang/barracuda/lang/types"
)

func (*IdentExpr) exprNode()       {}
func (*RefExpr) exprNode()         {}
func (*DerefExpr) exprNode()       {}
func (*LiteralExpr) exprNode()     {}
func (*ArrayLiteralExpr) exprNode() {}
func (*UnaryExpr) exprNode()       {}
func (*BinaryExpr) exprNode()      {}
func (*TernaryExpr) exprNode()     {}
func (*IndexExpr) exprNode()       {}
func (*CallExpr) exprNode()        {}
func (*TypeExpr) exprNode()        {}
func (*QualifierExpr) exprNode()   {}

// IdentExpr is a bare identifier reference, e.g. `x`.
type IdentExpr struct {
	Start token.Pos
	Name  string
}

func (n *IdentExpr) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Name))
}
func (n *IdentExpr) Walk(Visitor) {}

// RefExpr is an address-of expression, e.g. `&x`.
type RefExpr struct {
	Amp token.Pos
	X   Expr
}

func (n *RefExpr) Span() (start, end token.Pos) {
	_, end = n.X.Span()
	return n.Amp, end
}
func (n *RefExpr) Walk(v Visitor) { Walk(v, n.X) }

// DerefExpr is a pointer-dereference expression, e.g. `*p`. The parser
// emits one DerefExpr per leading `*` in a `variable` production (spec
// section 4.1).
type DerefExpr struct {
	Star token.Pos
	X    Expr
}

func (n *DerefExpr) Span() (start, end token.Pos) {
	_, end = n.X.Span()
	return n.Star, end
}
func (n *DerefExpr) Walk(v Visitor) { Walk(v, n.X) }

// LiteralExpr is an integer, float, boolean or string literal.
type LiteralExpr struct {
	Start token.Pos
	Raw   string
	Lit   types.Literal
}

func (n *LiteralExpr) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Raw))
}
func (n *LiteralExpr) Walk(Visitor) {}

// ArrayLiteralExpr is an array literal, e.g. `[1, 2, 3]`. Nested array
// literals are used to build multi-dimensional arrays; the code generator
// flattens them row-major (spec section 4.6.5).
type ArrayLiteralExpr struct {
	Lbrack token.Pos
	Elems  []Expr
	Rbrack token.Pos
}

func (n *ArrayLiteralExpr) Span() (start, end token.Pos) { return n.Lbrack, n.Rbrack }
func (n *ArrayLiteralExpr) Walk(v Visitor) {
	for _, e := range n.Elems {
		Walk(v, e)
	}
}

// UnaryExpr is a prefix unary operator: `!`, `-`. (Reference and
// dereference have their own node types, above, since they do not behave
// like ordinary operators during code generation.)
type UnaryExpr struct {
	OpPos token.Pos
	Op    token.Token
	X     Expr
}

func (n *UnaryExpr) Span() (start, end token.Pos) {
	_, end = n.X.Span()
	return n.OpPos, end
}
func (n *UnaryExpr) Walk(v Visitor) { Walk(v, n.X) }

// BinaryExpr is an infix binary operator expression.
type BinaryExpr struct {
	X     Expr
	OpPos token.Pos
	Op    token.Token
	Y     Expr
}

func (n *BinaryExpr) Span() (start, end token.Pos) {
	start, _ = n.X.Span()
	_, end = n.Y.Span()
	return start, end
}
func (n *BinaryExpr) Walk(v Visitor) { Walk(v, n.X); Walk(v, n.Y) }

// TernaryExpr is the conditional expression `cond ? a : b`.
type TernaryExpr struct {
	Cond             Expr
	Question         token.Pos
	Then             Expr
	Colon            token.Pos
	Else             Expr
}

func (n *TernaryExpr) Span() (start, end token.Pos) {
	start, _ = n.Cond.Span()
	_, end = n.Else.Span()
	return start, end
}
func (n *TernaryExpr) Walk(v Visitor) { Walk(v, n.Cond); Walk(v, n.Then); Walk(v, n.Else) }

// IndexExpr is an array index expression `a[i]`.
type IndexExpr struct {
	X      Expr
	Lbrack token.Pos
	Index  Expr
	Rbrack token.Pos
}

func (n *IndexExpr) Span() (start, end token.Pos) {
	start, _ = n.X.Span()
	return start, n.Rbrack + 1
}
func (n *IndexExpr) Walk(v Visitor) { Walk(v, n.X); Walk(v, n.Index) }

// CallExpr is a function call `name(args...)`, valid both as an expression
// and, wrapped in a NakedCallStmt, as a statement.
type CallExpr struct {
	Fn     *IdentExpr
	Lparen token.Pos
	Args   []Expr
	Commas []token.Pos
	Rparen token.Pos
}

func (n *CallExpr) Span() (start, end token.Pos) {
	start, _ = n.Fn.Span()
	return start, n.Rparen + 1
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Fn)
	for _, a := range n.Args {
		Walk(v, a)
	}
}

// TypeExpr is the "datatype marker" node: a parsed type annotation, e.g.
// `i64`, `f64*`, `[i64; 3]`.
type TypeExpr struct {
	Start    token.Pos
	End      token.Pos
	Datatype types.Datatype
}

func (n *TypeExpr) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *TypeExpr) Walk(Visitor)                 {}

// QualifierExpr is the "qualifier marker" node: `const` or `mut` (or
// neither, defaulting to mutable, depending on the grammar position).
type QualifierExpr struct {
	Start     token.Pos
	End       token.Pos
	Qualifier types.Qualifier
}

func (n *QualifierExpr) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *QualifierExpr) Walk(Visitor)                 {}
