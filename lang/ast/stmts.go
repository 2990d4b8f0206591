package ast

import "github.com/barracuda-lang/barracuda/lang/token"

func (*ConstructStmt) stmtNode()      {}
func (*EmptyConstructStmt) stmtNode() {}
func (*ExternStmt) stmtNode()         {}
func (*AssignStmt) stmtNode()         {}
func (*PrintStmt) stmtNode()          {}
func (*ReturnStmt) stmtNode()         {}
func (*BranchStmt) stmtNode()         {}
func (*WhileStmt) stmtNode()          {}
func (*ForStmt) stmtNode()            {}
func (*FuncDefStmt) stmtNode()        {}
func (*NakedCallStmt) stmtNode()      {}
func (*ScopeStmt) stmtNode()          {}

func (n *ConstructStmt) BlockEnding() bool      { return false }
func (n *EmptyConstructStmt) BlockEnding() bool { return false }
func (n *ExternStmt) BlockEnding() bool         { return false }
func (n *AssignStmt) BlockEnding() bool         { return false }
func (n *PrintStmt) BlockEnding() bool          { return false }
func (n *ReturnStmt) BlockEnding() bool         { return true }
func (n *BranchStmt) BlockEnding() bool         { return false }
func (n *WhileStmt) BlockEnding() bool          { return false }
func (n *ForStmt) BlockEnding() bool            { return false }
func (n *FuncDefStmt) BlockEnding() bool        { return false }
func (n *NakedCallStmt) BlockEnding() bool      { return false }
func (n *ScopeStmt) BlockEnding() bool          { return false }

// ConstructStmt is `let name [: T] = expr;`.
type ConstructStmt struct {
	Let    token.Pos
	Name   *IdentExpr
	Qual   *QualifierExpr // nil if unspecified (defaults to mutable)
	Type   *TypeExpr      // nil if the type is to be inferred from Value
	Assign token.Pos
	Value  Expr
	Semi   token.Pos
}

func (n *ConstructStmt) Span() (start, end token.Pos) { return n.Let, n.Semi + 1 }
func (n *ConstructStmt) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Qual != nil {
		Walk(v, n.Qual)
	}
	if n.Type != nil {
		Walk(v, n.Type)
	}
	Walk(v, n.Value)
}

// EmptyConstructStmt is `let name : T;`, declaring storage without an
// initialiser (zero-filled, and for arrays, zero-filled user-space).
type EmptyConstructStmt struct {
	Let   token.Pos
	Name  *IdentExpr
	Qual  *QualifierExpr
	Colon token.Pos
	Type  *TypeExpr
	Semi  token.Pos
}

func (n *EmptyConstructStmt) Span() (start, end token.Pos) { return n.Let, n.Semi + 1 }
func (n *EmptyConstructStmt) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Qual != nil {
		Walk(v, n.Qual)
	}
	Walk(v, n.Type)
}

// ExternStmt is `extern name;`, binding name to a pre-declared environment
// variable of the same name (spec section 4.2).
type ExternStmt struct {
	Extern token.Pos
	Name   *IdentExpr
	Semi   token.Pos
}

func (n *ExternStmt) Span() (start, end token.Pos) { return n.Extern, n.Semi + 1 }
func (n *ExternStmt) Walk(v Visitor)               { Walk(v, n.Name) }

// AssignStmt is `target = expr;`. Target is one of *IdentExpr, *DerefExpr
// (possibly nested, for multi-level pointer writes) or *IndexExpr.
type AssignStmt struct {
	Target Expr
	Assign token.Pos
	Value  Expr
	Semi   token.Pos
}

func (n *AssignStmt) Span() (start, end token.Pos) {
	start, _ = n.Target.Span()
	return start, n.Semi + 1
}
func (n *AssignStmt) Walk(v Visitor) { Walk(v, n.Target); Walk(v, n.Value) }

// PrintStmt is `print expr;`.
type PrintStmt struct {
	Print token.Pos
	Value Expr
	Semi  token.Pos
}

func (n *PrintStmt) Span() (start, end token.Pos) { return n.Print, n.Semi + 1 }
func (n *PrintStmt) Walk(v Visitor)               { Walk(v, n.Value) }

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	Return token.Pos
	Value  Expr // nil for a bare `return;`
	Semi   token.Pos
}

func (n *ReturnStmt) Span() (start, end token.Pos) { return n.Return, n.Semi + 1 }
func (n *ReturnStmt) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

// BranchStmt is `if cond { ... } [else { ... }]`. An "else if" chain is
// represented by Else containing a single Block whose only statement is
// another BranchStmt.
type BranchStmt struct {
	If   token.Pos
	Cond Expr
	Then *Block
	Else *Block // nil if there is no else branch
}

func (n *BranchStmt) Span() (start, end token.Pos) {
	if n.Else != nil {
		_, end = n.Else.Span()
	} else {
		_, end = n.Then.Span()
	}
	return n.If, end
}
func (n *BranchStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}

// WhileStmt is `while cond { ... }`.
type WhileStmt struct {
	While token.Pos
	Cond  Expr
	Body  *Block
}

func (n *WhileStmt) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.While, end
}
func (n *WhileStmt) Walk(v Visitor) { Walk(v, n.Cond); Walk(v, n.Body) }

// ForStmt is `for (init; cond; advance) { ... }`. Init and Advance may be
// nil; Cond may be nil (treated as always-true).
type ForStmt struct {
	For     token.Pos
	Init    Stmt
	Cond    Expr
	Advance Stmt
	Body    *Block
}

func (n *ForStmt) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.For, end
}
func (n *ForStmt) Walk(v Visitor) {
	if n.Init != nil {
		Walk(v, n.Init)
	}
	if n.Cond != nil {
		Walk(v, n.Cond)
	}
	if n.Advance != nil {
		Walk(v, n.Advance)
	}
	Walk(v, n.Body)
}

// Param is a single function parameter declaration. It is not an
// independent Stmt (it only ever appears in a FuncDefStmt's Params list)
// but implements Node so it participates in Walk/printing.
type Param struct {
	Name *IdentExpr
	Qual *QualifierExpr
	Type *TypeExpr // nil if the function is generic in this parameter
}

func (n *Param) Span() (start, end token.Pos) {
	start, _ = n.Name.Span()
	if n.Type != nil {
		_, end = n.Type.Span()
	} else {
		_, end = n.Name.Span()
	}
	return start, end
}
func (n *Param) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Qual != nil {
		Walk(v, n.Qual)
	}
	if n.Type != nil {
		Walk(v, n.Type)
	}
}

// FuncDefStmt is `fn name(params) [: T] { ... }`. ReturnType may be nil,
// meaning the return type is inferred from the body (and must agree across
// all monomorphised implementations, per spec section 4.2).
type FuncDefStmt struct {
	Fn         token.Pos
	Name       *IdentExpr
	Params     []*Param
	ReturnType *TypeExpr
	Body       *Block
}

func (n *FuncDefStmt) Span() (start, end token.Pos) {
	_, end = n.Body.Span()
	return n.Fn, end
}
func (n *FuncDefStmt) Walk(v Visitor) {
	Walk(v, n.Name)
	for _, p := range n.Params {
		Walk(v, p)
	}
	if n.ReturnType != nil {
		Walk(v, n.ReturnType)
	}
	Walk(v, n.Body)
}

// NakedCallStmt is a function call used as a statement, its result
// discarded (spec section 3, "naked function call").
type NakedCallStmt struct {
	Call *CallExpr
	Semi token.Pos
}

func (n *NakedCallStmt) Span() (start, end token.Pos) {
	start, _ = n.Call.Span()
	return start, n.Semi + 1
}
func (n *NakedCallStmt) Walk(v Visitor) { Walk(v, n.Call) }

// ScopeStmt is an explicit, anonymous `{ ... }` scope block. It carries its
// own scope id once the resolver assigns one (spec section 3, "scope-
// block").
type ScopeStmt struct {
	Body *Block
}

func (n *ScopeStmt) Span() (start, end token.Pos) { return n.Body.Span() }
func (n *ScopeStmt) Walk(v Visitor)                { Walk(v, n.Body) }

// blockEnder declares BlockEnding, which is not part of the base Stmt
// interface definition in ast.go. Every statement node above implements it
// and only ReturnStmt reports true; the parser does not consult it.
type blockEnder interface {
	BlockEnding() bool
}

var _ blockEnder = (*ReturnStmt)(nil)
