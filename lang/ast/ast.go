// Package ast defines the untyped abstract syntax tree produced by the
// parser (spec section 3, "AST node") and consumed by the resolver. Nodes
// are plain structs reached through the Expr/Stmt interfaces; there is no
// node-level mutation during semantic analysis — type/qualifier
// information is kept in a side-table (see lang/resolver.TypeInfo) instead
// of a typed-node wrapper mutated in place, per spec section 9's Design
// Notes.
package ast

import "github.com/barracuda-lang/barracuda/lang/token"

// Node is implemented by every AST node.
type Node interface {
	// Span reports the start and end source position of the node.
	Span() (start, end token.Pos)
	// Walk visits the node's direct children, in source order.
	Walk(v Visitor)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Block is a sequence of statements. A Block that represents an explicit
// `{ ... }` scope (rather than a function body, which owns its own Block)
// carries a non-zero ScopeID once the resolver has assigned one; the
// parser always leaves ScopeID at 0.
type Block struct {
	Lbrace token.Pos
	Stmts  []Stmt
	Rbrace token.Pos

	// ScopeID is filled in by the resolver (spec section 4.2, "Scope
	// assignment"). It is 0 (invalid) until then.
	ScopeID int
}

func (b *Block) Span() (start, end token.Pos) { return b.Lbrace, b.Rbrace }
func (b *Block) Walk(v Visitor) {
	for _, s := range b.Stmts {
		Walk(v, s)
	}
}

// Chunk is the root node of a parsed file: a single top-level Block plus
// the file's EOF position (useful for empty-file diagnostics).
type Chunk struct {
	Name string
	Body *Block
	EOF  token.Pos
}

func (c *Chunk) Span() (start, end token.Pos) {
	if c.Body != nil {
		return c.Body.Span()
	}
	return c.EOF, c.EOF
}
func (c *Chunk) Walk(v Visitor) {
	if c.Body != nil {
		Walk(v, c.Body)
	}
}
