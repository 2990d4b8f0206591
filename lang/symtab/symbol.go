// Package symtab implements the symbol table and scope tree (spec section
// 4.3): a scope arena keyed by dense integer scope ids, with symbols living
// in exactly one scope and identifiers resolved by walking the parent
// chain, stopping at a subroutine boundary.
package symtab

import "github.com/barracuda-lang/barracuda/lang/types"

// Kind discriminates the variants of Symbol.
type Kind uint8

const (
	KindVariable Kind = iota
	KindParameter
	KindEnvironmentVariable
	KindFunction
)

// Symbol is a named binding introduced by a declaration.
type Symbol struct {
	Identifier      string
	Kind            Kind
	ScopeID         int
	DeclarationIndex int // order of declaration within its scope

	// KindVariable / KindParameter
	Datatype  types.Datatype
	Qualifier types.Qualifier

	// KindEnvironmentVariable
	Address      uint64
	PointerDepth int

	// KindFunction: the resolver adds one Symbol per declared function and
	// leaves these three fields unset; the function's monomorphised
	// implementations are tracked in the resolver's Registry.
	ParamTypes []types.Datatype
	ReturnType types.Datatype
	ImplID     int
}
