package resolver

import (
	"github.com/barracuda-lang/barracuda/lang/ast"
	"github.com/barracuda-lang/barracuda/lang/types"
)

// Impl is one monomorphised implementation of a function: a concrete
// argument-type tuple, the resulting return type, and the typed body that
// goes with it. Implementations of the same FuncDef never share a TypeInfo
// side-table, since the same AST body node can carry a different datatype in
// each instantiation (spec section 4.2, function monomorphisation).
type Impl struct {
	ID         int
	ParamTypes []types.Datatype
	ReturnType types.Datatype
	Params     []ParamBinding
	BodyScope  int
	Types      TypeInfo

	// Scopes maps each scope-introducing node (see Result.TopLevelScopes)
	// reached while analysing this implementation's body to the scope id
	// assigned during that walk. ast.Block.ScopeID itself is unreliable
	// across instantiations since it is a single mutable field on a
	// shared node.
	Scopes map[ast.Node]int
}

// ParamBinding ties a function parameter's declared name to the concrete
// datatype and qualifier it takes on in one implementation.
type ParamBinding struct {
	Name      string
	Datatype  types.Datatype
	Qualifier types.Qualifier
}

// FuncDef is the set of implementations instantiated for one `fn`
// declaration. Two calls with identical argument-type tuples resolve to the
// same Impl (spec section 8, monomorphisation identity).
type FuncDef struct {
	Name      string
	AST       *ast.FuncDefStmt
	DeclScope int
	Impls     []*Impl
}

func (fd *FuncDef) find(paramTypes []types.Datatype) (*Impl, bool) {
	for _, impl := range fd.Impls {
		if sameTypes(impl.ParamTypes, paramTypes) {
			return impl, true
		}
	}
	return nil, false
}

func sameTypes(a, b []types.Datatype) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Registry holds every function declared in a program, keyed by name, along
// with its instantiated implementations.
type Registry struct {
	byName map[string]*FuncDef
	order  []string
}

// NewRegistry creates an empty function registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*FuncDef)}
}

// Declare registers a new function name. It returns false if the name is
// already declared (duplicate-symbol is the caller's responsibility to
// report).
func (r *Registry) Declare(name string, def *ast.FuncDefStmt, declScope int) (*FuncDef, bool) {
	if _, exists := r.byName[name]; exists {
		return nil, false
	}
	fd := &FuncDef{Name: name, AST: def, DeclScope: declScope}
	r.byName[name] = fd
	r.order = append(r.order, name)
	return fd, true
}

// Lookup finds a declared function by name.
func (r *Registry) Lookup(name string) (*FuncDef, bool) {
	fd, ok := r.byName[name]
	return fd, ok
}

// Instantiate returns the existing implementation of fd matching paramTypes,
// or registers a freshly built one. build is invoked only on a miss and must
// return the new Impl's fields except ID, which Instantiate assigns.
func (r *Registry) Instantiate(fd *FuncDef, paramTypes []types.Datatype, build func() *Impl) *Impl {
	if impl, ok := fd.find(paramTypes); ok {
		return impl
	}
	impl := build()
	impl.ID = len(fd.Impls)
	fd.Impls = append(fd.Impls, impl)
	return impl
}

// FindImpl returns the implementation of the function named name already
// instantiated for paramTypes. The code generator uses this to recover,
// for a given call site, exactly the Impl the resolver built for it,
// without repeating any type inference.
func (r *Registry) FindImpl(name string, paramTypes []types.Datatype) (*Impl, bool) {
	fd, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return fd.find(paramTypes)
}

// Names returns every declared function name in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
