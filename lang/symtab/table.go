package symtab

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// Global is the reserved id of the global scope. Scope ids are dense
// positive integers starting at 1 for every other scope (spec section
// 4.3).
const Global = 0

// Scope is one lexical block: a unique id, a parent link (always Global if
// none), a flag marking function bodies, and the symbols declared directly
// within it.
type Scope struct {
	ID         int
	Parent     int
	HasParent  bool
	Subroutine bool
	symbols    map[string]*Symbol
	order      []string
}

// Table is the symbol table and scope tree described by spec section 4.3.
type Table struct {
	scopes      map[int]*Scope
	nextScopeID int
}

// New creates a Table with only the global scope (id 0) present.
func New() *Table {
	t := &Table{scopes: make(map[int]*Scope), nextScopeID: 1}
	t.scopes[Global] = &Scope{ID: Global, symbols: make(map[string]*Symbol)}
	return t
}

// NewScope creates a fresh scope with a dense, positive id, linked to
// parent (which must already exist), and returns its id.
func (t *Table) NewScope(parent int, subroutine bool) int {
	id := t.nextScopeID
	t.nextScopeID++
	t.scopes[id] = &Scope{
		ID:         id,
		Parent:     parent,
		HasParent:  true,
		Subroutine: subroutine,
		symbols:    make(map[string]*Symbol),
	}
	return id
}

// Scope returns the scope with the given id, or nil if none exists.
func (t *Table) Scope(id int) *Scope { return t.scopes[id] }

// ParentOf returns the parent of scope id, or Global if it has none (spec
// section 4.3: "parent_of(scope_id) — returns parent or global if none").
func (t *Table) ParentOf(id int) int {
	s := t.scopes[id]
	if s == nil || !s.HasParent {
		return Global
	}
	return s.Parent
}

// Add inserts sym into scope id, assigning it a declaration index. It
// returns false without modifying the table if a symbol with the same
// identifier already exists directly in that scope (spec section 4.3,
// "duplicate-symbol").
func (t *Table) Add(scopeID int, sym *Symbol) bool {
	s := t.scopes[scopeID]
	if s == nil {
		panic(fmt.Sprintf("symtab: unknown scope %d", scopeID))
	}
	if _, exists := s.symbols[sym.Identifier]; exists {
		return false
	}
	sym.ScopeID = scopeID
	sym.DeclarationIndex = len(s.order)
	s.symbols[sym.Identifier] = sym
	s.order = append(s.order, sym.Identifier)
	return true
}

// Find resolves name starting from scope id: the global scope is always
// consulted first (to expose extern/function bindings), then the given
// scope, then its ancestors — unless the scope is a subroutine, in which
// case only the global scope is consulted after it (spec section 4.3).
func (t *Table) Find(scopeID int, name string) (*Symbol, bool) {
	if global := t.scopes[Global]; global != nil {
		if sym, ok := global.symbols[name]; ok {
			return sym, true
		}
	}

	scope := t.scopes[scopeID]
	for scope != nil {
		if sym, ok := scope.symbols[name]; ok {
			return sym, true
		}
		if scope.Subroutine {
			break
		}
		if !scope.HasParent {
			break
		}
		scope = t.scopes[scope.Parent]
	}
	return nil, false
}

// FindLocal resolves name only within scope id itself, without walking
// parents.
func (t *Table) FindLocal(scopeID int, name string) (*Symbol, bool) {
	s := t.scopes[scopeID]
	if s == nil {
		return nil, false
	}
	sym, ok := s.symbols[name]
	return sym, ok
}

// Symbols returns the symbols declared directly in scope id, in
// declaration order.
func (t *Table) Symbols(scopeID int) []*Symbol {
	s := t.scopes[scopeID]
	if s == nil {
		return nil
	}
	out := make([]*Symbol, len(s.order))
	for i, name := range s.order {
		out[i] = s.symbols[name]
	}
	return out
}

// ScopeIDs returns every scope id in the table, sorted, for deterministic
// debug dumps.
func (t *Table) ScopeIDs() []int {
	ids := maps.Keys(t.scopes)
	sort.Ints(ids)
	return ids
}
