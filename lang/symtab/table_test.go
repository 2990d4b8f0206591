package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsDuplicateInSameScope(t *testing.T) {
	tab := New()
	ok := tab.Add(Global, &Symbol{Identifier: "x", Kind: KindVariable})
	require.True(t, ok)
	ok = tab.Add(Global, &Symbol{Identifier: "x", Kind: KindVariable})
	assert.False(t, ok, "a second declaration of the same name in one scope must fail")
}

func TestScopeIDsAreDenseStartingAtOne(t *testing.T) {
	tab := New()
	a := tab.NewScope(Global, false)
	b := tab.NewScope(Global, false)
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestFindWalksParentChainAndPrefersGlobal(t *testing.T) {
	tab := New()
	tab.Add(Global, &Symbol{Identifier: "g", Kind: KindVariable})

	parent := tab.NewScope(Global, false)
	tab.Add(parent, &Symbol{Identifier: "p", Kind: KindVariable})
	child := tab.NewScope(parent, false)
	tab.Add(child, &Symbol{Identifier: "c", Kind: KindVariable})

	_, ok := tab.Find(child, "c")
	assert.True(t, ok)
	_, ok = tab.Find(child, "p")
	assert.True(t, ok, "a name declared in an ancestor scope must resolve from a descendant")
	_, ok = tab.Find(child, "g")
	assert.True(t, ok)

	tab.Add(child, &Symbol{Identifier: "g", Kind: KindParameter})
	sym, ok := tab.Find(child, "g")
	require.True(t, ok)
	assert.Equal(t, KindVariable, sym.Kind, "the global binding must win over a same-named local")
}

func TestFindDoesNotLeakSiblingScopes(t *testing.T) {
	tab := New()
	parent := tab.NewScope(Global, false)
	sibling1 := tab.NewScope(parent, false)
	sibling2 := tab.NewScope(parent, false)
	tab.Add(sibling1, &Symbol{Identifier: "only_in_sibling1", Kind: KindVariable})

	_, ok := tab.Find(sibling2, "only_in_sibling1")
	assert.False(t, ok, "a name declared in one sibling scope must not resolve from another")
}

func TestFindInSubroutineSkipsDirectlyToGlobal(t *testing.T) {
	tab := New()
	tab.Add(Global, &Symbol{Identifier: "g", Kind: KindVariable})

	outer := tab.NewScope(Global, false)
	tab.Add(outer, &Symbol{Identifier: "outer_local", Kind: KindVariable})
	fnScope := tab.NewScope(outer, true) // subroutine boundary

	_, ok := tab.Find(fnScope, "outer_local")
	assert.False(t, ok, "a function body must not see a local of its lexically enclosing scope")
	_, ok = tab.Find(fnScope, "g")
	assert.True(t, ok, "a function body must still see global/extern bindings")
}

func TestParentOfDefaultsToGlobal(t *testing.T) {
	tab := New()
	assert.Equal(t, Global, tab.ParentOf(Global))
	child := tab.NewScope(Global, false)
	assert.Equal(t, Global, tab.ParentOf(child))
}

func TestDeclarationIndexIncreasesInOrder(t *testing.T) {
	tab := New()
	tab.Add(Global, &Symbol{Identifier: "a", Kind: KindVariable})
	tab.Add(Global, &Symbol{Identifier: "b", Kind: KindVariable})
	a, _ := tab.Find(Global, "a")
	b, _ := tab.Find(Global, "b")
	assert.Equal(t, 0, a.DeclarationIndex)
	assert.Equal(t, 1, b.DeclarationIndex)
}
