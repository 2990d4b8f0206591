package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barracuda-lang/barracuda/lang/symtab"
)

func TestTrackerAssignsDenseLocalIndices(t *testing.T) {
	table := symtab.New()
	tr := NewTracker(table)
	tr.EnterFunction()
	tr.EnterScope(symtab.Global)

	a := tr.AddLocal(symtab.Global, "a")
	b := tr.AddLocal(symtab.Global, "b")
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)

	id, ok := tr.LocalID(symtab.Global, "b")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestTrackerExitScopeReportsLocalCountForDrop(t *testing.T) {
	table := symtab.New()
	tr := NewTracker(table)
	tr.EnterFunction()
	inner := table.NewScope(symtab.Global, false)
	tr.EnterScope(inner)
	tr.AddLocal(inner, "x")
	tr.AddLocal(inner, "y")

	n := tr.ExitScope()
	assert.Equal(t, 2, n, "ExitScope must report exactly the locals declared directly in that scope")
}

func TestTrackerArraysAccumulateAddressesAcrossActivations(t *testing.T) {
	table := symtab.New()
	tr := NewTracker(table)
	tr.EnterScope(symtab.Global)

	addr1 := tr.AddArray(symtab.Global, "arr1", 3)
	tr.EnterFunction()
	addr2 := tr.AddArray(symtab.Global, "arr2", 4)
	assert.Equal(t, 0, addr1)
	assert.Equal(t, 3, addr2)
	assert.Equal(t, 7, tr.UserSpaceSize())

	_, size, ok := tr.ArrayID(symtab.Global, "arr2")
	assert.True(t, ok)
	assert.Equal(t, 4, size)
}

func TestTrackerFunctionBodyDoesNotSeeEnclosingLocals(t *testing.T) {
	table := symtab.New()
	tr := NewTracker(table)
	tr.EnterFunction()
	outer := table.NewScope(symtab.Global, false)
	tr.EnterScope(outer)
	tr.AddLocal(outer, "outer_local")

	fnScope := table.NewScope(outer, true)
	tr.EnterScope(fnScope)

	_, ok := tr.LocalID(fnScope, "outer_local")
	assert.False(t, ok, "a nested function activation must not see a caller-scope local via the tracker")
}

func TestTrackerLiveLocalCountSumsOnlyCurrentActivation(t *testing.T) {
	table := symtab.New()
	tr := NewTracker(table)

	tr.EnterFunction()
	outer := table.NewScope(symtab.Global, false)
	tr.EnterScope(outer)
	tr.AddLocal(outer, "a")

	saved0, saved1 := tr.SaveActivation()
	tr.EnterFunction()
	inner := table.NewScope(outer, true)
	tr.EnterScope(inner)
	tr.AddLocal(inner, "b")
	tr.AddLocal(inner, "c")

	assert.Equal(t, 2, tr.LiveLocalCount(), "the inner activation must only count its own locals")

	tr.ExitScope()
	tr.RestoreActivation(saved0, saved1)
	assert.Equal(t, 1, tr.LiveLocalCount(), "after returning to the outer activation only its own local remains live")
}

func TestTrackerAddAnonArrayDoesNotRegisterAName(t *testing.T) {
	table := symtab.New()
	tr := NewTracker(table)
	tr.EnterScope(symtab.Global)

	addr := tr.AddAnonArray(5)
	assert.Equal(t, 0, addr)
	assert.Equal(t, 5, tr.UserSpaceSize())

	_, _, ok := tr.ArrayID(symtab.Global, "")
	assert.False(t, ok)
}
