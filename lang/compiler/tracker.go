package compiler

import "github.com/barracuda-lang/barracuda/lang/symtab"

// entryKind discriminates what a tracked name was declared as.
type entryKind uint8

const (
	entryLocal entryKind = iota
	entryParam
	entryArray
)

type trackerEntry struct {
	kind      entryKind
	localID   int
	paramID   int
	arrayAddr int
	arraySize int
}

// Tracker is the scope tracker (spec section 4.4): a code-generation-side
// view of the symbol table that enforces declaration-before-use and
// assigns dense linear indices to locals, parameters and arrays as the
// generator's own tree walk (re)declares them. It is distinct from
// symtab.Table, which the resolver already populated — the tracker
// maintains its own "declared so far" set per design note #5, so the
// generator never needs a package-level mutable counter.
type Tracker struct {
	table *symtab.Table

	declared   map[int]map[string]*trackerEntry
	localCount map[int]int // locals added directly in a scope, for exit_scope's drop count
	active     []int

	localCounter  int
	paramCounter  int
	nextArrayAddr int

	// funcBoundaries records, for each currently nested function activation,
	// the depth of active at the moment EnterFunction opened it, so
	// LiveLocalCount can sum only the scopes opened within the innermost
	// activation rather than every scope on the lexical path back to the
	// top level.
	funcBoundaries []int
}

// NewTracker creates a Tracker bound to table. One Tracker spans an entire
// program compile: array addresses accumulate across every function
// implementation, since user-space is a single flat address space, while
// local/param counters reset per function activation (EnterFunction).
func NewTracker(table *symtab.Table) *Tracker {
	return &Tracker{
		table:      table,
		declared:   make(map[int]map[string]*trackerEntry),
		localCount: make(map[int]int),
	}
}

// EnterFunction resets the local-variable and parameter counters for a new
// function activation (spec section 4.4: "active-parameter index" reset).
func (t *Tracker) EnterFunction() {
	t.localCounter = 0
	t.paramCounter = 0
	t.funcBoundaries = append(t.funcBoundaries, len(t.active))
}

// EnterScope begins tracking scope id.
func (t *Tracker) EnterScope(id int) {
	t.active = append(t.active, id)
	if t.declared[id] == nil {
		t.declared[id] = make(map[string]*trackerEntry)
	}
}

// ExitScope stops tracking the innermost active scope and returns how many
// local variables (not arrays, which live in user-space rather than on the
// operand stack) were declared directly in it, so the generator can emit a
// matching number of DROP operations.
func (t *Tracker) ExitScope() int {
	id := t.active[len(t.active)-1]
	t.active = t.active[:len(t.active)-1]
	return t.localCount[id]
}

// AddLocal declares name as a local variable in scopeID and returns its
// dense local index.
func (t *Tracker) AddLocal(scopeID int, name string) int {
	id := t.localCounter
	t.localCounter++
	t.declared[scopeID][name] = &trackerEntry{kind: entryLocal, localID: id}
	t.localCount[scopeID]++
	return id
}

// AddParam declares name as a parameter in scopeID and returns its dense
// parameter index.
func (t *Tracker) AddParam(scopeID int, name string) int {
	id := t.paramCounter
	t.paramCounter++
	t.declared[scopeID][name] = &trackerEntry{kind: entryParam, paramID: id}
	return id
}

// AddArray declares name as a user-space array of size cells in scopeID and
// returns its base address (before the environment-variable offset applied
// by Builder.EmitArray).
func (t *Tracker) AddArray(scopeID int, name string, size int) int {
	addr := t.nextArrayAddr
	t.nextArrayAddr += size
	t.declared[scopeID][name] = &trackerEntry{kind: entryArray, arrayAddr: addr, arraySize: size}
	return addr
}

// UserSpaceSize returns the total user-space cells allocated to arrays so
// far (excludes the environment-variable offset).
func (t *Tracker) UserSpaceSize() int { return t.nextArrayAddr }

// find resolves name starting at scopeID among only the names declared so
// far, mirroring symtab.Table.Find's subroutine-boundary and global-first
// rules but restricted to the tracker's own bookkeeping.
func (t *Tracker) find(scopeID int, name string) (*trackerEntry, bool) {
	if g, ok := t.declared[symtab.Global]; ok {
		if e, ok := g[name]; ok {
			return e, true
		}
	}
	cur := scopeID
	for {
		if scope, ok := t.declared[cur]; ok {
			if e, ok := scope[name]; ok {
				return e, true
			}
		}
		sc := t.table.Scope(cur)
		if sc == nil || sc.Subroutine || !sc.HasParent {
			break
		}
		cur = sc.Parent
	}
	return nil, false
}

// LocalID returns name's dense local index and whether it was found as a
// local.
func (t *Tracker) LocalID(scopeID int, name string) (int, bool) {
	e, ok := t.find(scopeID, name)
	if !ok || e.kind != entryLocal {
		return 0, false
	}
	return e.localID, true
}

// ParamID returns name's dense parameter index and whether it was found as
// a parameter.
func (t *Tracker) ParamID(scopeID int, name string) (int, bool) {
	e, ok := t.find(scopeID, name)
	if !ok || e.kind != entryParam {
		return 0, false
	}
	return e.paramID, true
}

// SaveActivation captures the local/parameter counters so the generator can
// descend into a nested function definition's own activation (EnterFunction
// resets both to zero) and resume the enclosing one afterwards.
func (t *Tracker) SaveActivation() (localCounter, paramCounter int) {
	return t.localCounter, t.paramCounter
}

// RestoreActivation reinstates counters captured by SaveActivation.
func (t *Tracker) RestoreActivation(localCounter, paramCounter int) {
	t.localCounter = localCounter
	t.paramCounter = paramCounter
	if len(t.funcBoundaries) > 0 {
		t.funcBoundaries = t.funcBoundaries[:len(t.funcBoundaries)-1]
	}
}

// LiveLocalCount returns how many local-variable cells are presently live on
// the operand stack within the innermost function activation: the sum of
// locals declared directly in every scope still active since that
// activation's EnterFunction call. Scopes already exited via ExitScope (and
// so already DROPped) are excluded, unlike a running total of localCounter,
// which never decreases. The return-sequence uses this to drop exactly the
// live locals before restoring the caller's frame pointer (spec section
// 4.6.2).
func (t *Tracker) LiveLocalCount() int {
	if len(t.funcBoundaries) == 0 {
		return 0
	}
	boundary := t.funcBoundaries[len(t.funcBoundaries)-1]
	count := 0
	for _, id := range t.active[boundary:] {
		count += t.localCount[id]
	}
	return count
}

// AddAnonArray reserves size user-space cells for an array with no declared
// name — an array literal or packed string appearing directly in expression
// context (spec section 4.6.5) — and returns its base address.
func (t *Tracker) AddAnonArray(size int) int {
	addr := t.nextArrayAddr
	t.nextArrayAddr += size
	return addr
}

// ArrayID returns name's user-space base address and size, and whether it
// was found as an array.
func (t *Tracker) ArrayID(scopeID int, name string) (addr, size int, ok bool) {
	e, found := t.find(scopeID, name)
	if !found || e.kind != entryArray {
		return 0, 0, false
	}
	return e.arrayAddr, e.arraySize, true
}
