package machine

import (
	"fmt"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"
)

// UserSpace is the emulator's single addressable value store (spec
// sections 4.5's emit_array offset convention and 4.8.2): environment
// variables occupy the low addresses, compiler-allocated arrays occupy the
// cells above them. LDNX, RCNX and LDCUX address this store directly, and
// the typed READ_*/WRITE_* family reaches it through LDNXPTR's alias
// pointers; PTR_DEREF reads only the heap. Every cell holds
// a float64 bit pattern, narrowed or widened on read/write by the typed
// opcodes (arrays always use the full f64 width, per the code generator).
type UserSpace struct {
	cells []uint64
}

// NewUserSpace returns a zero-filled store of size cells.
func NewUserSpace(size int) *UserSpace {
	return &UserSpace{cells: make([]uint64, size)}
}

// Len reports the store's current capacity.
func (u *UserSpace) Len() int { return len(u.cells) }

// Grow extends the store to at least size cells, zero-filling the new
// tail. It never shrinks the store.
func (u *UserSpace) Grow(size int) {
	if size > len(u.cells) {
		grown := make([]uint64, size)
		copy(grown, u.cells)
		u.cells = grown
	}
}

// Get loads the raw bit pattern at addr.
func (u *UserSpace) Get(addr uint64) (uint64, error) {
	if addr >= uint64(len(u.cells)) {
		return 0, &Error{Kind: AddressOutOfRange, Msg: fmt.Sprintf("user-space read at %d (size %d)", addr, len(u.cells))}
	}
	return u.cells[addr], nil
}

// Set stores the raw bit pattern v at addr.
func (u *UserSpace) Set(addr uint64, v uint64) error {
	if addr >= uint64(len(u.cells)) {
		return &Error{Kind: AddressOutOfRange, Msg: fmt.Sprintf("user-space write at %d (size %d)", addr, len(u.cells))}
	}
	u.cells[addr] = v
	return nil
}

// EnvironmentTable is the named subset of UserSpace addresses registered as
// host environment variables (spec section 4.8.2: "address -> (name,
// value)"). The value itself lives in the UserSpace cell at the same
// address; this table only carries the name, kept separately so debugging
// UIs can list (name, address, value) triples without scanning every
// user-space cell.
type EnvironmentTable struct {
	names *swiss.Map[uint64, string]
	addrs []uint64 // registration order, for deterministic listing
}

// NewEnvironmentTable returns an empty environment table.
func NewEnvironmentTable() *EnvironmentTable {
	return &EnvironmentTable{names: swiss.NewMap[uint64, string](8)}
}

// Register names addr as an environment variable. It does not itself set
// the UserSpace cell at addr.
func (e *EnvironmentTable) Register(addr uint64, name string) {
	if _, ok := e.names.Get(addr); !ok {
		e.addrs = append(e.addrs, addr)
	}
	e.names.Put(addr, name)
}

// NameOf reports the registered name at addr, if any.
func (e *EnvironmentTable) NameOf(addr uint64) (string, bool) {
	return e.names.Get(addr)
}

// EnvVar is one (name, address, value) triple, as reported by List.
type EnvVar struct {
	Name    string
	Address uint64
	Value   uint64
}

// List returns every registered environment variable with its current
// UserSpace value, in registration order (spec section 4.8.2, "listing all
// pairs for debugging UIs").
func (e *EnvironmentTable) List(space *UserSpace) []EnvVar {
	addrs := slices.Clone(e.addrs)
	out := make([]EnvVar, 0, len(addrs))
	for _, addr := range addrs {
		name, _ := e.names.Get(addr)
		v, _ := space.Get(addr)
		out = append(out, EnvVar{Name: name, Address: addr, Value: v})
	}
	return out
}
