package resolver

import "github.com/barracuda-lang/barracuda/lang/types"

// ExternBinding is a host-provided environment binding: the information the
// caller (CLI or FFI request, spec section 6) supplies out of band for each
// accelerator-environment variable an `extern` declaration may reference.
type ExternBinding struct {
	Address      uint64
	PointerDepth int
	Primitive    types.Primitive
	HasValue     bool
	Value        uint64 // raw bit pattern, pre-initialisation value
}

// Datatype returns the full pointer-wrapped datatype this binding exposes
// to an `extern` declaration that references it.
func (b ExternBinding) Datatype() types.Datatype {
	d := types.NewPrimitive(b.Primitive)
	for i := 0; i < b.PointerDepth; i++ {
		d = types.NewPointer(d)
	}
	return d
}
