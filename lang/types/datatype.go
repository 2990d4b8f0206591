package types

import "fmt"

// Kind discriminates the variants of Datatype.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindPointer
	KindArray
	KindNone // placeholder used only during inference
)

// Datatype is the compile-time type of an expression or storage location. It
// is one of primitive(P), pointer(Datatype), array(Datatype, length) or
// none. Equality is structural (see Equal).
type Datatype struct {
	Kind      Kind
	Primitive Primitive // valid when Kind == KindPrimitive
	Elem      *Datatype // valid when Kind == KindPointer or KindArray
	Length    int        // valid when Kind == KindArray
}

// None is the placeholder datatype used only while inference has not yet
// assigned a concrete type.
var None = Datatype{Kind: KindNone}

// NewPrimitive builds a primitive datatype.
func NewPrimitive(p Primitive) Datatype {
	return Datatype{Kind: KindPrimitive, Primitive: p}
}

// NewPointer builds a pointer-to-elem datatype. Any level of indirection is
// represented by nesting: pointer(pointer(T)) is **T.
func NewPointer(elem Datatype) Datatype {
	e := elem
	return Datatype{Kind: KindPointer, Elem: &e}
}

// NewArray builds an array-of-elem datatype with a compile-time length.
func NewArray(elem Datatype, length int) Datatype {
	e := elem
	return Datatype{Kind: KindArray, Elem: &e, Length: length}
}

// IsNone reports whether d is the inference placeholder.
func (d Datatype) IsNone() bool { return d.Kind == KindNone }

// IsPrimitiveOf reports whether d is the primitive datatype p.
func (d Datatype) IsPrimitiveOf(p Primitive) bool {
	return d.Kind == KindPrimitive && d.Primitive == p
}

// Deref strips one pointer level, returning the pointee type. It panics if d
// is not a pointer; callers must check Kind first (the resolver never calls
// this on a non-pointer, having already rejected the program).
func (d Datatype) Deref() Datatype {
	if d.Kind != KindPointer {
		panic("types: Deref of non-pointer datatype")
	}
	return *d.Elem
}

// PointerDepth returns how many pointer levels wrap the eventual base type.
func (d Datatype) PointerDepth() int {
	n := 0
	for d.Kind == KindPointer {
		n++
		d = *d.Elem
	}
	return n
}

// Equal reports whether d and o are structurally identical datatypes.
// Qualifiers are not part of Datatype and are not compared here.
func (d Datatype) Equal(o Datatype) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case KindPrimitive:
		return d.Primitive == o.Primitive
	case KindPointer:
		return d.Elem.Equal(*o.Elem)
	case KindArray:
		return d.Length == o.Length && d.Elem.Equal(*o.Elem)
	case KindNone:
		return true
	default:
		return false
	}
}

func (d Datatype) String() string {
	switch d.Kind {
	case KindPrimitive:
		return d.Primitive.String()
	case KindPointer:
		return d.Elem.String() + "*"
	case KindArray:
		return fmt.Sprintf("[%s; %d]", d.Elem.String(), d.Length)
	default:
		return "none"
	}
}

// BaseSize returns the storage size in bytes of one value of this datatype.
// Pointers report the machine word size (8 bytes, matching the f64-wide
// operand stack cell); arrays report element size * length.
func (d Datatype) BaseSize() int {
	switch d.Kind {
	case KindPrimitive:
		return d.Primitive.ByteSize()
	case KindPointer:
		return 8
	case KindArray:
		return d.Elem.BaseSize() * d.Length
	default:
		return 0
	}
}
