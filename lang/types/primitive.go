// Package types implements the datatype lattice shared by the resolver and
// the code generator: primitive types, pointers, arrays, qualifiers and
// literal values (spec section 3).
package types

import "fmt"

// Primitive is a tagged enumeration over the scalar datatypes the language
// supports natively on the accelerator.
type Primitive uint8

const (
	F8 Primitive = iota
	F16
	F32
	F64
	F128
	I8
	I16
	I32
	I64
	I128
	Bool
	String
)

var primitiveNames = [...]string{
	F8: "f8", F16: "f16", F32: "f32", F64: "f64", F128: "f128",
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128",
	Bool: "bool", String: "string",
}

func (p Primitive) String() string {
	if int(p) >= len(primitiveNames) {
		return fmt.Sprintf("primitive(%d)", p)
	}
	return primitiveNames[p]
}

// ByteSize returns the size in bytes of a value of this primitive type, as
// used for address arithmetic over arrays and pointers. Strings are packed
// into f64 cells (see Literal) and report the f64 element size here because
// that is the unit of storage the generator allocates for them.
func (p Primitive) ByteSize() int {
	switch p {
	case F8, I8:
		return 1
	case F16, I16:
		return 2
	case F32, I32, Bool:
		return 4
	case F64, I64, String:
		return 8
	case F128, I128:
		return 16
	default:
		return 0
	}
}

var reversePrimitiveNames = func() map[string]Primitive {
	m := make(map[string]Primitive, len(primitiveNames))
	for p, name := range primitiveNames {
		m[name] = Primitive(p)
	}
	return m
}()

// ParsePrimitive looks up a Primitive by its textual name, as used by the
// extern specification grammar (spec section 6).
func ParsePrimitive(s string) (Primitive, bool) {
	p, ok := reversePrimitiveNames[s]
	return p, ok
}

// IsFloat reports whether p is one of the floating-point primitives.
func (p Primitive) IsFloat() bool {
	return p == F8 || p == F16 || p == F32 || p == F64 || p == F128
}

// IsInteger reports whether p is one of the integer primitives.
func (p Primitive) IsInteger() bool {
	return p == I8 || p == I16 || p == I32 || p == I64 || p == I128
}

// IsNumeric reports whether p is an integer or floating point primitive
// (i.e. supports the full set of arithmetic operators).
func (p Primitive) IsNumeric() bool {
	return p.IsFloat() || p.IsInteger()
}

// SupportedInEnvironment reports whether an environment-variable typed read
// of width p is supported by the emulator's LDNX/READ_* opcodes. F128, F16,
// F8, I128, I16 and I8 are rejected as invalid-datatype per spec section
// 4.2/7.
func (p Primitive) SupportedInEnvironment() bool {
	switch p {
	case F32, F64, I32, I64, Bool, String:
		return true
	default:
		return false
	}
}

// widenRank orders numeric primitives from narrowest to widest so that
// binary arithmetic can promote operands per spec section 4.2. Mixed
// float/integer operations promote to the float side's width, matching the
// original implementation's numeric tower.
var widenRank = map[Primitive]int{
	I8: 0, I16: 1, I32: 2, I64: 3, I128: 4,
	F8: 5, F16: 6, F32: 7, F64: 8, F128: 9,
}

// Widen returns the result primitive of a binary arithmetic operation
// between a and b, or false if either is not numeric.
func Widen(a, b Primitive) (Primitive, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return 0, false
	}
	if widenRank[a] >= widenRank[b] {
		return a, true
	}
	return b, true
}
