// Package machine implements the stack-VM emulator (spec section 4.8): a
// thread stepping a compiled Program against an operand stack, a unified
// user-space store (environment variables and arrays), a region-based
// virtual heap, and a loop-counter stack.
package machine

import (
	"fmt"
	"math"
)

// ValueKind tags an operand-stack cell (spec section 4.8, "stack values are
// tagged REAL(f64) | UINT(u64) | INT(i64)").
type ValueKind uint8

const (
	REAL ValueKind = iota
	UINT
	INT
)

func (k ValueKind) String() string {
	switch k {
	case REAL:
		return "REAL"
	case UINT:
		return "UINT"
	case INT:
		return "INT"
	default:
		return "ValueKind(?)"
	}
}

// Value is a tagged operand-stack cell. The zero Value is REAL(0.0).
type Value struct {
	Kind ValueKind
	bits uint64
}

// Real wraps a float64 as a REAL-tagged value.
func Real(v float64) Value { return Value{Kind: REAL, bits: math.Float64bits(v)} }

// Uint wraps a uint64 as a UINT-tagged value (heap pointers, loop bounds).
func Uint(v uint64) Value { return Value{Kind: UINT, bits: v} }

// Int wraps an int64 as an INT-tagged value (bitwise results, LONGLONGTODOUBLE).
func Int(v int64) Value { return Value{Kind: INT, bits: uint64(v)} }

// Bool wraps a boolean as the REAL 0.0/1.0 the language's comparisons and
// branches use for truthiness.
func Bool(b bool) Value {
	if b {
		return Real(1)
	}
	return Real(0)
}

// Float converts v to float64, numerically, regardless of its tag (spec
// section 4.8, "popped values are converted numerically as the opcode
// demands").
func (v Value) Float() float64 {
	switch v.Kind {
	case UINT:
		return float64(v.bits)
	case INT:
		return float64(int64(v.bits))
	default:
		return math.Float64frombits(v.bits)
	}
}

// Uint64 converts v to uint64, numerically.
func (v Value) Uint64() uint64 {
	switch v.Kind {
	case UINT:
		return v.bits
	case INT:
		return uint64(int64(v.bits))
	default:
		return uint64(math.Float64frombits(v.bits))
	}
}

// Int64 converts v to int64, numerically.
func (v Value) Int64() int64 {
	switch v.Kind {
	case UINT:
		return int64(v.bits)
	case INT:
		return int64(v.bits)
	default:
		return int64(math.Float64frombits(v.bits))
	}
}

// Bits returns v's raw tagged representation: the IEEE-754 encoding for
// REAL, the plain integer for UINT/INT.
func (v Value) Bits() uint64 { return v.bits }

// IsZero reports whether v is the falsy value GOTO_IF and TERNARY test for.
func (v Value) IsZero() bool { return v.bits == 0 }

func (v Value) String() string {
	switch v.Kind {
	case UINT:
		return fmt.Sprintf("%s(%d)", v.Kind, v.bits)
	case INT:
		return fmt.Sprintf("%s(%d)", v.Kind, int64(v.bits))
	default:
		return fmt.Sprintf("%s(%g)", v.Kind, math.Float64frombits(v.bits))
	}
}
