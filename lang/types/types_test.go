package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatatypeEqualityIsStructural(t *testing.T) {
	a := NewArray(NewPrimitive(I64), 3)
	b := NewArray(NewPrimitive(I64), 3)
	assert.True(t, a.Equal(b))

	c := NewArray(NewPrimitive(I64), 4)
	assert.False(t, a.Equal(c))

	p1 := NewPointer(NewPrimitive(F64))
	p2 := NewPointer(NewPrimitive(F64))
	assert.True(t, p1.Equal(p2))
	assert.False(t, p1.Equal(NewPrimitive(F64)))
}

func TestPointerNestingEncodesIndirectionDepth(t *testing.T) {
	pp := NewPointer(NewPointer(NewPrimitive(I32)))
	assert.Equal(t, 2, pp.PointerDepth())
	assert.Equal(t, NewPointer(NewPrimitive(I32)), pp.Deref())
}

func TestWidenNumericPromotion(t *testing.T) {
	w, ok := Widen(I32, F64)
	assert.True(t, ok)
	assert.Equal(t, F64, w)

	_, ok = Widen(Bool, I32)
	assert.False(t, ok)
}

func TestPrimitiveByteSizes(t *testing.T) {
	assert.Equal(t, 8, F64.ByteSize())
	assert.Equal(t, 4, I32.ByteSize())
	assert.Equal(t, 1, I8.ByteSize())
}

func TestParsePrimitiveRoundTrip(t *testing.T) {
	for _, p := range []Primitive{F8, F16, F32, F64, F128, I8, I16, I32, I64, I128, Bool, String} {
		got, ok := ParsePrimitive(p.String())
		assert.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := ParsePrimitive("not-a-type")
	assert.False(t, ok)
}

func TestLiteralDatatypeDefaults(t *testing.T) {
	intLit := Literal{Kind: LiteralInteger, Integer: 1}
	assert.True(t, intLit.Datatype().Equal(NewPrimitive(I64)))

	floatLit := Literal{Kind: LiteralFloat, Float: 1.5}
	assert.True(t, floatLit.Datatype().Equal(NewPrimitive(F64)))

	boolLit := Literal{Kind: LiteralBool, Bool: true}
	assert.True(t, boolLit.Datatype().Equal(NewPrimitive(Bool)))
}

func TestPackStringZeroPadsHighOrderBytesOfShortFinalChunk(t *testing.T) {
	words := PackString("hi", 8)
	require := assert.New(t)
	require.Len(words, 1)
	// "hi" = 0x68, 0x69 in the two low-order byte positions; the
	// remaining six high-order bytes of the word are zero.
	want := uint64(0x68) | uint64(0x69)<<8
	require.Equal(want, words[0])
}
