package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueConstructorsAndConversions(t *testing.T) {
	r := Real(2.5)
	assert.Equal(t, REAL, r.Kind)
	assert.InDelta(t, 2.5, r.Float(), 1e-9)
	assert.Equal(t, uint64(2), r.Uint64())
	assert.Equal(t, int64(2), r.Int64())

	u := Uint(42)
	assert.Equal(t, UINT, u.Kind)
	assert.Equal(t, uint64(42), u.Bits())
	assert.Equal(t, float64(42), u.Float())

	i := Int(-3)
	assert.Equal(t, INT, i.Kind)
	assert.Equal(t, int64(-3), i.Int64())
	assert.Equal(t, float64(-3), i.Float())
	assert.Equal(t, uint64(0xfffffffffffffffd), i.Uint64())
}

func TestValueBoolIsZero(t *testing.T) {
	assert.True(t, Bool(false).IsZero())
	assert.False(t, Bool(true).IsZero())
	assert.Equal(t, float64(1), Bool(true).Float())
}

func TestValueKindString(t *testing.T) {
	assert.Equal(t, "REAL", REAL.String())
	assert.Equal(t, "UINT", UINT.String())
	assert.Equal(t, "INT", INT.String())
}

func TestValueZeroValueIsRealZero(t *testing.T) {
	var v Value
	assert.Equal(t, REAL, v.Kind)
	assert.True(t, v.IsZero())
}
