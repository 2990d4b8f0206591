package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderForwardLabelResolution(t *testing.T) {
	b := NewBuilder(0)

	// if (false) goto skip; push 1; skip: push 2
	skip := b.CreateLabel()
	b.EmitFloat(0) // condition
	b.Reference(skip)
	b.EmitInstruction(GOTO_IF)
	b.EmitFloat(1)
	b.SetLabel(skip)
	b.EmitFloat(2)

	prog, err := b.Finalize(nil)
	require.NoError(t, err)

	// slots: [0, <skip-target>, GOTO_IF, 1, 2]
	require.Equal(t, 5, prog.Len())
	assert.Equal(t, VALUE, prog.Instructions[0])
	assert.Equal(t, float64(0), math.Float64frombits(prog.Values[0]))
	assert.Equal(t, VALUE, prog.Instructions[1])
	assert.Equal(t, GOTO_IF, prog.Instructions[2])
	// the skip label resolves to index 4, the "push 2" slot
	assert.Equal(t, float64(4), math.Float64frombits(prog.Values[1]))
}

func TestBuilderUnresolvedLabelErrors(t *testing.T) {
	b := NewBuilder(0)
	b.Reference(b.CreateLabel() + 100) // reference a label never defined
	_, err := b.Finalize(nil)
	assert.Error(t, err)
}

func TestBuilderHeaderPrepended(t *testing.T) {
	b := NewBuilder(0)
	b.EmitFloat(42)
	prog, err := b.Finalize([]uint64{math.Float64bits(0), math.Float64bits(7)})
	require.NoError(t, err)
	require.Equal(t, 3, prog.Len())
	assert.Equal(t, float64(0), math.Float64frombits(prog.Values[0]))
	assert.Equal(t, float64(7), math.Float64frombits(prog.Values[1]))
	assert.Equal(t, float64(42), math.Float64frombits(prog.Values[2]))
}

func TestBuilderArrayAddressOffsetByEnvVarCount(t *testing.T) {
	b := NewBuilder(3) // 3 environment variables occupy addresses 0-2
	b.EmitArray(0, 4)  // first array, base address 0, before the env offset
	prog, err := b.Finalize(nil)
	require.NoError(t, err)
	require.Equal(t, 1, prog.Len())
	assert.Equal(t, float64(3), math.Float64frombits(prog.Values[0]))
	assert.Equal(t, 4, prog.UserSpaceSize)
}

func TestBuilderCommentAttachesToNextSlot(t *testing.T) {
	b := NewBuilder(0)
	b.Comment("answer")
	b.EmitFloat(42)
	prog, err := b.Finalize(nil)
	require.NoError(t, err)
	assert.Equal(t, "answer", prog.Comments[0])
}
