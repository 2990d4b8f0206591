package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateStackSizeStraightLine(t *testing.T) {
	p := &Program{
		Instructions: []Instruction{VALUE, VALUE, OP},
		Operations:   []Operation{NOP, NOP, ADD},
		Values:       []uint64{math.Float64bits(2), math.Float64bits(3), 0},
	}
	size, approx, err := EstimateStackSize(p)
	require.NoError(t, err)
	assert.False(t, approx)
	assert.Equal(t, 2, size) // two pushes reach depth 2 before ADD consumes both
}

func TestEstimateStackSizeFollowsBothBranchesOfGotoIf(t *testing.T) {
	// cond(push) ; VALUE <jump-target> ; GOTO_IF ; three pushes on the
	// fall-through path; the jump target (index 8) is past the end.
	p := &Program{
		Instructions: []Instruction{
			VALUE, VALUE, OP, // push cond
			VALUE,    // jump-target literal (index 3)
			OP,       // GOTO_IF stand-in marker, overwritten below
			VALUE, VALUE, // fall-through: pushes at indices 5 and 6
			VALUE, // fall-through: push at index 7
		},
		Operations: []Operation{NOP, NOP, CMP_EQ, NOP, NOP, NOP, NOP, NOP},
		Values: []uint64{
			0, 0, 0,
			math.Float64bits(8), // else target = index 8
			0,
			0, 0,
			0,
		},
	}
	p.Instructions[4] = GOTO_IF
	size, approx, err := EstimateStackSize(p)
	require.NoError(t, err)
	assert.False(t, approx)
	// the fall-through path pushes three values in a row (depth 3); the
	// branch target is past the end of the program (depth 0, a return).
	// The estimator must report the maximum across both paths.
	assert.Equal(t, 3, size)
}

func TestEstimateStackSizeGotoWithNoTargetEndsPath(t *testing.T) {
	p := &Program{
		Instructions: []Instruction{VALUE, GOTO},
		Operations:   []Operation{NOP, NOP},
		Values:       []uint64{math.Float64bits(1), 0},
	}
	// GOTO with no preceding resolvable VALUE-as-target: lastValue is set
	// from the VALUE at pc 0, so this GOTO actually has a target (1.0,
	// out of range) - instead exercise the true "no target" path directly
	// via the internal walk with lastValue = -1.
	e := &estimator{p: p}
	max, err := e.walk(1, 0, -1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, max)
}

func TestEstimateStackSizeUnknownInstructionErrors(t *testing.T) {
	p := &Program{
		Instructions: []Instruction{Instruction(99)},
		Operations:   []Operation{NOP},
		Values:       []uint64{0},
	}
	_, _, err := EstimateStackSize(p)
	assert.Error(t, err)
}

func TestEstimateStackSizeLoopInstructionsUnimplemented(t *testing.T) {
	p := &Program{
		Instructions: []Instruction{LOOP_ENTRY},
		Operations:   []Operation{NOP},
		Values:       []uint64{0},
	}
	_, _, err := EstimateStackSize(p)
	assert.ErrorIs(t, err, errLoopUnsupported)
}
