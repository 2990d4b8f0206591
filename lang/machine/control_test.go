package machine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barracuda-lang/barracuda/lang/compiler"
)

func bits(v float64) uint64 { return math.Float64bits(v) }

func newTestThread(prog *compiler.Program) *Thread {
	return NewThread(prog, NewUserSpace(8), NewEnvironmentTable(), 0)
}

// push 2, push 3, ADD, GOTO -1 (halt)
func TestThreadRunsAddThenHalts(t *testing.T) {
	prog := &compiler.Program{
		Instructions: []compiler.Instruction{compiler.VALUE, compiler.VALUE, compiler.OP, compiler.VALUE, compiler.GOTO},
		Operations:   []compiler.Operation{compiler.NOP, compiler.NOP, compiler.ADD, compiler.NOP, compiler.NOP},
		Values:       []uint64{bits(2), bits(3), 0, bits(-1), 0},
	}
	th := newTestThread(prog)
	require.NoError(t, th.Run())
	require.True(t, th.ExecutionFinished())
	require.Equal(t, 1, th.StackDepth())
	assert.InDelta(t, 5, th.Stack()[0].Float(), 1e-9)
}

// push cond(0), push target(4), GOTO_IF: GOTO_IF jumps to addr when cond
// IS zero (branch away from the "then" path on a falsy condition), so this
// exercises the taken branch.
func TestThreadGotoIfTakenWhenConditionZero(t *testing.T) {
	prog := &compiler.Program{
		Instructions: []compiler.Instruction{
			compiler.VALUE,   // 0: push cond = 0 (falsy)
			compiler.VALUE,   // 1: push target = 4
			compiler.GOTO_IF, // 2
			compiler.VALUE,   // 3: push 111 (skipped)
			compiler.VALUE,   // 4: push 222
			compiler.VALUE,   // 5: push -1
			compiler.GOTO,    // 6: halt
		},
		Operations: []compiler.Operation{
			compiler.NOP, compiler.NOP, compiler.NOP, compiler.NOP, compiler.NOP, compiler.NOP, compiler.NOP,
		},
		Values: []uint64{bits(0), bits(4), 0, bits(111), bits(222), bits(-1), 0},
	}
	th := newTestThread(prog)
	require.NoError(t, th.Run())
	require.Equal(t, 1, th.StackDepth())
	assert.Equal(t, float64(222), th.Stack()[0].Float())
}

func TestThreadGotoIfFallsThroughWhenConditionNonzero(t *testing.T) {
	prog := &compiler.Program{
		Instructions: []compiler.Instruction{
			compiler.VALUE, compiler.VALUE, compiler.GOTO_IF,
			compiler.VALUE, compiler.VALUE, compiler.GOTO,
		},
		Operations: []compiler.Operation{compiler.NOP, compiler.NOP, compiler.NOP, compiler.NOP, compiler.NOP, compiler.NOP},
		Values:     []uint64{bits(1), bits(99), 0, bits(333), bits(-1), 0},
	}
	th := newTestThread(prog)
	require.NoError(t, th.Run())
	require.Equal(t, 1, th.StackDepth())
	assert.Equal(t, float64(333), th.Stack()[0].Float())
}

func TestThreadLoopEntryEndIterates(t *testing.T) {
	// LOOP_ENTRY(start=0, end=3) then DROP a pushed marker each iteration,
	// LOOP_END bounces back until Current reaches Max.
	prog := &compiler.Program{
		Instructions: []compiler.Instruction{
			compiler.VALUE, compiler.VALUE, compiler.LOOP_ENTRY, // 0,1,2: push start, end, enter
			compiler.VALUE, compiler.OP, // 3,4: push 1, DROP (loop body)
			compiler.LOOP_END, // 5
			compiler.VALUE, compiler.GOTO, // 6,7: halt
		},
		Operations: []compiler.Operation{
			compiler.NOP, compiler.NOP, compiler.NOP,
			compiler.NOP, compiler.DROP,
			compiler.NOP,
			compiler.NOP, compiler.NOP,
		},
		Values: []uint64{bits(0), bits(3), 0, bits(9), 0, 0, bits(-1), 0},
	}
	th := newTestThread(prog)
	require.NoError(t, th.Run())
	assert.Equal(t, 0, th.StackDepth())
}

func TestThreadUnknownInstructionFaults(t *testing.T) {
	prog := &compiler.Program{
		Instructions: []compiler.Instruction{compiler.Instruction(0xff)},
		Operations:   []compiler.Operation{compiler.NOP},
		Values:       []uint64{0},
	}
	th := newTestThread(prog)
	err := th.Run()
	require.Error(t, err)
	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, UnknownInstruction, merr.Kind)
}

func TestThreadStackOverflow(t *testing.T) {
	prog := &compiler.Program{
		Instructions: []compiler.Instruction{compiler.VALUE, compiler.VALUE},
		Operations:   []compiler.Operation{compiler.NOP, compiler.NOP},
		Values:       []uint64{bits(1), bits(2)},
	}
	th := NewThread(prog, NewUserSpace(8), NewEnvironmentTable(), 1)
	err := th.Run()
	require.Error(t, err)
	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, StackOverflow, merr.Kind)
}

func TestThreadPopFromEmptyStackUnderflows(t *testing.T) {
	prog := &compiler.Program{
		Instructions: []compiler.Instruction{compiler.OP},
		Operations:   []compiler.Operation{compiler.ADD},
		Values:       []uint64{0},
	}
	th := newTestThread(prog)
	err := th.Run()
	require.Error(t, err)
	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, StackUnderflow, merr.Kind)
}
