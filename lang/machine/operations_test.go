package machine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barracuda-lang/barracuda/lang/compiler"
)

func newTestThreadWithOutput(t *testing.T) *Thread {
	t.Helper()
	prog := &compiler.Program{
		Instructions: []compiler.Instruction{compiler.OP},
		Operations:   []compiler.Operation{compiler.NOP},
		Values:       []uint64{0},
	}
	th := NewThread(prog, NewUserSpace(8), NewEnvironmentTable(), 0)
	th.Out = &bytes.Buffer{}
	return th
}

func TestExecOpPrintcPrintsPackedStringStoppingAtZeroByte(t *testing.T) {
	th := newTestThreadWithOutput(t)
	word := uint64('h') | uint64('i')<<8 // zero bytes above, as PackString would leave them
	require.NoError(t, th.push(Uint(word)))
	require.NoError(t, th.execOp(compiler.PRINTC))
	assert.Equal(t, "hi", th.Out.(*bytes.Buffer).String())
}

func TestExecOpPrintctGatesOutputOnThreadID(t *testing.T) {
	th := newTestThreadWithOutput(t)
	th.ID = 3

	// matching id: prints
	require.NoError(t, th.push(Uint(3)))
	require.NoError(t, th.push(Uint(uint64('x'))))
	require.NoError(t, th.execOp(compiler.PRINTCT))
	assert.Equal(t, "x", th.Out.(*bytes.Buffer).String())

	// non-matching id: silent
	require.NoError(t, th.push(Uint(9)))
	require.NoError(t, th.push(Uint(uint64('y'))))
	require.NoError(t, th.execOp(compiler.PRINTCT))
	assert.Equal(t, "x", th.Out.(*bytes.Buffer).String())
}

func TestExecOpPrintfftGatesOutputOnThreadID(t *testing.T) {
	th := newTestThreadWithOutput(t)
	th.ID = 1

	require.NoError(t, th.push(Uint(1)))
	require.NoError(t, th.push(Real(4.5)))
	require.NoError(t, th.execOp(compiler.PRINTFFT))
	assert.Equal(t, "4.5\n", th.Out.(*bytes.Buffer).String())

	require.NoError(t, th.push(Uint(2)))
	require.NoError(t, th.push(Real(9)))
	require.NoError(t, th.execOp(compiler.PRINTFFT))
	assert.Equal(t, "4.5\n", th.Out.(*bytes.Buffer).String(), "a non-matching thread id must not print")
}

func TestExecOpLdnxRcnxRoundTripThroughUserSpace(t *testing.T) {
	th := newTestThreadWithOutput(t)

	require.NoError(t, th.push(Real(6.25)))
	require.NoError(t, th.push(Uint(2))) // address
	require.NoError(t, th.execOp(compiler.RCNX))

	require.NoError(t, th.push(Uint(2)))
	require.NoError(t, th.execOp(compiler.LDNX))

	v, err := th.pop()
	require.NoError(t, err)
	assert.Equal(t, 6.25, v.Float())
}

func TestExecOpLdnxptrAliasesUserSpaceAddressSpace(t *testing.T) {
	th := newTestThreadWithOutput(t)

	require.NoError(t, th.push(Real(3.5)))
	require.NoError(t, th.push(Uint(1)))
	require.NoError(t, th.execOp(compiler.RCNX))

	require.NoError(t, th.push(Uint(1)))
	require.NoError(t, th.execOp(compiler.LDNXPTR))

	ptr, err := th.pop()
	require.NoError(t, err)

	bits, err := th.readWord(ptr.Uint64(), 8)
	require.NoError(t, err)
	assert.Equal(t, Real(3.5).Bits(), bits)
}

func TestExecOpAddPtrAndPtrDerefWalkHeapAllocation(t *testing.T) {
	th := newTestThreadWithOutput(t)

	base, err := th.heap.Malloc(16)
	require.NoError(t, err)
	require.NoError(t, th.heap.WriteWord(base+8, 8, Real(42).Bits()))

	require.NoError(t, th.push(Uint(base)))
	require.NoError(t, th.push(Int(8)))
	require.NoError(t, th.execOp(compiler.ADD_PTR))

	require.NoError(t, th.execOp(compiler.PTR_DEREF))
	v, err := th.pop()
	require.NoError(t, err)
	assert.Equal(t, Real(42).Bits(), v.Uint64())
}

func TestExecOpMathWrappersMatchStandardLibrary(t *testing.T) {
	th := newTestThreadWithOutput(t)

	require.NoError(t, th.push(Real(4)))
	require.NoError(t, th.execOp(compiler.SQRT))
	v, err := th.pop()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.Float())

	require.NoError(t, th.push(Real(-3.5)))
	require.NoError(t, th.execOp(compiler.FLOOR))
	v, err = th.pop()
	require.NoError(t, err)
	assert.Equal(t, -4.0, v.Float())
}

func TestExecOpLongLongToDoubleAndBack(t *testing.T) {
	th := newTestThreadWithOutput(t)

	require.NoError(t, th.push(Int(-7)))
	require.NoError(t, th.execOp(compiler.LONGLONGTODOUBLE))
	v, err := th.pop()
	require.NoError(t, err)
	assert.Equal(t, -7.0, v.Float())

	require.NoError(t, th.push(Real(-7)))
	require.NoError(t, th.execOp(compiler.DOUBLETOLONGLONG))
	v, err = th.pop()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v.Int64())
}

func TestExecOpUnknownOperationFaults(t *testing.T) {
	th := newTestThreadWithOutput(t)
	err := th.execOp(compiler.Operation(250))
	assert.Error(t, err)
}
