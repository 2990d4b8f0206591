package machine

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/barracuda-lang/barracuda/lang/compiler"
)

// LoopFrame is one entry of the loop-counter stack (spec section 4.8):
// LOOP_ENTRY pushes one, LOOP_END advances or pops the top one. Neither
// opcode is ever emitted by this repository's code generator (spec section
// 9's open question: the estimator and generator both treat them as
// unimplemented/unreachable), but the emulator must still execute a
// hand-assembled program that uses them.
type LoopFrame struct {
	Resume  int    // pc to jump back to while looping
	Current uint64 // current iteration count
	Max     uint64 // iteration bound, from LOOP_ENTRY's popped "end"
}

// Thread is one emulator execution context (spec section 4.8): a program
// counter, a tagged operand stack that doubles as the calling convention's
// frame storage (locals and parameters are addressed directly into it by
// STK_READ/STK_WRITE), a user-space store, a virtual heap, a loop-counter
// stack and an output sink. A Thread runs exactly one Program; create a new
// one to run another.
type Thread struct {
	// ID is reported by LDTID and gates PRINTCT/PRINTFFT output (spec
	// section 4.8: "the *T variants gate output on current thread id").
	// The system emulates a single logical thread (spec section 5), so
	// this is 0 unless the caller sets it for a specific scenario.
	ID uint64

	// Out receives PRINTC/PRINTFFT/PRINTFF output. Defaults to os.Stdout.
	Out io.Writer

	// MaxStack caps the operand stack's depth; exceeding it is a
	// stack-overflow error (spec section 7). 0 means unbounded.
	MaxStack int

	prog  *compiler.Program
	space *UserSpace
	env   *EnvironmentTable
	heap  *Heap

	pc     int
	stack  []Value
	loops  []LoopFrame
	halted bool
}

// NewThread creates a Thread ready to execute prog. space must be sized at
// least prog.UserSpaceSize (the caller owns environment-variable
// registration and pre-initialisation before stepping begins); maxStack
// bounds the operand stack, typically prog.MaxStackSize.
func NewThread(prog *compiler.Program, space *UserSpace, env *EnvironmentTable, maxStack int) *Thread {
	if space == nil {
		space = NewUserSpace(prog.UserSpaceSize)
	}
	if env == nil {
		env = NewEnvironmentTable()
	}
	return &Thread{
		Out:      os.Stdout,
		MaxStack: maxStack,
		prog:     prog,
		space:    space,
		env:      env,
		heap:     NewHeap(),
	}
}

// PC reports the current program counter.
func (th *Thread) PC() int { return th.pc }

// StackDepth reports the operand stack's current size.
func (th *Thread) StackDepth() int { return len(th.stack) }

// Stack returns the live operand stack, for debugging UIs. Callers must
// not mutate the returned slice.
func (th *Thread) Stack() []Value { return th.stack }

// Space returns the thread's user-space store, for debugging UIs.
func (th *Thread) Space() *UserSpace { return th.space }

// Env returns the thread's environment-variable table, for debugging UIs.
func (th *Thread) Env() *EnvironmentTable { return th.env }

// Heap returns the thread's virtual heap, for debugging UIs.
func (th *Thread) Heap() *Heap { return th.heap }

// StackSnapshot returns a copy of the operand stack's current contents, low
// address first, for an external debugger to poll between steps (the
// terminal-UI "Main" tab's stack pane is out of scope; this is the
// documented substitute interface).
func (th *Thread) StackSnapshot() []Value {
	out := make([]Value, len(th.stack))
	copy(out, th.stack)
	return out
}

// EnvVarSnapshot returns every registered environment variable with its
// current value, in registration order, for an external debugger's "env
// vars" pane.
func (th *Thread) EnvVarSnapshot() []EnvVar {
	return th.env.List(th.space)
}

// HeapSnapshot returns one copy per currently live heap region, keyed by
// region id, for an external debugger's "Memory Heap" tab.
func (th *Thread) HeapSnapshot() map[uint16][]byte {
	return th.heap.Snapshot()
}

// ExecutionFinished reports whether the thread has run off the end of the
// program or executed a top-level GOTO with no matching return address
// (spec section 4.7's estimator treats this case as "a return").
func (th *Thread) ExecutionFinished() bool {
	return th.halted || th.pc < 0 || th.pc >= th.prog.Len()
}

// Run steps the thread until it finishes or a runtime error occurs.
func (th *Thread) Run() error {
	for !th.ExecutionFinished() {
		if err := th.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (th *Thread) fault(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{PC: th.pc, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (th *Thread) push(v Value) error {
	if th.MaxStack > 0 && len(th.stack) >= th.MaxStack {
		return th.fault(StackOverflow, "operand stack exceeds max size %d", th.MaxStack)
	}
	th.stack = append(th.stack, v)
	return nil
}

func (th *Thread) pop() (Value, error) {
	if len(th.stack) == 0 {
		return Value{}, th.fault(StackUnderflow, "pop from empty operand stack")
	}
	v := th.stack[len(th.stack)-1]
	th.stack = th.stack[:len(th.stack)-1]
	return v, nil
}

func (th *Thread) at(addr uint64) (Value, error) {
	if addr >= uint64(len(th.stack)) {
		return Value{}, th.fault(AddressOutOfRange, "stack read at %d (size %d)", addr, len(th.stack))
	}
	return th.stack[addr], nil
}

func (th *Thread) setAt(addr uint64, v Value) error {
	if addr >= uint64(len(th.stack)) {
		return th.fault(AddressOutOfRange, "stack write at %d (size %d)", addr, len(th.stack))
	}
	th.stack[addr] = v
	return nil
}

// Step executes the single instruction at the current pc (spec section
// 4.8) and dispatches, advancing pc by one except for the jump family,
// which sets it directly. Program.Instructions/Operations/Values are
// already in direct execution order (builder.go's Finalize and
// program.go's ReadText both produce that order); only the *textual*
// `.bct` encoding lists tokens in reverse-execution order, and that
// reversal is undone by ReadText before a Program ever reaches a Thread.
func (th *Thread) Step() error {
	if th.ExecutionFinished() {
		return th.fault(AddressOutOfRange, "step past end of program")
	}
	idx := th.pc
	instr := th.prog.Instructions[idx]

	switch instr {
	case compiler.VALUE:
		if err := th.push(Real(math.Float64frombits(th.prog.Values[idx]))); err != nil {
			return err
		}
		th.pc++
		return nil

	case compiler.OP:
		if err := th.execOp(th.prog.Operations[idx]); err != nil {
			return err
		}
		th.pc++
		return nil

	case compiler.GOTO:
		addr, err := th.pop()
		if err != nil {
			return err
		}
		target := int(addr.Int64())
		if target < 0 {
			th.halted = true
			return nil
		}
		th.pc = target
		return nil

	case compiler.GOTO_IF:
		addr, err := th.pop()
		if err != nil {
			return err
		}
		cond, err := th.pop()
		if err != nil {
			return err
		}
		if cond.IsZero() {
			th.pc = int(addr.Int64())
		} else {
			th.pc++
		}
		return nil

	case compiler.LOOP_ENTRY:
		end, err := th.pop()
		if err != nil {
			return err
		}
		start, err := th.pop()
		if err != nil {
			return err
		}
		th.pc++
		th.loops = append(th.loops, LoopFrame{Resume: th.pc, Current: start.Uint64(), Max: end.Uint64()})
		return nil

	case compiler.LOOP_END:
		if len(th.loops) == 0 {
			return th.fault(UnknownInstruction, "LOOP_END with no active loop")
		}
		top := &th.loops[len(th.loops)-1]
		top.Current++
		if top.Current >= top.Max {
			th.loops = th.loops[:len(th.loops)-1]
			th.pc++
			return nil
		}
		th.pc = top.Resume
		return nil

	default:
		return th.fault(UnknownInstruction, "unknown instruction %d", instr)
	}
}

// --- memory addressing ----------------------------------------------------

// readWord reads an n-byte little-endian word at ptr, dispatching to the
// heap or, for the LDNXPTR alias region, directly into UserSpace (see
// heap.go's userSpacePtr doc comment).
func (th *Thread) readWord(ptr uint64, n int) (uint64, error) {
	region, offset := splitPtr(ptr)
	if region != userSpaceRegion {
		return th.heap.ReadWord(ptr, n)
	}
	idx := offset / 8
	sub := offset % 8
	if sub+uint64(n) > 8 {
		return 0, th.fault(AddressOutOfRange, "user-space word read crosses cell boundary at %d", ptr)
	}
	cell, err := th.space.Get(idx)
	if err != nil {
		return 0, err
	}
	if n == 8 {
		return cell, nil
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], cell)
	switch n {
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf[sub : sub+4])), nil
	default:
		return 0, fmt.Errorf("machine: unsupported user-space word size %d", n)
	}
}

func (th *Thread) writeWord(ptr uint64, n int, bits uint64) error {
	region, offset := splitPtr(ptr)
	if region != userSpaceRegion {
		return th.heap.WriteWord(ptr, n, bits)
	}
	idx := offset / 8
	sub := offset % 8
	if sub+uint64(n) > 8 {
		return th.fault(AddressOutOfRange, "user-space word write crosses cell boundary at %d", ptr)
	}
	if n == 8 {
		return th.space.Set(idx, bits)
	}
	cell, err := th.space.Get(idx)
	if err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], cell)
	switch n {
	case 4:
		binary.LittleEndian.PutUint32(buf[sub:sub+4], uint32(bits))
	default:
		return fmt.Errorf("machine: unsupported user-space word size %d", n)
	}
	return th.space.Set(idx, binary.LittleEndian.Uint64(buf[:]))
}

// --- printing --------------------------------------------------------------

// formatFloat renders v the way the bytecode text format does (program.go's
// WriteText), so a PRINTFF'd result and a VALUE literal round-trip through
// the same textual shape: "4" for 4.0, "7.25" for 7.25.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (th *Thread) printFloat(v float64) {
	fmt.Fprintf(th.Out, "%s\n", formatFloat(v))
}

// printPacked writes the characters packed into one PackString word (spec
// section 3, "packed-string"), stopping at the first zero byte: the
// high-order padding bytes a short final chunk carries (spec section 8)
// terminate output exactly at the string's true end, so long as the string
// itself never legitimately embeds a NUL.
func (th *Thread) printPacked(word uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], word)
	for _, b := range buf {
		if b == 0 {
			return
		}
		th.Out.Write([]byte{b})
	}
}
