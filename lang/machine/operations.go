package machine

import (
	"math"

	"github.com/barracuda-lang/barracuda/lang/compiler"
)

// execOp executes one OP-instruction opcode against the operand stack
// (spec section 4.8). Arithmetic, comparisons and the math-library wrappers
// work in the float64 domain (REAL), since every VALUE slot in a compiled
// Program is a float64 bit pattern (spec section 3's "Literal" packing);
// the UINT/INT tags exist for addresses, heap pointers and the handful of
// opcodes that must reinterpret a float as an integer (bitwise, shifts,
// LONGLONGTODOUBLE/DOUBLETOLONGLONG).
func (th *Thread) execOp(op compiler.Operation) error {
	switch op {
	case compiler.NOP:
		return nil

	// --- stack -------------------------------------------------------
	case compiler.DUP:
		v, err := th.pop()
		if err != nil {
			return err
		}
		if err := th.push(v); err != nil {
			return err
		}
		return th.push(v)

	case compiler.OVER:
		if len(th.stack) < 2 {
			return th.fault(StackUnderflow, "OVER needs 2 operands")
		}
		v := th.stack[len(th.stack)-2]
		return th.push(v)

	case compiler.DROP:
		_, err := th.pop()
		return err

	case compiler.SWAP:
		if len(th.stack) < 2 {
			return th.fault(StackUnderflow, "SWAP needs 2 operands")
		}
		n := len(th.stack)
		th.stack[n-1], th.stack[n-2] = th.stack[n-2], th.stack[n-1]
		return nil

	case compiler.STK_READ:
		addr, err := th.pop()
		if err != nil {
			return err
		}
		v, err := th.at(addr.Uint64())
		if err != nil {
			return err
		}
		return th.push(v)

	case compiler.STK_WRITE:
		val, err := th.pop()
		if err != nil {
			return err
		}
		addr, err := th.pop()
		if err != nil {
			return err
		}
		return th.setAt(addr.Uint64(), val)

	case compiler.LDSTK_PTR:
		if len(th.stack) == 0 {
			return th.fault(StackUnderflow, "LDSTK_PTR on an empty stack")
		}
		return th.push(Uint(uint64(len(th.stack) - 1)))

	case compiler.RCSTK_PTR:
		target, err := th.pop()
		if err != nil {
			return err
		}
		newLen := int(target.Uint64()) + 1
		if newLen < 0 || newLen > len(th.stack) {
			return th.fault(AddressOutOfRange, "RCSTK_PTR target %d out of range (size %d)", newLen, len(th.stack))
		}
		th.stack = th.stack[:newLen]
		return nil

	// --- arithmetic ----------------------------------------------------
	case compiler.ADD:
		return th.binaryFloat(func(a, b float64) float64 { return a + b })
	case compiler.SUB:
		return th.binaryFloat(func(a, b float64) float64 { return a - b })
	case compiler.MUL:
		return th.binaryFloat(func(a, b float64) float64 { return a * b })
	case compiler.DIV:
		return th.binaryFloat(func(a, b float64) float64 { return a / b })
	case compiler.FMOD:
		return th.binaryFloat(math.Mod)
	case compiler.POW:
		return th.binaryFloat(math.Pow)
	case compiler.NEGATE:
		return th.unaryFloat(func(a float64) float64 { return -a })

	// --- bitwise (integer domain) ---------------------------------------
	case compiler.BIT_AND:
		return th.binaryInt(func(a, b int64) int64 { return a & b })
	case compiler.BIT_OR:
		return th.binaryInt(func(a, b int64) int64 { return a | b })
	case compiler.BIT_XOR:
		return th.binaryInt(func(a, b int64) int64 { return a ^ b })
	case compiler.BIT_NOT:
		return th.unaryInt(func(a int64) int64 { return ^a })
	case compiler.SHL:
		return th.binaryInt(func(a, b int64) int64 { return a << uint64(b) })
	case compiler.SHR:
		return th.binaryInt(func(a, b int64) int64 { return a >> uint64(b) })

	// --- logical ---------------------------------------------------------
	case compiler.BOOL_AND:
		return th.binaryBool(func(a, b bool) bool { return a && b })
	case compiler.BOOL_OR:
		return th.binaryBool(func(a, b bool) bool { return a || b })
	case compiler.NOT:
		x, err := th.pop()
		if err != nil {
			return err
		}
		return th.push(Bool(x.IsZero()))

	// --- comparisons (produce 0/1) ----------------------------------------
	case compiler.CMP_LT:
		return th.compare(func(a, b float64) bool { return a < b })
	case compiler.CMP_GT:
		return th.compare(func(a, b float64) bool { return a > b })
	case compiler.CMP_LE:
		return th.compare(func(a, b float64) bool { return a <= b })
	case compiler.CMP_GE:
		return th.compare(func(a, b float64) bool { return a >= b })
	case compiler.CMP_EQ:
		return th.compare(func(a, b float64) bool { return a == b })
	case compiler.CMP_NEQ:
		return th.compare(func(a, b float64) bool { return a != b })

	// --- math library ------------------------------------------------------
	case compiler.SIN:
		return th.unaryFloat(math.Sin)
	case compiler.COS:
		return th.unaryFloat(math.Cos)
	case compiler.TAN:
		return th.unaryFloat(math.Tan)
	case compiler.ASIN:
		return th.unaryFloat(math.Asin)
	case compiler.ACOS:
		return th.unaryFloat(math.Acos)
	case compiler.ATAN:
		return th.unaryFloat(math.Atan)
	case compiler.ATAN2:
		return th.binaryFloat(math.Atan2)
	case compiler.SINH:
		return th.unaryFloat(math.Sinh)
	case compiler.COSH:
		return th.unaryFloat(math.Cosh)
	case compiler.TANH:
		return th.unaryFloat(math.Tanh)
	case compiler.EXP:
		return th.unaryFloat(math.Exp)
	case compiler.LOG:
		return th.unaryFloat(math.Log)
	case compiler.LOG2:
		return th.unaryFloat(math.Log2)
	case compiler.LOG10:
		return th.unaryFloat(math.Log10)
	case compiler.SQRT:
		return th.unaryFloat(math.Sqrt)
	case compiler.CBRT:
		return th.unaryFloat(math.Cbrt)
	case compiler.FLOOR:
		return th.unaryFloat(math.Floor)
	case compiler.CEIL:
		return th.unaryFloat(math.Ceil)
	case compiler.ROUND:
		return th.unaryFloat(math.Round)
	case compiler.TRUNC:
		return th.unaryFloat(math.Trunc)
	case compiler.ABS:
		return th.unaryFloat(math.Abs)
	case compiler.SCALBN, compiler.SCALBLN:
		// a*2^b, per spec section 9's note that the original flags this as
		// a suspect approximation of the libm scalbn/scalbln family: it
		// matches IEEE-754 scalbn for representable results but does not
		// replicate every platform's overflow/subnormal rounding behavior.
		return th.binaryFloat(func(a, b float64) float64 { return a * math.Pow(2, b) })
	case compiler.MIN:
		return th.binaryFloat(math.Min)
	case compiler.MAX:
		return th.binaryFloat(math.Max)
	case compiler.ERF:
		return th.unaryFloat(math.Erf)
	case compiler.ERFC:
		return th.unaryFloat(math.Erfc)
	case compiler.TGAMMA:
		return th.unaryFloat(math.Gamma)
	case compiler.LGAMMA:
		return th.unaryFloat(func(a float64) float64 {
			v, _ := math.Lgamma(a)
			return v
		})
	case compiler.BESSELJ0:
		return th.unaryFloat(math.J0)
	case compiler.BESSELJ1:
		return th.unaryFloat(math.J1)
	case compiler.BESSELY0:
		return th.unaryFloat(math.Y0)
	case compiler.BESSELY1:
		return th.unaryFloat(math.Y1)

	// --- heap ------------------------------------------------------------
	case compiler.MALLOC:
		n, err := th.pop()
		if err != nil {
			return err
		}
		ptr, err := th.heap.Malloc(n.Uint64())
		if err != nil {
			return err
		}
		return th.push(Uint(ptr))

	case compiler.FREE:
		ptr, err := th.pop()
		if err != nil {
			return err
		}
		return th.heap.Free(ptr.Uint64())

	case compiler.MEMCPY:
		n, err := th.pop()
		if err != nil {
			return err
		}
		src, err := th.pop()
		if err != nil {
			return err
		}
		dst, err := th.pop()
		if err != nil {
			return err
		}
		return th.heap.Memcpy(dst.Uint64(), src.Uint64(), n.Uint64())

	case compiler.MEMSET:
		n, err := th.pop()
		if err != nil {
			return err
		}
		val, err := th.pop()
		if err != nil {
			return err
		}
		dst, err := th.pop()
		if err != nil {
			return err
		}
		return th.heap.Memset(dst.Uint64(), byte(val.Uint64()), n.Uint64())

	case compiler.READ:
		ptr, err := th.pop()
		if err != nil {
			return err
		}
		b, err := th.heap.Read(ptr.Uint64())
		if err != nil {
			return err
		}
		return th.push(Uint(uint64(b)))

	case compiler.WRITE:
		val, err := th.pop()
		if err != nil {
			return err
		}
		ptr, err := th.pop()
		if err != nil {
			return err
		}
		return th.heap.Write(ptr.Uint64(), byte(val.Uint64()))

	case compiler.READ_F32:
		return th.readTyped(4, true)
	case compiler.READ_F64:
		return th.readTyped(8, true)
	case compiler.READ_I32:
		return th.readTyped(4, false)
	case compiler.READ_I64:
		return th.readTyped(8, false)

	case compiler.WRITE_F32:
		return th.writeTyped(4, true)
	case compiler.WRITE_F64:
		return th.writeTyped(8, true)
	case compiler.WRITE_I32:
		return th.writeTyped(4, false)
	case compiler.WRITE_I64:
		return th.writeTyped(8, false)

	case compiler.ADD_PTR:
		delta, err := th.pop()
		if err != nil {
			return err
		}
		ptr, err := th.pop()
		if err != nil {
			return err
		}
		return th.push(Uint(th.heap.AddPtr(ptr.Uint64(), delta.Int64())))

	case compiler.SUB_PTR:
		delta, err := th.pop()
		if err != nil {
			return err
		}
		ptr, err := th.pop()
		if err != nil {
			return err
		}
		return th.push(Uint(th.heap.AddPtr(ptr.Uint64(), -delta.Int64())))

	case compiler.PTR_DEREF:
		ptr, err := th.pop()
		if err != nil {
			return err
		}
		bits, err := th.heap.ReadWord(ptr.Uint64(), 8)
		if err != nil {
			return err
		}
		return th.push(Uint(bits))

	// --- ternary -----------------------------------------------------------
	case compiler.TERNARY:
		b, err := th.pop()
		if err != nil {
			return err
		}
		a, err := th.pop()
		if err != nil {
			return err
		}
		cond, err := th.pop()
		if err != nil {
			return err
		}
		if !cond.IsZero() {
			return th.push(a)
		}
		return th.push(b)

	// --- print ---------------------------------------------------------
	case compiler.PRINTC:
		word, err := th.pop()
		if err != nil {
			return err
		}
		th.printPacked(word.Bits())
		return nil

	case compiler.PRINTCT:
		word, err := th.pop()
		if err != nil {
			return err
		}
		id, err := th.pop()
		if err != nil {
			return err
		}
		if id.Uint64() == th.ID {
			th.printPacked(word.Bits())
		}
		return nil

	case compiler.PRINTFF:
		v, err := th.pop()
		if err != nil {
			return err
		}
		th.printFloat(v.Float())
		return nil

	case compiler.PRINTFFT:
		v, err := th.pop()
		if err != nil {
			return err
		}
		id, err := th.pop()
		if err != nil {
			return err
		}
		if id.Uint64() == th.ID {
			th.printFloat(v.Float())
		}
		return nil

	// --- environment access ------------------------------------------------
	case compiler.LDNX:
		addr, err := th.pop()
		if err != nil {
			return err
		}
		bits, err := th.space.Get(addr.Uint64())
		if err != nil {
			return err
		}
		return th.push(Real(math.Float64frombits(bits)))

	case compiler.RCNX:
		addr, err := th.pop()
		if err != nil {
			return err
		}
		val, err := th.pop()
		if err != nil {
			return err
		}
		return th.space.Set(addr.Uint64(), val.Bits())

	case compiler.LDNT:
		// LDNT consumes nothing and pushes the VM's natural word width in
		// bytes (8, this machine's f64 cell size), the factor that scales
		// an element index into a byte offset in an array-index-into-
		// pointer address computation; this code generator never emits it (no indexed write
		// through an extern pointer), so it is reachable only from a
		// hand-assembled program.
		return th.push(Real(8))

	case compiler.LDNXPTR:
		addr, err := th.pop()
		if err != nil {
			return err
		}
		return th.push(Uint(userSpacePtr(addr.Uint64())))

	case compiler.LDCUX:
		addr, err := th.pop()
		if err != nil {
			return err
		}
		bits, err := th.space.Get(addr.Uint64())
		if err != nil {
			return err
		}
		return th.push(Real(math.Float64frombits(bits)))

	// --- misc ------------------------------------------------------------
	case compiler.LDPC:
		return th.push(Uint(uint64(th.pc)))

	case compiler.LDTID:
		return th.push(Uint(th.ID))

	case compiler.LONGLONGTODOUBLE:
		v, err := th.pop()
		if err != nil {
			return err
		}
		return th.push(Real(float64(v.Int64())))

	case compiler.DOUBLETOLONGLONG:
		v, err := th.pop()
		if err != nil {
			return err
		}
		return th.push(Int(int64(v.Float())))

	default:
		return th.fault(UnknownOperation, "unknown operation %d", op)
	}
}

func (th *Thread) unaryFloat(f func(float64) float64) error {
	x, err := th.pop()
	if err != nil {
		return err
	}
	return th.push(Real(f(x.Float())))
}

// binaryFloat pops (b, a) in that order -- b was pushed last -- and pushes
// f(a, b), matching the code generator's "emit lhs, rhs, then op" (spec
// section 4.6.3): for `a - b`, a is pushed first and sits below b, so the
// first pop (the top of stack) is b.
func (th *Thread) binaryFloat(f func(a, b float64) float64) error {
	b, err := th.pop()
	if err != nil {
		return err
	}
	a, err := th.pop()
	if err != nil {
		return err
	}
	return th.push(Real(f(a.Float(), b.Float())))
}

func (th *Thread) unaryInt(f func(int64) int64) error {
	x, err := th.pop()
	if err != nil {
		return err
	}
	return th.push(Int(f(x.Int64())))
}

func (th *Thread) binaryInt(f func(a, b int64) int64) error {
	b, err := th.pop()
	if err != nil {
		return err
	}
	a, err := th.pop()
	if err != nil {
		return err
	}
	return th.push(Int(f(a.Int64(), b.Int64())))
}

func (th *Thread) binaryBool(f func(a, b bool) bool) error {
	b, err := th.pop()
	if err != nil {
		return err
	}
	a, err := th.pop()
	if err != nil {
		return err
	}
	return th.push(Bool(f(!a.IsZero(), !b.IsZero())))
}

func (th *Thread) compare(f func(a, b float64) bool) error {
	b, err := th.pop()
	if err != nil {
		return err
	}
	a, err := th.pop()
	if err != nil {
		return err
	}
	return th.push(Bool(f(a.Float(), b.Float())))
}

// readTyped implements the READ_F32/READ_F64/READ_I32/READ_I64 family (spec
// section 4.8): pop a pointer (either a true heap pointer or an LDNXPTR
// alias into user-space), read an n-byte little-endian word and push it
// tagged REAL (floating) or INT (integer).
func (th *Thread) readTyped(n int, float bool) error {
	ptr, err := th.pop()
	if err != nil {
		return err
	}
	bits, err := th.readWord(ptr.Uint64(), n)
	if err != nil {
		return err
	}
	if float {
		if n == 4 {
			return th.push(Real(float64(math.Float32frombits(uint32(bits)))))
		}
		return th.push(Real(math.Float64frombits(bits)))
	}
	if n == 4 {
		return th.push(Int(int64(int32(uint32(bits)))))
	}
	return th.push(Int(int64(bits)))
}

func (th *Thread) writeTyped(n int, float bool) error {
	val, err := th.pop()
	if err != nil {
		return err
	}
	ptr, err := th.pop()
	if err != nil {
		return err
	}
	var bits uint64
	if float {
		if n == 4 {
			bits = uint64(math.Float32bits(float32(val.Float())))
		} else {
			bits = math.Float64bits(val.Float())
		}
	} else {
		if n == 4 {
			bits = uint64(uint32(val.Int64()))
		} else {
			bits = uint64(val.Int64())
		}
	}
	return th.writeWord(ptr.Uint64(), n, bits)
}
