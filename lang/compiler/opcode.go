package compiler

import "fmt"

// Instruction discriminates the six kinds of program-counter-aligned slot in
// a compiled program (spec section 3 and 4.8): VALUE and OP carry payload in
// the parallel values[]/operations[] streams; GOTO, GOTO_IF, LOOP_ENTRY and
// LOOP_END drive control flow directly and never read a payload stream.
type Instruction uint8

const (
	VALUE Instruction = iota
	OP
	GOTO
	GOTO_IF
	LOOP_ENTRY
	LOOP_END
)

var instructionNames = [...]string{
	VALUE: "VALUE", OP: "OP", GOTO: "GOTO", GOTO_IF: "GOTO_IF",
	LOOP_ENTRY: "LOOP_ENTRY", LOOP_END: "LOOP_END",
}

func (i Instruction) String() string {
	if int(i) < len(instructionNames) {
		return instructionNames[i]
	}
	return fmt.Sprintf("instruction(%d)", i)
}

// Operation is the opcode executed when an instruction slot is OP (spec
// section 4.8). NOP is the canonical null operation used to pad slots whose
// instruction is not OP (the stream-alignment invariant, spec section 8).
type Operation uint16

const ( //nolint:revive
	NOP Operation = iota

	// stack operations
	DUP
	OVER
	DROP
	SWAP
	STK_READ
	STK_WRITE
	LDSTK_PTR
	RCSTK_PTR

	// arithmetic
	ADD
	SUB
	MUL
	DIV
	FMOD
	POW
	NEGATE

	// bitwise
	BIT_AND
	BIT_OR
	BIT_XOR
	BIT_NOT
	SHL
	SHR

	// logical
	BOOL_AND
	BOOL_OR
	NOT

	// comparisons (produce 0/1)
	CMP_LT
	CMP_GT
	CMP_LE
	CMP_GE
	CMP_EQ
	CMP_NEQ

	// math library: trig, hyperbolic, exponential, rounding
	SIN
	COS
	TAN
	ASIN
	ACOS
	ATAN
	ATAN2
	SINH
	COSH
	TANH
	EXP
	LOG
	LOG2
	LOG10
	SQRT
	CBRT
	FLOOR
	CEIL
	ROUND
	TRUNC
	ABS
	SCALBN
	SCALBLN
	MIN
	MAX
	ERF
	ERFC
	TGAMMA
	LGAMMA
	BESSELJ0
	BESSELJ1
	BESSELY0
	BESSELY1

	// heap
	MALLOC
	FREE
	MEMCPY
	MEMSET
	READ
	WRITE
	READ_F32
	READ_F64
	READ_I32
	READ_I64
	WRITE_F32
	WRITE_F64
	WRITE_I32
	WRITE_I64
	ADD_PTR
	SUB_PTR
	PTR_DEREF

	// ternary
	TERNARY

	// print
	PRINTC
	PRINTCT
	PRINTFF
	PRINTFFT

	// environment access
	LDNX
	RCNX
	LDNT
	LDNXPTR
	LDCUX

	// misc
	LDPC
	LDTID
	LONGLONGTODOUBLE
	DOUBLETOLONGLONG
)

var operationNames = map[Operation]string{
	NOP: "NOP",
	DUP: "DUP", OVER: "OVER", DROP: "DROP", SWAP: "SWAP",
	STK_READ: "STK_READ", STK_WRITE: "STK_WRITE",
	LDSTK_PTR: "LDSTK_PTR", RCSTK_PTR: "RCSTK_PTR",
	ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV", FMOD: "FMOD", POW: "POW", NEGATE: "NEGATE",
	BIT_AND: "BIT_AND", BIT_OR: "BIT_OR", BIT_XOR: "BIT_XOR", BIT_NOT: "BIT_NOT", SHL: "SHL", SHR: "SHR",
	BOOL_AND: "BOOL_AND", BOOL_OR: "BOOL_OR", NOT: "NOT",
	CMP_LT: "CMP_LT", CMP_GT: "CMP_GT", CMP_LE: "CMP_LE", CMP_GE: "CMP_GE", CMP_EQ: "CMP_EQ", CMP_NEQ: "CMP_NEQ",
	SIN: "SIN", COS: "COS", TAN: "TAN", ASIN: "ASIN", ACOS: "ACOS", ATAN: "ATAN", ATAN2: "ATAN2",
	SINH: "SINH", COSH: "COSH", TANH: "TANH", EXP: "EXP", LOG: "LOG", LOG2: "LOG2", LOG10: "LOG10",
	SQRT: "SQRT", CBRT: "CBRT", FLOOR: "FLOOR", CEIL: "CEIL", ROUND: "ROUND", TRUNC: "TRUNC", ABS: "ABS",
	SCALBN: "SCALBN", SCALBLN: "SCALBLN", MIN: "MIN", MAX: "MAX",
	ERF: "ERF", ERFC: "ERFC", TGAMMA: "TGAMMA", LGAMMA: "LGAMMA",
	BESSELJ0: "BESSELJ0", BESSELJ1: "BESSELJ1", BESSELY0: "BESSELY0", BESSELY1: "BESSELY1",
	MALLOC: "MALLOC", FREE: "FREE", MEMCPY: "MEMCPY", MEMSET: "MEMSET", READ: "READ", WRITE: "WRITE",
	READ_F32: "READ_F32", READ_F64: "READ_F64", READ_I32: "READ_I32", READ_I64: "READ_I64",
	WRITE_F32: "WRITE_F32", WRITE_F64: "WRITE_F64", WRITE_I32: "WRITE_I32", WRITE_I64: "WRITE_I64",
	ADD_PTR: "ADD_PTR", SUB_PTR: "SUB_PTR", PTR_DEREF: "PTR_DEREF",
	TERNARY: "TERNARY",
	PRINTC:  "PRINTC", PRINTCT: "PRINTCT", PRINTFF: "PRINTFF", PRINTFFT: "PRINTFFT",
	LDNX: "LDNX", RCNX: "RCNX", LDNT: "LDNT", LDNXPTR: "LDNXPTR", LDCUX: "LDCUX",
	LDPC: "LDPC", LDTID: "LDTID", LONGLONGTODOUBLE: "LONGLONGTODOUBLE", DOUBLETOLONGLONG: "DOUBLETOLONGLONG",
}

var reverseOperationNames = func() map[string]Operation {
	m := make(map[string]Operation, len(operationNames))
	for op, name := range operationNames {
		m[name] = op
	}
	return m
}()

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", op)
}

// ParseOperation looks up an Operation by its textual name, as used by the
// bytecode text format (spec section 6).
func ParseOperation(s string) (Operation, bool) {
	op, ok := reverseOperationNames[s]
	return op, ok
}

// arity is the consume/produce stack effect of an operation (spec section
// 4.7/4.8). -1 denotes indeterminate arity; none of this opcode set needs
// it today, but the estimator honors it defensively should a future opcode
// require it.
type arity struct {
	Consume int
	Produce int
}

var operationArity = map[Operation]arity{
	NOP: {0, 0},

	DUP: {1, 2}, OVER: {2, 3}, DROP: {1, 0}, SWAP: {2, 2},
	STK_READ: {1, 1}, STK_WRITE: {2, 0},
	// LDSTK_PTR pushes the current actual operand-stack top position (used
	// by the calling convention to seed a new frame pointer); RCSTK_PTR
	// pops a target position and truncates the operand stack back to it.
	// The code generator's return sequence removes a frame's live locals
	// with DROP instead, so RCSTK_PTR is defined here for the emulator's
	// sake but never emitted.
	LDSTK_PTR: {0, 1}, RCSTK_PTR: {1, 0},

	ADD: {2, 1}, SUB: {2, 1}, MUL: {2, 1}, DIV: {2, 1}, FMOD: {2, 1}, POW: {2, 1}, NEGATE: {1, 1},
	BIT_AND: {2, 1}, BIT_OR: {2, 1}, BIT_XOR: {2, 1}, BIT_NOT: {1, 1}, SHL: {2, 1}, SHR: {2, 1},
	BOOL_AND: {2, 1}, BOOL_OR: {2, 1}, NOT: {1, 1},

	CMP_LT: {2, 1}, CMP_GT: {2, 1}, CMP_LE: {2, 1}, CMP_GE: {2, 1}, CMP_EQ: {2, 1}, CMP_NEQ: {2, 1},

	SIN: {1, 1}, COS: {1, 1}, TAN: {1, 1}, ASIN: {1, 1}, ACOS: {1, 1}, ATAN: {1, 1}, ATAN2: {2, 1},
	SINH: {1, 1}, COSH: {1, 1}, TANH: {1, 1}, EXP: {1, 1}, LOG: {1, 1}, LOG2: {1, 1}, LOG10: {1, 1},
	SQRT: {1, 1}, CBRT: {1, 1}, FLOOR: {1, 1}, CEIL: {1, 1}, ROUND: {1, 1}, TRUNC: {1, 1}, ABS: {1, 1},
	SCALBN: {2, 1}, SCALBLN: {2, 1}, MIN: {2, 1}, MAX: {2, 1},
	ERF: {1, 1}, ERFC: {1, 1}, TGAMMA: {1, 1}, LGAMMA: {1, 1},
	BESSELJ0: {1, 1}, BESSELJ1: {1, 1}, BESSELY0: {1, 1}, BESSELY1: {1, 1},

	MALLOC: {1, 1}, FREE: {1, 0}, MEMCPY: {3, 0}, MEMSET: {3, 0}, READ: {1, 1}, WRITE: {2, 0},
	READ_F32: {1, 1}, READ_F64: {1, 1}, READ_I32: {1, 1}, READ_I64: {1, 1},
	WRITE_F32: {2, 0}, WRITE_F64: {2, 0}, WRITE_I32: {2, 0}, WRITE_I64: {2, 0},
	ADD_PTR: {2, 1}, SUB_PTR: {2, 1}, PTR_DEREF: {1, 1},

	TERNARY: {3, 1},

	PRINTC: {1, 0}, PRINTCT: {2, 0}, PRINTFF: {1, 0}, PRINTFFT: {2, 0},

	LDNX: {1, 1}, RCNX: {2, 0}, LDNT: {0, 1}, LDNXPTR: {1, 1}, LDCUX: {1, 1},

	LDPC: {0, 1}, LDTID: {0, 1}, LONGLONGTODOUBLE: {1, 1}, DOUBLETOLONGLONG: {1, 1},
}

// Arity returns op's (consume, produce) stack effect, or (-1, -1) if op is
// not in the table (unknown-operation, spec section 7).
func (op Operation) Arity() (consume, produce int) {
	a, ok := operationArity[op]
	if !ok {
		return -1, -1
	}
	return a.Consume, a.Produce
}
