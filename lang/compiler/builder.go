package compiler

import (
	"fmt"
	"math"
)

// tokenKind discriminates the builder's linear IR tokens (spec section 4.5):
// value, instruction, operation, label-def, label-ref, array-placeholder and
// comment.
type tokenKind uint8

const (
	tokValue tokenKind = iota
	tokInstruction
	tokOp
	tokLabelDef
	tokLabelRef
	tokArrayPlaceholder
	tokComment
)

type irToken struct {
	kind      tokenKind
	instr     Instruction // tokInstruction: GOTO, GOTO_IF, LOOP_ENTRY, LOOP_END
	op        Operation   // tokOp
	value     uint64      // tokValue: raw bit pattern
	label     int         // tokLabelDef / tokLabelRef
	arrayAddr int         // tokArrayPlaceholder: addr before env-var offset
	text      string      // tokComment
}

// Builder is the bytecode builder (spec section 4.5): it accumulates a
// linear token stream with forward label references and resolves them on
// Finalize, producing the three aligned program-code streams.
type Builder struct {
	tokens        []irToken
	nextLabel     int
	userSpaceSize int
	envVarCount   int
	pendingText   string
}

// NewBuilder creates a Builder. envVarCount is the number of host-declared
// environment variables, which occupy the low addresses of user-space ahead
// of any compiler-allocated array (spec section 4.5, emit_array).
func NewBuilder(envVarCount int) *Builder {
	return &Builder{envVarCount: envVarCount}
}

func (b *Builder) push(t irToken) {
	if b.pendingText != "" && t.kind != tokComment {
		b.tokens = append(b.tokens, irToken{kind: tokComment, text: b.pendingText})
		b.pendingText = ""
	}
	b.tokens = append(b.tokens, t)
}

// EmitValue appends a literal value slot carrying the given bit pattern.
func (b *Builder) EmitValue(bits uint64) { b.push(irToken{kind: tokValue, value: bits}) }

// EmitFloat appends a literal f64 value slot.
func (b *Builder) EmitFloat(v float64) { b.EmitValue(math.Float64bits(v)) }

// EmitInstruction appends a control-flow slot: GOTO, GOTO_IF, LOOP_ENTRY or
// LOOP_END. These never carry an operations[]/values[] payload.
func (b *Builder) EmitInstruction(instr Instruction) {
	b.push(irToken{kind: tokInstruction, instr: instr})
}

// EmitOp appends an OP slot executing op.
func (b *Builder) EmitOp(op Operation) { b.push(irToken{kind: tokOp, op: op}) }

// CreateLabel allocates a fresh, unique label id.
func (b *Builder) CreateLabel() int {
	id := b.nextLabel
	b.nextLabel++
	return id
}

// SetLabel marks the current position as label id's target.
func (b *Builder) SetLabel(id int) { b.push(irToken{kind: tokLabelDef, label: id}) }

// Reference emits a forward or backward reference to label id: at Finalize
// time this becomes a VALUE slot holding the label's resolved instruction
// index.
func (b *Builder) Reference(id int) { b.push(irToken{kind: tokLabelRef, label: id}) }

// EmitArray emits an immediate value slot whose final contents is
// addr+env_var_count (environment variables occupy the low user-space
// addresses), and accumulates size into the program's user-space size.
func (b *Builder) EmitArray(addr, size int) {
	b.push(irToken{kind: tokArrayPlaceholder, arrayAddr: addr})
	b.userSpaceSize += size
}

// EmitArrayAddr emits a reference to an already-declared array's base
// address (addr+env_var_count), without accumulating user-space size again
// (that happened once, at the array's EmitArray declaration site).
func (b *Builder) EmitArrayAddr(addr int) {
	b.push(irToken{kind: tokArrayPlaceholder, arrayAddr: addr})
}

// ReserveUserSpace accounts for size cells of user-space without emitting
// any token, for an array declaration whose base address is referenced
// later (possibly zero or more times) via EmitArrayAddr.
func (b *Builder) ReserveUserSpace(size int) { b.userSpaceSize += size }

// Comment attaches s to the next real (index-occupying) slot emitted.
func (b *Builder) Comment(s string) { b.pendingText = s }

// UserSpaceSize returns the user-space cell count accumulated so far via
// EmitArray and ReserveUserSpace.
func (b *Builder) UserSpaceSize() int { return b.userSpaceSize }

// Finalize runs the builder's two-pass label resolution (spec section 4.5):
// first it computes each label's instruction index by scanning the token
// stream (labels and comments occupy no index); then it replaces every
// label-ref with the literal index of its target, prepends header as fixed
// leading VALUE slots, and emits the three aligned streams.
func (b *Builder) Finalize(header []uint64) (*Program, error) {
	combined := make([]irToken, 0, len(header)+len(b.tokens))
	for _, h := range header {
		combined = append(combined, irToken{kind: tokValue, value: h})
	}
	combined = append(combined, b.tokens...)

	labelPC := make(map[int]int, b.nextLabel)
	pc := 0
	for _, t := range combined {
		switch t.kind {
		case tokLabelDef:
			labelPC[t.label] = pc
		case tokComment:
			// occupies no index
		default:
			pc++
		}
	}

	p := &Program{
		Comments:      make(map[int]string),
		UserSpaceSize: b.userSpaceSize,
	}
	pendingText := ""
	for i, t := range combined {
		switch t.kind {
		case tokComment:
			pendingText = t.text
			continue
		case tokLabelDef:
			continue
		case tokValue:
			p.Instructions = append(p.Instructions, VALUE)
			p.Operations = append(p.Operations, NOP)
			p.Values = append(p.Values, t.value)
		case tokLabelRef:
			idx, ok := labelPC[t.label]
			if !ok {
				return nil, fmt.Errorf("compiler: unresolved label %d at token %d", t.label, i)
			}
			p.Instructions = append(p.Instructions, VALUE)
			p.Operations = append(p.Operations, NOP)
			p.Values = append(p.Values, math.Float64bits(float64(idx)))
		case tokArrayPlaceholder:
			p.Instructions = append(p.Instructions, VALUE)
			p.Operations = append(p.Operations, NOP)
			p.Values = append(p.Values, math.Float64bits(float64(t.arrayAddr+b.envVarCount)))
		case tokInstruction:
			p.Instructions = append(p.Instructions, t.instr)
			p.Operations = append(p.Operations, NOP)
			p.Values = append(p.Values, 0)
		case tokOp:
			p.Instructions = append(p.Instructions, OP)
			p.Operations = append(p.Operations, t.op)
			p.Values = append(p.Values, 0)
		}
		if pendingText != "" {
			p.Comments[len(p.Instructions)-1] = pendingText
			pendingText = ""
		}
	}
	return p, nil
}
