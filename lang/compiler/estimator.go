package compiler

import (
	"fmt"
	"math"
)

// maxBranchDepth bounds the estimator's recursion (spec section 4.7): a
// path that would recurse deeper than this is treated as approximate
// rather than walked to completion, so a pathologically branchy program
// cannot make compilation diverge.
const maxBranchDepth = 512

// errLoopUnsupported is returned when the estimator encounters LOOP_ENTRY
// or LOOP_END. The code generator never emits either instruction, so a
// well-formed compiled program never reaches this path; it exists so the
// estimator fails fast instead of silently under-estimating, per the
// Open Question resolution recorded in DESIGN.md.
var errLoopUnsupported = fmt.Errorf("compiler: stack estimator does not support LOOP_ENTRY/LOOP_END")

// EstimateStackSize performs the bounded symbolic execution of spec section
// 4.7 over p and returns the estimated maximum operand-stack depth reached
// by any reachable path, plus whether the estimate is only approximate
// (the branch-depth bound was hit on some path).
func EstimateStackSize(p *Program) (size int, approximate bool, err error) {
	e := &estimator{p: p}
	max, err := e.walk(0, 0, -1, 0)
	if err != nil {
		return 0, false, err
	}
	return max, e.approximate, nil
}

type estimator struct {
	p           *Program
	approximate bool
}

// walk estimates the maximum depth reached along any path starting at pc
// with the given starting depth and last-seen VALUE index (lastValue, or
// -1 if none is in scope — used to resolve GOTO/GOTO_IF targets, which are
// always preceded by the literal target index as a VALUE slot per the
// builder's label-reference lowering). branchDepth counts recursive
// GOTO_IF forks taken so far, bounding recursion at maxBranchDepth.
func (e *estimator) walk(pc, depth, lastValue, branchDepth int) (int, error) {
	if branchDepth > maxBranchDepth {
		e.approximate = true
		return depth, nil
	}

	max := depth
	for pc < e.p.Len() {
		switch e.p.Instructions[pc] {
		case VALUE:
			depth++
			lastValue = int(math.Float64frombits(e.p.Values[pc]))
			if depth > max {
				max = depth
			}
			pc++

		case OP:
			consume, produce := e.p.Operations[pc].Arity()
			if consume < 0 || produce < 0 {
				return 0, fmt.Errorf("compiler: indeterminate arity for operation %s at pc %d", e.p.Operations[pc], pc)
			}
			depth += produce - consume
			if depth > max {
				max = depth
			}
			lastValue = -1
			pc++

		case GOTO:
			depth--
			if lastValue < 0 {
				// No resolvable target: treat as a return from this path.
				if depth > max {
					max = depth
				}
				return max, nil
			}
			pc = lastValue
			lastValue = -1

		case GOTO_IF:
			depth -= 2
			if depth > max {
				max = depth
			}
			if lastValue < 0 {
				return max, nil
			}
			target := lastValue
			fallthroughPC := pc + 1

			// The false branch is walked first, per spec section 5's
			// path-ordering note. GOTO_IF jumps when the condition is
			// zero, so the jump target is the false branch and the
			// fall-through is the true branch.
			falseMax, err := e.walk(target, depth, -1, branchDepth+1)
			if err != nil {
				return 0, err
			}
			trueMax, err := e.walk(fallthroughPC, depth, -1, branchDepth+1)
			if err != nil {
				return 0, err
			}
			if falseMax > max {
				max = falseMax
			}
			if trueMax > max {
				max = trueMax
			}
			return max, nil

		case LOOP_ENTRY, LOOP_END:
			return 0, errLoopUnsupported

		default:
			return 0, fmt.Errorf("compiler: unknown instruction %d at pc %d", e.p.Instructions[pc], pc)
		}
	}
	return max, nil
}
