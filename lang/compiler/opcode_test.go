package compiler

import "testing"

func TestOperationStringParseRoundTrip(t *testing.T) {
	for op, name := range operationNames {
		got, ok := ParseOperation(name)
		if !ok {
			t.Fatalf("ParseOperation(%q): not found", name)
		}
		if got != op {
			t.Fatalf("ParseOperation(%q) = %v, want %v", name, got, op)
		}
		if op.String() != name {
			t.Fatalf("Operation(%d).String() = %q, want %q", op, op.String(), name)
		}
	}
}

func TestParseOperationUnknown(t *testing.T) {
	if _, ok := ParseOperation("NOT_A_REAL_OP"); ok {
		t.Fatal("ParseOperation unexpectedly succeeded on a nonsense token")
	}
}

// Every named operation must have an arity entry, or the stack estimator's
// indeterminate-arity guard (EstimateStackSize) would fire on every program
// that uses it.
func TestEveryOperationHasArity(t *testing.T) {
	for op, name := range operationNames {
		if op == NOP {
			continue
		}
		consume, produce := op.Arity()
		if consume < 0 || produce < 0 {
			t.Errorf("operation %s has no arity entry", name)
		}
	}
}

func TestArityUnknownOperation(t *testing.T) {
	var unknown Operation = 0xffff
	consume, produce := unknown.Arity()
	if consume != -1 || produce != -1 {
		t.Fatalf("Arity() for unknown op = (%d, %d), want (-1, -1)", consume, produce)
	}
}

func TestLDNTArityMatchesOriginalSource(t *testing.T) {
	// original_source/common/src/program_code/ops.rs declares LDNT with
	// consume=0, produce=1: it pushes the VM's natural word size without
	// reading anything off the stack.
	consume, produce := LDNT.Arity()
	if consume != 0 || produce != 1 {
		t.Fatalf("LDNT.Arity() = (%d, %d), want (0, 1)", consume, produce)
	}
}

func TestInstructionString(t *testing.T) {
	cases := map[Instruction]string{
		VALUE: "VALUE", OP: "OP", GOTO: "GOTO", GOTO_IF: "GOTO_IF",
		LOOP_ENTRY: "LOOP_ENTRY", LOOP_END: "LOOP_END",
	}
	for instr, want := range cases {
		if got := instr.String(); got != want {
			t.Errorf("Instruction(%d).String() = %q, want %q", instr, got, want)
		}
	}
}

func TestBuiltinNamesSortedAndResolvable(t *testing.T) {
	names := BuiltinNames()
	if len(names) != len(builtinOps) {
		t.Fatalf("BuiltinNames returned %d names, want %d", len(names), len(builtinOps))
	}
	for i, name := range names {
		if i > 0 && names[i-1] >= name {
			t.Errorf("names not sorted: %q before %q", names[i-1], name)
		}
		op, ok := BuiltinOp(name)
		if !ok || op == NOP {
			t.Errorf("BuiltinOp(%q) = %v, %t", name, op, ok)
		}
	}
}
