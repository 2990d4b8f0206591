package compiler

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Program is the three-parallel-stream program code model (spec section 3):
// instructions[], operations[] and values[] are kept aligned index-for-index
// with the program counter. At index i, operations[i] is meaningful only
// when instructions[i] == OP, and values[i] only when instructions[i] ==
// VALUE; every other index carries the canonical null/zero filler, per the
// stream-alignment invariant (spec section 8).
type Program struct {
	Instructions []Instruction
	Operations   []Operation
	Values       []uint64

	UserSpaceSize int
	MaxStackSize  int

	// Comments maps an instruction index to an annotation, carried through
	// text serialization but never consulted by the emulator.
	Comments map[int]string
}

// Len returns the number of program-counter slots.
func (p *Program) Len() int { return len(p.Instructions) }

// DefaultDelimiter is the textual bytecode format's default field/line
// delimiter (spec section 6: "UTF-8 lines").
const DefaultDelimiter = "\n"

// WriteOptions configures WriteText.
type WriteOptions struct {
	// Delimiter separates successive tokens. Defaults to a newline; spec
	// section 6 requires a configurable delimiter (e.g. comma-separated) be
	// supported.
	Delimiter string
}

// WriteText serializes p to the bytecode text format (spec section 6):
// a leading `# RECOMMENDED_STACKSIZE <n>` comment, then one token per line
// (in reverse execution order), `OP` lines replaced by the operation name
// and `VALUE` lines by the literal float, everything else by the
// instruction name.
func WriteText(p *Program, opts WriteOptions) []byte {
	delim := opts.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# RECOMMENDED_STACKSIZE %d%s", p.MaxStackSize, delim)

	n := p.Len()
	for i := n - 1; i >= 0; i-- {
		if c, ok := p.Comments[i]; ok {
			fmt.Fprintf(&buf, "# %s%s", c, delim)
		}
		switch p.Instructions[i] {
		case OP:
			buf.WriteString(p.Operations[i].String())
		case VALUE:
			buf.WriteString(strconv.FormatFloat(math.Float64frombits(p.Values[i]), 'g', -1, 64))
		default:
			buf.WriteString(p.Instructions[i].String())
		}
		buf.WriteString(delim)
	}
	return buf.Bytes()
}

// ReadOptions configures ReadText.
type ReadOptions struct {
	Delimiter string
}

// ReadText parses the bytecode text format produced by WriteText, including
// its leading RECOMMENDED_STACKSIZE comment (consumed, not re-derived) and
// any custom delimiter.
func ReadText(data []byte, opts ReadOptions) (*Program, error) {
	delim := opts.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}

	var lines []string
	if delim == "\n" {
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("compiler: reading bytecode text: %w", err)
		}
	} else {
		lines = strings.Split(strings.TrimRight(string(data), delim), delim)
	}

	p := &Program{Comments: make(map[int]string)}
	var recommendedStack int
	var reversedInstr []Instruction
	var reversedOps []Operation
	var reversedVals []uint64
	var pendingComment string

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
			if strings.HasPrefix(body, "RECOMMENDED_STACKSIZE") {
				fields := strings.Fields(body)
				if len(fields) == 2 {
					n, err := strconv.Atoi(fields[1])
					if err != nil {
						return nil, fmt.Errorf("compiler: invalid RECOMMENDED_STACKSIZE: %w", err)
					}
					recommendedStack = n
				}
				continue
			}
			pendingComment = body
			continue
		}

		instr, op, val, err := parseToken(line)
		if err != nil {
			return nil, err
		}
		reversedInstr = append(reversedInstr, instr)
		reversedOps = append(reversedOps, op)
		reversedVals = append(reversedVals, val)
		if pendingComment != "" {
			p.Comments[len(reversedInstr)-1] = pendingComment
			pendingComment = ""
		}
	}

	n := len(reversedInstr)
	p.Instructions = make([]Instruction, n)
	p.Operations = make([]Operation, n)
	p.Values = make([]uint64, n)
	for i := 0; i < n; i++ {
		j := n - 1 - i
		p.Instructions[i] = reversedInstr[j]
		p.Operations[i] = reversedOps[j]
		p.Values[i] = reversedVals[j]
	}
	if len(p.Comments) > 0 {
		remapped := make(map[int]string, len(p.Comments))
		for idx, c := range p.Comments {
			remapped[n-1-idx] = c
		}
		p.Comments = remapped
	}
	p.MaxStackSize = recommendedStack
	return p, nil
}

func parseToken(tok string) (Instruction, Operation, uint64, error) {
	switch tok {
	case "GOTO":
		return GOTO, NOP, 0, nil
	case "GOTO_IF":
		return GOTO_IF, NOP, 0, nil
	case "LOOP_ENTRY":
		return LOOP_ENTRY, NOP, 0, nil
	case "LOOP_END":
		return LOOP_END, NOP, 0, nil
	}
	if op, ok := ParseOperation(tok); ok {
		return OP, op, 0, nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("compiler: invalid bytecode token %q: %w", tok, err)
	}
	return VALUE, NOP, math.Float64bits(f), nil
}
