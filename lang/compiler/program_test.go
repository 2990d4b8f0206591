package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProgram() *Program {
	return &Program{
		Instructions: []Instruction{VALUE, VALUE, OP, GOTO},
		Operations:   []Operation{NOP, NOP, ADD, NOP},
		Values: []uint64{
			math.Float64bits(2),
			math.Float64bits(3),
			0,
			0,
		},
		UserSpaceSize: 4,
		MaxStackSize:  8,
		Comments:      map[int]string{2: "add the two operands"},
	}
}

func TestWriteTextReverseOrderAndHeader(t *testing.T) {
	p := sampleProgram()
	text := string(WriteText(p, WriteOptions{}))

	lines := splitNonEmptyLines(text)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "RECOMMENDED_STACKSIZE 8")

	// Tokens are written in reverse execution order: the last instruction
	// (GOTO) appears first, the first VALUE (2) appears last.
	last := lines[len(lines)-1]
	assert.Equal(t, "2", last)
}

func splitNonEmptyLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func TestWriteReadTextRoundTrip(t *testing.T) {
	p := sampleProgram()
	text := WriteText(p, WriteOptions{})

	got, err := ReadText(text, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, p.Instructions, got.Instructions)
	assert.Equal(t, p.Operations, got.Operations)
	assert.Equal(t, p.Values, got.Values)
	assert.Equal(t, p.MaxStackSize, got.MaxStackSize)
	assert.Equal(t, p.Comments, got.Comments)
}

func TestWriteReadTextCustomDelimiter(t *testing.T) {
	p := sampleProgram()
	opts := WriteOptions{Delimiter: ","}
	text := WriteText(p, opts)

	got, err := ReadText(text, ReadOptions{Delimiter: ","})
	require.NoError(t, err)
	assert.Equal(t, p.Instructions, got.Instructions)
	assert.Equal(t, p.Values, got.Values)
}

func TestReadTextInvalidToken(t *testing.T) {
	_, err := ReadText([]byte("# RECOMMENDED_STACKSIZE 0\nNOT_A_TOKEN\n"), ReadOptions{})
	assert.Error(t, err)
}

func TestProgramLen(t *testing.T) {
	p := sampleProgram()
	assert.Equal(t, 4, p.Len())
}
