package compiler

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barracuda-lang/barracuda/lang/types"
)

func TestParseExternSpecBasic(t *testing.T) {
	name, b, err := ParseExternSpec("sensor:100")
	require.NoError(t, err)
	assert.Equal(t, "sensor", name)
	assert.Equal(t, uint64(100), b.Address)
	assert.Equal(t, 0, b.PointerDepth)
	assert.Equal(t, defaultExternPrimitive, b.Primitive)
	assert.False(t, b.HasValue)
}

func TestParseExternSpecPointerDepthAndDatatype(t *testing.T) {
	name, b, err := ParseExternSpec("out**:12:f32")
	require.NoError(t, err)
	assert.Equal(t, "out", name)
	assert.Equal(t, 2, b.PointerDepth)
	assert.Equal(t, types.F32, b.Primitive)
}

func TestParseExternSpecWithValue(t *testing.T) {
	_, b, err := ParseExternSpec("rate:4:f64=3.5")
	require.NoError(t, err)
	assert.True(t, b.HasValue)
	assert.InDelta(t, 3.5, math.Float64frombits(b.Value), 1e-9)
}

func TestParseExternSpecIntegerValue(t *testing.T) {
	_, b, err := ParseExternSpec("count:0:i32=-7")
	require.NoError(t, err)
	assert.True(t, b.HasValue)
	assert.Equal(t, int64(-7), int64(b.Value))
}

func TestParseExternSpecBoolValue(t *testing.T) {
	// The outer spec grammar's value group only accepts numeric characters
	// (spec section 6's extern grammar is numeric-literal-shaped), so a bool
	// extern's pre-initialisation value is spelled "0"/"1", not "false"/"true".
	_, b, err := ParseExternSpec("flag:0:bool=1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b.Value)
}

func TestParseExternSpecInvalid(t *testing.T) {
	_, _, err := ParseExternSpec("not a spec")
	assert.Error(t, err)
}

func TestParseExternSpecUnknownDatatype(t *testing.T) {
	_, _, err := ParseExternSpec("x:0:bogus")
	assert.Error(t, err)
}

func TestParseExternSpecsDuplicateNameLastWins(t *testing.T) {
	out, err := ParseExternSpecs([]string{"x:1", "x:2"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), out["x"].Address)
}

func TestParseExternFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yaml")
	content := "sensor:\n  address: 10\n  datatype: f32\n  pointer_depth: 1\n  value: \"2.5\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := ParseExternFile(path)
	require.NoError(t, err)
	b, ok := out["sensor"]
	require.True(t, ok)
	assert.Equal(t, uint64(10), b.Address)
	assert.Equal(t, 1, b.PointerDepth)
	assert.Equal(t, types.F32, b.Primitive)
	assert.True(t, b.HasValue)
}
