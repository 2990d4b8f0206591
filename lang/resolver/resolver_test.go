package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barracuda-lang/barracuda/lang/parser"
	"github.com/barracuda-lang/barracuda/lang/resolver"
	"github.com/barracuda-lang/barracuda/lang/types"
)

func analyze(t *testing.T, src string, externs map[string]resolver.ExternBinding) (*resolver.Result, error) {
	t.Helper()
	chunk, err := parser.Parse("t.bc", []byte(src))
	require.NoError(t, err)
	return resolver.Analyze(chunk, externs)
}

func kindOf(t *testing.T, err error) resolver.ErrorKind {
	t.Helper()
	var re *resolver.Error
	require.ErrorAs(t, err, &re)
	return re.Kind
}

func TestAnalyzeInfersLiteralDefaultTypes(t *testing.T) {
	res, err := analyze(t, "let i = 1; let f = 1.5; let b = true;", nil)
	require.NoError(t, err)
	for name, want := range map[string]types.Primitive{"i": types.I64, "f": types.F64, "b": types.Bool} {
		sym, ok := res.Symbols.Find(0, name)
		require.True(t, ok)
		assert.True(t, sym.Datatype.Equal(types.NewPrimitive(want)), name)
	}
}

func TestDuplicateSymbolInSameScopeFails(t *testing.T) {
	_, err := analyze(t, "let x = 1; let x = 2;", nil)
	require.Error(t, err)
	assert.Equal(t, resolver.DuplicateSymbol, kindOf(t, err))
}

func TestUnknownSymbolFails(t *testing.T) {
	_, err := analyze(t, "print y;", nil)
	require.Error(t, err)
	assert.Equal(t, resolver.UnknownSymbol, kindOf(t, err))
}

func TestUnknownExternFails(t *testing.T) {
	_, err := analyze(t, "extern missing;", nil)
	require.Error(t, err)
	assert.Equal(t, resolver.UnknownExtern, kindOf(t, err))
}

func TestAssignmentToConstFails(t *testing.T) {
	_, err := analyze(t, "let const x = 1; x = 2;", nil)
	require.Error(t, err)
	assert.Equal(t, resolver.QualifierViolation, kindOf(t, err))
}

func TestAssignmentTypeMismatchFails(t *testing.T) {
	_, err := analyze(t, "let x: i64 = 1; let y: bool = true; x = y;", nil)
	require.Error(t, err)
	assert.Equal(t, resolver.TypeMismatch, kindOf(t, err))
}

func TestArgumentCountMismatchFails(t *testing.T) {
	_, err := analyze(t, "fn add(a: f64, b: f64): f64 { return a + b; } print add(1.0);", nil)
	require.Error(t, err)
	assert.Equal(t, resolver.ArgumentCountMismatch, kindOf(t, err))
}

func TestIndexingArrayYieldsElementType(t *testing.T) {
	res, err := analyze(t, "let a: [i64; 3] = [1, 2, 3]; let x = a[0];", nil)
	require.NoError(t, err)
	sym, ok := res.Symbols.Find(0, "x")
	require.True(t, ok)
	assert.True(t, sym.Datatype.Equal(types.NewPrimitive(types.I64)))
}

func TestReferenceYieldsPointerType(t *testing.T) {
	res, err := analyze(t, "let x: f64 = 1.0; let p = &x;", nil)
	require.NoError(t, err)
	sym, ok := res.Symbols.Find(0, "p")
	require.True(t, ok)
	assert.True(t, sym.Datatype.Equal(types.NewPointer(types.NewPrimitive(types.F64))))
}

func TestMonomorphisationInstantiatesOncePerDistinctArgTuple(t *testing.T) {
	src := `fn id(a) { return a; } print id(1.0); print id(2.0); print id(1);`
	res, err := analyze(t, src, nil)
	require.NoError(t, err)

	fd, ok := res.Functions.Lookup("id")
	require.True(t, ok)
	// two calls with f64 args share an implementation; the i64 call
	// instantiates a second one (spec section 8, monomorphisation
	// identity / spec section 4.2).
	assert.Len(t, fd.Impls, 2)
}

func TestExternPointerDepthRecorded(t *testing.T) {
	externs := map[string]resolver.ExternBinding{
		"buf": {Address: 10, PointerDepth: 2, Primitive: types.F64},
	}
	res, err := analyze(t, "extern buf;", externs)
	require.NoError(t, err)
	sym, ok := res.Symbols.Find(0, "buf")
	require.True(t, ok)
	assert.Equal(t, 2, sym.Datatype.PointerDepth())
}

func TestPointerOperatorsRestrictedToEqualityComparisons(t *testing.T) {
	_, err := analyze(t, "let x: f64 = 1.0; let p = &x; let q = &x; let s = p + q;", nil)
	require.Error(t, err)
	assert.Equal(t, resolver.TypeMismatch, kindOf(t, err))
}

func TestPointerEqualityIsAllowed(t *testing.T) {
	_, err := analyze(t, "let x: f64 = 1.0; let p = &x; let q = &x; let eq = p == q;", nil)
	require.NoError(t, err)
}
