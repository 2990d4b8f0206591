package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barracuda-lang/barracuda/lang/token"
)

func scanAll(t *testing.T, src string) []Tok {
	t.Helper()
	s := New([]byte(src))
	var toks []Tok
	for {
		tok, err := s.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestScannerIdentifiersAndKeywords(t *testing.T) {
	toks := scanAll(t, "let x fn y")
	kinds := []token.Token{toks[0].Kind, toks[1].Kind, toks[2].Kind, toks[3].Kind}
	assert.Equal(t, []token.Token{token.LET, token.IDENT, token.FN, token.IDENT}, kinds)
	assert.Equal(t, "x", toks[1].Lit)
}

func TestScannerIntegerAndDecimalWithExponent(t *testing.T) {
	toks := scanAll(t, "42 3.14 1e10 2.5e-3")
	require.Len(t, toks, 5) // 4 numbers + EOF
	assert.Equal(t, token.INT, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Lit)
	assert.Equal(t, token.FLOAT, toks[1].Kind)
	assert.Equal(t, "3.14", toks[1].Lit)
	assert.Equal(t, token.FLOAT, toks[2].Kind)
	assert.Equal(t, "1e10", toks[2].Lit)
	assert.Equal(t, token.FLOAT, toks[3].Kind)
	assert.Equal(t, "2.5e-3", toks[3].Lit)
}

func TestScannerLineAndBlockComments(t *testing.T) {
	toks := scanAll(t, "1 // trailing comment\n/* block\ncomment */ 2")
	assert.Equal(t, token.INT, toks[0].Kind)
	assert.Equal(t, "1", toks[0].Lit)
	assert.Equal(t, token.INT, toks[1].Kind)
	assert.Equal(t, "2", toks[1].Lit)
}

func TestScannerTwoCharOperators(t *testing.T) {
	toks := scanAll(t, "== != <= >= && ||")
	kinds := make([]token.Token, 0, 6)
	for _, tk := range toks[:6] {
		kinds = append(kinds, tk.Kind)
	}
	assert.Equal(t, []token.Token{token.EQ, token.NEQ, token.LE, token.GE, token.ANDAND, token.OROR}, kinds)
}

func TestScannerStringEscapes(t *testing.T) {
	toks := scanAll(t, `"hi\n\t\"\\"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "hi\n\t\"\\", toks[0].Lit)
}

func TestScannerUnterminatedStringIsError(t *testing.T) {
	s := New([]byte(`"unterminated`))
	_, err := s.Next()
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
}

func TestScannerIllegalCharacter(t *testing.T) {
	s := New([]byte("@"))
	_, err := s.Next()
	require.Error(t, err)
}

func TestScannerUnterminatedBlockComment(t *testing.T) {
	s := New([]byte("/* never closed"))
	_, err := s.Next()
	require.Error(t, err)
}
