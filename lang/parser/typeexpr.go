package parser

import (
	"strconv"

	"github.com/barracuda-lang/barracuda/lang/ast"
	"github.com/barracuda-lang/barracuda/lang/token"
	"github.com/barracuda-lang/barracuda/lang/types"
)

func qualifierFromTok(tok token.Token) types.Qualifier {
	if tok == token.CONST {
		return types.Const
	}
	return types.Mutable
}

var primitiveFromTok = map[token.Token]types.Primitive{
	token.F8: types.F8, token.F16: types.F16, token.F32: types.F32,
	token.F64: types.F64, token.F128: types.F128,
	token.I8: types.I8, token.I16: types.I16, token.I32: types.I32,
	token.I64: types.I64, token.I128: types.I128,
	token.BOOL: types.Bool, token.STRINGTYPE: types.String,
}

// parseTypeExpr parses a datatype annotation: a primitive keyword, an array
// `[T; N]`, or any number of trailing `*` marking pointer levels (spec
// section 6: `T ∈ { primitives, T*, [T; N] }`).
func (p *parser) parseTypeExpr() *ast.TypeExpr {
	start := p.tok.Pos
	base := p.parseBaseTypeExpr(start)
	for p.at(token.STAR) {
		p.next()
		base = &ast.TypeExpr{Start: start, End: p.tok.Pos, Datatype: types.NewPointer(base.Datatype)}
	}
	return base
}

func (p *parser) parseBaseTypeExpr(start token.Pos) *ast.TypeExpr {
	if p.at(token.LBRACK) {
		p.next()
		elem := p.parseTypeExpr()
		p.expect(token.SEMI)
		if p.tok.Kind != token.INT {
			p.errorf("expected array length, got %s", p.tok.Kind)
		}
		n, err := strconv.Atoi(p.tok.Lit)
		if err != nil {
			p.errorf("invalid array length %q: %s", p.tok.Lit, err)
		}
		p.next()
		end := p.expect(token.RBRACK)
		return &ast.TypeExpr{Start: start, End: end, Datatype: types.NewArray(elem.Datatype, n)}
	}

	prim, ok := primitiveFromTok[p.tok.Kind]
	if !ok {
		p.errorf("expected a datatype, got %s", p.tok.Kind)
	}
	end := p.tok.Pos
	p.next()
	return &ast.TypeExpr{Start: start, End: end, Datatype: types.NewPrimitive(prim)}
}
