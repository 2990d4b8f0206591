package parser

import (
	"strconv"

	"github.com/barracuda-lang/barracuda/lang/ast"
	"github.com/barracuda-lang/barracuda/lang/token"
	"github.com/barracuda-lang/barracuda/lang/types"
)

// parseExpr parses a full expression, in precedence order (weakest to
// strongest binding): ternary, logical, equality, comparison, term,
// factor, exponent, unary (spec section 4.1).
func (p *parser) parseExpr() ast.Expr { return p.parseTernary() }

func (p *parser) parseTernary() ast.Expr {
	cond := p.parseLogical()
	if !p.at(token.QUESTION) {
		return cond
	}
	q := p.tok.Pos
	p.next()
	then := p.parseExpr()
	colon := p.expect(token.COLON)
	els := p.parseExpr()
	return &ast.TernaryExpr{Cond: cond, Question: q, Then: then, Colon: colon, Else: els}
}

func (p *parser) parseLogical() ast.Expr {
	x := p.parseEquality()
	for p.at(token.ANDAND) || p.at(token.OROR) {
		op, opPos := p.tok.Kind, p.tok.Pos
		p.next()
		y := p.parseEquality()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: y}
	}
	return x
}

func (p *parser) parseEquality() ast.Expr {
	x := p.parseComparison()
	for p.at(token.EQ) || p.at(token.NEQ) {
		op, opPos := p.tok.Kind, p.tok.Pos
		p.next()
		y := p.parseComparison()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: y}
	}
	return x
}

func (p *parser) parseComparison() ast.Expr {
	x := p.parseTerm()
	for p.at(token.LT) || p.at(token.GT) || p.at(token.LE) || p.at(token.GE) {
		op, opPos := p.tok.Kind, p.tok.Pos
		p.next()
		y := p.parseTerm()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: y}
	}
	return x
}

func (p *parser) parseTerm() ast.Expr {
	x := p.parseFactor()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op, opPos := p.tok.Kind, p.tok.Pos
		p.next()
		y := p.parseFactor()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: y}
	}
	return x
}

func (p *parser) parseFactor() ast.Expr {
	x := p.parseExponent()
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PERCENT) {
		op, opPos := p.tok.Kind, p.tok.Pos
		p.next()
		y := p.parseExponent()
		x = &ast.BinaryExpr{X: x, OpPos: opPos, Op: op, Y: y}
	}
	return x
}

// parseExponent is right-associative: 2 ^ 3 ^ 2 == 2 ^ (3 ^ 2).
func (p *parser) parseExponent() ast.Expr {
	x := p.parseUnary()
	if p.at(token.CARET) {
		opPos := p.tok.Pos
		p.next()
		y := p.parseExponent()
		return &ast.BinaryExpr{X: x, OpPos: opPos, Op: token.CARET, Y: y}
	}
	return x
}

func (p *parser) parseUnary() ast.Expr {
	switch p.tok.Kind {
	case token.BANG, token.MINUS:
		op, opPos := p.tok.Kind, p.tok.Pos
		p.next()
		x := p.parseUnary()
		return &ast.UnaryExpr{OpPos: opPos, Op: op, X: x}
	case token.AMP:
		amp := p.tok.Pos
		p.next()
		x := p.parseUnary()
		return &ast.RefExpr{Amp: amp, X: x}
	case token.STAR:
		star := p.tok.Pos
		p.next()
		x := p.parseUnary()
		return &ast.DerefExpr{Star: star, X: x}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by any number of
// `[index]` postfix productions.
func (p *parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for p.at(token.LBRACK) {
		lbrack := p.tok.Pos
		p.next()
		idx := p.parseExpr()
		rbrack := p.expect(token.RBRACK)
		x = &ast.IndexExpr{X: x, Lbrack: lbrack, Index: idx, Rbrack: rbrack}
	}
	return x
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.tok.Kind {
	case token.LPAREN:
		p.next()
		x := p.parseExpr()
		p.expect(token.RPAREN)
		return x
	case token.LBRACK:
		return p.parseArrayLiteral()
	case token.INT:
		return p.parseIntLiteral()
	case token.FLOAT:
		return p.parseFloatLiteral()
	case token.TRUE, token.FALSE:
		return p.parseBoolLiteral()
	case token.STRING:
		return p.parseStringLiteral()
	case token.IDENT:
		return p.parseIdentOrCall()
	default:
		p.errorf("unexpected token %s", p.tok.Kind)
		return nil
	}
}

func (p *parser) parseArrayLiteral() ast.Expr {
	lbrack := p.expect(token.LBRACK)
	var elems []ast.Expr
	for !p.at(token.RBRACK) {
		elems = append(elems, p.parseExpr())
		if p.at(token.COMMA) {
			p.next()
		} else {
			break
		}
	}
	rbrack := p.expect(token.RBRACK)
	return &ast.ArrayLiteralExpr{Lbrack: lbrack, Elems: elems, Rbrack: rbrack}
}

func (p *parser) parseIntLiteral() ast.Expr {
	tok := p.tok
	v, err := strconv.ParseUint(tok.Lit, 10, 64)
	if err != nil {
		p.errorf("invalid integer literal %q: %s", tok.Lit, err)
	}
	p.next()
	return &ast.LiteralExpr{Start: tok.Pos, Raw: tok.Lit, Lit: types.Literal{Kind: types.LiteralInteger, Integer: v}}
}

func (p *parser) parseFloatLiteral() ast.Expr {
	tok := p.tok
	v, err := strconv.ParseFloat(tok.Lit, 64)
	if err != nil {
		p.errorf("invalid float literal %q: %s", tok.Lit, err)
	}
	p.next()
	return &ast.LiteralExpr{Start: tok.Pos, Raw: tok.Lit, Lit: types.Literal{Kind: types.LiteralFloat, Float: v}}
}

func (p *parser) parseBoolLiteral() ast.Expr {
	tok := p.tok
	v := tok.Kind == token.TRUE
	p.next()
	return &ast.LiteralExpr{Start: tok.Pos, Raw: tok.Lit, Lit: types.Literal{Kind: types.LiteralBool, Bool: v}}
}

func (p *parser) parseStringLiteral() ast.Expr {
	tok := p.tok
	p.next()
	return &ast.LiteralExpr{Start: tok.Pos, Raw: tok.Lit, Lit: types.Literal{Kind: types.LiteralString, Str: tok.Lit}}
}

func (p *parser) parseIdentExpr() *ast.IdentExpr {
	if p.tok.Kind != token.IDENT {
		p.errorf("expected identifier, got %s", p.tok.Kind)
	}
	t := p.tok
	p.next()
	return &ast.IdentExpr{Start: t.Pos, Name: t.Lit}
}

func (p *parser) parseIdentOrCall() ast.Expr {
	name := p.parseIdentExpr()
	if !p.at(token.LPAREN) {
		return name
	}
	lparen := p.expect(token.LPAREN)
	var args []ast.Expr
	var commas []token.Pos
	for !p.at(token.RPAREN) {
		args = append(args, p.parseExpr())
		if p.at(token.COMMA) {
			commas = append(commas, p.tok.Pos)
			p.next()
		} else {
			break
		}
	}
	rparen := p.expect(token.RPAREN)
	return &ast.CallExpr{Fn: name, Lparen: lparen, Args: args, Commas: commas, Rparen: rparen}
}
