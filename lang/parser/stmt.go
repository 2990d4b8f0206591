package parser

import (
	"github.com/barracuda-lang/barracuda/lang/ast"
	"github.com/barracuda-lang/barracuda/lang/token"
)

func (p *parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case token.LET:
		return p.parseLet()
	case token.EXTERN:
		return p.parseExtern()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.PRINT:
		return p.parsePrint()
	case token.RETURN:
		return p.parseReturn()
	case token.FN:
		return p.parseFuncDef()
	case token.LBRACE:
		return &ast.ScopeStmt{Body: p.parseScopeBlock()}
	default:
		return p.parseAssignOrCall()
	}
}

func (p *parser) parseLet() ast.Stmt {
	letPos := p.expect(token.LET)

	var qual *ast.QualifierExpr
	if p.at(token.CONST) || p.at(token.MUT) {
		qual = p.parseQualifier()
	}

	name := p.parseIdentExpr()

	var typ *ast.TypeExpr
	if p.at(token.COLON) {
		colon := p.tok.Pos
		p.next()
		typ = p.parseTypeExpr()
		if p.at(token.SEMI) {
			semi := p.expect(token.SEMI)
			return &ast.EmptyConstructStmt{Let: letPos, Name: name, Qual: qual, Colon: colon, Type: typ, Semi: semi}
		}
	}

	assign := p.expect(token.ASSIGN)
	val := p.parseExpr()
	semi := p.expect(token.SEMI)
	return &ast.ConstructStmt{Let: letPos, Name: name, Qual: qual, Type: typ, Assign: assign, Value: val, Semi: semi}
}

func (p *parser) parseQualifier() *ast.QualifierExpr {
	start := p.tok.Pos
	q := qualifierFromTok(p.tok.Kind)
	p.next()
	return &ast.QualifierExpr{Start: start, End: p.tok.Pos, Qualifier: q}
}

func (p *parser) parseExtern() ast.Stmt {
	pos := p.expect(token.EXTERN)
	name := p.parseIdentExpr()
	semi := p.expect(token.SEMI)
	return &ast.ExternStmt{Extern: pos, Name: name, Semi: semi}
}

func (p *parser) parseIf() ast.Stmt {
	ifPos := p.expect(token.IF)
	cond := p.parseExpr()
	then := p.parseScopeBlock()

	var elseBlock *ast.Block
	if p.at(token.ELSE) {
		p.next()
		if p.at(token.IF) {
			inner := p.parseIf()
			elseBlock = &ast.Block{Stmts: []ast.Stmt{inner}}
		} else {
			elseBlock = p.parseScopeBlock()
		}
	}
	return &ast.BranchStmt{If: ifPos, Cond: cond, Then: then, Else: elseBlock}
}

func (p *parser) parseWhile() ast.Stmt {
	pos := p.expect(token.WHILE)
	cond := p.parseExpr()
	body := p.parseScopeBlock()
	return &ast.WhileStmt{While: pos, Cond: cond, Body: body}
}

func (p *parser) parseFor() ast.Stmt {
	pos := p.expect(token.FOR)
	p.expect(token.LPAREN)

	var init ast.Stmt
	if !p.at(token.SEMI) {
		init = p.parseForClauseStmt()
	} else {
		p.next()
	}

	var cond ast.Expr
	if !p.at(token.SEMI) {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI)

	var adv ast.Stmt
	if !p.at(token.RPAREN) {
		adv = p.parseForAdvanceStmt()
	}
	p.expect(token.RPAREN)

	body := p.parseScopeBlock()
	return &ast.ForStmt{For: pos, Init: init, Cond: cond, Advance: adv, Body: body}
}

// parseForClauseStmt parses the init clause of a for(...), which is
// expected to be a `let` construct terminated by the clause's own `;`.
func (p *parser) parseForClauseStmt() ast.Stmt {
	s := p.parseLet()
	return s
}

// parseForAdvanceStmt parses the advance clause of a for(...), which has no
// trailing semicolon (the closing paren follows directly).
func (p *parser) parseForAdvanceStmt() ast.Stmt {
	target := p.parseUnary()
	assign := p.expect(token.ASSIGN)
	val := p.parseExpr()
	return &ast.AssignStmt{Target: target, Assign: assign, Value: val}
}

func (p *parser) parsePrint() ast.Stmt {
	pos := p.expect(token.PRINT)
	val := p.parseExpr()
	semi := p.expect(token.SEMI)
	return &ast.PrintStmt{Print: pos, Value: val, Semi: semi}
}

func (p *parser) parseReturn() ast.Stmt {
	pos := p.expect(token.RETURN)
	var val ast.Expr
	if !p.at(token.SEMI) {
		val = p.parseExpr()
	}
	semi := p.expect(token.SEMI)
	return &ast.ReturnStmt{Return: pos, Value: val, Semi: semi}
}

func (p *parser) parseFuncDef() ast.Stmt {
	pos := p.expect(token.FN)
	name := p.parseIdentExpr()
	p.expect(token.LPAREN)

	var params []*ast.Param
	for !p.at(token.RPAREN) {
		params = append(params, p.parseParam())
		if p.at(token.COMMA) {
			p.next()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)

	var retType *ast.TypeExpr
	if p.at(token.COLON) {
		p.next()
		retType = p.parseTypeExpr()
	}

	body := p.parseScopeBlock()
	return &ast.FuncDefStmt{Fn: pos, Name: name, Params: params, ReturnType: retType, Body: body}
}

func (p *parser) parseParam() *ast.Param {
	name := p.parseIdentExpr()
	var qual *ast.QualifierExpr
	if p.at(token.CONST) || p.at(token.MUT) {
		qual = p.parseQualifier()
	}
	var typ *ast.TypeExpr
	if p.at(token.COLON) {
		p.next()
		typ = p.parseTypeExpr()
	}
	return &ast.Param{Name: name, Qual: qual, Type: typ}
}

// parseAssignOrCall parses either an assignment statement (to an ident,
// dereference chain, or index expression) or a naked function call
// statement; both start with the same prefix expression production.
func (p *parser) parseAssignOrCall() ast.Stmt {
	target := p.parseUnary()

	if call, ok := target.(*ast.CallExpr); ok && !p.at(token.ASSIGN) {
		semi := p.expect(token.SEMI)
		return &ast.NakedCallStmt{Call: call, Semi: semi}
	}

	assign := p.expect(token.ASSIGN)
	val := p.parseExpr()
	semi := p.expect(token.SEMI)
	return &ast.AssignStmt{Target: target, Assign: assign, Value: val, Semi: semi}
}
