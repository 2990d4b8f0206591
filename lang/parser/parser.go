// Package parser implements the recursive-descent parser that turns source
// text into the untyped AST (spec section 4.1). It implements the token set
// and production map of the language's PEG grammar directly; the grammar
// file itself is out of scope (spec section 1).
package parser

import (
	"fmt"

	"github.com/barracuda-lang/barracuda/lang/ast"
	"github.com/barracuda-lang/barracuda/lang/scanner"
	"github.com/barracuda-lang/barracuda/lang/token"
)

// Error is a fatal parse error with a source position, per spec section 7.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// Parse parses a complete source file into a Chunk. Any grammar violation
// is returned as a fatal *Error.
func Parse(filename string, src []byte) (ch *ast.Chunk, err error) {
	p := &parser{sc: scanner.New(src), filename: filename}
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*Error); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()

	p.next()
	body := p.parseBlock(token.EOF)
	eof := p.tok.Pos
	ch = &ast.Chunk{Name: filename, Body: body, EOF: eof}
	return ch, nil
}

type parser struct {
	sc       *scanner.Scanner
	filename string

	tok     scanner.Tok
	pending *scanner.Tok // one token of lookahead buffered by peek()
}

func (p *parser) next() {
	if p.pending != nil {
		p.tok = *p.pending
		p.pending = nil
		return
	}
	t, err := p.sc.Next()
	if err != nil {
		p.fail(t.Pos, err.Error())
	}
	p.tok = t
}

func (p *parser) peek() scanner.Tok {
	if p.pending == nil {
		t, err := p.sc.Next()
		if err != nil {
			p.fail(t.Pos, err.Error())
		}
		p.pending = &t
	}
	return *p.pending
}

func (p *parser) fail(pos token.Pos, format string, args ...interface{}) {
	panic(&Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.fail(p.tok.Pos, format, args...)
}

// expect consumes the current token if it matches kind, else fails.
func (p *parser) expect(kind token.Token) token.Pos {
	if p.tok.Kind != kind {
		p.errorf("expected %s, got %s", kind, p.tok.Kind)
	}
	pos := p.tok.Pos
	p.next()
	return pos
}

func (p *parser) at(kind token.Token) bool { return p.tok.Kind == kind }

// parseBlock parses statements until the `end` token (EOF or RBRACE) is
// reached. It does not consume `end`.
func (p *parser) parseBlock(end token.Token) *ast.Block {
	start := p.tok.Pos
	b := &ast.Block{Lbrace: start}
	for p.tok.Kind != end && p.tok.Kind != token.EOF {
		s := p.parseStmt()
		b.Stmts = append(b.Stmts, s)
	}
	b.Rbrace = p.tok.Pos
	return b
}

// parseScopeBlock parses a `{ ... }` block, consuming the braces.
func (p *parser) parseScopeBlock() *ast.Block {
	p.expect(token.LBRACE)
	b := p.parseBlock(token.RBRACE)
	p.expect(token.RBRACE)
	return b
}
