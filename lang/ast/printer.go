package ast

import (
	"fmt"
	"io"
	"strings"
)

// Print writes an indented textual dump of n to w, one node per line. The
// compiler's --debug flag does not call it.
func Print(w io.Writer, n Node) error {
	pr := &printer{w: w}
	pr.print(n, 0)
	return pr.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(depth int, format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	_, err := fmt.Fprintf(p.w, "%s%s\n", indent, fmt.Sprintf(format, args...))
	if err != nil {
		p.err = err
	}
}

func (p *printer) print(n Node, depth int) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *Chunk:
		p.line(depth, "chunk %s", v.Name)
		p.print(v.Body, depth+1)
	case *Block:
		p.line(depth, "block")
		for _, s := range v.Stmts {
			p.print(s, depth+1)
		}
	case *IdentExpr:
		p.line(depth, "ident %s", v.Name)
	case *RefExpr:
		p.line(depth, "ref")
		p.print(v.X, depth+1)
	case *DerefExpr:
		p.line(depth, "deref")
		p.print(v.X, depth+1)
	case *LiteralExpr:
		p.line(depth, "literal %s", v.Raw)
	case *ArrayLiteralExpr:
		p.line(depth, "array-literal")
		for _, e := range v.Elems {
			p.print(e, depth+1)
		}
	case *UnaryExpr:
		p.line(depth, "unary %s", v.Op)
		p.print(v.X, depth+1)
	case *BinaryExpr:
		p.line(depth, "binary %s", v.Op)
		p.print(v.X, depth+1)
		p.print(v.Y, depth+1)
	case *TernaryExpr:
		p.line(depth, "ternary")
		p.print(v.Cond, depth+1)
		p.print(v.Then, depth+1)
		p.print(v.Else, depth+1)
	case *IndexExpr:
		p.line(depth, "index")
		p.print(v.X, depth+1)
		p.print(v.Index, depth+1)
	case *CallExpr:
		p.line(depth, "call %s", v.Fn.Name)
		for _, a := range v.Args {
			p.print(a, depth+1)
		}
	case *TypeExpr:
		p.line(depth, "type %s", v.Datatype)
	case *QualifierExpr:
		p.line(depth, "qualifier %s", v.Qualifier)
	case *ConstructStmt:
		p.line(depth, "let %s", v.Name.Name)
		p.print(v.Value, depth+1)
	case *EmptyConstructStmt:
		p.line(depth, "let %s (empty)", v.Name.Name)
	case *ExternStmt:
		p.line(depth, "extern %s", v.Name.Name)
	case *AssignStmt:
		p.line(depth, "assign")
		p.print(v.Target, depth+1)
		p.print(v.Value, depth+1)
	case *PrintStmt:
		p.line(depth, "print")
		p.print(v.Value, depth+1)
	case *ReturnStmt:
		p.line(depth, "return")
		p.print(v.Value, depth+1)
	case *BranchStmt:
		p.line(depth, "if")
		p.print(v.Cond, depth+1)
		p.print(v.Then, depth+1)
		if v.Else != nil {
			p.print(v.Else, depth+1)
		}
	case *WhileStmt:
		p.line(depth, "while")
		p.print(v.Cond, depth+1)
		p.print(v.Body, depth+1)
	case *ForStmt:
		p.line(depth, "for")
		p.print(v.Init, depth+1)
		p.print(v.Cond, depth+1)
		p.print(v.Advance, depth+1)
		p.print(v.Body, depth+1)
	case *FuncDefStmt:
		p.line(depth, "fn %s", v.Name.Name)
		p.print(v.Body, depth+1)
	case *NakedCallStmt:
		p.line(depth, "call-stmt")
		p.print(v.Call, depth+1)
	case *ScopeStmt:
		p.line(depth, "scope (id=%d)", v.Body.ScopeID)
		p.print(v.Body, depth+1)
	default:
		p.line(depth, "<%T>", n)
	}
}
