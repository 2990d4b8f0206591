// Package resolver implements the semantic analyser (spec section 4.2): a
// single forward pass over the AST that assigns scopes, introduces symbols,
// infers and checks types, enforces qualifier discipline, and instantiates
// one implementation per distinct argument-type tuple a function is called
// with (monomorphisation). Declaration-before-use is enforced implicitly: a
// name is only visible once its declaring statement has been processed,
// since the symbol table is built incrementally in source order.
package resolver

import (
	"fmt"

	"github.com/barracuda-lang/barracuda/lang/ast"
	"github.com/barracuda-lang/barracuda/lang/symtab"
	"github.com/barracuda-lang/barracuda/lang/token"
	"github.com/barracuda-lang/barracuda/lang/types"
)

// Info is the type and qualifier the resolver assigned to one expression
// node.
type Info struct {
	Datatype  types.Datatype
	Qualifier types.Qualifier
}

// TypeInfo is the side-table mapping an expression node to its resolved
// Info. It replaces a mutated typed-node wrapper (spec section 9's Design
// Notes): the AST stays untyped, and each function implementation owns its
// own TypeInfo, since monomorphisation lets the same body node carry a
// different type per instantiation.
type TypeInfo map[ast.Expr]Info

// Result is everything the compiler needs from semantic analysis: the
// completed symbol table and scope tree, the function registry with its
// instantiated implementations, and the type info for code that is not part
// of any generic function body (top-level statements, and the bodies of
// functions with fully-specified parameter types still live under their own
// Impl.Types, for uniformity).
type Result struct {
	Symbols   *symtab.Table
	Functions *Registry
	TopLevel  TypeInfo

	// TopLevelScopes maps each scope-introducing node (an *ast.Block, or
	// an *ast.ForStmt for its init/cond/advance scope, which has no Block
	// of its own) reachable from the chunk's top-level body outside any
	// function to the scope id it was assigned. A function body's scopes
	// are not included here: see Impl.Scopes.
	TopLevelScopes map[ast.Node]int
}

// Analyze runs semantic analysis over chunk. externs supplies the
// host-declared environment bindings available to `extern` statements.
func Analyze(chunk *ast.Chunk, externs map[string]ExternBinding) (res *Result, err error) {
	a := &analyzer{
		table:   symtab.New(),
		funcs:   NewRegistry(),
		externs: externs,
		types:   make(TypeInfo),
		scopes:  make(map[ast.Node]int),
	}
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*Error); ok {
				err = re
				return
			}
			panic(r)
		}
	}()
	a.processBlock(chunk.Body, symtab.Global)
	res = &Result{Symbols: a.table, Functions: a.funcs, TopLevel: a.types, TopLevelScopes: a.scopes}
	return res, nil
}

// returnState tracks the return-value type established so far within the
// function implementation currently being analysed (nil at top level, where
// `return` is permitted but unconstrained).
type returnState struct {
	datatype types.Datatype
	set      bool
}

type analyzer struct {
	table   *symtab.Table
	funcs   *Registry
	externs map[string]ExternBinding
	types   TypeInfo
	scopes  map[ast.Node]int
	ret     *returnState
}

func (a *analyzer) fail(pos token.Pos, kind ErrorKind, format string, args ...interface{}) {
	panic(&Error{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (a *analyzer) record(e ast.Expr, dt types.Datatype, q types.Qualifier) (types.Datatype, types.Qualifier) {
	a.types[e] = Info{Datatype: dt, Qualifier: q}
	return dt, q
}

func (a *analyzer) processBlock(b *ast.Block, scope int) {
	// b.ScopeID is a debug convenience only (ast.Print); it reflects
	// whichever instantiation last walked this body, since a generic
	// function body is a single shared AST node reprocessed once per
	// argument-type tuple. The authoritative mapping for a given
	// instantiation is a.scopes, which is swapped out per Impl the same
	// way a.types is (see buildImpl).
	b.ScopeID = scope
	a.scopes[b] = scope
	for _, s := range b.Stmts {
		a.processStmt(s, scope)
	}
}

func (a *analyzer) childScope(scope int, subroutine bool) int {
	return a.table.NewScope(scope, subroutine)
}

func (a *analyzer) processStmt(s ast.Stmt, scope int) {
	switch n := s.(type) {
	case *ast.ConstructStmt:
		a.processConstruct(n, scope)
	case *ast.EmptyConstructStmt:
		a.processEmptyConstruct(n, scope)
	case *ast.ExternStmt:
		a.processExtern(n)
	case *ast.AssignStmt:
		a.processAssign(n, scope)
	case *ast.PrintStmt:
		a.exprType(n.Value, scope)
	case *ast.ReturnStmt:
		a.processReturn(n, scope)
	case *ast.BranchStmt:
		a.processBranch(n, scope)
	case *ast.WhileStmt:
		a.processWhile(n, scope)
	case *ast.ForStmt:
		a.processFor(n, scope)
	case *ast.FuncDefStmt:
		a.processFuncDef(n, scope)
	case *ast.NakedCallStmt:
		a.analyzeCall(n.Call, scope)
	case *ast.ScopeStmt:
		inner := a.childScope(scope, false)
		a.processBlock(n.Body, inner)
	default:
		a.fail(0, InvalidDatatype, "unhandled statement type %T", n)
	}
}

func qualifierOf(q *ast.QualifierExpr) types.Qualifier {
	if q != nil {
		return q.Qualifier
	}
	return types.Mutable
}

func isNumericLiteral(e ast.Expr) bool {
	le, ok := e.(*ast.LiteralExpr)
	return ok && (le.Lit.Kind == types.LiteralInteger || le.Lit.Kind == types.LiteralFloat)
}

func (a *analyzer) validateDatatype(dt types.Datatype, pos token.Pos) {
	if dt.Kind == types.KindArray && dt.Length <= 0 {
		a.fail(pos, InvalidDatatype, "array length must be positive, got %d", dt.Length)
	}
	if dt.Kind == types.KindArray {
		a.validateDatatype(*dt.Elem, pos)
	}
}

func (a *analyzer) processConstruct(n *ast.ConstructStmt, scope int) {
	valueType, _ := a.exprType(n.Value, scope)
	finalType := valueType
	if n.Type != nil {
		declared := n.Type.Datatype
		a.validateDatatype(declared, n.Type.Start)
		switch {
		case valueType.Equal(declared):
			finalType = declared
		case isNumericLiteral(n.Value) && declared.Kind == types.KindPrimitive && declared.Primitive.IsNumeric() &&
			valueType.Kind == types.KindPrimitive && valueType.Primitive.IsNumeric():
			finalType = declared
		default:
			a.fail(n.Assign, TypeMismatch, "cannot initialise %s with value of type %s", declared, valueType)
		}
	}
	qual := qualifierOf(n.Qual)
	sym := &symtab.Symbol{Identifier: n.Name.Name, Kind: symtab.KindVariable, Datatype: finalType, Qualifier: qual}
	if !a.table.Add(scope, sym) {
		a.fail(n.Let, DuplicateSymbol, "%q is already declared in this scope", n.Name.Name)
	}
}

func (a *analyzer) processEmptyConstruct(n *ast.EmptyConstructStmt, scope int) {
	declared := n.Type.Datatype
	a.validateDatatype(declared, n.Type.Start)
	qual := qualifierOf(n.Qual)
	sym := &symtab.Symbol{Identifier: n.Name.Name, Kind: symtab.KindVariable, Datatype: declared, Qualifier: qual}
	if !a.table.Add(scope, sym) {
		a.fail(n.Let, DuplicateSymbol, "%q is already declared in this scope", n.Name.Name)
	}
}

func (a *analyzer) processExtern(n *ast.ExternStmt) {
	binding, ok := a.externs[n.Name.Name]
	if !ok {
		a.fail(n.Extern, UnknownExtern, "no environment binding declared for %q", n.Name.Name)
	}
	sym := &symtab.Symbol{
		Identifier:   n.Name.Name,
		Kind:         symtab.KindEnvironmentVariable,
		Datatype:     binding.Datatype(),
		Qualifier:    types.Mutable,
		Address:      binding.Address,
		PointerDepth: binding.PointerDepth,
	}
	if !a.table.Add(symtab.Global, sym) {
		a.fail(n.Extern, DuplicateSymbol, "%q is already declared", n.Name.Name)
	}
}

// lvalue resolves an assignment target's type and qualifier, rejecting any
// expression form that does not denote a storage location (spec section 3:
// assignment targets are an identifier, a pointer dereference, or an array
// index).
func (a *analyzer) lvalue(e ast.Expr, scope int) (types.Datatype, types.Qualifier) {
	switch e.(type) {
	case *ast.IdentExpr, *ast.DerefExpr, *ast.IndexExpr:
		return a.exprType(e, scope)
	default:
		pos, _ := e.Span()
		a.fail(pos, TypeMismatch, "invalid assignment target")
		return types.None, types.Const
	}
}

func (a *analyzer) processAssign(n *ast.AssignStmt, scope int) {
	targetType, targetQual := a.lvalue(n.Target, scope)
	if !targetQual.Assignable() {
		a.fail(n.Assign, QualifierViolation, "assignment target is not mutable")
	}
	valueType, _ := a.exprType(n.Value, scope)
	if !valueType.Equal(targetType) {
		a.fail(n.Assign, TypeMismatch, "cannot assign value of type %s to target of type %s", valueType, targetType)
	}
}

func (a *analyzer) processReturn(n *ast.ReturnStmt, scope int) {
	if n.Value == nil {
		return
	}
	vt, _ := a.exprType(n.Value, scope)
	if a.ret == nil {
		return
	}
	if !a.ret.set {
		a.ret.datatype = vt
		a.ret.set = true
		return
	}
	if !a.ret.datatype.Equal(vt) {
		a.fail(n.Return, TypeMismatch, "inconsistent return type: %s and %s", a.ret.datatype, vt)
	}
}

// requireCondition accepts any scalar numeric or bool value, not only
// bool: the generated GOTO_IF tests a condition for zero-ness regardless of
// its datatype (spec section 4.6.4), so `if x { ... }` with an i64 x is
// well typed, matching spec section 8's if/else scenario.
func (a *analyzer) requireCondition(e ast.Expr, scope int, pos token.Pos) {
	dt, _ := a.exprType(e, scope)
	if dt.Kind != types.KindPrimitive {
		a.fail(pos, TypeMismatch, "condition must be a scalar value, got %s", dt)
	}
}

func (a *analyzer) processBranch(n *ast.BranchStmt, scope int) {
	a.requireCondition(n.Cond, scope, n.If)
	thenScope := a.childScope(scope, false)
	a.processBlock(n.Then, thenScope)
	if n.Else != nil {
		elseScope := a.childScope(scope, false)
		a.processBlock(n.Else, elseScope)
	}
}

func (a *analyzer) processWhile(n *ast.WhileStmt, scope int) {
	a.requireCondition(n.Cond, scope, n.While)
	bodyScope := a.childScope(scope, false)
	a.processBlock(n.Body, bodyScope)
}

func (a *analyzer) processFor(n *ast.ForStmt, scope int) {
	forScope := a.childScope(scope, false)
	a.scopes[n] = forScope
	if n.Init != nil {
		a.processStmt(n.Init, forScope)
	}
	if n.Cond != nil {
		a.requireCondition(n.Cond, forScope, n.For)
	}
	bodyScope := a.childScope(forScope, false)
	a.processBlock(n.Body, bodyScope)
	if n.Advance != nil {
		a.processStmt(n.Advance, forScope)
	}
}

// processFuncDef only registers the function's existence (scope symbol and
// registry entry): the body is analysed lazily, once per distinct argument-
// type tuple, the first time it is called (see analyzeCall / Registry.
// Instantiate). A generic function that is never called is never fully
// type-checked, matching the monomorphisation model.
func (a *analyzer) processFuncDef(n *ast.FuncDefStmt, scope int) {
	sym := &symtab.Symbol{Identifier: n.Name.Name, Kind: symtab.KindFunction}
	if !a.table.Add(scope, sym) {
		a.fail(n.Fn, DuplicateSymbol, "%q is already declared in this scope", n.Name.Name)
	}
	if _, ok := a.funcs.Declare(n.Name.Name, n, scope); !ok {
		a.fail(n.Fn, DuplicateSymbol, "function %q is already declared", n.Name.Name)
	}
}

func (a *analyzer) exprType(e ast.Expr, scope int) (types.Datatype, types.Qualifier) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		return a.identType(n, scope)
	case *ast.RefExpr:
		return a.refType(n, scope)
	case *ast.DerefExpr:
		return a.derefType(n, scope)
	case *ast.LiteralExpr:
		return a.record(n, n.Lit.Datatype(), types.Const)
	case *ast.ArrayLiteralExpr:
		return a.arrayLiteralType(n, scope)
	case *ast.UnaryExpr:
		return a.unaryType(n, scope)
	case *ast.BinaryExpr:
		return a.binaryType(n, scope)
	case *ast.TernaryExpr:
		return a.ternaryType(n, scope)
	case *ast.IndexExpr:
		return a.indexType(n, scope)
	case *ast.CallExpr:
		return a.analyzeCall(n, scope)
	default:
		pos, _ := e.Span()
		a.fail(pos, InvalidDatatype, "unhandled expression type %T", n)
		return types.None, types.Const
	}
}

func (a *analyzer) identType(n *ast.IdentExpr, scope int) (types.Datatype, types.Qualifier) {
	sym, ok := a.table.Find(scope, n.Name)
	if !ok {
		a.fail(n.Start, UnknownSymbol, "undeclared identifier %q", n.Name)
	}
	if sym.Kind == symtab.KindFunction {
		a.fail(n.Start, TypeMismatch, "%q is a function; it must be called", n.Name)
	}
	return a.record(n, sym.Datatype, sym.Qualifier)
}

func (a *analyzer) refType(n *ast.RefExpr, scope int) (types.Datatype, types.Qualifier) {
	switch n.X.(type) {
	case *ast.IdentExpr, *ast.DerefExpr, *ast.IndexExpr:
	default:
		a.fail(n.Amp, TypeMismatch, "cannot take the address of a non-storage expression")
	}
	inner, _ := a.exprType(n.X, scope)
	return a.record(n, types.NewPointer(inner), types.Const)
}

func (a *analyzer) derefType(n *ast.DerefExpr, scope int) (types.Datatype, types.Qualifier) {
	inner, _ := a.exprType(n.X, scope)
	if inner.Kind != types.KindPointer {
		a.fail(n.Star, TypeMismatch, "cannot dereference non-pointer type %s", inner)
	}
	return a.record(n, inner.Deref(), types.Mutable)
}

func (a *analyzer) arrayLiteralType(n *ast.ArrayLiteralExpr, scope int) (types.Datatype, types.Qualifier) {
	if len(n.Elems) == 0 {
		a.fail(n.Lbrack, InvalidLiteral, "array literal must have at least one element")
	}
	first, _ := a.exprType(n.Elems[0], scope)
	for _, el := range n.Elems[1:] {
		t, _ := a.exprType(el, scope)
		if !t.Equal(first) {
			pos, _ := el.Span()
			a.fail(pos, TypeMismatch, "array literal elements must share one type: %s and %s", first, t)
		}
	}
	return a.record(n, types.NewArray(first, len(n.Elems)), types.Const)
}

func (a *analyzer) unaryType(n *ast.UnaryExpr, scope int) (types.Datatype, types.Qualifier) {
	xt, _ := a.exprType(n.X, scope)
	switch n.Op {
	case token.BANG:
		if !xt.IsPrimitiveOf(types.Bool) {
			a.fail(n.OpPos, TypeMismatch, "! requires bool, got %s", xt)
		}
		return a.record(n, xt, types.Const)
	case token.MINUS:
		if xt.Kind != types.KindPrimitive || !xt.Primitive.IsNumeric() {
			a.fail(n.OpPos, TypeMismatch, "unary - requires a numeric type, got %s", xt)
		}
		return a.record(n, xt, types.Const)
	default:
		a.fail(n.OpPos, InvalidDatatype, "unsupported unary operator %s", n.Op)
		return types.None, types.Const
	}
}

func (a *analyzer) binaryType(n *ast.BinaryExpr, scope int) (types.Datatype, types.Qualifier) {
	xt, _ := a.exprType(n.X, scope)
	yt, _ := a.exprType(n.Y, scope)
	dt := a.binaryResultType(n.Op, xt, yt, n.OpPos)
	return a.record(n, dt, types.Const)
}

func (a *analyzer) binaryResultType(op token.Token, xt, yt types.Datatype, pos token.Pos) types.Datatype {
	switch op {
	case token.EQ, token.NEQ:
		if xt.Kind == types.KindPointer || yt.Kind == types.KindPointer {
			if !xt.Equal(yt) {
				a.fail(pos, TypeMismatch, "cannot compare %s and %s", xt, yt)
			}
			return types.NewPrimitive(types.Bool)
		}
		if xt.IsPrimitiveOf(types.Bool) && yt.IsPrimitiveOf(types.Bool) {
			return types.NewPrimitive(types.Bool)
		}
		fallthrough
	case token.LT, token.GT, token.LE, token.GE:
		if xt.Kind != types.KindPrimitive || yt.Kind != types.KindPrimitive ||
			!xt.Primitive.IsNumeric() || !yt.Primitive.IsNumeric() {
			a.fail(pos, TypeMismatch, "comparison requires numeric operands, got %s and %s", xt, yt)
		}
		return types.NewPrimitive(types.Bool)
	case token.ANDAND, token.OROR:
		if !xt.IsPrimitiveOf(types.Bool) || !yt.IsPrimitiveOf(types.Bool) {
			a.fail(pos, TypeMismatch, "logical operator requires bool operands, got %s and %s", xt, yt)
		}
		return types.NewPrimitive(types.Bool)
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.CARET:
		if xt.Kind != types.KindPrimitive || yt.Kind != types.KindPrimitive {
			a.fail(pos, TypeMismatch, "arithmetic requires numeric operands, got %s and %s", xt, yt)
		}
		w, ok := types.Widen(xt.Primitive, yt.Primitive)
		if !ok {
			a.fail(pos, TypeMismatch, "arithmetic requires numeric operands, got %s and %s", xt, yt)
		}
		return types.NewPrimitive(w)
	default:
		a.fail(pos, InvalidDatatype, "unsupported binary operator %s", op)
		return types.None
	}
}

func (a *analyzer) ternaryType(n *ast.TernaryExpr, scope int) (types.Datatype, types.Qualifier) {
	a.requireCondition(n.Cond, scope, n.Question)
	tt, _ := a.exprType(n.Then, scope)
	et, _ := a.exprType(n.Else, scope)
	if !tt.Equal(et) {
		a.fail(n.Colon, TypeMismatch, "ternary branches disagree: %s and %s", tt, et)
	}
	return a.record(n, tt, types.Const)
}

func (a *analyzer) indexType(n *ast.IndexExpr, scope int) (types.Datatype, types.Qualifier) {
	xt, xq := a.exprType(n.X, scope)
	if xt.Kind != types.KindArray {
		a.fail(n.Lbrack, TypeMismatch, "cannot index non-array type %s", xt)
	}
	it, _ := a.exprType(n.Index, scope)
	if it.Kind != types.KindPrimitive || !it.Primitive.IsNumeric() {
		a.fail(n.Lbrack, TypeMismatch, "array index must be numeric, got %s", it)
	}
	return a.record(n, *xt.Elem, xq)
}

func (a *analyzer) analyzeCall(call *ast.CallExpr, scope int) (types.Datatype, types.Qualifier) {
	argTypes := make([]types.Datatype, len(call.Args))
	for i, arg := range call.Args {
		t, _ := a.exprType(arg, scope)
		argTypes[i] = t
	}

	if sig, ok := builtinSigs[call.Fn.Name]; ok {
		if len(argTypes) != len(sig.Args) {
			a.fail(call.Lparen, ArgumentCountMismatch, "%s expects %d argument(s), got %d", call.Fn.Name, len(sig.Args), len(argTypes))
		}
		for i, want := range sig.Args {
			wt := types.NewPrimitive(want)
			if !argTypes[i].Equal(wt) {
				a.fail(call.Lparen, TypeMismatch, "%s argument %d: expected %s, got %s", call.Fn.Name, i, wt, argTypes[i])
			}
		}
		dt := types.NewPrimitive(sig.Return)
		return a.record(call, dt, types.Const)
	}

	sym, ok := a.table.Find(scope, call.Fn.Name)
	if !ok {
		a.fail(call.Fn.Start, UnknownSymbol, "call to undeclared function %q", call.Fn.Name)
	}
	if sym.Kind != symtab.KindFunction {
		a.fail(call.Fn.Start, TypeMismatch, "%q is not a function", call.Fn.Name)
	}
	fd, ok := a.funcs.Lookup(call.Fn.Name)
	if !ok {
		a.fail(call.Fn.Start, UnknownSymbol, "call to undeclared function %q", call.Fn.Name)
	}
	if len(argTypes) != len(fd.AST.Params) {
		a.fail(call.Lparen, ArgumentCountMismatch, "%s expects %d argument(s), got %d", fd.Name, len(fd.AST.Params), len(argTypes))
	}
	for i, p := range fd.AST.Params {
		if p.Type != nil && !p.Type.Datatype.Equal(argTypes[i]) {
			a.fail(call.Lparen, TypeMismatch, "%s argument %d: expected %s, got %s", fd.Name, i, p.Type.Datatype, argTypes[i])
		}
	}

	impl := a.funcs.Instantiate(fd, argTypes, func() *Impl {
		return a.buildImpl(fd, argTypes)
	})
	return a.record(call, impl.ReturnType, types.Const)
}

func (a *analyzer) buildImpl(fd *FuncDef, argTypes []types.Datatype) *Impl {
	bodyScope := a.childScope(fd.DeclScope, true)
	params := make([]ParamBinding, len(fd.AST.Params))
	for i, p := range fd.AST.Params {
		qual := qualifierOf(p.Qual)
		sym := &symtab.Symbol{Identifier: p.Name.Name, Kind: symtab.KindParameter, Datatype: argTypes[i], Qualifier: qual}
		if !a.table.Add(bodyScope, sym) {
			a.fail(p.Name.Start, DuplicateSymbol, "duplicate parameter %q", p.Name.Name)
		}
		params[i] = ParamBinding{Name: p.Name.Name, Datatype: argTypes[i], Qualifier: qual}
	}

	savedTypes, savedScopes, savedRet := a.types, a.scopes, a.ret
	implTypes := make(TypeInfo)
	implScopes := make(map[ast.Node]int)
	a.types, a.scopes = implTypes, implScopes
	rs := &returnState{}
	a.ret = rs
	a.processBlock(fd.AST.Body, bodyScope)
	a.types, a.scopes, a.ret = savedTypes, savedScopes, savedRet

	var returnType types.Datatype
	switch {
	case fd.AST.ReturnType != nil:
		returnType = fd.AST.ReturnType.Datatype
		if rs.set && !rs.datatype.Equal(returnType) {
			a.fail(fd.AST.Fn, TypeMismatch, "%s: body returns %s, declared return type is %s", fd.Name, rs.datatype, returnType)
		}
	case rs.set:
		returnType = rs.datatype
	default:
		returnType = types.None
	}

	return &Impl{ParamTypes: argTypes, ReturnType: returnType, Params: params, BodyScope: bodyScope, Types: implTypes, Scopes: implScopes}
}
