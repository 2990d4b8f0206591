package compiler

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/barracuda-lang/barracuda/lang/ast"
	"github.com/barracuda-lang/barracuda/lang/resolver"
	"github.com/barracuda-lang/barracuda/lang/symtab"
	"github.com/barracuda-lang/barracuda/lang/token"
	"github.com/barracuda-lang/barracuda/lang/types"
)

// staticRegisterCount is the number of reserved stack addresses the calling
// convention owns before any local or parameter (spec section 4.6.1): 0 is
// the return-store register, 1 is the frame-pointer register.
const staticRegisterCount = 2

const (
	returnStoreAddr = 0
	framePointerAddr = 1
)

// stackSizeFallback is added to the estimator's result when it could only
// approximate a program's maximum operand-stack depth (spec section 4.7,
// "a fixed fallback budget").
const stackSizeFallback = 128

// builtinOps maps a built-in function name (resolver.builtinSigs' keys) to
// the single opcode its call lowers to (spec section 4.6.4, "built-in
// functions ... lower directly to a single opcode").
var builtinOps = map[string]Operation{
	"sin": SIN, "cos": COS, "tan": TAN, "asin": ASIN, "acos": ACOS, "atan": ATAN, "atan2": ATAN2,
	"sinh": SINH, "cosh": COSH, "tanh": TANH, "exp": EXP, "log": LOG, "log2": LOG2, "log10": LOG10,
	"sqrt": SQRT, "cbrt": CBRT, "pow": POW, "floor": FLOOR, "ceil": CEIL, "round": ROUND, "trunc": TRUNC,
	"abs": ABS, "fmod": FMOD, "min": MIN, "max": MAX, "scalbn": SCALBN, "scalbln": SCALBLN,
}

// BuiltinNames returns the names of the built-in functions that lower to a
// single opcode, sorted for stable display.
func BuiltinNames() []string {
	names := maps.Keys(builtinOps)
	slices.Sort(names)
	return names
}

// BuiltinOp returns the opcode a call to the named built-in lowers to.
func BuiltinOp(name string) (Operation, bool) {
	op, ok := builtinOps[name]
	return op, ok
}

var binaryOps = map[token.Token]Operation{
	token.PLUS: ADD, token.MINUS: SUB, token.STAR: MUL, token.SLASH: DIV,
	token.PERCENT: FMOD, token.CARET: POW,
	token.LT: CMP_LT, token.GT: CMP_GT, token.LE: CMP_LE, token.GE: CMP_GE,
	token.EQ: CMP_EQ, token.NEQ: CMP_NEQ,
	token.ANDAND: BOOL_AND, token.OROR: BOOL_OR,
}

// CodegenError is returned for a condition the resolver cannot have already
// ruled out by construction (spec section 7's invalid-datatype family, as it
// applies to code generation rather than semantic analysis).
type CodegenError struct {
	Pos token.Pos
	Msg string
}

func (e *CodegenError) Error() string { return fmt.Sprintf("codegen: %s", e.Msg) }

// Generate lowers a fully resolved program to a Program (spec section 4.6).
// res must be the Result of resolver.Analyze(chunk, ...); envVarCount is the
// number of host-declared environment bindings, which the builder needs to
// compute user-space addresses for arrays.
func Generate(chunk *ast.Chunk, res *resolver.Result, envVarCount int) (prog *Program, err error) {
	g := &generator{
		b:          NewBuilder(envVarCount),
		tracker:    NewTracker(res.Symbols),
		res:        res,
		types:      res.TopLevel,
		scopes:     res.TopLevelScopes,
		implLabels: make(map[*resolver.Impl]int),
	}
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CodegenError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()

	g.tracker.EnterFunction()
	g.tracker.EnterScope(symtab.Global)
	g.genStmts(chunk.Body.Stmts, symtab.Global)
	g.tracker.ExitScope()

	header := []uint64{
		types.Float64ToBits(0),
		types.Float64ToBits(float64(staticRegisterCount - 1)),
	}
	prog, err = g.b.Finalize(header)
	if err != nil {
		return nil, err
	}
	size, approx, err := EstimateStackSize(prog)
	if err != nil {
		return nil, err
	}
	if approx {
		size += stackSizeFallback
	}
	prog.MaxStackSize = size
	return prog, nil
}

// generator holds the mutable code-generation state. types/scopes/curImpl
// are swapped out around a function implementation's body the same way the
// resolver swaps its own a.types/a.scopes (see resolver.buildImpl): the
// same *ast.FuncDefStmt body is walked once per monomorphised Impl, and
// each Impl owns its own type/scope side-tables.
type generator struct {
	b       *Builder
	tracker *Tracker
	res     *resolver.Result

	types  resolver.TypeInfo
	scopes map[ast.Node]int

	curReturnType types.Datatype

	// implLabels maps a monomorphised implementation to the label marking
	// its body's entry point. A call site reached before the callee's own
	// fn statement (a call inside an earlier function's body) allocates
	// the label itself; genImpl sets it when the body is emitted, and
	// Finalize resolves every reference to it.
	implLabels map[*resolver.Impl]int
}

func (g *generator) fail(pos token.Pos, format string, args ...interface{}) {
	panic(&CodegenError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (g *generator) info(e ast.Expr) resolver.Info {
	inf, ok := g.types[e]
	if !ok {
		g.fail(0, "no type information recorded for %T (resolver/generator type-info mismatch)", e)
	}
	return inf
}

func (g *generator) scopeOf(n ast.Node) int {
	id, ok := g.scopes[n]
	if !ok {
		g.fail(0, "no scope recorded for %T (resolver/generator scope mismatch)", n)
	}
	return id
}

// --- statements --------------------------------------------------------

func (g *generator) genStmts(stmts []ast.Stmt, scope int) {
	for _, s := range stmts {
		g.genStmt(s, scope)
	}
}

// genBlock enters b's scope, emits its statements, exits the scope and
// drops one cell per local declared directly in it (spec section 4.6.4,
// scope-block).
func (g *generator) genBlock(b *ast.Block, scope int) {
	g.tracker.EnterScope(scope)
	g.genStmts(b.Stmts, scope)
	n := g.tracker.ExitScope()
	for i := 0; i < n; i++ {
		g.b.EmitOp(DROP)
	}
}

func (g *generator) genStmt(s ast.Stmt, scope int) {
	switch n := s.(type) {
	case *ast.ConstructStmt:
		g.genConstruct(n, scope)
	case *ast.EmptyConstructStmt:
		g.genEmptyConstruct(n, scope)
	case *ast.ExternStmt:
		// No code: the symbol is already global (see resolver.processExtern)
		// and every reference reads through symtab directly.
	case *ast.AssignStmt:
		g.genAssign(n, scope)
	case *ast.PrintStmt:
		g.genPrint(n, scope)
	case *ast.ReturnStmt:
		g.genReturn(n, scope)
	case *ast.BranchStmt:
		g.genBranch(n, scope)
	case *ast.WhileStmt:
		g.genWhile(n, scope)
	case *ast.ForStmt:
		g.genFor(n, scope)
	case *ast.FuncDefStmt:
		g.genFuncDef(n, scope)
	case *ast.NakedCallStmt:
		g.genExpr(n.Call, scope)
		g.b.EmitOp(DROP)
	case *ast.ScopeStmt:
		g.genBlock(n.Body, g.scopeOf(n.Body))
	default:
		g.fail(0, "unhandled statement type %T", n)
	}
}

func (g *generator) genConstruct(n *ast.ConstructStmt, scope int) {
	inf := g.info(n.Value)
	if inf.Datatype.Kind == types.KindArray {
		g.genArrayDecl(n.Name.Name, inf.Datatype, n.Value, scope)
		return
	}
	g.tracker.AddLocal(scope, n.Name.Name)
	g.genExpr(n.Value, scope)
}

func (g *generator) genEmptyConstruct(n *ast.EmptyConstructStmt, scope int) {
	if n.Type.Datatype.Kind == types.KindArray {
		g.genArrayDecl(n.Name.Name, n.Type.Datatype, nil, scope)
		return
	}
	g.tracker.AddLocal(scope, n.Name.Name)
	g.b.EmitFloat(0)
}

func (g *generator) genAssign(n *ast.AssignStmt, scope int) {
	switch target := n.Target.(type) {
	case *ast.IdentExpr:
		g.genAssignIdent(target, n.Value, scope)
	case *ast.DerefExpr:
		g.genAssignDeref(target, n.Value, scope)
	case *ast.IndexExpr:
		g.genIndexAddr(target, scope)
		g.b.EmitOp(LDNXPTR)
		g.genExpr(n.Value, scope)
		g.b.EmitOp(arrayWriteOp())
	default:
		g.fail(0, "unsupported assignment target %T", target)
	}
}

func (g *generator) genAssignIdent(target *ast.IdentExpr, value ast.Expr, scope int) {
	sym, ok := g.res.Symbols.Find(scope, target.Name)
	if !ok {
		g.fail(target.Start, "undeclared identifier %q", target.Name)
	}
	if sym.Kind == symtab.KindEnvironmentVariable {
		g.genExpr(value, scope)
		g.b.EmitFloat(float64(sym.Address))
		g.b.EmitOp(RCNX)
		return
	}
	if paramID, ok := g.tracker.ParamID(scope, target.Name); ok {
		g.emitParamAddr(paramID)
		g.genExpr(value, scope)
		g.b.EmitOp(STK_WRITE)
		return
	}
	localID, ok := g.tracker.LocalID(scope, target.Name)
	if !ok {
		g.fail(target.Start, "%q is not a local, parameter or environment variable", target.Name)
	}
	g.emitLocalAddr(localID)
	g.genExpr(value, scope)
	g.b.EmitOp(STK_WRITE)
}

// genAssignDeref lowers `*p = v;` / `**p = v;` etc. (spec section 4.6.4).
// Pointer environment variables walk the LDNX + PTR_DEREF chain and
// terminate with a generic WRITE through the swapped top; an ordinary
// (non-extern) pointer target just needs the pointer value itself and a
// single STK_WRITE, since such a pointer always denotes an address on the
// real operand stack.
func (g *generator) genAssignDeref(target *ast.DerefExpr, value ast.Expr, scope int) {
	if sym, levels, ok := g.externChain(target, scope); ok {
		op, err := writeOpFor(g.info(target).Datatype.Primitive)
		if err != nil {
			g.fail(target.Star, "%s", err)
		}
		g.genExpr(value, scope)
		g.b.EmitFloat(float64(sym.Address))
		g.b.EmitOp(LDNX)
		for i := 0; i < levels-1; i++ {
			g.b.EmitOp(PTR_DEREF)
		}
		g.b.EmitOp(SWAP)
		g.b.EmitOp(op)
		return
	}
	g.genExpr(target.X, scope)
	g.genExpr(value, scope)
	g.b.EmitOp(STK_WRITE)
}

func (g *generator) genPrint(n *ast.PrintStmt, scope int) {
	inf := g.info(n.Value)
	g.genExpr(n.Value, scope)
	if inf.Datatype.Kind == types.KindArray {
		length := inf.Datatype.Length
		for i := 0; i < length; i++ {
			g.b.EmitOp(DUP)
			g.b.EmitFloat(float64(i))
			g.b.EmitOp(ADD)
			g.b.EmitOp(LDCUX)
			g.b.EmitOp(PRINTC)
		}
		g.b.EmitOp(DROP)
		return
	}
	g.b.EmitOp(PRINTFF)
}

// genReturn lowers `return [expr];` (spec section 4.6.2's return sequence):
// store the value in the return-store register, discard every local and
// temporary this activation has pushed, restore the caller's frame pointer
// and jump through the now-exposed return address.
func (g *generator) genReturn(n *ast.ReturnStmt, scope int) {
	g.emitReturnSequence(n.Value, scope)
}

func (g *generator) emitReturnSequence(value ast.Expr, scope int) {
	g.b.EmitFloat(returnStoreAddr)
	if value != nil {
		g.genExpr(value, scope)
	} else {
		g.b.EmitFloat(0)
	}
	g.b.EmitOp(STK_WRITE)

	for i := 0; i < g.tracker.LiveLocalCount(); i++ {
		g.b.EmitOp(DROP)
	}

	g.emitFP()                  // oldFP value (address of the prevFP cell)
	g.b.EmitOp(DUP)              // [oldFP, oldFP]
	g.b.EmitOp(STK_READ)         // [oldFP, prevFP]
	g.b.EmitFloat(framePointerAddr)
	g.b.EmitOp(SWAP)             // [oldFP, addr(=1), prevFP]
	g.b.EmitOp(STK_WRITE)        // FP register := prevFP; stack: [oldFP]
	g.b.EmitFloat(1)
	g.b.EmitOp(SUB)              // oldFP - 1 = address of the return-address cell
	g.b.EmitOp(STK_READ)         // retAddr
	g.b.EmitInstruction(GOTO)
}

func (g *generator) genBranch(n *ast.BranchStmt, scope int) {
	g.genExpr(n.Cond, scope)
	elseLabel := g.b.CreateLabel()
	g.b.Reference(elseLabel)
	g.b.EmitInstruction(GOTO_IF)

	g.genBlock(n.Then, g.scopeOf(n.Then))

	if n.Else != nil {
		endLabel := g.b.CreateLabel()
		g.b.Reference(endLabel)
		g.b.EmitInstruction(GOTO)
		g.b.SetLabel(elseLabel)
		g.genBlock(n.Else, g.scopeOf(n.Else))
		g.b.SetLabel(endLabel)
	} else {
		g.b.SetLabel(elseLabel)
	}
}

func (g *generator) genWhile(n *ast.WhileStmt, scope int) {
	startLabel := g.b.CreateLabel()
	exitLabel := g.b.CreateLabel()

	g.b.SetLabel(startLabel)
	g.genExpr(n.Cond, scope)
	g.b.Reference(exitLabel)
	g.b.EmitInstruction(GOTO_IF)

	g.genBlock(n.Body, g.scopeOf(n.Body))

	g.b.Reference(startLabel)
	g.b.EmitInstruction(GOTO)
	g.b.SetLabel(exitLabel)
}

func (g *generator) genFor(n *ast.ForStmt, scope int) {
	forScope := g.scopeOf(n)
	g.tracker.EnterScope(forScope)
	if n.Init != nil {
		g.genStmt(n.Init, forScope)
	}

	startLabel := g.b.CreateLabel()
	exitLabel := g.b.CreateLabel()
	g.b.SetLabel(startLabel)
	if n.Cond != nil {
		g.genExpr(n.Cond, forScope)
	} else {
		g.b.EmitFloat(1)
	}
	g.b.Reference(exitLabel)
	g.b.EmitInstruction(GOTO_IF)

	g.genBlock(n.Body, g.scopeOf(n.Body))
	if n.Advance != nil {
		g.genStmt(n.Advance, forScope)
	}
	g.b.Reference(startLabel)
	g.b.EmitInstruction(GOTO)
	g.b.SetLabel(exitLabel)

	dropCount := g.tracker.ExitScope()
	for i := 0; i < dropCount; i++ {
		g.b.EmitOp(DROP)
	}
}

// genFuncDef emits one (jump-over, label, body, return sequence) block per
// monomorphised Impl (spec section 4.6.4). Every Impl for this FuncDef has
// already been instantiated by the time codegen reaches the fn statement,
// since semantic analysis runs to completion before code generation starts
// (spec section 4.2/4.6): call-site ordering in the source does not matter.
func (g *generator) genFuncDef(n *ast.FuncDefStmt, scope int) {
	fd, ok := g.res.Functions.Lookup(n.Name.Name)
	if !ok {
		g.fail(n.Fn, "function %q was never registered by the resolver", n.Name.Name)
	}
	for _, impl := range fd.Impls {
		g.genImpl(fd, impl)
	}
}

func (g *generator) genImpl(fd *resolver.FuncDef, impl *resolver.Impl) {
	startLabel, ok := g.implLabels[impl]
	if !ok {
		startLabel = g.b.CreateLabel()
		g.implLabels[impl] = startLabel
	}
	endLabel := g.b.CreateLabel()
	g.b.Reference(endLabel)
	g.b.EmitInstruction(GOTO)
	g.b.SetLabel(startLabel)

	savedTypes, savedScopes, savedRet := g.types, g.scopes, g.curReturnType
	savedLocal, savedParam := g.tracker.SaveActivation()
	g.types, g.scopes, g.curReturnType = impl.Types, impl.Scopes, impl.ReturnType
	g.tracker.EnterFunction()
	g.tracker.EnterScope(impl.BodyScope)
	for _, p := range fd.AST.Params {
		g.tracker.AddParam(impl.BodyScope, p.Name.Name)
	}
	g.genStmts(fd.AST.Body.Stmts, impl.BodyScope)
	g.emitReturnSequence(nil, impl.BodyScope)
	g.tracker.ExitScope()

	g.types, g.scopes, g.curReturnType = savedTypes, savedScopes, savedRet
	g.tracker.RestoreActivation(savedLocal, savedParam)

	g.b.SetLabel(endLabel)
}

// --- calling convention --------------------------------------------------

// genCall lowers a function call (spec section 4.6.2): built-ins map
// directly to a single opcode; ordinary calls push arguments in reverse
// order, a return-address label reference, the caller's frame pointer,
// overwrite the frame-pointer register with the current stack top, jump to
// the callee, and on return drop the remaining argument cells before
// pushing a copy of the return-store register.
func (g *generator) genCall(call *ast.CallExpr, scope int) {
	if sig, ok := builtinOps[call.Fn.Name]; ok {
		for _, a := range call.Args {
			g.genExpr(a, scope)
		}
		g.b.EmitOp(sig)
		return
	}

	argTypes := make([]types.Datatype, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = g.info(a).Datatype
	}
	impl, ok := g.res.Functions.FindImpl(call.Fn.Name, argTypes)
	if !ok {
		g.fail(call.Fn.Start, "no implementation of %q found for the call's argument types", call.Fn.Name)
	}
	label, ok := g.implLabels[impl]
	if !ok {
		label = g.b.CreateLabel()
		g.implLabels[impl] = label
	}

	for i := len(call.Args) - 1; i >= 0; i-- {
		g.genExpr(call.Args[i], scope)
	}

	retLabel := g.b.CreateLabel()
	g.b.Reference(retLabel)
	g.emitFP()
	g.b.EmitOp(LDSTK_PTR)
	g.b.EmitFloat(framePointerAddr)
	g.b.EmitOp(SWAP)
	g.b.EmitOp(STK_WRITE)
	g.b.Reference(label)
	g.b.EmitInstruction(GOTO)
	g.b.SetLabel(retLabel)

	// The callee's return sequence restores the frame-pointer register and
	// jumps back here without touching this frame's own cells, so every
	// argument plus the saved return-address and frame-pointer slots are
	// still sitting on top of the operand stack and need dropping here.
	for i := 0; i < len(call.Args)+2; i++ {
		g.b.EmitOp(DROP)
	}
	g.b.EmitFloat(returnStoreAddr)
	g.b.EmitOp(STK_READ)
}

// --- expressions ---------------------------------------------------------

func (g *generator) genExpr(e ast.Expr, scope int) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		g.genIdent(n, scope)
	case *ast.RefExpr:
		g.genAddressOf(n.X, scope)
	case *ast.DerefExpr:
		g.genDeref(n, scope)
	case *ast.LiteralExpr:
		g.genLiteral(n, scope)
	case *ast.ArrayLiteralExpr:
		g.genAnonArray(n, scope)
	case *ast.UnaryExpr:
		g.genUnary(n, scope)
	case *ast.BinaryExpr:
		g.genExpr(n.X, scope)
		g.genExpr(n.Y, scope)
		op, ok := binaryOps[n.Op]
		if !ok {
			g.fail(n.OpPos, "unsupported binary operator %s", n.Op)
		}
		g.b.EmitOp(op)
	case *ast.TernaryExpr:
		g.genExpr(n.Cond, scope)
		g.genExpr(n.Then, scope)
		g.genExpr(n.Else, scope)
		g.b.EmitOp(TERNARY)
	case *ast.IndexExpr:
		g.genIndex(n, scope)
	case *ast.CallExpr:
		g.genCall(n, scope)
	default:
		g.fail(0, "unhandled expression type %T", n)
	}
}

func (g *generator) genUnary(n *ast.UnaryExpr, scope int) {
	g.genExpr(n.X, scope)
	switch n.Op {
	case token.BANG:
		g.b.EmitOp(NOT)
	case token.MINUS:
		g.b.EmitOp(NEGATE)
	default:
		g.fail(n.OpPos, "unsupported unary operator %s", n.Op)
	}
}

func (g *generator) genLiteral(n *ast.LiteralExpr, scope int) {
	switch n.Lit.Kind {
	case types.LiteralFloat:
		g.b.EmitFloat(n.Lit.Float)
	case types.LiteralInteger:
		g.b.EmitFloat(float64(n.Lit.Integer))
	case types.LiteralBool:
		if n.Lit.Bool {
			g.b.EmitFloat(1)
		} else {
			g.b.EmitFloat(0)
		}
	case types.LiteralString:
		g.genPackedString(n.Lit.Str, scope)
	default:
		g.fail(n.Start, "unhandled literal kind %d", n.Lit.Kind)
	}
}

func (g *generator) genPackedString(s string, scope int) {
	words := types.PackString(s, 8)
	addr := g.tracker.AddAnonArray(len(words))
	g.b.ReserveUserSpace(len(words))
	for i, w := range words {
		g.b.EmitValue(w)
		g.b.EmitArrayAddr(addr + i)
		g.b.EmitOp(RCNX)
	}
	g.b.EmitArrayAddr(addr)
}

func (g *generator) genAnonArray(n *ast.ArrayLiteralExpr, scope int) {
	inf := g.info(n)
	size := cellCount(inf.Datatype)
	addr := g.tracker.AddAnonArray(size)
	g.b.ReserveUserSpace(size)
	g.genArrayElems(n, scope, addr, 0)
	g.b.EmitArrayAddr(addr)
}

// genArrayDecl lowers a `let name: T = value;` or `let name: T;` where T is
// an array type (spec section 4.6.5). value is nil for an empty-construct,
// in which case the user-space region is zero-filled.
func (g *generator) genArrayDecl(name string, dt types.Datatype, value ast.Expr, scope int) {
	size := cellCount(dt)
	addr := g.tracker.AddArray(scope, name, size)
	g.b.ReserveUserSpace(size)
	if value == nil {
		for i := 0; i < size; i++ {
			g.b.EmitFloat(0)
			g.b.EmitArrayAddr(addr + i)
			g.b.EmitOp(RCNX)
		}
		return
	}
	lit, ok := value.(*ast.ArrayLiteralExpr)
	if !ok {
		g.fail(0, "array-typed declaration initialiser must be an array literal")
	}
	g.genArrayElems(lit, scope, addr, 0)
}

// genArrayElems recursively lowers an array literal's elements into
// baseAddr+offset..., flattening nested array literals row-major. A literal
// leaf element uses the static path (precomputed constant, no SWAP); any
// other leaf expression is evaluated at runtime and written with the
// SWAP + RCNX sequence spec section 4.6.5 describes for the non-static path.
func (g *generator) genArrayElems(expr ast.Expr, scope int, baseAddr, offset int) {
	if lit, ok := expr.(*ast.ArrayLiteralExpr); ok {
		elemType := *g.info(lit).Datatype.Elem
		stride := cellCount(elemType)
		for i, el := range lit.Elems {
			g.genArrayElems(el, scope, baseAddr, offset+i*stride)
		}
		return
	}
	if leaf, ok := expr.(*ast.LiteralExpr); ok && leaf.Lit.Kind != types.LiteralString {
		g.b.EmitValue(literalBits(leaf.Lit))
		g.b.EmitArrayAddr(baseAddr + offset)
		g.b.EmitOp(RCNX)
		return
	}
	g.b.EmitArrayAddr(baseAddr + offset)
	g.genExpr(expr, scope)
	g.b.EmitOp(SWAP)
	g.b.EmitOp(RCNX)
}

func literalBits(l types.Literal) uint64 {
	switch l.Kind {
	case types.LiteralFloat:
		return types.Float64ToBits(l.Float)
	case types.LiteralInteger:
		return types.Float64ToBits(float64(l.Integer))
	case types.LiteralBool:
		if l.Bool {
			return types.Float64ToBits(1)
		}
		return types.Float64ToBits(0)
	default:
		return 0
	}
}

// cellCount returns the number of f64-wide user-space cells a value of
// datatype dt occupies, flattening nested arrays (spec section 4.6.5).
func cellCount(dt types.Datatype) int {
	if dt.Kind == types.KindArray {
		return dt.Length * cellCount(*dt.Elem)
	}
	return 1
}

// genIdent lowers a bare identifier reference (spec section 4.6.3).
func (g *generator) genIdent(n *ast.IdentExpr, scope int) {
	sym, ok := g.res.Symbols.Find(scope, n.Name)
	if !ok {
		g.fail(n.Start, "undeclared identifier %q", n.Name)
	}
	switch sym.Kind {
	case symtab.KindEnvironmentVariable:
		g.genExternAccess(sym, 0, g.info(n).Datatype)
	case symtab.KindParameter:
		paramID, ok := g.tracker.ParamID(scope, n.Name)
		if !ok {
			g.fail(n.Start, "%q is not a tracked parameter", n.Name)
		}
		g.emitParamAddr(paramID)
		g.b.EmitOp(STK_READ)
	case symtab.KindVariable:
		if g.info(n).Datatype.Kind == types.KindArray {
			addr, _, ok := g.tracker.ArrayID(scope, n.Name)
			if !ok {
				g.fail(n.Start, "%q is not a tracked array", n.Name)
			}
			g.b.EmitArrayAddr(addr)
			return
		}
		localID, ok := g.tracker.LocalID(scope, n.Name)
		if !ok {
			g.fail(n.Start, "%q is not a tracked local", n.Name)
		}
		g.emitLocalAddr(localID)
		g.b.EmitOp(STK_READ)
	default:
		g.fail(n.Start, "%q cannot be referenced as a value", n.Name)
	}
}

// genAddressOf lowers `&x`/`&*p`/`&a[i]` (spec section 4.6.3, "Reference:
// compute address only, no read").
func (g *generator) genAddressOf(e ast.Expr, scope int) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		sym, ok := g.res.Symbols.Find(scope, n.Name)
		if !ok {
			g.fail(n.Start, "undeclared identifier %q", n.Name)
		}
		switch sym.Kind {
		case symtab.KindEnvironmentVariable:
			g.b.EmitFloat(float64(sym.Address))
		case symtab.KindParameter:
			paramID, _ := g.tracker.ParamID(scope, n.Name)
			g.emitParamAddr(paramID)
		case symtab.KindVariable:
			if g.info(n).Datatype.Kind == types.KindArray {
				addr, _, _ := g.tracker.ArrayID(scope, n.Name)
				g.b.EmitArrayAddr(addr)
				return
			}
			localID, _ := g.tracker.LocalID(scope, n.Name)
			g.emitLocalAddr(localID)
		}
	case *ast.DerefExpr:
		g.genExpr(n.X, scope)
	case *ast.IndexExpr:
		g.genIndexAddr(n, scope)
	default:
		g.fail(0, "cannot take the address of %T", e)
	}
}

// genDeref lowers `*p` (spec section 4.6.3). A pointer environment variable
// dereference walks the LDNX + PTR_DEREF chain and ends in a type-sized
// read; an ordinary pointer (always an address on the real operand stack,
// never environment-backed) is read with a single STK_READ.
func (g *generator) genDeref(n *ast.DerefExpr, scope int) {
	if sym, levels, ok := g.externChain(n, scope); ok {
		g.genExternAccess(sym, levels, g.info(n).Datatype)
		return
	}
	g.genExpr(n.X, scope)
	g.b.EmitOp(STK_READ)
}

// externChain reports whether n ultimately dereferences an environment
// variable, and if so, the symbol and the number of explicit DerefExpr
// layers n itself represents (spec section 4.6.3/4.8.2: each additional
// indirection level beyond the first lowers to one PTR_DEREF, terminating
// in a type-sized read; see DESIGN.md's Open Question resolution).
func (g *generator) externChain(n *ast.DerefExpr, scope int) (*symtab.Symbol, int, bool) {
	levels := 1
	cur := n.X
	for {
		d, ok := cur.(*ast.DerefExpr)
		if !ok {
			break
		}
		levels++
		cur = d.X
	}
	id, ok := cur.(*ast.IdentExpr)
	if !ok {
		return nil, 0, false
	}
	sym, ok := g.res.Symbols.Find(scope, id.Name)
	if !ok || sym.Kind != symtab.KindEnvironmentVariable {
		return nil, 0, false
	}
	return sym, levels, true
}

// genExternAccess lowers a reference to an environment-variable symbol with
// levels explicit dereferences applied (0 for a bare identifier reference).
func (g *generator) genExternAccess(sym *symtab.Symbol, levels int, resultType types.Datatype) {
	g.b.EmitFloat(float64(sym.Address))
	g.b.EmitOp(LDNX)
	for i := 0; i < levels-1; i++ {
		g.b.EmitOp(PTR_DEREF)
	}
	if levels >= 1 {
		op, err := readOpFor(resultType.Primitive)
		if err != nil {
			g.fail(0, "%s", err)
		}
		g.b.EmitOp(op)
	}
}

// genIndexAddr computes an array-index expression's address (spec section
// 4.6.3: "multiply index by element size when indexing array-of-arrays ...
// convert to pointer delta, add") and returns the qualifier of the indexed
// array, leaving the computed address on the operand stack without reading
// through it.
func (g *generator) genIndexAddr(n *ast.IndexExpr, scope int) types.Qualifier {
	baseInfo := g.info(n.X)
	g.genArrayBase(n.X, scope)
	g.genExpr(n.Index, scope)
	if baseInfo.Datatype.Elem.Kind == types.KindArray {
		g.b.EmitFloat(float64(cellCount(*baseInfo.Datatype.Elem)))
		g.b.EmitOp(MUL)
	}
	g.b.EmitOp(ADD)
	return baseInfo.Qualifier
}

// genArrayBase emits the address an IndexExpr's X operand denotes: an
// identifier's own base address, or (for array-of-array indexing) the
// address already computed by indexing one level further in.
func (g *generator) genArrayBase(x ast.Expr, scope int) {
	if idx, ok := x.(*ast.IndexExpr); ok {
		g.genIndexAddr(idx, scope)
		return
	}
	g.genExpr(x, scope)
}

// genIndex lowers `a[i]` as a read (spec section 4.6.3): const arrays read
// directly with LDCUX; mutable arrays go through LDNXPTR then READ_F64.
func (g *generator) genIndex(n *ast.IndexExpr, scope int) {
	qual := g.genIndexAddr(n, scope)
	if qual == types.Const {
		g.b.EmitOp(LDCUX)
		return
	}
	g.b.EmitOp(LDNXPTR)
	g.b.EmitOp(READ_F64)
}

// arrayWriteOp picks the typed write opcode for an array-element assignment
// target (mirrors genIndex's LDNXPTR + READ_F64 read path with a write).
// Array element assignment is only ever reached for a mutable array (the
// resolver's qualifier-discipline pass already rejects a const target), so
// this always emits the generic f64-wide write, matching the read side's
// uniform READ_F64 regardless of declared element width.
func arrayWriteOp() Operation {
	return WRITE_F64
}

// emitFP pushes the current frame pointer register's value.
func (g *generator) emitFP() {
	g.b.EmitFloat(framePointerAddr)
	g.b.EmitOp(STK_READ)
}

func (g *generator) emitLocalAddr(localID int) {
	g.emitFP()
	g.b.EmitFloat(float64(localID + 1))
	g.b.EmitOp(ADD)
}

func (g *generator) emitParamAddr(paramID int) {
	g.emitFP()
	g.b.EmitFloat(float64(paramID + 2))
	g.b.EmitOp(SUB)
}

// readOpFor picks the typed environment/heap read opcode for an
// environment-variable dereference's terminal type (spec section 4.6.3:
// "floating types use READ_F*, integer types READ_I*; booleans read as f64;
// unsupported widths are rejected").
func readOpFor(p types.Primitive) (Operation, error) {
	if !p.SupportedInEnvironment() {
		return 0, fmt.Errorf("codegen: invalid-datatype: %s is not supported for environment access", p)
	}
	switch p {
	case types.F32:
		return READ_F32, nil
	case types.F64, types.Bool, types.String:
		return READ_F64, nil
	case types.I32:
		return READ_I32, nil
	case types.I64:
		return READ_I64, nil
	default:
		return 0, fmt.Errorf("codegen: invalid-datatype: %s is not supported for environment access", p)
	}
}

// writeOpFor picks the typed environment/heap write opcode for an
// environment-variable pointer-dereference assignment's terminal type,
// mirroring readOpFor.
func writeOpFor(p types.Primitive) (Operation, error) {
	if !p.SupportedInEnvironment() {
		return 0, fmt.Errorf("codegen: invalid-datatype: %s is not supported for environment access", p)
	}
	switch p {
	case types.F32:
		return WRITE_F32, nil
	case types.F64, types.Bool, types.String:
		return WRITE_F64, nil
	case types.I32:
		return WRITE_I32, nil
	case types.I64:
		return WRITE_I64, nil
	default:
		return 0, fmt.Errorf("codegen: invalid-datatype: %s is not supported for environment access", p)
	}
}
