// lower.go turns a Program into a complete il.Module by walking the AST
// once per function, building each one through an il.Builder: a single
// tree walk that emits IL directly rather than mutating the tree in
// place. There is no second, AST-level IR: every BASIC local lowers to
// one alloca, loaded and stored like a C local, and src/pass's mem2reg
// promotes it back to registers with block parameters afterward; the
// front end itself never threads a live variable across a branch as a
// block argument.
package frontend

import (
	"fmt"
	"strings"

	"basilc/src/builtins"
	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/util"
	"basilc/src/verify"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// funcSig records a user SUB/FUNCTION's signature, computed before any
// body is lowered so forward and mutually recursive calls type-check.
type funcSig struct {
	Params []iltypes.Type
	Ret    iltypes.Type
}

// varSlot is one local variable's lowering state: the alloca cell backing
// it, its element type, and whether it is an array (in which case Ptr
// points at its first element and indexing computes an offset from it).
type varSlot struct {
	Ptr     il.Value
	Typ     iltypes.Type
	IsArray bool
}

// lowerer holds the state shared across an entire Program's lowering.
// terminated tracks whether the block currently being built has already
// received its terminator, so an If/While branch that itself returns or
// nothing-falls-through is never given a second, unreachable terminator.
type lowerer struct {
	bd         *il.Builder
	fileID     int
	userFuncs  map[string]*funcSig
	locals     map[string]*varSlot
	terminated bool
	strNum     int
	curFunc    *il.Function
	symbols    map[string]map[string]VarSymbol
}

// VarSymbol is a BASIC local's lowered identity: the alloca temp backing
// it and its element type. A debugger resolves a source-level "--watch
// x" name to one of these (by function name, then variable name) rather
// than to a temp id the caller has to know in advance.
type VarSymbol struct {
	Temp    int
	Typ     iltypes.Type
	IsArray bool
}

// recordSymbol remembers name's lowered slot for the function currently
// being lowered, so LowerSourceSymbols can hand it back to a caller after lowering
// completes.
func (lw *lowerer) recordSymbol(name string, slot *varSlot) {
	if lw.symbols == nil {
		lw.symbols = make(map[string]map[string]VarSymbol)
	}
	fn := lw.symbols[lw.curFunc.Name]
	if fn == nil {
		fn = make(map[string]VarSymbol)
		lw.symbols[lw.curFunc.Name] = fn
	}
	if t, ok := slot.Ptr.(il.Temp); ok {
		fn[name] = VarSymbol{Temp: t.ID, Typ: slot.Typ, IsArray: slot.IsArray}
	}
}

// ---------------------
// ----- Functions -----
// ---------------------

// LowerSource lexes, parses and lowers src (named path for diagnostics)
// into a complete, verified il.Module. No half-built module is ever
// returned: a parse error, a lowering error, or a failed verification all
// return before the caller sees an *il.Module at all (spec.md §4.9).
func LowerSource(src, path, moduleName string) (*il.Module, []string, error) {
	mod, lines, _, err := LowerSourceSymbols(src, path, moduleName)
	return mod, lines, err
}

// LowerSourceSymbols does exactly what LowerSource does, and additionally
// returns the name table a debugger needs to resolve a "--watch x" flag:
// symbols[fnName][varName] is the VarSymbol backing that BASIC local.
// LowerSource is the common case and just discards this extra value.
func LowerSourceSymbols(src, path, moduleName string) (*il.Module, []string, map[string]map[string]VarSymbol, error) {
	bd := il.NewBuilder(moduleName)
	fileID := bd.Module().Files.Intern(path)

	prog, err := Parse(src, fileID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse error: %w", err)
	}

	builtins.DeclareExterns(bd)
	builtins.DeclareEnvExterns(bd)

	lw := &lowerer{bd: bd, fileID: fileID, userFuncs: make(map[string]*funcSig)}
	if err := lw.declareSignatures(prog); err != nil {
		return nil, nil, nil, err
	}
	declared := lw.declareFunctions(prog)

	for _, s := range prog.Subs {
		if err := lw.lowerFunction(declared[s.Name], s.Params, s.Body, false); err != nil {
			return nil, nil, nil, fmt.Errorf("in SUB %s: %w", s.Name, err)
		}
	}
	for _, f := range prog.Funcs {
		if err := lw.lowerFunction(declared[f.Name], f.Params, f.Body, true); err != nil {
			return nil, nil, nil, fmt.Errorf("in FUNCTION %s: %w", f.Name, err)
		}
	}
	if err := lw.lowerFunction(declared["main"], nil, prog.Main, false); err != nil {
		return nil, nil, nil, fmt.Errorf("in main program: %w", err)
	}

	mod := bd.Module()
	if rpt := verify.Module(mod); !rpt.OK() {
		var sb strings.Builder
		for _, f := range rpt.Findings {
			sb.WriteString(f.String())
			sb.WriteString("; ")
		}
		return nil, nil, nil, fmt.Errorf("module failed verification: %s", sb.String())
	}
	return mod, strings.Split(src, "\n"), lw.symbols, nil
}

// inferType resolves a BASIC identifier's type from its trailing sigil:
// "$" is a string, "#" is a float, anything else (including a bare "%"
// integer sigil or no sigil at all) is a 64-bit integer.
func inferType(name string) iltypes.Type {
	switch {
	case strings.HasSuffix(name, "$"):
		return iltypes.StrType
	case strings.HasSuffix(name, "#"):
		return iltypes.F64Type
	default:
		return iltypes.I64Type
	}
}

func inferParamTypes(params []string) []iltypes.Type {
	types := make([]iltypes.Type, len(params))
	for i, p := range params {
		types[i] = inferType(p)
	}
	return types
}

func paramList(names []string) []il.FuncParam {
	params := make([]il.FuncParam, len(names))
	for i, n := range names {
		params[i] = il.FuncParam{Name: n, Typ: inferType(n)}
	}
	return params
}

func (lw *lowerer) loc() util.SourceLoc { return util.SourceLoc{FileID: lw.fileID} }

// declareSignatures records every SUB/FUNCTION's signature before any
// body is lowered, so a call to one declared later in the source still
// type-checks.
func (lw *lowerer) declareSignatures(prog *Program) error {
	for _, s := range prog.Subs {
		if _, dup := lw.userFuncs[s.Name]; dup {
			return fmt.Errorf("SUB %s declared more than once", s.Name)
		}
		lw.userFuncs[s.Name] = &funcSig{Params: inferParamTypes(s.Params), Ret: iltypes.VoidType}
	}
	for _, f := range prog.Funcs {
		if _, dup := lw.userFuncs[f.Name]; dup {
			return fmt.Errorf("FUNCTION %s declared more than once", f.Name)
		}
		lw.userFuncs[f.Name] = &funcSig{Params: inferParamTypes(f.Params), Ret: inferType(f.Name)}
	}
	return nil
}

// declareFunctions declares every SUB/FUNCTION plus "main" on the
// Builder, returning a name-to-Function map lowerFunction consults.
func (lw *lowerer) declareFunctions(prog *Program) map[string]*il.Function {
	declared := make(map[string]*il.Function, len(prog.Subs)+len(prog.Funcs)+1)
	for _, s := range prog.Subs {
		declared[s.Name] = lw.bd.DeclareFunction(s.Name, paramList(s.Params), iltypes.VoidType)
	}
	for _, f := range prog.Funcs {
		declared[f.Name] = lw.bd.DeclareFunction(f.Name, paramList(f.Params), inferType(f.Name))
	}
	declared["main"] = lw.bd.DeclareFunction("main", nil, iltypes.I64Type)
	return declared
}

// ------------------------------
// ----- Block bookkeeping -----
// ------------------------------

func (lw *lowerer) setBlock(b *il.Block) {
	lw.bd.SetBlock(b)
	lw.terminated = false
}

func (lw *lowerer) ret(val il.Value) {
	if lw.terminated {
		return
	}
	lw.bd.CreateRet(val, lw.loc())
	lw.terminated = true
}

func (lw *lowerer) br(target *il.Block) {
	if lw.terminated {
		return
	}
	lw.bd.CreateBr(target, nil, lw.loc())
	lw.terminated = true
}

func (lw *lowerer) cbr(cond il.Value, ifTrue, ifFalse *il.Block) {
	lw.bd.CreateCBr(cond, ifTrue, nil, ifFalse, nil, lw.loc())
	lw.terminated = true
}

// --------------------------------
// ----- Function-body lowering -----
// --------------------------------

// lowerFunction lowers body into fn's entry block onward. isFunc is true
// only for a FUNCTION, which falls back to returning its result type's
// zero value if its body falls off the end without an explicit RETURN.
func (lw *lowerer) lowerFunction(fn *il.Function, params []string, body []Stmt, isFunc bool) error {
	lw.bd.SetFunction(fn)
	lw.curFunc = fn
	entry := lw.bd.CreateBlock("entry")
	lw.setBlock(entry)
	lw.locals = make(map[string]*varSlot)

	for i, name := range params {
		typ := inferType(name)
		ptr := lw.bd.CreateAlloca(il.ConstInt{V: 1}, lw.loc())
		lw.bd.CreateStore(il.Temp{ID: i, Typ: typ}, ptr, lw.loc())
		slot := &varSlot{Ptr: ptr, Typ: typ}
		lw.locals[name] = slot
		lw.recordSymbol(name, slot)
	}

	for _, stmt := range body {
		if err := lw.lowerStmt(stmt); err != nil {
			return err
		}
	}

	if !lw.terminated {
		if isFunc {
			lw.ret(lw.zeroValue(fn.RetType))
		} else if fn.RetType == iltypes.VoidType {
			lw.ret(nil)
		} else {
			lw.ret(lw.zeroValue(fn.RetType))
		}
	}
	return nil
}

func (lw *lowerer) zeroValue(typ iltypes.Type) il.Value {
	switch typ.K {
	case iltypes.F64:
		return il.ConstFloat{V: 0}
	case iltypes.I1:
		return il.ConstBool{V: false}
	case iltypes.Str:
		return lw.strLit("")
	default:
		return il.ConstInt{V: 0}
	}
}

// strLit interns s as a fresh constant Global and returns a ConstStr
// referencing it, the way a string literal has to be represented: the
// VM's Str cells are handles into its own string table, not raw bytes
// (spec.md §3.1), so even a literal needs a Global backing it.
func (lw *lowerer) strLit(s string) il.Value {
	name := fmt.Sprintf(".str.%d", lw.strNum)
	lw.strNum++
	g := lw.bd.DeclareGlobal(name, iltypes.StrType, s, true, il.Private)
	return il.ConstStr{G: g}
}

// ------------------------
// ----- Statements -----
// ------------------------

func (lw *lowerer) lowerStmt(stmt Stmt) error {
	if lw.terminated {
		return nil // Dead code after a RETURN; never lowered, per dce's job of pruning the rest.
	}
	switch s := stmt.(type) {
	case *LetStmt:
		return lw.lowerLet(s)
	case *IfStmt:
		return lw.lowerIf(s)
	case *WhileStmt:
		return lw.lowerWhile(s)
	case *PrintStmt:
		return lw.lowerPrint(s)
	case *InputStmt:
		return lw.lowerInput(s)
	case *DimStmt:
		return lw.lowerDim(s)
	case *ReturnStmt:
		return lw.lowerReturn(s)
	case *CallStmt:
		_, _, err := lw.lowerCall(s.Call)
		return err
	default:
		return fmt.Errorf("unhandled statement type %T", stmt)
	}
}

func (lw *lowerer) lowerLet(s *LetStmt) error {
	slot, ok := lw.locals[s.Name]
	if !ok {
		// An assignment to an undeclared variable implicitly DIMs it, the
		// common BASIC convention of never requiring DIM for a scalar.
		typ := inferType(s.Name)
		ptr := lw.bd.CreateAlloca(il.ConstInt{V: 1}, lw.loc())
		slot = &varSlot{Ptr: ptr, Typ: typ}
		lw.locals[s.Name] = slot
		lw.recordSymbol(s.Name, slot)
	}
	val, valTyp, err := lw.lowerExpr(s.Value)
	if err != nil {
		return err
	}
	val, err = lw.coerce(val, valTyp, slot.Typ)
	if err != nil {
		return fmt.Errorf("assigning to %s: %w", s.Name, err)
	}
	if s.Index == nil {
		if slot.IsArray {
			return fmt.Errorf("%s is an array; an index is required", s.Name)
		}
		lw.bd.CreateStore(val, slot.Ptr, lw.loc())
		return nil
	}
	if !slot.IsArray {
		return fmt.Errorf("%s is not an array", s.Name)
	}
	addr, err := lw.elementAddr(slot, s.Index)
	if err != nil {
		return err
	}
	lw.bd.CreateStore(val, addr, lw.loc())
	return nil
}

func (lw *lowerer) lowerIf(s *IfStmt) error {
	cond, condTyp, err := lw.lowerExpr(s.Cond)
	if err != nil {
		return err
	}
	cond = lw.toBool(cond, condTyp)

	thenBlk := lw.bd.CreateBlock("if.then")
	mergeBlk := lw.bd.CreateBlock("if.end")
	if len(s.Else) == 0 {
		lw.cbr(cond, thenBlk, mergeBlk)
	} else {
		elseBlk := lw.bd.CreateBlock("if.else")
		lw.cbr(cond, thenBlk, elseBlk)
		lw.setBlock(elseBlk)
		for _, st := range s.Else {
			if err := lw.lowerStmt(st); err != nil {
				return err
			}
		}
		lw.br(mergeBlk)
	}

	lw.setBlock(thenBlk)
	for _, st := range s.Then {
		if err := lw.lowerStmt(st); err != nil {
			return err
		}
	}
	lw.br(mergeBlk)

	lw.setBlock(mergeBlk)
	return nil
}

func (lw *lowerer) lowerWhile(s *WhileStmt) error {
	headerBlk := lw.bd.CreateBlock("while.cond")
	bodyBlk := lw.bd.CreateBlock("while.body")
	afterBlk := lw.bd.CreateBlock("while.end")

	lw.br(headerBlk)
	lw.setBlock(headerBlk)
	cond, condTyp, err := lw.lowerExpr(s.Cond)
	if err != nil {
		return err
	}
	lw.cbr(lw.toBool(cond, condTyp), bodyBlk, afterBlk)

	lw.setBlock(bodyBlk)
	for _, st := range s.Body {
		if err := lw.lowerStmt(st); err != nil {
			return err
		}
	}
	lw.br(headerBlk)

	lw.setBlock(afterBlk)
	return nil
}

func (lw *lowerer) lowerPrint(s *PrintStmt) error {
	for _, arg := range s.Args {
		val, typ, err := lw.lowerExpr(arg)
		if err != nil {
			return err
		}
		switch typ.K {
		case iltypes.F64:
			lw.bd.CreateCallVoidExtern("PRINT_F64", []il.Value{val}, lw.loc())
		case iltypes.Str:
			lw.bd.CreateCallVoidExtern("PRINT_STR", []il.Value{val}, lw.loc())
		default:
			val, _ = lw.coerce(val, typ, iltypes.I64Type)
			lw.bd.CreateCallVoidExtern("PRINT_I64", []il.Value{val}, lw.loc())
		}
	}
	return nil
}

func (lw *lowerer) lowerInput(s *InputStmt) error {
	slot, ok := lw.locals[s.Name]
	if !ok {
		typ := inferType(s.Name)
		ptr := lw.bd.CreateAlloca(il.ConstInt{V: 1}, lw.loc())
		slot = &varSlot{Ptr: ptr, Typ: typ}
		lw.locals[s.Name] = slot
		lw.recordSymbol(s.Name, slot)
	}
	var val il.Value
	switch slot.Typ.K {
	case iltypes.F64:
		val = lw.bd.CreateCallExtern("INPUT_F64", nil, lw.loc())
	case iltypes.Str:
		val = lw.bd.CreateCallExtern("INPUT_STR", nil, lw.loc())
	default:
		val = lw.bd.CreateCallExtern("INPUT_I64", nil, lw.loc())
	}
	lw.bd.CreateStore(val, slot.Ptr, lw.loc())
	return nil
}

func (lw *lowerer) lowerDim(s *DimStmt) error {
	if _, dup := lw.locals[s.Name]; dup {
		return fmt.Errorf("%s already declared", s.Name)
	}
	typ := inferType(s.Name)
	if s.Size == nil {
		ptr := lw.bd.CreateAlloca(il.ConstInt{V: 1}, lw.loc())
		slot := &varSlot{Ptr: ptr, Typ: typ}
		lw.locals[s.Name] = slot
		lw.recordSymbol(s.Name, slot)
		return nil
	}
	sizeVal, sizeTyp, err := lw.lowerExpr(s.Size)
	if err != nil {
		return err
	}
	sizeVal, err = lw.coerce(sizeVal, sizeTyp, iltypes.I64Type)
	if err != nil {
		return fmt.Errorf("array size for %s: %w", s.Name, err)
	}
	ptr := lw.bd.CreateAlloca(sizeVal, lw.loc())
	slot := &varSlot{Ptr: ptr, Typ: typ, IsArray: true}
	lw.locals[s.Name] = slot
	lw.recordSymbol(s.Name, slot)
	return nil
}

func (lw *lowerer) lowerReturn(s *ReturnStmt) error {
	if s.Value == nil {
		lw.ret(nil)
		return nil
	}
	val, typ, err := lw.lowerExpr(s.Value)
	if err != nil {
		return err
	}
	val, err = lw.coerce(val, typ, lw.curFunc.RetType)
	if err != nil {
		return fmt.Errorf("return value: %w", err)
	}
	lw.ret(val)
	return nil
}

// ------------------------
// ----- Expressions -----
// ------------------------

func (lw *lowerer) lowerExpr(expr Expr) (il.Value, iltypes.Type, error) {
	switch e := expr.(type) {
	case *IntLit:
		return il.ConstInt{V: e.Value}, iltypes.I64Type, nil
	case *FloatLit:
		return il.ConstFloat{V: e.Value}, iltypes.F64Type, nil
	case *StrLit:
		return lw.strLit(e.Value), iltypes.StrType, nil
	case *Ident:
		slot, ok := lw.locals[e.Name]
		if !ok {
			return nil, iltypes.Type{}, fmt.Errorf("undeclared variable %s", e.Name)
		}
		if slot.IsArray {
			return nil, iltypes.Type{}, fmt.Errorf("%s is an array; an index is required", e.Name)
		}
		return lw.bd.CreateLoad(slot.Ptr, slot.Typ, lw.loc()), slot.Typ, nil
	case *UnaryExpr:
		return lw.lowerUnary(e)
	case *BinaryExpr:
		return lw.lowerBinary(e)
	case *CallExpr:
		val, typ, err := lw.lowerCall(e)
		if err != nil {
			return nil, iltypes.Type{}, err
		}
		if typ == iltypes.VoidType {
			return nil, iltypes.Type{}, fmt.Errorf("%s is a SUB and returns no value", e.Name)
		}
		return val, typ, nil
	default:
		return nil, iltypes.Type{}, fmt.Errorf("unhandled expression type %T", expr)
	}
}

func (lw *lowerer) lowerUnary(e *UnaryExpr) (il.Value, iltypes.Type, error) {
	val, typ, err := lw.lowerExpr(e.Operand)
	if err != nil {
		return nil, iltypes.Type{}, err
	}
	switch e.Op {
	case MINUS:
		return lw.bd.CreateNeg(val, lw.loc()), typ, nil
	case NOT:
		flipped := lw.bd.CreateXor(lw.boolToI64(lw.toBool(val, typ)), il.ConstInt{V: 1}, lw.loc())
		return lw.bd.CreateTrunc(flipped, lw.loc()), iltypes.I1Type, nil
	default:
		return nil, iltypes.Type{}, fmt.Errorf("unhandled unary operator %s", e.Op)
	}
}

func (lw *lowerer) lowerBinary(e *BinaryExpr) (il.Value, iltypes.Type, error) {
	if e.Op == AND || e.Op == OR {
		return lw.lowerLogical(e)
	}
	lhs, lhsTyp, err := lw.lowerExpr(e.Left)
	if err != nil {
		return nil, iltypes.Type{}, err
	}
	rhs, rhsTyp, err := lw.lowerExpr(e.Right)
	if err != nil {
		return nil, iltypes.Type{}, err
	}

	if lhsTyp.K == iltypes.Str || rhsTyp.K == iltypes.Str {
		return nil, iltypes.Type{}, fmt.Errorf("operator %s does not apply to strings", e.Op)
	}

	common := iltypes.I64Type
	if lhsTyp.K == iltypes.F64 || rhsTyp.K == iltypes.F64 {
		common = iltypes.F64Type
	}
	lhs, err = lw.coerce(lhs, lhsTyp, common)
	if err != nil {
		return nil, iltypes.Type{}, err
	}
	rhs, err = lw.coerce(rhs, rhsTyp, common)
	if err != nil {
		return nil, iltypes.Type{}, err
	}

	isFloat := common.K == iltypes.F64
	switch e.Op {
	case PLUS:
		if isFloat {
			return lw.bd.CreateFAdd(lhs, rhs, lw.loc()), common, nil
		}
		return lw.bd.CreateAdd(lhs, rhs, lw.loc()), common, nil
	case MINUS:
		if isFloat {
			return lw.bd.CreateFSub(lhs, rhs, lw.loc()), common, nil
		}
		return lw.bd.CreateSub(lhs, rhs, lw.loc()), common, nil
	case STAR:
		if isFloat {
			return lw.bd.CreateFMul(lhs, rhs, lw.loc()), common, nil
		}
		return lw.bd.CreateMul(lhs, rhs, lw.loc()), common, nil
	case SLASH:
		if isFloat {
			return lw.bd.CreateFDiv(lhs, rhs, lw.loc()), common, nil
		}
		return lw.bd.CreateSDiv(lhs, rhs, lw.loc()), common, nil
	case MOD:
		if isFloat {
			return nil, iltypes.Type{}, fmt.Errorf("MOD requires integer operands")
		}
		return lw.bd.CreateSRem(lhs, rhs, lw.loc()), common, nil
	case EQ, NE, LT, LE, GT, GE:
		return lw.lowerCompare(e.Op, lhs, rhs, isFloat), iltypes.I1Type, nil
	default:
		return nil, iltypes.Type{}, fmt.Errorf("unhandled binary operator %s", e.Op)
	}
}

func (lw *lowerer) lowerCompare(op itemType, lhs, rhs il.Value, isFloat bool) il.Value {
	if isFloat {
		switch op {
		case EQ:
			return lw.bd.CreateFCmp(iltypes.FCmpEq, lhs, rhs, lw.loc())
		case NE:
			return lw.bd.CreateFCmp(iltypes.FCmpNe, lhs, rhs, lw.loc())
		case LT:
			return lw.bd.CreateFCmp(iltypes.FCmpLt, lhs, rhs, lw.loc())
		case LE:
			return lw.bd.CreateFCmp(iltypes.FCmpLe, lhs, rhs, lw.loc())
		case GT:
			return lw.bd.CreateFCmp(iltypes.FCmpGt, lhs, rhs, lw.loc())
		default:
			return lw.bd.CreateFCmp(iltypes.FCmpGe, lhs, rhs, lw.loc())
		}
	}
	switch op {
	case EQ:
		return lw.bd.CreateICmp(iltypes.ICmpEq, lhs, rhs, lw.loc())
	case NE:
		return lw.bd.CreateICmp(iltypes.ICmpNe, lhs, rhs, lw.loc())
	case LT:
		return lw.bd.CreateICmp(iltypes.ICmpSlt, lhs, rhs, lw.loc())
	case LE:
		return lw.bd.CreateICmp(iltypes.ICmpSle, lhs, rhs, lw.loc())
	case GT:
		return lw.bd.CreateICmp(iltypes.ICmpSgt, lhs, rhs, lw.loc())
	default:
		return lw.bd.CreateICmp(iltypes.ICmpSge, lhs, rhs, lw.loc())
	}
}

// lowerLogical lowers AND/OR. The IL kernel's and/or opcodes only accept
// I64 operands (spec.md/opcode.go's bitwise table has no I1 overload), so
// a boolean operand is widened to I64 with zext, combined, then narrowed
// back to I1 with trunc.
func (lw *lowerer) lowerLogical(e *BinaryExpr) (il.Value, iltypes.Type, error) {
	lhs, lhsTyp, err := lw.lowerExpr(e.Left)
	if err != nil {
		return nil, iltypes.Type{}, err
	}
	rhs, rhsTyp, err := lw.lowerExpr(e.Right)
	if err != nil {
		return nil, iltypes.Type{}, err
	}
	lhsWide := lw.boolToI64(lw.toBool(lhs, lhsTyp))
	rhsWide := lw.boolToI64(lw.toBool(rhs, rhsTyp))
	var wide il.Value
	if e.Op == AND {
		wide = lw.bd.CreateAnd(lhsWide, rhsWide, lw.loc())
	} else {
		wide = lw.bd.CreateOr(lhsWide, rhsWide, lw.loc())
	}
	return lw.bd.CreateTrunc(wide, lw.loc()), iltypes.I1Type, nil
}

func (lw *lowerer) boolToI64(b il.Value) il.Value {
	return lw.bd.CreateZext(b, lw.loc())
}

// toBool coerces a numeric value to I1 ("truthy" test against zero); a
// value that is already I1 passes through unchanged.
func (lw *lowerer) toBool(val il.Value, typ iltypes.Type) il.Value {
	switch typ.K {
	case iltypes.I1:
		return val
	case iltypes.F64:
		return lw.bd.CreateFCmp(iltypes.FCmpNe, val, il.ConstFloat{V: 0}, lw.loc())
	default:
		return lw.bd.CreateICmp(iltypes.ICmpNe, val, il.ConstInt{V: 0}, lw.loc())
	}
}

// coerce converts val from "from" to "to" where a widening is
// well-defined (int-to-float), and rejects anything else as a front-end
// type error rather than letting a mismatched operand reach the verifier.
func (lw *lowerer) coerce(val il.Value, from, to iltypes.Type) (il.Value, error) {
	if from == to {
		return val, nil
	}
	if from.K == iltypes.I64 && to.K == iltypes.F64 {
		return lw.bd.CreateSitoFp(val, lw.loc()), nil
	}
	return nil, fmt.Errorf("cannot use a value of type %s where %s is expected", from.String(), to.String())
}

// elementAddr computes the address of arr[index] as arr.Ptr + index*8
// (every cell in the VM's flat arena is 8 bytes, spec.md §3.1).
func (lw *lowerer) elementAddr(slot *varSlot, index Expr) (il.Value, error) {
	idx, idxTyp, err := lw.lowerExpr(index)
	if err != nil {
		return nil, err
	}
	idx, err = lw.coerce(idx, idxTyp, iltypes.I64Type)
	if err != nil {
		return nil, fmt.Errorf("array index: %w", err)
	}
	offset := lw.bd.CreateMul(idx, il.ConstInt{V: 8}, lw.loc())
	base := lw.bd.CreateBitcast(slot.Ptr, iltypes.I64Type, lw.loc())
	addr := lw.bd.CreateAdd(base, offset, lw.loc())
	return lw.bd.CreateBitcast(addr, iltypes.PtrType, lw.loc()), nil
}

// lowerCall lowers a CallExpr, used both from statement position
// (CallStmt, where a void-returning SUB is fine) and expression position
// (lowerExpr's CallExpr case, which rejects a void result itself). If
// name resolves to a declared array variable, this is instead an array
// element read (the grammar could not distinguish the two without this
// symbol table lookup).
func (lw *lowerer) lowerCall(e *CallExpr) (il.Value, iltypes.Type, error) {
	if slot, ok := lw.locals[e.Name]; ok && slot.IsArray {
		if len(e.Args) != 1 {
			return nil, iltypes.Type{}, fmt.Errorf("%s takes exactly one index", e.Name)
		}
		addr, err := lw.elementAddr(slot, e.Args[0])
		if err != nil {
			return nil, iltypes.Type{}, err
		}
		return lw.bd.CreateLoad(addr, slot.Typ, lw.loc()), slot.Typ, nil
	}

	if d, ok := builtins.Lookup(strings.ToUpper(e.Name)); ok {
		return lw.lowerKnownCall(d.Name, d.Params, d.Result, e.Args, true)
	}
	if sig, ok := lw.userFuncs[e.Name]; ok {
		return lw.lowerKnownCall(e.Name, sig.Params, sig.Ret, e.Args, false)
	}
	return nil, iltypes.Type{}, fmt.Errorf("undefined name %s", e.Name)
}

func (lw *lowerer) lowerKnownCall(name string, paramTypes []iltypes.Type, result iltypes.Type, args []Expr, extern bool) (il.Value, iltypes.Type, error) {
	if len(args) != len(paramTypes) {
		return nil, iltypes.Type{}, fmt.Errorf("%s expects %d argument(s), got %d", name, len(paramTypes), len(args))
	}
	vals := make([]il.Value, len(args))
	for i, a := range args {
		v, t, err := lw.lowerExpr(a)
		if err != nil {
			return nil, iltypes.Type{}, err
		}
		v, err = lw.coerce(v, t, paramTypes[i])
		if err != nil {
			return nil, iltypes.Type{}, fmt.Errorf("%s argument %d: %w", name, i+1, err)
		}
		vals[i] = v
	}
	if result == iltypes.VoidType {
		if extern {
			lw.bd.CreateCallVoidExtern(name, vals, lw.loc())
		} else {
			lw.bd.CreateCallVoid(name, vals, lw.loc())
		}
		return nil, iltypes.VoidType, nil
	}
	if extern {
		return lw.bd.CreateCallExtern(name, vals, lw.loc()), result, nil
	}
	return lw.bd.CreateCall(name, vals, lw.loc()), result, nil
}
