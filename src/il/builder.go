package il

import (
	"fmt"

	"basilc/src/il/iltypes"
	"basilc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Builder constructs a Module one instruction at a time. Every Create*
// method below panics on a caller mistake (wrong operand category, append
// after a terminator, unknown block/function) rather than returning an
// error, because these are invariants the front end and passes are
// expected to never violate; only front-end *source* errors are reported
// through a util.DiagnosticSink, never through Builder panics (spec.md §7).
type Builder struct {
	m *Module
	f *Function
	b *Block
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewBuilder returns a Builder constructing a fresh, empty Module named
// name.
func NewBuilder(name string) *Builder {
	return &Builder{m: NewModule(name)}
}

// Module returns the Module under construction.
func (bd *Builder) Module() *Module {
	return bd.m
}

// DeclareExtern registers a host function signature and returns it. It
// panics if name is already declared as an extern, global or function.
func (bd *Builder) DeclareExtern(name string, params []iltypes.Type, result iltypes.Type) *Extern {
	bd.checkNameFree(name)
	e := &Extern{Name: name, ParamTypes: params, ResultType: result}
	bd.m.addExtern(e)
	return e
}

// DeclareGlobal registers a module-level variable or string constant and
// returns it. init is nil, int64, float64 or string depending on typ.
func (bd *Builder) DeclareGlobal(name string, typ iltypes.Type, init interface{}, isConst bool, vis Visibility) *Global {
	bd.checkNameFree(name)
	g := &Global{Name: name, Typ: typ, Init: init, IsConst: isConst, Visibility: vis}
	bd.m.addGlobal(g)
	return g
}

// DeclareFunction registers a new Function, makes it the Builder's current
// function (with no current block) and returns it.
func (bd *Builder) DeclareFunction(name string, params []FuncParam, ret iltypes.Type) *Function {
	bd.checkNameFree(name)
	f := &Function{Name: name, Params: params, RetType: ret, blockIdx: make(map[string]*Block)}
	// Parameter i is bound to Temp{ID: i} at function entry, so the body's
	// own temps must start numbering after the reserved parameter ids.
	f.nextTemp = len(params)
	bd.m.addFunction(f)
	bd.f = f
	bd.b = nil
	return f
}

// SetFunction makes f the Builder's current function for subsequent
// CreateBlock/SetBlock calls. It panics if f does not belong to the
// Builder's Module.
func (bd *Builder) SetFunction(f *Function) {
	if f.m != bd.m {
		panic("il: SetFunction called with a Function from another Module")
	}
	bd.f = f
	bd.b = nil
}

// CreateBlock appends a new, empty Block named name to the current
// function and makes it the current insertion block. It panics if name
// collides with an existing block in the current function, or if there is
// no current function.
func (bd *Builder) CreateBlock(name string) *Block {
	bd.requireFunction()
	if _, exists := bd.f.blockIdx[name]; exists {
		panic(fmt.Sprintf("il: duplicate block label %q in function %q", name, bd.f.Name))
	}
	blk := &Block{ID: bd.f.nextBlockID(), name: name, fn: bd.f}
	bd.f.Blocks = append(bd.f.Blocks, blk)
	bd.f.blockIdx[name] = blk
	bd.b = blk
	return blk
}

// SetBlock makes b the current insertion block. It panics if b does not
// belong to the Builder's current function.
func (bd *Builder) SetBlock(b *Block) {
	if b.fn != bd.f {
		panic("il: SetBlock called with a Block from another Function")
	}
	bd.b = b
}

// AddParam declares a new formal parameter on block b and returns the Temp
// bound to it. Block parameters must be declared before any predecessor
// branches to b; the verifier, not the builder, checks argument-vector
// arity/type agreement (spec.md §4.5).
func (bd *Builder) AddParam(b *Block, name string, typ iltypes.Type) Temp {
	t := Temp{ID: b.fn.nextTempID(), Typ: typ}
	b.Params = append(b.Params, &Param{Temp: t, Name: name})
	return t
}

// --- arithmetic / bitwise ---

// CreateAdd appends an "add" instruction to the current block.
func (bd *Builder) CreateAdd(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.Add, lhs, rhs, loc)
}

// CreateSub appends a "sub" instruction to the current block.
func (bd *Builder) CreateSub(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.Sub, lhs, rhs, loc)
}

// CreateMul appends a "mul" instruction to the current block.
func (bd *Builder) CreateMul(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.Mul, lhs, rhs, loc)
}

// CreateSDiv appends an "sdiv" instruction to the current block. The
// instruction is never removed or constant-folded away when rhs could be
// zero: trap semantics live in the VM (spec.md §4.7, §9).
func (bd *Builder) CreateSDiv(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.SDiv, lhs, rhs, loc)
}

// CreateUDiv appends a "udiv" instruction to the current block.
func (bd *Builder) CreateUDiv(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.UDiv, lhs, rhs, loc)
}

// CreateSRem appends an "srem" instruction to the current block.
func (bd *Builder) CreateSRem(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.SRem, lhs, rhs, loc)
}

// CreateURem appends a "urem" instruction to the current block.
func (bd *Builder) CreateURem(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.URem, lhs, rhs, loc)
}

// CreateFAdd appends an "fadd" instruction to the current block.
func (bd *Builder) CreateFAdd(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.FAdd, lhs, rhs, loc)
}

// CreateFSub appends an "fsub" instruction to the current block.
func (bd *Builder) CreateFSub(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.FSub, lhs, rhs, loc)
}

// CreateFMul appends an "fmul" instruction to the current block.
func (bd *Builder) CreateFMul(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.FMul, lhs, rhs, loc)
}

// CreateFDiv appends an "fdiv" instruction to the current block. Unlike
// integer division, fdiv never traps (IEEE 754 produces Inf/NaN).
func (bd *Builder) CreateFDiv(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.FDiv, lhs, rhs, loc)
}

// CreateAnd appends an "and" instruction to the current block.
func (bd *Builder) CreateAnd(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.And, lhs, rhs, loc)
}

// CreateOr appends an "or" instruction to the current block.
func (bd *Builder) CreateOr(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.Or, lhs, rhs, loc)
}

// CreateXor appends a "xor" instruction to the current block.
func (bd *Builder) CreateXor(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.Xor, lhs, rhs, loc)
}

// CreateShl appends a "shl" instruction to the current block.
func (bd *Builder) CreateShl(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.Shl, lhs, rhs, loc)
}

// CreateLshr appends an "lshr" instruction to the current block.
func (bd *Builder) CreateLshr(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.Lshr, lhs, rhs, loc)
}

// CreateAshr appends an "ashr" instruction to the current block.
func (bd *Builder) CreateAshr(lhs, rhs Value, loc util.SourceLoc) Value {
	return bd.emitBinary(iltypes.Ashr, lhs, rhs, loc)
}

// CreateNot appends a "not" instruction to the current block.
func (bd *Builder) CreateNot(v Value, loc util.SourceLoc) Value {
	return bd.emitUnary(iltypes.Not, v, iltypes.I64Type, loc)
}

// CreateNeg appends a "neg" instruction to the current block. The result
// type follows v's (I64 or F64).
func (bd *Builder) CreateNeg(v Value, loc util.SourceLoc) Value {
	return bd.emitUnary(iltypes.Neg, v, v.Type(), loc)
}

// --- comparisons ---

// CreateICmp appends an integer comparison instruction. op must be one of
// the ICmp* opcodes; CreateICmp panics otherwise.
func (bd *Builder) CreateICmp(op iltypes.Opcode, lhs, rhs Value, loc util.SourceLoc) Value {
	if op < iltypes.ICmpEq || op > iltypes.ICmpUge {
		panic(fmt.Sprintf("il: CreateICmp called with non-icmp opcode %s", op))
	}
	return bd.emitCompare(op, lhs, rhs, loc)
}

// CreateFCmp appends a float comparison instruction. op must be one of the
// FCmp* opcodes; CreateFCmp panics otherwise.
func (bd *Builder) CreateFCmp(op iltypes.Opcode, lhs, rhs Value, loc util.SourceLoc) Value {
	if op < iltypes.FCmpEq || op > iltypes.FCmpGe {
		panic(fmt.Sprintf("il: CreateFCmp called with non-fcmp opcode %s", op))
	}
	return bd.emitCompare(op, lhs, rhs, loc)
}

// --- conversions ---

// CreateSext appends a "sext" instruction (i1 -> i64) to the current block.
func (bd *Builder) CreateSext(v Value, loc util.SourceLoc) Value {
	return bd.emitUnary(iltypes.Sext, v, iltypes.I64Type, loc)
}

// CreateZext appends a "zext" instruction (i1 -> i64) to the current block.
func (bd *Builder) CreateZext(v Value, loc util.SourceLoc) Value {
	return bd.emitUnary(iltypes.Zext, v, iltypes.I64Type, loc)
}

// CreateTrunc appends a "trunc" instruction (i64 -> i1) to the current
// block.
func (bd *Builder) CreateTrunc(v Value, loc util.SourceLoc) Value {
	return bd.emitUnary(iltypes.Trunc, v, iltypes.I1Type, loc)
}

// CreateSitoFp appends a "sitofp" instruction (i64 -> f64) to the current
// block.
func (bd *Builder) CreateSitoFp(v Value, loc util.SourceLoc) Value {
	return bd.emitUnary(iltypes.SitoFp, v, iltypes.F64Type, loc)
}

// CreateFptoSi appends an "fptosi" instruction (f64 -> i64) to the current
// block. Out-of-range conversions trap in the VM rather than here.
func (bd *Builder) CreateFptoSi(v Value, loc util.SourceLoc) Value {
	return bd.emitUnary(iltypes.FptoSi, v, iltypes.I64Type, loc)
}

// CreateBitcast appends a "bitcast" instruction reinterpreting v as to.
func (bd *Builder) CreateBitcast(v Value, to iltypes.Type, loc util.SourceLoc) Value {
	return bd.emitUnary(iltypes.Bitcast, v, to, loc)
}

// --- memory ---

// CreateAlloca appends an "alloca" instruction reserving size 8-byte cells
// on the current frame's stack and returns the resulting pointer.
func (bd *Builder) CreateAlloca(size Value, loc util.SourceLoc) Value {
	in := bd.append(iltypes.Alloca, iltypes.PtrType, []Value{size}, loc)
	return *in.Dest
}

// CreateLoad appends a "load" instruction reading resultType from ptr.
func (bd *Builder) CreateLoad(ptr Value, resultType iltypes.Type, loc util.SourceLoc) Value {
	in := bd.append(iltypes.Load, resultType, []Value{ptr}, loc)
	return *in.Dest
}

// CreateStore appends a "store" instruction writing val through ptr.
func (bd *Builder) CreateStore(val, ptr Value, loc util.SourceLoc) {
	bd.append(iltypes.Store, iltypes.VoidType, []Value{val, ptr}, loc)
}

// --- calls ---

// CreateCall appends a "call" instruction invoking the module function
// named name and returns the result Value. It panics if name is not a
// declared Function in the Builder's Module.
func (bd *Builder) CreateCall(name string, args []Value, loc util.SourceLoc) Value {
	f := bd.m.Function(name)
	if f == nil {
		panic(fmt.Sprintf("il: CreateCall: undefined function %q", name))
	}
	in := bd.appendRaw(&Instr{Op: iltypes.Call, Result: f.RetType, Operands: args, Callee: f, Loc: loc})
	return *in.Dest
}

// CreateCallExtern appends a "call" instruction invoking the declared
// extern named name and returns the result Value.
func (bd *Builder) CreateCallExtern(name string, args []Value, loc util.SourceLoc) Value {
	e := bd.m.Extern(name)
	if e == nil {
		panic(fmt.Sprintf("il: CreateCallExtern: undeclared extern %q", name))
	}
	in := bd.appendRaw(&Instr{Op: iltypes.Call, Result: e.ResultType, Operands: args, Extern: e, Loc: loc})
	return *in.Dest
}

// CreateCallVoid appends a "callvoid" instruction invoking the module
// function named name, discarding any result.
func (bd *Builder) CreateCallVoid(name string, args []Value, loc util.SourceLoc) {
	f := bd.m.Function(name)
	if f == nil {
		panic(fmt.Sprintf("il: CreateCallVoid: undefined function %q", name))
	}
	bd.appendRaw(&Instr{Op: iltypes.CallVoid, Result: iltypes.VoidType, Operands: args, Callee: f, Loc: loc})
}

// CreateCallVoidExtern appends a "callvoid" instruction invoking the
// declared extern named name, discarding any result.
func (bd *Builder) CreateCallVoidExtern(name string, args []Value, loc util.SourceLoc) {
	e := bd.m.Extern(name)
	if e == nil {
		panic(fmt.Sprintf("il: CreateCallVoidExtern: undeclared extern %q", name))
	}
	bd.appendRaw(&Instr{Op: iltypes.CallVoid, Result: iltypes.VoidType, Operands: args, Extern: e, Loc: loc})
}

// --- terminators ---

// CreateBr appends an unconditional branch to target, passing args as
// target's block-parameter arguments.
func (bd *Builder) CreateBr(target *Block, args []Value, loc util.SourceLoc) {
	bd.appendRaw(&Instr{Op: iltypes.Br, Result: iltypes.VoidType, Targets: []*Block{target}, Args: [][]Value{args}, Loc: loc})
}

// CreateCBr appends a conditional branch: control transfers to ifTrue with
// trueArgs when cond is nonzero, to ifFalse with falseArgs otherwise.
func (bd *Builder) CreateCBr(cond Value, ifTrue *Block, trueArgs []Value, ifFalse *Block, falseArgs []Value, loc util.SourceLoc) {
	bd.appendRaw(&Instr{
		Op:       iltypes.CBr,
		Result:   iltypes.VoidType,
		Operands: []Value{cond},
		Targets:  []*Block{ifTrue, ifFalse},
		Args:     [][]Value{trueArgs, falseArgs},
		Loc:      loc,
	})
}

// CreateRet appends a return terminator. val may be nil for a function
// returning Void.
func (bd *Builder) CreateRet(val Value, loc util.SourceLoc) {
	var ops []Value
	if val != nil {
		ops = []Value{val}
	}
	bd.appendRaw(&Instr{Op: iltypes.Ret, Result: iltypes.VoidType, Operands: ops, Loc: loc})
}

// CreateTrap appends an explicit trap terminator, e.g. for an
// unreachable-in-practice branch reached by a front-end bug guard.
func (bd *Builder) CreateTrap(loc util.SourceLoc) {
	bd.appendRaw(&Instr{Op: iltypes.Trap, Result: iltypes.VoidType, Loc: loc})
}

// ------------------------------
// ----- internal machinery -----
// ------------------------------

// requireFunction panics if the Builder has no current function.
func (bd *Builder) requireFunction() {
	if bd.f == nil {
		panic("il: no current function (call DeclareFunction or SetFunction first)")
	}
}

// requireOpenBlock panics if the Builder has no current block, or if the
// current block already ends in a terminator.
func (bd *Builder) requireOpenBlock() {
	if bd.b == nil {
		panic("il: no current block (call CreateBlock or SetBlock first)")
	}
	if bd.b.Terminator() != nil {
		panic(fmt.Sprintf("il: cannot append to block %q after its terminator", bd.b.name))
	}
}

// checkNameFree panics if name is already used by an extern, global or
// function in the Builder's Module.
func (bd *Builder) checkNameFree(name string) {
	if bd.m.Extern(name) != nil || bd.m.Global(name) != nil || bd.m.Function(name) != nil {
		panic(fmt.Sprintf("il: name %q already declared in module %q", name, bd.m.Name))
	}
}

// emitBinary validates lhs/rhs against op's operand categories and appends
// the instruction.
func (bd *Builder) emitBinary(op iltypes.Opcode, lhs, rhs Value, loc util.SourceLoc) Value {
	info := iltypes.Info(op)
	result := categoryType(info.Result, lhs.Type())
	in := bd.append(op, result, []Value{lhs, rhs}, loc)
	return *in.Dest
}

// emitUnary validates v against op's operand category and appends the
// instruction with the given explicit result type (conversions and
// bitcast do not derive their result type from the operand).
func (bd *Builder) emitUnary(op iltypes.Opcode, v Value, result iltypes.Type, loc util.SourceLoc) Value {
	in := bd.append(op, result, []Value{v}, loc)
	return *in.Dest
}

// emitCompare appends an icmp/fcmp instruction, whose result is always I1.
func (bd *Builder) emitCompare(op iltypes.Opcode, lhs, rhs Value, loc util.SourceLoc) Value {
	in := bd.append(op, iltypes.I1Type, []Value{lhs, rhs}, loc)
	return *in.Dest
}

// categoryType resolves a CatNumeric/CatInteger/CatAny result category to a
// concrete Type using operand as the exemplar; fixed categories (CatI64,
// CatF64, ...) resolve to their single Type regardless of operand.
func categoryType(cat iltypes.TypeCategory, operand iltypes.Type) iltypes.Type {
	switch cat {
	case iltypes.CatI64:
		return iltypes.I64Type
	case iltypes.CatF64:
		return iltypes.F64Type
	case iltypes.CatI1:
		return iltypes.I1Type
	case iltypes.CatPtr:
		return iltypes.PtrType
	case iltypes.CatStr:
		return iltypes.StrType
	case iltypes.CatVoid:
		return iltypes.VoidType
	default:
		return operand
	}
}

// append validates operands against op's fixed-arity OperandCats (panicking
// on a category mismatch) and appends a freshly built Instr to the current
// block.
func (bd *Builder) append(op iltypes.Opcode, result iltypes.Type, operands []Value, loc util.SourceLoc) *Instr {
	info := iltypes.Info(op)
	if !info.VariableArity {
		if len(operands) != len(info.OperandCats) {
			panic(fmt.Sprintf("il: %s expects %d operands, got %d", op, len(info.OperandCats), len(operands)))
		}
		for i, want := range info.OperandCats {
			if !want.Matches(operands[i].Type()) {
				panic(fmt.Sprintf("il: %s operand %d: expected %s, got %s", op, i, want.String(), operands[i].Type().String()))
			}
		}
	}
	return bd.appendRaw(&Instr{Op: op, Result: result, Operands: operands, Loc: loc})
}

// appendRaw finishes populating in (ID, Dest, block) and appends it to the
// current block's instruction list.
func (bd *Builder) appendRaw(in *Instr) *Instr {
	bd.requireFunction()
	bd.requireOpenBlock()
	in.ID = bd.f.nextTempID()
	in.block = bd.b
	if !voidOrType(in.Result) {
		t := Temp{ID: in.ID, Typ: in.Result}
		in.Dest = &t
	}
	bd.b.Instrs = append(bd.b.Instrs, in)
	return in
}
