// Package llvmgen translates a verified il.Module into LLVM IR text: an
// llvm.NewContext/ctx.NewBuilder/ctx.NewModule setup, a symTab helper for
// name-to-llvm.Value lookup, and one pass per function that first creates
// every block (and its parameters' phi nodes) and then fills in each
// block's instructions. Experimental (SPEC_FULL.md §2): only the kernel
// spec.md puts in scope (arithmetic, control flow, memory, calls) is
// handled, and anything else is an error rather than a silently dropped
// instruction.
package llvmgen

import (
	"fmt"
	"sync"

	"basilc/src/il"
	"basilc/src/il/iltypes"

	"tinygo.org/x/go-llvm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// symTab maps a temp or global name to the llvm.Value backing it within
// one function's translation (a plain map guarded by a mutex, even though
// a single BASIC module's functions are translated one at a time today,
// so that a future parallel translation pass has somewhere safe to share
// extern/global lookups).
type symTab struct {
	m map[string]llvm.Value
	sync.RWMutex
}

func newSymTab() *symTab { return &symTab{m: make(map[string]llvm.Value, 16)} }

func (s *symTab) get(name string) (llvm.Value, bool) {
	s.RLock()
	defer s.RUnlock()
	v, ok := s.m[name]
	return v, ok
}

func (s *symTab) set(name string, v llvm.Value) {
	s.Lock()
	defer s.Unlock()
	s.m[name] = v
}

// translator holds the state threaded through one module's translation.
type translator struct {
	ctx     llvm.Context
	mod     llvm.Module
	globals *symTab // Function/extern/global name -> llvm.Value.
}

// ---------------------
// ----- Functions -----
// ---------------------

// Translate lowers m into an LLVM module and returns its textual IR
// ("%s.ll" content), ready to hand to llc/clang or another LLVM
// consumer.
func Translate(m *il.Module) (string, error) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()

	mod := ctx.NewModule(m.Name)
	defer mod.Dispose()

	t := &translator{ctx: ctx, mod: mod, globals: newSymTab()}

	for _, g := range m.Globals {
		if err := t.declareGlobal(g); err != nil {
			return "", err
		}
	}
	for _, e := range m.Externs {
		t.declareExtern(e)
	}
	for _, fn := range m.Functions {
		t.declareFunctionHeader(fn)
	}
	for _, fn := range m.Functions {
		if err := t.translateFunction(fn); err != nil {
			return "", fmt.Errorf("function %s: %w", fn.Name, err)
		}
	}
	return mod.String(), nil
}

// llvmType maps an iltypes.Type onto its LLVM counterpart. Ptr and Str
// are both represented as i64, matching the VM's flat, untyped-cell
// memory model (spec.md §4.2 "slot representation"): there is no LLVM
// pointer-to-struct/array type to recover here, only a raw address.
func (t *translator) llvmType(typ iltypes.Type) llvm.Type {
	switch typ.K {
	case iltypes.Void:
		return t.ctx.VoidType()
	case iltypes.I1:
		return t.ctx.Int1Type()
	case iltypes.I64, iltypes.Ptr, iltypes.Str:
		return t.ctx.Int64Type()
	case iltypes.F64:
		return t.ctx.DoubleType()
	default:
		return t.ctx.Int64Type()
	}
}

// declareGlobal emits a module-level global with its initializer.
func (t *translator) declareGlobal(g *il.Global) error {
	llt := t.llvmType(g.Typ)
	gv := llvm.AddGlobal(t.mod, llt, g.Name)
	switch init := g.Init.(type) {
	case int64:
		gv.SetInitializer(llvm.ConstInt(llt, uint64(init), true))
	case float64:
		gv.SetInitializer(llvm.ConstFloat(llt, init))
	case string:
		gv.SetInitializer(llvm.ConstString(init, true))
	case nil:
		gv.SetInitializer(llvm.ConstNull(llt))
	default:
		return fmt.Errorf("global %s: unsupported initializer %T", g.Name, init)
	}
	gv.SetGlobalConstant(g.IsConst)
	t.globals.set("@"+g.Name, gv)
	return nil
}

// declareExtern declares a host-bridge function (spec.md §4.7 "host
// bridge") so calls to it type-check and link against the runtime's C
// implementation of the same symbol.
func (t *translator) declareExtern(e *il.Extern) {
	params := make([]llvm.Type, len(e.ParamTypes))
	for i, p := range e.ParamTypes {
		params[i] = t.llvmType(p)
	}
	ft := llvm.FunctionType(t.llvmType(e.ResultType), params, false)
	fn := llvm.AddFunction(t.mod, e.Name, ft)
	t.globals.set("@"+e.Name, fn)
}

// declareFunctionHeader adds fn's signature to the module ahead of
// translating any function body, so forward and mutually recursive calls
// resolve regardless of declaration order.
func (t *translator) declareFunctionHeader(fn *il.Function) {
	params := make([]llvm.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = t.llvmType(p.Typ)
	}
	ft := llvm.FunctionType(t.llvmType(fn.RetType), params, false)
	f := llvm.AddFunction(t.mod, fn.Name, ft)
	t.globals.set("@"+fn.Name, f)
}

// translateFunction translates one function's blocks in declaration
// order, first creating every LLVM basic block (so a forward branch
// target already exists) and every block parameter's phi node, then
// filling in each block's instructions.
func (t *translator) translateFunction(fn *il.Function) error {
	llf, ok := t.globals.get("@" + fn.Name)
	if !ok {
		return fmt.Errorf("no declaration for %s", fn.Name)
	}
	b := t.ctx.NewBuilder()
	defer b.Dispose()

	locals := newSymTab()
	llBlocks := make(map[string]llvm.BasicBlock, len(fn.Blocks))
	phis := make(map[string][]llvm.Value, len(fn.Blocks))

	for _, blk := range fn.Blocks {
		llBlocks[blk.Label()] = llvm.AddBasicBlock(llf, blk.Label())
	}
	for i := range fn.Params {
		locals.set(fmt.Sprintf("%%t%d", i), llf.Param(i))
	}
	for _, blk := range fn.Blocks {
		b.SetInsertPointAtEnd(llBlocks[blk.Label()])
		var ps []llvm.Value
		for _, p := range blk.Params {
			phi := b.CreatePHI(t.llvmType(p.Temp.Typ), "")
			locals.set(p.Temp.String(), phi)
			ps = append(ps, phi)
		}
		phis[blk.Label()] = ps
	}

	for _, blk := range fn.Blocks {
		b.SetInsertPointAtEnd(llBlocks[blk.Label()])
		for _, in := range blk.Instrs {
			if err := t.translateInstr(b, locals, llBlocks, phis, in); err != nil {
				return fmt.Errorf("%s: %w", blk.Label(), err)
			}
		}
	}
	return nil
}

// operand resolves an il.Value operand to its llvm.Value, consulting
// locals for a Temp and literal LLVM constants for everything else.
func (t *translator) operand(locals *symTab, v il.Value) (llvm.Value, error) {
	switch val := v.(type) {
	case il.Temp:
		if llv, ok := locals.get(val.String()); ok {
			return llv, nil
		}
		return llvm.Value{}, fmt.Errorf("temp %s has no LLVM value yet", val.String())
	case il.ConstInt:
		return llvm.ConstInt(t.ctx.Int64Type(), uint64(val.V), true), nil
	case il.ConstBool:
		n := uint64(0)
		if val.V {
			n = 1
		}
		return llvm.ConstInt(t.ctx.Int1Type(), n, false), nil
	case il.ConstFloat:
		return llvm.ConstFloat(t.ctx.DoubleType(), val.V), nil
	case il.ConstStr:
		name := "@" + val.G.Name
		if llv, ok := t.globals.get(name); ok {
			return llv, nil
		}
		return llvm.Value{}, fmt.Errorf("global %s not declared", name)
	case il.GlobalAddr:
		name := "@" + val.G.Name
		if llv, ok := t.globals.get(name); ok {
			return llv, nil
		}
		return llvm.Value{}, fmt.Errorf("global %s not declared", name)
	case il.NullPtr:
		return llvm.ConstInt(t.ctx.Int64Type(), 0, false), nil
	default:
		return llvm.Value{}, fmt.Errorf("unsupported operand %T", v)
	}
}

// translateInstr emits the LLVM instruction(s) corresponding to in.
func (t *translator) translateInstr(b llvm.Builder, locals *symTab, blocks map[string]llvm.BasicBlock, phis map[string][]llvm.Value, in *il.Instr) error {
	ops := make([]llvm.Value, len(in.Operands))
	for i, o := range in.Operands {
		v, err := t.operand(locals, o)
		if err != nil {
			return err
		}
		ops[i] = v
	}
	bind := func(v llvm.Value) error {
		if in.Dest != nil {
			locals.set(in.Dest.String(), v)
		}
		return nil
	}

	switch in.Op {
	case iltypes.Add:
		return bind(b.CreateAdd(ops[0], ops[1], ""))
	case iltypes.Sub:
		return bind(b.CreateSub(ops[0], ops[1], ""))
	case iltypes.Mul:
		return bind(b.CreateMul(ops[0], ops[1], ""))
	case iltypes.SDiv:
		return bind(b.CreateSDiv(ops[0], ops[1], ""))
	case iltypes.UDiv:
		return bind(b.CreateUDiv(ops[0], ops[1], ""))
	case iltypes.SRem:
		return bind(b.CreateSRem(ops[0], ops[1], ""))
	case iltypes.URem:
		return bind(b.CreateURem(ops[0], ops[1], ""))
	case iltypes.FAdd:
		return bind(b.CreateFAdd(ops[0], ops[1], ""))
	case iltypes.FSub:
		return bind(b.CreateFSub(ops[0], ops[1], ""))
	case iltypes.FMul:
		return bind(b.CreateFMul(ops[0], ops[1], ""))
	case iltypes.FDiv:
		return bind(b.CreateFDiv(ops[0], ops[1], ""))
	case iltypes.And:
		return bind(b.CreateAnd(ops[0], ops[1], ""))
	case iltypes.Or:
		return bind(b.CreateOr(ops[0], ops[1], ""))
	case iltypes.Xor:
		return bind(b.CreateXor(ops[0], ops[1], ""))
	case iltypes.Shl:
		return bind(b.CreateShl(ops[0], ops[1], ""))
	case iltypes.Lshr:
		return bind(b.CreateLShr(ops[0], ops[1], ""))
	case iltypes.Ashr:
		return bind(b.CreateAShr(ops[0], ops[1], ""))
	case iltypes.Not:
		return bind(b.CreateXor(ops[0], llvm.ConstInt(ops[0].Type(), ^uint64(0), false), ""))
	case iltypes.Neg:
		if in.Result.K == iltypes.F64 {
			return bind(b.CreateFNeg(ops[0], ""))
		}
		return bind(b.CreateNeg(ops[0], ""))
	case iltypes.ICmpEq:
		return bind(b.CreateICmp(llvm.IntEQ, ops[0], ops[1], ""))
	case iltypes.ICmpNe:
		return bind(b.CreateICmp(llvm.IntNE, ops[0], ops[1], ""))
	case iltypes.ICmpSlt:
		return bind(b.CreateICmp(llvm.IntSLT, ops[0], ops[1], ""))
	case iltypes.ICmpSle:
		return bind(b.CreateICmp(llvm.IntSLE, ops[0], ops[1], ""))
	case iltypes.ICmpSgt:
		return bind(b.CreateICmp(llvm.IntSGT, ops[0], ops[1], ""))
	case iltypes.ICmpSge:
		return bind(b.CreateICmp(llvm.IntSGE, ops[0], ops[1], ""))
	case iltypes.ICmpUlt:
		return bind(b.CreateICmp(llvm.IntULT, ops[0], ops[1], ""))
	case iltypes.ICmpUle:
		return bind(b.CreateICmp(llvm.IntULE, ops[0], ops[1], ""))
	case iltypes.ICmpUgt:
		return bind(b.CreateICmp(llvm.IntUGT, ops[0], ops[1], ""))
	case iltypes.ICmpUge:
		return bind(b.CreateICmp(llvm.IntUGE, ops[0], ops[1], ""))
	case iltypes.FCmpEq:
		return bind(b.CreateFCmp(llvm.FloatOEQ, ops[0], ops[1], ""))
	case iltypes.FCmpNe:
		return bind(b.CreateFCmp(llvm.FloatONE, ops[0], ops[1], ""))
	case iltypes.FCmpLt:
		return bind(b.CreateFCmp(llvm.FloatOLT, ops[0], ops[1], ""))
	case iltypes.FCmpLe:
		return bind(b.CreateFCmp(llvm.FloatOLE, ops[0], ops[1], ""))
	case iltypes.FCmpGt:
		return bind(b.CreateFCmp(llvm.FloatOGT, ops[0], ops[1], ""))
	case iltypes.FCmpGe:
		return bind(b.CreateFCmp(llvm.FloatOGE, ops[0], ops[1], ""))
	case iltypes.Sext:
		return bind(b.CreateSExt(ops[0], t.llvmType(in.Result), ""))
	case iltypes.Zext:
		return bind(b.CreateZExt(ops[0], t.llvmType(in.Result), ""))
	case iltypes.Trunc:
		return bind(b.CreateTrunc(ops[0], t.llvmType(in.Result), ""))
	case iltypes.SitoFp:
		return bind(b.CreateSIToFP(ops[0], t.llvmType(in.Result), ""))
	case iltypes.FptoSi:
		return bind(b.CreateFPToSI(ops[0], t.llvmType(in.Result), ""))
	case iltypes.Bitcast:
		// Ptr/Str/I64 all share the i64 LLVM representation (see llvmType);
		// a bitcast between them is a no-op translation-side.
		return bind(ops[0])
	case iltypes.Alloca:
		sz, ok := in.Operands[0].(il.ConstInt)
		n := int64(1)
		if ok {
			n = sz.V
		}
		arrTy := llvm.ArrayType(t.ctx.Int64Type(), int(n))
		alloc := b.CreateAlloca(arrTy, "")
		return bind(b.CreatePtrToInt(alloc, t.ctx.Int64Type(), ""))
	case iltypes.Load:
		ptr := b.CreateIntToPtr(ops[0], llvm.PointerType(t.llvmType(in.Result), 0), "")
		return bind(b.CreateLoad(ptr, ""))
	case iltypes.Store:
		ptr := b.CreateIntToPtr(ops[1], llvm.PointerType(ops[0].Type(), 0), "")
		b.CreateStore(ops[0], ptr)
		return nil
	case iltypes.Call, iltypes.CallVoid:
		return t.translateCall(b, locals, in, bind)
	case iltypes.Br:
		args, err := t.resolveArgs(locals, in.Args[0])
		if err != nil {
			return err
		}
		from := b.GetInsertBlock()
		target := in.Targets[0].Label()
		wireIncoming(phis[target], args, from)
		b.CreateBr(blocks[target])
		return nil
	case iltypes.CBr:
		cond, err := t.operand(locals, in.Operands[0])
		if err != nil {
			return err
		}
		tArgs, err := t.resolveArgs(locals, in.Args[0])
		if err != nil {
			return err
		}
		fArgs, err := t.resolveArgs(locals, in.Args[1])
		if err != nil {
			return err
		}
		from := b.GetInsertBlock()
		tName, fName := in.Targets[0].Label(), in.Targets[1].Label()
		wireIncoming(phis[tName], tArgs, from)
		wireIncoming(phis[fName], fArgs, from)
		b.CreateCondBr(cond, blocks[tName], blocks[fName])
		return nil
	case iltypes.Ret:
		if len(in.Operands) == 1 {
			b.CreateRet(ops[0])
		} else {
			b.CreateRetVoid()
		}
		return nil
	case iltypes.Trap:
		b.CreateUnreachable()
		return nil
	default:
		return fmt.Errorf("opcode %s has no LLVM translation", in.Op)
	}
}

// resolveArgs resolves a branch argument vector.
func (t *translator) resolveArgs(locals *symTab, args []il.Value) ([]llvm.Value, error) {
	out := make([]llvm.Value, len(args))
	for i, a := range args {
		v, err := t.operand(locals, a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// wireIncoming records one predecessor's branch arguments against a
// target block's already-created phi nodes (built once per block, up
// front, in translateFunction), in block-parameter order.
func wireIncoming(targetPhis []llvm.Value, args []llvm.Value, from llvm.BasicBlock) {
	for i, phi := range targetPhis {
		if i >= len(args) {
			break
		}
		phi.AddIncoming([]llvm.Value{args[i]}, []llvm.BasicBlock{from})
	}
}

// translateCall emits a call to a module-defined function or a declared
// extern, binding the result (if any) via bind.
func (t *translator) translateCall(b llvm.Builder, locals *symTab, in *il.Instr, bind func(llvm.Value) error) error {
	var name string
	if in.Callee != nil {
		name = in.Callee.Name
	} else {
		name = in.Extern.Name
	}
	callee, ok := t.globals.get("@" + name)
	if !ok {
		return fmt.Errorf("call to undeclared %s", name)
	}
	args := make([]llvm.Value, len(in.Operands))
	for i, o := range in.Operands {
		v, err := t.operand(locals, o)
		if err != nil {
			return err
		}
		args[i] = v
	}
	res := b.CreateCall(callee, args, "")
	if in.Op == iltypes.Call {
		return bind(res)
	}
	return nil
}
