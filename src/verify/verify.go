// Package verify implements basilc's structural verifier: it walks a
// complete il.Module and reports every type, SSA and control-flow
// violation it finds, rather than aborting at the first one (spec.md §4.5),
// since basilc's passes and CLI both want the complete diagnostic set in
// one run.
package verify

import (
	"fmt"

	"basilc/src/il"
	"basilc/src/il/iltypes"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Report is the read-only result of verifying a Module: every Finding
// accumulated during the walk.
type Report struct {
	Findings []Finding
}

// Finding is one structural or type violation located during verification.
type Finding struct {
	Function string
	Block    string
	InstrID  int
	Message  string
}

// ---------------------
// ----- Functions -----
// ---------------------

// OK returns true if the Report contains no findings.
func (r *Report) OK() bool {
	return len(r.Findings) == 0
}

// String renders Finding f as "function/block#id: message".
func (f Finding) String() string {
	return fmt.Sprintf("%s/%s#%d: %s", f.Function, f.Block, f.InstrID, f.Message)
}

// Module verifies every function in m and returns the accumulated Report.
func Module(m *il.Module) *Report {
	r := &Report{}
	names := make(map[string]bool)
	for _, e := range m.Externs {
		if names[e.Name] {
			r.add("", "", 0, fmt.Sprintf("duplicate top-level name %q", e.Name))
		}
		names[e.Name] = true
	}
	for _, g := range m.Globals {
		if names[g.Name] {
			r.add("", "", 0, fmt.Sprintf("duplicate top-level name %q", g.Name))
		}
		names[g.Name] = true
	}
	for _, f := range m.Functions {
		if names[f.Name] {
			r.add(f.Name, "", 0, fmt.Sprintf("duplicate top-level name %q", f.Name))
		}
		names[f.Name] = true
		verifyFunction(r, f)
	}
	return r
}

// add appends a Finding to r.
func (r *Report) add(fn, block string, id int, format string, args ...interface{}) {
	r.Findings = append(r.Findings, Finding{Function: fn, Block: block, InstrID: id, Message: fmt.Sprintf(format, args...)})
}

// tempDef records where a Temp id is defined: the owning block, and its
// position within that block's instruction list (-1 for a function or
// block parameter, which is live before the block's first instruction).
type tempDef struct {
	block *il.Block
	pos   int
}

// verifyFunction checks one function's blocks. SSA definitions are
// gathered over the whole function before any use is checked, so
// "redefined" and "dominates all uses" (spec.md §4.5 item 2) do not
// depend on Function.Blocks' iteration order.
func verifyFunction(r *Report, f *il.Function) {
	if len(f.Blocks) == 0 {
		r.add(f.Name, "", 0, "function has no blocks")
		return
	}
	if len(f.Entry().Params) != 0 {
		r.add(f.Name, f.Entry().Label(), 0, "entry block must not declare parameters")
	}

	defs := make(map[int]tempDef)
	for i := range f.Params {
		// Parameter i is implicitly bound to Temp{ID: i} at entry, per
		// il.Builder.DeclareFunction.
		defs[i] = tempDef{block: f.Entry(), pos: -1}
	}
	for _, b := range f.Blocks {
		for _, p := range b.Params {
			if _, dup := defs[p.Temp.ID]; dup {
				r.add(f.Name, b.Label(), p.Temp.ID, "temp %s redefined by a block parameter", p.Temp.String())
				continue
			}
			defs[p.Temp.ID] = tempDef{block: b, pos: -1}
		}
	}
	for _, b := range f.Blocks {
		for pos, in := range b.Instrs {
			if in.Dest == nil {
				continue
			}
			if _, dup := defs[in.Dest.ID]; dup {
				r.add(f.Name, b.Label(), in.ID, "temp %s defined more than once", in.Dest.String())
				continue
			}
			defs[in.Dest.ID] = tempDef{block: b, pos: pos}
		}
	}

	idom := computeDominators(f)
	for _, b := range f.Blocks {
		verifyBlock(r, f, b, defs, idom)
	}
}

// verifyBlock checks that b's instructions are well-typed, that exactly
// one terminator ends the block as its last instruction, and that every
// branch target's argument vector matches the target's parameter arity
// and types.
func verifyBlock(r *Report, f *il.Function, b *il.Block, defs map[int]tempDef, idom map[*il.Block]*il.Block) {
	if len(b.Instrs) == 0 {
		r.add(f.Name, b.Label(), 0, "block has no instructions")
		return
	}
	for i, in := range b.Instrs {
		isLast := i == len(b.Instrs)-1
		if in.IsTerminator() && !isLast {
			r.add(f.Name, b.Label(), in.ID, "terminator %s is not the last instruction in its block", in.Op)
		}
		if !in.IsTerminator() && isLast {
			r.add(f.Name, b.Label(), in.ID, "block does not end in a terminator")
		}
		verifyInstr(r, f, b, i, in, defs, idom)
	}
}

// checkUse reports a Finding against in if v is a Temp whose definition is
// missing, or whose single definition does not dominate this use (spec.md
// §4.5 item 2): either a different block that the def's block does not
// dominate, or the same block at or before the def's own position.
func checkUse(r *Report, f *il.Function, b *il.Block, pos int, in *il.Instr, defs map[int]tempDef, idom map[*il.Block]*il.Block, v il.Value) {
	t, ok := v.(il.Temp)
	if !ok {
		return
	}
	def, known := defs[t.ID]
	if !known {
		r.add(f.Name, b.Label(), in.ID, "use of undefined temp %s", t.String())
		return
	}
	dominates := false
	switch {
	case def.block == b:
		dominates = def.pos < pos
	default:
		dominates = blockDominates(idom, def.block, b)
	}
	if !dominates {
		r.add(f.Name, b.Label(), in.ID, "temp %s defined in %s does not dominate this use", t.String(), def.block.Label())
	}
}

// verifyInstr checks operand categories against the opcode table and, for
// terminators, checks branch-target argument agreement.
func verifyInstr(r *Report, f *il.Function, b *il.Block, pos int, in *il.Instr, defs map[int]tempDef, idom map[*il.Block]*il.Block) {
	info := iltypes.Info(in.Op)
	for _, op := range in.Operands {
		checkUse(r, f, b, pos, in, defs, idom, op)
	}
	for _, args := range in.Args {
		for _, a := range args {
			checkUse(r, f, b, pos, in, defs, idom, a)
		}
	}
	if !info.VariableArity {
		if len(in.Operands) != len(info.OperandCats) {
			r.add(f.Name, b.Label(), in.ID, "%s expects %d operands, got %d", in.Op, len(info.OperandCats), len(in.Operands))
		} else {
			for i, want := range info.OperandCats {
				if got := in.Operands[i].Type(); !want.Matches(got) {
					r.add(f.Name, b.Label(), in.ID, "%s operand %d: expected %s, got %s", in.Op, i, want.String(), got.String())
				}
			}
		}
	}

	switch in.Op {
	// A literal-zero divisor (SDiv/UDiv/SRem/URem) is a legal program that
	// must trap at run time; it is never flagged here.
	case iltypes.Br:
		checkBranchArgs(r, f, b, in, 0)
	case iltypes.CBr:
		if in.Operands[0].Type().K != iltypes.I1 {
			r.add(f.Name, b.Label(), in.ID, "cbr condition must be i1, got %s", in.Operands[0].Type().String())
		}
		checkBranchArgs(r, f, b, in, 0)
		checkBranchArgs(r, f, b, in, 1)
	case iltypes.Ret:
		want := f.RetType
		switch {
		case want.K == iltypes.Void && len(in.Operands) != 0:
			r.add(f.Name, b.Label(), in.ID, "ret in void function must not return a value")
		case want.K != iltypes.Void && len(in.Operands) == 0:
			r.add(f.Name, b.Label(), in.ID, "ret must return a %s value", want.String())
		case len(in.Operands) == 1 && !in.Operands[0].Type().Equal(want):
			r.add(f.Name, b.Label(), in.ID, "ret type mismatch: expected %s, got %s", want.String(), in.Operands[0].Type().String())
		}
	case iltypes.Call, iltypes.CallVoid:
		verifyCall(r, f, b, in)
	}
}

// checkBranchArgs checks that in.Args[targetIdx] matches in.Targets[targetIdx]'s
// declared parameter arity and types.
func checkBranchArgs(r *Report, f *il.Function, b *il.Block, in *il.Instr, targetIdx int) {
	target := in.Targets[targetIdx]
	args := in.Args[targetIdx]
	if len(args) != len(target.Params) {
		r.add(f.Name, b.Label(), in.ID, "branch to %s passes %d arguments, expects %d", target.Label(), len(args), len(target.Params))
		return
	}
	for i, want := range target.Params {
		if got := args[i].Type(); !got.Equal(want.Temp.Typ) {
			r.add(f.Name, b.Label(), in.ID, "branch to %s argument %d: expected %s, got %s", target.Label(), i, want.Temp.Typ.String(), got.String())
		}
	}
}

// verifyCall checks a call/callvoid's argument count and types against its
// callee or extern signature, and its result category against the
// instruction's declared Result (for call) or void (for callvoid).
func verifyCall(r *Report, f *il.Function, b *il.Block, in *il.Instr) {
	var params []iltypes.Type
	var result iltypes.Type
	var name string
	switch {
	case in.Callee != nil:
		params, result, name = in.Callee.ParamTypes(), in.Callee.RetType, in.Callee.Name
	case in.Extern != nil:
		params, result, name = in.Extern.ParamTypes, in.Extern.ResultType, in.Extern.Name
	default:
		r.add(f.Name, b.Label(), in.ID, "%s has neither a callee nor an extern target", in.Op)
		return
	}
	if len(in.Operands) != len(params) {
		r.add(f.Name, b.Label(), in.ID, "call to %s passes %d arguments, expects %d", name, len(in.Operands), len(params))
	} else {
		for i, want := range params {
			if got := in.Operands[i].Type(); !got.Equal(want) {
				r.add(f.Name, b.Label(), in.ID, "call to %s argument %d: expected %s, got %s", name, i, want.String(), got.String())
			}
		}
	}
	if in.Op == iltypes.Call && !in.Result.Equal(result) {
		r.add(f.Name, b.Label(), in.ID, "call to %s result type mismatch: expected %s, got %s", name, result.String(), in.Result.String())
	}
	if in.Op == iltypes.CallVoid && result.K != iltypes.Void {
		r.add(f.Name, b.Label(), in.ID, "callvoid discards the non-void result of %s", name)
	}
}
