package pass

import (
	"basilc/src/il"
	"basilc/src/il/iltypes"
)

// Mem2Reg promotes entry-block allocas used only by load/store into pure
// SSA values, threading the live value through block parameters at merge
// points instead of memory (spec.md §4.6): a dependency-graph walk over
// each alloca's loads/stores tracks which store is the live reaching
// definition at each point in the block, the same per-block bookkeeping a
// liveness/interference pass over a register file would need, adapted
// here to memory-to-register promotion rather than register allocation.
//
// Mem2Reg assumes a reducible CFG produced by structured lowering (no
// gotos into the middle of a loop): every predecessor of a block that is
// not a loop back-edge must already have been visited, i.e. must occur
// earlier in Function.Blocks. This holds for everything src/frontend
// lowers, since blocks are created in program order, but is not a general
// SSA-construction algorithm for arbitrary irreducible input.
func Mem2Reg(m *il.Module) Stats {
	var total Stats
	for _, f := range m.Functions {
		total.Add(mem2regFunc(f))
	}
	return total
}

// mem2regFunc promotes every eligible alloca in f.
func mem2regFunc(f *il.Function) Stats {
	var total Stats
	if len(f.Blocks) == 0 {
		return total
	}
	preds := predecessors(f)
	entry := f.Entry()

	// Candidates: entry-block allocas used only as the ptr operand of load
	// or store, with at least one store (otherwise there is no value to
	// propagate and the alloca is left alone).
	for _, in := range append([]*il.Instr(nil), entry.Instrs...) {
		if in.Op != iltypes.Alloca {
			continue
		}
		elemType, ok := promotable(f, in)
		if !ok {
			continue
		}
		total.Add(promoteAlloca(f, in, elemType, preds))
	}
	return total
}

// promotable reports whether alloca is used only by load/store (never
// passed to a call, stored as a value, or otherwise escaped), and returns
// the single element type every store agrees on.
func promotable(f *il.Function, alloca *il.Instr) (iltypes.Type, bool) {
	var elemType iltypes.Type
	seenStore := false
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			for oi, op := range in.Operands {
				t, ok := op.(il.Temp)
				if !ok || alloca.Dest == nil || t.ID != alloca.Dest.ID {
					continue
				}
				switch {
				case in.Op == iltypes.Load && oi == 0:
					// Fine; handled during rewriting.
				case in.Op == iltypes.Store && oi == 1:
					val := in.Operands[0].Type()
					if seenStore && !val.Equal(elemType) {
						return iltypes.Type{}, false
					}
					elemType = val
					seenStore = true
				default:
					return iltypes.Type{}, false // Escapes through some other instruction.
				}
			}
		}
	}
	return elemType, seenStore
}

// promoteAlloca rewrites every load/store of alloca into direct SSA value
// flow and removes the alloca itself.
func promoteAlloca(f *il.Function, alloca *il.Instr, elemType iltypes.Type, preds map[*il.Block][]*il.Block) Stats {
	var stats Stats
	stats.AllocasPromoted = 1

	needsParam := make(map[*il.Block]bool)
	for _, b := range f.Blocks {
		if b != f.Entry() && len(preds[b]) > 1 {
			needsParam[b] = true
		}
	}

	outVal := make(map[*il.Block]il.Value)
	paramVal := make(map[*il.Block]il.Value)

	zero := zeroValue(elemType)
	for _, b := range f.Blocks {
		var cur il.Value
		switch {
		case b == f.Entry():
			cur = zero
		case needsParam[b]:
			t := newParamFor(f, b, elemType)
			cur = t
			paramVal[b] = t
		default:
			if len(preds[b]) == 0 {
				cur = zero // Unreachable block; give it a harmless default.
			} else {
				cur = outVal[preds[b][0]]
			}
		}

		kept := rewriteBlockInstrs(b.Instrs, alloca, cur, &stats)
		b.Instrs = kept.instrs
		outVal[b] = kept.final
	}

	for _, b := range f.Blocks {
		term := b.Terminator()
		if term == nil {
			continue
		}
		for i, target := range term.Targets {
			if needsParam[target] {
				term.Args[i] = append(term.Args[i], outVal[b])
			}
		}
	}
	return stats
}

// keepResult carries the rewritten instruction list and the alloca's live
// value at the end of the block.
type keepResult struct {
	instrs []*il.Instr
	final  il.Value
}

// rewriteBlockInstrs walks a block's instructions, substituting loads of
// alloca for the current live value and removing load/store of alloca
// entirely; cur is the value live at block entry.
func rewriteBlockInstrs(instrs []*il.Instr, alloca *il.Instr, cur il.Value, stats *Stats) keepResult {
	out := make([]*il.Instr, 0, len(instrs))
	for _, in := range instrs {
		if in == alloca {
			continue // Drop the alloca itself.
		}
		if in.Op == iltypes.Load && isRef(in.Operands[0], alloca) {
			replaceUses(instrs, *in.Dest, cur)
			stats.LoadsEliminated++
			continue
		}
		if in.Op == iltypes.Store && isRef(in.Operands[1], alloca) {
			cur = in.Operands[0]
			stats.StoresEliminated++
			continue
		}
		out = append(out, in)
	}
	return keepResult{instrs: out, final: cur}
}

// isRef reports whether v is a Temp referring to alloca's result.
func isRef(v il.Value, alloca *il.Instr) bool {
	t, ok := v.(il.Temp)
	return ok && alloca.Dest != nil && t.ID == alloca.Dest.ID
}

// replaceUses substitutes every operand referencing dest with val across
// instrs. Since this runs before the dead load is dropped from the block's
// slice, later instructions in the same walk still see the old slice and
// must be patched in place.
func replaceUses(instrs []*il.Instr, dest il.Temp, val il.Value) {
	for _, in := range instrs {
		for i, op := range in.Operands {
			if t, ok := op.(il.Temp); ok && t.ID == dest.ID {
				in.Operands[i] = val
			}
		}
		for _, args := range in.Args {
			for i, a := range args {
				if t, ok := a.(il.Temp); ok && t.ID == dest.ID {
					args[i] = val
				}
			}
		}
	}
}

// newParamFor adds a fresh block parameter of type elemType to b and
// returns the Temp bound to it.
func newParamFor(f *il.Function, b *il.Block, elemType iltypes.Type) il.Temp {
	t := il.Temp{ID: f.AllocTempID(), Typ: elemType}
	b.Params = append(b.Params, &il.Param{Temp: t, Name: ""})
	return t
}

// zeroValue returns the zero constant of t, matching the VM's
// zero-initialized alloca memory (spec.md §4.7).
func zeroValue(t iltypes.Type) il.Value {
	switch t.K {
	case iltypes.F64:
		return il.ConstFloat{V: 0}
	case iltypes.Ptr:
		return il.NullPtr{}
	case iltypes.I1:
		return il.ConstBool{V: false}
	default:
		return il.ConstInt{V: 0}
	}
}

// predecessors computes, for every block in f, the set of blocks whose
// terminator targets it, in Function.Blocks order.
func predecessors(f *il.Function) map[*il.Block][]*il.Block {
	preds := make(map[*il.Block][]*il.Block, len(f.Blocks))
	for _, b := range f.Blocks {
		term := b.Terminator()
		if term == nil {
			continue
		}
		for _, target := range term.Targets {
			preds[target] = append(preds[target], b)
		}
	}
	return preds
}
