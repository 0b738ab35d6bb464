package pass

import "basilc/src/il"

// SimplifyCFG canonicalizes block parameter lists left behind by Mem2Reg
// and folds trivially-redundant control flow: a block parameter that
// receives the exact same value on every incoming edge is replaced by that
// value and dropped, and a block whose single predecessor ends in an
// unconditional branch to it is merged into that predecessor. Both
// rewrites splice the parameter, argument and block slices in place as
// they go, stepping an index back (or restarting the scan) after each
// removal.
func SimplifyCFG(m *il.Module) Stats {
	var total Stats
	for _, f := range m.Functions {
		total.Add(canonicalizeParams(f))
		total.Add(mergeTrivialBlocks(f))
	}
	return total
}

// canonicalizeParams removes any block parameter whose incoming argument
// is identical across every predecessor edge, substituting that value (a
// constant or a temp) for every use of the parameter.
func canonicalizeParams(f *il.Function) Stats {
	var stats Stats
	preds := predecessors(f)
	changed := true
	for changed {
		changed = false
		for _, b := range f.Blocks {
			ps := preds[b]
			if len(ps) == 0 {
				continue
			}
			for pi := 0; pi < len(b.Params); pi++ {
				param := b.Params[pi]
				uniform, ok := uniformArg(ps, b, pi)
				if !ok {
					continue
				}
				substituteParam(f, param.Temp, uniform)
				removeParamAt(b, ps, pi)
				stats.ParamsCanonicized++
				changed = true
				pi--
			}
		}
	}
	return stats
}

// uniformArg returns the single value every predecessor in ps passes to
// b's parameter at index pi, and true if they all agree.
func uniformArg(ps []*il.Block, b *il.Block, pi int) (il.Value, bool) {
	var v il.Value
	for i, p := range ps {
		term := p.Terminator()
		argIdx := -1
		for ti, t := range term.Targets {
			if t == b {
				argIdx = ti
				break
			}
		}
		if argIdx < 0 || pi >= len(term.Args[argIdx]) {
			return nil, false
		}
		a := term.Args[argIdx][pi]
		if i == 0 {
			v = a
			continue
		}
		if !valuesEqual(v, a) {
			return nil, false
		}
	}
	return v, true
}

// valuesEqual reports structural equality of two constant/Temp Values,
// sufficient to detect "every predecessor passes the same thing".
func valuesEqual(a, b il.Value) bool {
	switch av := a.(type) {
	case il.Temp:
		bv, ok := b.(il.Temp)
		return ok && av.ID == bv.ID
	case il.ConstInt:
		bv, ok := b.(il.ConstInt)
		return ok && av.V == bv.V
	case il.ConstBool:
		bv, ok := b.(il.ConstBool)
		return ok && av.V == bv.V
	case il.ConstFloat:
		bv, ok := b.(il.ConstFloat)
		return ok && av.V == bv.V
	case il.NullPtr:
		_, ok := b.(il.NullPtr)
		return ok
	case il.GlobalAddr:
		bv, ok := b.(il.GlobalAddr)
		return ok && av.G == bv.G
	case il.ConstStr:
		bv, ok := b.(il.ConstStr)
		return ok && av.G == bv.G
	default:
		return false
	}
}

// substituteParam replaces every use of param across f with val.
func substituteParam(f *il.Function, param il.Temp, val il.Value) {
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			for i, op := range in.Operands {
				if t, ok := op.(il.Temp); ok && t.ID == param.ID {
					in.Operands[i] = val
				}
			}
			for _, args := range in.Args {
				for i, a := range args {
					if t, ok := a.(il.Temp); ok && t.ID == param.ID {
						args[i] = val
					}
				}
			}
		}
	}
}

// removeParamAt drops b's parameter at pi and the corresponding argument
// slot from every predecessor edge feeding b.
func removeParamAt(b *il.Block, preds []*il.Block, pi int) {
	b.Params = append(b.Params[:pi], b.Params[pi+1:]...)
	for _, p := range preds {
		term := p.Terminator()
		for ti, t := range term.Targets {
			if t == b {
				term.Args[ti] = append(term.Args[ti][:pi], term.Args[ti][pi+1:]...)
			}
		}
	}
}

// mergeTrivialBlocks folds a block with exactly one predecessor, whose
// predecessor ends in an unconditional branch solely to it, into that
// predecessor.
func mergeTrivialBlocks(f *il.Function) Stats {
	var stats Stats
	changed := true
	for changed {
		changed = false
		preds := predecessors(f)
		for i := 0; i < len(f.Blocks); i++ {
			b := f.Blocks[i]
			if b == f.Entry() {
				continue
			}
			ps := preds[b]
			if len(ps) != 1 || len(b.Params) != 0 {
				continue
			}
			p := ps[0]
			term := p.Terminator()
			if term == nil || len(term.Targets) != 1 {
				continue // Only unconditional br is safe to merge through.
			}
			// Drop p's branch terminator and splice b's instructions in.
			p.Instrs = p.Instrs[:len(p.Instrs)-1]
			p.Instrs = append(p.Instrs, b.Instrs...)
			il.Reparent(b.Instrs, p)
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			i--
			stats.InstrsRemoved++
			changed = true
			break
		}
	}
	return stats
}
