package pass

import (
	"basilc/src/il"
	"basilc/src/il/iltypes"
)

// ConstFold folds instructions whose operands are all compile-time
// constants into a single constant, replacing every use of the result.
//
// ConstFold never folds integer division, remainder, or any operation
// whose constant operands would trap at run time (division/remainder by
// zero): the instruction must survive so the VM's trap semantics still
// fire (spec.md §4.6, §8 property 6).
func ConstFold(m *il.Module) Stats {
	var total Stats
	for _, f := range m.Functions {
		total.Add(constFoldFunc(f))
	}
	return total
}

func constFoldFunc(f *il.Function) Stats {
	var stats Stats
	for _, b := range f.Blocks {
		kept := make([]*il.Instr, 0, len(b.Instrs))
		for _, in := range b.Instrs {
			if folded, ok := foldInstr(in); ok {
				substituteTemp(f, *in.Dest, folded)
				stats.ConstantsFolded++
				continue
			}
			kept = append(kept, in)
		}
		b.Instrs = kept
	}
	return stats
}

// foldInstr attempts to reduce in to a single constant Value.
func foldInstr(in *il.Instr) (il.Value, bool) {
	if in.Dest == nil || len(in.Operands) == 0 {
		return nil, false
	}
	for _, op := range in.Operands {
		if !op.IsConst() {
			return nil, false
		}
	}
	switch in.Op {
	case iltypes.Add, iltypes.Sub, iltypes.Mul, iltypes.And, iltypes.Or, iltypes.Xor,
		iltypes.Shl, iltypes.Lshr, iltypes.Ashr:
		l, lok := in.Operands[0].(il.ConstInt)
		r, rok := in.Operands[1].(il.ConstInt)
		if !lok || !rok {
			return nil, false
		}
		return foldIntBinary(in.Op, l.V, r.V), true
	case iltypes.SDiv, iltypes.UDiv, iltypes.SRem, iltypes.URem:
		r, rok := in.Operands[1].(il.ConstInt)
		if !rok || r.V == 0 {
			return nil, false // Never fold a trapping operation.
		}
		l, lok := in.Operands[0].(il.ConstInt)
		if !lok {
			return nil, false
		}
		if (in.Op == iltypes.SDiv || in.Op == iltypes.SRem) && l.V == minInt64 && r.V == -1 {
			return nil, false // INT64_MIN / -1 traps; preserve it.
		}
		return foldIntBinary(in.Op, l.V, r.V), true
	case iltypes.FAdd, iltypes.FSub, iltypes.FMul, iltypes.FDiv:
		l, lok := in.Operands[0].(il.ConstFloat)
		r, rok := in.Operands[1].(il.ConstFloat)
		if !lok || !rok {
			return nil, false
		}
		return foldFloatBinary(in.Op, l.V, r.V), true
	case iltypes.Not:
		v, ok := in.Operands[0].(il.ConstInt)
		if !ok {
			return nil, false
		}
		return il.ConstInt{V: ^v.V}, true
	case iltypes.Neg:
		switch v := in.Operands[0].(type) {
		case il.ConstInt:
			return il.ConstInt{V: -v.V}, true
		case il.ConstFloat:
			return il.ConstFloat{V: -v.V}, true
		}
		return nil, false
	case iltypes.ICmpEq, iltypes.ICmpNe, iltypes.ICmpSlt, iltypes.ICmpSle, iltypes.ICmpSgt,
		iltypes.ICmpSge, iltypes.ICmpUlt, iltypes.ICmpUle, iltypes.ICmpUgt, iltypes.ICmpUge:
		l, lok := in.Operands[0].(il.ConstInt)
		r, rok := in.Operands[1].(il.ConstInt)
		if !lok || !rok {
			return nil, false
		}
		return foldICmp(in.Op, l.V, r.V), true
	case iltypes.SitoFp:
		v, ok := in.Operands[0].(il.ConstInt)
		if !ok {
			return nil, false
		}
		return il.ConstFloat{V: float64(v.V)}, true
	}
	return nil, false
}

const minInt64 = -1 << 63

func foldIntBinary(op iltypes.Opcode, l, r int64) il.Value {
	switch op {
	case iltypes.Add:
		return il.ConstInt{V: l + r}
	case iltypes.Sub:
		return il.ConstInt{V: l - r}
	case iltypes.Mul:
		return il.ConstInt{V: l * r}
	case iltypes.SDiv:
		return il.ConstInt{V: l / r}
	case iltypes.UDiv:
		return il.ConstInt{V: int64(uint64(l) / uint64(r))}
	case iltypes.SRem:
		return il.ConstInt{V: l % r}
	case iltypes.URem:
		return il.ConstInt{V: int64(uint64(l) % uint64(r))}
	case iltypes.And:
		return il.ConstInt{V: l & r}
	case iltypes.Or:
		return il.ConstInt{V: l | r}
	case iltypes.Xor:
		return il.ConstInt{V: l ^ r}
	case iltypes.Shl:
		return il.ConstInt{V: l << uint64(r)}
	case iltypes.Lshr:
		return il.ConstInt{V: int64(uint64(l) >> uint64(r))}
	case iltypes.Ashr:
		return il.ConstInt{V: l >> uint64(r)}
	}
	panic("pass: foldIntBinary: unhandled opcode " + op.String())
}

func foldFloatBinary(op iltypes.Opcode, l, r float64) il.Value {
	switch op {
	case iltypes.FAdd:
		return il.ConstFloat{V: l + r}
	case iltypes.FSub:
		return il.ConstFloat{V: l - r}
	case iltypes.FMul:
		return il.ConstFloat{V: l * r}
	case iltypes.FDiv:
		return il.ConstFloat{V: l / r}
	}
	panic("pass: foldFloatBinary: unhandled opcode " + op.String())
}

func foldICmp(op iltypes.Opcode, l, r int64) il.Value {
	switch op {
	case iltypes.ICmpEq:
		return il.ConstBool{V: l == r}
	case iltypes.ICmpNe:
		return il.ConstBool{V: l != r}
	case iltypes.ICmpSlt:
		return il.ConstBool{V: l < r}
	case iltypes.ICmpSle:
		return il.ConstBool{V: l <= r}
	case iltypes.ICmpSgt:
		return il.ConstBool{V: l > r}
	case iltypes.ICmpSge:
		return il.ConstBool{V: l >= r}
	case iltypes.ICmpUlt:
		return il.ConstBool{V: uint64(l) < uint64(r)}
	case iltypes.ICmpUle:
		return il.ConstBool{V: uint64(l) <= uint64(r)}
	case iltypes.ICmpUgt:
		return il.ConstBool{V: uint64(l) > uint64(r)}
	case iltypes.ICmpUge:
		return il.ConstBool{V: uint64(l) >= uint64(r)}
	}
	panic("pass: foldICmp: unhandled opcode " + op.String())
}

// substituteTemp replaces every use of dest across f with val.
func substituteTemp(f *il.Function, dest il.Temp, val il.Value) {
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
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
}
