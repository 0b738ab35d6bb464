package pass

import (
	"basilc/src/il"
	"basilc/src/il/iltypes"
)

// Peephole applies local, single-instruction-window rewrites that constfold
// cannot reach because one operand is a temp rather than a constant: the
// usual algebraic identities (x+0, x-0, x-x, x*1, x*0, x^0, not (not x),
// trunc of sext/zext) plus terminator-collapsing rewrites (cbr c, L, L -> br L; chains of
// unconditional branches).
func Peephole(m *il.Module) Stats {
	var total Stats
	for _, f := range m.Functions {
		total.Add(peepholeFunc(f))
	}
	return total
}

func peepholeFunc(f *il.Function) Stats {
	var stats Stats
	defs := defMap(f)
	for _, b := range f.Blocks {
		kept := make([]*il.Instr, 0, len(b.Instrs))
		for _, in := range b.Instrs {
			if val, ok := peepholeValue(in, defs); ok {
				substituteTemp(f, *in.Dest, val)
				stats.PeepholeRewrites++
				continue
			}
			kept = append(kept, in)
		}
		b.Instrs = kept
	}
	for _, b := range f.Blocks {
		stats.Add(simplifyTerminator(b))
	}
	stats.Add(collapseBranchChains(f))
	return stats
}

// defMap indexes f's instructions by the temp id they define, so that a
// peephole rewrite can look one instruction further back than its own
// operand list (double-not elimination, redundant sext/trunc pairs).
func defMap(f *il.Function) map[int]*il.Instr {
	defs := make(map[int]*il.Instr)
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if in.Dest != nil {
				defs[in.Dest.ID] = in
			}
		}
	}
	return defs
}

// peepholeValue attempts to rewrite in into a reference to one of its own
// operands (or a fresh zero constant), returning the replacement and true
// if a rewrite applies.
func peepholeValue(in *il.Instr, defs map[int]*il.Instr) (il.Value, bool) {
	if in.Dest == nil || len(in.Operands) == 0 {
		return nil, false
	}
	switch in.Op {
	case iltypes.Add:
		if isZero(in.Operands[1]) {
			return in.Operands[0], true
		}
		if isZero(in.Operands[0]) {
			return in.Operands[1], true
		}
	case iltypes.Sub:
		if isZero(in.Operands[1]) {
			return in.Operands[0], true
		}
		if sameTemp(in.Operands[0], in.Operands[1]) {
			return il.ConstInt{V: 0}, true
		}
	case iltypes.Mul:
		if isOne(in.Operands[1]) {
			return in.Operands[0], true
		}
		if isOne(in.Operands[0]) {
			return in.Operands[1], true
		}
		if isZero(in.Operands[0]) || isZero(in.Operands[1]) {
			return il.ConstInt{V: 0}, true
		}
	case iltypes.FAdd:
		if isFZero(in.Operands[1]) {
			return in.Operands[0], true
		}
	case iltypes.FSub:
		if isFZero(in.Operands[1]) {
			return in.Operands[0], true
		}
	case iltypes.FMul:
		if isFOne(in.Operands[1]) {
			return in.Operands[0], true
		}
		if isFOne(in.Operands[0]) {
			return in.Operands[1], true
		}
	case iltypes.Xor:
		if isZero(in.Operands[1]) {
			return in.Operands[0], true
		}
	case iltypes.Not:
		if src, ok := producerOperand(in.Operands[0], iltypes.Not, defs); ok {
			return src, true
		}
	case iltypes.Trunc:
		if src, ok := producerOperand(in.Operands[0], iltypes.Sext, defs); ok {
			return src, true
		}
		if src, ok := producerOperand(in.Operands[0], iltypes.Zext, defs); ok {
			return src, true
		}
	}
	return nil, false
}

// producerOperand returns v's producing instruction's sole operand if that
// instruction has opcode op, e.g. unwrapping "not (not x)" to "x" or
// "trunc (sext x)" to "x" (valid only because both conversions here are
// i1<->i64 and truncation of a sign/zero-extended i1 always recovers it).
func producerOperand(v il.Value, op iltypes.Opcode, defs map[int]*il.Instr) (il.Value, bool) {
	t, ok := v.(il.Temp)
	if !ok {
		return nil, false
	}
	def, ok := defs[t.ID]
	if !ok || def.Op != op || len(def.Operands) != 1 {
		return nil, false
	}
	return def.Operands[0], true
}

func isZero(v il.Value) bool {
	c, ok := v.(il.ConstInt)
	return ok && c.V == 0
}

func isOne(v il.Value) bool {
	c, ok := v.(il.ConstInt)
	return ok && c.V == 1
}

func isFZero(v il.Value) bool {
	c, ok := v.(il.ConstFloat)
	return ok && c.V == 0
}

func isFOne(v il.Value) bool {
	c, ok := v.(il.ConstFloat)
	return ok && c.V == 1
}

func sameTemp(a, b il.Value) bool {
	at, aok := a.(il.Temp)
	bt, bok := b.(il.Temp)
	return aok && bok && at.ID == bt.ID
}

// simplifyTerminator rewrites "cbr c, L, L" (both targets identical with
// identical argument vectors) into "br L".
func simplifyTerminator(b *il.Block) Stats {
	var stats Stats
	term := b.Terminator()
	if term == nil || term.Op != iltypes.CBr {
		return stats
	}
	if term.Targets[0] != term.Targets[1] {
		return stats
	}
	if !argsEqual(term.Args[0], term.Args[1]) {
		return stats
	}
	term.Op = iltypes.Br
	term.Operands = nil
	term.Targets = term.Targets[:1]
	term.Args = term.Args[:1]
	stats.PeepholeRewrites++
	return stats
}

func argsEqual(a, b []il.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// collapseBranchChains replaces "br L1" where L1 is itself a single
// parameterless "br L2" with a direct "br L2", repeating until no target is
// itself a trivial forwarding block. Unreachable forwarding blocks are left
// for dce to remove.
func collapseBranchChains(f *il.Function) Stats {
	var stats Stats
	forward := func(b *il.Block) (*il.Block, bool) {
		if len(b.Instrs) != 1 || len(b.Params) != 0 {
			return nil, false
		}
		in := b.Instrs[0]
		if in.Op != iltypes.Br || len(in.Args[0]) != 0 {
			return nil, false
		}
		return in.Targets[0], true
	}
	for _, b := range f.Blocks {
		term := b.Terminator()
		if term == nil || term.Op != iltypes.Br {
			continue
		}
		target := term.Targets[0]
		for {
			next, ok := forward(target)
			if !ok || next == target || next == b {
				break
			}
			target = next
		}
		if target != term.Targets[0] {
			term.Targets[0] = target
			stats.PeepholeRewrites++
		}
	}
	return stats
}
