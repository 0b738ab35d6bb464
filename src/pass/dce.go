package pass

import "basilc/src/il"

// DCE removes instructions with no side effects whose result is unused and
// drops unreachable blocks: mark what is reachable and used, then rebuild
// the instruction/block slices from what's left.
func DCE(m *il.Module) Stats {
	var total Stats
	for _, f := range m.Functions {
		total.Add(dceFunc(f))
	}
	return total
}

func dceFunc(f *il.Function) Stats {
	var stats Stats
	stats.Add(removeUnreachableBlocks(f))
	stats.Add(removeDeadInstrs(f))
	return stats
}

// removeUnreachableBlocks drops every block not reachable from the entry
// block by a forward walk of Successors, along with the branch arguments
// any surviving predecessor supplied to them.
func removeUnreachableBlocks(f *il.Function) Stats {
	var stats Stats
	entry := f.Entry()
	if entry == nil {
		return stats
	}
	reachable := map[*il.Block]bool{entry: true}
	work := []*il.Block{entry}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range b.Successors() {
			if !reachable[s] {
				reachable[s] = true
				work = append(work, s)
			}
		}
	}
	kept := make([]*il.Block, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		if reachable[b] {
			kept = append(kept, b)
			continue
		}
		stats.InstrsRemoved += len(b.Instrs)
	}
	f.Blocks = kept
	return stats
}

// removeDeadInstrs removes every non-side-effecting instruction whose
// result is never referenced, iterating to a fixed point because removing
// one dead instruction can make its own operand's only remaining use
// disappear.
func removeDeadInstrs(f *il.Function) Stats {
	var stats Stats
	changed := true
	for changed {
		changed = false
		used := usedTemps(f)
		for _, b := range f.Blocks {
			kept := make([]*il.Instr, 0, len(b.Instrs))
			for _, in := range b.Instrs {
				if in.Dest != nil && !in.HasSideEffect() && !used[in.Dest.ID] {
					stats.InstrsRemoved++
					changed = true
					continue
				}
				kept = append(kept, in)
			}
			b.Instrs = kept
		}
	}
	return stats
}

// usedTemps collects every temp id referenced as an operand or branch
// argument anywhere in f.
func usedTemps(f *il.Function) map[int]bool {
	used := make(map[int]bool)
	mark := func(v il.Value) {
		if t, ok := v.(il.Temp); ok {
			used[t.ID] = true
		}
	}
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			for _, op := range in.Operands {
				mark(op)
			}
			for _, args := range in.Args {
				for _, a := range args {
					mark(a)
				}
			}
		}
	}
	return used
}
