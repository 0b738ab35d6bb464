package verify

import "basilc/src/il"

// ---------------------
// ----- Functions -----
// ---------------------

// computeDominators returns, for every block in f reachable from the entry
// block, its immediate dominator (the entry block maps to itself).
// Unreachable blocks are omitted. This backs the spec.md §4.5 SSA rule
// that a temp's one definition must dominate every one of its uses: the
// standard iterative algorithm (Cooper, Harvey & Kennedy, "A Simple, Fast
// Dominance Algorithm") computes a fixpoint over immediate dominators in
// reverse postorder, converging in a handful of passes for the reducible
// control flow structured lowering produces — no back-edge-following
// recursive dominator-tree construction is needed.
func computeDominators(f *il.Function) map[*il.Block]*il.Block {
	entry := f.Entry()
	if entry == nil {
		return nil
	}

	var postorder []*il.Block
	visited := make(map[*il.Block]bool)
	var visit func(b *il.Block)
	visit = func(b *il.Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Successors() {
			visit(s)
		}
		postorder = append(postorder, b)
	}
	visit(entry)

	rpo := make([]*il.Block, len(postorder))
	for i, b := range postorder {
		rpo[len(postorder)-1-i] = b
	}
	rpoIndex := make(map[*il.Block]int, len(rpo))
	for i, b := range rpo {
		rpoIndex[b] = i
	}

	preds := blockPredecessors(f)

	idom := make(map[*il.Block]*il.Block, len(rpo))
	idom[entry] = entry
	for changed := true; changed; {
		changed = false
		for _, b := range rpo {
			if b == entry {
				continue
			}
			var newIdom *il.Block
			for _, p := range preds[b] {
				if idom[p] == nil {
					continue // p not yet processed this pass (or unreachable).
				}
				if newIdom == nil {
					newIdom = p
				} else {
					newIdom = intersect(newIdom, p, idom, rpoIndex)
				}
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return idom
}

// intersect walks a and b up their immediate-dominator chains until they
// meet, the "finger" step of the Cooper/Harvey/Kennedy algorithm. rpoIndex
// gives each block's position in reverse postorder, which increases
// monotonically moving away from the entry block along any dominator
// chain.
func intersect(a, b *il.Block, idom map[*il.Block]*il.Block, rpoIndex map[*il.Block]int) *il.Block {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

// blockDominates reports whether def dominates use: every path from the
// entry block to use passes through def, including use == def itself.
func blockDominates(idom map[*il.Block]*il.Block, def, use *il.Block) bool {
	b := use
	for {
		if b == def {
			return true
		}
		parent, ok := idom[b]
		if !ok || parent == b {
			return false // reached entry (or an unreachable block) without matching def.
		}
		b = parent
	}
}

// blockPredecessors computes, for every block in f, the blocks whose
// terminator targets it.
func blockPredecessors(f *il.Function) map[*il.Block][]*il.Block {
	preds := make(map[*il.Block][]*il.Block, len(f.Blocks))
	for _, b := range f.Blocks {
		for _, s := range b.Successors() {
			preds[s] = append(preds[s], b)
		}
	}
	return preds
}
