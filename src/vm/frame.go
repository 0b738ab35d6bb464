package vm

import "basilc/src/il"

// Frame is one function activation record: the function being executed,
// the current block and instruction pointer within it, a dense register
// file indexed by temp id, and the heap bump-pointer watermark to restore
// when the frame returns (spec.md §4.7's "per-frame stack buffer, released
// on return"). The register file holds every live IL temp value by its
// dense, function-local id, the same indexing a physical register
// allocator would use, except here every temp simply gets its own slot.
type Frame struct {
	Fn    *il.Function
	Block *il.Block
	IP    int

	regs     []cell
	heapMark uint64
}

// newFrame allocates a Frame for fn with a register file sized to hold
// every temp id fn ever assigns (spec.md §3.5's dense per-function ids).
func newFrame(fn *il.Function) *Frame {
	return &Frame{Fn: fn, Block: fn.Entry(), regs: make([]cell, fn.NumTemps())}
}

// set stores v under temp id, growing the register file if a pass
// introduced ids beyond what NumTemps reported at frame-creation time.
func (fr *Frame) set(id int, v cell) {
	if id >= len(fr.regs) {
		grown := make([]cell, id+1)
		copy(grown, fr.regs)
		fr.regs = grown
	}
	fr.regs[id] = v
}

// get returns the value stored under temp id.
func (fr *Frame) get(id int) cell {
	if id >= len(fr.regs) {
		return 0
	}
	return fr.regs[id]
}

// FnName returns the owning function's name, or "<none>" for a zero Frame.
func (fr *Frame) FnName() string {
	if fr == nil || fr.Fn == nil {
		return "<none>"
	}
	return fr.Fn.Name
}

// BlockLabel returns the current block's label, or "<none>".
func (fr *Frame) BlockLabel() string {
	if fr == nil || fr.Block == nil {
		return "<none>"
	}
	return fr.Block.Label()
}
