package il

import (
	"fmt"
	"strings"

	"basilc/src/il/iltypes"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// FuncParam is one of a Function's declared parameters (spec.md §3.5):
// distinct from a block Param, a FuncParam is bound once, at call entry,
// into the entry block's implicit register file rather than via a branch
// argument vector.
type FuncParam struct {
	Name string
	Typ  iltypes.Type
}

// Function is an IL function: an ordered parameter list, a return type, and
// an ordered list of basic blocks whose first member is the entry block
// (spec.md §3.5).
type Function struct {
	Name       string
	Params     []FuncParam
	RetType    iltypes.Type
	Blocks     []*Block
	Pure       bool // Pure is advisory: true if the function has no observable side effects.
	Readonly   bool // Readonly is advisory: true if the function does not write through any pointer it did not allocate itself.
	Noreturn   bool // Noreturn is advisory: true if the function never returns control to its caller.

	m         *Module
	nextTemp  int
	nextBlock int
	blockIdx  map[string]*Block
}

// ---------------------
// ----- Functions -----
// ---------------------

// Module returns the Module that owns Function f.
func (f *Function) Module() *Module {
	return f.m
}

// Entry returns Function f's entry block, or nil if f has no blocks yet.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Block returns the block named name, or nil if no such block exists.
func (f *Function) Block(name string) *Block {
	return f.blockIdx[name]
}

// ParamTypes returns the ordered types of Function f's declared parameters.
func (f *Function) ParamTypes() []iltypes.Type {
	out := make([]iltypes.Type, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Typ
	}
	return out
}

// String returns the textual IL representation of Function f.
func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteString("func ")
	sb.WriteString(f.Name)
	sb.WriteRune('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", p.Name, p.Typ.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(f.RetType.String())
	sb.WriteString(" {\n")
	for _, b := range f.Blocks {
		sb.WriteString(b.String())
	}
	sb.WriteString("}")
	return sb.String()
}

// nextTempID returns a dense, function-local SSA temp id.
func (f *Function) nextTempID() int {
	id := f.nextTemp
	f.nextTemp++
	return id
}

// AllocTempID reserves and returns a fresh, function-local SSA temp id.
// Exposed for passes (e.g. mem2reg) that introduce new block parameters
// outside of Builder's own construction flow.
func (f *Function) AllocTempID() int {
	return f.nextTempID()
}

// NumTemps returns one past the highest temp id ever allocated to f,
// suitable for sizing a dense slot array indexed by temp id (the VM's
// frame register file does this rather than using a map).
func (f *Function) NumTemps() int {
	return f.nextTemp
}

// nextBlockID returns a dense, function-local block id.
func (f *Function) nextBlockID() int {
	id := f.nextBlock
	f.nextBlock++
	return id
}
