package il

import (
	"fmt"
	"strings"

	"basilc/src/il/iltypes"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Param is a basic block's formal parameter: an ordered, typed incoming SSA
// value supplied positionally by every predecessor's branch (spec.md §3.4).
// The entry block never has parameters.
type Param struct {
	Temp Temp
	Name string
}

// Block is a labeled, linear list of non-terminator instructions followed
// by exactly one terminator (spec.md §3.4). Blocks may declare formal
// parameters that act as incoming SSA values from predecessors.
type Block struct {
	ID     int
	name   string
	Params []*Param
	Instrs []*Instr

	fn *Function
}

// ---------------------
// ----- Functions -----
// ---------------------

// Label returns the textual IL label of Block b, e.g. "entry" or "L3".
func (b *Block) Label() string {
	return b.name
}

// SetLabel renames Block b. The builder enforces label uniqueness within a
// function at block-creation time; callers renaming a block after the fact
// (simplifycfg canonicalization, front-end lowering) are responsible for not
// reintroducing a collision.
func (b *Block) SetLabel(name string) {
	b.name = name
}

// Function returns the Function that owns Block b.
func (b *Block) Function() *Function {
	return b.fn
}

// Terminator returns the block's terminating instruction, or nil if the
// block has not yet been terminated (mid-construction, or a block built
// without a terminator).
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if last.IsTerminator() {
		return last
	}
	return nil
}

// Successors returns the blocks Block b's terminator may transfer control
// to, in Targets order. It returns nil for ret/trap and for an unterminated
// block.
func (b *Block) Successors() []*Block {
	term := b.Terminator()
	if term == nil {
		return nil
	}
	return term.Targets
}

// ParamTypes returns the ordered types of Block b's formal parameters.
func (b *Block) ParamTypes() []iltypes.Type {
	out := make([]iltypes.Type, len(b.Params))
	for i, p := range b.Params {
		out[i] = p.Temp.Typ
	}
	return out
}

// String returns the textual IL representation of Block b: its label
// (with parameter list, if any) followed by one indented line per
// instruction.
func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString(b.name)
	if len(b.Params) > 0 {
		sb.WriteRune('(')
		for i, p := range b.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", p.Temp.String(), p.Temp.Typ.String())
		}
		sb.WriteRune(')')
	}
	sb.WriteString(":\n")
	for _, in := range b.Instrs {
		sb.WriteRune('\t')
		sb.WriteString(in.String())
		if in.Loc.Known() {
			sb.WriteString(" @")
			sb.WriteString(fmt.Sprintf("%d:%d:%d", in.Loc.FileID, in.Loc.Line, in.Loc.Col))
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
