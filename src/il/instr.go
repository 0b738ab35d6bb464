package il

import (
	"fmt"
	"strings"

	"basilc/src/il/iltypes"
	"basilc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Instr is a single IL instruction. Non-terminator instructions carry a
// fixed operand vector; terminators (br, cbr, ret, trap) carry Targets and
// per-target argument vectors instead, and calls carry a Callee in
// addition to their argument operands. Instr is deliberately one struct for
// every opcode, keyed off an opcode metadata table rather than one Go type
// per instruction kind, so that the verifier and passes can stay
// table-driven (spec.md §4.5/§9).
type Instr struct {
	ID       int            // ID is the function-local dense identifier of the instruction (and of Dest, if any).
	Op       iltypes.Opcode // Op identifies the operation performed.
	Result   iltypes.Type   // Result is the type of Dest, or iltypes.VoidType if the instruction produces nothing.
	Dest     *Temp          // Dest is the SSA temporary defined by this instruction, or nil.
	Operands []Value        // Operands are the instruction's data operands, in the order the grammar expects them.
	Targets  []*Block       // Targets holds branch destinations for br/cbr; empty for every other opcode.
	Args     [][]Value      // Args[i] are the actual block-parameter arguments supplied to Targets[i].
	Callee   *Function      // Callee is set for call/callvoid to a module-defined function.
	Extern   *Extern        // Extern is set for call/callvoid to a declared extern instead of Callee.
	Loc      util.SourceLoc // Loc is the source location this instruction was lowered from, or the zero value if unknown.

	block *Block // block is the owning Block, used for verifier/pass traversal.
}

// ---------------------
// ----- Functions -----
// ---------------------

// Block returns the Block that owns Instr in.
func (in *Instr) Block() *Block { return in.block }

// Reparent rebinds every instruction in instrs to b. Used by passes (e.g.
// simplifycfg's block merging) that splice one block's instructions into
// another and must keep Instr.Block() accurate for later passes and the
// verifier.
func Reparent(instrs []*Instr, b *Block) {
	for _, in := range instrs {
		in.block = b
	}
}

// IsTerminator returns true if in.Op may only appear as a block's final
// instruction.
func (in *Instr) IsTerminator() bool { return in.Op.IsTerminator() }

// HasSideEffect returns true if in must not be removed by dead-code
// elimination even when its result is unused.
func (in *Instr) HasSideEffect() bool {
	if in.Op.HasSideEffect() {
		// A call to a module function marked pure+readonly is eliminable
		// even though "call" is side-effecting by default (spec.md §4.6 dce).
		// Extern calls always count as side-effecting.
		if in.Op == iltypes.Call || in.Op == iltypes.CallVoid {
			if in.Callee != nil && in.Callee.Pure && in.Callee.Readonly {
				return false
			}
			return true
		}
		return true
	}
	return false
}

// String returns the textual IL representation of Instr in, not including
// its source-location suffix (the printer appends that separately so it can
// control whether locations are emitted).
func (in *Instr) String() string {
	var b strings.Builder
	if in.Dest != nil {
		b.WriteString(in.Dest.String())
		b.WriteString(": ")
		b.WriteString(in.Result.String())
		b.WriteString(" = ")
	}
	in.writeOpAndOperands(&b)
	return b.String()
}

// TraceString renders in the "op=<mnemonic> <operands> -> <dest>" shape the
// debugger's "--trace=il" line wants (spec.md §8 scenario S1), as opposed to
// String's "<dest>: <type> = <mnemonic> <operands>" textual-IL shape. The
// two never share a formatter end to end because a trace line omits the
// destination's declared type and puts the destination last, not first.
func (in *Instr) TraceString() string {
	var b strings.Builder
	b.WriteString("op=")
	in.writeOpAndOperands(&b)
	if in.Dest != nil {
		b.WriteString(" -> ")
		b.WriteString(in.Dest.String())
	}
	return b.String()
}

// writeOpAndOperands writes the opcode mnemonic followed by its operands,
// shared by String and TraceString, which differ only in what comes before
// and after this piece.
func (in *Instr) writeOpAndOperands(b *strings.Builder) {
	b.WriteString(in.Op.String())

	switch in.Op {
	case iltypes.Br:
		b.WriteRune(' ')
		b.WriteString(in.Targets[0].Label())
		writeArgVec(b, in.Args[0])
	case iltypes.CBr:
		fmt.Fprintf(b, " %s, %s", in.Operands[0].String(), in.Targets[0].Label())
		writeArgVec(b, in.Args[0])
		fmt.Fprintf(b, ", %s", in.Targets[1].Label())
		writeArgVec(b, in.Args[1])
	case iltypes.Ret:
		if len(in.Operands) == 1 {
			b.WriteRune(' ')
			b.WriteString(in.Operands[0].String())
		}
	case iltypes.Trap:
		// No operands.
	case iltypes.Call, iltypes.CallVoid:
		b.WriteRune(' ')
		if in.Callee != nil {
			b.WriteString("@" + in.Callee.Name)
		} else {
			b.WriteString("@" + in.Extern.Name)
		}
		b.WriteRune('(')
		for i, op := range in.Operands {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(op.String())
		}
		b.WriteRune(')')
	case iltypes.Alloca:
		b.WriteRune(' ')
		b.WriteString(in.Operands[0].String())
	default:
		b.WriteRune(' ')
		for i, op := range in.Operands {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(op.String())
		}
	}
}

// writeArgVec writes "(a, b, c)" for a branch argument vector, or nothing
// for an empty one (spec.md example S5: parameterless blocks print with no
// parentheses at all).
func writeArgVec(b *strings.Builder, args []Value) {
	if len(args) == 0 {
		return
	}
	b.WriteRune('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteRune(')')
}
