package vm

import (
	"fmt"

	"basilc/src/il"
	"basilc/src/util"
)

// TrapReason classifies why execution halted with a Trap (spec.md §4.7).
type TrapReason uint8

const (
	TrapDivideByZero TrapReason = iota
	TrapIntegerOverflow
	TrapNullAccess
	TrapMisaligned
	TrapExplicit
	TrapStackExhausted
	TrapStepLimit
)

var trapReasonNames = [...]string{
	"divide by zero",
	"integer overflow (INT64_MIN / -1)",
	"null pointer access",
	"misaligned access",
	"explicit trap",
	"stack exhausted",
	"step limit exceeded",
}

// String returns the human-readable name of r.
func (r TrapReason) String() string {
	if int(r) < 0 || int(r) >= len(trapReasonNames) {
		return "unknown trap"
	}
	return trapReasonNames[r]
}

// Trap is the error the VM returns when execution hits a runtime fault
// (spec.md §4.7/§7): it always carries the frame, block and instruction
// pointer fault occurred at, and the source location if the faulting
// instruction carried one.
type Trap struct {
	Reason TrapReason
	Fn     string
	Block  string
	IP     int
	Loc    util.SourceLoc
	Files  *util.FileTable
}

// Error implements the error interface, formatting "fn/blk/ip" plus source
// location the way spec.md §4.7 requires for a trap diagnostic.
func (t *Trap) Error() string {
	loc := "<unknown>"
	if t.Loc.Known() && t.Files != nil {
		loc = t.Loc.String(t.Files)
	}
	return fmt.Sprintf("trap: %s (fn=@%s blk=%s ip=#%d loc=%s)", t.Reason, t.Fn, t.Block, t.IP, loc)
}

// newTrap builds a Trap at the current execution point.
func (vm *VM) newTrap(reason TrapReason, fr *Frame, in *il.Instr) *Trap {
	t := &Trap{Reason: reason, Fn: fr.FnName(), Block: fr.BlockLabel(), IP: fr.IP, Files: vm.Module.Files}
	if in != nil {
		t.Loc = in.Loc
	}
	return t
}
