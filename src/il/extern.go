package il

import (
	"fmt"
	"strings"

	"basilc/src/il/iltypes"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Extern declares a host function reachable from IL via Instr with opcode
// Call/CallVoid and a non-nil Extern field (spec.md §3.8). Extern bodies
// live outside the module entirely; the VM resolves them through its host
// bridge (src/vm/host.go) by name at link time.
type Extern struct {
	Name       string
	ParamTypes []iltypes.Type
	ResultType iltypes.Type
}

// ---------------------
// ----- Functions -----
// ---------------------

// String returns the textual IL representation of Extern e.
func (e *Extern) String() string {
	var sb strings.Builder
	sb.WriteString("extern ")
	sb.WriteString(e.Name)
	sb.WriteRune('(')
	for i, t := range e.ParamTypes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(e.ResultType.String())
	return sb.String()
}

// Signature returns a human-readable "name(p1, p2) -> ret" string shared by
// diagnostics that reference an Extern without wanting the "extern " prefix.
func (e *Extern) Signature() string {
	return fmt.Sprintf("%s%s", e.Name, e.String()[len("extern "+e.Name):])
}
