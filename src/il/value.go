// Package il provides the in-memory IL data model (types.Type-typed SSA
// values, instructions, basic blocks, functions, globals, externs and
// modules) and the Builder used to construct it safely.
package il

import (
	"fmt"

	"basilc/src/il/iltypes"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Value is the tagged union described by spec.md §3.2: a Temp, one of the
// constant kinds, a GlobalAddr, or NullPtr. Every operand of every
// instruction is a Value.
type Value interface {
	Type() iltypes.Type // Type returns the IL type of the value.
	String() string     // String returns the textual IL representation of the value.
	IsConst() bool       // IsConst returns true for constants, global addresses and NullPtr; false for Temp.
}

// Temp is an SSA temporary, printed as "%tN". Temp values are defined at
// most once within their owning Function; block parameters are also
// represented as Temp (their definition site is the block itself, not an
// instruction).
type Temp struct {
	ID  int
	Typ iltypes.Type
}

// ConstInt is an integer constant operand.
type ConstInt struct {
	V int64
}

// ConstBool is an i1 constant operand, distinct from ConstInt so that a
// folded comparison keeps the i1 result type the verifier expects rather
// than silently widening to i64. The textual printer renders it as "1" or
// "0" like any integer literal; the parser recovers the Kind from the type
// the operand's position expects rather than from the literal text itself.
type ConstBool struct {
	V bool
}

// ConstFloat is a floating point constant operand.
type ConstFloat struct {
	V float64
}

// ConstStr is a reference to a string held in the module's string table.
type ConstStr struct {
	G *Global
}

// GlobalAddr is the address of a Global (variable or function), used when a
// global is referenced by value rather than loaded/called directly.
type GlobalAddr struct {
	G *Global
}

// NullPtr is the null pointer constant.
type NullPtr struct{}

// ---------------------
// ----- Functions -----
// ---------------------

// Type returns I64, I1, F64, Ptr or Str depending on Temp.Typ.
func (t Temp) Type() iltypes.Type { return t.Typ }

// String returns "%tN".
func (t Temp) String() string { return fmt.Sprintf("%%t%d", t.ID) }

// IsConst returns false: a Temp is never a constant.
func (t Temp) IsConst() bool { return false }

// Type returns I64Type.
func (c ConstInt) Type() iltypes.Type { return iltypes.I64Type }

// String returns the canonical decimal representation of c.
func (c ConstInt) String() string { return fmt.Sprintf("%d", c.V) }

// IsConst returns true.
func (c ConstInt) IsConst() bool { return true }

// Type returns I1Type.
func (c ConstBool) Type() iltypes.Type { return iltypes.I1Type }

// String returns "1" or "0".
func (c ConstBool) String() string {
	if c.V {
		return "1"
	}
	return "0"
}

// IsConst returns true.
func (c ConstBool) IsConst() bool { return true }

// Type returns F64Type.
func (c ConstFloat) Type() iltypes.Type { return iltypes.F64Type }

// String returns the shortest round-trip decimal representation of c, per
// spec.md §4.4's printer guarantee.
func (c ConstFloat) String() string { return FormatFloat(c.V) }

// IsConst returns true.
func (c ConstFloat) IsConst() bool { return true }

// Type returns StrType.
func (c ConstStr) Type() iltypes.Type { return iltypes.StrType }

// String returns the quoted, escaped textual IL representation of the
// referenced string.
func (c ConstStr) String() string { return QuoteString(c.G.Init.(string)) }

// IsConst returns true.
func (c ConstStr) IsConst() bool { return true }

// Type returns PtrType.
func (g GlobalAddr) Type() iltypes.Type { return iltypes.PtrType }

// String returns "@name".
func (g GlobalAddr) String() string { return "@" + g.G.Name }

// IsConst returns true.
func (g GlobalAddr) IsConst() bool { return true }

// Type returns PtrType.
func (NullPtr) Type() iltypes.Type { return iltypes.PtrType }

// String returns "null".
func (NullPtr) String() string { return "null" }

// IsConst returns true.
func (NullPtr) IsConst() bool { return true }
