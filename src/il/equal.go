package il

import "basilc/src/il/iltypes"

// ---------------------
// ----- Functions -----
// ---------------------

// Equal reports whether m and other describe the same module: the same
// externs, globals and functions, in the same order, down to every
// instruction's operands, branch targets and source location. Equal is the
// structural counterpart to the textual printer's round-trip guarantee
// (spec.md §8 property 1) — unlike comparing two printed strings, Equal
// catches a divergence even when it happens not to change the printed
// text.
//
// Cross-references (a call's Callee/Extern, a branch's Targets, a
// ConstStr/GlobalAddr's underlying Global) are compared nominally, by
// name or label, rather than by deep recursion: those objects are already
// compared in full as members of their owning Module/Function, so
// recursing into them again here would just re-walk the same graph
// through a different path.
func (m *Module) Equal(other *Module) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Name != other.Name {
		return false
	}
	if len(m.Externs) != len(other.Externs) {
		return false
	}
	for i, e := range m.Externs {
		if !e.Equal(other.Externs[i]) {
			return false
		}
	}
	if len(m.Globals) != len(other.Globals) {
		return false
	}
	for i, g := range m.Globals {
		if !g.Equal(other.Globals[i]) {
			return false
		}
	}
	if len(m.Functions) != len(other.Functions) {
		return false
	}
	for i, f := range m.Functions {
		if !f.Equal(other.Functions[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether e and other declare the same name, parameter types
// and result type.
func (e *Extern) Equal(other *Extern) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Name != other.Name || !e.ResultType.Equal(other.ResultType) {
		return false
	}
	return equalTypes(e.ParamTypes, other.ParamTypes)
}

// Equal reports whether g and other declare the same name, type,
// visibility, constness and initializer.
func (g *Global) Equal(other *Global) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.Name == other.Name &&
		g.Typ.Equal(other.Typ) &&
		g.IsConst == other.IsConst &&
		g.Visibility == other.Visibility &&
		g.Init == other.Init
}

// Equal reports whether f and other declare the same signature and the
// same sequence of blocks.
func (f *Function) Equal(other *Function) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Name != other.Name || !f.RetType.Equal(other.RetType) {
		return false
	}
	if f.Pure != other.Pure || f.Readonly != other.Readonly || f.Noreturn != other.Noreturn {
		return false
	}
	if len(f.Params) != len(other.Params) {
		return false
	}
	for i, p := range f.Params {
		o := other.Params[i]
		if p.Name != o.Name || !p.Typ.Equal(o.Typ) {
			return false
		}
	}
	if len(f.Blocks) != len(other.Blocks) {
		return false
	}
	for i, b := range f.Blocks {
		if !b.Equal(other.Blocks[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether b and other declare the same label, the same
// formal parameters (by id and type) and the same instruction sequence.
func (b *Block) Equal(other *Block) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.name != other.name {
		return false
	}
	if len(b.Params) != len(other.Params) {
		return false
	}
	for i, p := range b.Params {
		o := other.Params[i]
		if p.Temp.ID != o.Temp.ID || p.Name != o.Name || !p.Temp.Typ.Equal(o.Temp.Typ) {
			return false
		}
	}
	if len(b.Instrs) != len(other.Instrs) {
		return false
	}
	for i, in := range b.Instrs {
		if !in.Equal(other.Instrs[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether in and other are the same opcode with the same
// destination, operands, branch targets/arguments, callee and source
// location.
func (in *Instr) Equal(other *Instr) bool {
	if in == nil || other == nil {
		return in == other
	}
	// ID is not compared: it is a builder-internal temp-counter value that
	// the textual grammar never spells out for a Dest-less instruction
	// (br, cbr, ret, trap, store, callvoid), so a module reparsed from
	// text has no way to reproduce it for those opcodes. Dest.ID, which
	// the grammar does spell out, is compared below.
	if in.Op != other.Op || !in.Result.Equal(other.Result) {
		return false
	}
	if in.Loc != other.Loc {
		return false
	}
	if (in.Dest == nil) != (other.Dest == nil) {
		return false
	}
	if in.Dest != nil && (in.Dest.ID != other.Dest.ID || !in.Dest.Typ.Equal(other.Dest.Typ)) {
		return false
	}
	if len(in.Operands) != len(other.Operands) {
		return false
	}
	for i, op := range in.Operands {
		if !equalValue(op, other.Operands[i]) {
			return false
		}
	}
	if len(in.Targets) != len(other.Targets) {
		return false
	}
	for i, t := range in.Targets {
		if t.Label() != other.Targets[i].Label() {
			return false
		}
	}
	if len(in.Args) != len(other.Args) {
		return false
	}
	for i, args := range in.Args {
		if len(args) != len(other.Args[i]) {
			return false
		}
		for j, a := range args {
			if !equalValue(a, other.Args[i][j]) {
				return false
			}
		}
	}
	switch {
	case in.Callee != nil || other.Callee != nil:
		if in.Callee == nil || other.Callee == nil || in.Callee.Name != other.Callee.Name {
			return false
		}
	case in.Extern != nil || other.Extern != nil:
		if in.Extern == nil || other.Extern == nil || in.Extern.Name != other.Extern.Name {
			return false
		}
	}
	return true
}

// equalValue reports whether a and b are the same Value: the same kind and
// the same payload, resolving a ConstStr/GlobalAddr's Global by name
// rather than by pointer identity, since a and b may belong to different
// Modules.
func equalValue(a, b Value) bool {
	switch av := a.(type) {
	case Temp:
		bv, ok := b.(Temp)
		return ok && av.ID == bv.ID && av.Typ.Equal(bv.Typ)
	case ConstInt:
		bv, ok := b.(ConstInt)
		return ok && av.V == bv.V
	case ConstBool:
		bv, ok := b.(ConstBool)
		return ok && av.V == bv.V
	case ConstFloat:
		bv, ok := b.(ConstFloat)
		return ok && av.V == bv.V
	case ConstStr:
		bv, ok := b.(ConstStr)
		return ok && av.G.Name == bv.G.Name
	case GlobalAddr:
		bv, ok := b.(GlobalAddr)
		return ok && av.G.Name == bv.G.Name
	case NullPtr:
		_, ok := b.(NullPtr)
		return ok
	default:
		return false
	}
}

// equalTypes reports whether a and b hold the same types in the same order.
func equalTypes(a, b []iltypes.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i, t := range a {
		if !t.Equal(b[i]) {
			return false
		}
	}
	return true
}
