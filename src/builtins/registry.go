// Package builtins is the single source of truth for the BASIC builtin
// functions' arity and types: LEN, MID$, CHR$, ASC, VAL, STR$, ABS, INT,
// SQR, RND, TIMER. The front end consults Table when lowering a call
// expression so a builtin's signature is checked once, here, rather than
// re-declared ad hoc at every call site that needs it; the VM side
// (host.go) consults the same Table when registering the native
// implementations, so the two can never drift apart.
package builtins

import "basilc/src/il/iltypes"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Descriptor is one builtin's signature: its extern name, its parameter
// types in order, and its result type.
type Descriptor struct {
	Name   string
	Params []iltypes.Type
	Result iltypes.Type
}

// -------------------
// ----- Globals -----
// -------------------

// Table maps a builtin's BASIC-visible name (including its sigil, "$" or
// none) to its Descriptor. Every name here is also the extern name the
// front end declares and calls, and the name host.go's RegisterAll binds
// into a vm.HostTable.
var Table = map[string]Descriptor{
	"LEN":   {Name: "LEN", Params: []iltypes.Type{iltypes.StrType}, Result: iltypes.I64Type},
	"MID$":  {Name: "MID$", Params: []iltypes.Type{iltypes.StrType, iltypes.I64Type, iltypes.I64Type}, Result: iltypes.StrType},
	"CHR$":  {Name: "CHR$", Params: []iltypes.Type{iltypes.I64Type}, Result: iltypes.StrType},
	"ASC":   {Name: "ASC", Params: []iltypes.Type{iltypes.StrType}, Result: iltypes.I64Type},
	"VAL":   {Name: "VAL", Params: []iltypes.Type{iltypes.StrType}, Result: iltypes.F64Type},
	"STR$":  {Name: "STR$", Params: []iltypes.Type{iltypes.F64Type}, Result: iltypes.StrType},
	"ABS":   {Name: "ABS", Params: []iltypes.Type{iltypes.F64Type}, Result: iltypes.F64Type},
	"INT":   {Name: "INT", Params: []iltypes.Type{iltypes.F64Type}, Result: iltypes.I64Type},
	"SQR":   {Name: "SQR", Params: []iltypes.Type{iltypes.F64Type}, Result: iltypes.F64Type},
	"RND":   {Name: "RND", Params: nil, Result: iltypes.F64Type},
	"TIMER": {Name: "TIMER", Params: nil, Result: iltypes.F64Type},
}

// ---------------------
// ----- Functions -----
// ---------------------

// Lookup returns name's Descriptor, and whether it is a known builtin.
// Lookup is case-sensitive: the front end is responsible for upper-casing
// a BASIC identifier before consulting the table, since BASIC keywords
// and builtin names are conventionally case-insensitive at the source
// level but the table itself is not.
func Lookup(name string) (Descriptor, bool) {
	d, ok := Table[name]
	return d, ok
}

// Names returns every builtin name in Table, for front ends that need to
// recognize a builtin call during lexing/parsing before type-checking it.
func Names() []string {
	names := make([]string, 0, len(Table))
	for n := range Table {
		names = append(names, n)
	}
	return names
}
