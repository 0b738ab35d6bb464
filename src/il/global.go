package il

import (
	"fmt"

	"basilc/src/il/iltypes"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Visibility controls whether a Global is reachable from outside its
// module. basilc never links multiple modules together, so today this is
// advisory metadata carried through for the textual printer, in case a
// later multi-module linker stage ever needs it.
type Visibility uint8

// Global is a module-level variable or string constant (spec.md §3.6/§3.7).
type Global struct {
	Name       string
	Typ        iltypes.Type
	Init       interface{} // nil, int64, float64 or string depending on Typ.
	IsConst    bool
	Visibility Visibility

	id int
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	Private Visibility = iota
	Public
)

// ---------------------
// ----- Functions -----
// ---------------------

// String returns the textual visibility keyword, or "" for Private (the
// printer omits the keyword entirely for private globals).
func (v Visibility) String() string {
	if v == Public {
		return "public"
	}
	return ""
}

// String returns the textual IL representation of Global g.
func (g *Global) String() string {
	kw := "global"
	if g.Visibility == Public {
		kw += " public"
	}
	if g.IsConst {
		kw += " const"
	}
	switch v := g.Init.(type) {
	case int64:
		return fmt.Sprintf("%s %s: %s = %d", kw, g.Name, g.Typ.String(), v)
	case float64:
		return fmt.Sprintf("%s %s: %s = %s", kw, g.Name, g.Typ.String(), FormatFloat(v))
	case string:
		return fmt.Sprintf("%s %s: %s = %s", kw, g.Name, g.Typ.String(), QuoteString(v))
	default:
		return fmt.Sprintf("%s %s: %s = zeroinit", kw, g.Name, g.Typ.String())
	}
}
