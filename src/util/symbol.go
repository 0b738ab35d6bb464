package util

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Symbol is a dense, interner-assigned identifier for a string. Two equal
// strings interned by the same Interner always produce the same Symbol,
// letting callers compare identifiers by value instead of by string
// content.
type Symbol uint32

// Interner maps byte-strings to unique Symbol values. It is the C1 support
// utility used by the front end for identifier names and by the IL builder
// for block labels, parameter names and temp names, per spec.md §4.1.
type Interner struct {
	strs []string
	ids  map[string]Symbol
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{ids: make(map[string]Symbol, 64)}
}

// Intern returns the Symbol for s, assigning a new dense id the first time
// s is seen. The returned view is stable for the Interner's lifetime.
func (in *Interner) Intern(s string) Symbol {
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := Symbol(len(in.strs))
	in.strs = append(in.strs, s)
	in.ids[s] = id
	return id
}

// Lookup returns the string registered under sym, and true if sym is valid.
func (in *Interner) Lookup(sym Symbol) (string, bool) {
	if int(sym) < 0 || int(sym) >= len(in.strs) {
		return "", false
	}
	return in.strs[sym], true
}

// Len returns the number of distinct strings interned so far.
func (in *Interner) Len() int {
	return len(in.strs)
}
