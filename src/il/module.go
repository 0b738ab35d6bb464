package il

import (
	"strings"

	"basilc/src/il/iltypes"
	"basilc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Module is the root container for a complete IL translation unit: its
// externs, globals and functions, plus the shared tables (file names,
// interned strings) every sub-object's Value/SourceLoc references resolve
// through (spec.md §3.7). Ordering of Externs/Globals/Functions is
// insertion order and is part of the module's observable identity: the
// textual printer and the round-trip property (spec.md §8, property 1)
// both depend on it never being silently reordered or deduplicated.
type Module struct {
	Name string

	Externs   []*Extern
	Globals   []*Global
	Functions []*Function

	Files    *util.FileTable
	Interner *util.Interner

	externIdx map[string]*Extern
	globalIdx map[string]*Global
	funcIdx   map[string]*Function
	nextID    int
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewModule returns an empty Module named name, ready for a Builder to
// populate.
func NewModule(name string) *Module {
	return &Module{
		Name:      name,
		Files:     util.NewFileTable(),
		Interner:  util.NewInterner(),
		externIdx: make(map[string]*Extern),
		globalIdx: make(map[string]*Global),
		funcIdx:   make(map[string]*Function),
	}
}

// Extern returns the Extern declared under name, or nil.
func (m *Module) Extern(name string) *Extern {
	return m.externIdx[name]
}

// Global returns the Global declared under name, or nil.
func (m *Module) Global(name string) *Global {
	return m.globalIdx[name]
}

// Function returns the Function declared under name, or nil.
func (m *Module) Function(name string) *Function {
	return m.funcIdx[name]
}

// addExtern appends e to Module m in declaration order. The caller (only
// Builder) is responsible for name-uniqueness checks.
func (m *Module) addExtern(e *Extern) {
	m.Externs = append(m.Externs, e)
	m.externIdx[e.Name] = e
}

// addGlobal appends g to Module m in declaration order.
func (m *Module) addGlobal(g *Global) {
	g.id = m.nextID
	m.nextID++
	m.Globals = append(m.Globals, g)
	m.globalIdx[g.Name] = g
}

// addFunction appends f to Module m in declaration order.
func (m *Module) addFunction(f *Function) {
	f.m = m
	m.Functions = append(m.Functions, f)
	m.funcIdx[f.Name] = f
}

// String returns the textual IL representation of Module m: externs, then
// globals, then functions, each section separated by a blank line, matching
// the grammar ordering in spec.md §4.4 (a debug convenience; the canonical
// printer used for the round-trip property lives in src/iltext and resolves
// real file names through m.Files rather than raw ids).
func (m *Module) String() string {
	var sb strings.Builder
	for _, e := range m.Externs {
		sb.WriteString(e.String())
		sb.WriteRune('\n')
	}
	if len(m.Externs) > 0 {
		sb.WriteRune('\n')
	}
	for _, g := range m.Globals {
		sb.WriteString(g.String())
		sb.WriteRune('\n')
	}
	if len(m.Globals) > 0 {
		sb.WriteRune('\n')
	}
	for i, f := range m.Functions {
		if i > 0 {
			sb.WriteRune('\n')
		}
		sb.WriteString(f.String())
		sb.WriteRune('\n')
	}
	return sb.String()
}

// voidOrType reports whether t's Kind is iltypes.Void. It is unexported, so
// only code in package il can use it.
func voidOrType(t iltypes.Type) bool {
	return t.K == iltypes.Void
}
