// Package iltext implements the canonical textual encoding of an il.Module:
// a deterministic printer and a strict recursive-descent parser such that
// Parse(Print(m)) reproduces m exactly (spec.md §4.4, §8 property 1).
package iltext

import (
	"fmt"
	"strings"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Printer renders an il.Module to its canonical textual form. Printer holds
// no mutable state between calls; it exists as a type (rather than a bare
// function) only so options can be added later without breaking callers.
type Printer struct {
	// EmitLocs controls whether `@"file":line:col` location suffixes are
	// printed after each instruction. Disassembly for humans wants them;
	// the round-trip property does not require them, since a module
	// parsed back in without locations simply carries unknown SourceLocs.
	EmitLocs bool

	// files resolves an Instr.Loc.FileID to the file name printed in a
	// location suffix. Set internally by Print from the Module being
	// printed; callers never populate it directly.
	files *util.FileTable
}

// ---------------------
// ----- Functions -----
// ---------------------

// Print renders Module m to its canonical textual form.
func Print(m *il.Module) string {
	p := Printer{EmitLocs: true}
	return p.Print(m)
}

// Print renders Module m according to Printer p's options.
func (p Printer) Print(m *il.Module) string {
	p.files = m.Files
	var sb strings.Builder
	for _, e := range m.Externs {
		sb.WriteString(e.String())
		sb.WriteRune('\n')
	}
	for _, g := range m.Globals {
		sb.WriteString(g.String())
		sb.WriteRune('\n')
	}
	for i, f := range m.Functions {
		if i > 0 || len(m.Externs) > 0 || len(m.Globals) > 0 {
			sb.WriteRune('\n')
		}
		p.printFunction(&sb, f)
	}
	return sb.String()
}

// printFunction renders one Function, including its block bodies with
// location suffixes honoring p.EmitLocs.
func (p Printer) printFunction(sb *strings.Builder, f *il.Function) {
	sb.WriteString("func ")
	sb.WriteString(f.Name)
	sb.WriteRune('(')
	for i, prm := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s: %s", prm.Name, prm.Typ.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(f.RetType.String())
	sb.WriteString(" {\n")
	for _, b := range f.Blocks {
		p.printBlock(sb, b)
	}
	sb.WriteString("}\n")
}

// printBlock renders one Block: its label(+params) line followed by one
// indented instruction per line.
func (p Printer) printBlock(sb *strings.Builder, b *il.Block) {
	sb.WriteString(b.Label())
	if len(b.Params) > 0 {
		sb.WriteRune('(')
		for i, prm := range b.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s: %s", prm.Temp.String(), prm.Temp.Typ.String())
		}
		sb.WriteRune(')')
	}
	sb.WriteString(":\n")
	for _, in := range b.Instrs {
		sb.WriteRune('\t')
		sb.WriteString(in.String())
		if p.EmitLocs && in.Loc.Known() {
			name := il.QuoteString(p.files.Name(in.Loc.FileID))
			fmt.Fprintf(sb, " @%s:%d:%d", name, in.Loc.Line, in.Loc.Col)
		}
		sb.WriteRune('\n')
	}
}

// typeString is a small helper kept for parser-side error messages that
// need to name an expected iltypes.Type without importing fmt at every call
// site.
func typeString(t iltypes.Type) string {
	return t.String()
}
