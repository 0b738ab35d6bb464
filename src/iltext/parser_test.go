package iltext

import (
	"testing"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/util"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// roundTrip asserts spec.md §8 property 1: Parse(Print(m)) reproduces m
// structurally, not just textually. il.Module.Equal is the authoritative
// check; cmp.Diff of the two printed forms only supplies a readable
// failure message, the way a line-level diff is friendlier than a bare
// "not equal" once a test actually fails.
func roundTrip(t *testing.T, m *il.Module) {
	t.Helper()
	want := Print(m)
	reparsed, err := Parse("t", want)
	require.NoError(t, err)
	got := Print(reparsed)
	if !m.Equal(reparsed) {
		t.Errorf("round trip mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

// loc returns a non-zero SourceLoc in file, interned into m's FileTable so
// an instruction built against it carries a real, round-trippable FileID
// rather than the zero-value "unknown" location.
func loc(m *il.Module, file string, line, col int) util.SourceLoc {
	return util.SourceLoc{FileID: m.Files.Intern(file), Line: line, Col: col}
}

func TestRoundTrip_ArithmeticFunction(t *testing.T) {
	bd := il.NewBuilder("t")
	m := bd.Module()
	bd.DeclareFunction("addOne", []il.FuncParam{{Name: "x", Typ: iltypes.I64Type}}, iltypes.I64Type)
	bd.CreateBlock("entry")
	sum := bd.CreateAdd(il.Temp{ID: 0, Typ: iltypes.I64Type}, il.ConstInt{V: 1}, loc(m, "prog.bas", 3, 5))
	bd.CreateRet(sum, loc(m, "prog.bas", 3, 1))
	roundTrip(t, m)
}

func TestRoundTrip_BlockParametersAndBranches(t *testing.T) {
	bd := il.NewBuilder("t")
	m := bd.Module()
	bd.DeclareFunction("count", nil, iltypes.VoidType)
	entry := bd.CreateBlock("entry")
	loop := bd.CreateBlock("loop")
	i := bd.AddParam(loop, "i", iltypes.I64Type)

	bd.SetBlock(entry)
	bd.CreateBr(loop, []il.Value{il.ConstInt{V: 0}}, loc(m, "loop.bas", 10, 1))

	bd.SetBlock(loop)
	next := bd.CreateAdd(i, il.ConstInt{V: 1}, loc(m, "loop.bas", 11, 3))
	done := bd.CreateICmp(iltypes.ICmpSlt, next, il.ConstInt{V: 10}, loc(m, "loop.bas", 12, 3))
	exit := bd.CreateBlock("exit")
	bd.SetBlock(loop)
	bd.CreateCBr(done, loop, []il.Value{next}, exit, nil, loc(m, "loop.bas", 13, 1))

	bd.SetBlock(exit)
	bd.CreateRet(nil, util.SourceLoc{})

	roundTrip(t, m)
}

func TestRoundTrip_GlobalsAndExterns(t *testing.T) {
	bd := il.NewBuilder("t")
	m := bd.Module()
	bd.DeclareExtern("printLine", []iltypes.Type{iltypes.StrType}, iltypes.VoidType)
	bd.DeclareGlobal("greeting", iltypes.StrType, "hello", true, il.Private)
	bd.DeclareFunction("main", nil, iltypes.VoidType)
	bd.CreateBlock("entry")
	bd.CreateRet(nil, loc(m, "main.bas", 1, 1))
	roundTrip(t, m)
}

// TestRoundTrip_PreservesLocationAcrossMultipleFiles exercises the bug this
// test suite previously could not reach: every fixture above used a single
// file name, so a printer that resolved FileIDs incorrectly (or a parser
// that discarded them) could still coincidentally round-trip. Interning two
// distinct file names forces FileID 1 and FileID 2 to actually mean
// different things across the print/parse boundary.
func TestRoundTrip_PreservesLocationAcrossMultipleFiles(t *testing.T) {
	bd := il.NewBuilder("t")
	m := bd.Module()
	bd.DeclareFunction("f", nil, iltypes.VoidType)
	bd.CreateBlock("entry")
	first := bd.CreateAdd(il.ConstInt{V: 1}, il.ConstInt{V: 2}, loc(m, "a.bas", 1, 1))
	bd.CreateAdd(first, il.ConstInt{V: 3}, loc(m, "b.bas", 2, 2))
	bd.CreateRet(nil, loc(m, "a.bas", 3, 3))
	roundTrip(t, m)

	reparsed, err := Parse("t", Print(m))
	require.NoError(t, err)
	instrs := reparsed.Functions[0].Blocks[0].Instrs
	require.Len(t, instrs, 3)
	require.Equal(t, "a.bas", reparsed.Files.Name(instrs[0].Loc.FileID))
	require.Equal(t, "b.bas", reparsed.Files.Name(instrs[1].Loc.FileID))
	require.Equal(t, "a.bas", reparsed.Files.Name(instrs[2].Loc.FileID))
}

func TestParse_RejectsMalformedModule(t *testing.T) {
	_, err := Parse("t", "func @broken(")
	require.Error(t, err)
}
