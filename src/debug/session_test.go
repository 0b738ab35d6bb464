package debug

import (
	"bytes"
	"strings"
	"testing"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/util"
	"basilc/src/vm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loc = util.SourceLoc{}

// buildCountTo5 builds a loop counting i from 0 to 4, summing into "sum",
// the way mem2reg's output would look: one block per loop header.
func buildCountTo5(t *testing.T) *il.Builder {
	t.Helper()
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", nil, iltypes.I64Type)
	entry := bd.CreateBlock("entry")
	loopBlk := bd.CreateBlock("loop")
	done := bd.CreateBlock("done")

	i := bd.AddParam(loopBlk, "i", iltypes.I64Type)
	sum := bd.AddParam(loopBlk, "sum", iltypes.I64Type)
	sumOut := bd.AddParam(done, "sum", iltypes.I64Type)

	bd.SetBlock(entry)
	bd.CreateBr(loopBlk, []il.Value{il.ConstInt{V: 0}, il.ConstInt{V: 0}}, loc)

	bd.SetBlock(loopBlk)
	cond := bd.CreateICmp(iltypes.ICmpSlt, i, il.ConstInt{V: 5}, loc)
	nextSum := bd.CreateAdd(sum, i, loc)
	nextI := bd.CreateAdd(i, il.ConstInt{V: 1}, loc)
	bd.CreateCBr(cond, loopBlk, []il.Value{nextI, nextSum}, done, []il.Value{sum}, loc)

	bd.SetBlock(done)
	bd.CreateRet(sumOut, loc)
	return bd
}

func TestSession_LabelBreakpointHaltsBeforeBlockEntry(t *testing.T) {
	bd := buildCountTo5(t)
	machine := vm.New(bd.Module(), vm.NewHostTable())
	exec, err := machine.Start("main", nil)
	require.NoError(t, err)

	breaks := NewBreakpoints()
	breaks.AddLabel("done")
	var out bytes.Buffer
	sess := NewSession(machine, exec, breaks, TraceNone, &out, util.NewDiagnosticSink(util.NewFileTable()))

	finished, halt, err := sess.Run()
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Equal(t, ReasonLabel, halt.Reason)
	assert.Equal(t, "done", halt.Block)
	assert.Equal(t, 0, halt.IP)
}

func TestSession_ContinueAfterBreakpointRunsToCompletion(t *testing.T) {
	bd := buildCountTo5(t)
	machine := vm.New(bd.Module(), vm.NewHostTable())
	exec, err := machine.Start("main", nil)
	require.NoError(t, err)

	breaks := NewBreakpoints()
	breaks.AddLabel("done")
	var out bytes.Buffer
	sess := NewSession(machine, exec, breaks, TraceNone, &out, util.NewDiagnosticSink(util.NewFileTable()))

	finished, _, err := sess.Run()
	require.NoError(t, err)
	require.False(t, finished)

	sess.freeRun = true
	finished, _, err = sess.Run()
	require.NoError(t, err)
	assert.True(t, finished)
}

func TestSession_TraceILPrintsOneLinePerRetiredInstruction(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	bd.CreateRet(il.ConstInt{V: 9}, loc)

	machine := vm.New(bd.Module(), vm.NewHostTable())
	exec, err := machine.Start("main", nil)
	require.NoError(t, err)
	var out bytes.Buffer
	sess := NewSession(machine, exec, nil, TraceIL, &out, util.NewDiagnosticSink(util.NewFileTable()))

	finished, _, err := sess.Run()
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Contains(t, out.String(), "[IL] fn=@main blk=entry ip=#0 op=ret 9")
}

func TestSession_WatchPrintsOnlyWhenValueChanges(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	ptr := bd.CreateAlloca(il.ConstInt{V: 1}, loc)
	bd.CreateStore(il.ConstInt{V: 1}, ptr, loc)
	v1 := bd.CreateLoad(ptr, iltypes.I64Type, loc)
	bd.CreateStore(il.ConstInt{V: 1}, ptr, loc) // Same value: no change.
	v2 := bd.CreateLoad(ptr, iltypes.I64Type, loc)
	bd.CreateStore(il.ConstInt{V: 2}, ptr, loc) // Different value: change.
	v3 := bd.CreateLoad(ptr, iltypes.I64Type, loc)
	sum := bd.CreateAdd(bd.CreateAdd(v1, v2, loc), v3, loc)
	bd.CreateRet(sum, loc)

	machine := vm.New(bd.Module(), vm.NewHostTable())
	exec, err := machine.Start("main", nil)
	require.NoError(t, err)
	var out bytes.Buffer
	sess := NewSession(machine, exec, nil, TraceNone, &out, util.NewDiagnosticSink(util.NewFileTable()))
	// v1's temp id is whatever the load assigned it; inspect the IL to find it.
	var loadTemp int
	for _, b := range bd.Module().Function("main").Blocks {
		for _, in := range b.Instrs {
			if in.Op == iltypes.Load && in.Dest != nil && loadTemp == 0 {
				loadTemp = in.Dest.ID
			}
		}
	}
	sess.AddWatch(&Watch{Name: "x", Fn: "main", Temp: loadTemp, Typ: iltypes.I64Type})

	finished, _, err := sess.Run()
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Equal(t, 1, strings.Count(out.String(), "[WATCH] x="))
}

func TestParseScript_RejectsUnknownCommandAsDiagnostic(t *testing.T) {
	diag := util.NewDiagnosticSink(util.NewFileTable())
	script, err := ParseScript(strings.NewReader("step\nfrobnicate\ncontinue\n"), diag)
	require.NoError(t, err)

	c1, ok := script.Next()
	require.True(t, ok)
	assert.Equal(t, CmdStep, c1.Kind)

	c2, ok := script.Next()
	require.True(t, ok)
	assert.Equal(t, CmdContinue, c2.Kind)

	_, ok = script.Next()
	assert.False(t, ok)

	assert.Equal(t, 1, diag.Len())
}

func TestBreakpoints_LineMatchFallsBackToBasename(t *testing.T) {
	files := util.NewFileTable()
	fid := files.Intern("/abs/path/to/prog.bas")
	breaks := NewBreakpoints()
	breaks.AddLine("prog.bas", 3)

	assert.True(t, breaks.MatchLine(util.SourceLoc{FileID: fid, Line: 3}, files))
	assert.False(t, breaks.MatchLine(util.SourceLoc{FileID: fid, Line: 4}, files))
}
