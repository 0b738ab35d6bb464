package verify

import (
	"testing"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAddOne(t *testing.T) *il.Module {
	t.Helper()
	bd := il.NewBuilder("t")
	f := bd.DeclareFunction("addOne", []il.FuncParam{{Name: "x", Typ: iltypes.I64Type}}, iltypes.I64Type)
	bd.CreateBlock("entry")
	sum := bd.CreateAdd(il.Temp{ID: 0, Typ: iltypes.I64Type}, il.ConstInt{V: 1}, util.SourceLoc{})
	bd.CreateRet(sum, util.SourceLoc{})
	_ = f
	return bd.Module()
}

func TestModule_CleanProgramHasNoFindings(t *testing.T) {
	m := buildAddOne(t)
	r := Module(m)
	assert.True(t, r.OK(), "%v", r.Findings)
}

func TestModule_MissingTerminatorIsReported(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("f", nil, iltypes.VoidType)
	bd.CreateBlock("entry")
	bd.CreateAdd(il.ConstInt{V: 1}, il.ConstInt{V: 2}, util.SourceLoc{})
	m := bd.Module()

	r := Module(m)
	require.False(t, r.OK())
	assert.Contains(t, r.Findings[0].Message, "does not end in a terminator")
}

func TestModule_RetTypeMismatchIsReported(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("f", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	bd.CreateRet(il.ConstFloat{V: 1.5}, util.SourceLoc{})
	m := bd.Module()

	r := Module(m)
	require.False(t, r.OK())
	assert.Contains(t, r.Findings[0].Message, "ret type mismatch")
}

func TestModule_NonDominatingUseAcrossIfElseDiamondIsReported(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("f", nil, iltypes.I64Type)
	entry := bd.CreateBlock("entry")
	thenBlk := bd.CreateBlock("then")
	elseBlk := bd.CreateBlock("else")
	join := bd.CreateBlock("join")

	bd.SetBlock(entry)
	cond := bd.CreateICmp(iltypes.ICmpSlt, il.ConstInt{V: 1}, il.ConstInt{V: 2}, util.SourceLoc{})
	bd.CreateCBr(cond, thenBlk, nil, elseBlk, nil, util.SourceLoc{})

	bd.SetBlock(thenBlk)
	onlyInThen := bd.CreateAdd(il.ConstInt{V: 1}, il.ConstInt{V: 1}, util.SourceLoc{})
	bd.CreateBr(join, nil, util.SourceLoc{})

	// elseBlk is thenBlk's sibling, not its dominee: referencing a value
	// defined only in thenBlk here (instead of threading it through a
	// join-block parameter) must be rejected.
	bd.SetBlock(elseBlk)
	bd.CreateAdd(onlyInThen, il.ConstInt{V: 1}, util.SourceLoc{})
	bd.CreateBr(join, nil, util.SourceLoc{})

	bd.SetBlock(join)
	bd.CreateRet(il.ConstInt{V: 0}, util.SourceLoc{})
	m := bd.Module()

	r := Module(m)
	require.False(t, r.OK())
	assert.Contains(t, r.Findings[0].Message, "does not dominate this use")
}

func TestModule_DuplicateDefinitionIsReported(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("f", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	bd.CreateAdd(il.ConstInt{V: 1}, il.ConstInt{V: 2}, util.SourceLoc{})
	bd.CreateSub(il.ConstInt{V: 3}, il.ConstInt{V: 1}, util.SourceLoc{})
	bd.CreateRet(il.ConstInt{V: 0}, util.SourceLoc{})
	m := bd.Module()

	// Force both arithmetic instructions to define the same temp id, the
	// shape a buggy pass could produce by forgetting to allocate a fresh
	// one instead of reusing one already live.
	entry := m.Functions[0].Blocks[0]
	entry.Instrs[1].Dest.ID = entry.Instrs[0].Dest.ID

	r := Module(m)
	require.False(t, r.OK())
	assert.Contains(t, r.Findings[0].Message, "defined more than once")
}

func TestModule_BranchArgumentArityIsChecked(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("f", nil, iltypes.VoidType)
	entry := bd.CreateBlock("entry")
	loop := bd.CreateBlock("loop")
	bd.AddParam(loop, "i", iltypes.I64Type)
	bd.SetBlock(entry)
	bd.CreateBr(loop, nil, util.SourceLoc{}) // Missing the required argument.
	bd.SetBlock(loop)
	bd.CreateRet(nil, util.SourceLoc{})
	m := bd.Module()

	r := Module(m)
	require.False(t, r.OK())
	assert.Contains(t, r.Findings[0].Message, "passes 0 arguments, expects 1")
}
