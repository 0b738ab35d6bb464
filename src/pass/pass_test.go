package pass

import (
	"testing"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/util"
	"basilc/src/verify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstFold_FoldsConstantArithmetic(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("f", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	sum := bd.CreateAdd(il.ConstInt{V: 2}, il.ConstInt{V: 3}, util.SourceLoc{})
	bd.CreateRet(sum, util.SourceLoc{})
	m := bd.Module()

	stats := ConstFold(m)
	assert.Equal(t, 1, stats.ConstantsFolded)
}

func TestConstFold_LeavesDivisionByConstantZeroUnfolded(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("f", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	q := bd.CreateSDiv(il.ConstInt{V: 1}, il.ConstInt{V: 0}, util.SourceLoc{})
	bd.CreateRet(q, util.SourceLoc{})
	m := bd.Module()

	stats := ConstFold(m)
	assert.Equal(t, 0, stats.ConstantsFolded)
}

// buildPromotableLoop returns a module whose only alloca is stored once,
// loaded once, and never escapes, the shape Mem2Reg is required to
// promote into a pure register value threaded through no block parameters
// (single store dominates the single load, no merge point between them).
func buildPromotableLoop(t *testing.T) *il.Module {
	t.Helper()
	bd := il.NewBuilder("t")
	bd.DeclareFunction("f", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	slot := bd.CreateAlloca(il.ConstInt{V: 1}, util.SourceLoc{})
	bd.CreateStore(il.ConstInt{V: 7}, slot, util.SourceLoc{})
	loaded := bd.CreateLoad(slot, iltypes.I64Type, util.SourceLoc{})
	bd.CreateRet(loaded, util.SourceLoc{})
	return bd.Module()
}

func TestMem2Reg_PromotesSingleStoreSingleLoadAlloca(t *testing.T) {
	m := buildPromotableLoop(t)
	stats := Mem2Reg(m)
	assert.Equal(t, 1, stats.LoadsEliminated)
	assert.Equal(t, 1, stats.StoresEliminated)

	r := verify.Module(m)
	assert.True(t, r.OK(), "%v", r.Findings)
}

func TestManager_RunsDefaultPipelineAndStaysVerifiable(t *testing.T) {
	m := buildPromotableLoop(t)
	mgr := NewManager(Default(), true)
	_, err := mgr.Run(m)
	require.NoError(t, err)

	r := verify.Module(m)
	assert.True(t, r.OK(), "%v", r.Findings)
}

func TestByName_UnknownPassNotFound(t *testing.T) {
	_, ok := ByName("does-not-exist")
	assert.False(t, ok)
}
