package vm

import (
	"testing"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loc = util.SourceLoc{}

func runMain(t *testing.T, bd *il.Builder, args ...Value) (Value, error) {
	t.Helper()
	machine := New(bd.Module(), NewHostTable())
	exec, err := machine.Start("main", args)
	require.NoError(t, err)
	return exec.Run()
}

func TestVM_AddOneReturnsIncrementedValue(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", []il.FuncParam{{Name: "x", Typ: iltypes.I64Type}}, iltypes.I64Type)
	bd.CreateBlock("entry")
	sum := bd.CreateAdd(il.Temp{ID: 0, Typ: iltypes.I64Type}, il.ConstInt{V: 1}, loc)
	bd.CreateRet(sum, loc)

	got, err := runMain(t, bd, Value{Typ: iltypes.I64Type, I: 41})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.I)
}

func TestVM_SDivByZeroTraps(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", []il.FuncParam{{Name: "x", Typ: iltypes.I64Type}}, iltypes.I64Type)
	bd.CreateBlock("entry")
	q := bd.CreateSDiv(il.Temp{ID: 0, Typ: iltypes.I64Type}, il.ConstInt{V: 0}, loc)
	bd.CreateRet(q, loc)

	_, err := runMain(t, bd, Value{Typ: iltypes.I64Type, I: 10})
	require.Error(t, err)
	trap, ok := err.(*Trap)
	require.True(t, ok, "expected *Trap, got %T", err)
	assert.Equal(t, TrapDivideByZero, trap.Reason)
}

func TestVM_IntMinDividedByNegOneTrapsOnOverflow(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", []il.FuncParam{{Name: "x", Typ: iltypes.I64Type}}, iltypes.I64Type)
	bd.CreateBlock("entry")
	q := bd.CreateSDiv(il.Temp{ID: 0, Typ: iltypes.I64Type}, il.ConstInt{V: -1}, loc)
	bd.CreateRet(q, loc)

	const intMin64 = -1 << 63
	_, err := runMain(t, bd, Value{Typ: iltypes.I64Type, I: intMin64})
	require.Error(t, err)
	trap, ok := err.(*Trap)
	require.True(t, ok)
	assert.Equal(t, TrapIntegerOverflow, trap.Reason)
}

func TestVM_AllocaLoadStoreRoundTrips(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	ptr := bd.CreateAlloca(il.ConstInt{V: 1}, loc)
	bd.CreateStore(il.ConstInt{V: 99}, ptr, loc)
	got := bd.CreateLoad(ptr, iltypes.I64Type, loc)
	bd.CreateRet(got, loc)

	got2, err := runMain(t, bd)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got2.I)
}

func TestVM_LoadThroughNullPointerTraps(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	got := bd.CreateLoad(il.NullPtr{}, iltypes.I64Type, loc)
	bd.CreateRet(got, loc)

	_, err := runMain(t, bd)
	require.Error(t, err)
	trap, ok := err.(*Trap)
	require.True(t, ok)
	assert.Equal(t, TrapNullAccess, trap.Reason)
}

func TestVM_CallReturnsToCallerWithResultBound(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("double", []il.FuncParam{{Name: "x", Typ: iltypes.I64Type}}, iltypes.I64Type)
	bd.CreateBlock("entry")
	bd.CreateRet(bd.CreateMul(il.Temp{ID: 0, Typ: iltypes.I64Type}, il.ConstInt{V: 2}, loc), loc)

	bd.DeclareFunction("main", []il.FuncParam{{Name: "x", Typ: iltypes.I64Type}}, iltypes.I64Type)
	bd.CreateBlock("entry")
	doubled := bd.CreateCall("double", []il.Value{il.Temp{ID: 0, Typ: iltypes.I64Type}}, loc)
	plusOne := bd.CreateAdd(doubled, il.ConstInt{V: 1}, loc)
	bd.CreateRet(plusOne, loc)

	got, err := runMain(t, bd, Value{Typ: iltypes.I64Type, I: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(21), got.I)
}

// TestVM_LoopWithBlockParameterSumsToN builds a counting loop entirely out
// of block parameters (no alloca), the way mem2reg's output looks, and
// checks the interpreter drives the block-parameter argument binding
// correctly across many iterations.
func TestVM_LoopWithBlockParameterSumsToN(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", nil, iltypes.I64Type)
	entry := bd.CreateBlock("entry")
	loop := bd.CreateBlock("loop")
	done := bd.CreateBlock("done")

	i := bd.AddParam(loop, "i", iltypes.I64Type)
	sum := bd.AddParam(loop, "sum", iltypes.I64Type)
	sumOut := bd.AddParam(done, "sum", iltypes.I64Type)

	bd.SetBlock(entry)
	bd.CreateBr(loop, []il.Value{il.ConstInt{V: 0}, il.ConstInt{V: 0}}, loc)

	bd.SetBlock(loop)
	cond := bd.CreateICmp(iltypes.ICmpSlt, i, il.ConstInt{V: 5}, loc)
	nextSum := bd.CreateAdd(sum, i, loc)
	nextI := bd.CreateAdd(i, il.ConstInt{V: 1}, loc)
	bd.CreateCBr(cond, loop, []il.Value{nextI, nextSum}, done, []il.Value{sum}, loc)

	bd.SetBlock(done)
	bd.CreateRet(sumOut, loc)

	got, err := runMain(t, bd)
	require.NoError(t, err)
	assert.Equal(t, int64(0+1+2+3+4), got.I)
}

func TestVM_HostExternIsDispatchedThroughTable(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareExtern("triple", []iltypes.Type{iltypes.I64Type}, iltypes.I64Type)
	bd.DeclareFunction("main", []il.FuncParam{{Name: "x", Typ: iltypes.I64Type}}, iltypes.I64Type)
	bd.CreateBlock("entry")
	r := bd.CreateCallExtern("triple", []il.Value{il.Temp{ID: 0, Typ: iltypes.I64Type}}, loc)
	bd.CreateRet(r, loc)

	host := NewHostTable()
	require.NoError(t, host.Register(bd.Module().Extern("triple"), func(args []Value) (Value, error) {
		return Value{Typ: iltypes.I64Type, I: args[0].I * 3}, nil
	}))

	machine := New(bd.Module(), host)
	exec, err := machine.Start("main", []Value{{Typ: iltypes.I64Type, I: 7}})
	require.NoError(t, err)
	got, err := exec.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(21), got.I)
}

func TestVM_StepHaltsBeforeInstructionFiresWhenHookRequests(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	bd.CreateRet(il.ConstInt{V: 7}, loc)

	machine := New(bd.Module(), NewHostTable())
	halted := false
	machine.Hook = func(fr *Frame, in *il.Instr) bool {
		if !halted {
			halted = true
			return true
		}
		return false
	}
	exec, err := machine.Start("main", nil)
	require.NoError(t, err)

	done, err := exec.Step()
	require.NoError(t, err)
	assert.False(t, done, "execution should have halted before its only instruction ran")
	assert.False(t, exec.Done())

	got, err := exec.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.I)
}

func TestVM_GlobalIsVisibleAndInitialized(t *testing.T) {
	bd := il.NewBuilder("t")
	g := bd.DeclareGlobal("counter", iltypes.I64Type, int64(5), false, il.Private)
	bd.DeclareFunction("main", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	got := bd.CreateLoad(il.GlobalAddr{G: g}, iltypes.I64Type, loc)
	bd.CreateRet(got, loc)

	got2, err := runMain(t, bd)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got2.I)
}
