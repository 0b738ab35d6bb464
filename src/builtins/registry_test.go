package builtins

import (
	"testing"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/vm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_KnownBuiltinsResolve(t *testing.T) {
	for _, name := range []string{"LEN", "MID$", "CHR$", "ASC", "VAL", "STR$", "ABS", "INT", "SQR", "RND", "TIMER"} {
		d, ok := Lookup(name)
		require.Truef(t, ok, "expected %s to be registered", name)
		assert.Equal(t, name, d.Name)
	}
}

func TestLookup_UnknownNameIsAbsent(t *testing.T) {
	_, ok := Lookup("PRINT")
	assert.False(t, ok)
}

func TestDeclareExterns_RegistersEveryBuiltinOnModule(t *testing.T) {
	bd := il.NewBuilder("t")
	DeclareExterns(bd)
	mod := bd.Module()
	for name := range Table {
		ext := mod.Extern(name)
		require.NotNilf(t, ext, "extern %s was not declared", name)
		assert.Equal(t, Table[name].Result, ext.ResultType)
	}
}

func newHost(t *testing.T) *vm.HostTable {
	t.Helper()
	bd := il.NewBuilder("t")
	DeclareExterns(bd)
	host := vm.NewHostTable()
	require.NoError(t, RegisterAll(host, bd.Module()))
	return host
}

func call(t *testing.T, host *vm.HostTable, name string, args ...vm.Value) vm.Value {
	t.Helper()
	fn, _, ok := host.Lookup(name)
	require.True(t, ok)
	v, err := fn(args)
	require.NoError(t, err)
	return v
}

func TestBuiltins_StringOps(t *testing.T) {
	host := newHost(t)

	assert.Equal(t, int64(5), call(t, host, "LEN", vm.Value{S: "hello"}).I)
	assert.Equal(t, "ell", call(t, host, "MID$", vm.Value{S: "hello"}, vm.Value{I: 2}, vm.Value{I: 3}).S)
	assert.Equal(t, "A", call(t, host, "CHR$", vm.Value{I: 65}).S)
	assert.Equal(t, int64(72), call(t, host, "ASC", vm.Value{S: "Hello"}).I)
	assert.Equal(t, int64(0), call(t, host, "ASC", vm.Value{S: ""}).I)
}

func TestBuiltins_MidClampsOutOfRangeArguments(t *testing.T) {
	host := newHost(t)

	assert.Equal(t, "", call(t, host, "MID$", vm.Value{S: "hi"}, vm.Value{I: 99}, vm.Value{I: 3}).S)
	assert.Equal(t, "hi", call(t, host, "MID$", vm.Value{S: "hi"}, vm.Value{I: 1}, vm.Value{I: 50}).S)
	assert.Equal(t, "hi", call(t, host, "MID$", vm.Value{S: "hi"}, vm.Value{I: -4}, vm.Value{I: 2}).S)
}

func TestBuiltins_NumericOps(t *testing.T) {
	host := newHost(t)

	assert.Equal(t, 3.5, call(t, host, "VAL", vm.Value{S: "3.5"}).F)
	assert.Equal(t, 0.0, call(t, host, "VAL", vm.Value{S: "not-a-number"}).F)
	assert.Equal(t, "3.5", call(t, host, "STR$", vm.Value{F: 3.5}).S)
	assert.Equal(t, 3.5, call(t, host, "ABS", vm.Value{F: -3.5}).F)
	assert.Equal(t, int64(3), call(t, host, "INT", vm.Value{F: 3.9}).I)
	assert.Equal(t, int64(-4), call(t, host, "INT", vm.Value{F: -3.1}).I)
	assert.Equal(t, 3.0, call(t, host, "SQR", vm.Value{F: 9}).F)
}

func TestBuiltins_RndAndTimerReturnFloatsInRange(t *testing.T) {
	host := newHost(t)

	r := call(t, host, "RND")
	assert.GreaterOrEqual(t, r.F, 0.0)
	assert.Less(t, r.F, 1.0)
	assert.Equal(t, iltypes.F64Type, r.Typ)

	tm := call(t, host, "TIMER")
	assert.Greater(t, tm.F, 0.0)
}
