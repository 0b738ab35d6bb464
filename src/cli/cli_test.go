package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/iltext"
	"basilc/src/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeAddOneIL writes a minimal "addOne" module to dir/name.il via the
// canonical printer (rather than hand-written IL text) and returns its
// path, the same round-trip-through-the-printer approach verify_test.go's
// sibling packages use to build fixtures.
func writeAddOneIL(t *testing.T, dir, name string) string {
	t.Helper()
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", nil, iltypes.I64Type)
	bd.CreateBlock("entry")
	sum := bd.CreateAdd(il.ConstInt{V: 1}, il.ConstInt{V: 1}, util.SourceLoc{})
	bd.CreateRet(sum, util.SourceLoc{})
	mod := bd.Module()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(iltext.Print(mod)), 0o644))
	return path
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCommand()
	var out, errw bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errw)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errw.String(), err
}

func TestILVerify_CleanModuleReportsOK(t *testing.T) {
	path := writeAddOneIL(t, t.TempDir(), "clean.il")
	out, _, err := runCmd(t, "il-verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestILDis_RoundTripsThroughThePrinter(t *testing.T) {
	path := writeAddOneIL(t, t.TempDir(), "clean.il")
	out, _, err := runCmd(t, "il-dis", path)
	require.NoError(t, err)
	assert.Contains(t, out, "@main")
	assert.Contains(t, out, "ret")
}

func TestILDis_StatsFlagPrintsCounts(t *testing.T) {
	path := writeAddOneIL(t, t.TempDir(), "clean.il")
	out, _, err := runCmd(t, "il-dis", "--stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[STATS] fn=@main")
}

func TestILOpt_RunsDefaultPipelineAndPrintsResult(t *testing.T) {
	dir := t.TempDir()
	in := writeAddOneIL(t, dir, "in.il")
	outPath := filepath.Join(dir, "out.il")
	_, stderr, err := runCmd(t, "il-opt", in, "-o", outPath)
	require.NoError(t, err, stderr)
	assert.FileExists(t, outPath)
}

func TestILOpt_NoMem2RegSkipsThatPass(t *testing.T) {
	dir := t.TempDir()
	in := writeAddOneIL(t, dir, "in.il")
	out, stderr, err := runCmd(t, "il-opt", in, "--no-mem2reg", "--mem2reg-stats")
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "[MEM2REG] allocas=0 loads=0 stores=0")
}

func TestRun_ExecutesMainAndExitsZero(t *testing.T) {
	path := writeAddOneIL(t, t.TempDir(), "clean.il")
	_, stderr, err := runCmd(t, "run", path)
	assert.NoError(t, err, stderr)
}

func TestRun_VerifyFailureExitsNonZero(t *testing.T) {
	bd := il.NewBuilder("t")
	bd.DeclareFunction("main", nil, iltypes.VoidType)
	bd.CreateBlock("entry")
	bd.CreateAdd(il.ConstInt{V: 1}, il.ConstInt{V: 2}, util.SourceLoc{})
	mod := bd.Module()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.il")
	require.NoError(t, os.WriteFile(path, []byte(iltext.Print(mod)), 0o644))

	_, _, err := runCmd(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, 1, err.(exitError).code)
}
