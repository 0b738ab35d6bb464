package frontend

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"basilc/src/builtins"
	"basilc/src/il/iltypes"
	"basilc/src/vm"
)

// runBasic lowers and executes src, returning everything written through
// PRINT and main's own return value.
func runBasic(t *testing.T, src string, stdin string) (string, vm.Value) {
	t.Helper()
	mod, _, err := LowerSource(src, "t.bas", "t")
	if err != nil {
		t.Fatalf("LowerSource: %v", err)
	}

	host := vm.NewHostTable()
	if err := builtins.RegisterAll(host, mod); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	var out bytes.Buffer
	env := &builtins.EnvIO{Out: &out, In: bufio.NewScanner(strings.NewReader(stdin))}
	if err := builtins.RegisterEnv(host, mod, env); err != nil {
		t.Fatalf("RegisterEnv: %v", err)
	}

	machine := vm.New(mod, host)
	exec, err := machine.Start("main", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	result, err := exec.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String(), result
}

func TestLower_PrintLiteralInteger(t *testing.T) {
	out, _ := runBasic(t, "PRINT 42\n", "")
	if out != "42\n" {
		t.Fatalf("expected %q, got %q", "42\n", out)
	}
}

func TestLower_PrintStringAndFloat(t *testing.T) {
	out, _ := runBasic(t, `PRINT "hi"
PRINT 3.5
`, "")
	if out != "hi\n3.5\n" {
		t.Fatalf("expected %q, got %q", "hi\n3.5\n", out)
	}
}

func TestLower_ArithmeticAndAssignment(t *testing.T) {
	out, _ := runBasic(t, "LET a = 2 + 3 * 4\nPRINT a\n", "")
	if out != "14\n" {
		t.Fatalf("expected %q, got %q", "14\n", out)
	}
}

func TestLower_IfThenElse(t *testing.T) {
	prog := `LET a = 5
IF a > 10 THEN
PRINT 1
ELSE
PRINT 0
END IF
`
	out, _ := runBasic(t, prog, "")
	if out != "0\n" {
		t.Fatalf("expected %q, got %q", "0\n", out)
	}
}

func TestLower_WhileLoopSumsToN(t *testing.T) {
	prog := `LET i = 0
LET sum = 0
WHILE i < 5
LET sum = sum + i
LET i = i + 1
WEND
PRINT sum
`
	out, _ := runBasic(t, prog, "")
	if out != "10\n" {
		t.Fatalf("expected %q, got %q", "10\n", out)
	}
}

func TestLower_LogicalAndOr(t *testing.T) {
	prog := `IF 1 = 1 AND 2 = 2 THEN
PRINT 1
END IF
IF 1 = 2 OR 2 = 2 THEN
PRINT 2
END IF
IF NOT (1 = 2) THEN
PRINT 3
END IF
`
	out, _ := runBasic(t, prog, "")
	if out != "1\n2\n3\n" {
		t.Fatalf("expected %q, got %q", "1\n2\n3\n", out)
	}
}

func TestLower_ArrayStoreAndLoad(t *testing.T) {
	prog := `DIM a(3)
LET a(0) = 10
LET a(1) = 20
PRINT a(0) + a(1)
`
	out, _ := runBasic(t, prog, "")
	if out != "30\n" {
		t.Fatalf("expected %q, got %q", "30\n", out)
	}
}

func TestLower_FunctionCallReturnsValue(t *testing.T) {
	prog := `FUNCTION square(x)
RETURN x * x
END FUNCTION
PRINT square(6)
`
	out, _ := runBasic(t, prog, "")
	if out != "36\n" {
		t.Fatalf("expected %q, got %q", "36\n", out)
	}
}

func TestLower_SubCallIsVoid(t *testing.T) {
	prog := `SUB greet(n)
PRINT n
END SUB
greet(7)
`
	out, _ := runBasic(t, prog, "")
	if out != "7\n" {
		t.Fatalf("expected %q, got %q", "7\n", out)
	}
}

func TestLower_BuiltinStringFunctions(t *testing.T) {
	prog := `LET s$ = "hello"
PRINT LEN(s$)
PRINT MID$(s$, 2, 3)
`
	out, _ := runBasic(t, prog, "")
	if out != "5\nell\n" {
		t.Fatalf("expected %q, got %q", "5\nell\n", out)
	}
}

func TestLower_InputReadsFromEnv(t *testing.T) {
	prog := `INPUT n
PRINT n + 1
`
	out, _ := runBasic(t, prog, "41\n")
	if out != "42\n" {
		t.Fatalf("expected %q, got %q", "42\n", out)
	}
}

func TestLower_StringComparisonIsRejected(t *testing.T) {
	_, _, err := LowerSource(`LET a$ = "a"
LET b$ = "b"
IF a$ = b$ THEN
PRINT 1
END IF
`, "t.bas", "t")
	if err == nil {
		t.Fatal("expected a lowering error comparing two strings")
	}
}

func TestLower_UndeclaredFunctionCallIsRejected(t *testing.T) {
	_, _, err := LowerSource("PRINT NoSuchThing(1)\n", "t.bas", "t")
	if err == nil {
		t.Fatal("expected a lowering error for an unresolved call")
	}
}

func TestLower_MainReturnsZeroWhenNoExplicitReturn(t *testing.T) {
	_, result := runBasic(t, "PRINT 1\n", "")
	if result.Typ != iltypes.I64Type || result.I != 0 {
		t.Fatalf("expected a zero I64 result, got %#v", result)
	}
}
