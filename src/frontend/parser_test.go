package frontend

import "testing"

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src, 0)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return prog
}

func TestParser_LetAssignsScalar(t *testing.T) {
	prog := mustParse(t, "LET a = 1 + 2\n")
	if len(prog.Main) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Main))
	}
	let, ok := prog.Main[0].(*LetStmt)
	if !ok {
		t.Fatalf("expected *LetStmt, got %T", prog.Main[0])
	}
	if let.Name != "a" || let.Index != nil {
		t.Errorf("unexpected LetStmt: %+v", let)
	}
	bin, ok := let.Value.(*BinaryExpr)
	if !ok || bin.Op != PLUS {
		t.Fatalf("expected a PLUS BinaryExpr, got %#v", let.Value)
	}
}

func TestParser_BareAssignmentWithoutLetKeyword(t *testing.T) {
	prog := mustParse(t, "a = 1\n")
	if _, ok := prog.Main[0].(*LetStmt); !ok {
		t.Fatalf("expected *LetStmt, got %T", prog.Main[0])
	}
}

func TestParser_ArrayIndexAssignmentVsCallStatement(t *testing.T) {
	prog := mustParse(t, "a(1) = 2\nDoThing(1, 2)\n")
	let, ok := prog.Main[0].(*LetStmt)
	if !ok || let.Index == nil {
		t.Fatalf("expected an indexed LetStmt, got %#v", prog.Main[0])
	}
	call, ok := prog.Main[1].(*CallStmt)
	if !ok || call.Call.Name != "DoThing" || len(call.Call.Args) != 2 {
		t.Fatalf("expected a 2-arg CallStmt, got %#v", prog.Main[1])
	}
}

func TestParser_IfThenElseEndIf(t *testing.T) {
	prog := mustParse(t, "IF a < 10 THEN\nPRINT a\nELSE\nPRINT 0\nEND IF\n")
	ifs, ok := prog.Main[0].(*IfStmt)
	if !ok {
		t.Fatalf("expected *IfStmt, got %T", prog.Main[0])
	}
	if len(ifs.Then) != 1 || len(ifs.Else) != 1 {
		t.Fatalf("expected 1 statement in each branch, got then=%d else=%d", len(ifs.Then), len(ifs.Else))
	}
	rel, ok := ifs.Cond.(*BinaryExpr)
	if !ok || rel.Op != LT {
		t.Fatalf("expected an LT condition, got %#v", ifs.Cond)
	}
}

func TestParser_WhileWend(t *testing.T) {
	prog := mustParse(t, "WHILE a < 10\nLET a = a + 1\nWEND\n")
	wh, ok := prog.Main[0].(*WhileStmt)
	if !ok || len(wh.Body) != 1 {
		t.Fatalf("expected a 1-statement WhileStmt, got %#v", prog.Main[0])
	}
}

func TestParser_SubAndFunctionDeclarations(t *testing.T) {
	prog := mustParse(t, "SUB greet(name$)\nPRINT name$\nEND SUB\nFUNCTION double#(x#)\nRETURN x# * 2\nEND FUNCTION\n")
	if len(prog.Subs) != 1 || prog.Subs[0].Name != "greet" || len(prog.Subs[0].Params) != 1 {
		t.Fatalf("unexpected Subs: %#v", prog.Subs)
	}
	if len(prog.Funcs) != 1 || prog.Funcs[0].Name != "double#" {
		t.Fatalf("unexpected Funcs: %#v", prog.Funcs)
	}
	ret, ok := prog.Funcs[0].Body[0].(*ReturnStmt)
	if !ok || ret.Value == nil {
		t.Fatalf("expected a RETURN with a value, got %#v", prog.Funcs[0].Body[0])
	}
}

func TestParser_ExpressionPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3), not (1 + 2) * 3.
	prog := mustParse(t, "LET a = 1 + 2 * 3\n")
	let := prog.Main[0].(*LetStmt)
	add, ok := let.Value.(*BinaryExpr)
	if !ok || add.Op != PLUS {
		t.Fatalf("expected top-level PLUS, got %#v", let.Value)
	}
	mul, ok := add.Right.(*BinaryExpr)
	if !ok || mul.Op != STAR {
		t.Fatalf("expected right operand to be a STAR, got %#v", add.Right)
	}
}

func TestParser_LogicalAndRelationalPrecedence(t *testing.T) {
	prog := mustParse(t, "IF a < 1 AND b > 2 THEN\nPRINT 1\nEND IF\n")
	ifs := prog.Main[0].(*IfStmt)
	and, ok := ifs.Cond.(*BinaryExpr)
	if !ok || and.Op != AND {
		t.Fatalf("expected a top-level AND, got %#v", ifs.Cond)
	}
	if _, ok := and.Left.(*BinaryExpr); !ok {
		t.Fatalf("expected left operand of AND to be relational, got %#v", and.Left)
	}
}

func TestParser_ParenthesizedExpression(t *testing.T) {
	prog := mustParse(t, "LET a = (1 + 2) * 3\n")
	let := prog.Main[0].(*LetStmt)
	mul, ok := let.Value.(*BinaryExpr)
	if !ok || mul.Op != STAR {
		t.Fatalf("expected top-level STAR, got %#v", let.Value)
	}
	if _, ok := mul.Left.(*BinaryExpr); !ok {
		t.Fatalf("expected left operand to be the parenthesized PLUS, got %#v", mul.Left)
	}
}

func TestParser_SyntaxErrorIsReported(t *testing.T) {
	_, err := Parse("LET a = \n", 0)
	if err == nil {
		t.Fatal("expected a syntax error for a missing expression")
	}
}

func TestParser_InputStatement(t *testing.T) {
	prog := mustParse(t, "INPUT n\n")
	in, ok := prog.Main[0].(*InputStmt)
	if !ok || in.Name != "n" {
		t.Fatalf("expected InputStmt{Name: n}, got %#v", prog.Main[0])
	}
}

func TestParser_DimWithAndWithoutSize(t *testing.T) {
	prog := mustParse(t, "DIM scores(10)\nDIM total\n")
	d1 := prog.Main[0].(*DimStmt)
	if d1.Name != "scores" || d1.Size == nil {
		t.Fatalf("expected a sized DimStmt, got %#v", d1)
	}
	d2 := prog.Main[1].(*DimStmt)
	if d2.Name != "total" || d2.Size != nil {
		t.Fatalf("expected an unsized DimStmt, got %#v", d2)
	}
}
