// Tests the lexer by verifying that a short sample BASIC program is
// tokenized properly.
//
// The expected token sequence was hand-transcribed from the source text
// below. It is expected that the lexer output tokens in the same order as
// the tuple slice, as it traverses the source string from start to finish.

package frontend

import "testing"

const sample = `LET a = 1
IF a < 10 THEN
  PRINT "hi", a
END IF
`

func TestLexer(t *testing.T) {
	exp := []item{
		{val: "LET", typ: LET, line: 1, pos: 1},
		{val: "a", typ: IDENTIFIER, line: 1, pos: 5},
		{val: "=", typ: EQ, line: 1, pos: 7},
		{val: "1", typ: INTEGER, line: 1, pos: 9},
		{val: "\n", typ: NEWLINE, line: 1, pos: 10},
		{val: "IF", typ: IF, line: 2, pos: 1},
		{val: "a", typ: IDENTIFIER, line: 2, pos: 4},
		{val: "<", typ: LT, line: 2, pos: 6},
		{val: "10", typ: INTEGER, line: 2, pos: 8},
		{val: "THEN", typ: THEN, line: 2, pos: 11},
		{val: "\n", typ: NEWLINE, line: 2, pos: 15},
		{val: "PRINT", typ: PRINT, line: 3, pos: 3},
		{val: "hi", typ: STRING, line: 3, pos: 10},
		{val: ",", typ: COMMA, line: 3, pos: 13},
		{val: "a", typ: IDENTIFIER, line: 3, pos: 15},
		{val: "\n", typ: NEWLINE, line: 3, pos: 16},
		{val: "END", typ: END, line: 4, pos: 1},
		{val: "IF", typ: IF, line: 4, pos: 5},
		{val: "\n", typ: NEWLINE, line: 4, pos: 7},
	}

	l := newLexer(sample, lexGlobal)
	go l.run()

	for i, want := range exp {
		tok := l.nextItem()
		if tok.typ == itemEOF {
			t.Fatalf("expected %d tokens, got %d before EOF", len(exp), i)
		}
		if tok.typ != want.typ {
			t.Errorf("token %d: expected type %s, got %s (val %q)", i, want.typ, tok.typ, tok.val)
			continue
		}
		if tok.typ != NEWLINE && tok.val != want.val {
			t.Errorf("token %d: expected value %q, got %q", i, want.val, tok.val)
		}
	}

	if tok := l.nextItem(); tok.typ != itemEOF {
		t.Errorf("expected EOF after %d tokens, got %s", len(exp), tok.typ)
	}
}

func TestLexer_SigilsAreCarriedOnTheIdentifier(t *testing.T) {
	l := newLexer(`x$ y# z%`, lexGlobal)
	go l.run()

	for _, want := range []string{"x$", "y#", "z%"} {
		tok := l.nextItem()
		if tok.typ != IDENTIFIER || tok.val != want {
			t.Fatalf("expected IDENTIFIER %q, got %s %q", want, tok.typ, tok.val)
		}
	}
}

func TestLexer_LineCommentRunsToEndOfLine(t *testing.T) {
	l := newLexer("LET a = 1 ' a trailing remark\nLET b = 2", lexGlobal)
	go l.run()

	var kinds []itemType
	for {
		tok := l.nextItem()
		if tok.typ == itemEOF {
			break
		}
		kinds = append(kinds, tok.typ)
	}
	want := []itemType{LET, IDENTIFIER, EQ, INTEGER, NEWLINE, LET, IDENTIFIER, EQ, INTEGER}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}
