package frontend

import "strings"

type reservedItem struct {
	val string
	typ itemType
}

// rw contains the set of all reserved BASIC keywords, matched
// case-insensitively. The first dimension is the length of the word minus
// one (index 0 holds the one-letter words).
// The second dimension is the slice of all words of that length.
// Indexing by length and searching should be faster than using a hash
// table for a keyword set this small.
var rw = [...][]reservedItem{
	// One-grams
	{},
	// Two-grams
	{
		{val: "if", typ: IF},
		{val: "or", typ: OR},
	},
	// Three-grams
	{
		{val: "let", typ: LET},
		{val: "end", typ: END},
		{val: "sub", typ: SUB},
		{val: "dim", typ: DIM},
		{val: "and", typ: AND},
		{val: "mod", typ: MOD},
		{val: "not", typ: NOT},
	},
	// Four-grams
	{
		{val: "then", typ: THEN},
		{val: "else", typ: ELSE},
		{val: "wend", typ: WEND},
	},
	// Five-grams
	{
		{val: "while", typ: WHILE},
		{val: "print", typ: PRINT},
		{val: "input", typ: INPUT},
	},
	// Six-grams
	{
		{val: "return", typ: RETURN},
	},
	// Seven-grams
	{},
	// Eight-grams
	{
		{val: "function", typ: FUNCTION},
	},
}

// isKeyword returns true if the string s is a reserved BASIC keyword,
// matched without regard to case (BASIC source conventionally mixes
// "If"/"IF"/"if" freely). On true the itemType of the keyword is
// returned; on false the itemType is IDENTIFIER (itemError for an empty
// string).
func isKeyword(s string) (bool, itemType) {
	if len(s) == 0 {
		return false, itemError
	}
	if len(s) > len(rw) {
		return false, IDENTIFIER
	}
	lower := strings.ToLower(s)
	for _, e := range rw[len(s)-1] {
		if e.val == lower {
			return true, e.typ
		}
	}
	return false, IDENTIFIER
}
