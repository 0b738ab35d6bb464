package iltypes

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Opcode identifies the operation an Instr performs. Opcode is the single
// source of truth consulted by the builder (src/il), the verifier
// (src/verify) and the optimizer passes (src/pass): a new opcode becomes
// verified solely by adding an entry to opcodeTable, per spec.md §4.5.
type Opcode uint8

// TypeCategory generalizes Type for the purposes of the opcode metadata
// table. Most opcodes pin an exact Type; a few (bitcast, the untyped
// result of calls) are polymorphic and use CatAny/CatNumeric/CatInteger.
type TypeCategory uint8

// OpcodeInfo is one row of the opcode metadata table.
type OpcodeInfo struct {
	Name          string         // Name is the textual IL mnemonic.
	OperandCats   []TypeCategory // OperandCats is the expected category of each fixed operand. Empty for variable-arity opcodes (call/callvoid/br/cbr/ret).
	Result        TypeCategory   // Result is the category of the produced value, or CatVoid if the opcode produces nothing.
	Terminator    bool           // Terminator is true if the opcode may only appear as the last instruction of a block.
	SideEffect    bool           // SideEffect is true if the opcode must not be removed even when its result is unused.
	VariableArity bool           // VariableArity is true for call/callvoid/br/cbr/ret, whose operand count is determined by the callee/targets rather than a fixed vector.
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	// Arithmetic (integer).
	Add Opcode = iota
	Sub
	Mul
	SDiv
	UDiv
	SRem
	URem
	// Arithmetic (float).
	FAdd
	FSub
	FMul
	FDiv
	// Bitwise.
	And
	Or
	Xor
	Shl
	Lshr
	Ashr
	Not // Unary bitwise complement.
	Neg // Unary arithmetic negate (integer or float).
	// Integer comparisons, result I1.
	ICmpEq
	ICmpNe
	ICmpSlt
	ICmpSle
	ICmpSgt
	ICmpSge
	ICmpUlt
	ICmpUle
	ICmpUgt
	ICmpUge
	// Float comparisons, result I1.
	FCmpEq
	FCmpNe
	FCmpLt
	FCmpLe
	FCmpGt
	FCmpGe
	// Conversions.
	Sext
	Zext
	Trunc
	SitoFp
	FptoSi
	Bitcast
	// Memory.
	Alloca
	Load
	Store
	// Calls.
	Call
	CallVoid
	// Terminators.
	Br
	CBr
	Ret
	Trap

	opcodeCount
)

// TypeCategory values.
const (
	CatVoid    TypeCategory = iota // No value (terminators, store, callvoid).
	CatI1                          // Exactly I1.
	CatI64                         // Exactly I64.
	CatF64                         // Exactly F64.
	CatPtr                         // Exactly Ptr.
	CatStr                         // Exactly Str.
	CatNumeric                     // I64 or F64.
	CatInteger                     // I1 or I64.
	CatAny                         // Any Type (bitcast source, call argument/result checked structurally instead).
)

// -------------------
// ----- Globals -----
// -------------------

// opcodeTable is the single source of truth for opcode arity, operand
// categories, result category, terminator-ness and side effects.
var opcodeTable = [opcodeCount]OpcodeInfo{
	Add:  {Name: "add", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64},
	Sub:  {Name: "sub", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64},
	Mul:  {Name: "mul", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64},
	SDiv: {Name: "sdiv", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64, SideEffect: true},
	UDiv: {Name: "udiv", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64, SideEffect: true},
	SRem: {Name: "srem", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64, SideEffect: true},
	URem: {Name: "urem", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64, SideEffect: true},

	FAdd: {Name: "fadd", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatF64},
	FSub: {Name: "fsub", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatF64},
	FMul: {Name: "fmul", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatF64},
	FDiv: {Name: "fdiv", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatF64},

	And:  {Name: "and", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64},
	Or:   {Name: "or", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64},
	Xor:  {Name: "xor", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64},
	Shl:  {Name: "shl", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64},
	Lshr: {Name: "lshr", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64},
	Ashr: {Name: "ashr", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI64},
	Not:  {Name: "not", OperandCats: []TypeCategory{CatI64}, Result: CatI64},
	Neg:  {Name: "neg", OperandCats: []TypeCategory{CatNumeric}, Result: CatNumeric},

	ICmpEq:  {Name: "icmp_eq", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},
	ICmpNe:  {Name: "icmp_ne", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},
	ICmpSlt: {Name: "icmp_slt", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},
	ICmpSle: {Name: "icmp_sle", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},
	ICmpSgt: {Name: "icmp_sgt", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},
	ICmpSge: {Name: "icmp_sge", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},
	ICmpUlt: {Name: "icmp_ult", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},
	ICmpUle: {Name: "icmp_ule", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},
	ICmpUgt: {Name: "icmp_ugt", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},
	ICmpUge: {Name: "icmp_uge", OperandCats: []TypeCategory{CatI64, CatI64}, Result: CatI1},

	FCmpEq: {Name: "fcmp_eq", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatI1},
	FCmpNe: {Name: "fcmp_ne", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatI1},
	FCmpLt: {Name: "fcmp_lt", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatI1},
	FCmpLe: {Name: "fcmp_le", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatI1},
	FCmpGt: {Name: "fcmp_gt", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatI1},
	FCmpGe: {Name: "fcmp_ge", OperandCats: []TypeCategory{CatF64, CatF64}, Result: CatI1},

	Sext:    {Name: "sext", OperandCats: []TypeCategory{CatI1}, Result: CatI64},
	Zext:    {Name: "zext", OperandCats: []TypeCategory{CatI1}, Result: CatI64},
	Trunc:   {Name: "trunc", OperandCats: []TypeCategory{CatI64}, Result: CatI1},
	SitoFp:  {Name: "sitofp", OperandCats: []TypeCategory{CatI64}, Result: CatF64},
	FptoSi:  {Name: "fptosi", OperandCats: []TypeCategory{CatF64}, Result: CatI64},
	Bitcast: {Name: "bitcast", OperandCats: []TypeCategory{CatAny}, Result: CatAny},

	Alloca: {Name: "alloca", OperandCats: []TypeCategory{CatI64}, Result: CatPtr, SideEffect: true},
	Load:   {Name: "load", OperandCats: []TypeCategory{CatPtr}, Result: CatAny, SideEffect: true},
	Store:  {Name: "store", OperandCats: []TypeCategory{CatAny, CatPtr}, Result: CatVoid, SideEffect: true},

	Call:     {Name: "call", Result: CatAny, SideEffect: true, VariableArity: true},
	CallVoid: {Name: "callvoid", Result: CatVoid, SideEffect: true, VariableArity: true},

	Br:   {Name: "br", Result: CatVoid, Terminator: true, SideEffect: true, VariableArity: true},
	CBr:  {Name: "cbr", Result: CatVoid, Terminator: true, SideEffect: true, VariableArity: true},
	Ret:  {Name: "ret", Result: CatVoid, Terminator: true, SideEffect: true, VariableArity: true},
	Trap: {Name: "trap", Result: CatVoid, Terminator: true, SideEffect: true},
}

// ---------------------
// ----- Functions -----
// ---------------------

// Info returns the OpcodeInfo row for Opcode op. It panics if op is not a
// valid member of the opcode table: an unrecognized opcode is a compiler
// bug, never user input (parser and builder both reject unknown mnemonics
// before constructing an Opcode value).
func Info(op Opcode) OpcodeInfo {
	if op >= opcodeCount {
		panic(fmt.Sprintf("iltypes: opcode %d out of range", op))
	}
	return opcodeTable[op]
}

// String returns the textual IL mnemonic for Opcode op.
func (op Opcode) String() string {
	return Info(op).Name
}

// IsTerminator returns true if op may only appear as a block's final
// instruction.
func (op Opcode) IsTerminator() bool {
	return Info(op).Terminator
}

// HasSideEffect returns true if an instruction with opcode op must be kept
// even when its result, if any, is unused.
func (op Opcode) HasSideEffect() bool {
	return Info(op).SideEffect
}

// ParseOpcode returns the Opcode named by s, and true if s names a known
// opcode.
func ParseOpcode(s string) (Opcode, bool) {
	for i := Opcode(0); i < opcodeCount; i++ {
		if opcodeTable[i].Name == s {
			return i, true
		}
	}
	return 0, false
}

// Matches returns true if Type t satisfies TypeCategory c.
func (c TypeCategory) Matches(t Type) bool {
	switch c {
	case CatAny:
		return true
	case CatNumeric:
		return t.IsNumeric()
	case CatInteger:
		return t.IsInteger()
	case CatI1:
		return t.K == I1
	case CatI64:
		return t.K == I64
	case CatF64:
		return t.K == F64
	case CatPtr:
		return t.K == Ptr
	case CatStr:
		return t.K == Str
	case CatVoid:
		return t.K == Void
	}
	return false
}

// String returns a human-readable name for TypeCategory c, used in
// diagnostics.
func (c TypeCategory) String() string {
	switch c {
	case CatVoid:
		return "void"
	case CatI1:
		return "i1"
	case CatI64:
		return "i64"
	case CatF64:
		return "f64"
	case CatPtr:
		return "ptr"
	case CatStr:
		return "str"
	case CatNumeric:
		return "numeric"
	case CatInteger:
		return "integer"
	case CatAny:
		return "any"
	}
	return "invalid"
}
