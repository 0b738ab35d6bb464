package frontend

import "basilc/src/util"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Program is a parsed BASIC source file: an ordered list of top-level
// statements plus any SUB/FUNCTION declarations collected separately, so
// lower.go can declare every callee before lowering any call site.
type Program struct {
	Subs  []*SubDecl
	Funcs []*FuncDecl
	Main  []Stmt
}

// Stmt is any BASIC statement.
type Stmt interface {
	stmtNode()
	Loc() util.SourceLoc
}

// Expr is any BASIC expression.
type Expr interface {
	exprNode()
	Loc() util.SourceLoc
}

type base struct{ loc util.SourceLoc }

func (b base) Loc() util.SourceLoc { return b.loc }

// LetStmt assigns Value to a scalar variable (Index == nil) or one
// element of an array variable (Index != nil): "LET x = expr" or
// "LET a(i) = expr". The "LET" keyword itself is optional at parse time.
type LetStmt struct {
	base
	Name  string
	Index Expr
	Value Expr
}

func (*LetStmt) stmtNode() {}

// IfStmt is "IF cond THEN ... [ELSE ...] END IF".
type IfStmt struct {
	base
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (*IfStmt) stmtNode() {}

// WhileStmt is "WHILE cond ... WEND".
type WhileStmt struct {
	base
	Cond Expr
	Body []Stmt
}

func (*WhileStmt) stmtNode() {}

// PrintStmt is "PRINT expr [, expr ...]".
type PrintStmt struct {
	base
	Args []Expr
}

func (*PrintStmt) stmtNode() {}

// InputStmt is "INPUT name": reads one value through the VM's env extern
// into the named variable.
type InputStmt struct {
	base
	Name string
}

func (*InputStmt) stmtNode() {}

// DimStmt declares a variable, scalar (Size == nil) or array (Size gives
// its element count).
type DimStmt struct {
	base
	Name string
	Size Expr
}

func (*DimStmt) stmtNode() {}

// ReturnStmt is "RETURN expr" inside a FUNCTION, or bare "RETURN" inside
// a SUB.
type ReturnStmt struct {
	base
	Value Expr // nil for a SUB's bare RETURN.
}

func (*ReturnStmt) stmtNode() {}

// CallStmt is a SUB call used as a statement, its result (if any)
// discarded: "name(args)" on its own line.
type CallStmt struct {
	base
	Call *CallExpr
}

func (*CallStmt) stmtNode() {}

// SubDecl is "SUB name(params) ... END SUB": no return value.
type SubDecl struct {
	base
	Name   string
	Params []string
	Body   []Stmt
}

// FuncDecl is "FUNCTION name(params) ... END FUNCTION": returns a value
// via ReturnStmt.
type FuncDecl struct {
	base
	Name   string
	Params []string
	Body   []Stmt
}

// Ident is a variable reference.
type Ident struct {
	base
	Name string
}

func (*Ident) exprNode() {}

// IntLit is an integer literal.
type IntLit struct {
	base
	Value int64
}

func (*IntLit) exprNode() {}

// FloatLit is a floating point literal.
type FloatLit struct {
	base
	Value float64
}

func (*FloatLit) exprNode() {}

// StrLit is a string literal.
type StrLit struct {
	base
	Value string
}

func (*StrLit) exprNode() {}

// BinaryExpr is a binary arithmetic, relational or logical expression.
// Op is one of PLUS, MINUS, STAR, SLASH, MOD, EQ, NE, LT, LE, GT, GE,
// AND, OR.
type BinaryExpr struct {
	base
	Op    itemType
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is a unary expression. Op is one of MINUS, NOT.
type UnaryExpr struct {
	base
	Op      itemType
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// CallExpr is "name(args)": a call to a builtin or a user-defined
// FUNCTION/SUB, or (when name resolves to an array variable instead) an
// array element read. The grammar cannot tell these apart without a
// symbol table, so lower.go makes that decision once it has one.
type CallExpr struct {
	base
	Name string
	Args []Expr
}

func (*CallExpr) exprNode() {}
