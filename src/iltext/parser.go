package iltext

import (
	"fmt"
	"strconv"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ParseError reports a syntax or semantic error found while parsing
// textual IL, with the line/column of the offending token.
type ParseError struct {
	Line, Col int
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// parser consumes a pre-lexed token slice and reconstructs an il.Module via
// il.RawBuilder, preserving literal temp ids so the round trip
// Parse(Print(m)) reproduces m's text exactly.
type parser struct {
	toks  []token
	pos   int
	rb    *il.RawBuilder
	strs  map[string]*il.Global
	nstrs int
}

// ---------------------
// ----- Functions -----
// ---------------------

// Parse lexes and parses src as a complete module named name.
func Parse(name, src string) (*il.Module, error) {
	toks, err := lexAll(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, rb: il.NewRawBuilder(name), strs: make(map[string]*il.Global)}
	if err := p.parseModule(); err != nil {
		return nil, err
	}
	return p.rb.Module(), nil
}

// lexAll scans src in full, returning every token up to and including EOF.
func lexAll(src string) ([]token, error) {
	l := newLexer(src)
	var toks []token
	for {
		t := l.nextToken()
		if t.kind == tokError {
			return nil, &ParseError{Line: t.line, Col: t.col, Msg: t.val}
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errf(format string, args ...interface{}) error {
	t := p.cur()
	return &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

// expect consumes and returns the current token if it has kind k, else
// returns a ParseError.
func (p *parser) expect(k tokenKind) (token, error) {
	if p.cur().kind != k {
		return token{}, p.errf("expected %s, got %s %q", k, p.cur().kind, p.cur().val)
	}
	return p.advance(), nil
}

// expectKeyword consumes and returns the current token if it is the
// identifier kw, else returns a ParseError.
func (p *parser) expectKeyword(kw string) error {
	if p.cur().kind != tokIdent || p.cur().val != kw {
		return p.errf("expected %q, got %q", kw, p.cur().val)
	}
	p.advance()
	return nil
}

// parseType consumes a single type-keyword identifier.
func (p *parser) parseType() (iltypes.Type, error) {
	t, err := p.expect(tokIdent)
	if err != nil {
		return iltypes.Type{}, err
	}
	typ, ok := iltypes.ParseKind(t.val)
	if !ok {
		return iltypes.Type{}, &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf("unknown type %q", t.val)}
	}
	return typ, nil
}

// parseModule parses the top level: externs, globals and functions in any
// order, matching however many of each the source contains.
func (p *parser) parseModule() error {
	for p.cur().kind != tokEOF {
		if p.cur().kind != tokIdent {
			return p.errf("expected a top-level declaration, got %q", p.cur().val)
		}
		switch p.cur().val {
		case "extern":
			if err := p.parseExtern(); err != nil {
				return err
			}
		case "global":
			if err := p.parseGlobal(); err != nil {
				return err
			}
		case "func":
			if err := p.parseFunction(); err != nil {
				return err
			}
		default:
			return p.errf("unexpected top-level keyword %q", p.cur().val)
		}
	}
	return nil
}

// parseExtern parses "extern name(type, type, ...) -> type".
func (p *parser) parseExtern() error {
	if err := p.expectKeyword("extern"); err != nil {
		return err
	}
	name, err := p.expect(tokIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return err
	}
	var params []iltypes.Type
	for p.cur().kind != tokRParen {
		if len(params) > 0 {
			if _, err := p.expect(tokComma); err != nil {
				return err
			}
		}
		t, err := p.parseType()
		if err != nil {
			return err
		}
		params = append(params, t)
	}
	p.advance() // ')'
	if err := p.expectArrow(); err != nil {
		return err
	}
	result, err := p.parseType()
	if err != nil {
		return err
	}
	p.rb.AddExtern(&il.Extern{Name: name.val, ParamTypes: params, ResultType: result})
	return nil
}

// expectArrow consumes "->".
func (p *parser) expectArrow() error {
	if p.cur().kind != tokArrow {
		return p.errf("expected \"->\", got %q", p.cur().val)
	}
	p.advance()
	return nil
}

// parseGlobal parses "global [public] [const] name: type = value".
func (p *parser) parseGlobal() error {
	if err := p.expectKeyword("global"); err != nil {
		return err
	}
	vis := il.Private
	isConst := false
	for p.cur().kind == tokIdent && (p.cur().val == "public" || p.cur().val == "const") {
		if p.cur().val == "public" {
			vis = il.Public
		} else {
			isConst = true
		}
		p.advance()
	}
	name, err := p.expect(tokIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(tokColon); err != nil {
		return err
	}
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	if _, err := p.expect(tokEquals); err != nil {
		return err
	}
	var init interface{}
	switch {
	case p.cur().kind == tokIdent && p.cur().val == "zeroinit":
		p.advance()
		init = nil
	case typ.K == iltypes.F64:
		t, err := p.expectNumber()
		if err != nil {
			return err
		}
		f, ferr := strconv.ParseFloat(t.val, 64)
		if ferr != nil {
			return p.errf("invalid float literal %q", t.val)
		}
		init = f
	case typ.K == iltypes.Str:
		t, err := p.expect(tokString)
		if err != nil {
			return err
		}
		s, uerr := unquoteString(t.val)
		if uerr != nil {
			return p.errf("%s", uerr.Error())
		}
		init = s
	default:
		t, err := p.expectNumber()
		if err != nil {
			return err
		}
		n, nerr := strconv.ParseInt(t.val, 10, 64)
		if nerr != nil {
			return p.errf("invalid integer literal %q", t.val)
		}
		init = n
	}
	p.rb.AddGlobal(&il.Global{Name: name.val, Typ: typ, Init: init, IsConst: isConst, Visibility: vis})
	return nil
}

// expectNumber consumes a (possibly negative) integer or float token.
func (p *parser) expectNumber() (token, error) {
	if p.cur().kind != tokInt && p.cur().kind != tokFloat {
		return token{}, p.errf("expected a numeric literal, got %q", p.cur().val)
	}
	return p.advance(), nil
}

// parseFunction parses "func name(name: type, ...) -> type { block* }".
func (p *parser) parseFunction() error {
	if err := p.expectKeyword("func"); err != nil {
		return err
	}
	name, err := p.expect(tokIdent)
	if err != nil {
		return err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return err
	}
	var params []il.FuncParam
	for p.cur().kind != tokRParen {
		if len(params) > 0 {
			if _, err := p.expect(tokComma); err != nil {
				return err
			}
		}
		pname, err := p.expect(tokIdent)
		if err != nil {
			return err
		}
		if _, err := p.expect(tokColon); err != nil {
			return err
		}
		typ, err := p.parseType()
		if err != nil {
			return err
		}
		params = append(params, il.FuncParam{Name: pname.val, Typ: typ})
	}
	p.advance() // ')'
	if err := p.expectArrow(); err != nil {
		return err
	}
	ret, err := p.parseType()
	if err != nil {
		return err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return err
	}
	f := p.rb.NewFunction(name.val, params, ret)
	// Parameter i is implicitly bound to Temp{ID: i} at entry (il.Builder's
	// convention), so the body may reference it as "%tN" without a
	// corresponding block parameter or instruction destination.
	tempTypes := make(map[int]iltypes.Type)
	for i, prm := range params {
		tempTypes[i] = prm.Typ
	}
	for p.cur().kind != tokRBrace {
		if err := p.parseBlock(f, tempTypes); err != nil {
			return err
		}
	}
	p.advance() // '}'
	return nil
}

// parseBlock parses one labeled block: "name[(params)]:" followed by its
// instructions, up to the next label or the function's closing brace.
func (p *parser) parseBlock(f *il.Function, tempTypes map[int]iltypes.Type) error {
	label, err := p.expect(tokIdent)
	if err != nil {
		return err
	}
	if p.rb.IsDefined(f, label.val) {
		return &ParseError{Line: label.line, Col: label.col, Msg: fmt.Sprintf("duplicate block label %q", label.val)}
	}
	b := p.rb.DefineBlock(f, label.val)
	if p.cur().kind == tokLParen {
		p.advance()
		for p.cur().kind != tokRParen {
			if len(b.Params) > 0 {
				if _, err := p.expect(tokComma); err != nil {
					return err
				}
			}
			tt, err := p.expect(tokTemp)
			if err != nil {
				return err
			}
			id, idErr := parseTempID(tt.val)
			if idErr != nil {
				return p.errf("%s", idErr.Error())
			}
			if _, err := p.expect(tokColon); err != nil {
				return err
			}
			typ, err := p.parseType()
			if err != nil {
				return err
			}
			p.rb.AddParam(b, id, "", typ)
			tempTypes[id] = typ
		}
		p.advance() // ')'
	}
	if _, err := p.expect(tokColon); err != nil {
		return err
	}
	for !p.atLabelStart() && p.cur().kind != tokRBrace {
		if err := p.parseInstr(f, b, tempTypes); err != nil {
			return err
		}
	}
	return nil
}

// atLabelStart reports whether the parser is positioned at the start of a
// new block label: an identifier directly followed by ':' or by a
// parenthesized parameter list then ':'. No instruction mnemonic is ever
// followed immediately by '(' or ':', so this lookahead is unambiguous.
func (p *parser) atLabelStart() bool {
	if p.cur().kind != tokIdent {
		return false
	}
	nxt := p.toks[p.pos+1]
	if nxt.kind == tokColon {
		return true
	}
	if nxt.kind != tokLParen {
		return false
	}
	depth := 0
	for i := p.pos + 1; i < len(p.toks); i++ {
		switch p.toks[i].kind {
		case tokLParen:
			depth++
		case tokRParen:
			depth--
			if depth == 0 {
				return i+1 < len(p.toks) && p.toks[i+1].kind == tokColon
			}
		case tokEOF:
			return false
		}
	}
	return false
}

// parseInstr parses one instruction line, including an optional
// "%tN: type = " destination prefix and an optional trailing
// `@"file":line:col` source location.
func (p *parser) parseInstr(f *il.Function, b *il.Block, tempTypes map[int]iltypes.Type) error {
	var destID int
	var destType iltypes.Type
	hasDest := false
	if p.cur().kind == tokTemp {
		tt := p.advance()
		id, err := parseTempID(tt.val)
		if err != nil {
			return p.errf("%s", err.Error())
		}
		if _, err := p.expect(tokColon); err != nil {
			return err
		}
		typ, err := p.parseType()
		if err != nil {
			return err
		}
		if _, err := p.expect(tokEquals); err != nil {
			return err
		}
		destID, destType, hasDest = id, typ, true
	}
	opTok, err := p.expect(tokIdent)
	if err != nil {
		return err
	}
	op, ok := iltypes.ParseOpcode(opTok.val)
	if !ok {
		return &ParseError{Line: opTok.line, Col: opTok.col, Msg: fmt.Sprintf("unknown opcode %q", opTok.val)}
	}
	in := &il.Instr{Op: op, Result: iltypes.VoidType}
	if hasDest {
		in.Result = destType
		d := il.Temp{ID: destID, Typ: destType}
		in.Dest = &d
	}

	switch op {
	case iltypes.Br:
		target, args, err := p.parseLabelRef(f, tempTypes)
		if err != nil {
			return err
		}
		in.Targets = []*il.Block{target}
		in.Args = [][]il.Value{args}
	case iltypes.CBr:
		cond, err := p.parseValue(tempTypes, iltypes.I1Type)
		if err != nil {
			return err
		}
		if _, err := p.expect(tokComma); err != nil {
			return err
		}
		t1, a1, err := p.parseLabelRef(f, tempTypes)
		if err != nil {
			return err
		}
		if _, err := p.expect(tokComma); err != nil {
			return err
		}
		t2, a2, err := p.parseLabelRef(f, tempTypes)
		if err != nil {
			return err
		}
		in.Operands = []il.Value{cond}
		in.Targets = []*il.Block{t1, t2}
		in.Args = [][]il.Value{a1, a2}
	case iltypes.Ret:
		if !p.atInstrEnd() {
			v, err := p.parseValue(tempTypes, f.RetType)
			if err != nil {
				return err
			}
			in.Operands = []il.Value{v}
		}
	case iltypes.Trap:
		// No operands.
	case iltypes.Call, iltypes.CallVoid:
		callee, err := p.expect(tokGlobal)
		if err != nil {
			return err
		}
		name := callee.val[1:]
		var paramTypes []iltypes.Type
		if fn := p.rb.Module().Function(name); fn != nil {
			in.Callee = fn
			paramTypes = fn.ParamTypes()
		} else if ext := p.rb.Module().Extern(name); ext != nil {
			in.Extern = ext
			paramTypes = ext.ParamTypes
		} else {
			return &ParseError{Line: callee.line, Col: callee.col, Msg: fmt.Sprintf("call to undeclared function or extern %q", name)}
		}
		if _, err := p.expect(tokLParen); err != nil {
			return err
		}
		var args []il.Value
		for p.cur().kind != tokRParen {
			if len(args) > 0 {
				if _, err := p.expect(tokComma); err != nil {
					return err
				}
			}
			hint := iltypes.VoidType
			if len(args) < len(paramTypes) {
				hint = paramTypes[len(args)]
			}
			v, err := p.parseValue(tempTypes, hint)
			if err != nil {
				return err
			}
			args = append(args, v)
		}
		p.advance() // ')'
		in.Operands = args
	default:
		cats := iltypes.Info(op).OperandCats
		var ops []il.Value
		for i := 0; i < len(cats); i++ {
			if i > 0 {
				if _, err := p.expect(tokComma); err != nil {
					return err
				}
			}
			hint := iltypes.VoidType
			if cats[i] == iltypes.CatI1 {
				hint = iltypes.I1Type
			}
			v, err := p.parseValue(tempTypes, hint)
			if err != nil {
				return err
			}
			ops = append(ops, v)
		}
		in.Operands = ops
	}

	if p.cur().kind == tokAt {
		p.advance()
		loc, err := p.parseLocation()
		if err != nil {
			return err
		}
		in.Loc = loc
	}

	p.rb.AddInstr(b, in)
	if hasDest {
		tempTypes[destID] = destType
	}
	return nil
}

// atInstrEnd reports whether the parser sits at the boundary of the
// current instruction: the start of a location suffix, the next label, or
// the function's closing brace. Used to detect "ret" with no operand.
func (p *parser) atInstrEnd() bool {
	return p.cur().kind == tokAt || p.cur().kind == tokRBrace || p.atLabelStart()
}

// parseLabelRef parses "name[(arg, arg, ...)]" as a branch target.
// tempTypes resolves the types of any already-defined temps passed as
// block-parameter arguments.
func (p *parser) parseLabelRef(f *il.Function, tempTypes map[int]iltypes.Type) (*il.Block, []il.Value, error) {
	name, err := p.expect(tokIdent)
	if err != nil {
		return nil, nil, err
	}
	target := p.rb.ForwardBlock(f, name.val)
	var args []il.Value
	if p.cur().kind == tokLParen {
		p.advance()
		for p.cur().kind != tokRParen {
			if len(args) > 0 {
				if _, err := p.expect(tokComma); err != nil {
					return nil, nil, err
				}
			}
			hint := iltypes.VoidType
			if len(args) < len(target.Params) {
				hint = target.Params[len(args)].Temp.Typ
			}
			v, err := p.parseValue(tempTypes, hint)
			if err != nil {
				return nil, nil, err
			}
			args = append(args, v)
		}
		p.advance() // ')'
	}
	return target, args, nil
}

// parseLocation parses `"file":line:col` after the '@' marker has already
// been consumed, interning the quoted file name into the Module under
// construction so its FileID matches what the printer resolved it from.
func (p *parser) parseLocation() (util.SourceLoc, error) {
	nameTok, err := p.expect(tokString)
	if err != nil {
		return util.SourceLoc{}, err
	}
	name, err := unquoteString(nameTok.val)
	if err != nil {
		return util.SourceLoc{}, p.errf("%s", err.Error())
	}
	if _, err := p.expect(tokColon); err != nil {
		return util.SourceLoc{}, err
	}
	lineTok, err := p.expect(tokInt)
	if err != nil {
		return util.SourceLoc{}, err
	}
	line, err := strconv.Atoi(lineTok.val)
	if err != nil {
		return util.SourceLoc{}, p.errf("%s", err.Error())
	}
	if _, err := p.expect(tokColon); err != nil {
		return util.SourceLoc{}, err
	}
	colTok, err := p.expect(tokInt)
	if err != nil {
		return util.SourceLoc{}, err
	}
	col, err := strconv.Atoi(colTok.val)
	if err != nil {
		return util.SourceLoc{}, p.errf("%s", err.Error())
	}
	return util.SourceLoc{FileID: p.rb.InternFile(name), Line: line, Col: col}, nil
}

// parseValue parses one operand: a temp reference, a literal constant, a
// global address reference, or "null". tempTypes resolves a "%tN"
// reference's type; it may be nil when parsing branch arguments whose
// types the verifier (not the parser) is responsible for checking against
// the target block's parameter list.
//
// hint is the expected type of the operand, or iltypes.VoidType if unknown.
// A bare integer literal is ambiguous between ConstInt and ConstBool (both
// print as plain digits), so callers that know the operand must be i1 (a
// cbr condition, a sext/zext source, an i1-typed call argument or return
// value) pass iltypes.I1Type to recover ConstBool instead of ConstInt.
func (p *parser) parseValue(tempTypes map[int]iltypes.Type, hint iltypes.Type) (il.Value, error) {
	t := p.cur()
	switch t.kind {
	case tokTemp:
		p.advance()
		id, err := parseTempID(t.val)
		if err != nil {
			return nil, p.errf("%s", err.Error())
		}
		typ := iltypes.VoidType
		if tempTypes != nil {
			if tt, ok := tempTypes[id]; ok {
				typ = tt
			}
		}
		return il.Temp{ID: id, Typ: typ}, nil
	case tokInt:
		p.advance()
		n, err := strconv.ParseInt(t.val, 10, 64)
		if err != nil {
			return nil, &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf("invalid integer literal %q", t.val)}
		}
		if hint.K == iltypes.I1 {
			if n != 0 && n != 1 {
				return nil, &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf("invalid i1 literal %q", t.val)}
			}
			return il.ConstBool{V: n != 0}, nil
		}
		return il.ConstInt{V: n}, nil
	case tokFloat:
		p.advance()
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf("invalid float literal %q", t.val)}
		}
		return il.ConstFloat{V: f}, nil
	case tokString:
		p.advance()
		s, err := unquoteString(t.val)
		if err != nil {
			return nil, &ParseError{Line: t.line, Col: t.col, Msg: err.Error()}
		}
		return il.ConstStr{G: p.internString(s)}, nil
	case tokGlobal:
		p.advance()
		name := t.val[1:]
		g := p.rb.Module().Global(name)
		if g == nil {
			return nil, &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf("reference to undeclared global %q", name)}
		}
		return il.GlobalAddr{G: g}, nil
	case tokIdent:
		if t.val == "null" {
			p.advance()
			return il.NullPtr{}, nil
		}
	}
	return nil, p.errf("expected an operand, got %q", t.val)
}

// internString returns the module-private Global backing string constant
// s, creating and caching one on first use. Anonymous string globals are
// named ".str.N" and never collide with user-declared names because those
// may not begin with '.'.
func (p *parser) internString(s string) *il.Global {
	if g, ok := p.strs[s]; ok {
		return g
	}
	g := &il.Global{Name: fmt.Sprintf(".str.%d", p.nstrs), Typ: iltypes.StrType, Init: s, IsConst: true}
	p.nstrs++
	p.strs[s] = g
	p.rb.AddGlobal(g)
	return g
}

// parseTempID parses the numeric suffix of a "%tN" token's literal text.
func parseTempID(lit string) (int, error) {
	n, err := strconv.Atoi(lit[2:])
	if err != nil {
		return 0, fmt.Errorf("malformed temp %q", lit)
	}
	return n, nil
}
