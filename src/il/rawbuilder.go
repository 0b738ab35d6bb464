package il

import "basilc/src/il/iltypes"

// RawBuilder is a low-level construction API used only by src/iltext's
// parser. Unlike Builder, which auto-assigns dense ids and panics on
// invariant violations the way the front end must never trigger them,
// RawBuilder reproduces literal temp ids parsed straight out of textual
// IL, so that printing a parsed Module reproduces the exact same temp
// numbering (spec.md §8 property 1) instead of renumbering everything
// through Builder's sequential counters. Block ids are never printed, so
// RawBuilder only has to get block *order* right, not their internal id.
type RawBuilder struct {
	m       *Module
	pending map[*Function]map[string]*Block
}

// NewRawBuilder returns a RawBuilder constructing a fresh Module named
// name.
func NewRawBuilder(name string) *RawBuilder {
	return &RawBuilder{m: NewModule(name), pending: make(map[*Function]map[string]*Block)}
}

// Module returns the Module under construction.
func (r *RawBuilder) Module() *Module {
	return r.m
}

// AddExtern registers e in declaration order.
func (r *RawBuilder) AddExtern(e *Extern) {
	r.m.addExtern(e)
}

// AddGlobal registers g in declaration order.
func (r *RawBuilder) AddGlobal(g *Global) {
	r.m.addGlobal(g)
}

// NewFunction registers a new, body-less Function and returns it.
func (r *RawBuilder) NewFunction(name string, params []FuncParam, ret iltypes.Type) *Function {
	f := &Function{Name: name, Params: params, RetType: ret, blockIdx: make(map[string]*Block)}
	f.nextTemp = len(params)
	r.m.addFunction(f)
	return f
}

// ForwardBlock returns the Block named name in f, creating an unordered
// placeholder if it has not been textually defined yet (a branch to a
// block whose label appears later in the source). The placeholder is not
// yet appended to f.Blocks; DefineBlock moves it into place once its label
// line is reached.
func (r *RawBuilder) ForwardBlock(f *Function, name string) *Block {
	if b, ok := f.blockIdx[name]; ok {
		return b
	}
	if p, ok := r.pending[f]; ok {
		if b, ok := p[name]; ok {
			return b
		}
	}
	b := &Block{name: name, fn: f}
	if r.pending[f] == nil {
		r.pending[f] = make(map[string]*Block)
	}
	r.pending[f][name] = b
	return b
}

// DefineBlock returns the Block named name in f, appending it to f.Blocks
// in the position its label line occurs at. If name was already referenced
// by a forward branch, the same Block object (via ForwardBlock) is reused
// and promoted; otherwise a fresh Block is created.
func (r *RawBuilder) DefineBlock(f *Function, name string) *Block {
	if b, ok := f.blockIdx[name]; ok {
		return b // Already defined; caller's duplicate-label check runs before this.
	}
	var b *Block
	if p, ok := r.pending[f]; ok {
		if pb, ok := p[name]; ok {
			b = pb
			delete(p, name)
		}
	}
	if b == nil {
		b = &Block{name: name, fn: f}
	}
	b.ID = f.nextBlockID()
	f.Blocks = append(f.Blocks, b)
	f.blockIdx[name] = b
	return b
}

// IsDefined returns true if name already has a promoted (non-pending)
// block in f.
func (r *RawBuilder) IsDefined(f *Function, name string) bool {
	_, ok := f.blockIdx[name]
	return ok
}

// AddParam appends a formal parameter with the literal temp id id to b.
func (r *RawBuilder) AddParam(b *Block, id int, name string, typ iltypes.Type) *Param {
	p := &Param{Temp: Temp{ID: id, Typ: typ}, Name: name}
	b.Params = append(b.Params, p)
	if id >= b.fn.nextTemp {
		b.fn.nextTemp = id + 1
	}
	return p
}

// InternFile returns the FileID for name in the Module under construction,
// assigning one if name has not been seen yet. Used when reparsing a
// "@file:line:col" location suffix, so a location's file name round-trips
// through the same FileTable the original Module printed it from.
func (r *RawBuilder) InternFile(name string) int {
	return r.m.Files.Intern(name)
}

// AddInstr appends in (already fully populated, including Dest if any) to
// b's instruction list.
func (r *RawBuilder) AddInstr(b *Block, in *Instr) {
	in.block = b
	b.Instrs = append(b.Instrs, in)
	if in.Dest != nil && in.Dest.ID >= b.fn.nextTemp {
		b.fn.nextTemp = in.Dest.ID + 1
	}
}
