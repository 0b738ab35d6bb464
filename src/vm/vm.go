// Package vm implements the IL interpreter (spec.md §4.7): a single-
// threaded, strictly sequential stack/register machine that executes a
// verified il.Module one instruction at a time, exposing a Step boundary at
// every instruction so src/debug can halt, trace and resume without any
// hidden task or continuation (spec.md §9 "debugging without coroutines").
package vm

import (
	"encoding/binary"
	"fmt"

	"basilc/src/il"
	"basilc/src/il/iltypes"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Hook is called before every instruction fires. Returning true halts
// execution immediately before the instruction runs, leaving all state
// (frames, register files, instruction pointer) untouched so a later call
// to Execution.Step resumes exactly there (spec.md §4.8 breakpoints).
type Hook func(fr *Frame, in *il.Instr) bool

// VM owns the shared, read-only state of one execution: the module, the
// registered host (extern) functions, the byte-addressable memory arena
// backing every alloca and global, and the string table backing Str
// values: everything needed to run the IL directly, with no native
// code generation in between.
type VM struct {
	Module *il.Module
	Host   *HostTable
	Hook   Hook

	// MaxSteps, if nonzero, traps with TrapStepLimit once this many
	// instructions have retired (spec.md's "--max-steps" supplement,
	// SPEC_FULL.md §5.2), bounding runaway scripted-debug sessions.
	MaxSteps int

	mem        []byte
	strings    []string
	strIdx     map[string]int
	globalAddr map[string]uint64

	steps int
}

// Execution is one in-progress run of a single function to completion: a
// call stack of Frames plus whatever result or error it finished with.
type Execution struct {
	vm     *VM
	frames []*Frame
	result cell
	resTyp iltypes.Type
	done   bool
	err    error
}

// ---------------------
// ----- Functions -----
// ---------------------

// New returns a VM ready to execute functions in m, dispatching extern
// calls through host.
func New(m *il.Module, host *HostTable) *VM {
	vm := &VM{
		Module:     m,
		Host:       host,
		mem:        make([]byte, 8), // address 0..7 reserved: nothing is ever allocated there, so cell 0 always means "null".
		strIdx:     make(map[string]int),
		globalAddr: make(map[string]uint64),
	}
	vm.loadGlobals()
	return vm
}

// loadGlobals allocates one 8-byte cell per module global and initializes
// it from the global's declared Init (spec.md §3.6); globals are allocated
// before any frame runs and are never touched by a frame's heap-mark
// truncation on return.
func (vm *VM) loadGlobals() {
	for _, g := range vm.Module.Globals {
		addr := vm.allocBytes(8)
		vm.globalAddr[g.Name] = addr
		var c cell
		switch v := g.Init.(type) {
		case int64:
			c = intCell(v)
		case float64:
			c = floatCell(v)
		case string:
			c = strCell(vm.internString(v))
		}
		vm.writeCell(addr, c)
	}
}

// internString returns the stable index of s in the VM's string table,
// assigning a fresh one on first use. Strings are opaque, runtime-managed
// handles (spec.md §3.1), never raw heap pointers, so they live in their
// own table rather than vm.mem.
func (vm *VM) internString(s string) int {
	if idx, ok := vm.strIdx[s]; ok {
		return idx
	}
	idx := len(vm.strings)
	vm.strings = append(vm.strings, s)
	vm.strIdx[s] = idx
	return idx
}

// allocBytes bump-allocates n bytes (rounded up to a multiple of 8 so every
// result is naturally aligned for an 8-byte cell) from the shared arena and
// returns the address of the first byte.
func (vm *VM) allocBytes(n uint64) uint64 {
	if rem := n % 8; rem != 0 {
		n += 8 - rem
	}
	if n == 0 {
		n = 8
	}
	addr := uint64(len(vm.mem))
	vm.mem = append(vm.mem, make([]byte, n)...)
	return addr
}

// readCell loads the 8-byte cell at addr, or returns ok=false if addr is
// null or out of range.
func (vm *VM) readCell(addr uint64) (cell, bool) {
	if addr == 0 || addr%8 != 0 || addr+8 > uint64(len(vm.mem)) {
		return 0, false
	}
	return cell(binary.LittleEndian.Uint64(vm.mem[addr : addr+8])), true
}

// writeCell stores c as the 8-byte cell at addr, or returns ok=false if
// addr is null or out of range.
func (vm *VM) writeCell(addr uint64, c cell) bool {
	if addr == 0 || addr%8 != 0 || addr+8 > uint64(len(vm.mem)) {
		return false
	}
	binary.LittleEndian.PutUint64(vm.mem[addr:addr+8], uint64(c))
	return true
}

// Start prepares an Execution of the named function applied to args (one
// per declared parameter, in order) without running any instructions.
func (vm *VM) Start(fnName string, args []Value) (*Execution, error) {
	fn := vm.Module.Function(fnName)
	if fn == nil {
		return nil, fmt.Errorf("vm: no such function %q", fnName)
	}
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("vm: %s expects %d argument(s), got %d", fnName, len(fn.Params), len(args))
	}
	fr := newFrame(fn)
	fr.heapMark = uint64(len(vm.mem))
	for i, a := range args {
		fr.set(i, vm.valueToCell(a))
	}
	return &Execution{vm: vm, frames: []*Frame{fr}}, nil
}

// Run drives exec to completion (or to a trap/error), calling Step
// repeatedly and ignoring halt requests from the Hook; callers that need
// breakpoints should drive Step themselves.
func (e *Execution) Run() (Value, error) {
	for {
		done, err := e.Step()
		if err != nil {
			return Value{}, err
		}
		if done {
			return e.vm.cellToValue(e.result, e.resTyp), nil
		}
	}
}

// Done reports whether exec has finished (returned or trapped).
func (e *Execution) Done() bool { return e.done }

// Frames returns exec's current call stack, outermost first. The slice is
// shared with exec and must be treated as read-only; src/debug uses it to
// print a backtrace at a halt.
func (e *Execution) Frames() []*Frame { return e.frames }

// StepCount returns the number of instructions vm has retired so far across
// every Execution it has driven, for the "--count" CLI flag.
func (vm *VM) StepCount() int { return vm.steps }

// Value reads temp id out of fr as a Value typed typ, resolving a Str cell
// through the VM's string table. src/debug uses this for watch expressions.
func (vm *VM) Value(fr *Frame, id int, typ iltypes.Type) Value {
	return vm.cellToValue(fr.get(id), typ)
}

// Deref reads the cell stored at addr (an alloca's address, typically)
// and decodes it as typ, the same way a "load" instruction would. src/debug
// uses this to watch a BASIC local, whose alloca slot holds the variable's
// address rather than its value. ok is false for a null or out-of-range
// address.
func (vm *VM) Deref(addr uint64, typ iltypes.Type) (Value, bool) {
	c, ok := vm.readCell(addr)
	if !ok {
		return Value{}, false
	}
	return vm.cellToValue(c, typ), true
}

// Current returns the frame and instruction Step would execute next, or
// nil, nil if the execution has already finished.
func (e *Execution) Current() (*Frame, *il.Instr) {
	if e.done || len(e.frames) == 0 {
		return nil, nil
	}
	fr := e.frames[len(e.frames)-1]
	if fr.IP >= len(fr.Block.Instrs) {
		return fr, nil
	}
	return fr, fr.Block.Instrs[fr.IP]
}

// Step executes exactly one instruction (or, for a halted Hook, zero), and
// reports whether the whole execution has finished.
func (e *Execution) Step() (bool, error) {
	if e.done {
		return true, e.err
	}
	fr, in := e.Current()
	if in == nil {
		e.done, e.err = true, fmt.Errorf("vm: %s fell off the end of block %s without a terminator", fr.FnName(), fr.BlockLabel())
		return true, e.err
	}
	if e.vm.Hook != nil && e.vm.Hook(fr, in) {
		return false, nil
	}
	e.vm.steps++
	if e.vm.MaxSteps > 0 && e.vm.steps > e.vm.MaxSteps {
		e.done, e.err = true, e.vm.newTrap(TrapStepLimit, fr, in)
		return true, e.err
	}
	if err := e.exec(fr, in); err != nil {
		e.done, e.err = true, err
		return true, e.err
	}
	return e.done, e.err
}

// exec dispatches one instruction against fr, advancing fr.IP or pushing/
// popping a call frame as appropriate.
func (e *Execution) exec(fr *Frame, in *il.Instr) error {
	vm := e.vm
	switch in.Op {
	case iltypes.Br:
		return e.branch(fr, in, 0)
	case iltypes.CBr:
		cond := vm.eval(fr, in.Operands[0]).asBool()
		if cond {
			return e.branch(fr, in, 0)
		}
		return e.branch(fr, in, 1)
	case iltypes.Ret:
		var rv cell
		var rt iltypes.Type
		if len(in.Operands) == 1 {
			rv = vm.eval(fr, in.Operands[0])
			rt = in.Operands[0].Type()
		}
		return e.doReturn(rv, rt)
	case iltypes.Trap:
		return vm.newTrap(TrapExplicit, fr, in)
	case iltypes.Call, iltypes.CallVoid:
		return e.call(fr, in)
	default:
		result, err := vm.evalPure(fr, in)
		if err != nil {
			return err
		}
		if in.Dest != nil {
			fr.set(in.Dest.ID, result)
		}
		fr.IP++
		return nil
	}
}

// branch evaluates target targetIdx's argument vector in fr's current
// context, then transfers control to it.
func (e *Execution) branch(fr *Frame, in *il.Instr, targetIdx int) error {
	target := in.Targets[targetIdx]
	args := in.Args[targetIdx]
	vals := make([]cell, len(args))
	for i, a := range args {
		vals[i] = e.vm.eval(fr, a)
	}
	for i, p := range target.Params {
		fr.set(p.Temp.ID, vals[i])
	}
	fr.Block = target
	fr.IP = 0
	return nil
}

// doReturn pops the current frame, releasing its heap region, and either
// finishes the Execution (outermost frame) or resumes the caller,
// binding its call instruction's result if it expects one.
func (e *Execution) doReturn(rv cell, rt iltypes.Type) error {
	popped := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	e.vm.mem = e.vm.mem[:popped.heapMark]
	if len(e.frames) == 0 {
		e.result, e.resTyp, e.done = rv, rt, true
		return nil
	}
	caller := e.frames[len(e.frames)-1]
	callIn := caller.Block.Instrs[caller.IP]
	if callIn.Dest != nil {
		caller.set(callIn.Dest.ID, rv)
	}
	caller.IP++
	return nil
}

// call dispatches a call/callvoid instruction to either a module-defined
// Function (pushing a new Frame) or a host Extern (synchronous, no frame
// push).
func (e *Execution) call(fr *Frame, in *il.Instr) error {
	vm := e.vm
	args := make([]cell, len(in.Operands))
	for i, op := range in.Operands {
		args[i] = vm.eval(fr, op)
	}
	if in.Callee != nil {
		callee := newFrame(in.Callee)
		callee.heapMark = uint64(len(vm.mem))
		for i, a := range args {
			callee.set(i, a)
		}
		e.frames = append(e.frames, callee)
		return nil // The caller's IP advances in doReturn, once the callee returns.
	}
	fn, sig, ok := vm.Host.Lookup(in.Extern.Name)
	if !ok {
		return fmt.Errorf("vm: no host binding registered for extern %q", in.Extern.Name)
	}
	hostArgs := make([]Value, len(args))
	for i, a := range args {
		hostArgs[i] = vm.cellToValue(a, sig.ParamTypes[i])
	}
	result, err := fn(hostArgs)
	if err != nil {
		return fmt.Errorf("vm: host call %q: %w", in.Extern.Name, err)
	}
	if in.Dest != nil {
		fr.set(in.Dest.ID, vm.valueToCell(result))
	}
	fr.IP++
	return nil
}

// eval resolves an operand Value to its runtime cell in fr's context.
func (vm *VM) eval(fr *Frame, v il.Value) cell {
	switch val := v.(type) {
	case il.Temp:
		return fr.get(val.ID)
	case il.ConstInt:
		return intCell(val.V)
	case il.ConstBool:
		return boolCell(val.V)
	case il.ConstFloat:
		return floatCell(val.V)
	case il.ConstStr:
		return strCell(vm.internString(val.G.Init.(string)))
	case il.GlobalAddr:
		return ptrCell(vm.globalAddr[val.G.Name])
	case il.NullPtr:
		return ptrCell(0)
	}
	panic(fmt.Sprintf("vm: unhandled operand kind %T", v))
}
