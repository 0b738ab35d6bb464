package vm

import (
	"basilc/src/il"
	"basilc/src/il/iltypes"
)

// Value is the native Go representation of one host-call argument or
// result, tagged by the IL type it corresponds to. The bridge converts
// to/from this shape so host functions never see raw cells.
type Value struct {
	Typ iltypes.Type
	I   int64
	F   float64
	S   string
}

// HostFunc is a runtime-implemented extern: print/string/math/env/random/
// time routines the IL can call but does not define (spec.md §3.6, §4.7).
type HostFunc func(args []Value) (Value, error)

// HostTable is the registered set of HostFuncs, keyed by extern name: the
// interpreter's equivalent of a fixed external-declaration list, resolved
// by name at call time rather than linked ahead of execution.
type HostTable struct {
	fns map[string]HostFunc
	ext map[string]*il.Extern
}

// NewHostTable returns an empty HostTable.
func NewHostTable() *HostTable {
	return &HostTable{fns: make(map[string]HostFunc), ext: make(map[string]*il.Extern)}
}

// Register binds sig.Name to fn. The only check made at registration time
// is that sig is non-nil; fn is not checked against sig's parameter or
// result types.
func (h *HostTable) Register(sig *il.Extern, fn HostFunc) error {
	if sig == nil {
		return errHostSignature("nil extern signature for %q", "")
	}
	h.fns[sig.Name] = fn
	h.ext[sig.Name] = sig
	return nil
}

// Lookup returns the HostFunc bound to name, and its declared signature.
func (h *HostTable) Lookup(name string) (HostFunc, *il.Extern, bool) {
	fn, ok := h.fns[name]
	if !ok {
		return nil, nil, false
	}
	return fn, h.ext[name], true
}

type hostSignatureError struct{ msg string }

func (e *hostSignatureError) Error() string { return e.msg }

func errHostSignature(format string, name string) error {
	return &hostSignatureError{msg: "vm: invalid host signature: " + format + name}
}

// cellToValue converts a frame register's raw cell into a tagged Value per
// typ, resolving Str cells through the VM's string table.
func (vm *VM) cellToValue(c cell, typ iltypes.Type) Value {
	switch typ.K {
	case iltypes.I64, iltypes.I1:
		return Value{Typ: typ, I: c.asInt()}
	case iltypes.F64:
		return Value{Typ: typ, F: c.asFloat()}
	case iltypes.Str:
		return Value{Typ: typ, S: vm.strings[c.asStr()]}
	case iltypes.Ptr:
		return Value{Typ: typ, I: int64(c.asPtr())}
	default:
		return Value{Typ: typ}
	}
}

// valueToCell converts a tagged Value back into a raw cell, interning a
// fresh string-table entry for Str results.
func (vm *VM) valueToCell(v Value) cell {
	switch v.Typ.K {
	case iltypes.I64, iltypes.I1:
		return intCell(v.I)
	case iltypes.F64:
		return floatCell(v.F)
	case iltypes.Str:
		return strCell(vm.internString(v.S))
	case iltypes.Ptr:
		return ptrCell(uint64(v.I))
	default:
		return 0
	}
}
