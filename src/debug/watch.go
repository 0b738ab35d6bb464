package debug

import (
	"fmt"
	"io"

	"basilc/src/il/iltypes"
	"basilc/src/vm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Watch prints "[WATCH] name=<type>:<value> (fn=F blk=B ip=#I)" whenever
// the temp it tracks changes value between two consecutive reads (spec.md
// §4.8). Resolving a source-level variable name to a temp id is the front
// end's job (it owns the name table); Watch only ever sees the resolved
// (function, temp id) pair.
//
// A BASIC local never lives directly in a register: src/frontend lowers it
// to one alloca, loaded and stored like a C local, so the temp id a
// frontend.VarSymbol names is the *address* of the variable, not its
// value. Indirect marks exactly that case: check loads the watched value
// out of VM memory through that address instead of reading the register
// directly. A watch built straight from a raw IL temp id (no front end
// involved) leaves Indirect false and reads the register as-is.
type Watch struct {
	Name     string
	Fn       string
	Temp     int
	Typ      iltypes.Type
	Indirect bool

	have bool
	last vm.Value
}

// ---------------------
// ----- Functions -----
// ---------------------

// check reads w's tracked value via machine, and writes a "[WATCH]" line
// to out if the value differs from the last read (the first read only
// records the value and prints nothing). check is a no-op when
// fr does not belong to the function w is scoped to, or (for an Indirect
// watch) when the tracked alloca has not executed yet.
func (w *Watch) check(machine *vm.VM, fr *vm.Frame, out io.Writer) {
	if fr == nil || fr.FnName() != w.Fn {
		return
	}
	var cur vm.Value
	if w.Indirect {
		addr := machine.Value(fr, w.Temp, iltypes.PtrType)
		v, ok := machine.Deref(uint64(addr.I), w.Typ)
		if !ok {
			return
		}
		cur = v
	} else {
		cur = machine.Value(fr, w.Temp, w.Typ)
	}
	if w.have && cur == w.last {
		return
	}
	changed := w.have
	w.have, w.last = true, cur
	if changed {
		fmt.Fprintf(out, "[WATCH] %s=%s:%s (fn=%s blk=%s ip=#%d)\n", w.Name, w.Typ.String(), formatValue(cur), fr.FnName(), fr.BlockLabel(), fr.IP)
	}
}

// formatValue renders a vm.Value the way a watch or trace line wants it:
// the field that matches its Typ, not a struct dump.
func formatValue(v vm.Value) string {
	switch v.Typ.K {
	case iltypes.F64:
		return fmt.Sprintf("%g", v.F)
	case iltypes.Str:
		return v.S
	default:
		return fmt.Sprintf("%d", v.I)
	}
}
