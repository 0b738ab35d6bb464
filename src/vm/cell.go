package vm

import "math"

// cell is the VM's 64-bit tagged slot (spec.md §4.7): the same bit pattern
// is reinterpreted as an integer, an IEEE-754 double, a heap address or a
// string-table index depending on the IL type at the use site. The slot
// itself carries no runtime tag; it is one untyped storage cell addressed
// by temp id, not a named physical register.
type cell uint64

// intCell packs a signed 64-bit integer (or an i1, stored as 0/1) into a
// cell.
func intCell(v int64) cell { return cell(uint64(v)) }

// asInt unpacks c as a signed 64-bit integer.
func (c cell) asInt() int64 { return int64(uint64(c)) }

// boolCell packs an i1 value into a cell.
func boolCell(b bool) cell {
	if b {
		return cell(1)
	}
	return cell(0)
}

// asBool unpacks c as an i1 value: nonzero is true.
func (c cell) asBool() bool { return uint64(c) != 0 }

// floatCell packs an IEEE-754 double into a cell via its raw bit pattern.
func floatCell(v float64) cell { return cell(math.Float64bits(v)) }

// asFloat unpacks c as an IEEE-754 double.
func (c cell) asFloat() float64 { return math.Float64frombits(uint64(c)) }

// ptrCell packs a heap/stack address into a cell. Address 0 is reserved for
// the null pointer.
func ptrCell(addr uint64) cell { return cell(addr) }

// asPtr unpacks c as a heap/stack address.
func (c cell) asPtr() uint64 { return uint64(c) }

// strCell packs an index into the VM's string table into a cell.
func strCell(idx int) cell { return cell(uint64(idx)) }

// asStr unpacks c as a string-table index.
func (c cell) asStr() int { return int(uint64(c)) }
