package vm

import (
	"math"

	"basilc/src/il"
	"basilc/src/il/iltypes"
)

// evalPure executes every non-terminator, non-call opcode: arithmetic,
// bitwise, comparison, conversion and memory instructions. Terminators and
// calls are handled directly in Execution.exec since they affect control
// flow or the call stack rather than producing an ordinary value.
func (vm *VM) evalPure(fr *Frame, in *il.Instr) (cell, error) {
	switch in.Op {
	case iltypes.Add:
		return intCell(vm.eval(fr, in.Operands[0]).asInt() + vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.Sub:
		return intCell(vm.eval(fr, in.Operands[0]).asInt() - vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.Mul:
		return intCell(vm.eval(fr, in.Operands[0]).asInt() * vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.SDiv:
		l, r := vm.eval(fr, in.Operands[0]).asInt(), vm.eval(fr, in.Operands[1]).asInt()
		if r == 0 {
			return 0, vm.newTrap(TrapDivideByZero, fr, in)
		}
		if l == math.MinInt64 && r == -1 {
			return 0, vm.newTrap(TrapIntegerOverflow, fr, in)
		}
		return intCell(l / r), nil
	case iltypes.UDiv:
		l, r := uint64(vm.eval(fr, in.Operands[0])), uint64(vm.eval(fr, in.Operands[1]))
		if r == 0 {
			return 0, vm.newTrap(TrapDivideByZero, fr, in)
		}
		return intCell(int64(l / r)), nil
	case iltypes.SRem:
		l, r := vm.eval(fr, in.Operands[0]).asInt(), vm.eval(fr, in.Operands[1]).asInt()
		if r == 0 {
			return 0, vm.newTrap(TrapDivideByZero, fr, in)
		}
		if l == math.MinInt64 && r == -1 {
			return 0, vm.newTrap(TrapIntegerOverflow, fr, in)
		}
		return intCell(l % r), nil
	case iltypes.URem:
		l, r := uint64(vm.eval(fr, in.Operands[0])), uint64(vm.eval(fr, in.Operands[1]))
		if r == 0 {
			return 0, vm.newTrap(TrapDivideByZero, fr, in)
		}
		return intCell(int64(l % r)), nil

	case iltypes.FAdd:
		return floatCell(vm.eval(fr, in.Operands[0]).asFloat() + vm.eval(fr, in.Operands[1]).asFloat()), nil
	case iltypes.FSub:
		return floatCell(vm.eval(fr, in.Operands[0]).asFloat() - vm.eval(fr, in.Operands[1]).asFloat()), nil
	case iltypes.FMul:
		return floatCell(vm.eval(fr, in.Operands[0]).asFloat() * vm.eval(fr, in.Operands[1]).asFloat()), nil
	case iltypes.FDiv:
		return floatCell(vm.eval(fr, in.Operands[0]).asFloat() / vm.eval(fr, in.Operands[1]).asFloat()), nil

	case iltypes.And:
		return intCell(vm.eval(fr, in.Operands[0]).asInt() & vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.Or:
		return intCell(vm.eval(fr, in.Operands[0]).asInt() | vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.Xor:
		return intCell(vm.eval(fr, in.Operands[0]).asInt() ^ vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.Shl:
		return intCell(vm.eval(fr, in.Operands[0]).asInt() << uint64(vm.eval(fr, in.Operands[1]).asInt()&63)), nil
	case iltypes.Lshr:
		return intCell(int64(uint64(vm.eval(fr, in.Operands[0])) >> uint64(vm.eval(fr, in.Operands[1]).asInt()&63))), nil
	case iltypes.Ashr:
		return intCell(vm.eval(fr, in.Operands[0]).asInt() >> uint64(vm.eval(fr, in.Operands[1]).asInt()&63)), nil
	case iltypes.Not:
		return intCell(^vm.eval(fr, in.Operands[0]).asInt()), nil
	case iltypes.Neg:
		if in.Result.K == iltypes.F64 {
			return floatCell(-vm.eval(fr, in.Operands[0]).asFloat()), nil
		}
		return intCell(-vm.eval(fr, in.Operands[0]).asInt()), nil

	case iltypes.ICmpEq:
		return boolCell(vm.eval(fr, in.Operands[0]).asInt() == vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.ICmpNe:
		return boolCell(vm.eval(fr, in.Operands[0]).asInt() != vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.ICmpSlt:
		return boolCell(vm.eval(fr, in.Operands[0]).asInt() < vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.ICmpSle:
		return boolCell(vm.eval(fr, in.Operands[0]).asInt() <= vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.ICmpSgt:
		return boolCell(vm.eval(fr, in.Operands[0]).asInt() > vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.ICmpSge:
		return boolCell(vm.eval(fr, in.Operands[0]).asInt() >= vm.eval(fr, in.Operands[1]).asInt()), nil
	case iltypes.ICmpUlt:
		return boolCell(uint64(vm.eval(fr, in.Operands[0])) < uint64(vm.eval(fr, in.Operands[1]))), nil
	case iltypes.ICmpUle:
		return boolCell(uint64(vm.eval(fr, in.Operands[0])) <= uint64(vm.eval(fr, in.Operands[1]))), nil
	case iltypes.ICmpUgt:
		return boolCell(uint64(vm.eval(fr, in.Operands[0])) > uint64(vm.eval(fr, in.Operands[1]))), nil
	case iltypes.ICmpUge:
		return boolCell(uint64(vm.eval(fr, in.Operands[0])) >= uint64(vm.eval(fr, in.Operands[1]))), nil

	case iltypes.FCmpEq:
		return boolCell(vm.eval(fr, in.Operands[0]).asFloat() == vm.eval(fr, in.Operands[1]).asFloat()), nil
	case iltypes.FCmpNe:
		return boolCell(vm.eval(fr, in.Operands[0]).asFloat() != vm.eval(fr, in.Operands[1]).asFloat()), nil
	case iltypes.FCmpLt:
		return boolCell(vm.eval(fr, in.Operands[0]).asFloat() < vm.eval(fr, in.Operands[1]).asFloat()), nil
	case iltypes.FCmpLe:
		return boolCell(vm.eval(fr, in.Operands[0]).asFloat() <= vm.eval(fr, in.Operands[1]).asFloat()), nil
	case iltypes.FCmpGt:
		return boolCell(vm.eval(fr, in.Operands[0]).asFloat() > vm.eval(fr, in.Operands[1]).asFloat()), nil
	case iltypes.FCmpGe:
		return boolCell(vm.eval(fr, in.Operands[0]).asFloat() >= vm.eval(fr, in.Operands[1]).asFloat()), nil

	case iltypes.Sext:
		if vm.eval(fr, in.Operands[0]).asBool() {
			return intCell(1), nil
		}
		return intCell(0), nil
	case iltypes.Zext:
		if vm.eval(fr, in.Operands[0]).asBool() {
			return intCell(1), nil
		}
		return intCell(0), nil
	case iltypes.Trunc:
		return boolCell(vm.eval(fr, in.Operands[0]).asInt()&1 != 0), nil
	case iltypes.SitoFp:
		return floatCell(float64(vm.eval(fr, in.Operands[0]).asInt())), nil
	case iltypes.FptoSi:
		return intCell(int64(vm.eval(fr, in.Operands[0]).asFloat())), nil
	case iltypes.Bitcast:
		// Every IL type is carried in the same 64-bit cell representation
		// (spec.md §3.1), so reinterpreting one typed value as another is the
		// identity operation on the underlying bits.
		return vm.eval(fr, in.Operands[0]), nil

	case iltypes.Alloca:
		n := uint64(vm.eval(fr, in.Operands[0]).asInt())
		return ptrCell(vm.allocBytes(n * 8)), nil
	case iltypes.Load:
		addr := vm.eval(fr, in.Operands[0]).asPtr()
		if addr == 0 {
			return 0, vm.newTrap(TrapNullAccess, fr, in)
		}
		c, ok := vm.readCell(addr)
		if !ok {
			return 0, vm.newTrap(TrapMisaligned, fr, in)
		}
		return c, nil
	case iltypes.Store:
		val := vm.eval(fr, in.Operands[0])
		addr := vm.eval(fr, in.Operands[1]).asPtr()
		if addr == 0 {
			return 0, vm.newTrap(TrapNullAccess, fr, in)
		}
		if !vm.writeCell(addr, val) {
			return 0, vm.newTrap(TrapMisaligned, fr, in)
		}
		return 0, nil
	}
	panic("vm: evalPure: unhandled opcode " + in.Op.String())
}
