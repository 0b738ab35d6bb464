package builtins

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"basilc/src/il"
	"basilc/src/vm"
)

// DeclareExterns registers every Table entry as an il.Extern on bd, so the
// front end can lower a builtin call the same way it lowers any other
// extern call, via Builder.CreateCallExtern/CreateCallVoidExtern.
func DeclareExterns(bd *il.Builder) {
	for _, name := range sortedNames() {
		d := Table[name]
		bd.DeclareExtern(d.Name, d.Params, d.Result)
	}
}

// RegisterAll binds the native Go implementation of every builtin that mod
// declares as an extern (normally via DeclareExterns during lowering) into
// host under that il.Extern's signature, so host and module agree on the
// signature by construction. A builtin the module never declared is
// skipped.
func RegisterAll(host *vm.HostTable, mod *il.Module) error {
	impls := map[string]vm.HostFunc{
		"LEN":   builtinLen,
		"MID$":  builtinMid,
		"CHR$":  builtinChr,
		"ASC":   builtinAsc,
		"VAL":   builtinVal,
		"STR$":  builtinStr,
		"ABS":   builtinAbs,
		"INT":   builtinInt,
		"SQR":   builtinSqr,
		"RND":   builtinRnd,
		"TIMER": builtinTimer,
	}
	for name, fn := range impls {
		ext := mod.Extern(name)
		if ext == nil {
			continue
		}
		if err := host.Register(ext, fn); err != nil {
			return fmt.Errorf("builtins: registering %q: %w", name, err)
		}
	}
	return nil
}

func sortedNames() []string {
	names := Names()
	// Small, fixed set: insertion sort keeps DeclareExterns' output order
	// stable across runs without pulling in sort for eleven entries.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}

func builtinLen(args []vm.Value) (vm.Value, error) {
	return vm.Value{Typ: Table["LEN"].Result, I: int64(len(args[0].S))}, nil
}

func builtinMid(args []vm.Value) (vm.Value, error) {
	s, start, length := args[0].S, args[1].I, args[2].I
	if start < 1 {
		start = 1
	}
	if start > int64(len(s))+1 {
		return vm.Value{Typ: Table["MID$"].Result, S: ""}, nil
	}
	from := start - 1
	to := from + length
	if to > int64(len(s)) {
		to = int64(len(s))
	}
	if to < from {
		to = from
	}
	return vm.Value{Typ: Table["MID$"].Result, S: s[from:to]}, nil
}

func builtinChr(args []vm.Value) (vm.Value, error) {
	return vm.Value{Typ: Table["CHR$"].Result, S: string(rune(args[0].I))}, nil
}

func builtinAsc(args []vm.Value) (vm.Value, error) {
	s := args[0].S
	if s == "" {
		return vm.Value{Typ: Table["ASC"].Result, I: 0}, nil
	}
	return vm.Value{Typ: Table["ASC"].Result, I: int64(s[0])}, nil
}

func builtinVal(args []vm.Value) (vm.Value, error) {
	f, _ := strconv.ParseFloat(args[0].S, 64) // A malformed literal parses to 0, matching classic BASIC VAL semantics.
	return vm.Value{Typ: Table["VAL"].Result, F: f}, nil
}

func builtinStr(args []vm.Value) (vm.Value, error) {
	return vm.Value{Typ: Table["STR$"].Result, S: strconv.FormatFloat(args[0].F, 'g', -1, 64)}, nil
}

func builtinAbs(args []vm.Value) (vm.Value, error) {
	return vm.Value{Typ: Table["ABS"].Result, F: math.Abs(args[0].F)}, nil
}

func builtinInt(args []vm.Value) (vm.Value, error) {
	return vm.Value{Typ: Table["INT"].Result, I: int64(math.Floor(args[0].F))}, nil
}

func builtinSqr(args []vm.Value) (vm.Value, error) {
	return vm.Value{Typ: Table["SQR"].Result, F: math.Sqrt(args[0].F)}, nil
}

func builtinRnd(_ []vm.Value) (vm.Value, error) {
	return vm.Value{Typ: Table["RND"].Result, F: rand.Float64()}, nil
}

func builtinTimer(_ []vm.Value) (vm.Value, error) {
	return vm.Value{Typ: Table["TIMER"].Result, F: float64(time.Now().UnixNano()) / 1e9}, nil
}
