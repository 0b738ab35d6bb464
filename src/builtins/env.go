package builtins

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/vm"
)

// envTable lists the PRINT/INPUT externs the front end lowers PRINT/INPUT
// statements to. Each is monomorphic in its single argument/result type
// because il.Extern carries a fixed signature; PRINT/INPUT on a mixed
// argument list lowers to one call per argument, picking the extern that
// matches that argument's type.
var envTable = map[string]Descriptor{
	"PRINT_I64": {Name: "PRINT_I64", Params: []iltypes.Type{iltypes.I64Type}, Result: iltypes.VoidType},
	"PRINT_F64": {Name: "PRINT_F64", Params: []iltypes.Type{iltypes.F64Type}, Result: iltypes.VoidType},
	"PRINT_STR": {Name: "PRINT_STR", Params: []iltypes.Type{iltypes.StrType}, Result: iltypes.VoidType},
	"INPUT_I64": {Name: "INPUT_I64", Params: nil, Result: iltypes.I64Type},
	"INPUT_F64": {Name: "INPUT_F64", Params: nil, Result: iltypes.F64Type},
	"INPUT_STR": {Name: "INPUT_STR", Params: nil, Result: iltypes.StrType},
}

// EnvIO is the host side of the VM's "env" extern family (spec.md §3.8,
// §4.7): the concrete reader/writer PRINT and INPUT bind to, supplied by
// the caller rather than hardcoded to os.Stdin/os.Stdout, so a test can
// drive a program's I/O without touching the real console.
type EnvIO struct {
	Out io.Writer
	In  *bufio.Scanner
}

// DeclareEnvExterns registers the PRINT_*/INPUT_* externs on bd, the way
// DeclareExterns registers the builtin table.
func DeclareEnvExterns(bd *il.Builder) {
	for _, name := range []string{"PRINT_I64", "PRINT_F64", "PRINT_STR", "INPUT_I64", "INPUT_F64", "INPUT_STR"} {
		d := envTable[name]
		bd.DeclareExtern(d.Name, d.Params, d.Result)
	}
}

// RegisterEnv binds env's PRINT/INPUT implementations into host for each
// of those externs that mod declares; an undeclared one is skipped.
func RegisterEnv(host *vm.HostTable, mod *il.Module, env *EnvIO) error {
	impls := map[string]vm.HostFunc{
		"PRINT_I64": func(args []vm.Value) (vm.Value, error) {
			_, err := fmt.Fprintf(env.Out, "%d\n", args[0].I)
			return vm.Value{}, err
		},
		"PRINT_F64": func(args []vm.Value) (vm.Value, error) {
			_, err := fmt.Fprintf(env.Out, "%g\n", args[0].F)
			return vm.Value{}, err
		},
		"PRINT_STR": func(args []vm.Value) (vm.Value, error) {
			_, err := fmt.Fprintf(env.Out, "%s\n", args[0].S)
			return vm.Value{}, err
		},
		"INPUT_I64": func(_ []vm.Value) (vm.Value, error) {
			line, err := env.readLine()
			if err != nil {
				return vm.Value{}, err
			}
			v, _ := strconv.ParseInt(line, 10, 64)
			return vm.Value{Typ: iltypes.I64Type, I: v}, nil
		},
		"INPUT_F64": func(_ []vm.Value) (vm.Value, error) {
			line, err := env.readLine()
			if err != nil {
				return vm.Value{}, err
			}
			v, _ := strconv.ParseFloat(line, 64)
			return vm.Value{Typ: iltypes.F64Type, F: v}, nil
		},
		"INPUT_STR": func(_ []vm.Value) (vm.Value, error) {
			line, err := env.readLine()
			return vm.Value{Typ: iltypes.StrType, S: line}, err
		},
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

func (e *EnvIO) readLine() (string, error) {
	if !e.In.Scan() {
		if err := e.In.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return e.In.Text(), nil
}
