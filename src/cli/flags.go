// Package cli implements basilc's command-line driver (spec.md §6.1): a
// cobra root command with one subcommand per pipeline stage (run, front
// basic, il-opt, il-verify, il-dis). A multi-verb CLI is cobra's native
// shape, not a single flat flag set's, so there is no one hand-rolled
// parser shared across subcommands.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"basilc/src/builtins"
	"basilc/src/debug"
	"basilc/src/frontend"
	"basilc/src/il"
	"basilc/src/il/iltypes"
	"basilc/src/util"
	"basilc/src/vm"

	"github.com/spf13/cobra"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// debugFlags holds the shared execution/debug flags spec.md §6.1 lists
// against both "run" and "front basic -run".
type debugFlags struct {
	trace     string
	breaks    []string
	breakSrc  []string
	step      bool
	cont      bool
	debugCmds string
	watches   []string
	count     bool
	time      bool
	maxSteps  int
}

// addDebugFlags registers f's flags onto cmd.
func addDebugFlags(cmd *cobra.Command, f *debugFlags) {
	cmd.Flags().StringVar(&f.trace, "trace", "", `trace mode: "il" or "src"`)
	cmd.Flags().StringArrayVar(&f.breaks, "break", nil, "breakpoint: a block label or file:line (repeatable)")
	cmd.Flags().StringArrayVar(&f.breakSrc, "break-src", nil, "explicit source-line breakpoint file:line (repeatable)")
	cmd.Flags().BoolVar(&f.step, "step", false, "open the interactive debug console at each breakpoint halt; no halt is made at entry, so without a breakpoint the program runs to the end")
	cmd.Flags().BoolVar(&f.cont, "continue", false, "ignore every breakpoint from the start of this run")
	cmd.Flags().StringVar(&f.debugCmds, "debug-cmds", "", "scripted debug command file")
	cmd.Flags().StringArrayVar(&f.watches, "watch", nil, "watch a variable by name (repeatable)")
	cmd.Flags().BoolVar(&f.count, "count", false, "print the retired instruction count at exit")
	cmd.Flags().BoolVar(&f.time, "time", false, "print wall-clock run time at exit")
	cmd.Flags().IntVar(&f.maxSteps, "max-steps", 0, "trap once this many instructions have retired (0 disables)")
}

// ---------------------
// ----- Functions -----
// ---------------------

// parseFileLine splits "file:line" on its last colon, reporting ok=false
// if the suffix after it is not a positive line number (spec.md §4.8).
func parseFileLine(s string) (file string, line int, ok bool) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(s[idx+1:])
	if err != nil || n <= 0 {
		return "", 0, false
	}
	return s[:idx], n, true
}

// buildBreakpoints turns the "--break"/"--break-src" flags into a
// debug.Breakpoints set. A "--break" entry that parses as file:line is a
// line breakpoint; otherwise it names a block label.
func buildBreakpoints(f debugFlags) *debug.Breakpoints {
	bp := debug.NewBreakpoints()
	for _, b := range f.breaks {
		if file, line, ok := parseFileLine(b); ok {
			bp.AddLine(file, line)
		} else {
			bp.AddLabel(b)
		}
	}
	for _, b := range f.breakSrc {
		if file, line, ok := parseFileLine(b); ok {
			bp.AddLine(file, line)
		}
	}
	return bp
}

// traceMode maps the "--trace" flag value onto a debug.TraceMode.
func traceMode(s string) debug.TraceMode {
	switch s {
	case "il":
		return debug.TraceIL
	case "src":
		return debug.TraceSrc
	default:
		return debug.TraceNone
	}
}

// lookupTempType scans fn for the instruction or block parameter that
// defines tempID, returning its declared type. Used to resolve a raw
// "fn:%tN" watch expression against a module with no front-end symbol
// table (the "run <file.il>" path).
func lookupTempType(fn *il.Function, tempID int) (iltypes.Type, bool) {
	// Parameter i is always temp id i by construction (src/frontend/lower.go
	// never routes an incoming parameter through a block.Param).
	if params := fn.ParamTypes(); tempID >= 0 && tempID < len(params) {
		return params[tempID], true
	}
	for _, b := range fn.Blocks {
		for _, p := range b.Params {
			if p.Temp.ID == tempID {
				return p.Temp.Typ, true
			}
		}
		for _, in := range b.Instrs {
			if in.Dest != nil && in.Dest.ID == tempID {
				return in.Dest.Typ, true
			}
		}
	}
	return iltypes.Type{}, false
}

// resolveWatch turns one "--watch" argument into a debug.Watch.
//
// Against a module lowered from BASIC (symbols != nil), a bare name (or
// "fn.name") resolves through frontend.VarSymbol: since every BASIC local
// is an alloca'd address rather than a bare register, the resulting Watch
// is Indirect.
//
// Against a raw ".il" module (symbols == nil), there is no source-level
// name table at all, so the expression must spell out the literal temp
// directly as "fn:%tN" (or "%tN", defaulting fn to "main"); the watch
// reads the register directly.
func resolveWatch(mod *il.Module, symbols map[string]map[string]frontend.VarSymbol, expr string) (*debug.Watch, error) {
	fnName, name := "main", expr
	if i := strings.IndexAny(expr, ".:"); i >= 0 {
		fnName, name = expr[:i], expr[i+1:]
	}

	if symbols != nil {
		vars, ok := symbols[fnName]
		if !ok {
			return nil, fmt.Errorf("--watch %s: no such function %q", expr, fnName)
		}
		sym, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("--watch %s: no such variable %q in %s", expr, name, fnName)
		}
		return &debug.Watch{Name: expr, Fn: fnName, Temp: sym.Temp, Typ: sym.Typ, Indirect: true}, nil
	}

	fn := mod.Function(fnName)
	if fn == nil {
		return nil, fmt.Errorf("--watch %s: no such function %q", expr, fnName)
	}
	tempID, err := parseTempRef(name)
	if err != nil {
		return nil, fmt.Errorf("--watch %s: %w", expr, err)
	}
	typ, ok := lookupTempType(fn, tempID)
	if !ok {
		return nil, fmt.Errorf("--watch %s: no temp %%t%d in %s", expr, tempID, fnName)
	}
	return &debug.Watch{Name: expr, Fn: fnName, Temp: tempID, Typ: typ}, nil
}

// parseTempRef parses a literal "%tN" (or bare "N") temp reference.
func parseTempRef(s string) (int, error) {
	s = strings.TrimPrefix(s, "%t")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid temp reference %q", s)
	}
	return n, nil
}

// runSession builds a host table, a VM and a debug.Session for mod, runs
// it under f's flags, writes its diagnostics/counters to stdout/stderr,
// and returns the process exit code spec.md §6.1 assigns to the outcome.
func runSession(mod *il.Module, sourceLines []string, sourcePath string, symbols map[string]map[string]frontend.VarSymbol, f debugFlags, stdout, stderr io.Writer) int {
	host := vm.NewHostTable()
	if err := builtins.RegisterAll(host, mod); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	env := &builtins.EnvIO{Out: stdout, In: bufio.NewScanner(os.Stdin)}
	if err := builtins.RegisterEnv(host, mod, env); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	machine := vm.New(mod, host)
	machine.MaxSteps = f.maxSteps

	start := time.Now()
	exec, err := machine.Start("main", nil)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	diag := util.NewDiagnosticSink(mod.Files)
	sess := debug.NewSession(machine, exec, buildBreakpoints(f), traceMode(f.trace), stdout, diag)

	if sourceLines != nil {
		sess.SetSourceLines(mod.Files.Intern(sourcePath), sourceLines)
	}
	for _, w := range f.watches {
		watch, err := resolveWatch(mod, symbols, w)
		if err != nil {
			fmt.Fprintln(stderr, err)
			continue
		}
		sess.AddWatch(watch)
	}
	if f.cont {
		sess.Continue()
	}

	var script *debug.Script
	if f.debugCmds != "" {
		file, err := os.Open(f.debugCmds)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer file.Close()
		script, err = debug.ParseScript(file, diag)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		sess.SetScript(script)
	}

	var finished bool
	var runErr error
	switch {
	case script != nil:
		finished, _, runErr = sess.Run()
	case f.step:
		console := debug.NewConsole(sess, stdout)
		finished, runErr = console.Run()
	default:
		var halt debug.HaltInfo
		finished, halt, runErr = sess.Run()
		if runErr == nil && !finished {
			printBreakHalt(stdout, halt, mod.Files)
		}
	}

	diag.Flush(stderr)
	if f.count {
		fmt.Fprintf(stdout, "[COUNT] steps=%d\n", machine.StepCount())
	}
	if f.time {
		fmt.Fprintf(stdout, "[TIME] %dms\n", time.Since(start).Milliseconds())
	}
	return debug.ExitCode(finished, runErr)
}

// printBreakHalt prints the "[BREAK] ..." line spec.md §8 scenario S2
// requires for a non-interactive run that halts on a breakpoint.
func printBreakHalt(out io.Writer, h debug.HaltInfo, files *util.FileTable) {
	if h.Reason == debug.ReasonLine && h.Instr != nil && h.Instr.Loc.Known() {
		fmt.Fprintf(out, "[BREAK] src=%s fn=@%s blk=%s ip=#%d\n", h.Instr.Loc.String(files), h.Fn, h.Block, h.IP)
		return
	}
	fmt.Fprintf(out, "[BREAK] label=%s fn=@%s blk=%s ip=#%d\n", h.Block, h.Fn, h.Block, h.IP)
}
