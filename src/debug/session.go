package debug

import (
	"io"

	"basilc/src/il"
	"basilc/src/util"
	"basilc/src/vm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Session drives a vm.Execution one instruction at a time, applying
// breakpoints, watches and tracing at the vm.Hook boundary spec.md §9 says
// the VM exists to provide. It never runs an instruction itself; it only
// ever decides, before the VM would, whether to let one through.
type Session struct {
	Machine *vm.VM
	Exec    *vm.Execution
	Breaks  *Breakpoints
	Watches []*Watch
	Out     io.Writer
	Diag    *util.DiagnosticSink

	tracer *tracer
	script *Script

	freeRun bool // true after a "continue": ignore breakpoints until the program ends or traps.

	curBlock   *il.Block
	firedLines map[int]bool

	halts int // total number of times Session has halted, for exit-code bookkeeping.
}

// HaltInfo describes why and where a Session stopped.
type HaltInfo struct {
	Reason Reason
	Fn     string
	Block  string
	IP     int
	Instr  *il.Instr
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewSession wraps exec with breakpoint/watch/trace support. mode/out
// select tracing (TraceNone disables it). Installing a Session replaces
// machine.Hook; a machine should only ever drive one Session at a time.
func NewSession(machine *vm.VM, exec *vm.Execution, breaks *Breakpoints, mode TraceMode, out io.Writer, diag *util.DiagnosticSink) *Session {
	if breaks == nil {
		breaks = NewBreakpoints()
	}
	s := &Session{
		Machine:    machine,
		Exec:       exec,
		Breaks:     breaks,
		Out:        out,
		Diag:       diag,
		tracer:     newTracer(mode, out, machine.Module.Files),
		firedLines: make(map[int]bool),
	}
	machine.Hook = s.hook
	return s
}

// SetScript installs a scripted command source; once installed, Run
// consults it at every halt instead of returning control to the caller
// (src/cli's "--debug-cmds").
func (s *Session) SetScript(script *Script) { s.script = script }

// SetSourceLines registers fileID's source, split into lines, so a
// TraceSrc trace line can quote the source text at each location.
func (s *Session) SetSourceLines(fileID int, lines []string) {
	s.tracer.SetSource(fileID, lines)
}

// AddWatch registers w.
func (s *Session) AddWatch(w *Watch) {
	s.Watches = append(s.Watches, w)
}

// Continue arms free-run mode immediately, the same as if the user had
// typed "continue" at the very first halt (src/cli's "--continue" flag:
// breakpoints stay registered for tracing/watch purposes but never halt
// execution this run).
func (s *Session) Continue() { s.freeRun = true }

// hook is installed as the VM's Hook: it is consulted before every
// instruction and answers only the halt/no-halt question. While freeRun is
// set (by Continue, a scripted "continue", or Step for the duration of its
// single instruction) it returns false at once; otherwise it classifies
// the instruction against the registered breakpoints.
func (s *Session) hook(fr *vm.Frame, in *il.Instr) bool {
	if s.freeRun {
		return false
	}
	atEntry := fr.IP == 0
	if fr.Block != s.curBlock {
		s.curBlock = fr.Block
		s.firedLines = make(map[int]bool)
	}
	reason := s.Breaks.classify(fr.BlockLabel(), atEntry, instrLoc(in), s.Machine.Module.Files)
	if reason == ReasonLine {
		if s.firedLines[in.Loc.Line] {
			return false
		}
		s.firedLines[in.Loc.Line] = true
	}
	return reason != ReasonNone
}

// Step advances the session by exactly one retired instruction, bypassing
// breakpoint checks entirely (interactive "step" and scripted "step N"
// both resolve to repeated calls to Step, never to the Hook), and reports
// whether the program has finished.
func (s *Session) Step() (bool, error) {
	fr, in := s.Exec.Current()
	if in == nil {
		return true, nil
	}
	fnName, blockLabel, ip := fr.FnName(), fr.BlockLabel(), fr.IP
	wasFreeRun := s.freeRun
	s.freeRun = true // Step always executes regardless of any pending breakpoint at the current instruction.
	done, err := s.Exec.Step()
	s.freeRun = wasFreeRun
	if err != nil {
		return true, err
	}
	s.tracer.retire(fnName, blockLabel, ip, in)
	s.checkWatches()
	return done, nil
}

// checkWatches re-reads every registered watch against the execution's
// current top frame.
func (s *Session) checkWatches() {
	if len(s.Watches) == 0 {
		return
	}
	frames := s.Exec.Frames()
	var top *vm.Frame
	if len(frames) > 0 {
		top = frames[len(frames)-1]
	}
	for _, w := range s.Watches {
		w.check(s.Machine, top, s.Out)
	}
}

// Run drives the session to its next halt: either the program finishes
// (ok=true), it traps (err != nil), or a breakpoint fires and no script is
// installed to resolve it (ok=false, err=nil, info describes the halt). If
// a script is installed, Run consumes it automatically across any number
// of halts until the script runs out or the program ends.
func (s *Session) Run() (ok bool, info HaltInfo, err error) {
	for {
		fr, in := s.Exec.Current()
		if in == nil {
			return true, HaltInfo{}, nil
		}
		preFn, preBlock, preIP := fr.FnName(), fr.BlockLabel(), fr.IP
		done, stepErr := s.Exec.Step()
		if stepErr != nil {
			return false, HaltInfo{}, stepErr
		}
		fr2, in2 := s.Exec.Current()
		retired := done || fr2 != fr || in2 != in
		if !retired {
			s.halts++
			haltInfo := HaltInfo{Reason: ReasonLine, Fn: preFn, Block: preBlock, IP: preIP, Instr: in}
			if s.Breaks.MatchLabel(preBlock) && preIP == 0 {
				haltInfo.Reason = ReasonLabel
			}
			if s.script == nil {
				return false, haltInfo, nil
			}
			if !s.consumeScript() {
				return false, haltInfo, nil
			}
			continue
		}
		s.tracer.retire(preFn, preBlock, preIP, in)
		s.checkWatches()
		if done {
			return true, HaltInfo{}, nil
		}
	}
}

// consumeScript pulls the next Command and arms the session accordingly,
// reporting false if the script is exhausted (the caller should then treat
// the current halt as final).
func (s *Session) consumeScript() bool {
	cmd, ok := s.script.Next()
	if !ok {
		return false
	}
	switch cmd.Kind {
	case CmdStep:
		for i := 0; i < cmd.N; i++ {
			done, err := s.Step()
			if done || err != nil {
				break
			}
		}
	case CmdContinue:
		s.freeRun = true
	}
	return true
}

// Halts returns the number of times the Session has halted on a
// breakpoint so far.
func (s *Session) Halts() int { return s.halts }

// ExitCode reports the exit code spec.md §4.8 assigns to the outcome of a
// debug session: 0 on a clean finish, 10 on a breakpoint halt with no
// script continuation, and a nonzero, non-10 code for any trap or error.
func ExitCode(finished bool, err error) int {
	switch {
	case err != nil:
		return 1
	case !finished:
		return 10
	default:
		return 0
	}
}
