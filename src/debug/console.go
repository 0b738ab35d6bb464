package debug

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
)

// Console is the interactive fallback for a Session when no
// "--debug-cmds" script is supplied: an input-at-a-halt loop built on
// peterh/liner, following the usual readline-driven command-loop shape
// for a line-oriented REPL.
type Console struct {
	Session *Session
	Out     io.Writer
}

var (
	consoleBold = color.New(color.Bold)
	consoleDim  = color.New(color.Faint)
)

// NewConsole returns a Console driving s, printing prompts/messages to out.
func NewConsole(s *Session, out io.Writer) *Console {
	return &Console{Session: s, Out: out}
}

// Run drives the Session interactively until it finishes, traps, or the
// user quits, returning the same (finished, error) shape Session.Run does
// so a caller can compute the process exit code the same way either path.
func (c *Console) Run() (bool, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		finished, halt, err := c.Session.Run()
		if err != nil {
			fmt.Fprintf(c.Out, "%s\n", err)
			return false, err
		}
		if finished {
			fmt.Fprintln(c.Out, consoleBold.Sprint("program finished"))
			return true, nil
		}
		c.printHalt(halt)

		for {
			input, rerr := line.Prompt("(debug) ")
			if rerr == io.EOF {
				return false, nil
			}
			if rerr != nil {
				fmt.Fprintf(c.Out, "error: %v\n", rerr)
				continue
			}
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			line.AppendHistory(input)
			advance, quit := c.dispatch(input)
			if quit {
				return false, nil
			}
			if advance {
				break // command advanced the session; go back to Run.
			}
		}
	}
}

// dispatch executes one console command. advance is true if it moved
// execution forward (so the outer loop should resume Session.Run); quit is
// true if the user asked to end the session entirely.
func (c *Console) dispatch(input string) (advance, quit bool) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "step", "s":
		n := 1
		if len(fields) > 1 {
			if parsed, err := strconv.Atoi(fields[1]); err == nil && parsed > 0 {
				n = parsed
			}
		}
		for i := 0; i < n; i++ {
			done, err := c.Session.Step()
			if err != nil {
				fmt.Fprintf(c.Out, "%s\n", err)
				return true, false
			}
			if done {
				break
			}
		}
		return true, false
	case "continue", "c":
		c.Session.freeRun = true
		return true, false
	case "backtrace", "bt":
		c.printBacktrace()
		return false, false
	case "quit", "q":
		fmt.Fprintln(c.Out, "quit")
		return false, true
	default:
		fmt.Fprintf(c.Out, "[DEBUG] unknown command %q\n", fields[0])
		return false, false
	}
}

// printHalt reports why and where execution stopped.
func (c *Console) printHalt(h HaltInfo) {
	reason := "breakpoint"
	if h.Reason == ReasonLabel {
		reason = "label breakpoint"
	} else if h.Reason == ReasonLine {
		reason = "line breakpoint"
	}
	fmt.Fprintf(c.Out, "%s: fn=%s blk=%s ip=#%d: %s\n", consoleBold.Sprint(reason), h.Fn, h.Block, h.IP, h.Instr.String())
}

// printBacktrace prints the current call stack, outermost first.
func (c *Console) printBacktrace() {
	for i, fr := range c.Session.Exec.Frames() {
		fmt.Fprintf(c.Out, "%s #%d %s @ %s\n", consoleDim.Sprint("->"), i, fr.FnName(), fr.BlockLabel())
	}
}
