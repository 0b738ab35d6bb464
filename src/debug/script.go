package debug

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"basilc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// CommandKind identifies one scripted debug action (spec.md §4.8).
type CommandKind uint8

const (
	// CmdStep steps N instructions (N defaults to 1 for a bare "step").
	CmdStep CommandKind = iota
	// CmdContinue resumes execution, ignoring breakpoints, until the
	// program ends, traps, or another explicit command is needed.
	CmdContinue
)

// Command is one parsed line of a debug command script.
type Command struct {
	Kind CommandKind
	N    int
}

// Script is an ordered queue of Commands consumed one at a time as a
// Session halts.
type Script struct {
	cmds []Command
	next int
}

// ---------------------
// ----- Functions -----
// ---------------------

// ParseScript reads a debug command file (one command per line: "step",
// "step N", "continue"; blank lines and "#"-prefixed lines are ignored).
// An unrecognized line is reported via diag at SeverityWarning with the
// "[DEBUG]" prefix spec.md §4.8 requires, and otherwise ignored.
func ParseScript(r io.Reader, diag *util.DiagnosticSink) (*Script, error) {
	s := &Script{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "step":
			n := 1
			if len(fields) > 1 {
				parsed, err := strconv.Atoi(fields[1])
				if err != nil || parsed <= 0 {
					diag.Append(util.SeverityWarning, util.SourceLoc{}, "[DEBUG] line %d: invalid step count %q, ignored", lineNo, fields[1])
					continue
				}
				n = parsed
			}
			s.cmds = append(s.cmds, Command{Kind: CmdStep, N: n})
		case "continue":
			s.cmds = append(s.cmds, Command{Kind: CmdContinue})
		default:
			diag.Append(util.SeverityWarning, util.SourceLoc{}, "[DEBUG] line %d: unknown command %q, ignored", lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("debug: reading command script: %w", err)
	}
	return s, nil
}

// Next returns the next unconsumed Command, and false once the script is
// exhausted.
func (s *Script) Next() (Command, bool) {
	if s == nil || s.next >= len(s.cmds) {
		return Command{}, false
	}
	c := s.cmds[s.next]
	s.next++
	return c, true
}
