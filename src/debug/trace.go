package debug

import (
	"fmt"
	"io"

	"basilc/src/il"
	"basilc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// TraceMode selects what tracer.retire prints for each retired instruction
// (spec.md §4.8 "--trace=il" / "--trace=src").
type TraceMode uint8

const (
	// TraceNone disables tracing.
	TraceNone TraceMode = iota
	// TraceIL prints one line per retired instruction.
	TraceIL
	// TraceSrc prints one line per new source location reached.
	TraceSrc
)

// tracer holds the state a Session needs to implement TraceSrc's "only on a
// new location" rule, and to fetch the source text a trace line quotes.
type tracer struct {
	mode    TraceMode
	out     io.Writer
	files   *util.FileTable
	lines   map[int][]string // lines[fileID] is that file's source split by line, or nil if unavailable.
	lastLoc util.SourceLoc
}

// ---------------------
// ----- Functions -----
// ---------------------

// newTracer returns a tracer in mode, writing to out.
func newTracer(mode TraceMode, out io.Writer, files *util.FileTable) *tracer {
	return &tracer{mode: mode, out: out, files: files, lines: make(map[int][]string)}
}

// SetSource registers the already-split source lines for fileID, so a
// TraceSrc line can quote the offending source text rather than just its
// location.
func (t *tracer) SetSource(fileID int, lines []string) {
	t.lines[fileID] = lines
}

// retire is called once per instruction that actually executed (never for
// one that a breakpoint held back). fnName, blockLabel and ip describe
// where in fired, captured by the caller *before* stepping: the frame that
// ran in may already have moved on (a branch mutates its own Block/IP in
// place) or been popped entirely (a return) by the time retire runs.
func (t *tracer) retire(fnName, blockLabel string, ip int, in *il.Instr) {
	switch t.mode {
	case TraceIL:
		fmt.Fprintf(t.out, "[IL] fn=@%s blk=%s ip=#%d %s\n", fnName, blockLabel, ip, in.TraceString())
	case TraceSrc:
		if in.Loc == t.lastLoc {
			return
		}
		t.lastLoc = in.Loc
		loc := "<unknown>"
		text := ""
		if in.Loc.Known() {
			loc = in.Loc.String(t.files)
			if src := t.lines[in.Loc.FileID]; src != nil && in.Loc.Line-1 < len(src) && in.Loc.Line-1 >= 0 {
				text = src[in.Loc.Line-1]
			}
		}
		fmt.Fprintf(t.out, "%s (%s %s #%d) %s\n", loc, fnName, blockLabel, ip, text)
	}
}
