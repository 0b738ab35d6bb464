package util

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/fatih/color"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Severity classifies a Diagnostic.
type Severity uint8

// Diagnostic is one message appended to a DiagnosticSink: a severity, a
// human-readable message and the SourceLoc it pertains to, per spec.md §4.1.
type Diagnostic struct {
	Severity Severity
	Message  string
	Loc      SourceLoc
}

// DiagnosticSink is an append-only collector of Diagnostic values. It is the
// only cross-cutting shared resource in the system (spec.md §5) and must
// only be appended to from the single running thread once a VM run has
// begun; during parsing/lowering/verification it may be shared across
// worker goroutines, guarded by its mutex so concurrent writers serialize
// into one buffer.
type DiagnosticSink struct {
	files *FileTable
	mx    sync.Mutex
	diags []Diagnostic
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
)

// ---------------------
// ----- Functions -----
// ---------------------

// severityNames provides string literals for Severity constants.
var severityNames = [...]string{"note", "warning", "error"}

// String returns the textual name of Severity s.
func (s Severity) String() string {
	if int(s) < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// colorAttr returns the fatih/color attribute set used to highlight s's
// severity keyword. color.NoColor (auto-detected by fatih/color from
// whether stdout/stderr is a terminal) makes this a byte-for-byte no-op
// when output is redirected, which is what keeps the "severity:
// file:line:col: message" format in spec.md §7 stable under test.
func (s Severity) colorAttr() *color.Color {
	switch s {
	case SeverityError:
		return color.New(color.FgRed, color.Bold)
	case SeverityWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

// NewDiagnosticSink returns an empty DiagnosticSink that resolves
// SourceLoc.FileID through files.
func NewDiagnosticSink(files *FileTable) *DiagnosticSink {
	return &DiagnosticSink{files: files}
}

// Append records a Diagnostic. Safe for concurrent use.
func (d *DiagnosticSink) Append(sev Severity, loc SourceLoc, format string, args ...interface{}) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.diags = append(d.diags, Diagnostic{Severity: sev, Message: fmt.Sprintf(format, args...), Loc: loc})
}

// Len returns the number of diagnostics recorded so far.
func (d *DiagnosticSink) Len() int {
	d.mx.Lock()
	defer d.mx.Unlock()
	return len(d.diags)
}

// HasErrors returns true if any recorded diagnostic has SeverityError.
func (d *DiagnosticSink) HasErrors() bool {
	d.mx.Lock()
	defer d.mx.Unlock()
	for _, diag := range d.diags {
		if diag.Severity == SeverityError {
			return true
		}
	}
	return false
}

// All returns a stable-ordered copy of every recorded diagnostic.
func (d *DiagnosticSink) All() []Diagnostic {
	d.mx.Lock()
	defer d.mx.Unlock()
	out := make([]Diagnostic, len(d.diags))
	copy(out, d.diags)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Loc.Line < out[j].Loc.Line
	})
	return out
}

// Flush writes every recorded diagnostic to w in the stable
// "severity: file:line:col: message" format and empties the sink.
func (d *DiagnosticSink) Flush(w io.Writer) {
	for _, diag := range d.All() {
		sevText := diag.Severity.colorAttr().Sprint(diag.Severity.String())
		fmt.Fprintf(w, "%s: %s: %s\n", sevText, diag.Loc.String(d.files), diag.Message)
	}
	d.mx.Lock()
	d.diags = d.diags[:0]
	d.mx.Unlock()
}
