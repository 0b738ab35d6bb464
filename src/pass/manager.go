// Package pass implements basilc's optimization pipeline: a small,
// independently testable sequence of module-to-module rewrites driven by a
// named pass list, running a fixed sequence of mutating steps over the
// whole translation unit and reporting what changed.
package pass

import (
	"fmt"

	"basilc/src/il"
	"basilc/src/verify"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Stats records how many times each kind of rewrite fired during a Run.
// Every pass merges its own counts into the shared Stats rather than
// returning a separate report, so a full pipeline run produces one
// combined summary (spec.md §6.1 "-count" flag).
type Stats struct {
	AllocasPromoted   int
	LoadsEliminated   int
	StoresEliminated  int
	ParamsCanonicized int
	ConstantsFolded   int
	PeepholeRewrites  int
	InstrsRemoved     int
}

// Add merges o into s.
func (s *Stats) Add(o Stats) {
	s.AllocasPromoted += o.AllocasPromoted
	s.LoadsEliminated += o.LoadsEliminated
	s.StoresEliminated += o.StoresEliminated
	s.ParamsCanonicized += o.ParamsCanonicized
	s.ConstantsFolded += o.ConstantsFolded
	s.PeepholeRewrites += o.PeepholeRewrites
	s.InstrsRemoved += o.InstrsRemoved
}

// Pass is one named module rewrite.
type Pass struct {
	Name string
	Run  func(*il.Module) Stats
}

// ---------------------
// ----- Functions -----
// ---------------------

// Default returns the built-in pass pipeline in the order spec.md §4.6
// prescribes: mem2reg, simplifycfg, constfold, peephole, dce.
func Default() []Pass {
	return []Pass{
		{Name: "mem2reg", Run: Mem2Reg},
		{Name: "simplifycfg", Run: SimplifyCFG},
		{Name: "constfold", Run: ConstFold},
		{Name: "peephole", Run: Peephole},
		{Name: "dce", Run: DCE},
	}
}

// ByName returns the named built-in pass, or ok=false.
func ByName(name string) (Pass, bool) {
	for _, p := range Default() {
		if p.Name == name {
			return p, true
		}
	}
	return Pass{}, false
}

// Manager runs a named sequence of passes over a Module, optionally
// verifying after every pass (spec.md §8 property 2: the module must
// remain verifier-clean after each pass, and the full pipeline must be
// idempotent once it reaches a fixed point, property 3).
type Manager struct {
	Passes     []Pass
	VerifyEach bool
}

// NewManager returns a Manager running passes in order.
func NewManager(passes []Pass, verifyEach bool) *Manager {
	return &Manager{Passes: passes, VerifyEach: verifyEach}
}

// Run executes every configured pass over m in order, accumulating Stats.
// It returns an error immediately if VerifyEach is set and a pass leaves m
// not verifier-clean; this is a compiler bug, not a user-facing diagnostic,
// so the error names the offending pass.
func (mgr *Manager) Run(m *il.Module) (Stats, error) {
	var total Stats
	for _, p := range mgr.Passes {
		s := p.Run(m)
		total.Add(s)
		if mgr.VerifyEach {
			if r := verify.Module(m); !r.OK() {
				return total, fmt.Errorf("pass %q left the module unverifiable: %s", p.Name, r.Findings[0].String())
			}
		}
	}
	return total, nil
}
