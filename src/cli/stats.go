package cli

import (
	"fmt"
	"io"

	"basilc/src/il"
)

// ---------------------
// ----- Functions -----
// ---------------------

// printStats writes a "[STATS]" line per function giving its block and
// instruction counts (SPEC_FULL.md §5.2).
func printStats(out io.Writer, mod *il.Module) {
	for _, fn := range mod.Functions {
		instrs := 0
		for _, b := range fn.Blocks {
			instrs += len(b.Instrs)
		}
		fmt.Fprintf(out, "[STATS] fn=@%s blocks=%d instrs=%d\n", fn.Name, len(fn.Blocks), instrs)
	}
}
