package cli

import (
	"fmt"
	"os"

	"basilc/src/iltext"

	"github.com/spf13/cobra"
)

// ---------------------
// ----- Functions -----
// ---------------------

// newILDisCmd builds "il-dis <file.il> [--stats]" (spec.md §6.1, stats
// flag per SPEC_FULL.md §5.2): parse and reprint a module through the
// canonical printer, optionally preceded by a per-function block/
// instruction count summary.
func newILDisCmd() *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "il-dis <file.il>",
		Short: "disassemble (round-trip print) a textual IL module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			mod, err := iltext.Parse(path, string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if stats {
				printStats(cmd.OutOrStdout(), mod)
			}
			fmt.Fprint(cmd.OutOrStdout(), iltext.Print(mod))
			return setExit(0)
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "print per-function instruction and block counts")
	return cmd
}
