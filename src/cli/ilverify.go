package cli

import (
	"fmt"
	"os"

	"basilc/src/iltext"
	"basilc/src/verify"

	"github.com/spf13/cobra"
)

// ---------------------
// ----- Functions -----
// ---------------------

// newILVerifyCmd builds "il-verify <file.il>" (spec.md §6.1): parse a
// textual IL module and run the structural verifier, printing every
// finding and exiting nonzero if any were found.
func newILVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "il-verify <file.il>",
		Short: "check a textual IL module against the structural verifier",
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
			rpt := verify.Module(mod)
			for _, finding := range rpt.Findings {
				fmt.Fprintln(cmd.OutOrStdout(), finding.String())
			}
			if !rpt.OK() {
				return setExit(1)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return setExit(0)
		},
	}
	return cmd
}
