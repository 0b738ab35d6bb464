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

// newRunCmd builds "run <file.il>" (spec.md §6.1): parse a textual IL
// module, verify it, and execute its "main" function under the shared
// debug flags.
func newRunCmd() *cobra.Command {
	var f debugFlags
	cmd := &cobra.Command{
		Use:   "run <file.il>",
		Short: "verify and execute a textual IL module",
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
			if rpt := verify.Module(mod); !rpt.OK() {
				for _, finding := range rpt.Findings {
					fmt.Fprintln(cmd.ErrOrStderr(), finding.String())
				}
				return setExit(1)
			}
			code := runSession(mod, nil, path, nil, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return setExit(code)
		},
	}
	addDebugFlags(cmd, &f)
	return cmd
}
