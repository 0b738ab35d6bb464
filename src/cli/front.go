package cli

import (
	"fmt"
	"os"

	"basilc/src/frontend"

	"github.com/spf13/cobra"
)

// ---------------------
// ----- Functions -----
// ---------------------

// newFrontCmd builds "front basic -run <file.bas>" (spec.md §6.1) as a
// "front" command with one front-end-named subcommand, mirroring the
// pipeline's only external collaborator (src/frontend) being BASIC today.
// "-run" is exposed as the long flag "--run"; it is the front end's only
// supported mode, kept as an explicit flag rather than silently assumed so
// a future front end with a compile-only mode has somewhere to put it.
func newFrontCmd() *cobra.Command {
	front := &cobra.Command{
		Use:   "front",
		Short: "drive a source-language front end",
	}
	front.AddCommand(newFrontBasicCmd())
	return front
}

func newFrontBasicCmd() *cobra.Command {
	var f debugFlags
	var run bool
	cmd := &cobra.Command{
		Use:   "basic <file.bas>",
		Short: "compile a BASIC program via the front end and run it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !run {
				return fmt.Errorf("front basic: --run is the only supported mode")
			}
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			mod, lines, symbols, err := frontend.LowerSourceSymbols(string(src), path, moduleNameFor(path))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			code := runSession(mod, lines, path, symbols, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return setExit(code)
		},
	}
	cmd.Flags().BoolVar(&run, "run", true, "compile and run the program (the only supported mode)")
	addDebugFlags(cmd, &f)
	return cmd
}

// moduleNameFor derives an IL module name from a source file path: its
// base name with any extension stripped.
func moduleNameFor(path string) string {
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			base = path[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}
