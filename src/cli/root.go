package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ---------------------
// ----- Functions -----
// ---------------------

// NewRootCommand builds basilc's command tree: one subcommand per
// pipeline stage spec.md §6.1 names, sharing the debug/execution flags
// everywhere the pipeline actually runs a program.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "basilc",
		Short:         "basilc compiles and runs BASIC programs through a typed intermediate language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRunCmd(),
		newFrontCmd(),
		newILOptCmd(),
		newILVerifyCmd(),
		newILDisCmd(),
	)
	return root
}

// Execute runs the root command against os.Args and returns the process
// exit code: whatever the dispatched subcommand set via os.Exit's usual
// convention, recovered here since cobra surfaces it as a returned error
// rather than calling os.Exit itself.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		if code, ok := err.(exitError); ok {
			return code.code
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return lastExitCode
}

// exitError lets a subcommand's RunE report a specific process exit code
// (e.g. 10 for a debug halt) without cobra printing an extra "Error:"
// line for what is not really a failure.
type exitError struct {
	code int
}

func (e exitError) Error() string { return "" }

// lastExitCode is set by a subcommand immediately before it returns nil,
// for the ordinary "ran fine, exit 0" case; exitError covers every other
// case via the returned error itself.
var lastExitCode int

// setExit records code as Execute's return value for a subcommand that
// finished without an error worth printing.
func setExit(code int) error {
	if code == 0 {
		lastExitCode = 0
		return nil
	}
	return exitError{code: code}
}
