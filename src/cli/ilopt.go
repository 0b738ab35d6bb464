package cli

import (
	"fmt"
	"os"
	"strings"

	"basilc/src/iltext"
	"basilc/src/llvmgen"
	"basilc/src/pass"
	"basilc/src/verify"

	"github.com/spf13/cobra"
)

// ---------------------
// ----- Functions -----
// ---------------------

// newILOptCmd builds "il-opt <in.il> -o <out.il> [--passes a,b,c]
// [--no-mem2reg] [--mem2reg-stats] [--emit-llvm <out.ll>]" (spec.md §6.1,
// SPEC_FULL.md §2's experimental LLVM emission).
func newILOptCmd() *cobra.Command {
	var (
		out         string
		passList    string
		noMem2Reg   bool
		mem2regStat bool
		verifyEach  bool
		emitLLVM    string
	)
	cmd := &cobra.Command{
		Use:   "il-opt <in.il>",
		Short: "run the optimization pipeline over a textual IL module",
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

			passes, err := resolvePasses(passList, noMem2Reg)
			if err != nil {
				return err
			}
			mgr := pass.NewManager(passes, verifyEach)
			stats, err := mgr.Run(mod)
			if err != nil {
				return err
			}
			if rpt := verify.Module(mod); !rpt.OK() {
				for _, finding := range rpt.Findings {
					fmt.Fprintln(cmd.ErrOrStderr(), finding.String())
				}
				return setExit(1)
			}

			text := iltext.Print(mod)
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), text)
			} else if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				return err
			}

			if mem2regStat {
				fmt.Fprintf(cmd.OutOrStdout(), "[MEM2REG] allocas=%d loads=%d stores=%d\n",
					stats.AllocasPromoted, stats.LoadsEliminated, stats.StoresEliminated)
			}

			if emitLLVM != "" {
				ll, err := llvmgen.Translate(mod)
				if err != nil {
					return fmt.Errorf("emit-llvm: %w", err)
				}
				if err := os.WriteFile(emitLLVM, []byte(ll), 0o644); err != nil {
					return err
				}
			}
			return setExit(0)
		},
	}
	cmd.Flags().StringVarP(&out, "o", "o", "", "output file for the optimized module (default: stdout)")
	cmd.Flags().StringVar(&passList, "passes", "", "comma-separated pass list (default: the built-in pipeline)")
	cmd.Flags().BoolVar(&noMem2Reg, "no-mem2reg", false, "skip the mem2reg pass in the default pipeline")
	cmd.Flags().BoolVar(&mem2regStat, "mem2reg-stats", false, "print mem2reg's allocas/loads/stores counters")
	cmd.Flags().BoolVar(&verifyEach, "verify-each", false, "run the verifier after every pass, not just once at the end")
	cmd.Flags().StringVar(&emitLLVM, "emit-llvm", "", "also emit experimental LLVM IR to this file")
	return cmd
}

// resolvePasses turns "--passes"/"--no-mem2reg" into the concrete pass
// list a Manager should run: an explicit "--passes" list wins outright;
// otherwise it is the built-in default pipeline, minus mem2reg if
// "--no-mem2reg" was given.
func resolvePasses(passList string, noMem2Reg bool) ([]pass.Pass, error) {
	if passList == "" {
		passes := pass.Default()
		if !noMem2Reg {
			return passes, nil
		}
		filtered := make([]pass.Pass, 0, len(passes))
		for _, p := range passes {
			if p.Name != "mem2reg" {
				filtered = append(filtered, p)
			}
		}
		return filtered, nil
	}
	var passes []pass.Pass
	for _, name := range strings.Split(passList, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, ok := pass.ByName(name)
		if !ok {
			return nil, fmt.Errorf("--passes: unknown pass %q", name)
		}
		passes = append(passes, p)
	}
	return passes, nil
}
