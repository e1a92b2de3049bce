// Command vralloc is a small CLI around the regalloc package and its
// demo backend: it parses a textual assembly file, runs the allocator
// over it, and prints the rewritten instruction stream. Restructured
// around cobra (root command plus run/watch subcommands) rather than
// the teacher's flag.Parse-based cli.go, per the retrieval pack's other
// CLI examples.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vralloc",
		Short:         "Run the linear-scan register allocator over a demo assembly file",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("arch", "", "target architecture: x86_64, aarch64, riscv64 (default from VRALLOC_ARCH, else x86_64)")
	root.PersistentFlags().Int("spill-slots", 0, "number of 8-byte spill slots (default from VRALLOC_SPILL_SLOTS, else 64)")
	root.PersistentFlags().Bool("verbose", false, "log allocator decisions to stderr (default from VRALLOC_VERBOSE)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newWatchCmd())
	return root
}
