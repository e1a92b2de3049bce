package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xyproto/vralloc/demo/asm"
	"github.com/xyproto/vralloc/demo/isa"
	"github.com/xyproto/vralloc/regalloc"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Allocate registers for a demo assembly file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocate(cmd, args[0])
		},
	}
	return cmd
}

func runAllocate(cmd *cobra.Command, path string) error {
	cfg := resolveConfig(cmd)

	arch, err := isa.ParseArch(cfg.arch)
	if err != nil {
		return err
	}
	machine := isa.NewMachine(arch)

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("vralloc: %w", err)
	}

	instrs, numVRegs, err := asm.Parse(string(src), machine)
	if err != nil {
		return err
	}

	alloc := regalloc.NewAllocator[isa.Instr]()
	alloc.Verbose = cfg.verbose
	if cfg.verbose {
		alloc.Logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	out, err := alloc.Allocate(instrs, regalloc.Config[isa.Instr]{
		NumVRegs:   numVRegs,
		RealRegs:   machine.RealRegs(),
		SpillSlots: cfg.spillSlots,
		Callbacks:  isa.Callbacks(machine),
	})
	if err != nil {
		return fmt.Errorf("vralloc: %w", err)
	}

	fmt.Print(asm.Print(out, machine))
	return nil
}
