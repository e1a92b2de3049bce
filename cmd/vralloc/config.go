package main

import (
	"github.com/spf13/cobra"
	env "github.com/xyproto/env/v2"
)

// config resolves the allocator's tunables from, in precedence order,
// explicit flags, then environment variables, then hard-coded defaults.
// The teacher's go.mod lists github.com/xyproto/env/v2 but never
// imports it anywhere in xyproto-vibe67 or xyproto-flapc; this is where
// vralloc actually wires it up.
type config struct {
	arch       string
	spillSlots int
	verbose    bool
}

func resolveConfig(cmd *cobra.Command) config {
	cfg := config{
		arch:       env.Str("VRALLOC_ARCH", "x86_64"),
		spillSlots: env.Int("VRALLOC_SPILL_SLOTS", 64),
		verbose:    env.Bool("VRALLOC_VERBOSE"),
	}

	if f := cmd.Flags().Lookup("arch"); f != nil && f.Changed {
		cfg.arch, _ = cmd.Flags().GetString("arch")
	}
	if f := cmd.Flags().Lookup("spill-slots"); f != nil && f.Changed {
		cfg.spillSlots, _ = cmd.Flags().GetInt("spill-slots")
	}
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
		cfg.verbose, _ = cmd.Flags().GetBool("verbose")
	}
	return cfg
}
