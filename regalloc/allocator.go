// Package regalloc implements a target-independent linear-scan register
// allocator for straight-line machine instruction sequences: a single
// basic block, already scheduled, with no control flow. Callers supply a
// Callbacks value describing their instruction type I and get back a
// rewritten instruction stream in which every virtual register has been
// replaced by a real one, with spill and restore instructions inserted
// where the allocator ran out of real registers.
//
// The package is deliberately small and has no notion of functions,
// basic blocks, or control-flow graphs: that structure, if any, belongs
// to the caller, which is expected to invoke Allocate once per block.
package regalloc

import "fmt"

// Config bundles everything one Allocate call needs: how many virtual
// registers the instruction stream references, which real registers are
// available to hand out, how many spill slots exist, and the Callbacks
// that let the allocator understand instructions of type I without
// depending on their concrete shape.
type Config[I any] struct {
	NumVRegs   int
	RealRegs   RealRegs
	SpillSlots int
	Callbacks  Callbacks[I]

	// ClassSpillSize optionally overrides the spill-slot width (in
	// bytes) needed for a given class. Nil means every class fits in
	// one 8-byte slot.
	ClassSpillSize func(RegClass) int
}

// Allocator runs the five-stage pipeline described in spec.md §4. It
// holds no state between calls beyond logging configuration, so one
// Allocator value can be reused across unrelated instruction streams
// (and goroutines must not share a single Allocate call, but may each
// hold their own Allocator).
type Allocator[I any] struct {
	// Verbose, when true, makes Allocate call Logf (or fmt.Printf to
	// stdout if Logf is nil) with a line per instruction as Stage 5
	// processes it. Grounded on xyproto-vibe67's VerboseMode / PrintAllocation.
	Verbose bool
	Logf    func(format string, args ...any)
}

// NewAllocator returns an Allocator with Verbose off and no Logf hook.
func NewAllocator[I any]() *Allocator[I] {
	return &Allocator[I]{}
}

// Allocate runs Stages 1 through 5 over instrs and returns the rewritten
// instruction stream. On success err is nil and out has at least
// len(instrs) entries (more, if any spills or restores were inserted).
// On failure out is nil and err is an *AllocError identifying the kind
// of failure and the offending instruction index.
func (a *Allocator[I]) Allocate(instrs []I, cfg Config[I]) (out []I, err error) {
	defer recoverAllocError(&err)

	if cfg.NumVRegs < 0 {
		fail(MalformedInput, -1, "negative NumVRegs %d", cfg.NumVRegs)
	}
	if cfg.SpillSlots < 0 {
		fail(MalformedInput, -1, "negative SpillSlots %d", cfg.SpillSlots)
	}
	if cfg.Callbacks.RegUsage == nil || cfg.Callbacks.MapRegs == nil ||
		cfg.Callbacks.GenSpill == nil || cfg.Callbacks.GenRestore == nil {
		fail(MalformedInput, -1, "Callbacks is missing a required function")
	}

	infos := computeVRegLiveness(instrs, cfg.NumVRegs, cfg.Callbacks, cfg.ClassSpillSize)
	hardRanges := computeRRegHardRanges(instrs, cfg.RealRegs, cfg.Callbacks)
	assignSpillSlots(infos, cfg.SpillSlots)
	computePreferences(instrs, infos, cfg.Callbacks)

	logf := a.Logf
	if a.Verbose && logf == nil {
		logf = defaultLogf
	} else if !a.Verbose {
		logf = nil
	}

	rw := newRewriter(cfg.RealRegs, cfg.Callbacks, infos, hardRanges, len(instrs), logf)
	return rw.run(instrs), nil
}

// Allocate is a package-level convenience for callers who don't need to
// reuse logging configuration across calls.
func Allocate[I any](instrs []I, cfg Config[I]) ([]I, error) {
	return NewAllocator[I]().Allocate(instrs, cfg)
}

func defaultLogf(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}
