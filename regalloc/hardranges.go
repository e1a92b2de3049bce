package regalloc

// rregInterval is RRegInterval from spec.md §3: a disjoint span during
// which a real register is architecturally reserved by instruction
// semantics (e.g. a divide that hard-clobbers a specific register pair).
// A single real register may contribute several of these.
type rregInterval struct {
	rr         RealReg
	liveAfter  int
	deadBefore int
}

// computeRRegHardRanges is Stage 2 (spec.md §4.2). Real registers not in
// the allocatable set (stack pointer, frame pointer, ...) are ignored
// entirely, per RealRegs.IndexOf.
func computeRRegHardRanges[I any](instrs []I, regs RealRegs, cb Callbacks[I]) []rregInterval {
	la := make([]int, regs.Len())
	db := make([]int, regs.Len())
	for i := range la {
		la[i], db[i] = liveUnset, liveUnset
	}

	var out []rregInterval
	for ii, instr := range instrs {
		for _, use := range cb.RegUsage(instr) {
			if use.Reg.IsVirtual() {
				continue
			}
			r, ok := regs.IndexOf(use.Reg.RealReg())
			if !ok {
				continue
			}

			switch use.Mode {
			case Write:
				if la[r] != liveUnset {
					out = append(out, rregInterval{rr: regs.At(r), liveAfter: la[r], deadBefore: db[r]})
				}
				la[r], db[r] = ii, ii+1
			case Read:
				if la[r] == liveUnset {
					fail(MalformedInput, ii, "first event for real register %v is a read", use.Reg.RealReg())
				}
				db[r] = ii + 1
			case Modify:
				if la[r] == liveUnset {
					fail(MalformedInput, ii, "first event for real register %v is a modify", use.Reg.RealReg())
				}
				db[r] = ii + 1
			default:
				fail(InternalInvariant, ii, "unknown register-use mode %v for %v", use.Mode, use.Reg.RealReg())
			}
		}
	}

	for r := 0; r < regs.Len(); r++ {
		if la[r] != liveUnset {
			out = append(out, rregInterval{rr: regs.At(r), liveAfter: la[r], deadBefore: db[r]})
		}
	}
	return out
}
