package regalloc

// liveUnset is the ⊥ sentinel from spec.md §3: "never referenced".
const liveUnset = -1

// vregInfo is VRegInfo from spec.md §3: everything Stage 1 learns about a
// single virtual register's end-to-end live range, computed once and
// read-only from Stage 2 onward (Stage 3 fills in spillOffset, Stage 4
// fills in preferred/hasPref).
type vregInfo struct {
	liveAfter   int
	deadBefore  int
	spillOffset int
	spillSize   int
	class       RegClass
	hasPref     bool
	preferred   RealReg
}

// unused reports whether this vreg was never read, written, or modified
// by any instruction (spec.md §3 invariant: both fields are ⊥).
func (v *vregInfo) unused() bool { return v.liveAfter == liveUnset }

// computeVRegLiveness is Stage 1 (spec.md §4.1). It scans the
// instruction stream once and records the half-open live range
// [liveAfter, deadBefore) of every virtual register.
func computeVRegLiveness[I any](instrs []I, numVRegs int, cb Callbacks[I], classSpillSize func(RegClass) int) []vregInfo {
	infos := make([]vregInfo, numVRegs)
	for i := range infos {
		infos[i] = vregInfo{liveAfter: liveUnset, deadBefore: liveUnset}
	}

	for ii, instr := range instrs {
		for _, use := range cb.RegUsage(instr) {
			if !use.Reg.IsVirtual() {
				continue
			}
			v := use.Reg.VRegIndex()
			if int(v) >= numVRegs {
				fail(MalformedInput, ii, "vreg index %d outside [0, %d)", v, numVRegs)
			}
			info := &infos[v]
			info.class = use.Reg.Class()
			if info.spillSize == 0 {
				info.spillSize = spillSizeOf(use.Reg.Class(), classSpillSize)
			}

			switch use.Mode {
			case Read:
				if info.liveAfter == liveUnset {
					fail(MalformedInput, ii, "first event for v%d is a read", v)
				}
				info.deadBefore = ii + 1
			case Write:
				if info.liveAfter == liveUnset {
					info.liveAfter = ii
				}
				info.deadBefore = ii + 1
			case Modify:
				if info.liveAfter == liveUnset {
					fail(MalformedInput, ii, "first event for v%d is a modify", v)
				}
				info.deadBefore = ii + 1
			default:
				fail(InternalInvariant, ii, "unknown register-use mode %v for v%d", use.Mode, v)
			}
		}
	}
	return infos
}

func spillSizeOf(c RegClass, classSpillSize func(RegClass) int) int {
	if classSpillSize != nil {
		if sz := classSpillSize(c); sz > 0 {
			return sz
		}
	}
	return 8
}
