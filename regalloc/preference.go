package regalloc

// computePreferences is Stage 4 (spec.md §4.4). It is purely an
// optimisation: when a reg-reg move copies a vreg to or from a real
// register of the same class, recording that real register as the
// vreg's preference lets Stage 5's selection policy (§4.5(f)) land the
// vreg in that register and elide the move later. A Callbacks whose
// IsMove always reports false makes this stage a no-op, which is
// conformant per spec.md §4.4. A flagged move whose source and
// destination classes differ fails with MalformedInput.
func computePreferences[I any](instrs []I, infos []vregInfo, cb Callbacks[I]) {
	if cb.IsMove == nil {
		return
	}
	for ii, instr := range instrs {
		ok, src, dst := cb.IsMove(instr)
		if !ok {
			continue
		}
		if src.Class() != dst.Class() {
			fail(MalformedInput, ii, "move between register classes %v and %v", src.Class(), dst.Class())
		}
		preferReal(infos, dst, src)
		preferReal(infos, src, dst)
	}
}

// preferReal records other as the preferred real register for v, if v
// is virtual, other is real, and the classes agree. The first
// preference recorded for a vreg wins; later moves don't override it.
func preferReal(infos []vregInfo, v, other Reg) {
	if !v.IsVirtual() || !other.IsReal() {
		return
	}
	if v.Class() != other.Class() {
		return
	}
	info := &infos[v.VRegIndex()]
	if info.unused() || info.hasPref {
		return
	}
	info.hasPref = true
	info.preferred = other.RealReg()
}
