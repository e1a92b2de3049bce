package regalloc

import "fmt"

// disposition is RRegState.disp from spec.md §3.
type disposition uint8

const (
	free disposition = iota
	unavail
	bound
)

// rregState is RRegState from spec.md §3: the allocator's running,
// per-allocatable-real-register state, maintained across Stage 5.
type rregState struct {
	disp disposition
	vreg VRegID // meaningful only when disp == bound
}

// rewriter carries everything Stage 5 needs across the instruction loop.
// It is call-scoped: a fresh one is built per Allocate call and discarded
// on return, per spec.md §5.
type rewriter[I any] struct {
	regs       RealRegs
	cb         Callbacks[I]
	infos      []vregInfo
	hardRanges []rregInterval
	states     []rregState
	out        []I
	logf       func(format string, args ...any)
}

func newRewriter[I any](regs RealRegs, cb Callbacks[I], infos []vregInfo, hardRanges []rregInterval, expectedOut int, logf func(string, ...any)) *rewriter[I] {
	states := make([]rregState, regs.Len())
	for i := range states {
		states[i] = rregState{disp: free}
	}
	return &rewriter[I]{
		regs:       regs,
		cb:         cb,
		infos:      infos,
		hardRanges: hardRanges,
		states:     states,
		out:        make([]I, 0, expectedOut),
		logf:       logf,
	}
}

// run is the Stage 5 main loop (spec.md §4.5).
func (r *rewriter[I]) run(instrs []I) []I {
	for ii, instr := range instrs {
		r.sanityCheck(ii)
		r.expireDead(ii)
		r.handleHardRangeTransitions(ii)

		uses := r.cb.RegUsage(instr)
		for _, u := range uses {
			if !u.Reg.IsVirtual() {
				continue
			}
			if u.Mode == Read || u.Mode == Modify {
				r.ensureResident(ii, u.Reg, true)
			}
		}
		for _, u := range uses {
			if !u.Reg.IsVirtual() {
				continue
			}
			if u.Mode == Write {
				r.ensureResident(ii, u.Reg, false)
			}
		}

		sub := r.substitutionFor(uses)
		r.out = append(r.out, r.cb.MapRegs(instr, sub))

		if r.logf != nil {
			r.logf("regalloc: instr %d rewritten, %d bound real regs", ii, r.countBound())
		}
	}
	return r.out
}

// sanityCheck enforces the four §3 invariants at the top of every
// instruction iteration, before any state for this instruction changes.
func (r *rewriter[I]) sanityCheck(ii int) {
	// Invariant 1 and its converse, invariant 2: a real register is
	// Unavail, as observed at the top of an iteration, for exactly the
	// instructions strictly after a hard range's liveAfter and up to
	// and including its deadBefore — entry happens during the liveAfter
	// instruction itself (before that instruction's own operands are
	// processed) and exit during the deadBefore instruction (likewise
	// before its operands), so the state is only externally visible, at the top of
	// the loop, one instruction later than each boundary.
	for _, hr := range r.hardRanges {
		if hr.liveAfter < ii && ii <= hr.deadBefore {
			idx, ok := r.regs.IndexOf(hr.rr)
			if !ok || r.states[idx].disp != unavail {
				fail(InternalInvariant, ii, "real register %v inside hard range (%d,%d] is not Unavail", hr.rr, hr.liveAfter, hr.deadBefore)
			}
		}
	}
	for idx := 0; idx < r.regs.Len(); idx++ {
		if r.states[idx].disp != unavail {
			continue
		}
		rr := r.regs.At(idx)
		covered := false
		for _, hr := range r.hardRanges {
			if hr.rr == rr && hr.liveAfter < ii && ii <= hr.deadBefore {
				covered = true
				break
			}
		}
		if !covered {
			fail(InternalInvariant, ii, "real register %v marked Unavail with no covering hard range", rr)
		}
	}
	// Invariant 3: no vreg bound to two rregs at once.
	seen := make(map[VRegID]RealReg)
	for idx := 0; idx < r.regs.Len(); idx++ {
		if r.states[idx].disp != bound {
			continue
		}
		v := r.states[idx].vreg
		if prior, ok := seen[v]; ok {
			fail(InternalInvariant, ii, "v%d bound to both %v and %v", v, prior, r.regs.At(idx))
		}
		seen[v] = r.regs.At(idx)
	}
	// Invariant 4: class agreement on every binding.
	for idx := 0; idx < r.regs.Len(); idx++ {
		if r.states[idx].disp != bound {
			continue
		}
		v := r.states[idx].vreg
		if r.infos[v].class != r.regs.ClassOf(r.regs.At(idx)) {
			fail(InternalInvariant, ii, "v%d (class %v) bound to %v (class %v)", v, r.infos[v].class, r.regs.At(idx), r.regs.ClassOf(r.regs.At(idx)))
		}
	}
}

// expireDead is step (b): free any Bound slot whose vreg's live range
// ends exactly at ii. dead_before is half-open, so the instruction at
// dead_before-1 was the last user.
func (r *rewriter[I]) expireDead(ii int) {
	for idx := range r.states {
		st := &r.states[idx]
		if st.disp != bound {
			continue
		}
		if r.infos[st.vreg].deadBefore == ii {
			st.disp = free
		}
	}
}

// handleHardRangeTransitions is step (c): free rregs whose hard range
// ends at this instruction, and evict (spilling to make room) whatever
// vreg currently occupies a rreg whose hard range begins at this
// instruction, before the instruction's own real-register operands are
// considered.
func (r *rewriter[I]) handleHardRangeTransitions(ii int) {
	for _, hr := range r.hardRanges {
		if hr.deadBefore == ii {
			idx, ok := r.regs.IndexOf(hr.rr)
			if ok && r.states[idx].disp == unavail {
				r.states[idx].disp = free
			}
		}
	}
	for _, hr := range r.hardRanges {
		if hr.liveAfter == ii {
			idx, ok := r.regs.IndexOf(hr.rr)
			if !ok {
				continue
			}
			st := &r.states[idx]
			if st.disp == bound {
				r.spill(ii, idx, st.vreg)
			}
			st.disp = unavail
		}
	}
}

// ensureResident is steps (d) and (e). If the vreg is already bound
// somewhere, nothing to do. Otherwise pick a target register: for a
// read/modify operand (needsRestore), emit a reload from its spill slot;
// for a write-only operand, just reserve a home.
func (r *rewriter[I]) ensureResident(ii int, v Reg, needsRestore bool) {
	id := v.VRegIndex()
	if _, idx, ok := r.boundIndexOf(id); ok {
		_ = idx
		return
	}
	info := &r.infos[id]
	idx := r.selectReal(ii, info)
	if needsRestore {
		r.out = append(r.out, r.cb.GenRestore(r.regs.At(idx), info.class, info.spillOffset))
	}
	r.states[idx] = rregState{disp: bound, vreg: id}
}

// boundIndexOf returns the allocatable-array index currently bound to v,
// if any.
func (r *rewriter[I]) boundIndexOf(v VRegID) (RealReg, int, bool) {
	for idx, st := range r.states {
		if st.disp == bound && st.vreg == v {
			return r.regs.At(idx), idx, true
		}
	}
	return RealRegInvalid, -1, false
}

// selectReal is step (f): the real-register selection policy. Candidates
// are Free slots of the right class; a recorded preference wins ties,
// otherwise the lowest allocatable-array index wins (deterministic). If
// no Free candidate exists, the Bound candidate of the right class with
// the farthest-future dead_before is evicted (ties broken by lowest
// index), and NoRegForClass is raised if there is no candidate at all.
func (r *rewriter[I]) selectReal(ii int, info *vregInfo) int {
	if info.hasPref {
		if idx, ok := r.regs.IndexOf(info.preferred); ok &&
			r.regs.ClassOf(r.regs.At(idx)) == info.class &&
			r.states[idx].disp == free {
			return idx
		}
	}

	for idx := 0; idx < r.regs.Len(); idx++ {
		if r.states[idx].disp == free && r.regs.ClassOf(r.regs.At(idx)) == info.class {
			return idx
		}
	}

	victim := -1
	victimDeadBefore := -1
	for idx := 0; idx < r.regs.Len(); idx++ {
		st := r.states[idx]
		if st.disp != bound || r.regs.ClassOf(r.regs.At(idx)) != info.class {
			continue
		}
		db := r.infos[st.vreg].deadBefore
		if db > victimDeadBefore {
			victim, victimDeadBefore = idx, db
		}
	}
	if victim < 0 {
		fail(NoRegForClass, ii, "no candidate real register of class %v to allocate or evict", info.class)
	}
	r.spill(ii, victim, r.states[victim].vreg)
	return victim
}

// spill emits a genSpill for whatever v currently holds at allocatable
// index idx and frees the slot. Shared by eviction (selectReal) and
// forced hard-range entry (handleHardRangeTransitions).
func (r *rewriter[I]) spill(ii int, idx int, v VRegID) {
	info := &r.infos[v]
	r.out = append(r.out, r.cb.GenSpill(r.regs.At(idx), info.class, info.spillOffset))
	r.states[idx] = rregState{disp: free}
	if r.logf != nil {
		r.logf("regalloc: instr %d spilled v%d from %v", ii, v, r.regs.At(idx))
	}
}

// substitutionFor builds the vreg->rreg mapping for the instruction
// currently being rewritten (step (g)): every virtual operand it
// mentions must, by this point, be Bound.
func (r *rewriter[I]) substitutionFor(uses []RegUse) Substitution {
	m := make(map[VRegID]RealReg, len(uses))
	for _, u := range uses {
		if !u.Reg.IsVirtual() {
			continue
		}
		rr, _, ok := r.boundIndexOf(u.Reg.VRegIndex())
		if !ok {
			panic(fmt.Sprintf("regalloc: BUG: v%d has no binding at rewrite time", u.Reg.VRegIndex()))
		}
		m[u.Reg.VRegIndex()] = rr
	}
	return Substitution{m: m}
}

func (r *rewriter[I]) countBound() int {
	n := 0
	for _, st := range r.states {
		if st.disp == bound {
			n++
		}
	}
	return n
}
