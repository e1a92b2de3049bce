package regalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// S1 — pass-through: an instruction with only real-register operands,
// none of them in the allocatable set, is untouched (spec.md §8,
// scenario S1). Real registers 1 and 2 are not allocatable here (the
// allocatable set is {3,4}), so Stage 2's RealRegs.IndexOf skips them
// entirely instead of treating their Modify/Read as a malformed first
// touch on a register it's supposed to be tracking hard ranges for.
func TestAllocateScenarioS1PassThrough(t *testing.T) {
	instrs := []testInstr{
		{name: "add", uses: []RegUse{tmR(1, RegClassInt), trR(2, RegClassInt)}},
	}
	out, err := Allocate(instrs, Config[testInstr]{
		NumVRegs:   0,
		RealRegs:   NewRealRegs([]RealReg{3, 4}, map[RealReg]RegClass{3: RegClassInt, 4: RegClassInt}),
		SpillSlots: 4,
		Callbacks:  testCallbacks(),
	})
	require.NoError(t, err)
	require.Equal(t, instrs, out)
}

// S2 — trivial allocation: write v0 then read v0 with two free rregs of
// matching class lands v0 in the same real register both times, no spills.
func TestAllocateScenarioS2Trivial(t *testing.T) {
	instrs := []testInstr{
		{name: "i0", uses: []RegUse{tw(0, RegClassInt)}},
		{name: "i1", uses: []RegUse{tr(0, RegClassInt)}},
	}
	out, err := Allocate(instrs, Config[testInstr]{
		NumVRegs:   1,
		RealRegs:   twoIntRegs(),
		SpillSlots: 4,
		Callbacks:  testCallbacks(),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	rr0 := out[0].uses[0].Reg
	rr1 := out[1].uses[0].Reg
	require.True(t, rr0.IsReal())
	require.True(t, rr1.IsReal())
	require.Equal(t, rr0.RealReg(), rr1.RealReg())
}

// S3 — forced spill: one allocatable rreg, [write v0; write v1; read v0;
// read v1]. v0's range [0,3) and v1's range [1,4) overlap, so the single
// register cannot hold both: v0 is evicted to make room for v1's write,
// then v1 is evicted in turn to make room for v0's read, then v0 expires
// on its own (its last use was r0) freeing the register for v1's restore.
func TestAllocateScenarioS3ForcedSpill(t *testing.T) {
	instrs := []testInstr{
		{name: "w0", uses: []RegUse{tw(0, RegClassInt)}},
		{name: "w1", uses: []RegUse{tw(1, RegClassInt)}},
		{name: "r0", uses: []RegUse{tr(0, RegClassInt)}},
		{name: "r1", uses: []RegUse{tr(1, RegClassInt)}},
	}
	out, err := Allocate(instrs, Config[testInstr]{
		NumVRegs:   2,
		RealRegs:   oneIntReg(),
		SpillSlots: 4,
		Callbacks:  testCallbacks(),
	})
	require.NoError(t, err)

	var names []string
	for _, i := range out {
		names = append(names, i.name)
	}
	require.Equal(t, []string{"w0", "spill", "w1", "spill", "restore", "r0", "restore", "r1"}, names)
}

// S4 — hard-range eviction: K=1, [write v0; clobber r0 (real, hard write);
// read v0] spills v0 before the clobber and restores it before the read.
func TestAllocateScenarioS4HardRangeEviction(t *testing.T) {
	instrs := []testInstr{
		{name: "w0", uses: []RegUse{tw(0, RegClassInt)}},
		{name: "clobber", uses: []RegUse{twR(1, RegClassInt)}},
		{name: "r0", uses: []RegUse{tr(0, RegClassInt)}},
	}
	out, err := Allocate(instrs, Config[testInstr]{
		NumVRegs:   1,
		RealRegs:   oneIntReg(),
		SpillSlots: 4,
		Callbacks:  testCallbacks(),
	})
	require.NoError(t, err)

	var names []string
	for _, i := range out {
		names = append(names, i.name)
	}
	require.Equal(t, []string{"w0", "spill", "clobber", "restore", "r0"}, names)
}

// S5 — slot reuse: zero allocatable rregs, two vregs with disjoint live
// ranges both land at spill_offset 0.
func TestAllocateScenarioS5SlotReuse(t *testing.T) {
	instrs := []testInstr{
		{name: "w0", uses: []RegUse{tw(0, RegClassInt)}},
		{name: "r0", uses: []RegUse{tr(0, RegClassInt)}},
		{name: "w1", uses: []RegUse{tw(1, RegClassInt)}},
		{name: "r1", uses: []RegUse{tr(1, RegClassInt)}},
	}
	infos := computeVRegLiveness(instrs, 2, testCallbacks(), nil)
	assignSpillSlots(infos, 1)
	require.Equal(t, 0, infos[0].spillOffset)
	require.Equal(t, 0, infos[1].spillOffset)
}

// S6 — class separation: an Int vreg and a Float vreg, one allocatable
// rreg of each class, never cross-assigned.
func TestAllocateScenarioS6ClassSeparation(t *testing.T) {
	instrs := []testInstr{
		{name: "wi", uses: []RegUse{tw(0, RegClassInt)}},
		{name: "wf", uses: []RegUse{tw(1, RegClassFloat)}},
		{name: "ri", uses: []RegUse{tr(0, RegClassInt)}},
		{name: "rf", uses: []RegUse{tr(1, RegClassFloat)}},
	}
	regs := NewRealRegs([]RealReg{1, 2}, map[RealReg]RegClass{1: RegClassInt, 2: RegClassFloat})
	out, err := Allocate(instrs, Config[testInstr]{
		NumVRegs:   2,
		RealRegs:   regs,
		SpillSlots: 4,
		Callbacks:  testCallbacks(),
	})
	require.NoError(t, err)

	require.Equal(t, RealReg(1), out[0].uses[0].Reg.RealReg())
	require.Equal(t, RegClassInt, out[0].uses[0].Reg.Class())
	require.Equal(t, RealReg(2), out[1].uses[0].Reg.RealReg())
	require.Equal(t, RegClassFloat, out[1].uses[0].Reg.Class())
}

func TestAllocateRejectsReadBeforeWrite(t *testing.T) {
	instrs := []testInstr{
		{name: "r0", uses: []RegUse{tr(0, RegClassInt)}},
	}
	_, err := Allocate(instrs, Config[testInstr]{
		NumVRegs:   1,
		RealRegs:   oneIntReg(),
		SpillSlots: 1,
		Callbacks:  testCallbacks(),
	})
	require.Error(t, err)
	var ae *AllocError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, MalformedInput, ae.Kind)
}

func TestAllocateReportsOutOfSpillSlots(t *testing.T) {
	instrs := []testInstr{
		{name: "w0", uses: []RegUse{tw(0, RegClassInt)}},
		{name: "w1", uses: []RegUse{tw(1, RegClassInt)}},
		{name: "r0", uses: []RegUse{tr(0, RegClassInt)}},
		{name: "r1", uses: []RegUse{tr(1, RegClassInt)}},
	}
	_, err := Allocate(instrs, Config[testInstr]{
		NumVRegs:   2,
		RealRegs:   oneIntReg(),
		SpillSlots: 0,
		Callbacks:  testCallbacks(),
	})
	require.Error(t, err)
	var ae *AllocError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, OutOfSpillSlots, ae.Kind)
}

func TestAllocatePreferenceElidesMove(t *testing.T) {
	// v0 is moved into r1 (a real register), so Stage 4 records r1 as
	// v0's preference and v0's first write lands in r1 rather than in
	// whatever register would otherwise be picked. (The mov's own hard
	// write of r1 then spills v0 and restores it into r2 for the read.)
	instrs := []testInstr{
		{name: "w0", uses: []RegUse{tw(0, RegClassInt)}},
		{
			name:    "mov",
			uses:    []RegUse{tr(0, RegClassInt), twR(1, RegClassInt)},
			isCopy:  true,
			copySrc: VReg(0, RegClassInt),
			copyDst: RReg(1, RegClassInt),
		},
	}
	out, err := Allocate(instrs, Config[testInstr]{
		NumVRegs:   1,
		RealRegs:   twoIntRegs(),
		SpillSlots: 4,
		Callbacks:  testCallbacks(),
	})
	require.NoError(t, err)
	require.Equal(t, RealReg(1), out[0].uses[0].Reg.RealReg())
}
