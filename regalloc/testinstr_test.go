package regalloc

// testInstr is a minimal instruction type used only by this package's
// own unit tests, independent of the demo/isa backend (which is
// exercised end to end by the heavier tests under demo/asm).
// Mirrors the teacher's register_allocator_test.go preference for small
// hand-built fixtures over a fixture-generating helper library.
type testInstr struct {
	name             string
	uses             []RegUse
	isCopy           bool
	copySrc, copyDst Reg
}

func tw(id VRegID, class RegClass) RegUse  { return RegUse{Reg: VReg(id, class), Mode: Write} }
func tr(id VRegID, class RegClass) RegUse  { return RegUse{Reg: VReg(id, class), Mode: Read} }
func tm(id VRegID, class RegClass) RegUse  { return RegUse{Reg: VReg(id, class), Mode: Modify} }
func twR(r RealReg, class RegClass) RegUse { return RegUse{Reg: RReg(r, class), Mode: Write} }
func trR(r RealReg, class RegClass) RegUse { return RegUse{Reg: RReg(r, class), Mode: Read} }
func tmR(r RealReg, class RegClass) RegUse { return RegUse{Reg: RReg(r, class), Mode: Modify} }

func testCallbacks() Callbacks[testInstr] {
	return Callbacks[testInstr]{
		IsMove: func(i testInstr) (bool, Reg, Reg) {
			if !i.isCopy {
				return false, Reg{}, Reg{}
			}
			return true, i.copySrc, i.copyDst
		},
		RegUsage: func(i testInstr) []RegUse { return i.uses },
		MapRegs: func(i testInstr, sub Substitution) testInstr {
			mapped := make([]RegUse, len(i.uses))
			for idx, u := range i.uses {
				if u.Reg.IsVirtual() {
					if rr, ok := sub.Lookup(u.Reg.VRegIndex()); ok {
						u.Reg = RReg(rr, u.Reg.Class())
					}
				}
				mapped[idx] = u
			}
			i.uses = mapped
			return i
		},
		GenSpill: func(rr RealReg, class RegClass, off int) testInstr {
			return testInstr{name: "spill", uses: []RegUse{{Reg: RReg(rr, class), Mode: Read}}}
		},
		GenRestore: func(rr RealReg, class RegClass, off int) testInstr {
			return testInstr{name: "restore", uses: []RegUse{{Reg: RReg(rr, class), Mode: Write}}}
		},
	}
}

func twoIntRegs() RealRegs {
	return NewRealRegs([]RealReg{1, 2}, map[RealReg]RegClass{1: RegClassInt, 2: RegClassInt})
}

func oneIntReg() RealRegs {
	return NewRealRegs([]RealReg{1}, map[RealReg]RegClass{1: RegClassInt})
}
