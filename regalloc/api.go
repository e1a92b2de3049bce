// Package regalloc implements a target-independent linear-scan register
// allocator for a single straight-line basic block of machine
// instructions. The instruction set itself is out of scope: callers
// plug in their own instruction type I and a Callbacks[I] describing how
// to inspect and rewrite it. See api.go for the five capabilities the
// allocator needs, and allocator.go for the entry point.
package regalloc

// Callbacks is the capability-based interface the allocator needs from
// its caller, expressed as a struct of function values rather than a Go
// interface so that I can be any concrete instruction representation
// without the caller writing a wrapper type. This is the Go-native form
// of the five callback parameters in the C original
// (isMove/getRegUsage/mapRegs/genSpill/genRestore).
type Callbacks[I any] struct {
	// IsMove reports whether instr is a register-to-register move, and if
	// so which vreg it copies from and to. Used only by the optional
	// Stage 4 preference computation; a Callbacks value that always
	// returns false is conformant.
	IsMove func(instr I) (ok bool, src, dst Reg)

	// RegUsage returns every register operand of instr together with the
	// mode (Read/Write/Modify) it is used in. The returned slice may be
	// reused by the next call; the allocator never retains it.
	RegUsage func(instr I) []RegUse

	// MapRegs rewrites instr in place (or returns a fresh copy; either is
	// fine) under the given virtual-to-real substitution. Only vregs that
	// are keys of sub need to change; everything else is left alone.
	MapRegs func(instr I, sub Substitution) I

	// GenSpill produces an instruction that stores rr to the spill slot
	// at the given byte offset.
	GenSpill func(rr RealReg, class RegClass, byteOffset int) I

	// GenRestore produces an instruction that loads the spill slot at the
	// given byte offset into rr.
	GenRestore func(rr RealReg, class RegClass, byteOffset int) I
}

// Substitution is the vreg->rreg mapping MapRegs must apply. It is built
// fresh for each instruction in Stage 5 and handed to MapRegs; backends
// should treat it as read-only.
type Substitution struct {
	m map[VRegID]RealReg
}

// Lookup returns the real register bound to v, if any.
func (s Substitution) Lookup(v VRegID) (RealReg, bool) {
	r, ok := s.m[v]
	return r, ok
}

// RealRegs is the ordered, caller-supplied array of allocatable real
// registers the allocator is free to use. Order matters only in that it
// determines tie-breaking in the deterministic-selection policy of
// Stage 5 (§4.5(f)).
type RealRegs struct {
	regs    []RealReg
	classOf map[RealReg]RegClass
	index   map[RealReg]int
}

// NewRealRegs builds a RealRegs set from the given registers and their
// classes. Panics (as a programmer error, not an AllocError) if regs
// contains a duplicate.
func NewRealRegs(regs []RealReg, classOf map[RealReg]RegClass) RealRegs {
	idx := make(map[RealReg]int, len(regs))
	for i, r := range regs {
		if _, dup := idx[r]; dup {
			panic("regalloc: duplicate real register in allocatable set")
		}
		idx[r] = i
	}
	return RealRegs{regs: regs, classOf: classOf, index: idx}
}

// Len returns the number of allocatable real registers.
func (r RealRegs) Len() int { return len(r.regs) }

// At returns the allocatable real register at index i.
func (r RealRegs) At(i int) RealReg { return r.regs[i] }

// IndexOf returns the allocatable-array index of rr, and false if rr is
// not one of the allocatable registers (e.g. it's the stack pointer).
// This is hregToIndex from the C source (§9 open question 3): the
// allocator must always go through this rather than indexing RRegState
// by the raw register handle.
func (r RealRegs) IndexOf(rr RealReg) (int, bool) {
	i, ok := r.index[rr]
	return i, ok
}

// ClassOf returns the register class of rr.
func (r RealRegs) ClassOf(rr RealReg) RegClass { return r.classOf[rr] }
