package isa

import (
	"fmt"

	"github.com/xyproto/vralloc/regalloc"
)

// Opcode is the demo ISA's tiny instruction set, adapted in spirit from
// add.go/div.go/mov.go/cmp.go/ret.go but with the architecture-specific
// encoding stripped out entirely: the allocator only ever needs to know
// an instruction's register operands and their read/write/modify modes,
// never its bytes.
type Opcode uint8

const (
	Mov Opcode = iota // dst = src
	Add               // dst += src  (modify dst, read src)
	Sub               // dst -= src  (modify dst, read src)
	Cmp               // flags = compare(a, b) (read a, read b)
	Div               // dst = dst / src, hard-clobbers the a/d register pair on x86-64
	Jmp               // unconditional branch, no register operands
	Ret               // return, optionally reading the register that holds the
	// return value (Dst), reported as a Read operand
	Spill   // synthesized: store a real register to a spill slot
	Restore // synthesized: load a real register from a spill slot
)

// String implements fmt.Stringer.
func (op Opcode) String() string {
	switch op {
	case Mov:
		return "mov"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Cmp:
		return "cmp"
	case Div:
		return "div"
	case Jmp:
		return "jmp"
	case Ret:
		return "ret"
	case Spill:
		return "spill"
	case Restore:
		return "restore"
	default:
		return "?"
	}
}

// Imm is an immediate integer operand, distinct from a register.
type Imm int64

// Instr is the demo ISA's single instruction representation: an opcode
// plus up to two register operands and an optional immediate. It is the
// concrete I the demo backend instantiates regalloc.Allocate with.
type Instr struct {
	Op Opcode

	// Dst and Src are register operands; their meaning (and mode)
	// depends on Op, and RegUsage reports only the ones Op uses. An
	// absent Ret value is regalloc.RegInvalid (Valid() == false); the
	// zero Reg is not that sentinel (it reads as v0 with no class).
	Dst, Src regalloc.Reg

	HasImm bool
	Imm    Imm

	Label string // target of Jmp

	// SpillOffset/SpillClass are set only on synthesized Spill/Restore
	// instructions produced by GenSpill/GenRestore.
	SpillOffset int
	SpillClass  regalloc.RegClass
}

// MovI builds a `mov dst, src` instruction (dst written, src read).
func MovI(dst, src regalloc.Reg) Instr { return Instr{Op: Mov, Dst: dst, Src: src} }

// MovImmI builds a `mov dst, #imm` instruction.
func MovImmI(dst regalloc.Reg, imm Imm) Instr { return Instr{Op: Mov, Dst: dst, HasImm: true, Imm: imm} }

// AddI builds `add dst, src` (dst = dst + src, a read-modify-write on dst).
func AddI(dst, src regalloc.Reg) Instr { return Instr{Op: Add, Dst: dst, Src: src} }

// SubI builds `sub dst, src`.
func SubI(dst, src regalloc.Reg) Instr { return Instr{Op: Sub, Dst: dst, Src: src} }

// CmpI builds `cmp a, b` (both read, nothing written).
func CmpI(a, b regalloc.Reg) Instr { return Instr{Op: Cmp, Dst: a, Src: b} }

// DivI builds `div dst, src` (dst = dst / src). On x86-64 this also
// hard-clobbers the a/d register pair, represented separately via
// RegUsage so Stage 2 picks it up even though neither Dst nor Src need
// be that pair.
func DivI(dst, src regalloc.Reg) Instr { return Instr{Op: Div, Dst: dst, Src: src} }

// JmpI builds an unconditional branch to label.
func JmpI(label string) Instr { return Instr{Op: Jmp, Label: label} }

// RetI builds a return, optionally reading the vreg holding the return value.
func RetI(value regalloc.Reg) Instr { return Instr{Op: Ret, Dst: value} }

// String renders an instruction roughly the way demo/asm would parse it
// back, for diagnostics and PrintAllocation-style dumps.
func (i Instr) String() string {
	switch i.Op {
	case Mov:
		if i.HasImm {
			return fmt.Sprintf("mov %s, %d", i.Dst, i.Imm)
		}
		return fmt.Sprintf("mov %s, %s", i.Dst, i.Src)
	case Add, Sub, Div:
		return fmt.Sprintf("%s %s, %s", i.Op, i.Dst, i.Src)
	case Cmp:
		return fmt.Sprintf("cmp %s, %s", i.Dst, i.Src)
	case Jmp:
		return fmt.Sprintf("jmp %s", i.Label)
	case Ret:
		if i.Dst.Valid() {
			return fmt.Sprintf("ret %s", i.Dst)
		}
		return "ret"
	case Spill:
		return fmt.Sprintf("spill [%d], %s", i.SpillOffset, i.Dst)
	case Restore:
		return fmt.Sprintf("restore %s, [%d]", i.Dst, i.SpillOffset)
	default:
		return "?"
	}
}

// Callbacks builds the regalloc.Callbacks[Instr] for a given machine,
// the demo backend's equivalent of wiring getRegUsage/mapRegs/genSpill/
// genRestore to concrete instruction-set knowledge.
func Callbacks(m *Machine) regalloc.Callbacks[Instr] {
	return regalloc.Callbacks[Instr]{
		IsMove:     isMove(m),
		RegUsage:   regUsage(m),
		MapRegs:    mapRegs,
		GenSpill:   genSpill,
		GenRestore: genRestore,
	}
}

// isMove reports plain mov instructions as moves, the way the teacher's
// IsMove would for any register-to-register copy, and also treats a
// Ret that reads a vreg as an implicit move into the calling
// convention's return register: this is how the demo backend feeds
// CallingConvention.PreferredForReturn into Stage 4, so a vreg known to
// hold a function's result lands directly in rax/x0/a0 (or the float
// equivalent) instead of Stage 5 having to shuffle it there.
func isMove(m *Machine) func(Instr) (bool, regalloc.Reg, regalloc.Reg) {
	cc := ForArch(m.Arch)
	return func(i Instr) (bool, regalloc.Reg, regalloc.Reg) {
		if i.Op == Mov && !i.HasImm && i.Src.Valid() {
			return true, i.Src, i.Dst
		}
		if i.Op == Ret && i.Dst.Valid() && i.Dst.IsVirtual() {
			if rr, ok := cc.PreferredForReturn(m, i.Dst.Class()); ok {
				return true, i.Dst, regalloc.RReg(rr, i.Dst.Class())
			}
		}
		return false, regalloc.Reg{}, regalloc.Reg{}
	}
}

func regUsage(m *Machine) func(Instr) []regalloc.RegUse {
	return func(i Instr) []regalloc.RegUse {
		var uses []regalloc.RegUse
		add := func(r regalloc.Reg, mode regalloc.Mode) {
			if r.Valid() {
				uses = append(uses, regalloc.RegUse{Reg: r, Mode: mode})
			}
		}
		switch i.Op {
		case Mov:
			add(i.Dst, regalloc.Write)
			if !i.HasImm {
				add(i.Src, regalloc.Read)
			}
		case Add, Sub:
			add(i.Dst, regalloc.Modify)
			if !i.HasImm {
				add(i.Src, regalloc.Read)
			}
		case Cmp:
			add(i.Dst, regalloc.Read)
			add(i.Src, regalloc.Read)
		case Div:
			add(i.Dst, regalloc.Modify)
			add(i.Src, regalloc.Read)
			if m.DivClobberLo != regalloc.RealRegInvalid {
				// Both halves of the clobbered pair are hard writes, not
				// modifies: a divide overwrites them unconditionally, it
				// never reads their prior contents. Modify would require
				// some earlier instruction to have already defined them
				// as a real operand, which Stage 2 has no reason to
				// expect of an arbitrary caller-supplied instruction
				// stream.
				add(regalloc.RReg(m.DivClobberLo, regalloc.RegClassInt), regalloc.Write)
				add(regalloc.RReg(m.DivClobberHi, regalloc.RegClassInt), regalloc.Write)
			}
		case Ret:
			add(i.Dst, regalloc.Read)
		case Jmp:
			// no register operands
		case Spill:
			add(i.Dst, regalloc.Read)
		case Restore:
			add(i.Dst, regalloc.Write)
		}
		return uses
	}
}

func mapRegs(i Instr, sub regalloc.Substitution) Instr {
	rewrite := func(r regalloc.Reg) regalloc.Reg {
		if !r.Valid() || r.IsReal() {
			return r
		}
		rr, ok := sub.Lookup(r.VRegIndex())
		if !ok {
			return r
		}
		return regalloc.RReg(rr, r.Class())
	}
	i.Dst = rewrite(i.Dst)
	if !i.HasImm {
		i.Src = rewrite(i.Src)
	}
	return i
}

func genSpill(rr regalloc.RealReg, class regalloc.RegClass, byteOffset int) Instr {
	return Instr{Op: Spill, Dst: regalloc.RReg(rr, class), SpillOffset: byteOffset, SpillClass: class}
}

func genRestore(rr regalloc.RealReg, class regalloc.RegClass, byteOffset int) Instr {
	return Instr{Op: Restore, Dst: regalloc.RReg(rr, class), SpillOffset: byteOffset, SpillClass: class}
}
