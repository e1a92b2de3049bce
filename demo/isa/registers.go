// Package isa is a small demonstration backend: just enough of a real
// instruction set architecture to drive the regalloc package end to end.
// It adapts the teacher's per-architecture register tables down to a
// single allocatable set per architecture, split into general-purpose
// (integer) and XMM-style (float) classes the way register_tracker.go
// reserves rsp/rbp before handing the rest to the allocator.
package isa

import (
	"fmt"

	"github.com/xyproto/vralloc/regalloc"
)

// Arch identifies one of the demo backend's target architectures.
type Arch uint8

const (
	ArchX86_64 Arch = iota
	ArchARM64
	ArchRiscv64
)

// String implements fmt.Stringer.
func (a Arch) String() string {
	switch a {
	case ArchX86_64:
		return "x86_64"
	case ArchARM64:
		return "aarch64"
	case ArchRiscv64:
		return "riscv64"
	default:
		return "unknown"
	}
}

// ParseArch maps a command-line/env spelling onto an Arch, the way
// NewArchitecture did for the teacher's Architecture interface.
func ParseArch(s string) (Arch, error) {
	switch s {
	case "x86_64", "amd64":
		return ArchX86_64, nil
	case "aarch64", "arm64":
		return ArchARM64, nil
	case "riscv64":
		return ArchRiscv64, nil
	default:
		return 0, fmt.Errorf("isa: unsupported architecture %q", s)
	}
}

// RegisterInfo mirrors the teacher's reg.go Register struct, trimmed to
// a name and a register class: what the demo instruction printer and
// the allocatable set need. Unlike
// the teacher's table this one only lists registers the demo ISA
// actually models: general-purpose integer and XMM-class float.
type RegisterInfo struct {
	Name  string
	Class regalloc.RegClass
}

// Machine is one architecture's full register file: every register the
// demo ISA knows by name, plus which of them the allocator is free to
// hand out.
type Machine struct {
	Arch   Arch
	Info   map[regalloc.RealReg]RegisterInfo
	byName map[string]regalloc.RealReg

	// StackPointer and FramePointer are reserved: never allocatable,
	// never spill/restore targets. register_tracker.go's ReserveInt
	// does the equivalent reservation before handing registers to its
	// allocator.
	StackPointer regalloc.RealReg
	FramePointer regalloc.RealReg

	allocatableInt   []regalloc.RealReg
	allocatableFloat []regalloc.RealReg

	// DivClobberLo and DivClobberHi are the a/d-alias register pair a
	// division instruction hard-clobbers on this architecture, grounded
	// on div.go's x86-64 IDIV (quotient to rax, remainder to rdx). Demo
	// ARM64/RISC-V divisions don't hard-clobber a pair; both fields are
	// RealRegInvalid there.
	DivClobberLo regalloc.RealReg
	DivClobberHi regalloc.RealReg
}

// RealRegs builds the regalloc.RealRegs allocatable set for this
// machine: every integer register first (lowest index wins ties in
// Stage 5's selection policy), then every float register.
func (m *Machine) RealRegs() regalloc.RealRegs {
	all := make([]regalloc.RealReg, 0, len(m.allocatableInt)+len(m.allocatableFloat))
	classOf := make(map[regalloc.RealReg]regalloc.RegClass, len(all))
	for _, rr := range m.allocatableInt {
		all = append(all, rr)
		classOf[rr] = regalloc.RegClassInt
	}
	for _, rr := range m.allocatableFloat {
		all = append(all, rr)
		classOf[rr] = regalloc.RegClassFloat
	}
	return regalloc.NewRealRegs(all, classOf)
}

// Name returns the assembly name of rr, or "?" if unknown.
func (m *Machine) Name(rr regalloc.RealReg) string {
	if info, ok := m.Info[rr]; ok {
		return info.Name
	}
	return "?"
}

// Lookup resolves an assembly register name (e.g. "rax", "xmm3") to its
// RealReg handle and class, the way IsRegister/GetRegister resolved a
// name against the teacher's per-architecture table.
func (m *Machine) Lookup(name string) (regalloc.RealReg, regalloc.RegClass, bool) {
	rr, ok := m.byName[name]
	if !ok {
		return regalloc.RealRegInvalid, regalloc.RegClassInvalid, false
	}
	return rr, m.Info[rr].Class, true
}

// NewMachine builds the demo register file for arch. Real register
// handles are dense small integers local to this machine; they mean
// nothing outside of it. Index 0 is reserved for RealRegInvalid, so
// every machine's numbering starts at 1.
func NewMachine(arch Arch) *Machine {
	switch arch {
	case ArchX86_64:
		return newX86_64Machine()
	case ArchARM64:
		return newARM64Machine()
	case ArchRiscv64:
		return newRiscv64Machine()
	default:
		panic(fmt.Sprintf("isa: unknown arch %v", arch))
	}
}

func newX86_64Machine() *Machine {
	// Ordering and names adapted from reg.go's x86_64Registers table,
	// trimmed to the handful of GPRs and XMMs the demo ISA exercises.
	names := []string{"rax", "rcx", "rdx", "rbx", "rsi", "rdi", "r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
	floats := []string{"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7"}
	m := newMachineFromNames(ArchX86_64, names, floats, "rsp", "rbp")
	m.StackPointer, _, _ = m.Lookup("rsp")
	m.FramePointer, _, _ = m.Lookup("rbp")
	// rax/rdx stay allocatable: Div only needs them Unavail for the
	// instructions it clobbers them over, which Stage 2's hard-range
	// collector derives from the Div instruction's own RegUsage.
	m.DivClobberLo, _, _ = m.Lookup("rax")
	m.DivClobberHi, _, _ = m.Lookup("rdx")
	return m
}

func newARM64Machine() *Machine {
	names := []string{"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7", "x8", "x9", "x10", "x11", "x12", "x13", "x14", "x15"}
	floats := []string{"v0", "v1", "v2", "v3", "v4", "v5", "v6", "v7"}
	m := newMachineFromNames(ArchARM64, names, floats, "sp", "x29")
	m.StackPointer, _, _ = m.Lookup("sp")
	m.FramePointer, _, _ = m.Lookup("x29")
	m.DivClobberLo, m.DivClobberHi = regalloc.RealRegInvalid, regalloc.RealRegInvalid
	return m
}

func newRiscv64Machine() *Machine {
	names := []string{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7", "t0", "t1", "t2", "t3", "t4", "t5"}
	floats := []string{"f0", "f1", "f2", "f3", "f4", "f5", "f6", "f7"}
	m := newMachineFromNames(ArchRiscv64, names, floats, "sp", "fp")
	m.StackPointer, _, _ = m.Lookup("sp")
	m.FramePointer, _, _ = m.Lookup("fp")
	m.DivClobberLo, m.DivClobberHi = regalloc.RealRegInvalid, regalloc.RealRegInvalid
	return m
}

// newMachineFromNames assigns dense RealReg handles (1-based) to every
// name across both register files, registers the float and integer
// register names, and appends sp/fp as named-but-unallocatable integer
// registers, the way register_tracker.go reserves them before handing
// the rest to the allocator.
func newMachineFromNames(arch Arch, intNames, floatNames []string, sp, fp string) *Machine {
	m := &Machine{
		Arch:   arch,
		Info:   make(map[regalloc.RealReg]RegisterInfo),
		byName: make(map[string]regalloc.RealReg),
	}
	next := regalloc.RealReg(1)
	assign := func(name string, class regalloc.RegClass) regalloc.RealReg {
		rr := next
		next++
		m.Info[rr] = RegisterInfo{Name: name, Class: class}
		m.byName[name] = rr
		return rr
	}

	for _, n := range intNames {
		rr := assign(n, regalloc.RegClassInt)
		m.allocatableInt = append(m.allocatableInt, rr)
	}
	for _, n := range floatNames {
		rr := assign(n, regalloc.RegClassFloat)
		m.allocatableFloat = append(m.allocatableFloat, rr)
	}
	assign(sp, regalloc.RegClassInt)
	assign(fp, regalloc.RegClassInt)
	return m
}
