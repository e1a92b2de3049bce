package isa

import "github.com/xyproto/vralloc/regalloc"

// CallingConvention is adapted from calling_convention.go's interface,
// trimmed to the one thing the allocator's preference stage actually
// needs: the return-value register, so isMove can seed a Stage 4
// preference for the vreg a Ret instruction reads.
type CallingConvention struct {
	ReturnInt   string
	ReturnFloat string
}

// SystemVAMD64 is adapted from calling_convention.go's SystemVAMD64.
var SystemVAMD64 = CallingConvention{
	ReturnInt:   "rax",
	ReturnFloat: "xmm0",
}

// AAPCS64 is adapted from calling_convention.go's ARM64 convention.
var AAPCS64 = CallingConvention{
	ReturnInt:   "x0",
	ReturnFloat: "v0",
}

// Riscv64CallingConvention is adapted from calling_convention.go's
// RISC-V convention.
var Riscv64CallingConvention = CallingConvention{
	ReturnInt:   "a0",
	ReturnFloat: "f0",
}

// ForArch returns the demo backend's calling convention for arch.
func ForArch(arch Arch) CallingConvention {
	switch arch {
	case ArchARM64:
		return AAPCS64
	case ArchRiscv64:
		return Riscv64CallingConvention
	default:
		return SystemVAMD64
	}
}

// PreferredForReturn resolves the calling convention's integer or float
// return register against m, for use as a Stage 4 preference hint when
// a vreg is known to hold a function's result.
func (cc CallingConvention) PreferredForReturn(m *Machine, class regalloc.RegClass) (regalloc.RealReg, bool) {
	name := cc.ReturnInt
	if class == regalloc.RegClassFloat {
		name = cc.ReturnFloat
	}
	rr, _, ok := m.Lookup(name)
	return rr, ok
}
