package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xyproto/vralloc/demo/isa"
	"github.com/xyproto/vralloc/regalloc"
)

// TestParseAndAllocateRoundTrip exercises demo/asm and demo/isa together
// through regalloc.Allocate: parse text, allocate, print, and check that
// every operand in the printed output is a real machine register name
// rather than a "v<N>" placeholder.
func TestParseAndAllocateRoundTrip(t *testing.T) {
	m := isa.NewMachine(isa.ArchX86_64)
	src := "mov v0, 5\nmov v1, v0\nadd v1, v0\nret v1\n"

	instrs, numVRegs, err := Parse(src, m)
	require.NoError(t, err)
	require.Equal(t, 2, numVRegs)
	require.Len(t, instrs, 4)

	out, err := regalloc.Allocate(instrs, regalloc.Config[isa.Instr]{
		NumVRegs:   numVRegs,
		RealRegs:   m.RealRegs(),
		SpillSlots: 8,
		Callbacks:  isa.Callbacks(m),
	})
	require.NoError(t, err)

	printed := Print(out, m)
	require.NotContains(t, printed, "v0")
	require.NotContains(t, printed, "v1")
	require.Contains(t, printed, "rax")
}

// TestParseAndAllocateDivHardRange drives a division through the full
// text-to-allocated-text pipeline. Div hard-clobbers rax/rdx on x86-64
// (demo/isa's DivClobberLo/DivClobberHi), and v0 is written first so it
// lands in rax, the lowest-index allocatable register — forcing Stage 2's
// hard range to evict and restore it around the div.
func TestParseAndAllocateDivHardRange(t *testing.T) {
	m := isa.NewMachine(isa.ArchX86_64)
	src := "mov v0, 5\nmov v1, 2\ndiv v0, v1\nret v0\n"

	instrs, numVRegs, err := Parse(src, m)
	require.NoError(t, err)

	out, err := regalloc.Allocate(instrs, regalloc.Config[isa.Instr]{
		NumVRegs:   numVRegs,
		RealRegs:   m.RealRegs(),
		SpillSlots: 8,
		Callbacks:  isa.Callbacks(m),
	})
	require.NoError(t, err)

	var ops []isa.Opcode
	for _, i := range out {
		ops = append(ops, i.Op)
	}
	require.Equal(t, []isa.Opcode{isa.Mov, isa.Mov, isa.Spill, isa.Restore, isa.Div, isa.Ret}, ops)

	printed := Print(out, m)
	require.True(t, strings.Contains(printed, "spill") && strings.Contains(printed, "restore"))
}

// TestParseRejectsUnknownMnemonic checks that a malformed line surfaces a
// parse error with the offending line number rather than panicking.
func TestParseRejectsUnknownMnemonic(t *testing.T) {
	m := isa.NewMachine(isa.ArchX86_64)
	_, _, err := Parse("mov v0, 5\nnotarealop v0, v1\n", m)
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}
