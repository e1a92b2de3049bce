// Package asm is a minimal textual assembly syntax for the demo ISA: one
// instruction per line, operands separated by commas, virtual registers
// spelled "v<N>" and real registers spelled by their machine name. A
// vreg's class comes from its mnemonic (an "f" prefix selects the float
// variant, e.g. "fmov" vs "mov"), not from the operand text itself. It
// exists only to give cmd/vralloc something concrete to read from a file
// and hand to regalloc.Allocate.
//
// The tokenizer structure (byte-at-a-time scanning, a TokenType enum, a
// single lookahead) is adapted from the teacher's lexer.go; the grammar
// itself is not the teacher's, since the teacher tokenizes a general
// expression language and this package tokenizes one instruction per
// line.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xyproto/vralloc/demo/isa"
	"github.com/xyproto/vralloc/regalloc"
)

// TokenType enumerates the handful of token kinds a line of demo
// assembly can contain.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber
	TokenComma
	TokenColon
	TokenLabel
)

// Token is one lexed unit together with its source line, for error
// messages.
type Token struct {
	Type TokenType
	Text string
	Line int
}

// lexLine splits one line of source into tokens. Unlike lexer.go this
// never needs to track multi-line state: every instruction is exactly
// one line.
func lexLine(line string, lineNo int) []Token {
	var toks []Token
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == ';' || c == '#':
			i = len(line) // comment runs to end of line
		case c == ',':
			toks = append(toks, Token{Type: TokenComma, Text: ",", Line: lineNo})
			i++
		case c == ':':
			toks = append(toks, Token{Type: TokenColon, Text: ":", Line: lineNo})
			i++
		case isIdentStart(c):
			j := i + 1
			for j < len(line) && isIdentPart(line[j]) {
				j++
			}
			toks = append(toks, Token{Type: TokenIdent, Text: line[i:j], Line: lineNo})
			i = j
		case c == '-' || isDigit(c):
			j := i + 1
			for j < len(line) && isDigit(line[j]) {
				j++
			}
			toks = append(toks, Token{Type: TokenNumber, Text: line[i:j], Line: lineNo})
			i = j
		default:
			i++ // silently skip anything else, mirroring the teacher's tolerant scanning
		}
	}
	toks = append(toks, Token{Type: TokenEOF, Line: lineNo})
	return toks
}

func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }

// Parse reads demo assembly source and returns the decoded instruction
// stream plus the number of distinct virtual registers it references
// (the NumVRegs a regalloc.Config needs), resolving real-register
// operands against m.
func Parse(src string, m *isa.Machine) ([]isa.Instr, int, error) {
	var instrs []isa.Instr
	nextVReg := regalloc.VRegID(0)
	seen := make(map[string]regalloc.VRegID)

	resolveVReg := func(name string, class regalloc.RegClass) regalloc.Reg {
		id, ok := seen[name]
		if !ok {
			id = nextVReg
			nextVReg++
			seen[name] = id
		}
		return regalloc.VReg(id, class)
	}

	for lineNo, rawLine := range strings.Split(src, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		toks := lexLine(line, lineNo+1)
		if len(toks) > 1 && toks[0].Type == TokenIdent && toks[1].Type == TokenColon {
			continue // bare label line, e.g. "loop:" — demo ISA tracks labels only as Jmp targets
		}

		instr, err := parseInstr(toks, m, func(name string, class regalloc.RegClass) (regalloc.Reg, error) {
			return resolveOperand(name, class, m, resolveVReg)
		})
		if err != nil {
			return nil, 0, fmt.Errorf("asm: line %d: %w", lineNo+1, err)
		}
		instrs = append(instrs, instr)
	}
	return instrs, int(nextVReg), nil
}

// resolveOperand decides whether name is a virtual register ("v0",
// "v1", ...), a real register known to m ("rax", "xmm2", ...), and
// resolves it accordingly.
func resolveOperand(name string, class regalloc.RegClass, m *isa.Machine, resolveVReg func(string, regalloc.RegClass) regalloc.Reg) (regalloc.Reg, error) {
	if strings.HasPrefix(name, "v") {
		if _, err := strconv.Atoi(name[1:]); err == nil {
			return resolveVReg(name, class), nil
		}
	}
	if rr, foundClass, ok := m.Lookup(name); ok {
		return regalloc.RReg(rr, foundClass), nil
	}
	return regalloc.Reg{}, fmt.Errorf("unknown operand %q", name)
}

func classForMnemonic(ident string) regalloc.RegClass {
	if strings.HasPrefix(ident, "f") {
		return regalloc.RegClassFloat
	}
	return regalloc.RegClassInt
}

type resolveFn func(name string, class regalloc.RegClass) (regalloc.Reg, error)

func parseInstr(toks []Token, m *isa.Machine, resolve resolveFn) (isa.Instr, error) {
	if len(toks) == 0 || toks[0].Type != TokenIdent {
		return isa.Instr{}, fmt.Errorf("expected instruction mnemonic")
	}
	mnemonic := strings.ToLower(toks[0].Text)
	class := classForMnemonic(mnemonic)
	if strings.HasPrefix(mnemonic, "f") {
		mnemonic = mnemonic[1:]
	}

	operands := toks[1:]
	var args []Token
	for _, t := range operands {
		if t.Type == TokenComma || t.Type == TokenEOF {
			continue
		}
		args = append(args, t)
	}

	reg := func(i int) (regalloc.Reg, error) {
		if i >= len(args) {
			return regalloc.Reg{}, fmt.Errorf("%s: missing operand %d", mnemonic, i)
		}
		return resolve(args[i].Text, class)
	}
	imm := func(i int) (isa.Imm, bool) {
		if i >= len(args) || args[i].Type != TokenNumber {
			return 0, false
		}
		n, err := strconv.ParseInt(args[i].Text, 10, 64)
		if err != nil {
			return 0, false
		}
		return isa.Imm(n), true
	}

	switch mnemonic {
	case "mov":
		dst, err := reg(0)
		if err != nil {
			return isa.Instr{}, err
		}
		if n, ok := imm(1); ok {
			return isa.MovImmI(dst, n), nil
		}
		src, err := reg(1)
		if err != nil {
			return isa.Instr{}, err
		}
		return isa.MovI(dst, src), nil
	case "add":
		dst, err := reg(0)
		if err != nil {
			return isa.Instr{}, err
		}
		src, err := reg(1)
		if err != nil {
			return isa.Instr{}, err
		}
		return isa.AddI(dst, src), nil
	case "sub":
		dst, err := reg(0)
		if err != nil {
			return isa.Instr{}, err
		}
		src, err := reg(1)
		if err != nil {
			return isa.Instr{}, err
		}
		return isa.SubI(dst, src), nil
	case "cmp":
		a, err := reg(0)
		if err != nil {
			return isa.Instr{}, err
		}
		b, err := reg(1)
		if err != nil {
			return isa.Instr{}, err
		}
		return isa.CmpI(a, b), nil
	case "div":
		dst, err := reg(0)
		if err != nil {
			return isa.Instr{}, err
		}
		src, err := reg(1)
		if err != nil {
			return isa.Instr{}, err
		}
		return isa.DivI(dst, src), nil
	case "jmp":
		if len(args) == 0 {
			return isa.Instr{}, fmt.Errorf("jmp: missing label")
		}
		return isa.JmpI(args[0].Text), nil
	case "ret":
		if len(args) == 0 {
			return isa.RetI(regalloc.RegInvalid), nil
		}
		v, err := reg(0)
		if err != nil {
			return isa.Instr{}, err
		}
		return isa.RetI(v), nil
	default:
		return isa.Instr{}, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}
}

// Print renders instrs back to demo assembly text, one instruction per
// line, for cmd/vralloc's output after allocation.
func Print(instrs []isa.Instr, m *isa.Machine) string {
	var b strings.Builder
	for _, i := range instrs {
		fmt.Fprintln(&b, renderWithNames(i, m))
	}
	return b.String()
}

func renderWithNames(i isa.Instr, m *isa.Machine) string {
	rname := func(r regalloc.Reg) string {
		if !r.Valid() {
			return ""
		}
		if r.IsReal() {
			return m.Name(r.RealReg())
		}
		return r.String()
	}
	switch i.Op {
	case isa.Mov:
		if i.HasImm {
			return fmt.Sprintf("mov %s, %d", rname(i.Dst), i.Imm)
		}
		return fmt.Sprintf("mov %s, %s", rname(i.Dst), rname(i.Src))
	case isa.Add, isa.Sub, isa.Div:
		return fmt.Sprintf("%s %s, %s", i.Op, rname(i.Dst), rname(i.Src))
	case isa.Cmp:
		return fmt.Sprintf("cmp %s, %s", rname(i.Dst), rname(i.Src))
	case isa.Jmp:
		return fmt.Sprintf("jmp %s", i.Label)
	case isa.Ret:
		if i.Dst.Valid() {
			return fmt.Sprintf("ret %s", rname(i.Dst))
		}
		return "ret"
	case isa.Spill:
		return fmt.Sprintf("spill [%d], %s", i.SpillOffset, rname(i.Dst))
	case isa.Restore:
		return fmt.Sprintf("restore %s, [%d]", rname(i.Dst), i.SpillOffset)
	default:
		return "?"
	}
}
