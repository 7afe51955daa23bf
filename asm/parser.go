// Package asm tokenizes DLX/MIPS-like assembly source into a decoded
// instruction sequence plus a label table (spec §4.1), turning program
// text into something the engine can step through.
//
// Parse never panics on malformed input: it always returns a typed
// ParseError instead, since initialization must fail cleanly on
// malformed source (spec §7).
package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tomasulo/isa"
)

// Instruction is one statically-parsed program line. Dynamic instances
// created by loop re-entry (spec §4.3.5) are cloned from these by the
// engine, not represented here.
type Instruction struct {
	ID     int    // position in program order
	Text   string // normalized source line, for display/logging
	Opcode string // uppercased mnemonic
	Dest   string // destination field: register name
	Src1   string // first source: register name
	Src2   string // second source: register name, label, or (for mem ops) the offset text
	Imm    int64  // parsed immediate, valid only when HasImm
	HasImm bool
	PC     int // byte address, steps of 4 starting at 0
}

// ParseError identifies the line and token a parse failed on.
type ParseError struct {
	Line  int
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("asm: line %d: %s (token %q)", e.Line, e.Msg, e.Token)
}

var (
	memOperand = regexp.MustCompile(`^(-?\d+)\(([A-Za-z0-9_]+)\)$`)
	splitter   = regexp.MustCompile(`[,\s]+`)
)

// Parse tokenizes source into a decoded instruction sequence and a
// label->PC table. On any malformed line or unknown opcode it returns
// a *ParseError and no instructions, per spec §4.1/§7: initialization
// never proceeds on a partial parse.
func Parse(source string) ([]Instruction, map[string]int, error) {
	labels := make(map[string]int)

	type rawLine struct {
		lineNo int
		text   string
	}
	var raw []rawLine

	pc := 0
	for i, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lineNo := i + 1

		if idx := strings.Index(trimmed, ":"); idx >= 0 && !strings.ContainsAny(trimmed[:idx], " \t") {
			label := trimmed[:idx]
			rest := strings.TrimSpace(trimmed[idx+1:])
			labels[label] = pc
			if rest == "" {
				continue // pure label line, binds to the next instruction's PC
			}
			trimmed = rest
		}

		raw = append(raw, rawLine{lineNo: lineNo, text: trimmed})
		pc += 4
	}

	instructions := make([]Instruction, 0, len(raw))
	for id, rl := range raw {
		tokens := splitter.Split(rl.text, -1)
		if len(tokens) == 0 || tokens[0] == "" {
			return nil, nil, &ParseError{Line: rl.lineNo, Token: rl.text, Msg: "empty instruction"}
		}

		opcode := strings.ToUpper(tokens[0])
		info, ok := isa.Lookup(opcode)
		if !ok {
			return nil, nil, &ParseError{Line: rl.lineNo, Token: tokens[0], Msg: "unrecognized opcode"}
		}

		operands := tokens[1:]
		inst := Instruction{ID: id, Text: rl.text, Opcode: opcode, PC: id * 4}

		switch {
		case (info.Family == isa.Load || info.Family == isa.Store) && len(operands) == 2:
			m := memOperand.FindStringSubmatch(operands[1])
			if m == nil {
				return nil, nil, &ParseError{Line: rl.lineNo, Token: operands[1], Msg: "expected OFFSET(BASE) operand"}
			}
			offset, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return nil, nil, &ParseError{Line: rl.lineNo, Token: m[1], Msg: "invalid offset"}
			}
			inst.Dest = operands[0]
			inst.Src1 = m[2] // base register
			inst.Src2 = m[1] // offset text, retained for display
			inst.Imm = offset
			inst.HasImm = true

		case info.Family == isa.Branch && info.ImplicitZero && len(operands) == 2:
			inst.Dest = operands[0]
			inst.Src1 = "R0"
			inst.Src2 = operands[1]

		case len(operands) == 3:
			inst.Dest = operands[0]
			inst.Src1 = operands[1]
			if imm, err := strconv.ParseInt(operands[2], 10, 64); err == nil {
				inst.Imm = imm
				inst.HasImm = true
			} else {
				// a branch target label (address may not be known yet;
				// resolved at execute time) or a register source operand
				// for an arithmetic instruction — either way it is
				// retained verbatim in Src2.
				inst.Src2 = operands[2]
			}

		default:
			return nil, nil, &ParseError{Line: rl.lineNo, Token: rl.text, Msg: "malformed operand list"}
		}

		instructions = append(instructions, inst)
	}

	return instructions, labels, nil
}
