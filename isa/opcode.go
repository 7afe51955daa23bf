// Package isa classifies the mnemonics recognized by the simulator.
//
// Unlike a substring-matching dispatch ("does the opcode contain SUB?"),
// every mnemonic is looked up once, at parse time, in a table mapping it
// directly to its Family, its functional-unit Class, and (for the
// arithmetic families) its ArithOp. Execute-phase dispatch is then a
// plain switch on Family/ArithOp, never a string scan.
package isa

import (
	"fmt"
	"strings"

	"tomasulo/tag"
)

// Family is the semantic category of an opcode, independent of which
// functional unit executes it.
type Family int

const (
	Load Family = iota
	Store
	FPAdd
	FPSub
	FPMult
	FPDiv
	IntegerALU
	Branch
)

func (f Family) String() string {
	switch f {
	case Load:
		return "LOAD"
	case Store:
		return "STORE"
	case FPAdd:
		return "FP-ADD"
	case FPSub:
		return "FP-SUB"
	case FPMult:
		return "FP-MULT"
	case FPDiv:
		return "FP-DIV"
	case IntegerALU:
		return "INTEGER-ALU"
	case Branch:
		return "BRANCH"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ArithOp names the arithmetic operator an arithmetic-family opcode
// performs. Branch/Load/Store opcodes carry ArithNone.
type ArithOp int

const (
	ArithNone ArithOp = iota
	ArithAdd
	ArithSub
	ArithMul
	ArithDiv
)

// BranchKind distinguishes the two recognized branch conditions.
type BranchKind int

const (
	NotBranch BranchKind = iota
	BranchEQ             // BEQ / BEQZ: taken when operands are equal
	BranchNE             // BNE / BNEZ: taken when operands differ
)

// OpInfo is the classification a mnemonic resolves to: its semantic
// Family, the functional-unit Class that executes it, its arithmetic
// operator (for arithmetic families), and its branch condition (for
// Branch).
type OpInfo struct {
	Family     Family
	Unit       tag.Class
	Arith      ArithOp
	BranchKind BranchKind

	// ImplicitZero reports whether a branch mnemonic compares its
	// register operand against a hardwired zero register instead of a
	// second explicit register (BEQZ/BNEZ vs BEQ/BNE).
	ImplicitZero bool
}

// Table maps every recognized mnemonic (spec §6) to its classification.
// Mnemonics are matched case-insensitively by Lookup.
var Table = map[string]OpInfo{
	// loads
	"L.D": {Family: Load, Unit: tag.LOAD},
	"LW":  {Family: Load, Unit: tag.LOAD},
	"LD":  {Family: Load, Unit: tag.LOAD},
	"L.S": {Family: Load, Unit: tag.LOAD},

	// stores
	"S.D": {Family: Store, Unit: tag.STORE},
	"SW":  {Family: Store, Unit: tag.STORE},
	"SD":  {Family: Store, Unit: tag.STORE},
	"S.S": {Family: Store, Unit: tag.STORE},

	// floating-point arithmetic
	"ADD.D": {Family: FPAdd, Unit: tag.ADD, Arith: ArithAdd},
	"ADD.S": {Family: FPAdd, Unit: tag.ADD, Arith: ArithAdd},
	"SUB.D": {Family: FPSub, Unit: tag.ADD, Arith: ArithSub},
	"SUB.S": {Family: FPSub, Unit: tag.ADD, Arith: ArithSub},
	"MUL":   {Family: FPMult, Unit: tag.MULT, Arith: ArithMul},
	"MUL.D": {Family: FPMult, Unit: tag.MULT, Arith: ArithMul},
	"MUL.S": {Family: FPMult, Unit: tag.MULT, Arith: ArithMul},
	"DIV":   {Family: FPDiv, Unit: tag.MULT, Arith: ArithDiv},
	"DIV.D": {Family: FPDiv, Unit: tag.MULT, Arith: ArithDiv},
	"DIV.S": {Family: FPDiv, Unit: tag.MULT, Arith: ArithDiv},

	// integer ALU
	"ADD":   {Family: IntegerALU, Unit: tag.INTEGER, Arith: ArithAdd},
	"ADDI":  {Family: IntegerALU, Unit: tag.INTEGER, Arith: ArithAdd},
	"DADD":  {Family: IntegerALU, Unit: tag.INTEGER, Arith: ArithAdd},
	"DADDI": {Family: IntegerALU, Unit: tag.INTEGER, Arith: ArithAdd},
	"SUB":   {Family: IntegerALU, Unit: tag.INTEGER, Arith: ArithSub},
	"SUBI":  {Family: IntegerALU, Unit: tag.INTEGER, Arith: ArithSub},
	"DSUB":  {Family: IntegerALU, Unit: tag.INTEGER, Arith: ArithSub},
	"DSUBI": {Family: IntegerALU, Unit: tag.INTEGER, Arith: ArithSub},

	// branches
	"BNE":  {Family: Branch, Unit: tag.INTEGER, BranchKind: BranchNE},
	"BEQ":  {Family: Branch, Unit: tag.INTEGER, BranchKind: BranchEQ},
	"BNEZ": {Family: Branch, Unit: tag.INTEGER, BranchKind: BranchNE, ImplicitZero: true},
	"BEQZ": {Family: Branch, Unit: tag.INTEGER, BranchKind: BranchEQ, ImplicitZero: true},
}

// Lookup resolves a mnemonic (any case) to its classification.
func Lookup(mnemonic string) (OpInfo, bool) {
	info, ok := Table[strings.ToUpper(mnemonic)]
	return info, ok
}
