package engine

import (
	"tomasulo/isa"
	"tomasulo/tag"
)

// issue is phase C of Step (spec §4.3.2): fetch the next in-order
// instruction at PC, and if it can issue this cycle — its effective
// address (for a memory op) is known, no earlier in-flight memory op
// conflicts with it, and its functional unit has a free station —
// bind it to that station and advance PC. Any failing condition
// stalls: PC does not move and no station is bound, though a dynamic
// instance that findIssuable created for this PC stays in the
// instruction list and is retried on a later cycle.
func issue(s *State, cfg Config) {
	if s.BranchStall {
		return
	}

	inst := s.findIssuable()
	if inst == nil {
		return
	}

	info, ok := isa.Lookup(inst.Opcode)
	if !ok {
		// unreachable: asm.Parse never accepts an opcode isa.Lookup
		// doesn't recognize.
		return
	}

	var addr int
	if info.Family == isa.Load || info.Family == isa.Store {
		var known bool
		addr, known = s.resolveAddress(inst)
		if !known {
			return // base register still carries a producer tag
		}
		if s.hasConflictingMemOp(inst, info, addr) {
			return // memory disambiguation stall (spec §4.3.2)
		}
	}

	free := s.freeRS(info.Unit)
	if free == nil {
		return // structural stall: no station free in this unit class
	}

	setCycleOnce(&inst.IssueCycle, s.Cycle)
	s.PC += 4
	if info.Family == isa.Branch {
		s.BranchStall = true
	}

	free.Busy = true
	free.Op = info
	free.InstrID = inst.ID
	free.Remaining = 0
	free.Result = 0
	free.ResultValid = false
	free.AddrSet = false

	switch info.Family {
	case isa.Load:
		free.Addr = addr
		free.AddrSet = true
		free.Vj = Operand{}
		free.Vk = Operand{}
	case isa.Store:
		free.Addr = addr
		free.AddrSet = true
		free.Vj = Operand{}
		free.Vk = s.readOperand(inst.Dest) // value being stored
	case isa.Branch:
		free.Vj = s.readOperand(inst.Dest)
		free.Vk = s.readOperand(inst.Src1)
	default:
		free.Vj = s.readOperand(inst.Src1)
		if inst.HasImm {
			free.Vk = ValueOf(float64(inst.Imm))
		} else {
			free.Vk = s.readOperand(inst.Src2)
		}
	}

	if info.Family != isa.Store && info.Family != isa.Branch {
		dest := s.register(inst.Dest)
		dest.HasTag = true
		dest.Tag = free.ID
	}
}

// findIssuable returns the next dynamic instruction to attempt issue
// on at the current PC, creating a fresh dynamic instance — the first
// ever at this PC, or a loop re-entry once the prior instance at this
// PC has fully retired — per spec §4.3.5.
func (s *State) findIssuable() *Instruction {
	for _, inst := range s.Instructions {
		if inst.PC == s.PC && inst.IssueCycle == nil {
			return inst
		}
	}

	staticIdx := s.PC / 4
	if staticIdx < 0 || staticIdx >= len(s.Program) {
		return nil // PC has walked off the program
	}

	var last *Instruction
	for _, inst := range s.Instructions {
		if inst.PC == s.PC {
			last = inst
		}
	}
	if last != nil && last.WriteCycle == nil {
		return nil // a prior instance at this PC is still in flight
	}

	static := s.Program[staticIdx]
	id := staticIdx
	if last != nil {
		id = s.nextInstrID
		s.nextInstrID++
	}

	clone := &Instruction{
		ID: id, Text: static.Text, Opcode: static.Opcode,
		Dest: static.Dest, Src1: static.Src1, Src2: static.Src2,
		Imm: static.Imm, HasImm: static.HasImm, PC: static.PC,
	}
	s.Instructions = append(s.Instructions, clone)
	return clone
}

func (s *State) resolveAddress(inst *Instruction) (addr int, ok bool) {
	base := s.register(inst.Src1)
	if base.HasTag {
		return 0, false
	}
	return int(base.Value) + int(inst.Imm), true
}

// hasConflictingMemOp implements spec §4.3.2's memory disambiguation
// stall: a load may not bypass an earlier, still-unresolved store to
// the same address, and a store may not bypass any earlier unresolved
// memory op to the same address.
func (s *State) hasConflictingMemOp(candidate *Instruction, info isa.OpInfo, addr int) bool {
	for _, rs := range allRS(s) {
		if !rs.Busy || !rs.AddrSet || rs.Addr != addr {
			continue
		}
		if rs.Unit != tag.LOAD && rs.Unit != tag.STORE {
			continue
		}
		if rs.InstrID >= candidate.ID {
			continue // only earlier instructions can block a later one
		}
		if info.Family == isa.Load && rs.Unit == tag.STORE {
			return true
		}
		if info.Family == isa.Store && (rs.Unit == tag.LOAD || rs.Unit == tag.STORE) {
			return true
		}
	}
	return false
}
