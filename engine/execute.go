package engine

import (
	"fmt"

	"tomasulo/isa"
)

// execute is phase B of Step (spec §4.3.3): every busy station whose
// operands are both resolved ticks down its latency counter one cycle,
// starting that countdown the first cycle it becomes eligible and
// computing its result the cycle it reaches zero.
func execute(s *State, cfg Config) {
	for _, rs := range allRS(s) {
		if !rs.Busy || !rs.Vj.resolved() || !rs.Vk.resolved() {
			continue
		}

		inst := s.instructionByID(rs.InstrID)
		if inst == nil {
			continue
		}

		if inst.ExecStartCycle == nil {
			setCycleOnce(&inst.ExecStartCycle, s.Cycle)
			rs.Remaining = computeLatency(s, cfg, rs)
		}

		if rs.Remaining > 0 {
			rs.Remaining--
		}

		if rs.Remaining != 0 || inst.ExecEndCycle != nil {
			continue
		}

		setCycleOnce(&inst.ExecEndCycle, s.Cycle)
		computeResult(s, rs, inst)

		// Stores and branches never broadcast: a store's side effect is
		// the memory write itself, and a branch retires once it resolves
		// its own PC redirect. Both free their station here rather than
		// waiting for writeback to pick them as a CDB producer.
		if rs.Op.Family == isa.Store || rs.Op.Family == isa.Branch {
			setCycleOnce(&inst.WriteCycle, s.Cycle)
			if rs.Op.Family == isa.Branch {
				s.BranchStall = false
			}
			rs.reset()
		}
	}
}

func computeLatency(s *State, cfg Config, rs *ReservationStation) int {
	base := cfg.Latencies.forFamily(rs.Op.Family)
	if rs.Op.Family == isa.Load {
		hit, penalty := s.Cache.Access(rs.Addr, s.Cycle)
		if !hit {
			s.log(LogCacheMiss, fmt.Sprintf("cache miss at address %d (station %s)", rs.Addr, rs.ID))
		}
		base += penalty
	}
	return base
}

func computeResult(s *State, rs *ReservationStation, inst *Instruction) {
	switch rs.Op.Family {
	case isa.FPAdd, isa.FPSub, isa.IntegerALU:
		if rs.Op.Arith == isa.ArithSub {
			rs.Result = rs.Vj.floatValue() - rs.Vk.floatValue()
		} else {
			rs.Result = rs.Vj.floatValue() + rs.Vk.floatValue()
		}
		rs.ResultValid = true

	case isa.FPMult:
		rs.Result = rs.Vj.floatValue() * rs.Vk.floatValue()
		rs.ResultValid = true

	case isa.FPDiv:
		vk := rs.Vk.floatValue()
		if vk == 0 {
			rs.Result = 0
			s.log(LogDivByZero, fmt.Sprintf("division by zero in %q", inst.Text))
		} else {
			rs.Result = rs.Vj.floatValue() / vk
		}
		rs.ResultValid = true

	case isa.Load:
		rs.Result = s.Memory.Read(rs.Addr)
		rs.ResultValid = true

	case isa.Store:
		s.Memory.Write(rs.Addr, rs.Vk.floatValue())

	case isa.Branch:
		resolveBranch(s, rs, inst)
	}
}

func resolveBranch(s *State, rs *ReservationStation, inst *Instruction) {
	var taken bool
	switch rs.Op.BranchKind {
	case isa.BranchEQ:
		taken = rs.Vj.floatValue() == rs.Vk.floatValue()
	case isa.BranchNE:
		taken = rs.Vj.floatValue() != rs.Vk.floatValue()
	}
	if !taken {
		return
	}

	target, ok := s.Labels[inst.Src2]
	if !ok {
		s.log(LogUndefinedBranchTarget, fmt.Sprintf("branch to undefined label %q", inst.Src2))
		return
	}
	s.PC = target
}
