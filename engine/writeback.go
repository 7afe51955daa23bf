package engine

import "fmt"

// writeback is phase A of Step (spec §4.3.4): select at most one
// finished reservation station, broadcast its result on the CDB, and
// resolve every register and reservation-station operand waiting on
// that tag. Because this phase runs before execute and issue in the
// same cycle, any register it resolves is already value-only (no
// tag) by the time issue reads it later this same cycle — the
// "single-cycle forwarding at issue" spec §4.3.5 describes falls out
// of phase ordering rather than needing a separate CDB-aware read path.
func writeback(s *State) error {
	var winner *ReservationStation
	for _, rs := range allRS(s) {
		if !rs.Busy || rs.Remaining != 0 || !rs.ResultValid {
			continue
		}
		if winner == nil || rs.InstrID < winner.InstrID {
			winner = rs
		}
	}
	if winner == nil {
		return nil
	}

	inst := s.instructionByID(winner.InstrID)
	if inst == nil {
		return &EngineError{Msg: fmt.Sprintf("writeback: no dynamic instruction %d bound to producer %s", winner.InstrID, winner.ID)}
	}

	s.CDB = CDB{Active: true, Tag: winner.ID, Value: winner.Result}
	setCycleOnce(&inst.WriteCycle, s.Cycle)

	for _, r := range s.Registers {
		if r.HasTag && r.Tag == winner.ID {
			r.Value = winner.Result
			r.HasTag = false
		}
	}

	for _, rs := range allRS(s) {
		if !rs.Busy || rs == winner {
			continue
		}
		if rs.Vj.Kind == TagOperand && rs.Vj.Tag == winner.ID {
			rs.Vj = ValueOf(winner.Result)
		}
		if rs.Vk.Kind == TagOperand && rs.Vk.Tag == winner.ID {
			rs.Vk = ValueOf(winner.Result)
		}
	}

	winner.reset()
	return nil
}
