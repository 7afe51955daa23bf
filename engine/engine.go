// Package engine implements the cycle-by-cycle Tomasulo state machine
// (spec §3-§5): register renaming through reservation stations, a
// single Common Data Bus, in-order issue with out-of-order execute and
// writeback, and an optional LRU data cache.
//
// A Tomasulo machine advances one *cycle* at a time over many
// in-flight instructions, so Step fans out into three ordered phases
// (writeback.go, execute.go, issue.go) rather than one switch over a
// single opcode: clone-or-mutate a struct, return the new struct or an
// error, and let the caller decide what to do with either.
package engine

import (
	"tomasulo/asm"
	"tomasulo/cache"
	"tomasulo/mem"
	"tomasulo/tag"
)

// Initialize builds the machine's cycle-0 state from a parsed program
// and configuration. No instruction has issued yet; Finished is true
// only for an empty program.
func Initialize(program []asm.Instruction, labels map[string]int, cfg Config) *State {
	s := &State{
		Program:     program,
		Labels:      labels,
		nextInstrID: len(program),
		Registers:   make(map[string]*Register),
		Memory:      mem.NewMemory(),
		Cache:       cache.New(cfg.Cache),
		Finished:    len(program) == 0,
	}

	classes := []struct {
		c tag.Class
		n int
	}{
		{tag.ADD, cfg.RSSizes.forClass(tag.ADD)},
		{tag.MULT, cfg.RSSizes.forClass(tag.MULT)},
		{tag.LOAD, cfg.RSSizes.forClass(tag.LOAD)},
		{tag.STORE, cfg.RSSizes.forClass(tag.STORE)},
		{tag.INTEGER, cfg.RSSizes.forClass(tag.INTEGER)},
	}
	for _, entry := range classes {
		list := make([]*ReservationStation, entry.n)
		for i := range list {
			list[i] = &ReservationStation{ID: tag.New(entry.c, i), Unit: entry.c, InstrID: -1}
		}
		s.RS[entry.c] = list
	}

	return s
}

// SetRegisterValue seeds a register's initial value. It is only valid
// before any cycle has run (spec §6: initial register contents are
// part of the run's configuration, not a mid-run mutation).
func SetRegisterValue(s *State, name string, value float64) (*State, error) {
	if s.Cycle != 0 {
		return s, &EngineError{Msg: "SetRegisterValue called after simulation has started"}
	}
	ns := s.Clone()
	r := ns.register(name)
	r.Value = value
	r.HasTag = false
	return ns, nil
}

// Step advances the machine by exactly one cycle, running writeback,
// execute, and issue in that fixed order against a private clone of
// prior (spec §4.3.1). On success it returns the new state. If the
// resulting state violates a machine invariant, it returns prior
// unchanged alongside an *EngineError (spec §7).
func Step(prior *State, cfg Config) (*State, error) {
	if prior.Finished {
		return prior, nil
	}

	s := prior.Clone()
	s.Cycle = prior.Cycle + 1
	s.CDB = CDB{}

	if err := writeback(s); err != nil {
		return prior, err
	}
	execute(s, cfg)
	issue(s, cfg)

	if err := validate(s); err != nil {
		return prior, err
	}

	s.Finished = computeFinished(s)
	return s, nil
}

func computeFinished(s *State) bool {
	for _, inst := range s.Instructions {
		if inst.WriteCycle == nil {
			return false
		}
		if inst.PC == s.PC {
			return false
		}
	}
	return true
}

// validate enforces the invariants spec §3/§7 require hold at every
// cycle boundary: no register may point at a tag that isn't actually
// a busy station, and no busy station may be bound to an instruction
// that was never issued.
func validate(s *State) error {
	for _, r := range s.Registers {
		if !r.HasTag {
			continue
		}
		rs := s.rsByTag(r.Tag)
		if rs == nil || !rs.Busy {
			return &EngineError{Msg: "register " + r.Name + " carries a tag for a station that is not busy"}
		}
	}
	for _, rs := range allRS(s) {
		if !rs.Busy {
			continue
		}
		if rs.InstrID < 0 {
			return &EngineError{Msg: "reservation station " + rs.ID.String() + " is busy but bound to no instruction"}
		}
		inst := s.instructionByID(rs.InstrID)
		if inst == nil || inst.IssueCycle == nil {
			return &EngineError{Msg: "reservation station " + rs.ID.String() + " is bound to an unissued instruction"}
		}
	}
	return nil
}
