package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tomasulo/asm"
	"tomasulo/tag"
)

func mustParse(t *testing.T, src string) ([]asm.Instruction, map[string]int) {
	t.Helper()
	instrs, labels, err := asm.Parse(src)
	assert.NoError(t, err)
	return instrs, labels
}

func runToCompletion(t *testing.T, s *State, cfg Config, maxCycles int) *State {
	t.Helper()
	for i := 0; i < maxCycles && !s.Finished; i++ {
		next, err := Step(s, cfg)
		assert.NoError(t, err)
		s = next
	}
	assert.True(t, s.Finished, "program did not finish within %d cycles", maxCycles)
	return s
}

func setReg(t *testing.T, s *State, name string, value float64) *State {
	t.Helper()
	ns, err := SetRegisterValue(s, name, value)
	assert.NoError(t, err)
	return ns
}

// scenario 1 from spec §8.
func TestSequentialFPProgram(t *testing.T) {
	src := `
L.D  F6, 0(R2)
L.D  F2, 8(R2)
MUL.D F0, F2, F4
SUB.D F8, F2, F6
DIV.D F10, F0, F6
ADD.D F6, F8, F2
S.D  F6, 8(R2)
`
	instrs, labels := mustParse(t, src)
	cfg := DefaultConfig()
	s := Initialize(instrs, labels, cfg)
	s = setReg(t, s, "F2", 1.33)
	s = setReg(t, s, "F4", 0)
	s = setReg(t, s, "F6", 0)
	s = setReg(t, s, "R2", 0)

	s = runToCompletion(t, s, cfg, 200)

	var mulInst, divInst, ldF2Inst, ldF6Inst *Instruction
	for _, inst := range s.Instructions {
		assert.NotNil(t, inst.WriteCycle, "instruction %q never wrote back", inst.Text)
		switch {
		case inst.Opcode == "MUL.D":
			mulInst = inst
		case inst.Opcode == "DIV.D":
			divInst = inst
		case inst.Opcode == "L.D" && inst.Dest == "F2":
			ldF2Inst = inst
		case inst.Opcode == "L.D" && inst.Dest == "F6":
			ldF6Inst = inst
		}
	}

	assert.GreaterOrEqual(t, *mulInst.ExecStartCycle, *ldF2Inst.WriteCycle)
	assert.GreaterOrEqual(t, *divInst.ExecStartCycle, *mulInst.WriteCycle)
	assert.GreaterOrEqual(t, *divInst.ExecStartCycle, *ldF6Inst.WriteCycle)
}

// scenario 2 from spec §8: loop re-entry.
func TestLoopProgramReentry(t *testing.T) {
	src := `
DADDI R1, R1, 24
DADDI R2, R2, 0
LOOP: L.D F0, 0(R1)
MUL.D F4, F0, F2
S.D  F4, 0(R1)
SUBI R1, R1, 8
BNE  R1, R2, LOOP
`
	instrs, labels := mustParse(t, src)
	cfg := DefaultConfig()
	s := Initialize(instrs, labels, cfg)
	s = setReg(t, s, "R1", 0)
	s = setReg(t, s, "R2", 0)
	s = setReg(t, s, "F2", 1.33)

	s = runToCompletion(t, s, cfg, 300)

	counts := map[string]int{}
	for _, inst := range s.Instructions {
		counts[inst.Opcode]++
	}
	assert.Equal(t, 3, counts["L.D"])
	assert.Equal(t, 3, counts["MUL.D"])
	assert.Equal(t, 3, counts["S.D"])
	assert.Equal(t, 3, counts["SUBI"])
	assert.Equal(t, 3, counts["BNE"])
}

// scenario 3 from spec §8: structural hazard on a starved unit class.
func TestStructuralHazardStallsIssue(t *testing.T) {
	src := "MUL.D F0, F2, F4\nMUL.D F6, F2, F4\nMUL.D F8, F2, F4\nMUL.D F10, F2, F4"
	instrs, labels := mustParse(t, src)
	cfg := DefaultConfig()
	cfg.RSSizes.MULT = 2
	s := Initialize(instrs, labels, cfg)
	s = setReg(t, s, "F2", 2)
	s = setReg(t, s, "F4", 3)

	s = runToCompletion(t, s, cfg, 200)

	for _, inst := range s.Instructions {
		assert.NotNil(t, inst.IssueCycle)
	}

	earliestFree := *s.Instructions[0].WriteCycle
	if *s.Instructions[1].WriteCycle < earliestFree {
		earliestFree = *s.Instructions[1].WriteCycle
	}
	assert.GreaterOrEqual(t, *s.Instructions[2].IssueCycle, earliestFree)
}

// scenario 4 from spec §8: memory disambiguation.
func TestMemoryDisambiguationStallsLoad(t *testing.T) {
	src := "S.D F0, 0(R1)\nL.D F2, 0(R1)"
	instrs, labels := mustParse(t, src)
	cfg := DefaultConfig()
	s := Initialize(instrs, labels, cfg)
	s = setReg(t, s, "R1", 100)
	s = setReg(t, s, "F0", 9)

	s = runToCompletion(t, s, cfg, 100)

	store, load := s.Instructions[0], s.Instructions[1]
	assert.NotNil(t, store.WriteCycle)
	assert.NotNil(t, load.IssueCycle)
	assert.GreaterOrEqual(t, *load.IssueCycle, *store.WriteCycle)
}

// scenario 6 from spec §8: branch stall.
func TestBranchStallBlocksFollowerIssue(t *testing.T) {
	src := "BNE R1, R2, DONE\nADD R3, R1, R2\nDONE: ADD R4, R1, R2"
	instrs, labels := mustParse(t, src)
	cfg := DefaultConfig()
	s := Initialize(instrs, labels, cfg)
	s = setReg(t, s, "R1", 1)
	s = setReg(t, s, "R2", 2)

	s = runToCompletion(t, s, cfg, 100)

	branch := s.Instructions[0]
	assert.NotNil(t, branch.IssueCycle)
	assert.NotNil(t, branch.ExecEndCycle)

	for _, inst := range s.Instructions {
		if inst.ID == branch.ID || inst.IssueCycle == nil {
			continue
		}
		// The stall flag is cleared in the execute phase of the branch's
		// exec-end cycle, before that cycle's issue phase runs, so issuing
		// in the exec-end cycle itself is allowed.
		inStallWindow := *inst.IssueCycle > *branch.IssueCycle && *inst.IssueCycle < *branch.ExecEndCycle
		assert.False(t, inStallWindow, "instruction %q issued during branch stall window", inst.Text)
	}
}

func TestDivisionByZeroLogsAndYieldsZero(t *testing.T) {
	instrs, labels := mustParse(t, "DIV.D F0, F2, F4")
	cfg := DefaultConfig()
	s := Initialize(instrs, labels, cfg)
	s = setReg(t, s, "F2", 5)
	s = setReg(t, s, "F4", 0)

	s = runToCompletion(t, s, cfg, 100)

	assert.Equal(t, float64(0), s.Registers["F0"].Value)
	found := false
	for _, e := range s.Log {
		if e.Kind == LogDivByZero {
			found = true
		}
	}
	assert.True(t, found, "expected a division-by-zero log entry")
}

func TestCacheDisabledNeverLogsMiss(t *testing.T) {
	instrs, labels := mustParse(t, "L.D F0, 0(R1)\nL.D F2, 0(R1)")
	cfg := DefaultConfig()
	cfg.Cache.Enabled = false
	s := Initialize(instrs, labels, cfg)
	s = setReg(t, s, "R1", 0)

	s = runToCompletion(t, s, cfg, 100)

	for _, e := range s.Log {
		assert.NotEqual(t, LogCacheMiss, e.Kind)
	}
	assert.Equal(t, 0, s.Cache.Len())
}

func TestDeterministicReplay(t *testing.T) {
	instrs, labels := mustParse(t, "ADD R3, R1, R2")
	cfg := DefaultConfig()

	run := func() *State {
		s := Initialize(instrs, labels, cfg)
		s = setReg(t, s, "R1", 4)
		s = setReg(t, s, "R2", 5)
		return runToCompletion(t, s, cfg, 50)
	}

	a, b := run(), run()
	assert.Equal(t, a.Cycle, b.Cycle)
	assert.Equal(t, a.Registers["R3"].Value, b.Registers["R3"].Value)
	assert.Equal(t, len(a.Log), len(b.Log))
}

func TestIdleStepOnEmptyProgramIsFinished(t *testing.T) {
	cfg := DefaultConfig()
	s := Initialize(nil, map[string]int{}, cfg)
	assert.True(t, s.Finished)

	next, err := Step(s, cfg)
	assert.NoError(t, err)
	assert.Same(t, s, next)
}

func TestSetRegisterValueRejectedAfterCycleZero(t *testing.T) {
	instrs, labels := mustParse(t, "ADD R3, R1, R2")
	cfg := DefaultConfig()
	s := Initialize(instrs, labels, cfg)
	s = setReg(t, s, "R1", 1)

	next, err := Step(s, cfg)
	assert.NoError(t, err)

	_, err = SetRegisterValue(next, "R1", 2)
	assert.Error(t, err)
}

func TestUnitClassCountMatchesTagPackage(t *testing.T) {
	assert.Equal(t, tag.NumClasses(), numUnitClasses)
}
