package engine

import (
	"tomasulo/asm"
	"tomasulo/cache"
	"tomasulo/isa"
	"tomasulo/mem"
	"tomasulo/tag"
)

// numUnitClasses mirrors tag.NumClasses(); kept as a local constant so
// State.RS can be a fixed-size array indexed directly by tag.Class.
// engine_test.go asserts the two stay in sync.
const numUnitClasses = 5

// OperandKind discriminates the Operand tagged union (spec §9): an
// operand slot holds either nothing (unused for this opcode), a
// resolved value, or a pending producer tag — never more than one.
type OperandKind int

const (
	Empty OperandKind = iota
	ValueOperand
	TagOperand
)

// Operand is a reservation-station source slot. Representing "value or
// tag, never both" as a sum type instead of a (float64, Tag, bool) bag
// makes the spec's "exactly one of value/tag present when busy"
// invariant a property of construction rather than something every
// call site has to maintain by hand.
type Operand struct {
	Kind  OperandKind
	Value float64
	Tag   tag.Tag
}

func ValueOf(v float64) Operand { return Operand{Kind: ValueOperand, Value: v} }
func TagOf(t tag.Tag) Operand   { return Operand{Kind: TagOperand, Tag: t} }

// resolved reports whether the slot carries a usable value (either
// because it never needed a producer, or because its producer has
// already broadcast).
func (o Operand) resolved() bool { return o.Kind != TagOperand }

func (o Operand) floatValue() float64 {
	if o.Kind == ValueOperand {
		return o.Value
	}
	return 0
}

// Register holds a value, or — while waiting on an in-flight producer
// — the tag that will supply it (spec §3's register file / rename
// table).
type Register struct {
	Name    string
	Value   float64
	Tag     tag.Tag
	HasTag  bool
}

// Instruction is one dynamic instance of a program line. The first
// instance of a given static line reuses that line's parse-order ID;
// loop re-entry (spec §4.3.5) clones a fresh instance with a new ID
// drawn from State's monotonic counter, so two in-flight instances of
// the same loop body are never confused with each other.
type Instruction struct {
	ID     int
	Text   string
	Opcode string
	Dest   string
	Src1   string
	Src2   string
	Imm    int64
	HasImm bool
	PC     int

	IssueCycle     *int
	ExecStartCycle *int
	ExecEndCycle   *int
	WriteCycle     *int
}

// ReservationStation is one functional-unit slot (spec §3).
type ReservationStation struct {
	ID      tag.Tag
	Unit    tag.Class
	Busy    bool
	Op      isa.OpInfo
	InstrID int // -1 when idle

	Vj, Vk Operand

	Addr    int
	AddrSet bool

	Remaining   int
	Result      float64
	ResultValid bool
}

func (rs *ReservationStation) reset() {
	id, unit := rs.ID, rs.Unit
	*rs = ReservationStation{ID: id, Unit: unit, InstrID: -1}
}

// CDB is the Common Data Bus: at most one producer broadcasts per
// cycle (spec §3/§4.3.4).
type CDB struct {
	Active bool
	Tag    tag.Tag
	Value  float64
}

// LogKind enumerates the runtime anomalies spec §7 requires be logged
// rather than treated as fatal.
type LogKind int

const (
	LogCacheMiss LogKind = iota
	LogDivByZero
	LogUndefinedBranchTarget
)

func (k LogKind) String() string {
	switch k {
	case LogCacheMiss:
		return "cache-miss"
	case LogDivByZero:
		return "div-by-zero"
	case LogUndefinedBranchTarget:
		return "undefined-branch-target"
	default:
		return "unknown"
	}
}

// LogEntry is one recorded runtime anomaly.
type LogEntry struct {
	Cycle   int
	Kind    LogKind
	Message string
}

// State is the complete machine state at the boundary between cycles
// (spec §3). Step never mutates its receiver in place: it clones,
// mutates the clone through the three ordered phases, validates, and
// returns the clone, so a caller holding an older State always sees a
// stable snapshot.
type State struct {
	Cycle int
	PC    int

	Program []asm.Instruction
	Labels  map[string]int

	Instructions []*Instruction
	nextInstrID  int

	RS [numUnitClasses][]*ReservationStation

	Registers map[string]*Register
	Memory    *mem.Memory
	Cache     *cache.Cache
	CDB       CDB

	BranchStall bool
	Finished    bool

	Log []LogEntry
}

// allRS returns every reservation station in the fixed deterministic
// order spec §5 requires: ADD, MULT, LOAD, STORE, INTEGER, ordinal
// ascending within each class.
func allRS(s *State) []*ReservationStation {
	var out []*ReservationStation
	for c := 0; c < numUnitClasses; c++ {
		out = append(out, s.RS[c]...)
	}
	return out
}

func (s *State) rsByTag(t tag.Tag) *ReservationStation {
	class := int(t.Class())
	if class < 0 || class >= numUnitClasses {
		return nil
	}
	ordinal := t.Ordinal()
	list := s.RS[class]
	if ordinal < 0 || ordinal >= len(list) {
		return nil
	}
	if list[ordinal].ID != t {
		return nil
	}
	return list[ordinal]
}

func (s *State) freeRS(c tag.Class) *ReservationStation {
	for _, rs := range s.RS[c] {
		if !rs.Busy {
			return rs
		}
	}
	return nil
}

// instructionByID scans the dynamic instruction list. Programs in this
// simulator's scale are small enough that a linear scan is simpler and
// safer than maintaining a parallel index map.
func (s *State) instructionByID(id int) *Instruction {
	for _, inst := range s.Instructions {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

// register looks up (or lazily creates) a named register. R0 is
// synthesized as a hardwired zero (spec SUPPLEMENTED FEATURES: the
// BEQZ/BNEZ implicit-zero operand): it is never stored, so writes
// issued against it — for example by a program that names R0 as a
// destination — are discarded rather than persisted.
func (s *State) register(name string) *Register {
	if name == "R0" {
		return &Register{Name: "R0"}
	}
	r, ok := s.Registers[name]
	if !ok {
		r = &Register{Name: name}
		s.Registers[name] = r
	}
	return r
}

func (s *State) readOperand(name string) Operand {
	r := s.register(name)
	if r.HasTag {
		return TagOf(r.Tag)
	}
	return ValueOf(r.Value)
}

func (s *State) log(kind LogKind, msg string) {
	s.Log = append(s.Log, LogEntry{Cycle: s.Cycle, Kind: kind, Message: msg})
}

// Clone returns a deep, independent copy. Program and Labels are
// treated as immutable after Parse and are shared rather than copied.
func (s *State) Clone() *State {
	ns := &State{
		Cycle:       s.Cycle,
		PC:          s.PC,
		Program:     s.Program,
		Labels:      s.Labels,
		nextInstrID: s.nextInstrID,
		CDB:         s.CDB,
		BranchStall: s.BranchStall,
		Finished:    s.Finished,
		Memory:      s.Memory.Clone(),
		Cache:       s.Cache.Clone(),
	}

	ns.Registers = make(map[string]*Register, len(s.Registers))
	for name, r := range s.Registers {
		cp := *r
		ns.Registers[name] = &cp
	}

	ns.Instructions = make([]*Instruction, len(s.Instructions))
	for i, inst := range s.Instructions {
		cp := *inst
		cp.IssueCycle = cloneIntPtr(inst.IssueCycle)
		cp.ExecStartCycle = cloneIntPtr(inst.ExecStartCycle)
		cp.ExecEndCycle = cloneIntPtr(inst.ExecEndCycle)
		cp.WriteCycle = cloneIntPtr(inst.WriteCycle)
		ns.Instructions[i] = &cp
	}

	for c := 0; c < numUnitClasses; c++ {
		list := make([]*ReservationStation, len(s.RS[c]))
		for i, rs := range s.RS[c] {
			cp := *rs
			list[i] = &cp
		}
		ns.RS[c] = list
	}

	ns.Log = append([]LogEntry(nil), s.Log...)

	return ns
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func setCycleOnce(field **int, cycle int) {
	if *field != nil {
		return
	}
	v := cycle
	*field = &v
}
