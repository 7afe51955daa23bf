package engine

import (
	"tomasulo/cache"
	"tomasulo/isa"
	"tomasulo/tag"
)

// RSSizes is the reservation-station count per functional-unit class
// (spec §6).
type RSSizes struct {
	ADD, MULT, LOAD, STORE, INTEGER int
}

func (sizes RSSizes) forClass(c tag.Class) int {
	switch c {
	case tag.ADD:
		return sizes.ADD
	case tag.MULT:
		return sizes.MULT
	case tag.LOAD:
		return sizes.LOAD
	case tag.STORE:
		return sizes.STORE
	case tag.INTEGER:
		return sizes.INTEGER
	default:
		return 0
	}
}

// Latencies is the cycle count per opcode family (spec §6).
type Latencies struct {
	Load, Store, FPAdd, FPSub, FPMult, FPDiv, IntegerALU, Branch int
}

func (l Latencies) forFamily(f isa.Family) int {
	switch f {
	case isa.Load:
		return l.Load
	case isa.Store:
		return l.Store
	case isa.FPAdd:
		return l.FPAdd
	case isa.FPSub:
		return l.FPSub
	case isa.FPMult:
		return l.FPMult
	case isa.FPDiv:
		return l.FPDiv
	case isa.IntegerALU:
		return l.IntegerALU
	case isa.Branch:
		return l.Branch
	default:
		return 0
	}
}

// Config is the simulator's machine configuration (spec §6).
type Config struct {
	RSSizes   RSSizes
	Latencies Latencies
	Cache     cache.Config
}

// DefaultConfig returns the spec §6 defaults.
func DefaultConfig() Config {
	return Config{
		RSSizes: RSSizes{ADD: 3, MULT: 2, LOAD: 3, STORE: 3, INTEGER: 4},
		Latencies: Latencies{
			Load: 2, Store: 2,
			FPAdd: 2, FPSub: 2, FPMult: 10, FPDiv: 40,
			IntegerALU: 1, Branch: 1,
		},
		Cache: cache.DefaultConfig(),
	}
}
