package main

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"tomasulo/engine"
)

// model is the interactive TUI's state: a current machine State plus
// the bookkeeping the view needs (previous cycle's PC, a fatal error
// if Step ever returns one). It holds no scheduling logic of its own —
// every transition is a call into engine.Step.
type model struct {
	cfg    engine.Config
	state  *engine.State
	prevPC int
	err    error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case " ", "j":
			if m.state.Finished || m.err != nil {
				return m, nil
			}
			m.prevPC = m.state.PC
			next, err := engine.Step(m.state, m.cfg)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.state = next
		}
	}
	return m, nil
}

func (m model) reservationStationTable() string {
	lines := []string{"unit   id       busy  opcode      instr  remaining"}
	for c := 0; c < 5; c++ {
		for _, rs := range m.state.RS[c] {
			opcode := ""
			instrID := "-"
			if rs.Busy {
				if inst := m.state.Instructions; inst != nil {
					for _, ins := range inst {
						if ins.ID == rs.InstrID {
							opcode = ins.Opcode
						}
					}
				}
				instrID = fmt.Sprintf("%d", rs.InstrID)
			}
			lines = append(lines, fmt.Sprintf(
				"%-6s %-8s %-5v %-11s %-6s %d",
				rs.Unit, rs.ID, rs.Busy, opcode, instrID, rs.Remaining,
			))
		}
	}
	return strings.Join(lines, "\n")
}

func (m model) registerTable() string {
	names := make([]string, 0, len(m.state.Registers))
	for name := range m.state.Registers {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{"reg    value      tag"}
	for _, name := range names {
		r := m.state.Registers[name]
		tag := ""
		if r.HasTag {
			tag = r.Tag.String()
		}
		lines = append(lines, fmt.Sprintf("%-6s %-10g %s", r.Name, r.Value, tag))
	}
	return strings.Join(lines, "\n")
}

func (m model) cacheTable() string {
	lines := []string{"cache block   last-access"}
	for _, b := range m.state.Cache.Blocks() {
		lines = append(lines, fmt.Sprintf("%-13d %d", b.Tag, b.LastAccess))
	}
	return strings.Join(lines, "\n")
}

func (m model) logPanel() string {
	if len(m.state.Log) == 0 {
		return "log: (empty)"
	}
	lines := []string{"log:"}
	start := 0
	if len(m.state.Log) > 8 {
		start = len(m.state.Log) - 8
	}
	for _, e := range m.state.Log[start:] {
		lines = append(lines, fmt.Sprintf("  [%d] %s: %s", e.Cycle, e.Kind, e.Message))
	}
	return strings.Join(lines, "\n")
}

func (m model) status() string {
	status := "running"
	if m.state.Finished {
		status = "finished"
	}
	if m.err != nil {
		status = "error: " + m.err.Error()
	}
	return fmt.Sprintf("cycle %d | PC %d (was %d) | %s", m.state.Cycle, m.state.PC, m.prevPC, status)
}

func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.status(),
		"",
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.reservationStationTable(),
			"   ",
			m.registerTable(),
			"   ",
			m.cacheTable(),
		),
		"",
		m.logPanel(),
		"",
		spew.Sdump(m.state.CDB),
		"",
		"space/j: step one cycle   q: quit",
	)
}

// run starts the interactive TUI over s, stepping one cycle per
// keypress, and returns the final state.
func run(s *engine.State, cfg engine.Config) (*engine.State, error) {
	final, err := tea.NewProgram(model{cfg: cfg, state: s}).Run()
	if err != nil {
		return s, err
	}
	m := final.(model)
	return m.state, m.err
}
