// Package pipeline drives a full evaluation: sample the ground truth, run
// the agent, judge the answers, and render the report, with an explicit
// state machine guarding the stage ordering.
package pipeline

import (
	"fmt"

	"gauntlet/internal/logging"
)

// State is one phase of an evaluation run.
type State string

const (
	StatePending      State = "PENDING"
	StateSampling     State = "SAMPLING"
	StateAgentRunning State = "AGENT_RUNNING"
	StateAgentDone    State = "AGENT_DONE"
	StateJudging      State = "JUDGING"
	StateJudgeDone    State = "JUDGE_DONE"
	StateReported     State = "REPORTED"
	StateFailed       State = "FAILED"
)

// transitions lists the legal forward edges. FAILED is reachable from any
// non-terminal state via Fail, never via To.
var transitions = map[State][]State{
	StatePending:      {StateSampling},
	StateSampling:     {StateAgentRunning},
	StateAgentRunning: {StateAgentDone},
	StateAgentDone:    {StateJudging},
	StateJudging:      {StateJudgeDone},
	StateJudgeDone:    {StateReported},
	StateReported:     {},
	StateFailed:       {},
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == StateReported || s == StateFailed }

// Machine tracks the current state and rejects illegal transitions.
type Machine struct {
	state State
}

// NewMachine returns a machine in PENDING.
func NewMachine() *Machine { return &Machine{state: StatePending} }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// To advances to next, or errors when the edge is not a legal transition.
func (m *Machine) To(next State) error {
	for _, allowed := range transitions[m.state] {
		if next == allowed {
			logging.New("pipeline").Debug("state transition", "from", m.state, "to", next)
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", m.state, next)
}

// Fail moves any non-terminal state to FAILED. Failing a terminal state is
// rejected: a reported run cannot retroactively fail.
func (m *Machine) Fail() error {
	if m.state.Terminal() {
		return fmt.Errorf("illegal transition %s -> %s", m.state, StateFailed)
	}
	logging.New("pipeline").Debug("state transition", "from", m.state, "to", StateFailed)
	m.state = StateFailed
	return nil
}
