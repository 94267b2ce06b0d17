// Package bridge implements the timing state machine between the SIO
// handshake lines and the SIO/SPI clocks.
package bridge

import (
	"github.com/golang/glog"

	"github.com/robotalks/siobridge/pkg/hal"
)

// Phase is the session phase.
type Phase int

// Phases
const (
	Idle Phase = iota
	Active
	// Draining only exists while the Session-End protocol runs.
	Draining
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Draining:
		return "draining"
	}
	return "unknown"
}

// Action is the protocol action taken by one Tick.
type Action int

// Actions
const (
	ActionNone Action = iota
	ActionSessionStart
	ActionByteClock
	ActionSessionEnd
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionSessionStart:
		return "session-start"
	case ActionByteClock:
		return "byte-clock"
	case ActionSessionEnd:
		return "session-end"
	}
	return "none"
}

// State is the complete mutable state of the machine.
type State struct {
	// Previous is the DTR level as of the last transition acted upon.
	Previous hal.Level
	// Current is the DTR level sampled by the last Tick.
	Current hal.Level
	// Expected counts bursts emitted since the last counter reset.
	// It wraps exactly like the hardware counter.
	Expected uint8
	Phase    Phase
}

// Stats are diagnostic counters, not used for protocol decisions.
type Stats struct {
	Sessions     uint32
	SessionBytes uint32
	TotalBytes   uint64
}

// Event is reported to the Observer after each action or phase change.
type Event struct {
	Action Action
	// From and To differ when the phase changed.
	From, To Phase
	Stats    Stats
	// At is the Tick number.
	At uint64
}

// Observer is notified synchronously from the polling loop and must not block.
type Observer interface {
	Observe(Event)
}

// ObserveFunc is the func form of Observer.
type ObserveFunc func(Event)

// Observe implements Observer.
func (f ObserveFunc) Observe(ev Event) {
	f(ev)
}

// Machine is the transmission session state machine.
type Machine struct {
	Surface  hal.Surface
	Timing   Timing
	Observer Observer

	state State
	stats Stats
	ticks uint64
}

// NewMachine creates a Machine in Idle. The surface must already be
// configured: the power-on DTR level is sampled here.
func NewMachine(s hal.Surface, t Timing) *Machine {
	m := &Machine{Surface: s, Timing: t}
	m.state.Previous = s.ReadInput(hal.LineDTR)
	m.state.Current = m.state.Previous
	return m
}

// State returns a copy of the state.
func (m *Machine) State() State {
	return m.state
}

// Stats returns a copy of the statistics.
func (m *Machine) Stats() Stats {
	return m.stats
}

// Tick runs one polling iteration and performs at most one action.
func (m *Machine) Tick() Action {
	m.ticks++
	m.state.Current = m.Surface.ReadInput(hal.LineDTR)
	edge := DetectEdge(m.state.Previous, m.state.Current)

	switch m.state.Phase {
	case Idle:
		switch edge {
		case FallingEdge:
			m.state.Previous = m.state.Current
			SessionStart(m.Surface, m.Timing)
			m.stats.SessionBytes = 0
			m.setPhase(ActionSessionStart, Active)
			return ActionSessionStart
		case RisingEdge:
			// DTR was LOW at power-on or glitched, nothing to end.
			m.state.Previous = m.state.Current
			glog.V(2).Infof("rising DTR while idle, resync")
		}
	case Active:
		// Pulse backlog is serviced before the end of the session.
		if m.Surface.ReadPulseCounter() != m.state.Expected {
			ByteClock(m.Surface, m.Timing)
			m.state.Expected++
			m.stats.SessionBytes++
			m.stats.TotalBytes++
			m.notify(Event{Action: ActionByteClock, From: Active, To: Active})
			return ActionByteClock
		}
		if edge == RisingEdge {
			m.setPhase(ActionNone, Draining)
			SessionEnd(m.Surface, m.Timing)
			m.state.Expected = 0
			m.state.Previous = m.state.Current
			m.stats.Sessions++
			m.setPhase(ActionSessionEnd, Idle)
			return ActionSessionEnd
		}
	}
	return ActionNone
}

func (m *Machine) setPhase(action Action, phase Phase) {
	ev := Event{Action: action, From: m.state.Phase, To: phase}
	m.state.Phase = phase
	m.notify(ev)
}

func (m *Machine) notify(ev Event) {
	ev.Stats, ev.At = m.stats, m.ticks
	level := glog.Level(2)
	if ev.Action == ActionByteClock {
		level = 4
	}
	if glog.V(level) {
		glog.Infof("tick %d: %s %s -> %s (session bytes %d)", ev.At, ev.Action, ev.From, ev.To, ev.Stats.SessionBytes)
	}
	if o := m.Observer; o != nil {
		o.Observe(ev)
	}
}
