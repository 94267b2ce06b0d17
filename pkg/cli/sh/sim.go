package sh

import (
	"github.com/robotalks/siobridge/pkg/bridge"
	"github.com/robotalks/siobridge/pkg/hal"
	"github.com/robotalks/siobridge/pkg/hal/sim"
)

// Sim drives a bridge on the simulated surface.
type Sim struct {
	Config  *bridge.Config
	Surface *sim.Surface
	Bridge  *bridge.Bridge
	// Events collects observed events since the last Reset or ClearEvents.
	Events []bridge.Event
	// OnEvent is called for each event, after it's collected.
	OnEvent func(bridge.Event)
}

// Status is a snapshot of the simulation.
type Status struct {
	Phase        string            `json:"phase"`
	DTR          string            `json:"dtr"`
	Previous     string            `json:"previous"`
	Expected     uint8             `json:"expected"`
	Counter      uint8             `json:"counter"`
	Now          uint64            `json:"now"`
	Outputs      map[string]string `json:"outputs"`
	Sessions     uint32            `json:"sessions"`
	SessionBytes uint32            `json:"session_bytes"`
	TotalBytes   uint64            `json:"total_bytes"`
}

// ScenarioResult summarizes a complete session driven by Scenario.
type ScenarioResult struct {
	Bytes    int            `json:"bytes"`
	Actions  []string       `json:"actions"`
	SIORises int            `json:"sio_rises"`
	SPIRises int            `json:"spi_rises"`
	Duration uint64         `json:"duration"`
	Expected map[string]int `json:"expected"`
}

// NewSim creates a Sim with DTR idle HIGH.
func NewSim(conf *bridge.Config) *Sim {
	s := &Sim{Config: conf}
	if err := s.Reset(hal.High); err != nil {
		// the simulated surface never fails to configure.
		panic(err)
	}
	return s
}

// Reset replaces the surface and the bridge, DTR starts at dtr.
func (s *Sim) Reset(dtr hal.Level) error {
	surface := sim.NewWithDTR(dtr)
	b, err := s.Config.NewBridge(surface)
	if err != nil {
		return err
	}
	b.Machine.Observer = bridge.ObserveFunc(s.observe)
	s.Surface, s.Bridge, s.Events = surface, b, nil
	return nil
}

func (s *Sim) observe(ev bridge.Event) {
	s.Events = append(s.Events, ev)
	if fn := s.OnEvent; fn != nil {
		fn(ev)
	}
}

// ClearEvents drops collected events.
func (s *Sim) ClearEvents() {
	s.Events = nil
}

// SetDTR drives the DTR input.
func (s *Sim) SetDTR(level hal.Level) {
	s.Surface.SetInput(hal.LineDTR, level)
}

// ToggleDTR inverts the DTR input.
func (s *Sim) ToggleDTR() hal.Level {
	level := s.Surface.Level(hal.LineDTR).Invert()
	s.SetDTR(level)
	return level
}

// Pulse emits n request pulses.
func (s *Sim) Pulse(n int) {
	s.Surface.Pulse(n)
}

// Tick runs n polling iterations.
func (s *Sim) Tick(n int) []bridge.Action {
	actions := make([]bridge.Action, 0, n)
	for i := 0; i < n; i++ {
		actions = append(actions, s.Bridge.Machine.Tick())
	}
	return actions
}

// Settle ticks until idle, at most max actions if max > 0.
func (s *Sim) Settle(max int) []bridge.Action {
	return s.Bridge.Settle(max)
}

// Status takes a snapshot.
func (s *Sim) Status() Status {
	st, stats := s.Bridge.Machine.State(), s.Bridge.Machine.Stats()
	status := Status{
		Phase:        st.Phase.String(),
		DTR:          s.Surface.Level(hal.LineDTR).String(),
		Previous:     st.Previous.String(),
		Expected:     st.Expected,
		Counter:      s.Surface.ReadPulseCounter(),
		Now:          s.Surface.Now(),
		Outputs:      make(map[string]string),
		Sessions:     stats.Sessions,
		SessionBytes: stats.SessionBytes,
		TotalBytes:   stats.TotalBytes,
	}
	for _, line := range hal.Outputs {
		status.Outputs[line.String()] = s.Surface.Level(line).String()
	}
	return status
}

// MaxPulsesPerSettle is the most pulses the 8-bit counter holds before
// the bridge must catch up.
const MaxPulsesPerSettle = 255

// Scenario drives one complete session of k bytes from the current state.
// DTR must be HIGH and the bridge Idle. Pulses are injected in chunks the
// counter can hold, settling after each.
func (s *Sim) Scenario(k int) ScenarioResult {
	start := s.Surface.Now()
	traceStart := len(s.Surface.Trace())
	var actions []bridge.Action

	s.SetDTR(hal.Low)
	actions = append(actions, s.Settle(0)...)
	for left := k; left > 0; left -= MaxPulsesPerSettle {
		n := left
		if n > MaxPulsesPerSettle {
			n = MaxPulsesPerSettle
		}
		s.Pulse(n)
		actions = append(actions, s.Settle(0)...)
	}
	s.SetDTR(hal.High)
	actions = append(actions, s.Settle(0)...)

	trace := s.Surface.Trace()[traceStart:]
	res := ScenarioResult{
		Bytes:    k,
		SIORises: sim.Count(trace, hal.LineSIOClock, hal.High),
		SPIRises: sim.Count(trace, hal.LineSPIClock, hal.High),
		Duration: s.Surface.Now() - start,
		Expected: map[string]int{
			"sio_rises": bridge.PrimingCycles + bridge.BitsPerByte*k + bridge.FlushCycles,
			"spi_rises": bridge.BitsPerByte * k,
		},
	}
	for _, a := range actions {
		res.Actions = append(res.Actions, a.String())
	}
	return res
}

// Matches indicates the observed clock edges are as expected.
func (r ScenarioResult) Matches() bool {
	return r.SIORises == r.Expected["sio_rises"] && r.SPIRises == r.Expected["spi_rises"]
}
