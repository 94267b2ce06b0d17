// Package sim provides a simulated hardware surface with a virtual clock.
//
// Time only advances through Delay and input sampling, so a whole session
// runs instantly and deterministically. Every line transition is recorded
// with its virtual timestamp for later inspection.
package sim

import (
	"sort"

	"github.com/robotalks/siobridge/pkg/hal"
)

// DefaultSampleCost is the virtual time charged for sampling an input.
const DefaultSampleCost hal.Units = 1

// Transition is a recorded level change.
type Transition struct {
	At    uint64
	Line  hal.Line
	Level hal.Level
}

type scheduled struct {
	at  uint64
	seq int
	fn  func(*Surface)
}

// Surface implements hal.Surface in memory.
type Surface struct {
	// SampleCost is charged to the virtual clock on each ReadInput so
	// scheduled changes become visible to a polling loop.
	SampleCost hal.Units

	inputs     [hal.NumInputs]hal.Level
	outputs    [hal.NumOutputs]hal.Level
	counter    uint8
	now        uint64
	configured bool
	writes     int

	trace    []Transition
	schedule []scheduled
	seq      int
}

// New creates a Surface with DTR and TXREQ idle HIGH.
func New() *Surface {
	return NewWithDTR(hal.High)
}

// NewWithDTR creates a Surface with the given power-on DTR level.
func NewWithDTR(dtr hal.Level) *Surface {
	s := &Surface{SampleCost: DefaultSampleCost}
	s.inputs[hal.LineDTR] = dtr
	s.inputs[hal.LineTxReq] = hal.High
	return s
}

// Configure implements hal.Surface.
func (s *Surface) Configure() error {
	s.outputs[hal.LineSIOClock.OutputIndex()] = hal.Low
	s.outputs[hal.LineSPIClock.OutputIndex()] = hal.Low
	s.outputs[hal.LineSync.OutputIndex()] = hal.High
	s.outputs[hal.LineCTS.OutputIndex()] = hal.High
	s.counter = 0
	s.configured = true
	return nil
}

// Configured indicates Configure has been called.
func (s *Surface) Configured() bool {
	return s.configured
}

// ReadInput implements hal.Surface.
func (s *Surface) ReadInput(line hal.Line) hal.Level {
	if !line.IsInput() {
		panic("sim: read of non-input line " + line.String())
	}
	if s.SampleCost > 0 {
		s.advance(uint64(s.SampleCost))
	}
	return s.inputs[line]
}

// SetOutput implements hal.Surface.
func (s *Surface) SetOutput(level hal.Level, lines ...hal.Line) {
	s.writes++
	for _, line := range lines {
		idx := s.outputIndex(line)
		if s.outputs[idx] != level {
			s.outputs[idx] = level
			s.record(line, level)
		}
	}
}

// ToggleOutput implements hal.Surface.
func (s *Surface) ToggleOutput(lines ...hal.Line) {
	s.writes++
	for _, line := range lines {
		idx := s.outputIndex(line)
		s.outputs[idx] = s.outputs[idx].Invert()
		s.record(line, s.outputs[idx])
	}
}

// ReadPulseCounter implements hal.Surface.
func (s *Surface) ReadPulseCounter() uint8 {
	return s.counter
}

// ResetPulseCounter implements hal.Surface.
func (s *Surface) ResetPulseCounter() {
	s.counter = 0
}

// Delay implements hal.Surface.
func (s *Surface) Delay(d hal.Units) {
	s.advance(uint64(d))
}

// SetInput drives an input line from the peripheral side. A falling edge
// on TXREQ bumps the pulse counter.
func (s *Surface) SetInput(line hal.Line, level hal.Level) {
	if !line.IsInput() {
		panic("sim: drive of non-input line " + line.String())
	}
	prev := s.inputs[line]
	if prev == level {
		return
	}
	s.inputs[line] = level
	s.record(line, level)
	if line == hal.LineTxReq && level == hal.Low {
		s.counter++
	}
}

// Pulse emits n LOW-then-HIGH pulses on TXREQ.
func (s *Surface) Pulse(n int) {
	for i := 0; i < n; i++ {
		s.SetInput(hal.LineTxReq, hal.Low)
		s.SetInput(hal.LineTxReq, hal.High)
	}
}

// After schedules fn to run once the virtual clock has advanced d units.
// Scheduled functions run in time order, ties in scheduling order.
func (s *Surface) After(d hal.Units, fn func(*Surface)) {
	s.seq++
	s.schedule = append(s.schedule, scheduled{at: s.now + uint64(d), seq: s.seq, fn: fn})
	sort.Slice(s.schedule, func(i, j int) bool {
		if s.schedule[i].at == s.schedule[j].at {
			return s.schedule[i].seq < s.schedule[j].seq
		}
		return s.schedule[i].at < s.schedule[j].at
	})
}

// Pending returns the number of scheduled functions not yet run.
func (s *Surface) Pending() int {
	return len(s.schedule)
}

// Now returns the virtual time in units.
func (s *Surface) Now() uint64 {
	return s.now
}

// Level returns the current level of any line.
func (s *Surface) Level(line hal.Line) hal.Level {
	if line.IsInput() {
		return s.inputs[line]
	}
	return s.outputs[s.outputIndex(line)]
}

// Writes returns the number of SetOutput/ToggleOutput calls.
func (s *Surface) Writes() int {
	return s.writes
}

func (s *Surface) outputIndex(line hal.Line) int {
	if !line.IsOutput() {
		panic("sim: write to non-output line " + line.String())
	}
	return line.OutputIndex()
}

func (s *Surface) record(line hal.Line, level hal.Level) {
	s.trace = append(s.trace, Transition{At: s.now, Line: line, Level: level})
}

func (s *Surface) advance(d uint64) {
	end := s.now + d
	for len(s.schedule) > 0 && s.schedule[0].at <= end {
		item := s.schedule[0]
		s.schedule = s.schedule[1:]
		if item.at > s.now {
			s.now = item.at
		}
		item.fn(s)
	}
	s.now = end
}
