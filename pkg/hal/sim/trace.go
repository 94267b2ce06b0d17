package sim

import (
	"fmt"
	"strings"

	"github.com/robotalks/siobridge/pkg/hal"
)

// Trace returns a copy of all recorded transitions.
func (s *Surface) Trace() []Transition {
	return append([]Transition(nil), s.trace...)
}

// ClearTrace drops recorded transitions.
func (s *Surface) ClearTrace() {
	s.trace = nil
}

// Transitions returns recorded transitions of one line.
func (s *Surface) Transitions(line hal.Line) []Transition {
	return Filter(s.trace, line)
}

// Rising counts LOW to HIGH transitions of a line.
func (s *Surface) Rising(line hal.Line) int {
	return Count(s.trace, line, hal.High)
}

// Falling counts HIGH to LOW transitions of a line.
func (s *Surface) Falling(line hal.Line) int {
	return Count(s.trace, line, hal.Low)
}

// Filter selects transitions of one line.
func Filter(trace []Transition, line hal.Line) []Transition {
	var res []Transition
	for _, t := range trace {
		if t.Line == line {
			res = append(res, t)
		}
	}
	return res
}

// Count counts transitions of a line into the level.
func Count(trace []Transition, line hal.Line, level hal.Level) (n int) {
	for _, t := range trace {
		if t.Line == line && t.Level == level {
			n++
		}
	}
	return
}

// Since returns transitions recorded at or after the virtual time.
func Since(trace []Transition, at uint64) []Transition {
	for n, t := range trace {
		if t.At >= at {
			return trace[n:]
		}
	}
	return nil
}

// FormatTrace renders transitions one per line.
func FormatTrace(trace []Transition) string {
	var sb strings.Builder
	for _, t := range trace {
		fmt.Fprintf(&sb, "%8d %-8s %s\n", t.At, t.Line, t.Level)
	}
	return sb.String()
}
