package bridge

import "github.com/robotalks/siobridge/pkg/hal"

// Edge classifies a change of the DTR framing line.
type Edge int

// Edges
const (
	NoEdge Edge = iota
	// FallingEdge starts a session.
	FallingEdge
	// RisingEdge ends a session.
	RisingEdge
)

// String implements fmt.Stringer.
func (e Edge) String() string {
	switch e {
	case FallingEdge:
		return "falling"
	case RisingEdge:
		return "rising"
	default:
		return "none"
	}
}

// DetectEdge compares two samples. The line is assumed clean at the
// sampling rate, no debouncing is done.
func DetectEdge(previous, current hal.Level) Edge {
	switch {
	case previous == hal.High && current == hal.Low:
		return FallingEdge
	case previous == hal.Low && current == hal.High:
		return RisingEdge
	}
	return NoEdge
}
