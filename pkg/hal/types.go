// Package hal defines the hardware abstraction surface consumed by the bridge.
package hal

// Level is the logic level of a digital line.
type Level byte

// Levels
const (
	Low  Level = 0
	High Level = 1
)

// String implements fmt.Stringer.
func (l Level) String() string {
	if l == Low {
		return "LOW"
	}
	return "HIGH"
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Invert returns the opposite level.
func (l Level) Invert() Level {
	if l == Low {
		return High
	}
	return Low
}

// LevelFromInt converts 0/1 values used by GPIO drivers.
func LevelFromInt(v int) Level {
	if v == 0 {
		return Low
	}
	return High
}

// Int converts the level to 0/1.
func (l Level) Int() int {
	if l == Low {
		return 0
	}
	return 1
}

// Line identifies a handshake or clock line.
type Line int

// Input lines.
const (
	// LineDTR is the message framing signal from the SIO DTR output.
	LineDTR Line = iota
	// LineTxReq is the per-byte transfer request pulse (SIO RTS), counted
	// on falling edges by the pulse counter.
	LineTxReq

	// NumInputs is the number of input lines.
	NumInputs = int(LineTxReq) + 1
)

// Output lines.
const (
	// LineSIOClock is the clock fed to the SIO.
	LineSIOClock Line = iota + Line(NumInputs)
	// LineSPIClock is the clock fed to the SPI peripheral.
	LineSPIClock
	// LineSync is the SYNC signal to the SIO.
	LineSync
	// LineCTS is the flow control signal to the SIO CTS.
	LineCTS

	lineEnd
)

// Outputs lists all output lines in index order.
var Outputs = []Line{LineSIOClock, LineSPIClock, LineSync, LineCTS}

// NumOutputs is the number of output lines.
const NumOutputs = int(lineEnd) - NumInputs

var lineNames = [...]string{
	LineDTR:      "DTR",
	LineTxReq:    "TXREQ",
	LineSIOClock: "SIO_CLK",
	LineSPIClock: "SPI_CLK",
	LineSync:     "SYNC",
	LineCTS:      "CTS",
}

// String implements fmt.Stringer.
func (l Line) String() string {
	if l >= 0 && l < lineEnd {
		return lineNames[l]
	}
	return "LINE?"
}

// MarshalText implements encoding.TextMarshaler.
func (l Line) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// IsInput indicates the line is sampled by the bridge.
func (l Line) IsInput() bool {
	return l >= 0 && int(l) < NumInputs
}

// IsOutput indicates the line is driven by the bridge.
func (l Line) IsOutput() bool {
	return int(l) >= NumInputs && l < lineEnd
}

// OutputIndex returns the 0-based index of an output line.
func (l Line) OutputIndex() int {
	return int(l) - NumInputs
}

// LineFromName parses a line name, case sensitive.
func LineFromName(name string) (Line, bool) {
	for n, s := range lineNames {
		if s == name {
			return Line(n), true
		}
	}
	return 0, false
}

// Units is a duration expressed in implementation time units.
type Units uint32

// Surface is the hardware abstraction consumed by the bridge.
//
// All methods are called from a single goroutine. Grouped lines passed to
// SetOutput and ToggleOutput change in one write.
type Surface interface {
	// Configure sets output directions and the initial levels
	// (SYNC and CTS HIGH, both clocks LOW) and arms the pulse counter.
	Configure() error
	// ReadInput samples an input line.
	ReadInput(Line) Level
	// SetOutput drives all given lines to the level.
	SetOutput(level Level, lines ...Line)
	// ToggleOutput flips all given lines.
	ToggleOutput(lines ...Line)
	// ReadPulseCounter returns falling edges seen on LineTxReq, mod 256.
	ReadPulseCounter() uint8
	// ResetPulseCounter sets the pulse counter to 0.
	ResetPulseCounter()
	// Delay blocks for the number of time units.
	Delay(Units)
}
