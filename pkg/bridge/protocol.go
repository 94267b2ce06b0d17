package bridge

import "github.com/robotalks/siobridge/pkg/hal"

// Protocol constants.
const (
	// PrimingCycles is the number of SIO clock cycles before CTS is asserted.
	PrimingCycles = 2
	// BitsPerByte is the number of bit slots in one Byte-Clock burst.
	BitsPerByte = 8
	// FlushCycles is the number of SIO clock cycles releasing trailing bytes
	// from the SIO receiver at the end of a session.
	FlushCycles = 16
)

// Timing derives all protocol waits from the half pulse width W.
type Timing struct {
	W hal.Units
}

// Half returns W/2.
func (t Timing) Half() hal.Units {
	return t.W / 2
}

// Full returns W.
func (t Timing) Full() hal.Units {
	return t.W
}

// StartDuration is the duration of the Session-Start protocol.
func (t Timing) StartDuration() hal.Units {
	return PrimingCycles * 2 * t.Full()
}

// ByteDuration is the duration of one Byte-Clock burst.
func (t Timing) ByteDuration() hal.Units {
	return BitsPerByte * (2*t.Half() + t.Full())
}

// EndDuration is the duration of the Session-End clocking.
func (t Timing) EndDuration() hal.Units {
	return FlushCycles * 2 * t.Full()
}

// SIOCycles emits full clock cycles on the SIO clock only.
// Expects SIO_CLK LOW on entry and leaves it LOW.
func SIOCycles(s hal.Surface, t Timing, cycles int) {
	for i := 0; i < cycles; i++ {
		s.ToggleOutput(hal.LineSIOClock)
		s.Delay(t.Full())
		s.ToggleOutput(hal.LineSIOClock)
		s.Delay(t.Full())
	}
}

// SessionStart primes the SIO with two clock cycles then asserts CTS.
// Expects SIO_CLK LOW and CTS HIGH on entry.
func SessionStart(s hal.Surface, t Timing) {
	SIOCycles(s, t, PrimingCycles)
	s.ToggleOutput(hal.LineCTS)
}

// ByteClock clocks one byte through the SIO and the SPI peripheral.
// Expects both clocks LOW on entry and leaves them LOW.
//
// Each bit slot toggles both clocks HIGH, drops SYNC half way through the
// high phase and toggles both clocks LOW again.
func ByteClock(s hal.Surface, t Timing) {
	for bit := 0; bit < BitsPerByte; bit++ {
		s.ToggleOutput(hal.LineSIOClock, hal.LineSPIClock)
		s.Delay(t.Half())
		s.SetOutput(hal.Low, hal.LineSync)
		s.Delay(t.Half())
		s.ToggleOutput(hal.LineSIOClock, hal.LineSPIClock)
		s.Delay(t.Full())
	}
}

// SessionEnd flushes the SIO receiver and releases SYNC and CTS.
// The caller resets its own expected pulse count.
func SessionEnd(s hal.Surface, t Timing) {
	SIOCycles(s, t, FlushCycles)
	s.SetOutput(hal.High, hal.LineSync, hal.LineCTS)
	s.ResetPulseCounter()
}
