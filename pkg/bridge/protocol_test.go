package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/siobridge/pkg/hal"
	"github.com/robotalks/siobridge/pkg/hal/sim"
)

var testTiming = Timing{W: DefaultPulseWidth}

func newConfiguredSurface(t *testing.T) *sim.Surface {
	s := sim.New()
	s.SampleCost = 0
	require.NoError(t, s.Configure())
	return s
}

func outputLevels(s *sim.Surface) map[hal.Line]hal.Level {
	levels := make(map[hal.Line]hal.Level)
	for _, line := range hal.Outputs {
		levels[line] = s.Level(line)
	}
	return levels
}

func idleLevels() map[hal.Line]hal.Level {
	return map[hal.Line]hal.Level{
		hal.LineSIOClock: hal.Low,
		hal.LineSPIClock: hal.Low,
		hal.LineSync:     hal.High,
		hal.LineCTS:      hal.High,
	}
}

func TestTiming(t *testing.T) {
	require.Equal(t, hal.Units(25), testTiming.Half())
	require.Equal(t, hal.Units(50), testTiming.Full())
	require.Equal(t, hal.Units(200), testTiming.StartDuration())
	require.Equal(t, hal.Units(800), testTiming.ByteDuration())
	require.Equal(t, hal.Units(1600), testTiming.EndDuration())
}

func TestSessionStart(t *testing.T) {
	s := newConfiguredSurface(t)
	SessionStart(s, testTiming)
	require.Equal(t, []sim.Transition{
		{At: 0, Line: hal.LineSIOClock, Level: hal.High},
		{At: 50, Line: hal.LineSIOClock, Level: hal.Low},
		{At: 100, Line: hal.LineSIOClock, Level: hal.High},
		{At: 150, Line: hal.LineSIOClock, Level: hal.Low},
		{At: 200, Line: hal.LineCTS, Level: hal.Low},
	}, s.Trace())
	require.Equal(t, uint64(testTiming.StartDuration()), s.Now())
}

func TestByteClock(t *testing.T) {
	s := newConfiguredSurface(t)
	ByteClock(s, testTiming)
	require.Equal(t, uint64(testTiming.ByteDuration()), s.Now())

	for _, line := range []hal.Line{hal.LineSIOClock, hal.LineSPIClock} {
		trans := s.Transitions(line)
		require.Len(t, trans, 2*BitsPerByte, line.String())
		for bit := 0; bit < BitsPerByte; bit++ {
			base := uint64(bit) * uint64(2*testTiming.Half()+testTiming.Full())
			require.Equal(t, sim.Transition{At: base, Line: line, Level: hal.High}, trans[bit*2])
			require.Equal(t, sim.Transition{At: base + 50, Line: line, Level: hal.Low}, trans[bit*2+1])
		}
	}
	// SYNC is cleared in the first slot and stays LOW.
	require.Equal(t, []sim.Transition{{At: 25, Line: hal.LineSync, Level: hal.Low}}, s.Transitions(hal.LineSync))
	require.Empty(t, s.Transitions(hal.LineCTS))
	// both clocks change in the same write.
	require.Equal(t, BitsPerByte*3, s.Writes())
}

func TestSessionEnd(t *testing.T) {
	s := newConfiguredSurface(t)
	SessionStart(s, testTiming)
	ByteClock(s, testTiming)
	s.Pulse(5)
	s.ClearTrace()
	start := s.Now()

	SessionEnd(s, testTiming)
	require.Equal(t, FlushCycles, s.Rising(hal.LineSIOClock))
	require.Equal(t, FlushCycles, s.Falling(hal.LineSIOClock))
	require.Empty(t, s.Transitions(hal.LineSPIClock))
	require.Equal(t, []sim.Transition{
		{At: start + uint64(testTiming.EndDuration()), Line: hal.LineSync, Level: hal.High},
		{At: start + uint64(testTiming.EndDuration()), Line: hal.LineCTS, Level: hal.High},
	}, append(s.Transitions(hal.LineSync), s.Transitions(hal.LineCTS)...))
	require.Equal(t, uint8(0), s.ReadPulseCounter())
	require.Equal(t, idleLevels(), outputLevels(s))

	// running it again leaves the same pins.
	SessionEnd(s, testTiming)
	require.Equal(t, idleLevels(), outputLevels(s))
	require.Equal(t, uint8(0), s.ReadPulseCounter())
}
