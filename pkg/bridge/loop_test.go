package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/siobridge/pkg/hal"
	"github.com/robotalks/siobridge/pkg/hal/sim"
)

func TestConfig(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, Timing{W: DefaultPulseWidth}, conf.Timing())
	require.Equal(t, time.Microsecond, conf.Unit())

	conf.PulseWidth, conf.TimeUnit = 0, 0
	require.Equal(t, Timing{W: DefaultPulseWidth}, conf.Timing())
	require.Equal(t, DefaultTimeUnit, conf.Unit())

	conf.PulseWidth = 10
	s := sim.New()
	b, err := conf.NewBridge(s)
	require.NoError(t, err)
	require.True(t, s.Configured())
	require.Equal(t, hal.Units(10), b.Machine.Timing.W)
}

func TestRun(t *testing.T) {
	s := sim.New()
	b, err := NewConfig().NewBridge(s)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var actions []Action
	b.Machine.Observer = ObserveFunc(func(ev Event) {
		actions = append(actions, ev.Action)
		if ev.To == Idle {
			cancel()
		}
	})

	s.After(10, func(s *sim.Surface) { s.SetInput(hal.LineDTR, hal.Low) })
	s.After(300, func(s *sim.Surface) { s.Pulse(2) })
	s.After(400, func(s *sim.Surface) { s.SetInput(hal.LineDTR, hal.High) })

	require.Equal(t, context.Canceled, b.Run(ctx))
	require.Equal(t, []Action{
		ActionSessionStart,
		ActionByteClock,
		ActionByteClock,
		ActionNone,
		ActionSessionEnd,
	}, actions)
	require.Equal(t, uint32(1), b.Machine.Stats().Sessions)
	require.Equal(t, "bridge", b.Name())
}

func TestSettleLimit(t *testing.T) {
	env := newMachineTestEnv(t)
	env.dtr(hal.Low).pulse(5)
	b := NewBridge(env.machine)
	require.Equal(t, []Action{ActionSessionStart, ActionByteClock}, b.Settle(2))
	require.Len(t, b.Settle(0), 4)
}
