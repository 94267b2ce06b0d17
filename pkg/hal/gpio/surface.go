// Package gpio implements hal.Surface on the Linux GPIO character device.
//
// Outputs are requested as one line group so lines toggled together change
// in a single ioctl. The hardware pulse counter is emulated by a falling
// edge watcher on TXREQ: the kernel timestamps and queues edges, so pulses
// are never lost while the polling loop is busy in a burst.
package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/warthog618/gpiod"

	fx "github.com/robotalks/siobridge/pkg/framework"
	"github.com/robotalks/siobridge/pkg/hal"
)

// Consumer is the GPIO consumer label.
const Consumer = "siobridge"

// ErrNotConfigured indicates Configure was not called.
var ErrNotConfigured = errors.New("gpio surface not configured")

// Surface implements hal.Surface using gpiod.
type Surface struct {
	Chip    string
	Offsets map[hal.Line]int
	Unit    time.Duration

	chip    *gpiod.Chip
	dtr     *gpiod.Line
	txReq   *gpiod.Line
	outputs *gpiod.Lines
	levels  []int
	pulses  *xsync.Counter

	errOnce sync.Once
	err     error
}

// Configure implements hal.Surface.
func (s *Surface) Configure() (err error) {
	if s.chip, err = gpiod.NewChip(s.Chip, gpiod.WithConsumer(Consumer)); err != nil {
		return fmt.Errorf("open %s: %v", s.Chip, err)
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	s.pulses = xsync.NewCounter()
	if s.dtr, err = s.chip.RequestLine(s.Offsets[hal.LineDTR], gpiod.AsInput); err != nil {
		return fmt.Errorf("request DTR: %v", err)
	}
	s.txReq, err = s.chip.RequestLine(s.Offsets[hal.LineTxReq],
		gpiod.WithFallingEdge,
		gpiod.WithEventHandler(s.handleTxReq))
	if err != nil {
		return fmt.Errorf("request TXREQ: %v", err)
	}

	offsets := make([]int, len(hal.Outputs))
	s.levels = make([]int, len(hal.Outputs))
	for n, line := range hal.Outputs {
		offsets[n] = s.Offsets[line]
	}
	s.levels[hal.LineSync.OutputIndex()] = 1
	s.levels[hal.LineCTS.OutputIndex()] = 1
	if s.outputs, err = s.chip.RequestLines(offsets, gpiod.AsOutput(s.levels...)); err != nil {
		return fmt.Errorf("request outputs: %v", err)
	}
	glog.Infof("GPIO %s configured: %v", s.Chip, s.Offsets)
	return nil
}

// Close releases all requested lines.
func (s *Surface) Close() error {
	var errs fx.AggregatedError
	if s.outputs != nil {
		errs.AddFrom("outputs", s.outputs.Close())
		s.outputs = nil
	}
	if s.txReq != nil {
		errs.AddFrom(hal.LineTxReq.String(), s.txReq.Close())
		s.txReq = nil
	}
	if s.dtr != nil {
		errs.AddFrom(hal.LineDTR.String(), s.dtr.Close())
		s.dtr = nil
	}
	if s.chip != nil {
		errs.AddFrom(s.Chip, s.chip.Close())
		s.chip = nil
	}
	return errs.Aggregate()
}

// Err returns the first I/O error seen since Configure.
func (s *Surface) Err() error {
	return s.err
}

// ReadInput implements hal.Surface.
func (s *Surface) ReadInput(line hal.Line) hal.Level {
	var l *gpiod.Line
	switch line {
	case hal.LineDTR:
		l = s.dtr
	case hal.LineTxReq:
		l = s.txReq
	default:
		panic("gpio: read of non-input line " + line.String())
	}
	if l == nil {
		s.fail(ErrNotConfigured)
		return hal.High
	}
	v, err := l.Value()
	if err != nil {
		s.fail(err)
		return hal.High
	}
	return hal.LevelFromInt(v)
}

// SetOutput implements hal.Surface.
func (s *Surface) SetOutput(level hal.Level, lines ...hal.Line) {
	for _, line := range lines {
		s.levels[line.OutputIndex()] = level.Int()
	}
	s.write()
}

// ToggleOutput implements hal.Surface.
func (s *Surface) ToggleOutput(lines ...hal.Line) {
	for _, line := range lines {
		idx := line.OutputIndex()
		s.levels[idx] ^= 1
	}
	s.write()
}

// ReadPulseCounter implements hal.Surface.
func (s *Surface) ReadPulseCounter() uint8 {
	if s.pulses == nil {
		return 0
	}
	return uint8(s.pulses.Value())
}

// ResetPulseCounter implements hal.Surface.
func (s *Surface) ResetPulseCounter() {
	if s.pulses != nil {
		s.pulses.Reset()
	}
}

// Delay implements hal.Surface. It busy-waits: the scheduler wake-up
// latency of a sleep is larger than the half pulse width.
func (s *Surface) Delay(d hal.Units) {
	dur := time.Duration(d) * s.Unit
	for start := time.Now(); time.Since(start) < dur; {
	}
}

func (s *Surface) write() {
	if s.outputs == nil {
		s.fail(ErrNotConfigured)
		return
	}
	if err := s.outputs.SetValues(s.levels); err != nil {
		s.fail(err)
	}
}

func (s *Surface) handleTxReq(ev gpiod.LineEvent) {
	if ev.Type == gpiod.LineEventFallingEdge {
		s.pulses.Inc()
	}
}

func (s *Surface) fail(err error) {
	s.errOnce.Do(func() {
		s.err = err
		glog.Errorf("GPIO %s: %v", s.Chip, err)
	})
}
