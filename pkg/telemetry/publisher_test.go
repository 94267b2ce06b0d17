package telemetry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/siobridge/pkg/bridge"
	fx "github.com/robotalks/siobridge/pkg/framework"
	"github.com/robotalks/siobridge/pkg/hal"
	"github.com/robotalks/siobridge/pkg/hal/sim"
	pb "github.com/robotalks/siobridge/pkg/proto/siobridge/v1"
)

type chanSink struct {
	ch     chan []byte
	err    error
	closed bool
	lock   sync.Mutex
}

func (s *chanSink) WritePacket(pkt []byte) error {
	if s.err != nil {
		return s.err
	}
	s.ch <- pkt
	return nil
}

func (s *chanSink) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	return nil
}

func (s *chanSink) isClosed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}

func TestTypedRoundTrip(t *testing.T) {
	msg := &ByteClocked{pb.ByteClocked{Session: 2, ByteIndex: 5, TotalBytes: 40, Tick: 99}}
	typed, err := TypedFrom(msg)
	require.NoError(t, err)
	require.True(t, typed.IsEvent())
	typed.Sequence = 7
	data, err := typed.Encode()
	require.NoError(t, err)

	decoded, seq, err := DecodePacket(data)
	require.NoError(t, err)
	require.Equal(t, uint32(7), seq)
	require.Equal(t, msg, decoded)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeTyped(nil)
	require.Equal(t, ErrEmptyPacket, err)

	typed := &Typed{Typed: pb.Typed{TypeId: 0x1234}}
	data, err := typed.Encode()
	require.NoError(t, err)
	_, _, err = DecodePacket(data)
	require.EqualError(t, err, "unknown type: 1234")
}

func TestMessagesFromEvent(t *testing.T) {
	testCases := []struct {
		name   string
		event  bridge.Event
		expect []Message
	}{
		{
			name:  "session start",
			event: bridge.Event{Action: bridge.ActionSessionStart, From: bridge.Idle, To: bridge.Active, At: 3},
			expect: []Message{
				&SessionStarted{pb.SessionStarted{Session: 1, Tick: 3}},
				&PhaseChanged{pb.PhaseChanged{From: 0, To: 1, Tick: 3}},
			},
		},
		{
			name: "byte",
			event: bridge.Event{Action: bridge.ActionByteClock, From: bridge.Active, To: bridge.Active, At: 4,
				Stats: bridge.Stats{Sessions: 1, SessionBytes: 1, TotalBytes: 9}},
			expect: []Message{
				&ByteClocked{pb.ByteClocked{Session: 2, ByteIndex: 0, TotalBytes: 9, Tick: 4}},
			},
		},
		{
			name:   "draining",
			event:  bridge.Event{From: bridge.Active, To: bridge.Draining, At: 5},
			expect: []Message{&PhaseChanged{pb.PhaseChanged{From: 1, To: 2, Tick: 5}}},
		},
		{
			name: "session end",
			event: bridge.Event{Action: bridge.ActionSessionEnd, From: bridge.Draining, To: bridge.Idle, At: 5,
				Stats: bridge.Stats{Sessions: 2, SessionBytes: 1, TotalBytes: 9}},
			expect: []Message{
				&SessionEnded{pb.SessionEnded{Session: 2, Bytes: 1, TotalBytes: 9, Tick: 5}},
				&PhaseChanged{pb.PhaseChanged{From: 2, To: 0, Tick: 5}},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, MessagesFromEvent(tc.event))
		})
	}
}

func TestPublisherNeverBlocks(t *testing.T) {
	p := NewPublisher(2)
	for i := 0; i < 5; i++ {
		p.Publish(&PhaseChanged{})
	}
	require.Equal(t, int64(3), p.Dropped())
}

func TestPublisherSession(t *testing.T) {
	s := sim.New()
	b, err := bridge.NewConfig().NewBridge(s)
	require.NoError(t, err)

	sink := &chanSink{ch: make(chan []byte, 16)}
	p := NewPublisher(16).AddSinks(sink)
	b.Machine.Observer = p

	s.SetInput(hal.LineDTR, hal.Low)
	s.Pulse(1)
	b.Settle(0)
	s.SetInput(hal.LineDTR, hal.High)
	b.Settle(0)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	expected := []uint32{
		SessionStartedTypeID,
		PhaseChangedTypeID,
		ByteClockedTypeID,
		PhaseChangedTypeID,
		SessionEndedTypeID,
		PhaseChangedTypeID,
	}
	for n, typeID := range expected {
		select {
		case pkt := <-sink.ch:
			msg, seq, err := DecodePacket(pkt)
			require.NoError(t, err)
			require.Equal(t, typeID, msg.TypeID())
			require.Equal(t, uint32(n+1), seq)
		case <-time.After(time.Second):
			t.Fatalf("packet %d timeout", n)
		}
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.True(t, sink.isClosed())
	require.Equal(t, int64(len(expected)), p.Sent())
	require.Zero(t, p.Dropped())
}

func TestPublisherSinkError(t *testing.T) {
	good := &chanSink{ch: make(chan []byte, 1)}
	bad := &chanSink{err: errors.New("offline")}
	p := NewPublisher(1).AddSinks(bad, good)
	err := p.write([]byte{1})
	require.EqualError(t, err, "sink-0: offline")
	require.Equal(t, []byte{1}, <-good.ch)
}

type namedSink struct {
	chanSink
	name string
}

func (s *namedSink) Name() string {
	return s.name
}

func TestPublisherSinkErrorSources(t *testing.T) {
	mqtt := &namedSink{chanSink: chanSink{err: errors.New("timeout")}, name: "mqtt"}
	serial := &namedSink{chanSink: chanSink{err: errors.New("EIO")}, name: "serial"}
	p := NewPublisher(1).AddSinks(mqtt, &chanSink{ch: make(chan []byte, 1)}, serial)
	err := p.write([]byte{1})
	require.Error(t, err)
	agg, ok := err.(*fx.AggregatedError)
	require.True(t, ok)
	require.Equal(t, []string{"mqtt", "serial"}, agg.Sources())
	require.Equal(t, "2 errors:\n  mqtt: timeout\n  serial: EIO", err.Error())

	require.NoError(t, p.CloseSinks())
	require.True(t, mqtt.isClosed())
	require.True(t, serial.isClosed())
}

func TestFormatMessage(t *testing.T) {
	out := FormatMessage(&SessionStarted{pb.SessionStarted{Session: 3, Tick: 12}})
	require.True(t, strings.HasPrefix(out, "[SessionStarted] "), out)
	require.Contains(t, out, "session:3")
	require.Contains(t, out, "tick:12")
}
