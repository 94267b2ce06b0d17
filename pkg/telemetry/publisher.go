// Package telemetry reports bridge activity to monitoring sinks.
//
// The polling loop must never wait on telemetry: events are encoded and
// queued with a non-blocking send, and the queue is drained into the sinks
// by Publisher.Run on its own goroutine.
package telemetry

import (
	"context"
	"io"
	"strconv"

	"github.com/golang/glog"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/robotalks/siobridge/pkg/bridge"
	fx "github.com/robotalks/siobridge/pkg/framework"
)

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// DefaultQueueSize is the default number of queued packets.
const DefaultQueueSize = 256

// Publisher implements bridge.Observer and fans out encoded events.
type Publisher struct {
	Sinks []PacketWriter

	queue   chan []byte
	seq     uint32
	dropped *xsync.Counter
	sent    *xsync.Counter
}

// NewPublisher creates a Publisher with a queue of size packets.
func NewPublisher(size int) *Publisher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Publisher{
		queue:   make(chan []byte, size),
		dropped: xsync.NewCounter(),
		sent:    xsync.NewCounter(),
	}
}

// AddSinks adds more sinks. Must be called before Run.
func (p *Publisher) AddSinks(sinks ...PacketWriter) *Publisher {
	p.Sinks = append(p.Sinks, sinks...)
	return p
}

// Name implements framework.Named.
func (p *Publisher) Name() string {
	return "telemetry"
}

// Observe implements bridge.Observer.
func (p *Publisher) Observe(ev bridge.Event) {
	for _, msg := range MessagesFromEvent(ev) {
		p.Publish(msg)
	}
}

// Publish encodes and queues a message, it never blocks.
func (p *Publisher) Publish(msg Message) bool {
	typed, err := TypedFrom(msg)
	if err != nil {
		glog.Errorf("encode %T: %v", msg, err)
		return false
	}
	p.seq++
	typed.Sequence = p.seq
	pkt, err := typed.Encode()
	if err != nil {
		glog.Errorf("encode typed %x: %v", typed.TypeId, err)
		return false
	}
	select {
	case p.queue <- pkt:
		return true
	default:
		p.dropped.Inc()
		return false
	}
}

// Dropped returns the number of packets dropped because the queue was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Value()
}

// Sent returns the number of packets written to all sinks.
func (p *Publisher) Sent() int64 {
	return p.sent.Value()
}

// Run implements framework.Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	defer func() {
		if err := p.CloseSinks(); err != nil {
			glog.Warningf("telemetry: close sinks: %v", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt := <-p.queue:
			if err := p.write(pkt); err != nil {
				glog.Warningf("telemetry: %v", err)
				continue
			}
			p.sent.Inc()
		}
	}
}

func (p *Publisher) write(pkt []byte) error {
	var errs fx.AggregatedError
	for n, sink := range p.Sinks {
		errs.AddFrom(SinkName(sink, n), sink.WritePacket(pkt))
	}
	return errs.Aggregate()
}

// CloseSinks closes the sinks which are io.Closer.
func (p *Publisher) CloseSinks() error {
	var errs fx.AggregatedError
	for n, sink := range p.Sinks {
		if closer, ok := sink.(io.Closer); ok {
			errs.AddFrom(SinkName(sink, n), closer.Close())
		}
	}
	return errs.Aggregate()
}

// SinkName names a sink for diagnostics, sink-N if it's not Named.
func SinkName(sink PacketWriter, index int) string {
	return fx.NameOf(sink, "sink-"+strconv.Itoa(index))
}
