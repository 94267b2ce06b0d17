package link

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/term"
)

// DefaultBaud is the default serial line speed.
const DefaultBaud = 115200

// DefaultResyncInterval is the number of frames between sync markers.
const DefaultResyncInterval = 16

// OpenPort opens a serial device in raw mode.
func OpenPort(dev string, baud int) (io.ReadWriteCloser, error) {
	t, err := term.Open(dev, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", dev, err)
	}
	return t, nil
}

// Writer implements telemetry.PacketWriter, framing each packet as an event.
type Writer struct {
	ResyncInterval int

	w        io.Writer
	lock     sync.Mutex
	seq      PacketSeq
	unsynced int
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{ResyncInterval: DefaultResyncInterval, w: w, seq: PacketSeq(1)}
}

// WritePacket implements PacketWriter.
func (w *Writer) WritePacket(pkt []byte) error {
	frame := &Packet{Code: CodeEvent, Data: pkt}
	if err := frame.Validate(); err != nil {
		return err
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	frame.Seq = w.seq
	var b []byte
	if w.unsynced == 0 {
		b = SyncBytes(w.seq)
	}
	b = append(b, frame.Bytes()...)
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	w.seq = w.seq.Next()
	w.unsynced++
	if w.ResyncInterval > 0 && w.unsynced >= w.ResyncInterval {
		w.unsynced = 0
	}
	return nil
}

// Name implements framework.Named.
func (w *Writer) Name() string {
	return "serial"
}

// Close closes the underlying writer if it's a Closer.
func (w *Writer) Close() error {
	if closer, ok := w.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Reader implements telemetry.PacketReader, returning event payloads.
type Reader struct {
	Parser Parser

	r io.Reader
	b *bufio.Reader
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, b: bufio.NewReader(r)}
}

// ReadPacket implements PacketReader.
func (r *Reader) ReadPacket() ([]byte, error) {
	for {
		b, err := r.b.ReadByte()
		if err != nil {
			return nil, err
		}
		resyncs := r.Parser.Resyncs()
		pr := r.Parser.Parse(b)
		if n := r.Parser.Resyncs(); n != resyncs {
			glog.V(2).Infof("link: lost sync (%d)", n)
		}
		if pr.Packet == nil {
			continue
		}
		if pr.Packet.Code != CodeEvent {
			glog.V(3).Infof("link: skip frame code %02x", pr.Packet.Code)
			continue
		}
		if pr.Packet.Data == nil {
			return []byte{}, nil
		}
		return pr.Packet.Data, nil
	}
}

// Close closes the underlying reader if it's a Closer.
func (r *Reader) Close() error {
	if closer, ok := r.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
