// Package stream stores telemetry packets in a byte stream.
package stream

import (
	"encoding/binary"
	"io"
	"os"
)

// MaxPacketSize rejects corrupted length prefixes.
const MaxPacketSize = 1 << 16

// ReadWriter implements telemetry.PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) length.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// Create creates or truncates a file and wraps it.
func Create(path string) (*ReadWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return New(f), nil
}

// Open opens a file for reading packets.
func Open(path string) (*ReadWriter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return New(f), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, io.ErrUnexpectedEOF
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := p.Write(buf)
	return err
}

// Name implements framework.Named.
func (p *ReadWriter) Name() string {
	return "stream"
}

// Close closes the underlying stream if it's a Closer.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
