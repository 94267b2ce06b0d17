// Package link carries telemetry packets over a one-way serial line.
//
// Each telemetry packet travels in a frame:
//
//	seq code|len<<4 [len] data...
//
// where the length is folded into the code byte when it is below 7.
// A sync marker (0xff, seq) announces the sequence number of the next
// frame and lets a receiver joining mid-stream lock on.
package link

import (
	"fmt"
	"io"
)

// PacketSeq defines the type of packet sequence number.
type PacketSeq byte

// Next calculates the next sequence number.
func (s PacketSeq) Next() PacketSeq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return PacketSeq(n)
}

// IsValid checks if it's a valid sequence number.
func (s PacketSeq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

const (
	// CodeEvent marks a frame carrying a telemetry event.
	CodeEvent byte = 0x81
	// MaxDataLen is the largest payload a frame can carry.
	MaxDataLen = 0x7f

	syncMarker byte = 0xff
)

// Packet contains the information of a parsed packet.
type Packet struct {
	Seq  PacketSeq
	Code byte
	Data []byte
}

// ErrDataTooLong is returned when the payload doesn't fit a frame.
type ErrDataTooLong int

func (e ErrDataTooLong) Error() string {
	return fmt.Sprintf("frame data too long: %d > %d", int(e), MaxDataLen)
}

// Validate checks the payload fits a frame.
func (p *Packet) Validate() error {
	if len(p.Data) > MaxDataLen {
		return ErrDataTooLong(len(p.Data))
	}
	return nil
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() []byte {
	l := byte(len(p.Data))
	b := []byte{byte(p.Seq), p.Code & 0x8f}
	if l >= 7 {
		b[1] |= 0x70
		b = append(b, l)
	} else {
		b[1] |= (l << 4) & 0x70
	}
	return append(b, p.Data...)
}

// WriteTo writes encoded bytes in a single write.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// SyncBytes returns the sync marker announcing seq.
func SyncBytes(seq PacketSeq) []byte {
	return []byte{syncMarker, byte(seq)}
}
