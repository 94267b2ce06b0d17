package telemetry

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/siobridge/pkg/bridge"
	pb "github.com/robotalks/siobridge/pkg/proto/siobridge/v1"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// TypeID Groups
const (
	GroupSession uint32 = 0x00010000
)

// TypeIDs
const (
	SessionStartedTypeID uint32 = TypeIDKindEvent | GroupSession | 0x0001
	ByteClockedTypeID    uint32 = TypeIDKindEvent | GroupSession | 0x0002
	SessionEndedTypeID   uint32 = TypeIDKindEvent | GroupSession | 0x0003
	PhaseChangedTypeID   uint32 = TypeIDKindEvent | GroupSession | 0x0004
)

// Message is a telemetry message that can be serialized over the wire.
type Message interface {
	NewMessage() Message
	TypeID() uint32
	Serializable() proto.Message
}

// SessionStarted event.
type SessionStarted struct {
	pb.SessionStarted
}

// NewMessage implements Message.
func (m *SessionStarted) NewMessage() Message { return &SessionStarted{} }

// TypeID implements Message.
func (m *SessionStarted) TypeID() uint32 { return SessionStartedTypeID }

// Serializable implements Message.
func (m *SessionStarted) Serializable() proto.Message { return &m.SessionStarted }

// ByteClocked event.
type ByteClocked struct {
	pb.ByteClocked
}

// NewMessage implements Message.
func (m *ByteClocked) NewMessage() Message { return &ByteClocked{} }

// TypeID implements Message.
func (m *ByteClocked) TypeID() uint32 { return ByteClockedTypeID }

// Serializable implements Message.
func (m *ByteClocked) Serializable() proto.Message { return &m.ByteClocked }

// SessionEnded event.
type SessionEnded struct {
	pb.SessionEnded
}

// NewMessage implements Message.
func (m *SessionEnded) NewMessage() Message { return &SessionEnded{} }

// TypeID implements Message.
func (m *SessionEnded) TypeID() uint32 { return SessionEndedTypeID }

// Serializable implements Message.
func (m *SessionEnded) Serializable() proto.Message { return &m.SessionEnded }

// PhaseChanged event.
type PhaseChanged struct {
	pb.PhaseChanged
}

// NewMessage implements Message.
func (m *PhaseChanged) NewMessage() Message { return &PhaseChanged{} }

// TypeID implements Message.
func (m *PhaseChanged) TypeID() uint32 { return PhaseChangedTypeID }

// Serializable implements Message.
func (m *PhaseChanged) Serializable() proto.Message { return &m.PhaseChanged }

// MessageTypes maps type IDs to message prototypes.
var MessageTypes = map[uint32]Message{
	SessionStartedTypeID: (*SessionStarted)(nil),
	ByteClockedTypeID:    (*ByteClocked)(nil),
	SessionEndedTypeID:   (*SessionEnded)(nil),
	PhaseChangedTypeID:   (*PhaseChanged)(nil),
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// ErrEmptyPacket indicates a zero length packet.
var ErrEmptyPacket = errors.New("empty packet")

// Typed wraps a message with type information.
type Typed struct {
	pb.Typed
}

// TypedFrom encodes a message into a Typed.
func TypedFrom(msg Message) (*Typed, error) {
	data, err := proto.Marshal(msg.Serializable())
	if err != nil {
		return nil, err
	}
	return &Typed{Typed: pb.Typed{TypeId: msg.TypeID(), Message: data}}, nil
}

// Decode decodes the wrapped message.
func (p *Typed) Decode() (Message, error) {
	msgType, ok := MessageTypes[p.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: p.TypeId}
	}
	msg := msgType.NewMessage()
	if err := proto.Unmarshal(p.Message, msg.Serializable()); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Typed to bytes.
func (p *Typed) Encode() ([]byte, error) {
	return proto.Marshal(&p.Typed)
}

// IsEvent determines if the message is an event.
func (p *Typed) IsEvent() bool {
	return p.TypeId&TypeIDMaskKind == TypeIDKindEvent
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPacket
	}
	var typed Typed
	if err := proto.Unmarshal(data, &typed.Typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

// DecodePacket decodes a packet into the message and its sequence.
func DecodePacket(data []byte) (Message, uint32, error) {
	typed, err := DecodeTyped(data)
	if err != nil {
		return nil, 0, err
	}
	msg, err := typed.Decode()
	return msg, typed.Sequence, err
}

// FormatMessage prints a message into friendly string for display.
func FormatMessage(msg Message) string {
	return fmt.Sprintf("[%s] %s",
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		msg.Serializable().String())
}

// MessagesFromEvent converts a bridge event into telemetry messages.
func MessagesFromEvent(ev bridge.Event) []Message {
	var res []Message
	session := ev.Stats.Sessions + 1
	switch ev.Action {
	case bridge.ActionSessionStart:
		res = append(res, &SessionStarted{pb.SessionStarted{Session: session, Tick: ev.At}})
	case bridge.ActionByteClock:
		res = append(res, &ByteClocked{pb.ByteClocked{
			Session:    session,
			ByteIndex:  ev.Stats.SessionBytes - 1,
			TotalBytes: ev.Stats.TotalBytes,
			Tick:       ev.At,
		}})
	case bridge.ActionSessionEnd:
		res = append(res, &SessionEnded{pb.SessionEnded{
			Session:    ev.Stats.Sessions,
			Bytes:      ev.Stats.SessionBytes,
			TotalBytes: ev.Stats.TotalBytes,
			Tick:       ev.At,
		}})
	}
	if ev.From != ev.To {
		res = append(res, &PhaseChanged{pb.PhaseChanged{From: uint32(ev.From), To: uint32(ev.To), Tick: ev.At}})
	}
	return res
}
