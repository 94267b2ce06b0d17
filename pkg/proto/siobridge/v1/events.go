// Messages of events.proto, maintained by hand. Keep both in sync.

package v1

import (
	"github.com/golang/protobuf/proto"
)

// Typed wraps an encoded message with its type id.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *Typed) Reset()         { *m = Typed{} }
func (m *Typed) String() string { return proto.CompactTextString(m) }
func (*Typed) ProtoMessage()    {}

// SessionStarted is reported after the Session-Start protocol.
type SessionStarted struct {
	Session uint32 `protobuf:"varint,1,opt,name=session,proto3" json:"session,omitempty"`
	Tick    uint64 `protobuf:"varint,2,opt,name=tick,proto3" json:"tick,omitempty"`
}

func (m *SessionStarted) Reset()         { *m = SessionStarted{} }
func (m *SessionStarted) String() string { return proto.CompactTextString(m) }
func (*SessionStarted) ProtoMessage()    {}

// ByteClocked is reported after each Byte-Clock burst.
type ByteClocked struct {
	Session    uint32 `protobuf:"varint,1,opt,name=session,proto3" json:"session,omitempty"`
	ByteIndex  uint32 `protobuf:"varint,2,opt,name=byte_index,json=byteIndex,proto3" json:"byte_index,omitempty"`
	TotalBytes uint64 `protobuf:"varint,3,opt,name=total_bytes,json=totalBytes,proto3" json:"total_bytes,omitempty"`
	Tick       uint64 `protobuf:"varint,4,opt,name=tick,proto3" json:"tick,omitempty"`
}

func (m *ByteClocked) Reset()         { *m = ByteClocked{} }
func (m *ByteClocked) String() string { return proto.CompactTextString(m) }
func (*ByteClocked) ProtoMessage()    {}

// SessionEnded is reported after the Session-End protocol.
type SessionEnded struct {
	Session    uint32 `protobuf:"varint,1,opt,name=session,proto3" json:"session,omitempty"`
	Bytes      uint32 `protobuf:"varint,2,opt,name=bytes,proto3" json:"bytes,omitempty"`
	TotalBytes uint64 `protobuf:"varint,3,opt,name=total_bytes,json=totalBytes,proto3" json:"total_bytes,omitempty"`
	Tick       uint64 `protobuf:"varint,4,opt,name=tick,proto3" json:"tick,omitempty"`
}

func (m *SessionEnded) Reset()         { *m = SessionEnded{} }
func (m *SessionEnded) String() string { return proto.CompactTextString(m) }
func (*SessionEnded) ProtoMessage()    {}

// PhaseChanged is reported on every phase transition.
type PhaseChanged struct {
	From uint32 `protobuf:"varint,1,opt,name=from,proto3" json:"from,omitempty"`
	To   uint32 `protobuf:"varint,2,opt,name=to,proto3" json:"to,omitempty"`
	Tick uint64 `protobuf:"varint,3,opt,name=tick,proto3" json:"tick,omitempty"`
}

func (m *PhaseChanged) Reset()         { *m = PhaseChanged{} }
func (m *PhaseChanged) String() string { return proto.CompactTextString(m) }
func (*PhaseChanged) ProtoMessage()    {}

func init() {
	proto.RegisterType((*Typed)(nil), "siobridge.v1.Typed")
	proto.RegisterType((*SessionStarted)(nil), "siobridge.v1.SessionStarted")
	proto.RegisterType((*ByteClocked)(nil), "siobridge.v1.ByteClocked")
	proto.RegisterType((*SessionEnded)(nil), "siobridge.v1.SessionEnded")
	proto.RegisterType((*PhaseChanged)(nil), "siobridge.v1.PhaseChanged")
}
