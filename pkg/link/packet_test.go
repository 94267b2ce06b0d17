package link

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketSeq(t *testing.T) {
	for s := byte(0xff); s >= byte(0xf0); s-- {
		require.False(t, PacketSeq(s).IsValid())
		require.Equal(t, PacketSeq(1), PacketSeq(s).Next())
	}
	for s := byte(1); s < byte(0xf0); s++ {
		require.True(t, PacketSeq(s).IsValid())
		if s+1 < 0xf0 {
			require.Equal(t, PacketSeq(s+1), PacketSeq(s).Next())
		} else {
			require.Equal(t, PacketSeq(1), PacketSeq(s).Next())
		}
	}
	require.False(t, PacketSeq(0).IsValid())
}

func TestPacket(t *testing.T) {
	testCases := []struct {
		name   string
		packet Packet
		expect []byte
	}{
		{"no data", Packet{Seq: 1, Code: CodeEvent}, []byte{1, 0x81}},
		{"small data", Packet{Seq: 1, Code: CodeEvent, Data: []byte{0xff}}, []byte{1, 0x91, 0xff}},
		{"six bytes", Packet{Seq: 2, Code: CodeEvent, Data: []byte{1, 2, 3, 4, 5, 6}}, []byte{2, 0xe1, 1, 2, 3, 4, 5, 6}},
		{"large data", Packet{Seq: 1, Code: CodeEvent, Data: []byte{1, 2, 3, 4, 5, 6, 7}}, []byte{1, 0xf1, 7, 1, 2, 3, 4, 5, 6, 7}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.packet.Bytes())
			var buf bytes.Buffer
			n, err := tc.packet.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, int64(len(tc.expect)), n)
		})
	}
}

func TestPacketTooLong(t *testing.T) {
	p := &Packet{Seq: 1, Code: CodeEvent, Data: make([]byte, MaxDataLen+1)}
	var buf bytes.Buffer
	_, err := p.WriteTo(&buf)
	require.Equal(t, ErrDataTooLong(MaxDataLen+1), err)
	require.Zero(t, buf.Len())
}
