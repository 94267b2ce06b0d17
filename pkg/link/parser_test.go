package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parseAll(p *Parser, in ...byte) (pkts []*Packet, state SyncState) {
	for _, b := range in {
		pr := p.Parse(b)
		if pr.Packet != nil {
			pkts = append(pkts, pr.Packet)
		}
		state = pr.State
	}
	return
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name    string
		in      []byte
		expect  []*Packet
		state   SyncState
		resyncs int
	}{
		{
			name:  "no sync",
			in:    []byte{1, 0x81, 2, 0x91, 3},
			state: SyncStateSyncing,
		},
		{
			name:  "sync marker",
			in:    []byte{0xff, 5},
			state: SyncStateReady,
		},
		{
			name:   "packets",
			in:     []byte{0xff, 5, 5, 0x81, 6, 0x91, 0xff},
			expect: []*Packet{{Seq: 5, Code: CodeEvent}, {Seq: 6, Code: CodeEvent, Data: []byte{0xff}}},
			state:  SyncStateReady,
		},
		{
			name:   "long packet",
			in:     []byte{0xff, 1, 1, 0xf1, 7, 1, 2, 3, 4, 5, 6, 7},
			expect: []*Packet{{Seq: 1, Code: CodeEvent, Data: []byte{1, 2, 3, 4, 5, 6, 7}}},
			state:  SyncStateReady,
		},
		{
			name:   "zero length",
			in:     []byte{0xff, 1, 1, 0xf1, 0},
			expect: []*Packet{{Seq: 1, Code: CodeEvent}},
			state:  SyncStateReady,
		},
		{
			name:   "partial",
			in:     []byte{0xff, 1, 1, 0xf1, 7, 1, 2},
			state:  SyncStateReady | SyncStateReceiving,
		},
		{
			name:    "seq mismatch",
			in:      []byte{0xff, 1, 2, 0x81},
			state:   SyncStateSyncing,
			resyncs: 1,
		},
		{
			name:    "invalid sync seq",
			in:      []byte{0xff, 0xf5},
			state:   SyncStateSyncing,
			resyncs: 1,
		},
		{
			name:    "bad length",
			in:      []byte{0xff, 1, 1, 0xf1, 0x80},
			state:   SyncStateSyncing,
			resyncs: 1,
		},
		{
			name:   "resync mid stream",
			in:     []byte{0xff, 1, 1, 0x81, 0xff, 9, 9, 0x81},
			expect: []*Packet{{Seq: 1, Code: CodeEvent}, {Seq: 9, Code: CodeEvent}},
			state:  SyncStateReady,
		},
		{
			name:    "recover after loss",
			in:      []byte{0xff, 1, 3, 0x81, 0xff, 4, 4, 0x81},
			expect:  []*Packet{{Seq: 4, Code: CodeEvent}},
			state:   SyncStateReady,
			resyncs: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			pkts, state := parseAll(&p, tc.in...)
			require.Equal(t, tc.expect, pkts)
			require.Equal(t, tc.state, state)
			require.Equal(t, tc.resyncs, p.Resyncs())
		})
	}
}

func TestSyncState(t *testing.T) {
	require.False(t, SyncStateSyncing.IsReady())
	require.True(t, SyncStateReady.IsReady())
	require.False(t, SyncStateReady.IsReceiving())
	require.True(t, (SyncStateReady | SyncStateReceiving).IsReceiving())
}
