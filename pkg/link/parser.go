package link

// Parser parses bytes received.
type Parser struct {
	peerSeq PacketSeq
	state   parseState
	packet  *Packet
	recvLen byte
	resyncs int
}

// SyncState indicates the state of communication.
type SyncState int

const (
	// SyncStateSyncing means the communication is not synchronized.
	SyncStateSyncing SyncState = 0
	// SyncStateReady means the communication is synchronized and ready for packets.
	SyncStateReady SyncState = 0x01
	// SyncStateReceiving means there's on-going communication for syncing or a packet.
	SyncStateReceiving SyncState = 0x02
)

// IsReady indicates if the communication is ready for packets.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving indicates if it's in the middle for syncing or receiving a packet.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	State  SyncState
	Packet *Packet
}

type parseState int

const (
	stateSync    parseState = iota // waiting for sync marker
	stateSyncSeq                   // waiting for seq after sync marker
	stateMsgSeq                    // waiting for message seq
	stateMsgCode                   // waiting for message code
	stateMsgLen                    // waiting for message length
	stateMsgData                   // waiting for message data
)

// State gets the current sync state.
func (p *Parser) State() SyncState {
	switch {
	case p.state == stateSync:
		return SyncStateSyncing
	case p.state == stateSyncSeq:
		return SyncStateSyncing | SyncStateReceiving
	case p.state == stateMsgSeq:
		return SyncStateReady
	default:
		return SyncStateReady | SyncStateReceiving
	}
}

// Resyncs returns how many times the parser lost sync.
func (p *Parser) Resyncs() int {
	return p.resyncs
}

// Reset resets the internal state of parser.
func (p *Parser) Reset() {
	p.packet, p.state = nil, stateSync
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Packet = p.parseByte(b)
	pr.State = p.State()
	return
}

func (p *Parser) parseByte(b byte) *Packet {
	switch p.state {
	case stateSync:
		if b == syncMarker {
			p.state = stateSyncSeq
		}
	case stateSyncSeq:
		if seq := PacketSeq(b); seq.IsValid() {
			p.peerSeq, p.state = seq, stateMsgSeq
			return nil
		}
		p.resync()
	case stateMsgSeq:
		if b == syncMarker {
			p.state = stateSyncSeq
			return nil
		}
		if b != byte(p.peerSeq) {
			p.resync()
			return nil
		}
		p.packet = &Packet{Seq: p.peerSeq}
		p.peerSeq = p.peerSeq.Next()
		p.state = stateMsgCode
	case stateMsgCode:
		p.packet.Code = b & 0x8f
		switch dataLen := (b >> 4) & 7; dataLen {
		case 0:
			return p.packetReady()
		case 7:
			p.state = stateMsgLen
		default:
			p.packet.Data, p.recvLen = make([]byte, dataLen), 0
			p.state = stateMsgData
		}
	case stateMsgLen:
		if b > MaxDataLen {
			p.resync()
			return nil
		}
		if b == 0 {
			return p.packetReady()
		}
		p.packet.Data, p.recvLen = make([]byte, b), 0
		p.state = stateMsgData
	case stateMsgData:
		p.packet.Data[p.recvLen] = b
		p.recvLen++
		if p.recvLen >= byte(len(p.packet.Data)) {
			return p.packetReady()
		}
	}
	return nil
}

func (p *Parser) resync() {
	p.packet, p.state = nil, stateSync
	p.resyncs++
}

func (p *Parser) packetReady() (pkt *Packet) {
	p.state = stateMsgSeq
	pkt, p.packet = p.packet, nil
	return
}
