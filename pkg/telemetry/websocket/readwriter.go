// Package websocket streams telemetry packets over websocket.
package websocket

import "golang.org/x/net/websocket"

// EventsPath is the HTTP path serving the event stream.
const EventsPath = "/events"

// ReadWriter implements telemetry.PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to the event stream of a bridge, addr is host:port.
func Dial(addr string) (*ReadWriter, error) {
	conn, err := websocket.Dial("ws://"+addr+EventsPath, "", "http://"+addr+"/")
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close closes the connection.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}
