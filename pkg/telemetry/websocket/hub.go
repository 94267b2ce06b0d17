package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/siobridge/pkg/framework"
)

// Hub broadcasts packets to every connected websocket client.
// Slow clients lose packets rather than stall the publisher.
type Hub struct {
	Addr string

	lock    sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn  *ReadWriter
	queue chan []byte
}

// clientQueueSize is the number of packets buffered per client.
const clientQueueSize = 64

// NewHub creates a Hub listening on addr once Run.
func NewHub(addr string) *Hub {
	return &Hub{Addr: addr, clients: make(map[*client]struct{})}
}

// Handler returns the http.Handler serving EventsPath.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(EventsPath, websocket.Handler(h.serve))
	return mux
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// WritePacket implements telemetry.PacketWriter.
func (h *Hub) WritePacket(pkt []byte) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		select {
		case c.queue <- pkt:
		default:
			glog.V(3).Infof("websocket %s: packet dropped", c.remote())
		}
	}
	return nil
}

// Name implements framework.Named.
func (h *Hub) Name() string {
	return "websocket"
}

// Run implements framework.Runnable.
func (h *Hub) Run(ctx context.Context) error {
	server := &http.Server{Addr: h.Addr, Handler: h.Handler()}
	glog.Infof("websocket listening on %s", h.Addr)
	return fx.RunWithContextCancel(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		h.closeAll()
	}, server.ListenAndServe)
}

func (h *Hub) serve(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	c := &client{conn: New(conn), queue: make(chan []byte, clientQueueSize)}
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	glog.V(2).Infof("websocket %s connected", c.remote())

	defer func() {
		h.lock.Lock()
		delete(h.clients, c)
		h.lock.Unlock()
		conn.Close()
		glog.V(2).Infof("websocket %s disconnected", c.remote())
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		// Drain and discard anything from the client; detects disconnect.
		for {
			if _, err := c.conn.ReadPacket(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case pkt, ok := <-c.queue:
			if !ok {
				return
			}
			if err := c.conn.WritePacket(pkt); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (h *Hub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		close(c.queue)
		delete(h.clients, c)
	}
}

func (c *client) remote() string {
	if addr := (*websocket.Conn)(c.conn).Request().RemoteAddr; addr != "" {
		return addr
	}
	return "?"
}
