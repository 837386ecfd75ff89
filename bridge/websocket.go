package bridge

import (
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// DefaultWriteTimeout is the WriteTimeout of a new WebsocketHub.
const DefaultWriteTimeout = time.Second

// CommandFunc forwards one host command byte to the target.
type CommandFunc func(cmd byte) error

// WebsocketHub is a Sink that broadcasts trace chunks as binary messages to
// every connected client. Messages received from clients are taken as host
// commands, one per byte.
type WebsocketHub struct {
	OnCommand CommandFunc
	// WriteTimeout bounds each send to one client. A client that cannot
	// take a chunk in time is disconnected.
	WriteTimeout time.Duration

	lock    sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

// NewWebsocketHub creates a hub forwarding client commands to onCommand.
func NewWebsocketHub(onCommand CommandFunc) *WebsocketHub {
	return &WebsocketHub{
		OnCommand:    onCommand,
		WriteTimeout: DefaultWriteTimeout,
		clients:      make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP handler that accepts websocket clients.
func (h *WebsocketHub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

// Clients returns the number of connected clients.
func (h *WebsocketHub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

func (h *WebsocketHub) serve(conn *websocket.Conn) {
	if !h.add(conn) {
		conn.Close()
		return
	}
	defer h.remove(conn)
	glog.V(1).Infof("websocket client %s connected", conn.Request().RemoteAddr)
	for {
		var pkt []byte
		if err := websocket.Message.Receive(conn, &pkt); err != nil {
			glog.V(1).Infof("websocket client %s: %v", conn.Request().RemoteAddr, err)
			return
		}
		forwardCommands(h.OnCommand, pkt)
	}
}

func (h *WebsocketHub) add(conn *websocket.Conn) bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.closed {
		return false
	}
	h.clients[conn] = struct{}{}
	return true
}

func (h *WebsocketHub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	delete(h.clients, conn)
	h.lock.Unlock()
	conn.Close()
}

// WriteTrace implements Sink. Clients that fail to receive are disconnected;
// the hub itself only fails once closed.
func (h *WebsocketHub) WriteTrace(p []byte) error {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.closed {
		return ErrClosed
	}
	for conn := range h.clients {
		if h.WriteTimeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout))
		}
		if err := websocket.Message.Send(conn, p); err != nil {
			glog.Warningf("websocket send: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
	return nil
}

// Close implements Sink and disconnects all clients.
func (h *WebsocketHub) Close() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.closed = true
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	return nil
}

func forwardCommands(fn CommandFunc, pkt []byte) {
	if fn == nil {
		return
	}
	for _, cmd := range pkt {
		if err := fn(cmd); err != nil {
			glog.Errorf("forward command %d: %v", cmd, err)
			return
		}
	}
}
