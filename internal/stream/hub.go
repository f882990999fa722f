package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/isoft/internal/logging"
	"github.com/muurk/isoft/internal/poller"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size accepted from a client
	maxMessageSize = 512

	// Snapshots buffered per client before it is dropped
	sendBufferSize = 16
)

// Hub tracks connected feed clients and broadcasts snapshots to them.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	addr string
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Read-only feed on the local network; any origin may watch.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client. A new client
// immediately receives the most recent snapshot, if there is one.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response
		logging.Debug("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		addr: r.RemoteAddr,
	}

	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}

	logging.Info("Feed client connected",
		zap.String("remote_addr", c.addr),
		zap.Int("clients", len(h.clients)),
	)
	return true
}

// unregister removes c and closes its send channel. Only the caller that
// actually removes the client closes the channel.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	remaining := len(h.clients)
	h.mu.Unlock()

	if existed {
		close(c.send)
		logging.Info("Feed client disconnected",
			zap.String("remote_addr", c.addr),
			zap.Int("clients", remaining),
		)
	}
}

// Broadcast sends data to every client. Clients with a full buffer are
// dropped.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.last = data

	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		logging.Warn("Dropping slow feed client", zap.String("remote_addr", c.addr))
		h.unregister(c)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Name identifies the hub as a poller sink
func (h *Hub) Name() string {
	return "stream"
}

// Consume implements poller.Sink
func (h *Hub) Consume(_ context.Context, snap poller.Snapshot) error {
	data, err := json.Marshal(snap.Doc())
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

// readPump discards client messages; it exists to process control frames
// and notice disconnects.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("Feed client read error",
					zap.String("remote_addr", c.addr),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// writePump is the connection's only writer.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
