package devserver

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds a single write so a stalled client cannot block a
// broadcast.
var writeWait = 10 * time.Second

// Connection is a connected dev client.
type Connection struct {
	Conn *websocket.Conn
	mu   sync.Mutex // protects writes to Conn
}

// Send writes a message to the client.
// Thread-safe: multiple goroutines can call Send concurrently.
func (c *Connection) Send(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// Hub tracks connected clients.
type Hub struct {
	conns map[*Connection]struct{}
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*Connection]struct{})}
}

// Register adds a websocket connection and returns its handle.
func (h *Hub) Register(conn *websocket.Conn) *Connection {
	c := &Connection{Conn: conn}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
	return c
}

// Unregister removes a connection. Unknown connections are ignored.
func (h *Hub) Unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// GetAll returns a copy of the active connections.
func (h *Hub) GetAll() []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		result = append(result, c)
	}
	return result
}

// Count returns the number of active connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends data to every client and returns the connections that
// failed.
func (h *Hub) Broadcast(data []byte) []*Connection {
	var failed []*Connection
	for _, c := range h.GetAll() {
		if err := c.Send(websocket.TextMessage, data); err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}
