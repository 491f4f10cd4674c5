package server

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// clientBuffer is the per-client outbound queue depth. A client that falls
// this far behind is dropped rather than blocking the broadcaster.
const clientBuffer = 16

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	// closed marks send as closed. Guarded by the hub mutex; a channel may
	// only be closed while no broadcaster can be mid-send on it.
	closed bool
}

// Hub fans broadcast messages out to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// add registers a connection and starts its write pump.
func (h *Hub) add(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go func() {
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[!] server: write to %s: %v", c.id, err)
				h.remove(c)
				return
			}
		}
	}()
	return c
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
	h.closeClient(c)
}

// closeClient closes one client's queue and connection exactly once.
// Callers hold the hub mutex, which also excludes any in-flight Broadcast
// send on the queue.
func (h *Hub) closeClient(c *client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.conn.Close()
}

// Broadcast marshals v and queues it for every client. Clients whose queue
// is full are dropped. Queueing happens under the hub mutex so a concurrent
// remove cannot close a channel mid-send; the sends themselves never block.
func (h *Hub) Broadcast(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Printf("[!] server: broadcast marshal: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("[!] server: client %s too slow, dropping", c.id)
			delete(h.clients, c.id)
			h.closeClient(c)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.closeClient(c)
	}
	h.clients = make(map[string]*client)
}
