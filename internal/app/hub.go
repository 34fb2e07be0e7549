package app

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"TempDash/internal/model"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Message is what websocket clients receive for every ingest event.
type Message struct {
	Kind    model.EventKind `json:"kind"`
	Reading *model.Reading  `json:"reading,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NewMessage converts an ingest event to its wire form.
func NewMessage(ev model.Event) Message {
	msg := Message{Kind: ev.Kind}
	switch ev.Kind {
	case model.EventReading:
		r := ev.Reading
		msg.Reading = &r
	case model.EventDisconnected:
		if ev.Err != nil {
			msg.Error = ev.Err.Error()
		}
	}
	return msg
}

// sendQueue is how many messages a client may fall behind before it is dropped.
const sendQueue = 16

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Hub tracks websocket clients and fans events out to them. Each client has its
// own queue and writer goroutine, so Broadcast never waits on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: map[*client]bool{}}
}

// ServeWS upgrades HTTP to websocket and registers the client for broadcasts.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan Message, sendQueue)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("[ws] client connected from %s (%d total)", r.RemoteAddr, n)

	go h.writePump(c)
	go func() {
		defer h.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writePump drains the client's queue until it is closed by remove or Close.
func (h *Hub) writePump(c *client) {
	defer func() {
		if err := c.conn.Close(); err != nil {
			log.Printf("[ws] warning: failed to close websocket: %v", err)
		}
	}()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
}

// remove unregisters c and closes its queue; the writer then closes the connection.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues ev for every client. A client whose queue is full is dropped.
func (h *Hub) Broadcast(ev model.Event) {
	if h == nil {
		return
	}
	msg := NewMessage(ev)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("[ws] dropping slow client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Close disconnects all clients and refuses new ones.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
