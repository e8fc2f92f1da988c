// Package hub maintains the set of connected websocket clients, their join
// metadata, and envelope broadcast fan-out.
package hub

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/xeot403/chatx/internal/metrics"
)

// PresenceEntry is one online member with join metadata.
type PresenceEntry struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from arbitrary dev origins; CORS applies to
	// the HTTP surface, the upgrade itself is open.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks connected clients and broadcasts frames to all of them.
type Hub struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

// New creates an empty hub.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[uuid.UUID]*Client),
	}
}

// ServeWS upgrades the request and runs the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		id:   uuid.New(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register(client)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	h.logger.Info().Str("client_id", c.id.String()).Msg("client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	if present {
		metrics.WSConnections.Dec()
		close(c.send)
		h.logger.Info().Str("client_id", c.id.String()).Msg("client disconnected")
	}
}

// Broadcast sends a raw frame to every connected client, the sender
// included. Clients whose send buffer is full are dropped rather than
// allowed to stall the rest.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	var stalled []*Client
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.logger.Warn().Str("client_id", c.id.String()).Msg("dropping stalled client")
		h.unregister(c)
		c.conn.Close()
	}
}

// Online returns the members that have completed the join handshake,
// optionally filtered by a case-insensitive substring match on email.
func (h *Hub) Online(q string) []PresenceEntry {
	needle := strings.ToLower(q)

	h.mu.RLock()
	defer h.mu.RUnlock()

	entries := make([]PresenceEntry, 0, len(h.clients))
	for _, c := range h.clients {
		email, name := c.meta()
		if email == "" {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(email), needle) {
			continue
		}
		entries = append(entries, PresenceEntry{Email: email, Name: name})
	}
	return entries
}

// Count reports the number of connected clients, joined or not.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
