package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xeot403/chatx/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// frame is the subset of an envelope the hub inspects. Everything else in
// the payload passes through untouched.
type frame struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Client is one websocket connection tracked by the hub.
type Client struct {
	id   uuid.UUID
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	metaMu sync.Mutex
	email  string
	name   string
}

func (c *Client) meta() (email, name string) {
	c.metaMu.Lock()
	defer c.metaMu.Unlock()
	return c.email, c.name
}

func (c *Client) setMeta(email, name string) {
	c.metaMu.Lock()
	c.email = email
	c.name = name
	c.metaMu.Unlock()
}

// readPump relays inbound frames. A join frame records the sender's
// identity and is not rebroadcast; every other frame — search broadcasts,
// chat messages, even payloads the hub cannot parse — is fanned out raw to
// all clients, sender included, which is what makes round-trip display work.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn().Err(err).Str("client_id", c.id.String()).Msg("read error")
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err == nil && f.Type == "join" {
			c.setMeta(f.Email, f.Name)
			metrics.EnvelopesBroadcast.WithLabelValues("join").Inc()
			continue
		}

		label := f.Type
		if label == "" {
			label = "raw"
		}
		metrics.EnvelopesBroadcast.WithLabelValues(label).Inc()
		c.hub.Broadcast(data)
	}
}

// writePump drains the send channel to the peer and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
