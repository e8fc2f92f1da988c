package chatx

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ConnState is the lifecycle state of a Connection.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Time allowed to write a frame to the peer.
const writeWait = 10 * time.Second

var (
	// ErrNoIdentity is returned when connecting without an authenticated email.
	ErrNoIdentity = errors.New("chatx: identity email required")
	// ErrNotOpen is returned by Send when the connection is not open;
	// callers surface it as a delivery failure.
	ErrNotOpen = errors.New("chatx: connection not open")
	// ErrConnectionActive is returned when a session already holds a live connection.
	ErrConnectionActive = errors.New("chatx: connection already active")
)

// Event is an inbound occurrence dispatched from the connection's read loop.
// All events for a connection arrive on a single channel, so consuming them
// from one goroutine preserves wire order.
type Event interface{ isEvent() }

// MessageEvent carries a chat message that round-tripped through the backend.
type MessageEvent struct {
	Entry TranscriptEntry
}

// SearchEvent carries a search broadcast from some member (possibly us).
type SearchEvent struct {
	Query     string
	FromEmail string
}

// DisconnectEvent reports transport-level closure. It is the final event on
// the channel.
type DisconnectEvent struct {
	Err error
}

func (MessageEvent) isEvent()    {}
func (SearchEvent) isEvent()     {}
func (DisconnectEvent) isEvent() {}

// Session owns the local identity and at most one live connection to the
// backend. A session cannot exist without an identity, and a connection
// cannot exist outside a session.
type Session struct {
	Identity Identity
	Client   *Client
	Logger   zerolog.Logger

	mu   sync.Mutex
	conn *Connection
}

// NewSession binds an identity to a client.
func NewSession(client *Client, id Identity, logger zerolog.Logger) *Session {
	return &Session{Identity: id, Client: client, Logger: logger}
}

// Connection returns the session's current connection, or nil.
func (s *Session) Connection() *Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Connect dials the websocket endpoint and performs the join handshake.
// It refuses to run without an identity email and while a previous
// connection is still live. The join envelope is written before the
// connection is observable as open, so no other envelope can precede it.
// onOpen, if non-nil, runs once the handshake completes (the presence
// refresh hook).
func (s *Session) Connect(ctx context.Context, onOpen func()) (*Connection, error) {
	if s.Identity.Email == "" {
		return nil, ErrNoIdentity
	}

	s.mu.Lock()
	if s.conn != nil && s.conn.State() != StateClosed {
		s.mu.Unlock()
		return nil, ErrConnectionActive
	}

	conn := &Connection{
		identity: s.Identity,
		logger:   s.Logger,
		state:    StateConnecting,
		events:   make(chan Event, 256),
	}
	s.conn = conn
	s.mu.Unlock()

	wsURL := WebsocketURL(s.Client.BaseURL)
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		conn.setState(StateClosed)
		return nil, err
	}
	conn.ws = ws

	// Join handshake: exactly one join envelope, ahead of all other traffic.
	if err := conn.writeEnvelope(JoinEnvelope(s.Identity)); err != nil {
		ws.Close()
		conn.setState(StateClosed)
		return nil, err
	}
	conn.setState(StateOpen)

	if onOpen != nil {
		onOpen()
	}

	go conn.readLoop()
	return conn, nil
}

// Connection is a live duplex link to the backend. It owns its state
// transitions; everything else only reads them.
type Connection struct {
	identity Identity
	ws       *websocket.Conn
	logger   zerolog.Logger
	events   chan Event

	writeMu sync.Mutex

	stateMu sync.Mutex
	state   ConnState
}

// State reports the connection's lifecycle state.
func (c *Connection) State() ConnState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Connection) setState(s ConnState) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// Events returns the inbound dispatch channel. It is closed after a final
// DisconnectEvent once the transport goes away.
func (c *Connection) Events() <-chan Event {
	return c.events
}

// Send transmits an envelope, stamping it with the session identity so every
// outbound envelope carries the current user's email. It fails with
// ErrNotOpen unless the connection is open.
func (c *Connection) Send(env Envelope) error {
	if c.State() != StateOpen {
		return ErrNotOpen
	}

	switch env.Type {
	case TypeSearch:
		env.FromEmail = c.identity.Email
	default:
		env.Email = c.identity.Email
		if env.Name == "" {
			env.Name = c.identity.Name
		}
	}
	if env.Timestamp == 0 {
		env.Timestamp = time.Now().UnixMilli()
	}

	return c.writeEnvelope(env)
}

func (c *Connection) writeEnvelope(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close tears the connection down. Safe to call more than once.
func (c *Connection) Close() error {
	if c.ws == nil || c.State() == StateClosed {
		return nil
	}
	return c.ws.Close()
}

// readLoop parses inbound frames and dispatches them as events. Malformed
// frames are logged and dropped; only a transport error ends the loop.
// There is no automatic reconnect: once closed, a connection stays closed
// and the session must dial again.
func (c *Connection) readLoop() {
	var cause error
	defer func() {
		c.setState(StateClosed)
		c.ws.Close()
		c.events <- DisconnectEvent{Err: cause}
		close(c.events)
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("connection closed")
				cause = err
			}
			return
		}

		env, err := ParseEnvelope(data)
		if err != nil {
			c.logger.Warn().Err(err).Str("frame", string(data)).Msg("dropping malformed frame")
			continue
		}

		switch env.Type {
		case TypeMessage:
			c.events <- MessageEvent{Entry: NewTranscriptEntry(env, c.identity)}
		case TypeSearch:
			c.events <- SearchEvent{Query: env.Query, FromEmail: env.FromEmail}
		case TypeJoin:
			// The backend consumes joins; one showing up here is noise.
		}
	}
}
