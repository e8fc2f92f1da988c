package chatx

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvelopeType discriminates the envelope union.
type EnvelopeType string

const (
	TypeJoin    EnvelopeType = "join"
	TypeMessage EnvelopeType = "message"
	TypeSearch  EnvelopeType = "search"
)

// Envelope is a typed message unit exchanged over the websocket.
// The fields in use depend on Type:
//
//	join:    email, name, ts
//	message: email, name, text, ts
//	search:  query, fromEmail, ts
type Envelope struct {
	Type      EnvelopeType `json:"type"`
	Email     string       `json:"email,omitempty"`
	Name      string       `json:"name,omitempty"`
	Text      string       `json:"text,omitempty"`
	Query     string       `json:"query,omitempty"`
	FromEmail string       `json:"fromEmail,omitempty"`
	Timestamp int64        `json:"ts"` // Unix ms
}

// JoinEnvelope builds the handshake envelope for an identity.
func JoinEnvelope(id Identity) Envelope {
	return Envelope{
		Type:      TypeJoin,
		Email:     id.Email,
		Name:      id.Name,
		Timestamp: time.Now().UnixMilli(),
	}
}

// MessageEnvelope builds a chat message envelope from an identity.
func MessageEnvelope(id Identity, text string) Envelope {
	return Envelope{
		Type:      TypeMessage,
		Email:     id.Email,
		Name:      id.Name,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
}

// SearchEnvelope builds a search broadcast envelope from an identity.
func SearchEnvelope(id Identity, query string) Envelope {
	return Envelope{
		Type:      TypeSearch,
		Query:     query,
		FromEmail: id.Email,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ParseEnvelope decodes a wire frame into an Envelope. Frames without a
// recognized type are rejected so callers can drop them.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed frame: %w", err)
	}
	switch env.Type {
	case TypeJoin, TypeMessage, TypeSearch:
		return env, nil
	default:
		return Envelope{}, fmt.Errorf("unknown envelope type %q", env.Type)
	}
}
