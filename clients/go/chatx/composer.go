package chatx

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrNotAuthenticated is returned when submitting without an identity.
	ErrNotAuthenticated = errors.New("chatx: must authenticate before sending")
	// ErrDeliveryFailed wraps a failed send; the draft is kept so the user
	// can retry.
	ErrDeliveryFailed = errors.New("chatx: message could not be delivered")
)

// Composer validates and emits user-authored message envelopes. The
// transcript is never touched here: a sent message shows up only when the
// backend relays it back through the inbound path.
type Composer struct {
	session *Session

	mu    sync.Mutex
	draft string
}

// NewComposer creates a composer bound to a session.
func NewComposer(session *Session) *Composer {
	return &Composer{session: session}
}

// Draft returns the current input value.
func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the input value (used for addressing-token prefill).
func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Submit validates and sends the text. Whitespace-only input is silently
// ignored. On a delivery failure the draft stays populated; on success it
// is cleared immediately even though the message will only appear in the
// transcript after its round trip.
func (c *Composer) Submit(text string) error {
	if c.session.Identity.Email == "" {
		return ErrNotAuthenticated
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.SetDraft(text)

	conn := c.session.Connection()
	if conn == nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, ErrNotOpen)
	}
	if err := conn.Send(MessageEnvelope(c.session.Identity, text)); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	c.SetDraft("")
	return nil
}
