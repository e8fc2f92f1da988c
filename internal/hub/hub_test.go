package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	h := New(zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func join(t *testing.T, conn *websocket.Conn, email, name string) {
	t.Helper()
	frame, _ := json.Marshal(map[string]string{"type": "join", "email": email, "name": name})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatal(err)
	}
}

func waitOnline(t *testing.T, h *Hub, q string, want int) []PresenceEntry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries := h.Online(q)
		if len(entries) == want {
			return entries
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Online(%q) never reached %d entries, got %v", q, want, h.Online(q))
	return nil
}

func TestJoinRecordsPresence(t *testing.T) {
	h, wsURL := newTestHub(t)

	conn := dial(t, wsURL)
	if got := len(h.Online("")); got != 0 {
		t.Fatalf("pre-join presence = %d entries, want 0", got)
	}

	join(t, conn, "alice@x.com", "Alice")
	entries := waitOnline(t, h, "", 1)
	if entries[0].Email != "alice@x.com" || entries[0].Name != "Alice" {
		t.Fatalf("entries = %v", entries)
	}
}

func TestOnlineFilter(t *testing.T) {
	h, wsURL := newTestHub(t)

	join(t, dial(t, wsURL), "alice@x.com", "Alice")
	join(t, dial(t, wsURL), "bob@x.com", "Bob")
	waitOnline(t, h, "", 2)

	entries := h.Online("AL")
	if len(entries) != 1 || entries[0].Email != "alice@x.com" {
		t.Fatalf("Online(AL) = %v", entries)
	}
}

func TestJoinNotBroadcast(t *testing.T) {
	h, wsURL := newTestHub(t)

	observer := dial(t, wsURL)
	joiner := dial(t, wsURL)
	join(t, joiner, "alice@x.com", "Alice")
	waitOnline(t, h, "", 1)

	observer.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, data, err := observer.ReadMessage(); err == nil {
		t.Fatalf("observer received %q, joins must not be broadcast", data)
	}
}

func TestBroadcastReachesEveryoneIncludingSender(t *testing.T) {
	h, wsURL := newTestHub(t)

	sender := dial(t, wsURL)
	receiver := dial(t, wsURL)
	join(t, sender, "alice@x.com", "Alice")
	join(t, receiver, "bob@x.com", "Bob")
	waitOnline(t, h, "", 2)

	payload := []byte(`{"type":"message","email":"alice@x.com","name":"Alice","text":"hi","ts":1}`)
	if err := sender.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatal(err)
	}

	for name, conn := range map[string]*websocket.Conn{"receiver": receiver, "sender": sender} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("%s read: %v", name, err)
		}
		if string(data) != string(payload) {
			t.Fatalf("%s got %q", name, data)
		}
	}
}

func TestSearchBroadcastPassesThrough(t *testing.T) {
	h, wsURL := newTestHub(t)

	sender := dial(t, wsURL)
	receiver := dial(t, wsURL)
	join(t, sender, "alice@x.com", "Alice")
	join(t, receiver, "bob@x.com", "Bob")
	waitOnline(t, h, "", 2)

	payload := []byte(`{"type":"search","query":"bo","fromEmail":"alice@x.com","ts":2}`)
	if err := sender.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatal(err)
	}

	receiver.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := receiver.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(payload) {
		t.Fatalf("got %q", data)
	}
}

func TestDisconnectRemovesPresence(t *testing.T) {
	h, wsURL := newTestHub(t)

	conn := dial(t, wsURL)
	join(t, conn, "alice@x.com", "Alice")
	waitOnline(t, h, "", 1)

	conn.Close()
	waitOnline(t, h, "", 0)

	if h.Count() != 0 {
		t.Fatalf("Count = %d after disconnect", h.Count())
	}
}
