package chatx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// wsTestServer is a minimal stand-in for the backend: it accepts websocket
// upgrades on any path, records every inbound frame with its arrival time,
// optionally echoes frames back to the sender, and answers GET /online with
// a fixed presence list.
type wsTestServer struct {
	t    *testing.T
	srv  *httptest.Server
	echo bool

	mu     sync.Mutex
	frames []recordedFrame
	conns  []*websocket.Conn
	online []PresenceEntry
}

type recordedFrame struct {
	data []byte
	at   time.Time
}

func newWSTestServer(t *testing.T, echo bool) *wsTestServer {
	t.Helper()
	s := &wsTestServer{t: t, echo: echo}

	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/online" {
			w.Header().Set("Content-Type", "application/json")
			entries := s.online
			if entries == nil {
				entries = []PresenceEntry{}
			}
			if err := json.NewEncoder(w).Encode(entries); err != nil {
				t.Errorf("write online: %v", err)
			}
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.frames = append(s.frames, recordedFrame{data: data, at: time.Now()})
			s.mu.Unlock()
			if s.echo {
				conn.WriteMessage(websocket.TextMessage, data)
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsTestServer) client() *Client {
	return NewClient(s.srv.URL)
}

// push sends a server-originated frame to the most recent connection.
func (s *wsTestServer) push(t *testing.T, data []byte) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		t.Fatal("no connection to push to")
	}
	conn := s.conns[len(s.conns)-1]
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("push: %v", err)
	}
}

func (s *wsTestServer) recorded() []recordedFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedFrame, len(s.frames))
	copy(out, s.frames)
	return out
}

// waitFrames blocks until at least n frames arrived or the deadline passes.
func (s *wsTestServer) waitFrames(t *testing.T, n int, timeout time.Duration) []recordedFrame {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		frames := s.recorded()
		if len(frames) >= n {
			return frames
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, got %d", n, len(s.recorded()))
	return nil
}

// fakeView records everything the coordination layer renders.
type fakeView struct {
	mu       sync.Mutex
	presence [][]string
	queries  []string
	prefills []string
	focused  bool
}

func (v *fakeView) ShowPresence(rows []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.presence = append(v.presence, rows)
}

func (v *fakeView) SetSearchQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queries = append(v.queries, query)
}

func (v *fakeView) PrefillComposer(token string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prefills = append(v.prefills, token)
}

func (v *fakeView) SearchFocused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focused
}

func (v *fakeView) lastPresence() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.presence) == 0 {
		return nil
	}
	return v.presence[len(v.presence)-1]
}

func testSession(t *testing.T, s *wsTestServer, id Identity) *Session {
	t.Helper()
	return NewSession(s.client(), id, zerolog.Nop())
}

func connect(t *testing.T, session *Session) *Connection {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := session.Connect(ctx, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}
