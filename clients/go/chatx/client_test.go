package chatx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		override string
		origin   string
		want     string
	}{
		{"override wins", "https://chat.example.com/", "http://localhost:5500", "https://chat.example.com"},
		{"origin without port", "", "https://chat.example.com", "https://chat.example.com"},
		{"origin on backend port", "", "http://localhost:8080", "http://localhost:8080"},
		{"split hosting falls back to backend port", "", "http://localhost:5500", "http://localhost:8080"},
		{"empty origin", "", "", "http://localhost:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveBaseURL(tt.override, tt.origin); got != tt.want {
				t.Fatalf("ResolveBaseURL(%q, %q) = %q, want %q", tt.override, tt.origin, got, tt.want)
			}
		})
	}
}

func TestWebsocketURL(t *testing.T) {
	if got := WebsocketURL("https://chat.example.com"); got != "wss://chat.example.com/ws" {
		t.Fatalf("got %q", got)
	}
	if got := WebsocketURL("http://localhost:8080/"); got != "ws://localhost:8080/ws" {
		t.Fatalf("got %q", got)
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"email":"a@x.com","display_name":"Alice"}`))
	}))
	defer srv.Close()

	id, err := NewClient(srv.URL).Login(context.Background(), "a@x.com", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if id.Email != "a@x.com" || id.Name != "Alice" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestLoginServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "a@x.com", "wrong")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "invalid credentials" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestLoginMalformedResponseKeepsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>proxy error</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "a@x.com", "pw")
	if err == nil {
		t.Fatal("expected error for non-JSON body")
	}
	// A garbled body is not an *APIError and must carry the raw text for diagnosis.
	if _, ok := err.(*APIError); ok {
		t.Fatalf("malformed body misreported as APIError: %v", err)
	}
	if !strings.Contains(err.Error(), "proxy error") {
		t.Fatalf("error %q does not include raw body", err)
	}
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"email":"new@x.com","display_name":"New"}`))
	}))
	defer srv.Close()

	id, err := NewClient(srv.URL).Register(context.Background(), "new@x.com", "pw", "New")
	if err != nil {
		t.Fatal(err)
	}
	if id.Email != "new@x.com" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestFetchOnlineFailuresYieldEmpty(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"garbage body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("nope"))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			if got := NewClient(srv.URL).FetchOnline(context.Background()); len(got) != 0 {
				t.Fatalf("got %v, want empty", got)
			}
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1")
		if got := c.FetchOnline(context.Background()); len(got) != 0 {
			t.Fatalf("got %v, want empty", got)
		}
	})
}
