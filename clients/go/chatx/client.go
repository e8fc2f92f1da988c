// Package chatx provides a client for the ChatX realtime chat backend:
// HTTP authentication and presence, plus the websocket session,
// connection, search, and composer coordination layer.
package chatx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BackendPort is the canonical port the ChatX backend listens on.
const BackendPort = "8080"

// Client is a ChatX HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new ChatX client. An empty baseURL falls back to the
// canonical local backend.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:" + BackendPort
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ResolveBaseURL picks the backend base address. An explicit override wins.
// Otherwise, when the origin has no port or already sits on the canonical
// backend port, the origin itself is the backend; any other port means split
// static/dynamic hosting, so assume the backend is on the same host at the
// canonical port.
func ResolveBaseURL(override, origin string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return "http://localhost:" + BackendPort
	}
	if u.Port() == "" || u.Port() == BackendPort {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Hostname() + ":" + BackendPort
}

// WebsocketURL derives the duplex endpoint from a base URL, mirroring the
// https/http scheme as wss/ws.
func WebsocketURL(baseURL string) string {
	ws := baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimRight(ws, "/") + "/ws"
}

// APIError is a failure reported by the backend with an HTTP status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatx: server error %d: %s", e.Status, e.Message)
}

// doRequest performs an HTTP request and returns the response body.
// Non-2xx statuses become an *APIError carrying the server's error message.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		msg := ""
		if json.Unmarshal(respBody, &errResp) == nil {
			msg = errResp.Error
			if msg == "" {
				msg = errResp.Message
			}
		}
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	return respBody, nil
}

// decodeJSON parses a success body, keeping the raw text in the error when
// the server hands back something that is not the expected JSON. This keeps
// "server said no" and "server spoke garbage" distinguishable for callers.
func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("chatx: unexpected response %q: %w", strings.TrimSpace(string(body)), err)
	}
	return nil
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type identityResponse struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Register creates an account and returns the established identity.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (Identity, error) {
	body, _ := json.Marshal(credentialsRequest{Email: email, Password: password, DisplayName: displayName})
	respBody, err := c.doRequest(ctx, http.MethodPost, "/register", body)
	if err != nil {
		return Identity{}, err
	}

	var resp identityResponse
	if err := decodeJSON(respBody, &resp); err != nil {
		return Identity{}, err
	}
	return Identity{Email: resp.Email, Name: resp.DisplayName}, nil
}

// Login authenticates existing credentials and returns the identity.
func (c *Client) Login(ctx context.Context, email, password string) (Identity, error) {
	body, _ := json.Marshal(credentialsRequest{Email: email, Password: password})
	respBody, err := c.doRequest(ctx, http.MethodPost, "/login", body)
	if err != nil {
		return Identity{}, err
	}

	var resp identityResponse
	if err := decodeJSON(respBody, &resp); err != nil {
		return Identity{}, err
	}
	return Identity{Email: resp.Email, Name: resp.DisplayName}, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status           string                 `json:"status"`
	Version          string                 `json:"version"`
	ConnectedClients int                    `json:"connected_clients"`
	Checks           map[string]interface{} `json:"checks"`
	Timestamp        string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := decodeJSON(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchOnline retrieves the current presence list. Transport errors,
// non-success statuses, and malformed bodies all collapse to an empty list;
// presence is advisory and refreshed wholesale, so a failed fetch never
// surfaces as an error.
func (c *Client) FetchOnline(ctx context.Context) []PresenceEntry {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/online", nil)
	if err != nil {
		return nil
	}

	var entries []PresenceEntry
	if err := json.Unmarshal(respBody, &entries); err != nil {
		return nil
	}
	return entries
}
