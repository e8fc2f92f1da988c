package chatx

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Identity is the authenticated local user. Email is unique and immutable
// for the lifetime of a session.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionStore persists the local identity across client restarts as a
// single JSON record on disk.
type SessionStore struct {
	ConfigDir string
}

// NewSessionStore creates a session store rooted at the config directory.
// CHATX_CONFIG overrides the default ~/.chatx.
func NewSessionStore() *SessionStore {
	configDir := os.Getenv("CHATX_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".chatx")
	}
	return &SessionStore{ConfigDir: configDir}
}

func (s *SessionStore) path() string {
	return filepath.Join(s.ConfigDir, "session.json")
}

// Restore reads the persisted identity. A missing file, unreadable file, or
// unparseable record all report no identity; restore never fails loudly.
// The restored identity is trusted as-is without re-authenticating against
// the backend.
func (s *SessionStore) Restore() (Identity, bool) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return Identity{}, false
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, false
	}
	if id.Email == "" {
		return Identity{}, false
	}
	return id, true
}

// Persist overwrites the stored record. There is no expiry; the record is
// valid until Clear is called.
func (s *SessionStore) Persist(id Identity) error {
	if err := os.MkdirAll(s.ConfigDir, 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(id, "", "  ")
	return os.WriteFile(s.path(), data, 0600)
}

// Clear removes the stored record.
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
