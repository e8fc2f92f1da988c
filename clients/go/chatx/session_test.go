package chatx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	store := &SessionStore{ConfigDir: t.TempDir()}

	if _, ok := store.Restore(); ok {
		t.Fatal("restore on empty store should report no identity")
	}

	id := Identity{Email: "a@x.com", Name: "Alice"}
	if err := store.Persist(id); err != nil {
		t.Fatal(err)
	}

	got, ok := store.Restore()
	if !ok {
		t.Fatal("restore failed after persist")
	}
	if got != id {
		t.Fatalf("restored %+v, want %+v", got, id)
	}
}

func TestSessionPersistOverwrites(t *testing.T) {
	store := &SessionStore{ConfigDir: t.TempDir()}

	store.Persist(Identity{Email: "a@x.com", Name: "Alice"})
	store.Persist(Identity{Email: "b@x.com", Name: "Bob"})

	got, ok := store.Restore()
	if !ok || got.Email != "b@x.com" {
		t.Fatalf("restored %+v, want bob", got)
	}
}

func TestSessionRestoreFailsSilently(t *testing.T) {
	dir := t.TempDir()
	store := &SessionStore{ConfigDir: dir}

	// Corrupt record parses to nothing, never panics or errors.
	os.WriteFile(filepath.Join(dir, "session.json"), []byte("{broken"), 0600)
	if _, ok := store.Restore(); ok {
		t.Fatal("corrupt record should restore nothing")
	}

	// A record without an email is no identity either.
	os.WriteFile(filepath.Join(dir, "session.json"), []byte(`{"name":"ghost"}`), 0600)
	if _, ok := store.Restore(); ok {
		t.Fatal("record without email should restore nothing")
	}
}

func TestSessionClear(t *testing.T) {
	store := &SessionStore{ConfigDir: t.TempDir()}
	store.Persist(Identity{Email: "a@x.com"})

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Restore(); ok {
		t.Fatal("identity survived clear")
	}
	// Clearing an already-empty store is fine.
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
}
