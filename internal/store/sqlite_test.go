package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "chatx.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "a@x.com", "hashed-pw", "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID == 0 || user.Email != "a@x.com" || user.DisplayName != "Alice" {
		t.Fatalf("created user = %+v", user)
	}

	got, err := s.GetUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != user.ID || got.PasswordHash != "hashed-pw" {
		t.Fatalf("got %+v", got)
	}
}

func TestGetUserByEmailMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetUserByEmail(context.Background(), "nobody@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil for missing user", got)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "a@x.com", "pw1", ""); err != nil {
		t.Fatal(err)
	}
	_, err := s.CreateUser(ctx, "a@x.com", "pw2", "")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestCountUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if n, _ := s.CountUsers(ctx); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	s.CreateUser(ctx, "a@x.com", "pw", "")
	s.CreateUser(ctx, "b@x.com", "pw", "")
	if n, _ := s.CountUsers(ctx); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}
