package store

import (
	"context"
	"errors"

	"github.com/xeot403/chatx/internal/models"
)

// ErrDuplicateEmail is returned when registering an email that already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// UserStore defines the interface for persistent storage of accounts.
// Both PostgresStore and SQLiteStore implement this interface.
type UserStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Account operations
	CreateUser(ctx context.Context, email, passwordHash, displayName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}
