package repository

import (
	"context"

	"github.com/google/uuid"
)

// UserReader provides read-only access to staff users.
type UserReader interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsersByRole(ctx context.Context, role string) ([]User, error)
}

// UserWriter creates staff users.
type UserWriter interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
}

// UserStore is what the auth service needs.
type UserStore interface {
	UserReader
	UserWriter
}

// Ensure Repository implements UserStore
var _ UserStore = (*Repository)(nil)
