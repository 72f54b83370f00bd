// Package ports defines consumer-driven interfaces for the collaborators the
// leads domain depends on. Implementations are wired in the composition root.
package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned by UserProvider when no user has the id.
var ErrUserNotFound = errors.New("user not found")

// UserInfo is the minimal user data the leads domain needs.
type UserInfo struct {
	ID     uuid.UUID
	Name   string
	Email  string
	Role   string
	Active bool
}

// UserProvider resolves assignment targets and reminder recipients.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (UserInfo, error)
}
