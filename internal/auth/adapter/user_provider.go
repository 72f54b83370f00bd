// Package adapter provides implementations of external interfaces that other domains need.
// This follows the Anti-Corruption Layer pattern - auth domain provides adapters
// that satisfy consumer-driven interfaces defined by other domains.
package adapter

import (
	"context"
	"errors"

	"movecrm_backend/internal/auth/repository"
	"movecrm_backend/internal/leads/ports"

	"github.com/google/uuid"
)

// UserProviderAdapter implements leads/ports.UserProvider using the auth repository.
// This allows the leads domain to get user information without depending on auth internals.
type UserProviderAdapter struct {
	repo repository.UserReader
}

// NewUserProviderAdapter creates a new adapter for providing user info to other domains.
func NewUserProviderAdapter(repo repository.UserReader) *UserProviderAdapter {
	return &UserProviderAdapter{repo: repo}
}

// GetUserByID implements ports.UserProvider.
func (a *UserProviderAdapter) GetUserByID(ctx context.Context, userID uuid.UUID) (ports.UserInfo, error) {
	user, err := a.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ports.UserInfo{}, ports.ErrUserNotFound
		}
		return ports.UserInfo{}, err
	}

	return ports.UserInfo{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Active: user.Status == repository.StatusActive,
	}, nil
}

// Ensure UserProviderAdapter implements ports.UserProvider
var _ ports.UserProvider = (*UserProviderAdapter)(nil)
