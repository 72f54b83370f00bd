// Package auth provides authentication and staff user management.
// This file defines the public API of the auth bounded context.
// Only types and interfaces defined here should be imported by other domains.
package auth

import "movecrm_backend/internal/auth/repository"

const (
	RoleAdmin = repository.RoleAdmin
	RoleSales = repository.RoleSales
)
