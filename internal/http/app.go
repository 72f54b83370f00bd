// Package http wires the CRM's modules onto one gin engine.
package http

import (
	"context"

	"movecrm_backend/platform/config"
	"movecrm_backend/platform/logger"
)

// RouterConfig is the slice of config the router reads: listen/CORS/intake
// limits and the JWT secret for the auth middleware.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// Pinger backs GET /api/ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands the router. A nil Health makes /api/ready report
// ready without checking the database.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  Pinger
	Modules []Module
}
