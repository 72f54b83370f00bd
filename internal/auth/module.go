// Package auth provides the authentication bounded context module.
// This file defines the module that encapsulates all auth setup and route registration.
package auth

import (
	"movecrm_backend/internal/auth/handler"
	"movecrm_backend/internal/auth/repository"
	"movecrm_backend/internal/auth/service"
	authvalidator "movecrm_backend/internal/auth/validator"
	apphttp "movecrm_backend/internal/http"
	"movecrm_backend/platform/config"
	"movecrm_backend/platform/httpkit"
	"movecrm_backend/platform/logger"
	"movecrm_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.UserStore
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(repo repository.UserStore, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := authvalidator.Register(val); err != nil {
		return nil, err
	}
	svc := service.New(repo, cfg, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service for seeding and adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public auth routes with stricter rate limiting
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterRoutes(authGroup)

	// Staff management is admin only.
	users := ctx.V1.Group("/users", ctx.AuthMiddleware, httpkit.RequireRole(RoleAdmin))
	users.GET("", m.handler.ListUsers)
	users.POST("/sales", m.handler.CreateSalesUser)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
