// Package leads provides the lead lifecycle bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"strings"
	"time"

	"movecrm_backend/internal/events"
	apphttp "movecrm_backend/internal/http"
	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/handler"
	"movecrm_backend/internal/leads/ports"
	"movecrm_backend/internal/leads/repository"
	"movecrm_backend/internal/leads/service"
	"movecrm_backend/platform/logger"
	"movecrm_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// Deps are the collaborators wired in by the composition root. Estimator and
// Media may be nil; the module then runs without AI estimates or photo storage.
type Deps struct {
	Store     repository.LeadStore
	Users     ports.UserProvider
	Estimator ports.Estimator
	Fallback  func() domain.Estimate
	Media     ports.MediaStore
	EventBus  events.Bus
	Validator *validator.Validator
	AITimeout time.Duration
	Logger    *logger.Logger
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	public  *handler.PublicHandler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(d Deps) (*Module, error) {
	if err := d.Validator.RegisterValidation("pipeline_status", validPipelineStatus); err != nil {
		return nil, err
	}

	svc := service.New(d.Store, service.Options{
		Users:     d.Users,
		Estimator: d.Estimator,
		Fallback:  d.Fallback,
		Bus:       d.EventBus,
		Validator: d.Validator,
		Logger:    d.Logger,
		AITimeout: d.AITimeout,
	})

	return &Module{
		handler: handler.New(svc, d.Media, d.Validator),
		public:  handler.NewPublicHandler(svc, d.Media, d.Validator),
		service: svc,
	}, nil
}

func validPipelineStatus(fl playground.FieldLevel) bool {
	return domain.Status(strings.ToUpper(strings.TrimSpace(fl.Field().String()))).IsValid()
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lifecycle service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public intake is rate limited per client IP.
	public := ctx.V1.Group("/leads")
	if ctx.IntakeRateLimiter != nil {
		public.Use(ctx.IntakeRateLimiter.RateLimit())
	}
	m.public.RegisterRoutes(public)

	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
