package audit

import (
	"movecrm_backend/internal/audit/handler"
	"movecrm_backend/internal/audit/repository"
	"movecrm_backend/internal/events"
	apphttp "movecrm_backend/internal/http"
	"movecrm_backend/platform/logger"
	"movecrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the audit recorder onto the bus and serves the admin log.
type Module struct {
	handler  *handler.Handler
	recorder *Recorder
}

// NewModule subscribes the recorder to lead action events.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	rec := NewRecorder(repo, log)
	rec.Subscribe(bus)

	return &Module{
		handler:  handler.New(repo, val),
		recorder: rec,
	}
}

func (m *Module) Name() string {
	return "audit"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/audit-logs"))
}

var _ apphttp.Module = (*Module)(nil)
