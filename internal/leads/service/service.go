// Package service is the lead lifecycle service: every read and write of a
// lead goes through here so the access gate, the pipeline rules and the
// history append are applied the same way for every caller.
package service

import (
	"context"
	"errors"
	"time"

	"movecrm_backend/internal/events"
	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/ports"
	"movecrm_backend/internal/leads/repository"
	"movecrm_backend/platform/apperr"
	"movecrm_backend/platform/logger"
	"movecrm_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	msgLeadNotFound     = "lead not found"
	msgFollowUpNotFound = "follow-up not found"
	msgUserNotFound     = "user not found"
	msgAccessDenied     = "access denied"
	msgAdminOnly        = "only admins can assign leads"

	defaultAITimeout = 60 * time.Second
)

// Options carries the collaborators of the service. Only Store is required.
type Options struct {
	Users     ports.UserProvider
	Estimator ports.Estimator
	// Fallback supplies the estimate used when the estimator is absent or fails.
	Fallback  func() domain.Estimate
	Bus       events.Bus
	Validator *validator.Validator
	Logger    *logger.Logger
	AITimeout time.Duration
	Clock     func() time.Time
}

type Service struct {
	store     repository.LeadStore
	users     ports.UserProvider
	estimator ports.Estimator
	fallback  func() domain.Estimate
	bus       events.Bus
	val       *validator.Validator
	log       *logger.Logger
	aiTimeout time.Duration
	now       func() time.Time
}

func New(store repository.LeadStore, opts Options) *Service {
	s := &Service{
		store:     store,
		users:     opts.Users,
		estimator: opts.Estimator,
		fallback:  opts.Fallback,
		bus:       opts.Bus,
		val:       opts.Validator,
		log:       opts.Logger,
		aiTimeout: opts.AITimeout,
		now:       opts.Clock,
	}
	if s.fallback == nil {
		s.fallback = func() domain.Estimate { return domain.Estimate{} }
	}
	if s.val == nil {
		s.val = validator.New()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.aiTimeout <= 0 {
		s.aiTimeout = defaultAITimeout
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// GetByID returns the lead with its history filtered for viewer.
func (s *Service) GetByID(ctx context.Context, viewer domain.Actor, leadID uuid.UUID) (*domain.Lead, error) {
	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !viewer.CanAccess(lead) {
		return nil, apperr.Forbidden(msgAccessDenied)
	}
	return lead.ForViewer(&viewer), nil
}

// ListForViewer returns every lead for admins and the currently assigned
// leads for sales, newest first.
func (s *Service) ListForViewer(ctx context.Context, viewer domain.Actor) ([]*domain.Lead, error) {
	params := repository.ListParams{}
	switch viewer.Role {
	case domain.RoleAdmin:
	case domain.RoleSales:
		id := viewer.UserID
		params.AssignedTo = &id
	default:
		return nil, apperr.Forbidden(msgAccessDenied)
	}

	leads, err := s.store.List(ctx, params)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Lead, 0, len(leads))
	for _, lead := range leads {
		out = append(out, lead.ForViewer(&viewer))
	}
	return out, nil
}

// mutate runs fn on the locked lead after the access gate and publishes one
// event per history entry fn appended once the write has committed.
func (s *Service) mutate(ctx context.Context, actor domain.Actor, leadID uuid.UUID, fn func(lead *domain.Lead, now time.Time) error) (*domain.Lead, error) {
	now := s.now()
	lead, appended, err := s.store.Mutate(ctx, leadID, func(lead *domain.Lead) error {
		if !actor.CanAccess(lead) {
			return apperr.Forbidden(msgAccessDenied)
		}
		return fn(lead, now)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.recordActions(ctx, lead.ID, appended)
	return lead.ForViewer(&actor), nil
}

func (s *Service) recordActions(ctx context.Context, leadID uuid.UUID, entries []domain.HistoryEntry) {
	for _, entry := range entries {
		actorID := ""
		if entry.UserID != nil {
			actorID = entry.UserID.String()
		}
		s.log.LeadAction(leadID.String(), string(entry.Action), actorID)

		if s.bus == nil {
			continue
		}
		var prev, next any
		if entry.Change != nil {
			prev, next = entry.Change.Values()
		}
		s.bus.Publish(ctx, events.LeadActionRecorded{
			BaseEvent:      events.NewBaseEvent(),
			LeadID:         leadID,
			UserID:         entry.UserID,
			Action:         string(entry.Action),
			PreviousValues: prev,
			NewValues:      next,
			Reason:         entry.Reason,
			RecordedAt:     entry.Timestamp,
		})
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

func (s *Service) validate(v any) error {
	if err := s.val.Struct(v); err != nil {
		return apperr.Validation(validator.Describe(err))
	}
	return nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgLeadNotFound)
	}
	return err
}
