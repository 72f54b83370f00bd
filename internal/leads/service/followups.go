package service

import (
	"context"
	"strings"
	"time"

	"movecrm_backend/internal/events"
	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/platform/apperr"

	"github.com/google/uuid"
)

// AddFollowUp schedules a PENDING follow-up and asks the reminder scheduler
// to fire at scheduledAt.
func (s *Service) AddFollowUp(ctx context.Context, actor domain.Actor, leadID uuid.UUID, scheduledAt time.Time, note string) (*domain.Lead, domain.FollowUp, error) {
	note = strings.TrimSpace(note)
	if scheduledAt.IsZero() {
		return nil, domain.FollowUp{}, apperr.Validation("follow-up date is required")
	}
	if note == "" {
		return nil, domain.FollowUp{}, apperr.Validation("follow-up note is required")
	}

	var scheduled domain.FollowUp
	lead, err := s.mutate(ctx, actor, leadID, func(lead *domain.Lead, now time.Time) error {
		scheduled = lead.ScheduleFollowUp(actor, scheduledAt.UTC(), note, now)
		return nil
	})
	if err != nil {
		return nil, domain.FollowUp{}, err
	}

	s.publish(ctx, events.FollowUpScheduled{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		FollowUpID:  scheduled.ID,
		ScheduledAt: scheduled.ScheduledAt,
		Note:        scheduled.Note,
	})
	return lead, scheduled, nil
}

// CompleteFollowUp marks a follow-up done. Completing one twice is accepted
// and records a second history entry.
func (s *Service) CompleteFollowUp(ctx context.Context, actor domain.Actor, leadID, followUpID uuid.UUID) (*domain.Lead, error) {
	return s.mutate(ctx, actor, leadID, func(lead *domain.Lead, now time.Time) error {
		if !lead.CompleteFollowUp(actor, followUpID, now) {
			return apperr.NotFound(msgFollowUpNotFound)
		}
		return nil
	})
}

// FollowUpForReminder loads a follow-up for the reminder worker. It bypasses
// the access gate since the worker acts for the system.
func (s *Service) FollowUpForReminder(ctx context.Context, leadID, followUpID uuid.UUID) (*domain.Lead, domain.FollowUp, error) {
	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return nil, domain.FollowUp{}, mapStoreErr(err)
	}
	fu, ok := lead.FollowUp(followUpID)
	if !ok {
		return nil, domain.FollowUp{}, apperr.NotFound(msgFollowUpNotFound)
	}
	return lead, fu, nil
}
