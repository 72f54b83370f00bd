// Package leads provides the lead lifecycle bounded context.
// This file defines the public API of the context. Other modules should
// depend on the interfaces here rather than on the service package.
package leads

import (
	"context"

	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/service"

	"github.com/google/uuid"
)

// ReminderLookup is what the follow-up reminder worker needs from leads.
type ReminderLookup interface {
	FollowUpForReminder(ctx context.Context, leadID, followUpID uuid.UUID) (*domain.Lead, domain.FollowUp, error)
}

var _ ReminderLookup = (*service.Service)(nil)
