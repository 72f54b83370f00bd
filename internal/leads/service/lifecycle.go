package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"movecrm_backend/internal/events"
	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/ports"
	"movecrm_backend/platform/apperr"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
)

// Assign sets or clears the assignee. Only admins may assign, and the target
// must be an active sales user. The target is resolved once the lead is
// locked, so a missing lead is reported first.
func (s *Service) Assign(ctx context.Context, actor domain.Actor, leadID uuid.UUID, assignee *uuid.UUID) (*domain.Lead, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden(msgAdminOnly)
	}

	lead, err := s.mutate(ctx, actor, leadID, func(lead *domain.Lead, now time.Time) error {
		if assignee != nil {
			if err := s.checkAssignee(ctx, *assignee); err != nil {
				return err
			}
		}
		lead.Assign(actor, assignee, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		AssignedTo: lead.AssignedTo,
		AssignedBy: actor.UserID,
	})
	return lead, nil
}

func (s *Service) checkAssignee(ctx context.Context, userID uuid.UUID) error {
	if s.users == nil {
		return apperr.Internal("user directory not configured")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, ports.ErrUserNotFound) {
		return apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return err
	}
	if domain.Role(user.Role) != domain.RoleSales || !user.Active {
		return apperr.Validation("assignee must be an active sales user")
	}
	return nil
}

// UpdateStatus moves the lead through the pipeline under the role rules.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, leadID uuid.UUID, target domain.Status, reason string) (*domain.Lead, error) {
	reason = strings.TrimSpace(reason)
	return s.mutate(ctx, actor, leadID, func(lead *domain.Lead, now time.Time) error {
		return lead.Transition(actor, target, reason, now)
	})
}

// UpdateInventory replaces the item list. Items without a source are MANUAL.
func (s *Service) UpdateInventory(ctx context.Context, actor domain.Actor, leadID uuid.UUID, items []domain.Item) (*domain.Lead, error) {
	cleaned := make([]domain.Item, 0, len(items))
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Source == "" {
			it.Source = domain.SourceManual
		}
		if err := s.validate(it); err != nil {
			return nil, err
		}
		cleaned = append(cleaned, it)
	}

	return s.mutate(ctx, actor, leadID, func(lead *domain.Lead, now time.Time) error {
		lead.ReplaceInventory(actor, cleaned, now)
		return nil
	})
}

// FinalizePrice confirms the quoted price.
func (s *Service) FinalizePrice(ctx context.Context, actor domain.Actor, leadID uuid.UUID, price float64, reason string) (*domain.Lead, error) {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, apperr.Validation("price must be a non-negative number")
	}
	reason = strings.TrimSpace(reason)

	return s.mutate(ctx, actor, leadID, func(lead *domain.Lead, now time.Time) error {
		lead.FinalizePrice(actor, price, reason, now)
		return nil
	})
}

// AddNote appends a free-text note.
func (s *Service) AddNote(ctx context.Context, actor domain.Actor, leadID uuid.UUID, note string) (*domain.Lead, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperr.Validation("note is required")
	}

	return s.mutate(ctx, actor, leadID, func(lead *domain.Lead, now time.Time) error {
		lead.AddNote(actor, note, now)
		return nil
	})
}

// UpdateLogistics applies an RFC 7386 merge patch to the lead's profile. The
// merged profile is normalized and validated like a new one.
func (s *Service) UpdateLogistics(ctx context.Context, actor domain.Actor, leadID uuid.UUID, patch []byte) (*domain.Lead, error) {
	if len(strings.TrimSpace(string(patch))) == 0 {
		return nil, apperr.Validation("patch is required")
	}
	if !json.Valid(patch) {
		return nil, apperr.Validation("patch must be a JSON object")
	}

	return s.mutate(ctx, actor, leadID, func(lead *domain.Lead, now time.Time) error {
		next, err := mergeProfile(lead.Profile, patch)
		if err != nil {
			return err
		}
		next = normalizeProfile(next)
		if err := s.validate(next); err != nil {
			return err
		}
		lead.UpdateLogistics(actor, next, now)
		return nil
	})
}

func mergeProfile(current domain.Profile, patch []byte) (domain.Profile, error) {
	original, err := json.Marshal(current)
	if err != nil {
		return domain.Profile{}, err
	}
	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return domain.Profile{}, apperr.Wrap(apperr.KindValidation, "invalid merge patch", err)
	}

	var next domain.Profile
	if err := json.Unmarshal(merged, &next); err != nil {
		return domain.Profile{}, apperr.Wrap(apperr.KindValidation, "patched profile is malformed", err)
	}
	return next, nil
}
