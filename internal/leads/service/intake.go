package service

import (
	"context"
	"strings"
	"time"

	"movecrm_backend/internal/events"
	"movecrm_backend/internal/leads/domain"
	"movecrm_backend/internal/leads/ports"
	"movecrm_backend/platform/phone"
	"movecrm_backend/platform/sanitize"
)

const (
	SourceAssessment = "ASSESSMENT"
	SourceManual     = "MANUAL"
)

// CreateAssessmentInput is a public intake submission. Photos are already
// stored; their FileKey becomes the media path on the lead. Photos without a
// key are only used for the estimate.
type CreateAssessmentInput struct {
	Profile domain.Profile
	Photos  []ports.Photo
}

// CreateManualInput is a lead typed in by staff.
type CreateManualInput struct {
	Profile domain.Profile
}

// CreateFromAssessment creates a NEW lead from the intake form. The estimator
// may fail or time out; the lead is then created with the fallback estimate.
func (s *Service) CreateFromAssessment(ctx context.Context, in CreateAssessmentInput) (*domain.Lead, error) {
	profile := normalizeProfile(in.Profile)
	if err := s.validate(profile); err != nil {
		return nil, err
	}

	est := s.estimate(ctx, in.Photos)

	now := s.now()
	media := make([]domain.Media, 0, len(in.Photos))
	for _, p := range in.Photos {
		if p.FileKey == "" {
			continue
		}
		media = append(media, domain.Media{FilePath: p.FileKey, ContentType: p.ContentType, UploadedAt: now})
	}

	lead := domain.NewAssessmentLead(profile, est, media, now)
	if err := s.store.Create(ctx, lead); err != nil {
		return nil, err
	}

	s.recordActions(ctx, lead.ID, lead.History)
	s.publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    SourceAssessment,
		Email:     lead.Email,
	})
	return lead, nil
}

// CreateManual creates a NEW lead with no items or media.
func (s *Service) CreateManual(ctx context.Context, actor domain.Actor, in CreateManualInput) (*domain.Lead, error) {
	profile := normalizeProfile(in.Profile)
	if err := s.validate(profile); err != nil {
		return nil, err
	}

	lead := domain.NewManualLead(profile, actor, s.now())
	if err := s.store.Create(ctx, lead); err != nil {
		return nil, err
	}

	s.recordActions(ctx, lead.ID, lead.History)
	s.publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    SourceManual,
		Email:     lead.Email,
	})
	return lead.ForViewer(&actor), nil
}

func (s *Service) estimate(ctx context.Context, photos []ports.Photo) domain.Estimate {
	if s.estimator == nil || len(photos) == 0 {
		return s.fallback()
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	started := time.Now()
	est, err := s.estimator.Estimate(aiCtx, photos)
	if err != nil {
		s.log.CollaboratorFailed("estimator", err)
		return s.fallback()
	}
	s.log.Info("assessment estimated", "photos", len(photos), "items", len(est.Items), "durationMs", time.Since(started).Milliseconds())
	return est
}

func normalizeProfile(p domain.Profile) domain.Profile {
	p.FirstName = sanitize.Text(p.FirstName)
	p.LastName = sanitize.Text(p.LastName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = phone.NormalizeE164(p.Phone)
	p.MoveType = domain.NormalizeMoveType(string(p.MoveType))
	p.OriginAddress = sanitize.Text(p.OriginAddress)
	p.OriginPincode = strings.TrimSpace(p.OriginPincode)
	p.DestinationAddress = sanitize.Text(p.DestinationAddress)
	p.DestinationPincode = strings.TrimSpace(p.DestinationPincode)
	return p.WithDefaults()
}
