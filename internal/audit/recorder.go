// Package audit mirrors every lead history entry into a system-wide audit log.
// Recording is fire-and-forget: a failed write is logged and never reaches the
// request that caused it.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"movecrm_backend/internal/audit/repository"
	"movecrm_backend/internal/events"
	"movecrm_backend/platform/logger"

	"github.com/google/uuid"
)

// Recorder writes audit entries for lead action events.
type Recorder struct {
	repo repository.Writer
	log  *logger.Logger
}

func NewRecorder(repo repository.Writer, log *logger.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

// Subscribe registers the recorder on the bus.
func (r *Recorder) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadActionRecorded{}.EventName(), r)
}

// Handle implements events.Handler. It always returns nil; failures are logged.
func (r *Recorder) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadActionRecorded)
	if !ok {
		return nil
	}
	if err := r.Record(ctx, e); err != nil {
		r.log.AuditWriteFailed(e.LeadID.String(), e.Action, err)
	}
	return nil
}

// Record writes one entry.
func (r *Recorder) Record(ctx context.Context, e events.LeadActionRecorded) error {
	prev, err := encode(e.PreviousValues)
	if err != nil {
		return err
	}
	next, err := encode(e.NewValues)
	if err != nil {
		return err
	}

	return r.repo.Insert(ctx, repository.Entry{
		ID:             uuid.New(),
		LeadID:         e.LeadID,
		UserID:         e.UserID,
		Action:         e.Action,
		PreviousValues: prev,
		NewValues:      next,
		Reason:         e.Reason,
		CreatedAt:      e.RecordedAt,
	})
}

func encode(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode audit values: %w", err)
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}
