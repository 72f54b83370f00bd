// Package events defines the domain events modules exchange over the bus.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"movecrm_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadActionRecorded is published once per history entry after it has been
// committed. The audit recorder mirrors it into audit_logs.
type LeadActionRecorded struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	UserID         *uuid.UUID `json:"userId,omitempty"`
	Action         string     `json:"action"`
	PreviousValues any        `json:"previousValues,omitempty"`
	NewValues      any        `json:"newValues,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	RecordedAt     time.Time  `json:"recordedAt"`
}

func (e LeadActionRecorded) EventName() string { return "leads.action.recorded" }

// LeadCreated is published when a lead enters the system, from either the
// public assessment form or manual entry.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Source string    `json:"source"`
	Email  string    `json:"email"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadAssigned is published when a lead gains or loses an assignee.
type LeadAssigned struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	AssignedBy uuid.UUID  `json:"assignedBy"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// FollowUpScheduled triggers the reminder job.
type FollowUpScheduled struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	FollowUpID  uuid.UUID `json:"followUpId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Note        string    `json:"note"`
}

func (e FollowUpScheduled) EventName() string { return "leads.followup.scheduled" }
