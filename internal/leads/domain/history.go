package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action tags a history entry.
type Action string

const (
	ActionLeadCreated       Action = "LEAD_CREATED"
	ActionManualEntry       Action = "MANUAL_ENTRY"
	ActionLeadAssigned      Action = "LEAD_ASSIGNED"
	ActionLeadUnassigned    Action = "LEAD_UNASSIGNED"
	ActionStatusUpdated     Action = "STATUS_UPDATED"
	ActionInventoryUpdated  Action = "INVENTORY_UPDATED"
	ActionPriceFinalized    Action = "PRICE_FINALIZED"
	ActionNoteAdded         Action = "NOTE_ADDED"
	ActionFollowUpScheduled Action = "FOLLOW_UP_SCHEDULED"
	ActionFollowUpCompleted Action = "FOLLOW_UP_COMPLETED"
	ActionLogisticsUpdated  Action = "LOGISTICS_UPDATED"
)

const (
	// ManualEntrySource marks leads typed in by staff.
	ManualEntrySource = "CRM_MANUAL"
	// ReasonInventoryReview is the system reason on the ASSIGNED to IN_PROGRESS auto-step.
	ReasonInventoryReview = "Automatic transition on inventory review"
)

// HistoryEntry is one immutable line of a lead's audit trail.
// UserID is nil for system actions such as public intake.
type HistoryEntry struct {
	Action    Action
	UserID    *uuid.UUID
	Reason    string
	Timestamp time.Time
	Change    Change
}

// Change is the action-specific payload of a history entry. Each action tag
// has exactly one concrete type.
type Change interface {
	// Values returns the previous and new snapshots, either of which may be nil.
	Values() (previous, next any)
	isChange()
}

type LeadCreated struct {
	Status           Status  `json:"status"`
	AIEstimatedPrice float64 `json:"aiEstimatedPrice"`
}

type ManualEntry struct {
	Source string `json:"source"`
}

type AssignmentSnapshot struct {
	AssignedTo *uuid.UUID `json:"assignedTo"`
	Status     Status     `json:"status"`
}

// Assignment is the payload of both LEAD_ASSIGNED and LEAD_UNASSIGNED.
type Assignment struct {
	Previous AssignmentSnapshot `json:"previous"`
	New      AssignmentSnapshot `json:"new"`
}

type StatusChange struct {
	Previous Status `json:"previous"`
	New      Status `json:"new"`
}

type InventoryChange struct {
	Items []Item `json:"items"`
}

type PriceChange struct {
	FinalPrice float64 `json:"finalPrice"`
}

type NoteAdded struct{}

type FollowUpScheduled struct {
	FollowUpID  uuid.UUID `json:"followUpId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Note        string    `json:"note"`
}

type FollowUpCompletedChange struct {
	FollowUpID uuid.UUID `json:"followUpId"`
}

type LogisticsChange struct {
	Previous Profile `json:"previous"`
	New      Profile `json:"new"`
}

func (c LeadCreated) Values() (any, any) { return nil, c }
func (c ManualEntry) Values() (any, any) { return nil, c }
func (c Assignment) Values() (any, any)  { return c.Previous, c.New }
func (c StatusChange) Values() (any, any) {
	return map[string]Status{"status": c.Previous}, map[string]Status{"status": c.New}
}
func (c InventoryChange) Values() (any, any) { return nil, c }
func (c PriceChange) Values() (any, any)     { return nil, c }
func (NoteAdded) Values() (any, any)         { return nil, nil }
func (c FollowUpScheduled) Values() (any, any) {
	return nil, c
}
func (c FollowUpCompletedChange) Values() (any, any) { return nil, c }
func (c LogisticsChange) Values() (any, any)         { return c.Previous, c.New }

func (LeadCreated) isChange()             {}
func (ManualEntry) isChange()             {}
func (Assignment) isChange()              {}
func (StatusChange) isChange()            {}
func (InventoryChange) isChange()         {}
func (PriceChange) isChange()             {}
func (NoteAdded) isChange()               {}
func (FollowUpScheduled) isChange()       {}
func (FollowUpCompletedChange) isChange() {}
func (LogisticsChange) isChange()         {}

// DecodeChange rebuilds the typed payload stored for action.
func DecodeChange(action Action, raw []byte) (Change, error) {
	var target Change
	switch action {
	case ActionLeadCreated:
		target = &LeadCreated{}
	case ActionManualEntry:
		target = &ManualEntry{}
	case ActionLeadAssigned, ActionLeadUnassigned:
		target = &Assignment{}
	case ActionStatusUpdated:
		target = &StatusChange{}
	case ActionInventoryUpdated:
		target = &InventoryChange{}
	case ActionPriceFinalized:
		target = &PriceChange{}
	case ActionNoteAdded:
		return NoteAdded{}, nil
	case ActionFollowUpScheduled:
		target = &FollowUpScheduled{}
	case ActionFollowUpCompleted:
		target = &FollowUpCompletedChange{}
	case ActionLogisticsUpdated:
		target = &LogisticsChange{}
	default:
		return nil, fmt.Errorf("unknown history action %q", action)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", action, err)
		}
	}
	return deref(target), nil
}

func deref(c Change) Change {
	switch v := c.(type) {
	case *LeadCreated:
		return *v
	case *ManualEntry:
		return *v
	case *Assignment:
		return *v
	case *StatusChange:
		return *v
	case *InventoryChange:
		return *v
	case *PriceChange:
		return *v
	case *FollowUpScheduled:
		return *v
	case *FollowUpCompletedChange:
		return *v
	case *LogisticsChange:
		return *v
	}
	return c
}

type historyEntryJSON struct {
	Action         Action     `json:"action"`
	UserID         *uuid.UUID `json:"userId,omitempty"`
	PreviousValues any        `json:"previousValues,omitempty"`
	NewValues      any        `json:"newValues,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// MarshalJSON renders the entry in the flat shape API clients read.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	out := historyEntryJSON{
		Action:    e.Action,
		UserID:    e.UserID,
		Reason:    e.Reason,
		Timestamp: e.Timestamp,
	}
	if e.Change != nil {
		out.PreviousValues, out.NewValues = e.Change.Values()
	}
	return json.Marshal(out)
}

// AssignedTo returns the new assignee of a LEAD_ASSIGNED entry.
func (e HistoryEntry) AssignedTo() (uuid.UUID, bool) {
	if e.Action != ActionLeadAssigned {
		return uuid.Nil, false
	}
	a, ok := e.Change.(Assignment)
	if !ok || a.New.AssignedTo == nil {
		return uuid.Nil, false
	}
	return *a.New.AssignedTo, true
}
