// Package domain holds the lead aggregate and the pure rules around it: the
// status pipeline, the history log and the per-viewer visibility filter.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MoveType string

const (
	MoveResidential MoveType = "Residential"
	MoveCommercial  MoveType = "Commercial"
)

// NormalizeMoveType maps intake values onto the stored enum; the public form
// offers "Office", which is stored as Commercial.
func NormalizeMoveType(raw string) MoveType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "office", "commercial":
		return MoveCommercial
	case "residential":
		return MoveResidential
	default:
		return MoveType(strings.TrimSpace(raw))
	}
}

type PropertyType string

const (
	PropertyApartment        PropertyType = "Apartment"
	PropertyIndependentHouse PropertyType = "Independent House"
	PropertyOffice           PropertyType = "Office"
	PropertyOther            PropertyType = "Other"
)

type Lift string

const (
	LiftYes Lift = "Yes"
	LiftNo  Lift = "No"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type ItemCategory string

const (
	CategoryFurniture   ItemCategory = "Furniture"
	CategoryElectronics ItemCategory = "Electronics"
	CategoryFragile     ItemCategory = "Fragile"
	CategoryMisc        ItemCategory = "Misc"
)

type ItemSource string

const (
	SourceAI     ItemSource = "AI"
	SourceManual ItemSource = "MANUAL"
)

type FollowUpStatus string

const (
	FollowUpPending   FollowUpStatus = "PENDING"
	FollowUpCompleted FollowUpStatus = "COMPLETED"
)

// Profile holds the customer and move details captured at intake.
type Profile struct {
	FirstName          string       `json:"firstName" validate:"required"`
	LastName           string       `json:"lastName" validate:"required"`
	Email              string       `json:"email" validate:"required,email"`
	Phone              string       `json:"phone" validate:"required"`
	MoveType           MoveType     `json:"moveType" validate:"required,oneof=Residential Commercial"`
	MoveDate           time.Time    `json:"moveDate" validate:"required"`
	OriginAddress      string       `json:"originAddress" validate:"required"`
	OriginPincode      string       `json:"originPincode" validate:"required"`
	DestinationAddress string       `json:"destinationAddress" validate:"required"`
	DestinationPincode string       `json:"destinationPincode" validate:"required"`
	PropertyType       PropertyType `json:"propertyType" validate:"required,oneof=Apartment 'Independent House' Office Other"`
	PickupFloor        int          `json:"pickupFloor" validate:"gte=0"`
	DropFloor          int          `json:"dropFloor" validate:"gte=0"`
	PickupLift         Lift         `json:"pickupLift" validate:"required,oneof=Yes No"`
	DropLift           Lift         `json:"dropLift" validate:"required,oneof=Yes No"`
}

// WithDefaults fills the optional logistics fields the intake form may omit.
func (p Profile) WithDefaults() Profile {
	if p.PropertyType == "" {
		p.PropertyType = PropertyApartment
	}
	if p.PickupLift == "" {
		p.PickupLift = LiftNo
	}
	if p.DropLift == "" {
		p.DropLift = LiftNo
	}
	return p
}

type Item struct {
	Name      string       `json:"name" validate:"required"`
	Quantity  int          `json:"quantity" validate:"gte=1"`
	UnitPrice float64      `json:"unitPrice" validate:"gte=0"`
	Category  ItemCategory `json:"category" validate:"required,oneof=Furniture Electronics Fragile Misc"`
	Fragile   bool         `json:"fragile"`
	Source    ItemSource   `json:"source" validate:"required,oneof=AI MANUAL"`
}

type Media struct {
	FilePath    string    `json:"filePath"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type FollowUp struct {
	ID          uuid.UUID      `json:"id"`
	ScheduledAt time.Time      `json:"scheduledAt"`
	Note        string         `json:"note"`
	Status      FollowUpStatus `json:"status"`
	CreatedBy   *uuid.UUID     `json:"createdBy,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// Estimate is the AI collaborator's output consumed at intake.
type Estimate struct {
	Items      []Item
	Price      float64
	Volume     string
	Confidence float64
}

// Lead is the aggregate root. All mutation goes through its methods so that a
// field change and its history entry are always applied together.
type Lead struct {
	ID uuid.UUID `json:"id"`
	Profile
	Priority   Priority   `json:"priority"`
	Status     Status     `json:"status"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	Items      []Item     `json:"items"`
	Media      []Media    `json:"media"`

	AIEstimatedPrice  float64 `json:"aiEstimatedPrice"`
	AIEstimatedVolume string  `json:"aiEstimatedVolume"`
	AIConfidenceScore float64 `json:"aiConfidenceScore"`

	FinalPrice            *float64 `json:"finalPrice,omitempty"`
	PriceAdjustmentReason string   `json:"priceAdjustmentReason,omitempty"`
	EstimationConfirmed   bool     `json:"estimationConfirmed"`

	CancellationReason string     `json:"cancellationReason,omitempty"`
	CancelledBy        *uuid.UUID `json:"cancelledBy,omitempty"`
	CancellationDate   *time.Time `json:"cancellationDate,omitempty"`

	History   []HistoryEntry `json:"history"`
	FollowUps []FollowUp     `json:"followUps"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newLead(profile Profile, at time.Time) *Lead {
	return &Lead{
		ID:        uuid.New(),
		Profile:   profile,
		Priority:  PriorityMedium,
		Status:    StatusNew,
		Items:     []Item{},
		Media:     []Media{},
		History:   []HistoryEntry{},
		FollowUps: []FollowUp{},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// NewAssessmentLead creates a lead from the public intake form and the AI estimate.
func NewAssessmentLead(profile Profile, est Estimate, media []Media, at time.Time) *Lead {
	l := newLead(profile, at)
	l.AIEstimatedPrice = est.Price
	l.AIEstimatedVolume = est.Volume
	l.AIConfidenceScore = est.Confidence
	for _, it := range est.Items {
		it.Source = SourceAI
		l.Items = append(l.Items, it)
	}
	for _, m := range media {
		if m.UploadedAt.IsZero() {
			m.UploadedAt = at
		}
		l.Media = append(l.Media, m)
	}

	l.record(HistoryEntry{
		Action:    ActionLeadCreated,
		Timestamp: at,
		Change:    LeadCreated{Status: StatusNew, AIEstimatedPrice: est.Price},
	})
	return l
}

// NewManualLead creates a lead entered by staff.
func NewManualLead(profile Profile, actor Actor, at time.Time) *Lead {
	l := newLead(profile, at)
	l.record(HistoryEntry{
		Action:    ActionManualEntry,
		UserID:    actor.userRef(),
		Timestamp: at,
		Change:    ManualEntry{Source: ManualEntrySource},
	})
	return l
}

// Assign sets or clears the assignee and forces the status to ASSIGNED or NEW.
// The status change bypasses the pipeline rules.
func (l *Lead) Assign(actor Actor, assignee *uuid.UUID, at time.Time) {
	prev := AssignmentSnapshot{AssignedTo: copyID(l.AssignedTo), Status: l.Status}

	action := ActionLeadUnassigned
	l.AssignedTo = nil
	l.Status = StatusNew
	if assignee != nil {
		action = ActionLeadAssigned
		l.AssignedTo = copyID(assignee)
		l.Status = StatusAssigned
	}

	l.record(HistoryEntry{
		Action:    action,
		UserID:    actor.userRef(),
		Timestamp: at,
		Change: Assignment{
			Previous: prev,
			New:      AssignmentSnapshot{AssignedTo: copyID(l.AssignedTo), Status: l.Status},
		},
	})
}

// ReplaceInventory swaps the whole item list. A lead still in ASSIGNED moves
// to IN_PROGRESS first, which records a second entry. Returns the number of
// entries appended.
func (l *Lead) ReplaceInventory(actor Actor, items []Item, at time.Time) int {
	replaced := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Source == "" {
			it.Source = SourceManual
		}
		replaced = append(replaced, it)
	}
	l.Items = replaced

	appended := 0
	if l.Status == StatusAssigned {
		l.forceStatus(actor, StatusInProgress, ReasonInventoryReview, at)
		appended++
	}

	l.record(HistoryEntry{
		Action:    ActionInventoryUpdated,
		UserID:    actor.userRef(),
		Timestamp: at,
		Change:    InventoryChange{Items: append([]Item(nil), replaced...)},
	})
	return appended + 1
}

// FinalizePrice records the confirmed price.
func (l *Lead) FinalizePrice(actor Actor, price float64, reason string, at time.Time) {
	p := price
	l.FinalPrice = &p
	l.PriceAdjustmentReason = reason
	l.EstimationConfirmed = true

	l.record(HistoryEntry{
		Action:    ActionPriceFinalized,
		UserID:    actor.userRef(),
		Reason:    reason,
		Timestamp: at,
		Change:    PriceChange{FinalPrice: price},
	})
}

// AddNote appends a note. The text is carried as the entry's reason.
func (l *Lead) AddNote(actor Actor, note string, at time.Time) {
	l.record(HistoryEntry{
		Action:    ActionNoteAdded,
		UserID:    actor.userRef(),
		Reason:    note,
		Timestamp: at,
		Change:    NoteAdded{},
	})
}

// ScheduleFollowUp appends a pending follow-up owned by the lead.
func (l *Lead) ScheduleFollowUp(actor Actor, scheduledAt time.Time, note string, at time.Time) FollowUp {
	fu := FollowUp{
		ID:          uuid.New(),
		ScheduledAt: scheduledAt,
		Note:        note,
		Status:      FollowUpPending,
		CreatedBy:   actor.userRef(),
		CreatedAt:   at,
	}
	l.FollowUps = append(l.FollowUps, fu)

	l.record(HistoryEntry{
		Action:    ActionFollowUpScheduled,
		UserID:    actor.userRef(),
		Reason:    "Scheduled for: " + scheduledAt.Format(time.RFC1123) + " - " + note,
		Timestamp: at,
		Change:    FollowUpScheduled{FollowUpID: fu.ID, ScheduledAt: scheduledAt, Note: note},
	})
	return fu
}

// CompleteFollowUp marks one follow-up done. ok is false when the id is unknown.
func (l *Lead) CompleteFollowUp(actor Actor, followUpID uuid.UUID, at time.Time) (ok bool) {
	idx := l.followUpIndex(followUpID)
	if idx < 0 {
		return false
	}

	completedAt := at
	l.FollowUps[idx].Status = FollowUpCompleted
	l.FollowUps[idx].CompletedAt = &completedAt

	l.record(HistoryEntry{
		Action:    ActionFollowUpCompleted,
		UserID:    actor.userRef(),
		Reason:    "Completed follow-up: " + l.FollowUps[idx].Note,
		Timestamp: at,
		Change:    FollowUpCompletedChange{FollowUpID: followUpID},
	})
	return true
}

// FollowUp looks up a follow-up by id.
func (l *Lead) FollowUp(id uuid.UUID) (FollowUp, bool) {
	idx := l.followUpIndex(id)
	if idx < 0 {
		return FollowUp{}, false
	}
	return l.FollowUps[idx], true
}

// UpdateLogistics replaces the profile with an already validated one.
func (l *Lead) UpdateLogistics(actor Actor, next Profile, at time.Time) {
	prev := l.Profile
	l.Profile = next

	l.record(HistoryEntry{
		Action:    ActionLogisticsUpdated,
		UserID:    actor.userRef(),
		Timestamp: at,
		Change:    LogisticsChange{Previous: prev, New: next},
	})
}

func (l *Lead) followUpIndex(id uuid.UUID) int {
	for i := range l.FollowUps {
		if l.FollowUps[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Lead) record(entry HistoryEntry) {
	l.History = append(l.History, entry)
	l.UpdatedAt = entry.Timestamp
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
