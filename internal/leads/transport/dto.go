package transport

import (
	"fmt"
	"strings"
	"time"

	"movecrm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// ProfileRequest carries the move details. It binds from both the public
// multipart form and the staff JSON body.
type ProfileRequest struct {
	FirstName          string `json:"firstName" form:"firstName" validate:"required,max=100"`
	LastName           string `json:"lastName" form:"lastName" validate:"required,max=100"`
	Email              string `json:"email" form:"email" validate:"required,email"`
	Phone              string `json:"phone" form:"phone" validate:"required,min=6,max=32"`
	MoveType           string `json:"moveType" form:"moveType" validate:"required"`
	MoveDate           string `json:"moveDate" form:"moveDate" validate:"required"`
	OriginAddress      string `json:"originAddress" form:"originAddress" validate:"required,max=500"`
	OriginPincode      string `json:"originPincode" form:"originPincode" validate:"required,max=12"`
	DestinationAddress string `json:"destinationAddress" form:"destinationAddress" validate:"required,max=500"`
	DestinationPincode string `json:"destinationPincode" form:"destinationPincode" validate:"required,max=12"`
	PropertyType       string `json:"propertyType" form:"propertyType"`
	PickupFloor        int    `json:"pickupFloor" form:"pickupFloor" validate:"gte=0,lte=200"`
	DropFloor          int    `json:"dropFloor" form:"dropFloor" validate:"gte=0,lte=200"`
	PickupLift         string `json:"pickupLift" form:"pickupLift"`
	DropLift           string `json:"dropLift" form:"dropLift"`
}

var moveDateLayouts = []string{time.RFC3339, "2006-01-02"}

// ToProfile converts the request. Enum values are checked by the service.
func (r ProfileRequest) ToProfile() (domain.Profile, error) {
	moveDate, err := parseMoveDate(r.MoveDate)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		FirstName:          r.FirstName,
		LastName:           r.LastName,
		Email:              r.Email,
		Phone:              r.Phone,
		MoveType:           domain.MoveType(r.MoveType),
		MoveDate:           moveDate,
		OriginAddress:      r.OriginAddress,
		OriginPincode:      r.OriginPincode,
		DestinationAddress: r.DestinationAddress,
		DestinationPincode: r.DestinationPincode,
		PropertyType:       domain.PropertyType(r.PropertyType),
		PickupFloor:        r.PickupFloor,
		DropFloor:          r.DropFloor,
		PickupLift:         domain.Lift(r.PickupLift),
		DropLift:           domain.Lift(r.DropLift),
	}, nil
}

func parseMoveDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range moveDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("moveDate %q is not a date", raw)
}

type AssignRequest struct {
	// UserID empty, blank or null unassigns the lead.
	UserID *string `json:"userId"`
}

// Assignee returns the target user, or nil to unassign.
func (r AssignRequest) Assignee() (*uuid.UUID, error) {
	if r.UserID == nil || strings.TrimSpace(*r.UserID) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*r.UserID))
	if err != nil {
		return nil, fmt.Errorf("userId %q is not a valid id", *r.UserID)
	}
	return &id, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,pipeline_status"`
	Reason string `json:"reason" validate:"max=1000"`
}

type ItemRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	Category  string  `json:"category" validate:"required,oneof=Furniture Electronics Fragile Misc"`
	Fragile   bool    `json:"fragile"`
	Source    string  `json:"source" validate:"omitempty,oneof=AI MANUAL"`
}

type UpdateItemsRequest struct {
	Items []ItemRequest `json:"items" validate:"dive"`
}

func (r UpdateItemsRequest) ToItems() []domain.Item {
	items := make([]domain.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.Item{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Category:  domain.ItemCategory(it.Category),
			Fragile:   it.Fragile,
			Source:    domain.ItemSource(it.Source),
		})
	}
	return items
}

type FinalizePriceRequest struct {
	Price  *float64 `json:"price" validate:"required,gte=0"`
	Reason string   `json:"reason" validate:"max=1000"`
}

type AddNoteRequest struct {
	Note string `json:"note" validate:"required,max=4000"`
}

type AddFollowUpRequest struct {
	DateTime time.Time `json:"dateTime" validate:"required"`
	Note     string    `json:"note" validate:"required,max=1000"`
}

type CreatedResponse struct {
	Message string    `json:"message"`
	LeadID  uuid.UUID `json:"leadId"`
}

type MediaURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
