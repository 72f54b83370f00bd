package domain

import (
	"fmt"
	"strings"
)

// Status is a lead's position in the sales pipeline.
type Status string

const (
	StatusNew          Status = "NEW"
	StatusAssigned     Status = "ASSIGNED"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusContacted    Status = "CONTACTED"
	StatusProposalSent Status = "PROPOSAL_SENT"
	StatusBooked       Status = "BOOKED"
	StatusHandover     Status = "HANDOVER"
	StatusCompleted    Status = "COMPLETED"

	// StatusCancelled sits outside the ordered pipeline.
	StatusCancelled Status = "CANCELLED"
)

// Pipeline is the fixed forward order every lead moves through.
var Pipeline = []Status{
	StatusNew,
	StatusAssigned,
	StatusInProgress,
	StatusContacted,
	StatusProposalSent,
	StatusBooked,
	StatusHandover,
	StatusCompleted,
}

// Index returns the position of s in Pipeline, or -1 for CANCELLED and unknown values.
func (s Status) Index() int {
	for i, p := range Pipeline {
		if p == s {
			return i
		}
	}
	return -1
}

// Next returns the single status a lead may step forward to.
// ok is false for COMPLETED, CANCELLED and unknown values.
func (s Status) Next() (next Status, ok bool) {
	idx := s.Index()
	if idx < 0 || idx+1 >= len(Pipeline) {
		return "", false
	}
	return Pipeline[idx+1], true
}

// IsTerminal reports whether no further cancellation is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid reports whether s is one of the enumerated values.
func (s Status) IsValid() bool {
	return s == StatusCancelled || s.Index() >= 0
}

// ParseStatus accepts any casing and surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}
