// Package repository persists leads and their append-only history.
package repository

import (
	"context"
	"errors"

	"movecrm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("lead not found")

// MutateFunc changes a locked lead in place. Returning an error aborts the
// write and nothing is persisted.
type MutateFunc func(lead *domain.Lead) error

// ListParams filters List. A nil AssignedTo lists every lead.
type ListParams struct {
	AssignedTo *uuid.UUID
}

// LeadReader provides read-only access to leads.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]*domain.Lead, error)
}

// LeadWriter persists leads. Mutate serializes writers per lead and stores the
// changed fields together with every history entry fn appended.
type LeadWriter interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (lead *domain.Lead, appended []domain.HistoryEntry, err error)
}

// LeadStore is what the lifecycle service needs.
type LeadStore interface {
	LeadReader
	LeadWriter
}
