package repository

import (
	"context"
	"sort"
	"sync"

	"movecrm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// MemoryStore is a LeadStore kept in process memory. Mutations hold a single
// lock, so it gives the same serialization guarantee as the row lock in
// Repository. Used by tests and local runs without a database.
type MemoryStore struct {
	mu    sync.Mutex
	leads map[uuid.UUID]*domain.Lead
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: make(map[uuid.UUID]*domain.Lead)}
}

var _ LeadStore = (*MemoryStore)(nil)

func (m *MemoryStore) Create(_ context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneLead(lead), nil
}

func (m *MemoryStore) List(_ context.Context, params ListParams) ([]*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		if params.AssignedTo != nil && (lead.AssignedTo == nil || *lead.AssignedTo != *params.AssignedTo) {
			continue
		}
		out = append(out, cloneLead(lead))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Mutate(_ context.Context, id uuid.UUID, fn MutateFunc) (*domain.Lead, []domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.leads[id]
	if !ok {
		return nil, nil, ErrNotFound
	}

	// fn works on a copy so a rejected mutation leaves nothing behind.
	working := cloneLead(stored)
	before := len(working.History)
	if err := fn(working); err != nil {
		return nil, nil, err
	}

	m.leads[id] = cloneLead(working)
	appended := append([]domain.HistoryEntry(nil), working.History[before:]...)
	return working, appended, nil
}

func cloneLead(l *domain.Lead) *domain.Lead {
	cp := *l
	cp.AssignedTo = cloneID(l.AssignedTo)
	cp.CancelledBy = cloneID(l.CancelledBy)
	if l.FinalPrice != nil {
		p := *l.FinalPrice
		cp.FinalPrice = &p
	}
	if l.CancellationDate != nil {
		d := *l.CancellationDate
		cp.CancellationDate = &d
	}
	cp.Items = append([]domain.Item{}, l.Items...)
	cp.Media = append([]domain.Media{}, l.Media...)
	cp.History = append([]domain.HistoryEntry{}, l.History...)
	cp.FollowUps = make([]domain.FollowUp, len(l.FollowUps))
	for i, fu := range l.FollowUps {
		if fu.CompletedAt != nil {
			at := *fu.CompletedAt
			fu.CompletedAt = &at
		}
		cp.FollowUps[i] = fu
	}
	return &cp
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
