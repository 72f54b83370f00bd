// Package repository persists the system-wide audit trail of lead actions.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one recorded lead action.
type Entry struct {
	ID             uuid.UUID       `json:"id"`
	LeadID         uuid.UUID       `json:"leadId"`
	UserID         *uuid.UUID      `json:"userId,omitempty"`
	Action         string          `json:"action"`
	PreviousValues json.RawMessage `json:"previousValues,omitempty"`
	NewValues      json.RawMessage `json:"newValues,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	CreatedAt      time.Time       `json:"timestamp"`
}

// ListParams filters List. A nil LeadID lists entries for every lead.
type ListParams struct {
	LeadID *uuid.UUID
	Limit  int
	Offset int
}

// Writer is what the recorder needs.
type Writer interface {
	Insert(ctx context.Context, e Entry) error
}

// Reader is what the admin handler needs.
type Reader interface {
	List(ctx context.Context, params ListParams) ([]Entry, int, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ Writer = (*Repository)(nil)
	_ Reader = (*Repository)(nil)
)

func (r *Repository) Insert(ctx context.Context, e Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, lead_id, user_id, action, previous_values, new_values, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.LeadID, e.UserID, e.Action, nullJSON(e.PreviousValues), nullJSON(e.NewValues), e.Reason, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Entry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM audit_logs WHERE ($1::uuid IS NULL OR lead_id = $1)
	`, params.LeadID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, user_id, action, previous_values, new_values, reason, created_at
		FROM audit_logs
		WHERE ($1::uuid IS NULL OR lead_id = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, params.LeadID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.UserID, &e.Action, &e.PreviousValues, &e.NewValues, &e.Reason, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
