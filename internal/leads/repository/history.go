package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"movecrm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// History rows are insert-only. position is the entry's index in the lead's
// history; (lead_id, position) is unique, so a lost update would fail loudly.

func insertHistory(ctx context.Context, q querier, leadID uuid.UUID, offset int, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, e := range entries {
		payload, err := json.Marshal(e.Change)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", e.Action, err)
		}
		batch.Queue(`
			INSERT INTO lead_history (lead_id, position, action, user_id, reason, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, leadID, offset+i, e.Action, e.UserID, e.Reason, payload, e.Timestamp)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()
	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return nil
}

func loadHistory(ctx context.Context, q querier, leadIDs []uuid.UUID) (map[uuid.UUID][]domain.HistoryEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT lead_id, action, user_id, reason, payload, created_at
		FROM lead_history
		WHERE lead_id = ANY($1)
		ORDER BY lead_id, position
	`, leadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.HistoryEntry, len(leadIDs))
	for _, id := range leadIDs {
		out[id] = []domain.HistoryEntry{}
	}

	for rows.Next() {
		var (
			leadID  uuid.UUID
			action  domain.Action
			userID  *uuid.UUID
			reason  string
			payload []byte
			at      time.Time
		)
		if err := rows.Scan(&leadID, &action, &userID, &reason, &payload, &at); err != nil {
			return nil, err
		}
		change, err := domain.DecodeChange(action, payload)
		if err != nil {
			return nil, err
		}
		out[leadID] = append(out[leadID], domain.HistoryEntry{
			Action:    action,
			UserID:    userID,
			Reason:    reason,
			Timestamp: at,
			Change:    change,
		})
	}
	return out, rows.Err()
}
