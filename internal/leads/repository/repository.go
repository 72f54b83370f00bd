package repository

import (
	"context"
	"errors"
	"fmt"

	"movecrm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ LeadStore = (*Repository)(nil)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const leadColumns = `
	id, first_name, last_name, email, phone, move_type, move_date,
	origin_address, origin_pincode, destination_address, destination_pincode,
	property_type, pickup_floor, drop_floor, pickup_lift, drop_lift,
	priority, status, assigned_to, items, media, follow_ups,
	ai_estimated_price, ai_estimated_volume, ai_confidence_score,
	final_price, price_adjustment_reason, estimation_confirmed,
	cancellation_reason, cancelled_by, cancellation_date,
	created_at, updated_at`

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.MoveType, &l.MoveDate,
		&l.OriginAddress, &l.OriginPincode, &l.DestinationAddress, &l.DestinationPincode,
		&l.PropertyType, &l.PickupFloor, &l.DropFloor, &l.PickupLift, &l.DropLift,
		&l.Priority, &l.Status, &l.AssignedTo, &l.Items, &l.Media, &l.FollowUps,
		&l.AIEstimatedPrice, &l.AIEstimatedVolume, &l.AIConfidenceScore,
		&l.FinalPrice, &l.PriceAdjustmentReason, &l.EstimationConfirmed,
		&l.CancellationReason, &l.CancelledBy, &l.CancellationDate,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) Create(ctx context.Context, lead *domain.Lead) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33)
	`,
		lead.ID, lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.MoveType, lead.MoveDate,
		lead.OriginAddress, lead.OriginPincode, lead.DestinationAddress, lead.DestinationPincode,
		lead.PropertyType, lead.PickupFloor, lead.DropFloor, lead.PickupLift, lead.DropLift,
		lead.Priority, lead.Status, lead.AssignedTo, lead.Items, lead.Media, lead.FollowUps,
		lead.AIEstimatedPrice, lead.AIEstimatedVolume, lead.AIConfidenceScore,
		lead.FinalPrice, lead.PriceAdjustmentReason, lead.EstimationConfirmed,
		lead.CancellationReason, lead.CancelledBy, lead.CancellationDate,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}

	if err := insertHistory(ctx, tx, lead.ID, 0, lead.History); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	byLead, err := loadHistory(ctx, r.pool, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	lead.History = byLead[id]
	return lead, nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]*domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE ($1::uuid IS NULL OR assigned_to = $1)
		ORDER BY created_at DESC
	`, params.AssignedTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]*domain.Lead, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
		ids = append(ids, lead.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return leads, nil
	}
	byLead, err := loadHistory(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for _, lead := range leads {
		lead.History = byLead[lead.ID]
	}
	return leads, nil
}

// Mutate locks the lead row for the duration of the transaction, so two
// concurrent mutations on one lead run one after the other and both history
// appends survive.
func (r *Repository) Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*domain.Lead, []domain.HistoryEntry, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead, err := scanLead(tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, nil, err
	}
	byLead, err := loadHistory(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, nil, err
	}
	lead.History = byLead[id]
	before := len(lead.History)

	if err := fn(lead); err != nil {
		return nil, nil, err
	}
	if len(lead.History) < before {
		return nil, nil, fmt.Errorf("lead %s: history must not shrink", id)
	}

	_, err = tx.Exec(ctx, `
		UPDATE leads SET
			first_name = $2, last_name = $3, email = $4, phone = $5, move_type = $6, move_date = $7,
			origin_address = $8, origin_pincode = $9, destination_address = $10, destination_pincode = $11,
			property_type = $12, pickup_floor = $13, drop_floor = $14, pickup_lift = $15, drop_lift = $16,
			priority = $17, status = $18, assigned_to = $19, items = $20, follow_ups = $21,
			final_price = $22, price_adjustment_reason = $23, estimation_confirmed = $24,
			cancellation_reason = $25, cancelled_by = $26, cancellation_date = $27,
			updated_at = $28
		WHERE id = $1
	`,
		lead.ID, lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.MoveType, lead.MoveDate,
		lead.OriginAddress, lead.OriginPincode, lead.DestinationAddress, lead.DestinationPincode,
		lead.PropertyType, lead.PickupFloor, lead.DropFloor, lead.PickupLift, lead.DropLift,
		lead.Priority, lead.Status, lead.AssignedTo, lead.Items, lead.FollowUps,
		lead.FinalPrice, lead.PriceAdjustmentReason, lead.EstimationConfirmed,
		lead.CancellationReason, lead.CancelledBy, lead.CancellationDate,
		lead.UpdatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update lead: %w", err)
	}

	appended := lead.History[before:]
	if err := insertHistory(ctx, tx, lead.ID, before, appended); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return lead, append([]domain.HistoryEntry(nil), appended...), nil
}
