package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nile-sports/academy-api/internal/models"
)

// AdjustmentRepository manages persistence for payroll adjustments.
type AdjustmentRepository struct {
	db *sqlx.DB
}

// NewAdjustmentRepository constructs an AdjustmentRepository.
func NewAdjustmentRepository(db *sqlx.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

const adjustmentColumns = `id, coach_id, month, type, amount, notes, created_at, updated_at`

// FindByID fetches an adjustment by ID.
func (r *AdjustmentRepository) FindByID(ctx context.Context, id string) (*models.Adjustment, error) {
	query := fmt.Sprintf("SELECT %s FROM adjustments WHERE id = $1", adjustmentColumns)
	var adj models.Adjustment
	if err := r.db.GetContext(ctx, &adj, query, id); err != nil {
		return nil, err
	}
	return &adj, nil
}

// List returns adjustments for a month, optionally scoped to one coach.
func (r *AdjustmentRepository) List(ctx context.Context, month, coachID string) ([]models.Adjustment, error) {
	conditions := []string{"month = $1"}
	args := []interface{}{month}
	if coachID != "" {
		conditions = append(conditions, "coach_id = $2")
		args = append(args, coachID)
	}
	query := fmt.Sprintf("SELECT %s FROM adjustments WHERE %s ORDER BY created_at DESC", adjustmentColumns, strings.Join(conditions, " AND "))
	var adjustments []models.Adjustment
	if err := r.db.SelectContext(ctx, &adjustments, query, args...); err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	return adjustments, nil
}

// Create inserts a new adjustment record.
func (r *AdjustmentRepository) Create(ctx context.Context, adj *models.Adjustment) error {
	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = now
	}
	adj.UpdatedAt = now

	const query = `INSERT INTO adjustments (id, coach_id, month, type, amount, notes, created_at, updated_at)
		VALUES (:id, :coach_id, :month, :type, :amount, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, adj); err != nil {
		return fmt.Errorf("create adjustment: %w", err)
	}
	return nil
}

// Update modifies an existing adjustment.
func (r *AdjustmentRepository) Update(ctx context.Context, adj *models.Adjustment) error {
	adj.UpdatedAt = time.Now().UTC()
	const query = `UPDATE adjustments SET type = :type, amount = :amount, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, adj); err != nil {
		return fmt.Errorf("update adjustment: %w", err)
	}
	return nil
}

// Delete removes an adjustment permanently.
func (r *AdjustmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM adjustments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete adjustment: %w", err)
	}
	return nil
}
