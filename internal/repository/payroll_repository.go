package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nile-sports/academy-api/internal/models"
)

// PayrollRepository reads the monthly aggregates payroll is built from.
// Session and adjustment totals are fetched separately so neither join can
// multiply the other's rows.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository constructs a PayrollRepository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// SessionTotals sums stored session subtotals per coach for a YYYY-MM month.
// Totals read the frozen subtotal column, never recomputing from rates.
func (r *PayrollRepository) SessionTotals(ctx context.Context, month string) ([]models.PayrollSessionTotals, error) {
	const query = `SELECT s.paid_coach_id AS coach_id,
			u.full_name AS coach_name,
			u.email AS coach_email,
			COUNT(*) AS session_count,
			COALESCE(SUM(s.computed_hours), 0) AS total_hours,
			COALESCE(SUM(s.subtotal), 0) AS sessions_total
		FROM sessions s
		JOIN users u ON u.id = s.paid_coach_id
		WHERE to_char(s.session_date, 'YYYY-MM') = $1
		GROUP BY s.paid_coach_id, u.full_name, u.email
		ORDER BY u.full_name ASC`
	var totals []models.PayrollSessionTotals
	if err := r.db.SelectContext(ctx, &totals, query, month); err != nil {
		return nil, fmt.Errorf("payroll session totals: %w", err)
	}
	return totals, nil
}

// AdjustmentTotals sums bonuses and discounts per coach for a YYYY-MM month.
func (r *PayrollRepository) AdjustmentTotals(ctx context.Context, month string) ([]models.PayrollAdjustmentTotals, error) {
	const query = `SELECT coach_id,
			COALESCE(SUM(CASE WHEN type = 'bonus' THEN amount ELSE 0 END), 0) AS bonus_total,
			COALESCE(SUM(CASE WHEN type = 'discount' THEN amount ELSE 0 END), 0) AS discount_total
		FROM adjustments
		WHERE month = $1
		GROUP BY coach_id`
	var totals []models.PayrollAdjustmentTotals
	if err := r.db.SelectContext(ctx, &totals, query, month); err != nil {
		return nil, fmt.Errorf("payroll adjustment totals: %w", err)
	}
	return totals, nil
}
