package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nile-sports/academy-api/internal/models"
)

// RateRepository manages the append-only coach rate history.
type RateRepository struct {
	db *sqlx.DB
}

// NewRateRepository constructs a RateRepository.
func NewRateRepository(db *sqlx.DB) *RateRepository {
	return &RateRepository{db: db}
}

// Create appends a new rate history row. Existing rows are never mutated;
// corrections are made by inserting a newer effective_from.
func (r *RateRepository) Create(ctx context.Context, rate *models.CoachCourseRate) error {
	if rate.ID == "" {
		rate.ID = uuid.NewString()
	}
	if rate.CreatedAt.IsZero() {
		rate.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO coach_course_rates (id, course_id, coach_id, rate, effective_from, created_at)
		VALUES (:id, :course_id, :coach_id, :rate, :effective_from, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rate); err != nil {
		return fmt.Errorf("create coach course rate: %w", err)
	}
	return nil
}

// FindEffective returns the rate row applicable for the given session date:
// the row with the latest effective_from not after the date, ties broken by
// most recently created. Returns sql.ErrNoRows when no row qualifies.
func (r *RateRepository) FindEffective(ctx context.Context, courseID, coachID string, date time.Time) (*models.CoachCourseRate, error) {
	const query = `SELECT id, course_id, coach_id, rate, effective_from, created_at
		FROM coach_course_rates
		WHERE course_id = $1 AND coach_id = $2 AND effective_from <= $3
		ORDER BY effective_from DESC, created_at DESC
		LIMIT 1`
	var rate models.CoachCourseRate
	if err := r.db.GetContext(ctx, &rate, query, courseID, coachID, date); err != nil {
		return nil, err
	}
	return &rate, nil
}

// ListByCourse returns the full rate history for a course, newest first.
func (r *RateRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CoachCourseRate, error) {
	const query = `SELECT id, course_id, coach_id, rate, effective_from, created_at
		FROM coach_course_rates
		WHERE course_id = $1
		ORDER BY effective_from DESC, created_at DESC`
	var rates []models.CoachCourseRate
	if err := r.db.SelectContext(ctx, &rates, query, courseID); err != nil {
		return nil, fmt.Errorf("list rates by course: %w", err)
	}
	return rates, nil
}

// ListByCoach returns the full rate history for a coach, newest first.
func (r *RateRepository) ListByCoach(ctx context.Context, coachID string) ([]models.CoachCourseRate, error) {
	const query = `SELECT id, course_id, coach_id, rate, effective_from, created_at
		FROM coach_course_rates
		WHERE coach_id = $1
		ORDER BY effective_from DESC, created_at DESC`
	var rates []models.CoachCourseRate
	if err := r.db.SelectContext(ctx, &rates, query, coachID); err != nil {
		return nil, fmt.Errorf("list rates by coach: %w", err)
	}
	return rates, nil
}
