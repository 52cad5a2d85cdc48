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

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, coach_id, session_id, latitude, longitude, distance_from_academy, attendance_timestamp, status, marked_by_admin, created_at`

// Create inserts a new attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_records (id, coach_id, session_id, latitude, longitude, distance_from_academy, attendance_timestamp, status, marked_by_admin, created_at)
		VALUES (:id, :coach_id, :session_id, :latitude, :longitude, :distance_from_academy, :attendance_timestamp, :status, :marked_by_admin, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance record: %w", err)
	}
	return nil
}

// FindByID fetches an attendance record by ID.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance_records WHERE id = $1", attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindInWindow returns the existing record for a (coach, session) pair whose
// timestamp falls in [from, to), or sql.ErrNoRows when none exists. Used for
// the day-scoped duplicate guard.
func (r *AttendanceRepository) FindInWindow(ctx context.Context, coachID, sessionID string, from, to time.Time) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
		WHERE coach_id = $1 AND session_id = $2 AND attendance_timestamp >= $3 AND attendance_timestamp < $4
		ORDER BY attendance_timestamp DESC
		LIMIT 1`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, coachID, sessionID, from, to); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindLatest returns the most recent record for a (coach, session) pair
// regardless of day, or sql.ErrNoRows when none exists. The admin override
// path updates this row in place instead of inserting a duplicate.
func (r *AttendanceRepository) FindLatest(ctx context.Context, coachID, sessionID string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
		WHERE coach_id = $1 AND session_id = $2
		ORDER BY attendance_timestamp DESC
		LIMIT 1`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, coachID, sessionID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Update rewrites a record's status and admin-mark fields in place.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	const query = `UPDATE attendance_records SET latitude = :latitude, longitude = :longitude, distance_from_academy = :distance_from_academy, attendance_timestamp = :attendance_timestamp, status = :status, marked_by_admin = :marked_by_admin WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	return nil
}

// Delete removes an attendance record permanently.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM attendance_records WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete attendance record: %w", err)
	}
	return nil
}

// List returns attendance records matching filters along with total count.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	base := "FROM attendance_records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CoachID != "" {
		conditions = append(conditions, fmt.Sprintf("coach_id = $%d", len(args)+1))
		args = append(args, filter.CoachID)
	}
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("attendance_timestamp >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("attendance_timestamp < $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY attendance_timestamp DESC LIMIT %d OFFSET %d", attendanceColumns, base, size, offset)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}

	return records, total, nil
}
