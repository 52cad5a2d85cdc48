package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-sports/academy-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRows(id string, ts time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "coach_id", "session_id", "latitude", "longitude", "distance_from_academy", "attendance_timestamp", "status", "marked_by_admin", "created_at"}).
		AddRow(id, "coach-1", "session-1", 29.0737, 31.1122, 12.5, ts, "present", false, ts)
}

func TestAttendanceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "coach-1", "session-1", 29.0737, 31.1122, 12.5, sqlmock.AnyArg(), "present", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.AttendanceRecord{
		CoachID:             "coach-1",
		SessionID:           "session-1",
		Latitude:            29.0737,
		Longitude:           31.1122,
		DistanceFromAcademy: 12.5,
		AttendanceTimestamp: time.Now().UTC(),
		Status:              models.AttendanceStatusPresent,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindInWindow(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery("SELECT id, coach_id, session_id").
		WithArgs("coach-1", "session-1", from, to).
		WillReturnRows(attendanceRows("a1", from.Add(9*time.Hour)))

	record, err := repo.FindInWindow(context.Background(), "coach-1", "session-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, "a1", record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindInWindowEmpty(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery("SELECT id, coach_id, session_id").
		WithArgs("coach-1", "session-1", from, to).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindInWindow(context.Background(), "coach-1", "session-1", from, to)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("DELETE FROM attendance_records").
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryList(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	ts := time.Now().UTC()
	mock.ExpectQuery("SELECT id, coach_id, session_id").
		WithArgs("coach-1").
		WillReturnRows(attendanceRows("a1", ts))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("coach-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.AttendanceFilter{CoachID: "coach-1"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
