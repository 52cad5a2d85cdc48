package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-sports/academy-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "course_id", "paid_coach_id", "originally_scheduled_coach_id", "session_date", "start_time", "end_time", "session_type", "computed_hours", "applied_rate", "rate_source", "subtotal", "created_at", "updated_at"}).
		AddRow("s1", "course-1", "coach-1", nil, now, "16:00", "17:30", "group", 1.5, 100.0, "coach_rate", 150.0, now, now)
}

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "course-1", "coach-1", nil, sqlmock.AnyArg(), "16:00", "17:30", "group", 1.5, 100.0, "coach_rate", 150.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.Session{
		CourseID:      "course-1",
		PaidCoachID:   "coach-1",
		SessionDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime:     "16:00",
		EndTime:       "17:30",
		SessionType:   models.SessionTypeGroup,
		ComputedHours: 1.5,
		AppliedRate:   100.0,
		RateSource:    models.RateSourceCoach,
		Subtotal:      150.0,
	}
	require.NoError(t, repo.Create(context.Background(), session))
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(sessionRows())

	session, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 150.0, session.Subtotal)
	assert.Equal(t, models.RateSourceCoach, session.RateSource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery("FROM sessions WHERE 1=1").
		WithArgs("coach-1").
		WillReturnRows(sessionRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("coach-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	sessions, total, err := repo.List(context.Background(), models.SessionFilter{CoachID: "coach-1"})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("DELETE FROM sessions").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
