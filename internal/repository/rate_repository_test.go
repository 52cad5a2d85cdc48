package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-sports/academy-api/internal/models"
)

func newRateRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRateRepositoryFindEffective(t *testing.T) {
	db, mock, cleanup := newRateRepoMock(t)
	defer cleanup()
	repo := NewRateRepository(db)

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "course_id", "coach_id", "rate", "effective_from", "created_at"}).
		AddRow("r1", "course-1", "coach-1", 120.0, date.AddDate(0, -1, 0), time.Now())

	mock.ExpectQuery("SELECT id, course_id, coach_id, rate, effective_from, created_at").
		WithArgs("course-1", "coach-1", date).
		WillReturnRows(rows)

	rate, err := repo.FindEffective(context.Background(), "course-1", "coach-1", date)
	require.NoError(t, err)
	assert.Equal(t, 120.0, rate.Rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateRepositoryFindEffectiveNoRows(t *testing.T) {
	db, mock, cleanup := newRateRepoMock(t)
	defer cleanup()
	repo := NewRateRepository(db)

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, course_id, coach_id, rate, effective_from, created_at").
		WithArgs("course-1", "coach-9", date).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindEffective(context.Background(), "course-1", "coach-9", date)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRateRepoMock(t)
	defer cleanup()
	repo := NewRateRepository(db)

	mock.ExpectExec("INSERT INTO coach_course_rates").
		WithArgs(sqlmock.AnyArg(), "course-1", "coach-1", 95.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rate := &models.CoachCourseRate{
		CourseID:      "course-1",
		CoachID:       "coach-1",
		Rate:          95.0,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), rate))
	assert.NotEmpty(t, rate.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRateRepoMock(t)
	defer cleanup()
	repo := NewRateRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "coach_id", "rate", "effective_from", "created_at"}).
		AddRow("r2", "course-1", "coach-1", 110.0, time.Now(), time.Now()).
		AddRow("r1", "course-1", "coach-1", 95.0, time.Now().AddDate(0, -2, 0), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(rows)

	rates, err := repo.ListByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Len(t, rates, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
