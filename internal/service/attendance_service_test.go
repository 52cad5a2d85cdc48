package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nile-sports/academy-api/internal/models"
	"github.com/nile-sports/academy-api/pkg/config"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records []*models.AttendanceRecord
	deleted []string
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	cp := *record
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) FindInWindow(ctx context.Context, coachID, sessionID string, from, to time.Time) (*models.AttendanceRecord, error) {
	for _, r := range m.records {
		if r.CoachID == coachID && r.SessionID == sessionID &&
			!r.AttendanceTimestamp.Before(from) && r.AttendanceTimestamp.Before(to) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) FindLatest(ctx context.Context, coachID, sessionID string) (*models.AttendanceRecord, error) {
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.CoachID == coachID && r.SessionID == sessionID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.AttendanceRecord) error {
	for i, r := range m.records {
		if r.ID == record.ID {
			cp := *record
			m.records[i] = &cp
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	var out []models.AttendanceRecord
	for _, r := range m.records {
		if filter.CoachID != "" && r.CoachID != filter.CoachID {
			continue
		}
		if filter.SessionID != "" && r.SessionID != filter.SessionID {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

type mockSessionReader struct {
	sessions map[string]*models.Session
}

func (m *mockSessionReader) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if session, ok := m.sessions[id]; ok {
		cp := *session
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func academyConfig() config.AcademyConfig {
	return config.AcademyConfig{Latitude: 29.073694, Longitude: 31.112250, RadiusMeters: 50}
}

func newAttendanceFixture(t *testing.T) (*AttendanceService, *mockAttendanceRepo, string, string) {
	t.Helper()
	sessionID := uuid.NewString()
	coachID := uuid.NewString()
	repo := &mockAttendanceRepo{}
	sessions := &mockSessionReader{sessions: map[string]*models.Session{
		sessionID: {ID: sessionID, PaidCoachID: coachID},
	}}
	svc := NewAttendanceService(repo, sessions, academyConfig(), validator.New(), zap.NewNop())
	return svc, repo, sessionID, coachID
}

func coachClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleCoach}
}

func TestAttendanceMarkAtAcademyAccepted(t *testing.T) {
	svc, repo, sessionID, coachID := newAttendanceFixture(t)

	record, err := svc.Mark(context.Background(), coachClaims(coachID), MarkAttendanceRequest{
		SessionID: sessionID,
		Latitude:  29.073694,
		Longitude: 31.112250,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, record.DistanceFromAcademy)
	assert.Equal(t, models.AttendanceStatusPresent, record.Status)
	assert.False(t, record.MarkedByAdmin)
	assert.Len(t, repo.records, 1)
}

func TestAttendanceMarkTooFar(t *testing.T) {
	svc, repo, sessionID, coachID := newAttendanceFixture(t)

	// ~5km north of the academy.
	_, err := svc.Mark(context.Background(), coachClaims(coachID), MarkAttendanceRequest{
		SessionID: sessionID,
		Latitude:  29.073694 + 0.0449663,
		Longitude: 31.112250,
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTooFar.Code, appErr.Code)
	require.NotNil(t, appErr.Details)
	assert.InDelta(t, 5000.0, appErr.Details["distance_meters"].(float64), 5.0)
	assert.Equal(t, 50.0, appErr.Details["radius_meters"])
	assert.Empty(t, repo.records)
}

func TestAttendanceMarkDuplicateForToday(t *testing.T) {
	svc, repo, sessionID, coachID := newAttendanceFixture(t)

	req := MarkAttendanceRequest{SessionID: sessionID, Latitude: 29.073694, Longitude: 31.112250}
	_, err := svc.Mark(context.Background(), coachClaims(coachID), req)
	require.NoError(t, err)

	_, err = svc.Mark(context.Background(), coachClaims(coachID), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateForToday.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.records, 1)
}

func TestAttendanceMarkAllowedOnLaterDay(t *testing.T) {
	svc, repo, sessionID, coachID := newAttendanceFixture(t)

	day1 := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day1 }
	req := MarkAttendanceRequest{SessionID: sessionID, Latitude: 29.073694, Longitude: 31.112250}
	_, err := svc.Mark(context.Background(), coachClaims(coachID), req)
	require.NoError(t, err)

	svc.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	_, err = svc.Mark(context.Background(), coachClaims(coachID), req)
	require.NoError(t, err)
	assert.Len(t, repo.records, 2)
}

func TestAttendanceMarkRejectsInvalidCoordinates(t *testing.T) {
	svc, _, sessionID, coachID := newAttendanceFixture(t)

	_, err := svc.Mark(context.Background(), coachClaims(coachID), MarkAttendanceRequest{
		SessionID: sessionID,
		Latitude:  95,
		Longitude: 31.112250,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceMarkRejectsUnassignedCoach(t *testing.T) {
	svc, _, sessionID, _ := newAttendanceFixture(t)

	_, err := svc.Mark(context.Background(), coachClaims(uuid.NewString()), MarkAttendanceRequest{
		SessionID: sessionID,
		Latitude:  29.073694,
		Longitude: 31.112250,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotAssigned.Code, appErrors.FromError(err).Code)
}

func TestAttendanceMarkRejectsMissingSession(t *testing.T) {
	svc, _, _, coachID := newAttendanceFixture(t)

	_, err := svc.Mark(context.Background(), coachClaims(coachID), MarkAttendanceRequest{
		SessionID: uuid.NewString(),
		Latitude:  29.073694,
		Longitude: 31.112250,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAdminMarkUpdatesExistingInPlace(t *testing.T) {
	svc, repo, sessionID, coachID := newAttendanceFixture(t)

	_, err := svc.Mark(context.Background(), coachClaims(coachID), MarkAttendanceRequest{
		SessionID: sessionID,
		Latitude:  29.073694,
		Longitude: 31.112250,
	})
	require.NoError(t, err)

	record, created, err := svc.AdminMark(context.Background(), AdminMarkRequest{
		SessionID: sessionID,
		CoachID:   coachID,
		Status:    "excused",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.AttendanceStatusExcused, record.Status)
	assert.True(t, record.MarkedByAdmin)
	assert.Len(t, repo.records, 1)
}

func TestAdminMarkCreatesRecordWithoutLocation(t *testing.T) {
	svc, repo, sessionID, coachID := newAttendanceFixture(t)

	record, created, err := svc.AdminMark(context.Background(), AdminMarkRequest{
		SessionID: sessionID,
		CoachID:   coachID,
		Status:    "present",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Zero(t, record.Latitude)
	assert.Zero(t, record.Longitude)
	assert.Zero(t, record.DistanceFromAcademy)
	assert.True(t, record.MarkedByAdmin)
	assert.Len(t, repo.records, 1)
}

func TestAdminMarkRejectsBadStatus(t *testing.T) {
	svc, _, sessionID, coachID := newAttendanceFixture(t)

	_, _, err := svc.AdminMark(context.Background(), AdminMarkRequest{
		SessionID: sessionID,
		CoachID:   coachID,
		Status:    "late",
	})
	require.Error(t, err)
}

func TestAttendanceRemove(t *testing.T) {
	svc, repo, sessionID, coachID := newAttendanceFixture(t)

	record, _, err := svc.AdminMark(context.Background(), AdminMarkRequest{
		SessionID: sessionID,
		CoachID:   coachID,
		Status:    "present",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), record.ID))
	assert.Empty(t, repo.records)

	err = svc.Remove(context.Background(), record.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceHistoryRequiresSession(t *testing.T) {
	svc, _, _, coachID := newAttendanceFixture(t)

	_, _, err := svc.History(context.Background(), coachClaims(coachID), models.AttendanceFilter{})
	require.Error(t, err)
}

func TestAttendanceHistoryScopedToCoach(t *testing.T) {
	svc, repo, sessionID, coachID := newAttendanceFixture(t)
	repo.records = []*models.AttendanceRecord{
		{ID: "a1", CoachID: coachID, SessionID: sessionID},
		{ID: "a2", CoachID: uuid.NewString(), SessionID: sessionID},
	}

	records, _, err := svc.History(context.Background(), coachClaims(coachID), models.AttendanceFilter{SessionID: sessionID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a1", records[0].ID)
}
