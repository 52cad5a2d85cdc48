package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-sports/academy-api/internal/models"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
)

type mockSessionRepo struct {
	sessions   map[string]*models.Session
	created    []*models.Session
	updated    []*models.Session
	lastFilter models.SessionFilter
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	m.lastFilter = filter
	return nil, 0, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if session, ok := m.sessions[id]; ok {
		cp := *session
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	session.ID = uuid.NewString()
	m.created = append(m.created, session)
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.Session) error {
	m.updated = append(m.updated, session)
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.sessions, id)
	return nil
}

type sessionFixture struct {
	svc      *SessionService
	repo     *mockSessionRepo
	rateRepo *mockRateRepo
	courses  *mockCourseReader
	courseID string
	coachID  string
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	courseID := uuid.NewString()
	coachID := uuid.NewString()
	courses := &mockCourseReader{courses: map[string]*models.Course{
		courseID: {ID: courseID, Name: "Swimming", DefaultHourlyRate: floatPtr(200), Status: models.CourseStatusActive},
	}}
	rateRepo := &mockRateRepo{effective: map[string]*models.CoachCourseRate{}}
	repo := &mockSessionRepo{sessions: map[string]*models.Session{}}
	rates := newRateServiceForTest(rateRepo, courses)
	svc := NewSessionService(repo, courses, rates, nil, nil, nil)
	return &sessionFixture{svc: svc, repo: repo, rateRepo: rateRepo, courses: courses, courseID: courseID, coachID: coachID}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleAdmin}
}

func (f *sessionFixture) createRequest() CreateSessionRequest {
	return CreateSessionRequest{
		CourseID:    f.courseID,
		CoachID:     f.coachID,
		SessionDate: "2026-03-15",
		StartTime:   "09:00",
		EndTime:     "10:30",
		SessionType: "group",
	}
}

func TestSessionCreateFreezesComputedFields(t *testing.T) {
	f := newSessionFixture(t)

	session, err := f.svc.Create(context.Background(), adminClaims(), f.createRequest())
	require.NoError(t, err)
	assert.Equal(t, 1.5, session.ComputedHours)
	assert.Equal(t, 200.0, session.AppliedRate)
	assert.Equal(t, models.RateSourceDefault, session.RateSource)
	assert.Equal(t, 300.0, session.Subtotal)
	require.Len(t, f.repo.created, 1)
}

func TestSessionCreateCoachRateOverDefault(t *testing.T) {
	f := newSessionFixture(t)
	f.rateRepo.effective[rateKey(f.courseID, f.coachID)] = &models.CoachCourseRate{
		Rate:          150,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	session, err := f.svc.Create(context.Background(), adminClaims(), f.createRequest())
	require.NoError(t, err)
	assert.Equal(t, 150.0, session.AppliedRate)
	assert.Equal(t, models.RateSourceCoach, session.RateSource)
	assert.Equal(t, 225.0, session.Subtotal)
}

func TestSessionCreateRejectsInvertedRangeBeforeRateLookup(t *testing.T) {
	f := newSessionFixture(t)
	req := f.createRequest()
	req.StartTime = "11:00"
	req.EndTime = "10:00"

	_, err := f.svc.Create(context.Background(), adminClaims(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.courses.calls)
	assert.Empty(t, f.repo.created)
}

func TestSessionCreateRejectsArchivedCourse(t *testing.T) {
	f := newSessionFixture(t)
	f.courses.courses[f.courseID].Status = models.CourseStatusArchived

	_, err := f.svc.Create(context.Background(), adminClaims(), f.createRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseArchived.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.created)
}

func TestSessionCreateRejectsUnresolvableRate(t *testing.T) {
	f := newSessionFixture(t)
	f.courses.courses[f.courseID].DefaultHourlyRate = nil

	_, err := f.svc.Create(context.Background(), adminClaims(), f.createRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRateNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.created)
}

func TestSessionCreateMonthLockForCoach(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC) }
	actor := &models.JWTClaims{UserID: f.coachID, Role: models.RoleCoach}

	req := f.createRequest()
	req.CoachID = ""
	_, err := f.svc.Create(context.Background(), actor, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMonthLocked.Code, appErrors.FromError(err).Code)

	req.SessionDate = "2026-04-02"
	_, err = f.svc.Create(context.Background(), actor, req)
	require.NoError(t, err)
}

func TestSessionCreateCoachCannotLogForOthers(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC) }
	actor := &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleCoach}

	_, err := f.svc.Create(context.Background(), actor, f.createRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSessionUpdateReResolvesRate(t *testing.T) {
	f := newSessionFixture(t)
	existing := &models.Session{
		ID:            uuid.NewString(),
		CourseID:      f.courseID,
		PaidCoachID:   f.coachID,
		SessionDate:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		StartTime:     "09:00",
		EndTime:       "10:30",
		SessionType:   models.SessionTypeGroup,
		ComputedHours: 1.5,
		AppliedRate:   200,
		RateSource:    models.RateSourceDefault,
		Subtotal:      300,
	}
	f.repo.sessions[existing.ID] = existing
	f.rateRepo.effective[rateKey(f.courseID, f.coachID)] = &models.CoachCourseRate{
		Rate:          120,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	updated, err := f.svc.Update(context.Background(), adminClaims(), existing.ID, UpdateSessionRequest{
		CourseID:    f.courseID,
		CoachID:     f.coachID,
		SessionDate: "2026-03-16",
		StartTime:   "09:00",
		EndTime:     "11:00",
		SessionType: "group",
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, updated.ComputedHours)
	assert.Equal(t, 120.0, updated.AppliedRate)
	assert.Equal(t, models.RateSourceCoach, updated.RateSource)
	assert.Equal(t, 240.0, updated.Subtotal)
	require.Len(t, f.repo.updated, 1)
}

func TestSessionUpdateMonthLockCoversStoredDate(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.now = func() time.Time { return time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC) }
	existing := &models.Session{
		ID:          uuid.NewString(),
		CourseID:    f.courseID,
		PaidCoachID: f.coachID,
		SessionDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	f.repo.sessions[existing.ID] = existing
	actor := &models.JWTClaims{UserID: f.coachID, Role: models.RoleCoach}

	// The stored date is last month, so the row is locked even though the
	// requested date is current.
	_, err := f.svc.Update(context.Background(), actor, existing.ID, UpdateSessionRequest{
		CourseID:    f.courseID,
		SessionDate: "2026-04-05",
		StartTime:   "09:00",
		EndTime:     "10:00",
		SessionType: "group",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMonthLocked.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.updated)
}

func TestSessionListScopesCoachToSelf(t *testing.T) {
	f := newSessionFixture(t)
	actor := &models.JWTClaims{UserID: f.coachID, Role: models.RoleCoach}

	_, _, err := f.svc.List(context.Background(), actor, models.SessionFilter{CoachID: uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, f.coachID, f.repo.lastFilter.CoachID)
}

func TestSessionGetForbiddenForOtherCoach(t *testing.T) {
	f := newSessionFixture(t)
	existing := &models.Session{ID: uuid.NewString(), CourseID: f.courseID, PaidCoachID: f.coachID}
	f.repo.sessions[existing.ID] = existing

	_, err := f.svc.Get(context.Background(), &models.JWTClaims{UserID: uuid.NewString(), Role: models.RoleCoach}, existing.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSessionDeleteNotFound(t *testing.T) {
	f := newSessionFixture(t)

	err := f.svc.Delete(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
