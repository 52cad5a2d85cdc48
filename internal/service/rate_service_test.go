package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nile-sports/academy-api/internal/models"
	"github.com/nile-sports/academy-api/pkg/config"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
)

type mockRateRepo struct {
	effective map[string]*models.CoachCourseRate
	created   []*models.CoachCourseRate
	byCourse  []models.CoachCourseRate
	byCoach   []models.CoachCourseRate
}

func rateKey(courseID, coachID string) string { return courseID + "/" + coachID }

func (m *mockRateRepo) Create(ctx context.Context, rate *models.CoachCourseRate) error {
	rate.ID = "generated"
	m.created = append(m.created, rate)
	return nil
}

func (m *mockRateRepo) FindEffective(ctx context.Context, courseID, coachID string, date time.Time) (*models.CoachCourseRate, error) {
	if rate, ok := m.effective[rateKey(courseID, coachID)]; ok && !rate.EffectiveFrom.After(date) {
		cp := *rate
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRateRepo) ListByCourse(ctx context.Context, courseID string) ([]models.CoachCourseRate, error) {
	return m.byCourse, nil
}

func (m *mockRateRepo) ListByCoach(ctx context.Context, coachID string) ([]models.CoachCourseRate, error) {
	return m.byCoach, nil
}

type mockCourseReader struct {
	courses map[string]*models.Course
	calls   int
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	m.calls++
	if course, ok := m.courses[id]; ok {
		cp := *course
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func defaultRateConfig() config.RateConfig {
	return config.RateConfig{
		OverrideRules: []config.RateOverrideRule{
			{Tokens: []string{"competition", "competetion"}, Rate: 75},
		},
		RoundingPrecision: 2,
	}
}

func newRateServiceForTest(repo *mockRateRepo, courses *mockCourseReader) *RateService {
	return NewRateService(repo, courses, defaultRateConfig(), validator.New(), zap.NewNop())
}

func floatPtr(v float64) *float64 { return &v }

func TestRateServiceResolveCoachRateWins(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	course := &models.Course{ID: "c1", Name: "Competition Squad", DefaultHourlyRate: floatPtr(120)}
	repo := &mockRateRepo{effective: map[string]*models.CoachCourseRate{
		rateKey("c1", "coach-1"): {Rate: 95, EffectiveFrom: date.AddDate(0, -1, 0)},
	}}
	svc := newRateServiceForTest(repo, &mockCourseReader{})

	resolved, err := svc.Resolve(context.Background(), course, "coach-1", date)
	require.NoError(t, err)
	assert.Equal(t, 95.0, resolved.Rate)
	assert.Equal(t, models.RateSourceCoach, resolved.Source)
}

func TestRateServiceResolveFutureRateIgnored(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	course := &models.Course{ID: "c1", Name: "Swimming", DefaultHourlyRate: floatPtr(110)}
	repo := &mockRateRepo{effective: map[string]*models.CoachCourseRate{
		rateKey("c1", "coach-1"): {Rate: 95, EffectiveFrom: date.AddDate(0, 1, 0)},
	}}
	svc := newRateServiceForTest(repo, &mockCourseReader{})

	resolved, err := svc.Resolve(context.Background(), course, "coach-1", date)
	require.NoError(t, err)
	assert.Equal(t, 110.0, resolved.Rate)
	assert.Equal(t, models.RateSourceDefault, resolved.Source)
}

func TestRateServiceResolveOverrideBeatsDefault(t *testing.T) {
	course := &models.Course{ID: "c1", Name: "Junior COMPETITION Team", DefaultHourlyRate: floatPtr(120)}
	svc := newRateServiceForTest(&mockRateRepo{}, &mockCourseReader{})

	resolved, err := svc.Resolve(context.Background(), course, "coach-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 75.0, resolved.Rate)
	assert.Equal(t, models.RateSourceOverride, resolved.Source)
}

func TestRateServiceResolveMisspelledOverride(t *testing.T) {
	course := &models.Course{ID: "c1", Name: "Advanced Competetion Prep"}
	svc := newRateServiceForTest(&mockRateRepo{}, &mockCourseReader{})

	resolved, err := svc.Resolve(context.Background(), course, "coach-1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 75.0, resolved.Rate)
	assert.Equal(t, models.RateSourceOverride, resolved.Source)
}

func TestRateServiceResolveCourseDefault(t *testing.T) {
	course := &models.Course{ID: "c1", Name: "Swimming Basics", DefaultHourlyRate: floatPtr(80)}
	svc := newRateServiceForTest(&mockRateRepo{}, &mockCourseReader{})

	resolved, err := svc.Resolve(context.Background(), course, "coach-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 80.0, resolved.Rate)
	assert.Equal(t, models.RateSourceDefault, resolved.Source)
}

func TestRateServiceResolveNotFound(t *testing.T) {
	course := &models.Course{ID: "c1", Name: "Yoga"}
	svc := newRateServiceForTest(&mockRateRepo{}, &mockCourseReader{})

	_, err := svc.Resolve(context.Background(), course, "coach-1", time.Now())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRateNotFound.Code, appErrors.FromError(err).Code)
}

func TestRateServiceResolveNonPositiveHistoricalRateSkipped(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	course := &models.Course{ID: "c1", Name: "Tennis", DefaultHourlyRate: floatPtr(60)}
	repo := &mockRateRepo{effective: map[string]*models.CoachCourseRate{
		rateKey("c1", "coach-1"): {Rate: 0, EffectiveFrom: date.AddDate(0, -1, 0)},
	}}
	svc := newRateServiceForTest(repo, &mockCourseReader{})

	resolved, err := svc.Resolve(context.Background(), course, "coach-1", date)
	require.NoError(t, err)
	assert.Equal(t, models.RateSourceDefault, resolved.Source)
}

func TestRateServiceComputeHours(t *testing.T) {
	svc := newRateServiceForTest(&mockRateRepo{}, &mockCourseReader{})

	hours, err := svc.ComputeHours("09:00", "10:30")
	require.NoError(t, err)
	assert.Equal(t, 1.5, hours)
	assert.Equal(t, 300.0, svc.Subtotal(hours, 200))
}

func TestRateServiceComputeHoursRejectsInvertedRange(t *testing.T) {
	svc := newRateServiceForTest(&mockRateRepo{}, &mockCourseReader{})

	_, err := svc.ComputeHours("10:30", "10:30")
	require.Error(t, err)
	_, err = svc.ComputeHours("10:30", "09:00")
	require.Error(t, err)
}

func TestRateServiceComputeHoursRejectsMalformedClock(t *testing.T) {
	svc := newRateServiceForTest(&mockRateRepo{}, &mockCourseReader{})

	_, err := svc.ComputeHours("9am", "10:30")
	require.Error(t, err)
}

func TestRateServiceComputeHoursIsDeterministic(t *testing.T) {
	svc := newRateServiceForTest(&mockRateRepo{}, &mockCourseReader{})

	first, err := svc.ComputeHours("08:20", "09:45")
	require.NoError(t, err)
	second, err := svc.ComputeHours("08:20", "09:45")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, svc.Subtotal(first, 90), svc.Subtotal(second, 90))
}
