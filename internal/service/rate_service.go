package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nile-sports/academy-api/internal/models"
	"github.com/nile-sports/academy-api/pkg/config"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
	"github.com/nile-sports/academy-api/pkg/rounding"
)

type rateRepository interface {
	Create(ctx context.Context, rate *models.CoachCourseRate) error
	FindEffective(ctx context.Context, courseID, coachID string, date time.Time) (*models.CoachCourseRate, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.CoachCourseRate, error)
	ListByCoach(ctx context.Context, coachID string) ([]models.CoachCourseRate, error)
}

type rateCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateRateRequest represents payload for appending a rate history row.
type CreateRateRequest struct {
	CourseID      string  `json:"course_id" validate:"required,uuid4"`
	CoachID       string  `json:"coach_id" validate:"required,uuid4"`
	Rate          float64 `json:"rate" validate:"required,gt=0"`
	EffectiveFrom string  `json:"effective_from" validate:"required,datetime=2006-01-02"`
}

// RateService resolves the hourly rate applicable to a session and derives
// its frozen monetary fields. Resolution is an ordered fallback: the latest
// coach-specific historical rate wins, then any name-token override rule,
// then the course's flat default. A session write must be rejected outright
// when all three tiers come up empty.
type RateService struct {
	repo      rateRepository
	courses   rateCourseReader
	rules     []config.RateOverrideRule
	precision int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRateService constructs a RateService.
func NewRateService(repo rateRepository, courses rateCourseReader, cfg config.RateConfig, validate *validator.Validate, logger *zap.Logger) *RateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	precision := cfg.RoundingPrecision
	if precision <= 0 {
		precision = 2
	}
	return &RateService{
		repo:      repo,
		courses:   courses,
		rules:     cfg.OverrideRules,
		precision: precision,
		validator: validate,
		logger:    logger,
	}
}

// Resolve returns the hourly rate in effect for (course, coach, date) and
// the tier that produced it. First match wins.
func (s *RateService) Resolve(ctx context.Context, course *models.Course, coachID string, date time.Time) (*models.ResolvedRate, error) {
	historical, err := s.repo.FindEffective(ctx, course.ID, coachID, date)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rate history")
	}
	if err == nil && historical.Rate > 0 {
		return &models.ResolvedRate{Rate: historical.Rate, Source: models.RateSourceCoach}, nil
	}

	// The override beats the course default but never an explicit coach rate.
	if rate, ok := s.matchOverride(course.Name); ok {
		return &models.ResolvedRate{Rate: rate, Source: models.RateSourceOverride}, nil
	}

	if course.DefaultHourlyRate != nil && *course.DefaultHourlyRate > 0 {
		return &models.ResolvedRate{Rate: *course.DefaultHourlyRate, Source: models.RateSourceDefault}, nil
	}

	s.logger.Debug("rate resolution exhausted",
		zap.String("course_id", course.ID),
		zap.String("coach_id", coachID),
		zap.Time("date", date))
	return nil, appErrors.ErrRateNotFound
}

func (s *RateService) matchOverride(courseName string) (float64, bool) {
	name := strings.ToLower(courseName)
	for _, rule := range s.rules {
		for _, token := range rule.Tokens {
			if token != "" && strings.Contains(name, strings.ToLower(token)) {
				return rule.Rate, true
			}
		}
	}
	return 0, false
}

// ComputeHours derives session duration in hours from "HH:MM" boundaries.
// Sessions are same-day only; an end at or before the start is rejected
// before any rate lookup happens.
func (s *RateService) ComputeHours(startTime, endTime string) (float64, error) {
	start, err := parseClock(startTime)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start_time, expected HH:MM")
	}
	end, err := parseClock(endTime)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end_time, expected HH:MM")
	}
	if end <= start {
		return 0, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	return rounding.HalfUp(float64(end-start)/60.0, s.precision), nil
}

// Subtotal computes the frozen monetary amount for a session.
func (s *RateService) Subtotal(hours, rate float64) float64 {
	return rounding.HalfUp(hours*rate, s.precision)
}

// SetRate appends a new rate history row. Existing rows are never edited;
// the history stays append-only so past sessions keep their audit trail.
func (s *RateService) SetRate(ctx context.Context, req CreateRateRequest) (*models.CoachCourseRate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rate payload")
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid effective_from, expected YYYY-MM-DD")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	rate := &models.CoachCourseRate{
		CourseID:      req.CourseID,
		CoachID:       req.CoachID,
		Rate:          req.Rate,
		EffectiveFrom: effectiveFrom,
	}
	if err := s.repo.Create(ctx, rate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rate")
	}
	return rate, nil
}

// ListByCourse returns the rate history for a course, newest first.
func (s *RateService) ListByCourse(ctx context.Context, courseID string) ([]models.CoachCourseRate, error) {
	rates, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rates")
	}
	return rates, nil
}

// ListByCoach returns the rate history for a coach, newest first.
func (s *RateService) ListByCoach(ctx context.Context, coachID string) ([]models.CoachCourseRate, error) {
	rates, err := s.repo.ListByCoach(ctx, coachID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rates")
	}
	return rates, nil
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(value string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
