package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nile-sports/academy-api/internal/models"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

type sessionCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateSessionRequest represents payload for logging a session.
type CreateSessionRequest struct {
	CourseID                   string  `json:"course_id" validate:"required,uuid4"`
	CoachID                    string  `json:"coach_id" validate:"omitempty,uuid4"`
	OriginallyScheduledCoachID *string `json:"originally_scheduled_coach_id" validate:"omitempty,uuid4"`
	SessionDate                string  `json:"session_date" validate:"required,datetime=2006-01-02"`
	StartTime                  string  `json:"start_time" validate:"required"`
	EndTime                    string  `json:"end_time" validate:"required"`
	SessionType                string  `json:"session_type" validate:"required"`
}

// UpdateSessionRequest represents payload for editing a session.
type UpdateSessionRequest struct {
	CourseID                   string  `json:"course_id" validate:"required,uuid4"`
	CoachID                    string  `json:"coach_id" validate:"omitempty,uuid4"`
	OriginallyScheduledCoachID *string `json:"originally_scheduled_coach_id" validate:"omitempty,uuid4"`
	SessionDate                string  `json:"session_date" validate:"required,datetime=2006-01-02"`
	StartTime                  string  `json:"start_time" validate:"required"`
	EndTime                    string  `json:"end_time" validate:"required"`
	SessionType                string  `json:"session_type" validate:"required"`
}

// SessionService orchestrates session logging. Every write runs through
// rate resolution so the stored hours, rate, source and subtotal are frozen
// at write time; reads never recompute them.
type SessionService struct {
	repo      sessionRepository
	courses   sessionCourseReader
	rates     *RateService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo sessionRepository, courses sessionCourseReader, rates *RateService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:      repo,
		courses:   courses,
		rates:     rates,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns sessions plus pagination data. Coaches only ever see their
// own sessions.
func (s *SessionService) List(ctx context.Context, actor *models.JWTClaims, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	if actor != nil && actor.Role == models.RoleCoach {
		filter.CoachID = actor.UserID
	}
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a session by id. Coaches may only read their own.
func (s *SessionService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Session, error) {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Role == models.RoleCoach && session.PaidCoachID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return session, nil
}

// Create logs a session. The duration check runs before any rate lookup so
// an invalid time range never reaches the resolver. A failed resolution
// rejects the write entirely; a session is never stored with a zero rate.
func (s *SessionService) Create(ctx context.Context, actor *models.JWTClaims, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	sessionType := models.SessionType(req.SessionType)
	if !sessionType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid session_type")
	}

	coachID := req.CoachID
	if actor != nil && actor.Role == models.RoleCoach {
		if coachID != "" && coachID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "coaches may only log their own sessions")
		}
		coachID = actor.UserID
	}
	if coachID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coach_id is required")
	}

	sessionDate, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid session_date, expected YYYY-MM-DD")
	}

	if err := s.checkMonthLock(actor, sessionDate); err != nil {
		return nil, err
	}

	hours, err := s.rates.ComputeHours(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	course, err := s.loadCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if course.Status == models.CourseStatusArchived {
		return nil, appErrors.ErrCourseArchived
	}

	resolved, err := s.rates.Resolve(ctx, course, coachID, sessionDate)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		CourseID:                   course.ID,
		PaidCoachID:                coachID,
		OriginallyScheduledCoachID: req.OriginallyScheduledCoachID,
		SessionDate:                sessionDate,
		StartTime:                  req.StartTime,
		EndTime:                    req.EndTime,
		SessionType:                sessionType,
		ComputedHours:              hours,
		AppliedRate:                resolved.Rate,
		RateSource:                 resolved.Source,
		Subtotal:                   s.rates.Subtotal(hours, resolved.Rate),
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.invalidatePayroll(ctx, sessionDate)
	s.logger.Info("session logged",
		zap.String("session_id", session.ID),
		zap.String("coach_id", coachID),
		zap.String("rate_source", string(resolved.Source)),
		zap.Float64("subtotal", session.Subtotal))
	return session, nil
}

// Update edits a session. The rate is re-resolved against the possibly
// changed course, coach and date rather than copied from the prior value,
// so moving a session's date can change its subtotal.
func (s *SessionService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	sessionType := models.SessionType(req.SessionType)
	if !sessionType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid session_type")
	}

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	coachID := req.CoachID
	if actor != nil && actor.Role == models.RoleCoach {
		if session.PaidCoachID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "coaches may only edit their own sessions")
		}
		if coachID != "" && coachID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "coaches may only log their own sessions")
		}
		coachID = actor.UserID
	}
	if coachID == "" {
		coachID = session.PaidCoachID
	}

	sessionDate, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid session_date, expected YYYY-MM-DD")
	}

	// Both the stored date and the requested date must fall inside the
	// coach's editable window.
	if err := s.checkMonthLock(actor, session.SessionDate); err != nil {
		return nil, err
	}
	if err := s.checkMonthLock(actor, sessionDate); err != nil {
		return nil, err
	}

	hours, err := s.rates.ComputeHours(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	course, err := s.loadCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if course.Status == models.CourseStatusArchived {
		return nil, appErrors.ErrCourseArchived
	}

	resolved, err := s.rates.Resolve(ctx, course, coachID, sessionDate)
	if err != nil {
		return nil, err
	}

	previousMonth := session.SessionDate

	session.CourseID = course.ID
	session.PaidCoachID = coachID
	session.OriginallyScheduledCoachID = req.OriginallyScheduledCoachID
	session.SessionDate = sessionDate
	session.StartTime = req.StartTime
	session.EndTime = req.EndTime
	session.SessionType = sessionType
	session.ComputedHours = hours
	session.AppliedRate = resolved.Rate
	session.RateSource = resolved.Source
	session.Subtotal = s.rates.Subtotal(hours, resolved.Rate)

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	s.invalidatePayroll(ctx, previousMonth)
	s.invalidatePayroll(ctx, sessionDate)
	return session, nil
}

// Delete removes a session permanently. Admin only, enforced at the route.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	s.invalidatePayroll(ctx, session.SessionDate)
	return nil
}

func (s *SessionService) loadSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

func (s *SessionService) loadCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// checkMonthLock restricts coaches to sessions dated in the current
// calendar month. Admins are exempt.
func (s *SessionService) checkMonthLock(actor *models.JWTClaims, date time.Time) error {
	if actor == nil || actor.Role != models.RoleCoach {
		return nil
	}
	now := s.now()
	if date.Year() != now.Year() || date.Month() != now.Month() {
		return appErrors.ErrMonthLocked
	}
	return nil
}

func (s *SessionService) invalidatePayroll(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("payroll:%s*", date.Format("2006-01")))
}
