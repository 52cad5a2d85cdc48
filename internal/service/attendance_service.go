package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nile-sports/academy-api/internal/models"
	"github.com/nile-sports/academy-api/pkg/config"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
	"github.com/nile-sports/academy-api/pkg/geo"
	"github.com/nile-sports/academy-api/pkg/rounding"
)

type attendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	FindInWindow(ctx context.Context, coachID, sessionID string, from, to time.Time) (*models.AttendanceRecord, error)
	FindLatest(ctx context.Context, coachID, sessionID string) (*models.AttendanceRecord, error)
	Update(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
}

type attendanceSessionReader interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

// MarkAttendanceRequest is the coach GPS submission.
type MarkAttendanceRequest struct {
	SessionID string  `json:"session_id" validate:"required,uuid4"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AdminMarkRequest is the admin override submission.
type AdminMarkRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid4"`
	CoachID   string `json:"coach_id" validate:"required,uuid4"`
	Status    string `json:"status" validate:"required,oneof=present excused"`
}

// AttendanceService verifies coach presence against the academy geofence.
// The GPS path recomputes the distance server-side from the submitted
// coordinates; client-side checks are a courtesy, never trusted. The admin
// path skips geolocation entirely and is gated by role at the route.
type AttendanceService struct {
	repo      attendanceRepository
	sessions  attendanceSessionReader
	academy   config.AcademyConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, sessions attendanceSessionReader, academy config.AcademyConfig, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		sessions:  sessions,
		academy:   academy,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Mark runs the coach GPS attendance path. Checks run in a fixed order:
// coordinate validity, role, session existence and assignment, geofence,
// then the day-scoped duplicate guard. Only a fully passing submission
// inserts a record.
func (s *AttendanceService) Mark(ctx context.Context, actor *models.JWTClaims, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !geo.ValidLatitude(req.Latitude) || !geo.ValidLongitude(req.Longitude) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coordinates out of range")
	}
	if actor == nil || actor.Role != models.RoleCoach {
		return nil, appErrors.ErrForbidden
	}

	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.PaidCoachID != actor.UserID {
		return nil, appErrors.ErrNotAssigned
	}

	distance := rounding.HalfUp(geo.Haversine(req.Latitude, req.Longitude, s.academy.Latitude, s.academy.Longitude), 2)
	if distance > s.academy.RadiusMeters {
		s.logger.Info("attendance rejected by geofence",
			zap.String("coach_id", actor.UserID),
			zap.String("session_id", req.SessionID),
			zap.Float64("distance_m", distance))
		return nil, appErrors.WithDetails(appErrors.ErrTooFar, map[string]interface{}{
			"distance_meters": distance,
			"radius_meters":   s.academy.RadiusMeters,
		})
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Check-then-insert with no uniqueness constraint underneath: two
	// concurrent submissions can both pass this check. Tolerated; the
	// window is a day-scoped idempotency guard, not a lifetime one.
	existing, err := s.repo.FindInWindow(ctx, actor.UserID, req.SessionID, dayStart, dayEnd)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing attendance")
	}
	if existing != nil {
		return nil, appErrors.WithDetails(appErrors.ErrDuplicateForToday, map[string]interface{}{
			"existing_id": existing.ID,
			"marked_at":   existing.AttendanceTimestamp,
		})
	}

	record := &models.AttendanceRecord{
		CoachID:             actor.UserID,
		SessionID:           req.SessionID,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		DistanceFromAcademy: distance,
		AttendanceTimestamp: now,
		Status:              models.AttendanceStatusPresent,
		MarkedByAdmin:       false,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.logger.Info("attendance marked",
		zap.String("coach_id", actor.UserID),
		zap.String("session_id", req.SessionID),
		zap.Float64("distance_m", distance))
	return record, nil
}

// AdminMark creates or corrects a record without any geolocation check.
// An existing record for the pair is updated in place regardless of day;
// otherwise a fresh row is inserted with zeroed coordinates, which carry no
// real location signal and must be read through the marked_by_admin flag.
// The returned bool reports whether a new row was created.
func (s *AttendanceService) AdminMark(ctx context.Context, req AdminMarkRequest) (*models.AttendanceRecord, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	if _, err := s.sessions.FindByID(ctx, req.SessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	status := models.AttendanceStatus(req.Status)

	existing, err := s.repo.FindLatest(ctx, req.CoachID, req.SessionID)
	if err != nil && err != sql.ErrNoRows {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing attendance")
	}
	if existing != nil {
		existing.Status = status
		existing.MarkedByAdmin = true
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
		}
		return existing, false, nil
	}

	record := &models.AttendanceRecord{
		CoachID:             req.CoachID,
		SessionID:           req.SessionID,
		Latitude:            0,
		Longitude:           0,
		DistanceFromAcademy: 0,
		AttendanceTimestamp: s.now(),
		Status:              status,
		MarkedByAdmin:       true,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return record, true, nil
}

// Remove deletes any record, GPS or override, unconditionally. Admin only,
// enforced at the route.
func (s *AttendanceService) Remove(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	return nil
}

// History returns attendance records for a session. Coaches only see their
// own rows.
func (s *AttendanceService) History(ctx context.Context, actor *models.JWTClaims, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	if filter.SessionID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "session_id is required")
	}
	if actor != nil && actor.Role == models.RoleCoach {
		filter.CoachID = actor.UserID
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
