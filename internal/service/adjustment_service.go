package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nile-sports/academy-api/internal/models"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
)

type adjustmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Adjustment, error)
	List(ctx context.Context, month, coachID string) ([]models.Adjustment, error)
	Create(ctx context.Context, adj *models.Adjustment) error
	Update(ctx context.Context, adj *models.Adjustment) error
	Delete(ctx context.Context, id string) error
}

// CreateAdjustmentRequest represents payload for creating adjustments.
type CreateAdjustmentRequest struct {
	CoachID string  `json:"coach_id" validate:"required,uuid4"`
	Month   string  `json:"month" validate:"required,datetime=2006-01"`
	Type    string  `json:"type" validate:"required,oneof=bonus discount"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Notes   *string `json:"notes" validate:"omitempty,max=500"`
}

// UpdateAdjustmentRequest represents payload for updating adjustments.
type UpdateAdjustmentRequest struct {
	Type   string  `json:"type" validate:"required,oneof=bonus discount"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Notes  *string `json:"notes" validate:"omitempty,max=500"`
}

// AdjustmentService manages manual payroll line items.
type AdjustmentService struct {
	repo      adjustmentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdjustmentService constructs an AdjustmentService.
func NewAdjustmentService(repo adjustmentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AdjustmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdjustmentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns adjustments for a month, optionally scoped to a coach.
func (s *AdjustmentService) List(ctx context.Context, month, coachID string) ([]models.Adjustment, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM")
	}
	adjustments, err := s.repo.List(ctx, month, coachID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list adjustments")
	}
	return adjustments, nil
}

// Create records a new adjustment.
func (s *AdjustmentService) Create(ctx context.Context, req CreateAdjustmentRequest) (*models.Adjustment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adjustment payload")
	}

	adj := &models.Adjustment{
		CoachID: req.CoachID,
		Month:   req.Month,
		Type:    models.AdjustmentType(req.Type),
		Amount:  req.Amount,
	}
	if req.Notes != nil {
		trimmed := strings.TrimSpace(*req.Notes)
		if trimmed != "" {
			adj.Notes = &trimmed
		}
	}

	if err := s.repo.Create(ctx, adj); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create adjustment")
	}
	s.invalidatePayroll(ctx, adj.Month)
	return adj, nil
}

// Update modifies an existing adjustment.
func (s *AdjustmentService) Update(ctx context.Context, id string, req UpdateAdjustmentRequest) (*models.Adjustment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adjustment payload")
	}

	adj, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "adjustment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load adjustment")
	}

	adj.Type = models.AdjustmentType(req.Type)
	adj.Amount = req.Amount
	adj.Notes = nil
	if req.Notes != nil {
		trimmed := strings.TrimSpace(*req.Notes)
		if trimmed != "" {
			adj.Notes = &trimmed
		}
	}

	if err := s.repo.Update(ctx, adj); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update adjustment")
	}
	s.invalidatePayroll(ctx, adj.Month)
	return adj, nil
}

// Delete removes an adjustment.
func (s *AdjustmentService) Delete(ctx context.Context, id string) error {
	adj, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "adjustment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load adjustment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete adjustment")
	}
	s.invalidatePayroll(ctx, adj.Month)
	return nil
}

func (s *AdjustmentService) invalidatePayroll(ctx context.Context, month string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("payroll:%s*", month))
}
