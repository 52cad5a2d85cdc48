package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nile-sports/academy-api/internal/models"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
	"github.com/nile-sports/academy-api/pkg/export"
	"github.com/nile-sports/academy-api/pkg/rounding"
)

type payrollRepository interface {
	SessionTotals(ctx context.Context, month string) ([]models.PayrollSessionTotals, error)
	AdjustmentTotals(ctx context.Context, month string) ([]models.PayrollAdjustmentTotals, error)
}

type payrollUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PayrollService builds the monthly payroll view from frozen session
// subtotals and manual adjustments. Summaries are cached; session and
// adjustment writes invalidate the month they touch.
type PayrollService struct {
	repo     payrollRepository
	users    payrollUserReader
	cache    *CacheService
	csv      *export.CSVExporter
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewPayrollService constructs a PayrollService.
func NewPayrollService(repo payrollRepository, users payrollUserReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *PayrollService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{
		repo:     repo,
		users:    users,
		cache:    cache,
		csv:      export.NewCSVExporter(),
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Summary aggregates one month of payroll per coach. A coach appears when
// they have sessions, adjustments, or both in the month.
func (s *PayrollService) Summary(ctx context.Context, month string) (*models.PayrollSummary, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM")
	}

	cacheKey := fmt.Sprintf("payroll:%s:summary", month)
	if s.cache != nil {
		var cached models.PayrollSummary
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	sessionTotals, err := s.repo.SessionTotals(ctx, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate sessions")
	}
	adjustmentTotals, err := s.repo.AdjustmentTotals(ctx, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate adjustments")
	}

	lines := make(map[string]*models.PayrollLine, len(sessionTotals))
	for _, st := range sessionTotals {
		lines[st.CoachID] = &models.PayrollLine{
			CoachID:       st.CoachID,
			CoachName:     st.CoachName,
			CoachEmail:    st.CoachEmail,
			SessionCount:  st.SessionCount,
			TotalHours:    st.TotalHours,
			SessionsTotal: st.SessionsTotal,
		}
	}
	for _, at := range adjustmentTotals {
		line, ok := lines[at.CoachID]
		if !ok {
			// Adjustment-only coach for the month; resolve identity
			// from the user record.
			line = &models.PayrollLine{CoachID: at.CoachID}
			if user, err := s.users.FindByID(ctx, at.CoachID); err == nil {
				line.CoachName = user.FullName
				line.CoachEmail = user.Email
			}
			lines[at.CoachID] = line
		}
		line.BonusTotal = at.BonusTotal
		line.DiscountTotal = at.DiscountTotal
	}

	summary := &models.PayrollSummary{Month: month, Lines: make([]models.PayrollLine, 0, len(lines))}
	for _, line := range lines {
		line.NetTotal = rounding.HalfUp(line.SessionsTotal+line.BonusTotal-line.DiscountTotal, 2)
		summary.Lines = append(summary.Lines, *line)
	}
	sort.Slice(summary.Lines, func(i, j int) bool {
		return summary.Lines[i].CoachName < summary.Lines[j].CoachName
	})

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, summary, s.cacheTTL)
	}
	return summary, nil
}

// ExportCSV renders the monthly summary as CSV for download.
func (s *PayrollService) ExportCSV(ctx context.Context, month string) ([]byte, string, error) {
	summary, err := s.Summary(ctx, month)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"coach", "email", "sessions", "hours", "sessions_total", "bonus", "discount", "net_total"},
	}
	for _, line := range summary.Lines {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"coach":          line.CoachName,
			"email":          line.CoachEmail,
			"sessions":       strconv.Itoa(line.SessionCount),
			"hours":          formatAmount(line.TotalHours),
			"sessions_total": formatAmount(line.SessionsTotal),
			"bonus":          formatAmount(line.BonusTotal),
			"discount":       formatAmount(line.DiscountTotal),
			"net_total":      formatAmount(line.NetTotal),
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render payroll csv")
	}
	return payload, fmt.Sprintf("payroll-%s.csv", month), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
