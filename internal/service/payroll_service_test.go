package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-sports/academy-api/internal/models"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
)

type mockPayrollRepo struct {
	sessions    []models.PayrollSessionTotals
	adjustments []models.PayrollAdjustmentTotals
}

func (m *mockPayrollRepo) SessionTotals(ctx context.Context, month string) ([]models.PayrollSessionTotals, error) {
	return m.sessions, nil
}

func (m *mockPayrollRepo) AdjustmentTotals(ctx context.Context, month string) ([]models.PayrollAdjustmentTotals, error) {
	return m.adjustments, nil
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func TestPayrollSummaryMergesSessionsAndAdjustments(t *testing.T) {
	repo := &mockPayrollRepo{
		sessions: []models.PayrollSessionTotals{
			{CoachID: "coach-1", CoachName: "Amira Hassan", CoachEmail: "amira@nile.test", SessionCount: 10, TotalHours: 15, SessionsTotal: 3000},
			{CoachID: "coach-2", CoachName: "Omar Said", CoachEmail: "omar@nile.test", SessionCount: 4, TotalHours: 6, SessionsTotal: 900},
		},
		adjustments: []models.PayrollAdjustmentTotals{
			{CoachID: "coach-1", BonusTotal: 250, DiscountTotal: 100},
		},
	}
	svc := NewPayrollService(repo, &mockUserReader{}, nil, 0, nil)

	summary, err := svc.Summary(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)

	// Sorted by coach name.
	assert.Equal(t, "Amira Hassan", summary.Lines[0].CoachName)
	assert.Equal(t, 3150.0, summary.Lines[0].NetTotal)
	assert.Equal(t, "Omar Said", summary.Lines[1].CoachName)
	assert.Equal(t, 900.0, summary.Lines[1].NetTotal)
}

func TestPayrollSummaryAdjustmentOnlyCoach(t *testing.T) {
	repo := &mockPayrollRepo{
		adjustments: []models.PayrollAdjustmentTotals{
			{CoachID: "coach-3", BonusTotal: 500},
		},
	}
	users := &mockUserReader{users: map[string]*models.User{
		"coach-3": {ID: "coach-3", FullName: "Nour Adel", Email: "nour@nile.test"},
	}}
	svc := NewPayrollService(repo, users, nil, 0, nil)

	summary, err := svc.Summary(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	line := summary.Lines[0]
	assert.Equal(t, "Nour Adel", line.CoachName)
	assert.Equal(t, "nour@nile.test", line.CoachEmail)
	assert.Zero(t, line.SessionCount)
	assert.Equal(t, 500.0, line.NetTotal)
}

func TestPayrollSummaryNetCanBeNegative(t *testing.T) {
	repo := &mockPayrollRepo{
		sessions: []models.PayrollSessionTotals{
			{CoachID: "coach-1", CoachName: "Amira Hassan", SessionsTotal: 100},
		},
		adjustments: []models.PayrollAdjustmentTotals{
			{CoachID: "coach-1", DiscountTotal: 250},
		},
	}
	svc := NewPayrollService(repo, &mockUserReader{}, nil, 0, nil)

	summary, err := svc.Summary(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, -150.0, summary.Lines[0].NetTotal)
}

func TestPayrollSummaryRejectsBadMonth(t *testing.T) {
	svc := NewPayrollService(&mockPayrollRepo{}, &mockUserReader{}, nil, 0, nil)

	_, err := svc.Summary(context.Background(), "March 2026")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPayrollExportCSV(t *testing.T) {
	repo := &mockPayrollRepo{
		sessions: []models.PayrollSessionTotals{
			{CoachID: "coach-1", CoachName: "Amira Hassan", CoachEmail: "amira@nile.test", SessionCount: 2, TotalHours: 3, SessionsTotal: 600},
		},
	}
	svc := NewPayrollService(repo, &mockUserReader{}, nil, 0, nil)

	payload, filename, err := svc.ExportCSV(context.Background(), "2026-03")
	require.NoError(t, err)
	assert.Equal(t, "payroll-2026-03.csv", filename)

	content := string(payload)
	assert.True(t, strings.HasPrefix(content, "coach,email,sessions,hours,sessions_total,bonus,discount,net_total"))
	assert.Contains(t, content, "Amira Hassan,amira@nile.test,2,3.00,600.00,0.00,0.00,600.00")
}
