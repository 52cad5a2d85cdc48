package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-sports/academy-api/internal/models"
	"github.com/nile-sports/academy-api/pkg/mailer"
)

type fakeSender struct {
	sent    []mailer.Message
	failFor map[string]bool
}

func (f *fakeSender) Send(msg mailer.Message) error {
	if f.failFor[msg.To] {
		return fmt.Errorf("smtp: connection refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newInvoiceFixture(repo *mockPayrollRepo, sender *fakeSender) *InvoiceService {
	payroll := NewPayrollService(repo, &mockUserReader{}, nil, 0, nil)
	return NewInvoiceService(payroll, sender, nil)
}

func TestInvoiceSendMonthReportsPerCoach(t *testing.T) {
	repo := &mockPayrollRepo{
		sessions: []models.PayrollSessionTotals{
			{CoachID: "coach-1", CoachName: "Amira Hassan", CoachEmail: "amira@nile.test", SessionCount: 3, TotalHours: 4.5, SessionsTotal: 900},
			{CoachID: "coach-2", CoachName: "Omar Said", CoachEmail: "omar@nile.test", SessionCount: 2, TotalHours: 3, SessionsTotal: 600},
		},
	}
	sender := &fakeSender{failFor: map[string]bool{"omar@nile.test": true}}
	svc := newInvoiceFixture(repo, sender)

	results, err := svc.SendMonth(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Len(t, results, 2)

	byCoach := map[string]models.InvoiceSendResult{}
	for _, r := range results {
		byCoach[r.CoachID] = r
	}
	assert.Equal(t, models.InvoiceSendSent, byCoach["coach-1"].Status)
	assert.Equal(t, models.InvoiceSendFailed, byCoach["coach-2"].Status)
	assert.NotEmpty(t, byCoach["coach-2"].Error)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "amira@nile.test", msg.To)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "invoice-coach-1-2026-03.pdf", msg.Attachments[0].Filename)
	assert.NotEmpty(t, msg.Attachments[0].Content)
}

func TestInvoiceSendMonthSkipsNothingOnEmptyPayroll(t *testing.T) {
	sender := &fakeSender{}
	svc := newInvoiceFixture(&mockPayrollRepo{}, sender)

	results, err := svc.SendMonth(context.Background(), "2026-03")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, sender.sent)
}

func TestInvoiceSendMonthFailsCoachWithoutEmail(t *testing.T) {
	repo := &mockPayrollRepo{
		sessions: []models.PayrollSessionTotals{
			{CoachID: "coach-1", CoachName: "Amira Hassan", SessionCount: 1, TotalHours: 1, SessionsTotal: 200},
		},
	}
	sender := &fakeSender{}
	svc := newInvoiceFixture(repo, sender)

	results, err := svc.SendMonth(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.InvoiceSendFailed, results[0].Status)
	assert.Empty(t, sender.sent)
}
