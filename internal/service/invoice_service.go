package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nile-sports/academy-api/internal/models"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
	"github.com/nile-sports/academy-api/pkg/export"
	"github.com/nile-sports/academy-api/pkg/jobs"
	"github.com/nile-sports/academy-api/pkg/mailer"
)

const academyDisplayName = "Nile Sports Academy"

type invoiceJob struct {
	Line  models.PayrollLine
	Month string
}

// InvoiceService emails per-coach monthly invoices as PDF attachments.
// A batch send always reports per coach; one failed delivery never masks
// the rest. Failed sends are handed to a retry queue.
type InvoiceService struct {
	payroll *PayrollService
	pdf     *export.InvoicePDFExporter
	sender  mailer.Sender
	queue   *jobs.Queue
	logger  *zap.Logger

	mu sync.Mutex
}

// NewInvoiceService constructs an InvoiceService. The retry queue is wired
// by the caller via Queue().
func NewInvoiceService(payroll *PayrollService, sender mailer.Sender, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		payroll: payroll,
		pdf:     export.NewInvoicePDFExporter(),
		sender:  sender,
		logger:  logger,
	}
}

// AttachQueue registers the retry queue used for failed deliveries.
func (s *InvoiceService) AttachQueue(queue *jobs.Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = queue
}

// HandleRetry is the queue handler re-attempting a failed invoice send.
func (s *InvoiceService) HandleRetry(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(invoiceJob)
	if !ok {
		return fmt.Errorf("invoice retry: unexpected payload %T", job.Payload)
	}
	if err := s.deliver(payload.Line, payload.Month); err != nil {
		return err
	}
	s.logger.Info("invoice retry delivered",
		zap.String("coach_id", payload.Line.CoachID),
		zap.String("month", payload.Month),
		zap.Int("attempt", job.Attempt))
	return nil
}

// SendMonth emails every coach on the month's payroll their invoice. The
// result slice has one entry per coach regardless of outcome.
func (s *InvoiceService) SendMonth(ctx context.Context, month string) ([]models.InvoiceSendResult, error) {
	summary, err := s.payroll.Summary(ctx, month)
	if err != nil {
		return nil, err
	}
	if len(summary.Lines) == 0 {
		return []models.InvoiceSendResult{}, nil
	}

	results := make([]models.InvoiceSendResult, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		result := models.InvoiceSendResult{
			CoachID: line.CoachID,
			Email:   line.CoachEmail,
			Status:  models.InvoiceSendSent,
		}
		if err := s.deliver(line, month); err != nil {
			result.Status = models.InvoiceSendFailed
			result.Error = err.Error()
			s.enqueueRetry(line, month)
			s.logger.Warn("invoice send failed",
				zap.String("coach_id", line.CoachID),
				zap.String("month", month),
				zap.Error(err))
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *InvoiceService) deliver(line models.PayrollLine, month string) error {
	if line.CoachEmail == "" {
		return appErrors.Clone(appErrors.ErrValidation, "coach has no email address")
	}

	inv := export.Invoice{
		AcademyName: academyDisplayName,
		CoachName:   line.CoachName,
		Month:       month,
		Lines: []export.InvoiceLine{{
			Description: fmt.Sprintf("Coaching sessions (%d)", line.SessionCount),
			Hours:       formatAmount(line.TotalHours),
			Rate:        "",
			Amount:      formatAmount(line.SessionsTotal),
		}},
		NetTotal: formatAmount(line.NetTotal),
	}
	if line.BonusTotal > 0 {
		inv.Adjustments = append(inv.Adjustments, export.InvoiceLine{
			Description: "Bonus",
			Amount:      formatAmount(line.BonusTotal),
		})
	}
	if line.DiscountTotal > 0 {
		inv.Adjustments = append(inv.Adjustments, export.InvoiceLine{
			Description: "Discount",
			Amount:      formatAmount(-line.DiscountTotal),
		})
	}

	payload, err := s.pdf.Render(inv)
	if err != nil {
		return err
	}

	return s.sender.Send(mailer.Message{
		To:      line.CoachEmail,
		Subject: fmt.Sprintf("Your %s invoice - %s", academyDisplayName, month),
		Body:    fmt.Sprintf("Hi %s,\n\nAttached is your invoice for %s. Net total: %s.\n", line.CoachName, month, formatAmount(line.NetTotal)),
		Attachments: []mailer.Attachment{{
			Filename: fmt.Sprintf("invoice-%s-%s.pdf", line.CoachID, month),
			Content:  payload,
		}},
	})
}

func (s *InvoiceService) enqueueRetry(line models.PayrollLine, month string) {
	s.mu.Lock()
	queue := s.queue
	s.mu.Unlock()
	if queue == nil {
		return
	}
	if err := queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "invoice.send",
		Payload: invoiceJob{Line: line, Month: month},
	}); err != nil {
		s.logger.Warn("failed to enqueue invoice retry", zap.Error(err))
	}
}
