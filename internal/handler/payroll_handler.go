package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nile-sports/academy-api/internal/models"
	"github.com/nile-sports/academy-api/internal/service"
	"github.com/nile-sports/academy-api/pkg/response"
)

// PayrollHandler wires payroll reporting and invoicing to HTTP routes.
type PayrollHandler struct {
	payroll  *service.PayrollService
	invoices *service.InvoiceService
}

// NewPayrollHandler constructs a new PayrollHandler.
func NewPayrollHandler(payroll *service.PayrollService, invoices *service.InvoiceService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll, invoices: invoices}
}

// Summary godoc
// @Summary Monthly payroll summary
// @Tags Payroll
// @Produce json
// @Param month path string true "Payroll month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /payroll/{month} [get]
func (h *PayrollHandler) Summary(c *gin.Context) {
	summary, err := h.payroll.Summary(c.Request.Context(), c.Param("month"))
	if err != nil {
		response.Error(c, err)
		return
	}

	// Coaches only ever see their own line.
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleCoach {
		own := make([]models.PayrollLine, 0, 1)
		for _, line := range summary.Lines {
			if line.CoachID == claims.UserID {
				own = append(own, line)
			}
		}
		summary = &models.PayrollSummary{Month: summary.Month, Lines: own}
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Download monthly payroll as CSV
// @Tags Payroll
// @Produce text/csv
// @Param month path string true "Payroll month (YYYY-MM)"
// @Success 200 {file} file
// @Router /payroll/{month}/export [get]
func (h *PayrollHandler) Export(c *gin.Context) {
	payload, filename, err := h.payroll.ExportCSV(c.Request.Context(), c.Param("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// SendInvoices godoc
// @Summary Email monthly invoices to all coaches
// @Tags Payroll
// @Produce json
// @Param month path string true "Payroll month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /payroll/{month}/invoices [post]
func (h *PayrollHandler) SendInvoices(c *gin.Context) {
	results, err := h.invoices.SendMonth(c.Request.Context(), c.Param("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
