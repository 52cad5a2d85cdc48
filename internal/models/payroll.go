package models

// PayrollSessionTotals aggregates one coach's session earnings for a month.
type PayrollSessionTotals struct {
	CoachID       string  `db:"coach_id"`
	CoachName     string  `db:"coach_name"`
	CoachEmail    string  `db:"coach_email"`
	SessionCount  int     `db:"session_count"`
	TotalHours    float64 `db:"total_hours"`
	SessionsTotal float64 `db:"sessions_total"`
}

// PayrollAdjustmentTotals aggregates one coach's manual adjustments for a month.
type PayrollAdjustmentTotals struct {
	CoachID       string  `db:"coach_id"`
	BonusTotal    float64 `db:"bonus_total"`
	DiscountTotal float64 `db:"discount_total"`
}

// PayrollLine aggregates one coach's earnings for a month: logged session
// subtotals plus manual adjustments.
type PayrollLine struct {
	CoachID       string  `db:"coach_id" json:"coach_id"`
	CoachName     string  `db:"coach_name" json:"coach_name"`
	CoachEmail    string  `db:"coach_email" json:"coach_email"`
	SessionCount  int     `db:"session_count" json:"session_count"`
	TotalHours    float64 `db:"total_hours" json:"total_hours"`
	SessionsTotal float64 `db:"sessions_total" json:"sessions_total"`
	BonusTotal    float64 `db:"bonus_total" json:"bonus_total"`
	DiscountTotal float64 `db:"discount_total" json:"discount_total"`
	NetTotal      float64 `db:"net_total" json:"net_total"`
}

// PayrollSummary is the full monthly payroll view.
type PayrollSummary struct {
	Month string        `json:"month"`
	Lines []PayrollLine `json:"lines"`
}

// InvoiceSendStatus is the per-coach outcome of a batch invoice send.
type InvoiceSendStatus string

const (
	InvoiceSendSent   InvoiceSendStatus = "sent"
	InvoiceSendFailed InvoiceSendStatus = "failed"
)

// InvoiceSendResult reports one coach's invoice delivery outcome. Batch
// sends always report per coach; a partial failure never collapses into a
// single aggregate error.
type InvoiceSendResult struct {
	CoachID string            `json:"coach_id"`
	Email   string            `json:"email"`
	Status  InvoiceSendStatus `json:"status"`
	Error   string            `json:"error,omitempty"`
}
