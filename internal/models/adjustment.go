package models

import "time"

// AdjustmentType marks a payroll line item as additive or subtractive.
type AdjustmentType string

const (
	AdjustmentTypeBonus    AdjustmentType = "bonus"
	AdjustmentTypeDiscount AdjustmentType = "discount"
)

// Valid returns true when the type is a supported value.
func (t AdjustmentType) Valid() bool {
	return t == AdjustmentTypeBonus || t == AdjustmentTypeDiscount
}

// Adjustment is a manual payroll line item folded into a coach's monthly
// total. Month uses the YYYY-MM format.
type Adjustment struct {
	ID        string         `db:"id" json:"id"`
	CoachID   string         `db:"coach_id" json:"coach_id"`
	Month     string         `db:"month" json:"month"`
	Type      AdjustmentType `db:"type" json:"type"`
	Amount    float64        `db:"amount" json:"amount"`
	Notes     *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
