package models

import "time"

// SessionType categorises a coaching session.
type SessionType string

const (
	SessionTypeGroup       SessionType = "group"
	SessionTypePrivate     SessionType = "private"
	SessionTypeCompetition SessionType = "competition"
	SessionTypeAssessment  SessionType = "assessment"
)

// Valid returns true when the session type is a supported value.
func (s SessionType) Valid() bool {
	switch s {
	case SessionTypeGroup, SessionTypePrivate, SessionTypeCompetition, SessionTypeAssessment:
		return true
	default:
		return false
	}
}

// Session is one logged coaching session. ComputedHours, AppliedRate,
// RateSource and Subtotal are derived at write time and stored so historical
// invoices stay stable when rates change later; they are never recomputed
// on read.
type Session struct {
	ID                         string      `db:"id" json:"id"`
	CourseID                   string      `db:"course_id" json:"course_id"`
	PaidCoachID                string      `db:"paid_coach_id" json:"paid_coach_id"`
	OriginallyScheduledCoachID *string     `db:"originally_scheduled_coach_id" json:"originally_scheduled_coach_id,omitempty"`
	SessionDate                time.Time   `db:"session_date" json:"session_date"`
	StartTime                  string      `db:"start_time" json:"start_time"`
	EndTime                    string      `db:"end_time" json:"end_time"`
	SessionType                SessionType `db:"session_type" json:"session_type"`
	ComputedHours              float64     `db:"computed_hours" json:"computed_hours"`
	AppliedRate                float64     `db:"applied_rate" json:"applied_rate"`
	RateSource                 RateSource  `db:"rate_source" json:"rate_source"`
	Subtotal                   float64     `db:"subtotal" json:"subtotal"`
	CreatedAt                  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time   `db:"updated_at" json:"updated_at"`
}

// SessionFilter scopes session listing queries.
type SessionFilter struct {
	CourseID  string
	CoachID   string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
