package models

import "time"

// RateSource identifies which fallback tier produced an applied rate.
type RateSource string

const (
	RateSourceCoach    RateSource = "coach_rate"
	RateSourceDefault  RateSource = "course_default"
	RateSourceOverride RateSource = "category_override"
)

// CoachCourseRate is one row of the append-only rate history for a
// (course, coach) pair. Rows are only ever inserted; the applicable rate for
// a date is the row with the latest effective_from not after that date.
type CoachCourseRate struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	CoachID       string    `db:"coach_id" json:"coach_id"`
	Rate          float64   `db:"rate" json:"rate"`
	EffectiveFrom time.Time `db:"effective_from" json:"effective_from"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ResolvedRate is the outcome of rate resolution for a session write.
type ResolvedRate struct {
	Rate   float64    `json:"rate"`
	Source RateSource `json:"source"`
}
