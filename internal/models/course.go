package models

import "time"

// CourseStatus is the lifecycle state of a course.
type CourseStatus string

const (
	CourseStatusActive   CourseStatus = "active"
	CourseStatusArchived CourseStatus = "archived"
)

// Valid returns true when the status is a supported value.
func (s CourseStatus) Valid() bool {
	return s == CourseStatusActive || s == CourseStatusArchived
}

// Course is an offering coaches log sessions against. DefaultHourlyRate is
// the flat fallback used when no coach-specific rate history exists.
type Course struct {
	ID                string       `db:"id" json:"id"`
	Name              string       `db:"name" json:"name"`
	DefaultHourlyRate *float64     `db:"default_hourly_rate" json:"default_hourly_rate,omitempty"`
	Status            CourseStatus `db:"status" json:"status"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseFilter defines query filters for the course listing.
type CourseFilter struct {
	Status    *CourseStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
