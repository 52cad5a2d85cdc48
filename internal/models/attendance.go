package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusAbsent, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// AttendanceRecord is the terminal artifact of one attendance decision for a
// (coach, session) pair. GPS-marked rows store the submitted coordinates and
// the server-computed distance; admin-marked rows store zeros and
// MarkedByAdmin=true, carrying no real location signal.
type AttendanceRecord struct {
	ID                  string           `db:"id" json:"id"`
	CoachID             string           `db:"coach_id" json:"coach_id"`
	SessionID           string           `db:"session_id" json:"session_id"`
	Latitude            float64          `db:"latitude" json:"latitude"`
	Longitude           float64          `db:"longitude" json:"longitude"`
	DistanceFromAcademy float64          `db:"distance_from_academy" json:"distance_from_academy"`
	AttendanceTimestamp time.Time        `db:"attendance_timestamp" json:"attendance_timestamp"`
	Status              AttendanceStatus `db:"status" json:"status"`
	MarkedByAdmin       bool             `db:"marked_by_admin" json:"marked_by_admin"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	CoachID   string
	SessionID string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}
