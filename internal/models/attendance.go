package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
)

// AttendanceStatuses lists every supported status in display order.
var AttendanceStatuses = []AttendanceStatus{
	AttendanceStatusPresent,
	AttendanceStatusAbsent,
	AttendanceStatusLate,
	AttendanceStatusExcused,
}

// Valid returns true when the status is a supported value. Matching is case-sensitive.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// AttendanceRecord is the single status of one student on one day.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Day       Day              `db:"day" json:"day"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Note      *string          `db:"note" json:"note,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceDetail extends the record with student metadata.
type AttendanceDetail struct {
	AttendanceRecord
	StudentName string `db:"student_name" json:"student_name"`
	StudentCode string `db:"student_code" json:"student_code"`
}

// AttendanceEntry is one row of a day submission.
type AttendanceEntry struct {
	StudentID string
	Status    AttendanceStatus
	Note      *string
}
