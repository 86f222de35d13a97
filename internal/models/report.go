package models

// StudentMonthlySummary holds one student's counts for a month.
type StudentMonthlySummary struct {
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name"`
	Code           string  `json:"code"`
	ClassName      *string `json:"class_name,omitempty"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	Total          int     `json:"total"`
	AttendanceRate int     `json:"attendance_rate"`
}

// MonthlySummary aggregates the whole roster for a month.
type MonthlySummary struct {
	TotalStudents     int `json:"total_students"`
	AvgAttendanceRate int `json:"avg_attendance_rate"`
	TotalAbsent       int `json:"total_absent"`
	// SchoolDaysInMonth is the highest number of recorded days of any student.
	SchoolDaysInMonth int `json:"school_days_in_month"`
}

// MonthlyReport is derived on demand and never persisted.
type MonthlyReport struct {
	Month    int                     `json:"month"`
	Year     int                     `json:"year"`
	Students []StudentMonthlySummary `json:"students"`
	Summary  MonthlySummary          `json:"summary"`
}
