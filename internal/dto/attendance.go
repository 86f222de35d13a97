package dto

// AttendanceUpsertRequest captures POST /attendance payload.
type AttendanceUpsertRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Date      string  `json:"date" validate:"required"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Note      *string `json:"note"`
}

// AttendanceEntryRequest is one student of a day submission.
type AttendanceEntryRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Note      *string `json:"note"`
}

// AttendanceDayRequest captures PUT /attendance/days/:day payload.
type AttendanceDayRequest struct {
	Entries []AttendanceEntryRequest `json:"entries" validate:"dive"`
}

// AttendanceDayResponse reports the number of records written for the day.
type AttendanceDayResponse struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}
