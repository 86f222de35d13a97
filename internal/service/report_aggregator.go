package service

import (
	"math"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// BuildMonthlyReport joins the roster with one month of attendance records.
// Every roster student appears, in roster order, even without records.
// Records of students outside the roster are ignored.
func BuildMonthlyReport(month, year int, roster []models.Student, records []models.AttendanceRecord) models.MonthlyReport {
	byStudent := make(map[string][]models.AttendanceStatus, len(roster))
	for _, record := range records {
		byStudent[record.StudentID] = append(byStudent[record.StudentID], record.Status)
	}

	report := models.MonthlyReport{
		Month:    month,
		Year:     year,
		Students: make([]models.StudentMonthlySummary, 0, len(roster)),
	}

	rateSum := 0
	for _, student := range roster {
		row := models.StudentMonthlySummary{
			StudentID: student.ID,
			Name:      student.Name,
			Code:      student.Code,
			ClassName: student.ClassName,
		}
		for _, status := range byStudent[student.ID] {
			switch status {
			case models.AttendanceStatusPresent:
				row.Present++
			case models.AttendanceStatusAbsent:
				row.Absent++
			case models.AttendanceStatusLate:
				row.Late++
			case models.AttendanceStatusExcused:
				row.Excused++
			}
		}
		row.Total = row.Present + row.Absent + row.Late + row.Excused
		row.AttendanceRate = percent(row.Present, row.Total)

		rateSum += row.AttendanceRate
		report.Summary.TotalAbsent += row.Absent
		if row.Total > report.Summary.SchoolDaysInMonth {
			report.Summary.SchoolDaysInMonth = row.Total
		}
		report.Students = append(report.Students, row)
	}

	report.Summary.TotalStudents = len(roster)
	if len(roster) > 0 {
		report.Summary.AvgAttendanceRate = roundHalfUp(float64(rateSum) / float64(len(roster)))
	}
	return report
}

// percent returns round(part/whole*100), or 0 when whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return roundHalfUp(float64(part) / float64(whole) * 100)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
