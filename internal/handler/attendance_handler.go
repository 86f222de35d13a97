package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type attendanceService interface {
	ListDay(ctx context.Context, rawDay string) ([]models.AttendanceDetail, error)
	ListMonth(ctx context.Context, query dto.MonthQuery) ([]models.AttendanceDetail, error)
	Upsert(ctx context.Context, req dto.AttendanceUpsertRequest) (*models.AttendanceRecord, error)
	ReplaceDay(ctx context.Context, rawDay string, req dto.AttendanceDayRequest) (models.Day, int, error)
}

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// List godoc
// @Summary List attendance for a day or a month
// @Tags Attendance
// @Produce json
// @Param date query string false "Day as YYYY-MM-DD or RFC3339"
// @Param month query int false "Month 1-12, used with year"
// @Param year query int false "Year"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var (
		records []models.AttendanceDetail
		err     error
	)
	switch {
	case c.Query("date") != "":
		records, err = h.attendance.ListDay(c.Request.Context(), c.Query("date"))
	case c.Query("month") != "" || c.Query("year") != "":
		var query dto.MonthQuery
		if bindErr := c.ShouldBindQuery(&query); bindErr != nil {
			response.Error(c, appErrors.Wrap(bindErr, appErrors.KindValidation, "invalid month"))
			return
		}
		records, err = h.attendance.ListMonth(c.Request.Context(), query)
	default:
		response.Error(c, appErrors.New(appErrors.KindValidation, "date or month and year required"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Upsert godoc
// @Summary Record attendance of one student for one day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.AttendanceUpsertRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Upsert(c *gin.Context) {
	var req dto.AttendanceUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.KindValidation, "invalid payload"))
		return
	}
	record, err := h.attendance.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// ReplaceDay godoc
// @Summary Replace every attendance record of a day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param day path string true "Day as YYYY-MM-DD"
// @Param payload body dto.AttendanceDayRequest true "Entries for the day"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/days/{day} [put]
func (h *AttendanceHandler) ReplaceDay(c *gin.Context) {
	var req dto.AttendanceDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.KindValidation, "invalid payload"))
		return
	}
	day, count, err := h.attendance.ReplaceDay(c.Request.Context(), c.Param("day"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AttendanceDayResponse{Day: day.String(), Count: count})
}
