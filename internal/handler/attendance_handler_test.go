package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type attendanceServiceMock struct {
	records   []models.AttendanceDetail
	err       error
	gotDay    string
	gotMonth  *dto.MonthQuery
	gotDayReq dto.AttendanceDayRequest
}

func (m *attendanceServiceMock) ListDay(ctx context.Context, rawDay string) ([]models.AttendanceDetail, error) {
	m.gotDay = rawDay
	return m.records, m.err
}

func (m *attendanceServiceMock) ListMonth(ctx context.Context, query dto.MonthQuery) ([]models.AttendanceDetail, error) {
	m.gotMonth = &query
	return m.records, m.err
}

func (m *attendanceServiceMock) Upsert(ctx context.Context, req dto.AttendanceUpsertRequest) (*models.AttendanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.AttendanceRecord{ID: "r-1", StudentID: req.StudentID, Day: models.NewDay(2025, time.March, 7), Status: models.AttendanceStatus(req.Status)}, nil
}

func (m *attendanceServiceMock) ReplaceDay(ctx context.Context, rawDay string, req dto.AttendanceDayRequest) (models.Day, int, error) {
	m.gotDay = rawDay
	m.gotDayReq = req
	if m.err != nil {
		return models.Day{}, 0, m.err
	}
	return models.NewDay(2025, time.March, 7), len(req.Entries), nil
}

func TestAttendanceHandlerListByDayAndMonth(t *testing.T) {
	mock := &attendanceServiceMock{records: []models.AttendanceDetail{{
		AttendanceRecord: models.AttendanceRecord{ID: "r-1", Day: models.NewDay(2025, time.March, 7), Status: models.AttendanceStatusLate},
		StudentName:      "A",
		StudentCode:      "001",
	}}}
	h := NewAttendanceHandler(mock)

	c, w := newGinContext(http.MethodGet, "/attendance?date=2025-03-07", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-03-07", mock.gotDay)
	assert.Contains(t, string(decode(t, w).Data), `"day":"2025-03-07"`)

	c, w = newGinContext(http.MethodGet, "/attendance?month=3&year=2025", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.gotMonth)
	assert.Equal(t, dto.MonthQuery{Month: 3, Year: 2025}, *mock.gotMonth)
}

func TestAttendanceHandlerListRequiresQuery(t *testing.T) {
	h := NewAttendanceHandler(&attendanceServiceMock{})

	c, w := newGinContext(http.MethodGet, "/attendance", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/attendance?month=march&year=2025", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerUpsert(t *testing.T) {
	h := NewAttendanceHandler(&attendanceServiceMock{})
	payload := mustJSON(t, dto.AttendanceUpsertRequest{StudentID: "s-1", Date: "2025-03-07", Status: "PRESENT"})

	c, w := newGinContext(http.MethodPost, "/attendance", payload)
	h.Upsert(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"status":"PRESENT"`)

	h = NewAttendanceHandler(&attendanceServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")})
	c, w = newGinContext(http.MethodPost, "/attendance", payload)
	h.Upsert(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandlerReplaceDay(t *testing.T) {
	mock := &attendanceServiceMock{}
	h := NewAttendanceHandler(mock)
	payload := mustJSON(t, dto.AttendanceDayRequest{Entries: []dto.AttendanceEntryRequest{
		{StudentID: "s-1", Status: "PRESENT"},
		{StudentID: "s-2", Status: "ABSENT"},
	}})

	c, w := newGinContext(http.MethodPut, "/attendance/days/2025-03-07", payload)
	c.Params = gin.Params{{Key: "day", Value: "2025-03-07"}}
	h.ReplaceDay(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-03-07", mock.gotDay)
	assert.Len(t, mock.gotDayReq.Entries, 2)
	assert.JSONEq(t, `{"day":"2025-03-07","count":2}`, string(decode(t, w).Data))
}
