package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

var (
	attendanceRowColumns = []string{"id", "student_id", "day", "status", "note", "created_at", "updated_at"}
	detailRowColumns     = append(append([]string{}, attendanceRowColumns...), "student_name", "student_code")
)

func TestAttendanceRepositoryListByDay(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := models.NewDay(2025, time.March, 7)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.day = $1 ORDER BY s.code ASC")).
		WithArgs("2025-03-07").
		WillReturnRows(sqlmock.NewRows(detailRowColumns).
			AddRow("a1", "s1", time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), "PRESENT", nil, now, now, "สมชาย", "001").
			AddRow("a2", "s2", time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), "LATE", "bus", now, now, "มาลี", "002"))

	records, err := repo.ListByDay(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, day, records[0].Day)
	assert.Equal(t, models.AttendanceStatusLate, records[1].Status)
	require.NotNil(t, records[1].Note)
	assert.Equal(t, "bus", *records[1].Note)
	assert.Equal(t, "002", records[1].StudentCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByRange(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from, to := models.MonthRange(2, 2025)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.day >= $1 AND a.day < $2 ORDER BY a.day DESC, s.code ASC")).
		WithArgs("2025-02-01", "2025-03-01").
		WillReturnRows(sqlmock.NewRows(detailRowColumns))

	records, err := repo.ListByRange(context.Background(), from, to)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := models.NewDay(2025, time.March, 7)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (student_id, day) DO UPDATE SET status = EXCLUDED.status")).
		WithArgs(sqlmock.AnyArg(), "s1", "2025-03-07", models.AttendanceStatusPresent, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).AddRow("a1", "s1", "2025-03-07", "PRESENT", nil, now, now))

	record, err := repo.Upsert(context.Background(), day, models.AttendanceEntry{StudentID: "s1", Status: models.AttendanceStatusPresent})
	require.NoError(t, err)
	assert.Equal(t, "a1", record.ID)
	assert.Equal(t, day, record.Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertUnknownStudent(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "attendance_student_id_fkey"})

	_, err := repo.Upsert(context.Background(), models.NewDay(2025, time.March, 7), models.AttendanceEntry{StudentID: "ghost", Status: models.AttendanceStatusAbsent})
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestAttendanceRepositoryReplaceDay(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := models.NewDay(2025, time.March, 7)
	now := time.Now()
	note := "sick"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE day = $1")).
		WithArgs("2025-03-07").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectQuery("INSERT INTO attendance").
		WithArgs(sqlmock.AnyArg(), "s1", "2025-03-07", models.AttendanceStatusPresent, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).AddRow("a1", "s1", "2025-03-07", "PRESENT", nil, now, now))
	mock.ExpectQuery("INSERT INTO attendance").
		WithArgs(sqlmock.AnyArg(), "s2", "2025-03-07", models.AttendanceStatusExcused, note, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).AddRow("a2", "s2", "2025-03-07", "EXCUSED", note, now, now))
	mock.ExpectCommit()

	count, err := repo.ReplaceDay(context.Background(), day, []models.AttendanceEntry{
		{StudentID: "s1", Status: models.AttendanceStatusPresent},
		{StudentID: "s2", Status: models.AttendanceStatusExcused, Note: &note},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryReplaceDayEmptyClearsDay(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM attendance WHERE day").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	count, err := repo.ReplaceDay(context.Background(), models.NewDay(2025, time.March, 7), nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryReplaceDayRollsBack(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM attendance WHERE day").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectQuery("INSERT INTO attendance").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "attendance_student_id_fkey"})
	mock.ExpectRollback()

	_, err := repo.ReplaceDay(context.Background(), models.NewDay(2025, time.March, 7), []models.AttendanceEntry{
		{StudentID: "ghost", Status: models.AttendanceStatusPresent},
	})
	assert.ErrorIs(t, err, ErrStudentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
