package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const attendanceDetailSelect = `SELECT a.id, a.student_id, a.day, a.status, a.note, a.created_at, a.updated_at,
        s.name AS student_name, s.code AS student_code
        FROM attendance a
        JOIN students s ON s.id = a.student_id`

// AttendanceRepository persists one status per student and day.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByDay returns the records of a single day ordered by student code.
func (r *AttendanceRepository) ListByDay(ctx context.Context, day models.Day) ([]models.AttendanceDetail, error) {
	query := attendanceDetailSelect + ` WHERE a.day = $1 ORDER BY s.code ASC`
	records := []models.AttendanceDetail{}
	if err := r.db.SelectContext(ctx, &records, query, day); err != nil {
		return nil, fmt.Errorf("list attendance by day: %w", err)
	}
	return records, nil
}

// ListByRange returns records with from <= day < to, newest day first.
func (r *AttendanceRepository) ListByRange(ctx context.Context, from, to models.Day) ([]models.AttendanceDetail, error) {
	query := attendanceDetailSelect + ` WHERE a.day >= $1 AND a.day < $2 ORDER BY a.day DESC, s.code ASC`
	records := []models.AttendanceDetail{}
	if err := r.db.SelectContext(ctx, &records, query, from, to); err != nil {
		return nil, fmt.Errorf("list attendance by range: %w", err)
	}
	return records, nil
}

// Upsert creates or overwrites the record for the entry's student on day.
func (r *AttendanceRepository) Upsert(ctx context.Context, day models.Day, entry models.AttendanceEntry) (*models.AttendanceRecord, error) {
	return upsertAttendance(ctx, r.db, day, entry, time.Now().UTC())
}

// ReplaceDay deletes every record of day and inserts entries in the same transaction.
func (r *AttendanceRepository) ReplaceDay(ctx context.Context, day models.Day, entries []models.AttendanceEntry) (count int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace day transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance WHERE day = $1`, day); err != nil {
		return 0, fmt.Errorf("delete attendance day: %w", err)
	}

	now := time.Now().UTC()
	for _, entry := range entries {
		if _, err = upsertAttendance(ctx, tx, day, entry, now); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace day: %w", err)
	}
	return len(entries), nil
}

func upsertAttendance(ctx context.Context, q sqlx.QueryerContext, day models.Day, entry models.AttendanceEntry, now time.Time) (*models.AttendanceRecord, error) {
	const query = `INSERT INTO attendance (id, student_id, day, status, note, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
        ON CONFLICT (student_id, day) DO UPDATE SET status = EXCLUDED.status, note = EXCLUDED.note, updated_at = EXCLUDED.updated_at
        RETURNING id, student_id, day, status, note, created_at, updated_at`
	var record models.AttendanceRecord
	if err := sqlx.GetContext(ctx, q, &record, query, uuid.NewString(), entry.StudentID, day, entry.Status, entry.Note, now); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", translate(err))
	}
	return &record, nil
}
