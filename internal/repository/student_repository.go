package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const studentColumns = "id, name, code, class_name, created_at, updated_at"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns the roster ordered by code.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students ORDER BY code ASC"
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// MaxNumericCode returns the highest purely numeric code, or 0 when there is none.
func (r *StudentRepository) MaxNumericCode(ctx context.Context) (int, error) {
	const query = `SELECT COALESCE(MAX(code::bigint), 0) FROM students WHERE code ~ '^[0-9]{1,18}$'`
	var max int64
	if err := r.db.GetContext(ctx, &max, query); err != nil {
		return 0, fmt.Errorf("max student code: %w", err)
	}
	return int(max), nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, input models.NewStudent) (*models.Student, error) {
	return insertStudent(ctx, r.db, input)
}

// Update applies the non-nil fields of patch. It returns sql.ErrNoRows when the student is absent.
func (r *StudentRepository) Update(ctx context.Context, id string, patch models.StudentPatch) (*models.Student, error) {
	sets := []string{}
	args := []interface{}{id}
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.Code != nil {
		args = append(args, *patch.Code)
		sets = append(sets, fmt.Sprintf("code = $%d", len(args)))
	}
	if patch.ClassName != nil {
		var className interface{}
		if *patch.ClassName != "" {
			className = *patch.ClassName
		}
		args = append(args, className)
		sets = append(sets, fmt.Sprintf("class_name = $%d", len(args)))
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $1 RETURNING %s", strings.Join(sets, ", "), studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update student: %w", translate(err))
	}
	return &student, nil
}

// Delete removes a student; attendance rows follow through the cascading foreign key.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll wipes the roster and every attendance record in one transaction.
func (r *StudentRepository) DeleteAll(ctx context.Context) (result models.ClearResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin clear roster transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err = wipeRoster(ctx, tx)
	if err != nil {
		return models.ClearResult{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.ClearResult{}, fmt.Errorf("commit clear roster: %w", err)
	}
	return result, nil
}

// ReplaceAll deletes the current roster and inserts inputs in order within one transaction.
// Each insert runs under a savepoint so a failing row is counted and skipped without
// discarding the rest of the batch.
func (r *StudentRepository) ReplaceAll(ctx context.Context, inputs []models.NewStudent) (outcome models.ImportOutcome, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return outcome, fmt.Errorf("begin replace roster transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = wipeRoster(ctx, tx); err != nil {
		return models.ImportOutcome{}, err
	}

	outcome.Created = make([]models.Student, 0, len(inputs))
	for i, input := range inputs {
		if _, err = tx.ExecContext(ctx, "SAVEPOINT roster_row"); err != nil {
			return models.ImportOutcome{}, fmt.Errorf("savepoint roster row: %w", err)
		}
		student, insertErr := insertStudent(ctx, tx, input)
		if insertErr != nil {
			if _, err = tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT roster_row"); err != nil {
				return models.ImportOutcome{}, fmt.Errorf("rollback roster row: %w", err)
			}
			outcome = outcome.Add(i+1, nil, insertErr)
			continue
		}
		if _, err = tx.ExecContext(ctx, "RELEASE SAVEPOINT roster_row"); err != nil {
			return models.ImportOutcome{}, fmt.Errorf("release roster row: %w", err)
		}
		outcome = outcome.Add(i+1, student, nil)
	}

	if err = tx.Commit(); err != nil {
		return models.ImportOutcome{}, fmt.Errorf("commit replace roster: %w", err)
	}
	return outcome, nil
}

func wipeRoster(ctx context.Context, tx *sqlx.Tx) (models.ClearResult, error) {
	var result models.ClearResult
	res, err := tx.ExecContext(ctx, `DELETE FROM attendance`)
	if err != nil {
		return result, fmt.Errorf("delete attendance: %w", err)
	}
	if result.DeletedAttendance, err = res.RowsAffected(); err != nil {
		return result, fmt.Errorf("delete attendance rows affected: %w", err)
	}
	res, err = tx.ExecContext(ctx, `DELETE FROM students`)
	if err != nil {
		return result, fmt.Errorf("delete students: %w", err)
	}
	if result.DeletedStudents, err = res.RowsAffected(); err != nil {
		return result, fmt.Errorf("delete students rows affected: %w", err)
	}
	return result, nil
}

func insertStudent(ctx context.Context, q sqlx.QueryerContext, input models.NewStudent) (*models.Student, error) {
	now := time.Now().UTC()
	query := `INSERT INTO students (id, name, code, class_name, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5) RETURNING ` + studentColumns
	var student models.Student
	if err := sqlx.GetContext(ctx, q, &student, query, uuid.NewString(), input.Name, input.Code, input.ClassName, now); err != nil {
		return nil, fmt.Errorf("create student: %w", translate(err))
	}
	return &student, nil
}
