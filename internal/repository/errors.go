package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")

	studentCodeConstraint = "students_code_key"
)

var (
	// ErrDuplicateCode is returned when a write collides with an existing student code.
	ErrDuplicateCode = errors.New("student code already exists")
	// ErrStudentNotFound is returned when an attendance write references a missing student.
	ErrStudentNotFound = errors.New("student does not exist")
)

// translate maps driver errors onto repository sentinels, keeping the original in the chain.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		if pqErr.Constraint == studentCodeConstraint {
			return fmt.Errorf("%w: %w", ErrDuplicateCode, err)
		}
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %w", ErrStudentNotFound, err)
	}
	return err
}
