package models

import "time"

// Student represents a learner on the classroom roster.
type Student struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	ClassName *string   `db:"class_name" json:"class_name,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentPatch carries the optional fields of a rename. Nil leaves the column untouched.
type StudentPatch struct {
	Name      *string
	Code      *string
	ClassName *string
}

// Empty reports whether the patch changes nothing.
func (p StudentPatch) Empty() bool {
	return p.Name == nil && p.Code == nil && p.ClassName == nil
}

// NewStudent holds the values inserted for one roster entry.
type NewStudent struct {
	Name      string
	Code      string
	ClassName *string
}

// ImportOutcome accumulates the result of a bulk roster write.
type ImportOutcome struct {
	Created []Student `json:"created"`
	Failed  int       `json:"failed"`
	// FailedPositions holds the 1-based positions of names that could not be written.
	FailedPositions []int `json:"-"`
}

// Add folds the creation result of the name at position into the outcome.
func (o ImportOutcome) Add(position int, student *Student, err error) ImportOutcome {
	if err != nil || student == nil {
		o.Failed++
		o.FailedPositions = append(o.FailedPositions, position)
		return o
	}
	o.Created = append(o.Created, *student)
	return o
}

// CreatedCount returns how many students were written.
func (o ImportOutcome) CreatedCount() int {
	return len(o.Created)
}

// ClearResult reports what a full roster wipe removed.
type ClearResult struct {
	DeletedStudents   int64 `json:"deleted_students"`
	DeletedAttendance int64 `json:"deleted_attendance"`
}
