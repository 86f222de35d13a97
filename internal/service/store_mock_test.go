package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

// memStore emulates the roster and attendance tables, including unique codes and the cascade.
type memStore struct {
	mu         sync.Mutex
	students   map[string]models.Student
	attendance map[string]models.AttendanceRecord
	failCodes  map[string]bool
	err        error
	listCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		students:   map[string]models.Student{},
		attendance: map[string]models.AttendanceRecord{},
		failCodes:  map[string]bool{},
	}
}

func attendanceKey(studentID string, day models.Day) string {
	return studentID + "|" + day.String()
}

func (m *memStore) List(ctx context.Context) ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *memStore) MaxNumericCode(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, s := range m.students {
		if n, err := strconv.Atoi(s.Code); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

func (m *memStore) Create(ctx context.Context, input models.NewStudent) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(input)
}

func (m *memStore) insertLocked(input models.NewStudent) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.failCodes[input.Code] {
		return nil, errors.New("insert failed")
	}
	for _, s := range m.students {
		if s.Code == input.Code {
			return nil, repository.ErrDuplicateCode
		}
	}
	now := time.Now().UTC()
	s := models.Student{ID: uuid.NewString(), Name: input.Name, Code: input.Code, ClassName: input.ClassName, CreatedAt: now, UpdatedAt: now}
	m.students[s.ID] = s
	return &s, nil
}

func (m *memStore) Update(ctx context.Context, id string, patch models.StudentPatch) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Code != nil {
		for otherID, other := range m.students {
			if otherID != id && other.Code == *patch.Code {
				return nil, repository.ErrDuplicateCode
			}
		}
		s.Code = *patch.Code
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.ClassName != nil {
		if *patch.ClassName == "" {
			s.ClassName = nil
		} else {
			className := *patch.ClassName
			s.ClassName = &className
		}
	}
	s.UpdatedAt = time.Now().UTC()
	m.students[id] = s
	return &s, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	for key, record := range m.attendance {
		if record.StudentID == id {
			delete(m.attendance, key)
		}
	}
	return nil
}

func (m *memStore) DeleteAll(ctx context.Context) (models.ClearResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.ClearResult{}, m.err
	}
	result := models.ClearResult{DeletedStudents: int64(len(m.students)), DeletedAttendance: int64(len(m.attendance))}
	m.students = map[string]models.Student{}
	m.attendance = map[string]models.AttendanceRecord{}
	return result, nil
}

func (m *memStore) ReplaceAll(ctx context.Context, inputs []models.NewStudent) (models.ImportOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.ImportOutcome{}, m.err
	}
	m.students = map[string]models.Student{}
	m.attendance = map[string]models.AttendanceRecord{}
	outcome := models.ImportOutcome{Created: []models.Student{}}
	for i, input := range inputs {
		s, err := m.insertLocked(input)
		outcome = outcome.Add(i+1, s, err)
	}
	return outcome, nil
}

func (m *memStore) details(filter func(models.AttendanceRecord) bool) []models.AttendanceDetail {
	out := []models.AttendanceDetail{}
	for _, record := range m.attendance {
		if !filter(record) {
			continue
		}
		s := m.students[record.StudentID]
		out = append(out, models.AttendanceDetail{AttendanceRecord: record, StudentName: s.Name, StudentCode: s.Code})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Time().Equal(out[j].Day.Time()) {
			return out[i].Day.Time().After(out[j].Day.Time())
		}
		return out[i].StudentCode < out[j].StudentCode
	})
	return out
}

func (m *memStore) ListByDay(ctx context.Context, day models.Day) ([]models.AttendanceDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.details(func(r models.AttendanceRecord) bool { return r.Day == day }), nil
}

func (m *memStore) ListByRange(ctx context.Context, from, to models.Day) ([]models.AttendanceDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.details(func(r models.AttendanceRecord) bool {
		t := r.Day.Time()
		return !t.Before(from.Time()) && t.Before(to.Time())
	}), nil
}

func (m *memStore) upsertLocked(day models.Day, entry models.AttendanceEntry) (*models.AttendanceRecord, error) {
	if _, ok := m.students[entry.StudentID]; !ok {
		return nil, repository.ErrStudentNotFound
	}
	key := attendanceKey(entry.StudentID, day)
	now := time.Now().UTC()
	record, ok := m.attendance[key]
	if !ok {
		record = models.AttendanceRecord{ID: uuid.NewString(), StudentID: entry.StudentID, Day: day, CreatedAt: now}
	}
	record.Status = entry.Status
	record.Note = entry.Note
	record.UpdatedAt = now
	m.attendance[key] = record
	return &record, nil
}

func (m *memStore) Upsert(ctx context.Context, day models.Day, entry models.AttendanceEntry) (*models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.upsertLocked(day, entry)
}

func (m *memStore) ReplaceDay(ctx context.Context, day models.Day, entries []models.AttendanceEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	snapshot := make(map[string]models.AttendanceRecord, len(m.attendance))
	for k, v := range m.attendance {
		snapshot[k] = v
	}
	for key, record := range m.attendance {
		if record.Day == day {
			delete(m.attendance, key)
		}
	}
	for _, entry := range entries {
		if _, err := m.upsertLocked(day, entry); err != nil {
			m.attendance = snapshot
			return 0, err
		}
	}
	return len(entries), nil
}

func (m *memStore) seedStudent(name, code string) models.Student {
	s, err := m.Create(context.Background(), models.NewStudent{Name: name, Code: code})
	if err != nil {
		panic(err)
	}
	return *s
}

// memCache is an in-process CacheRepository with glob invalidation.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	removed := 0
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
