package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
)

type attendanceRepository interface {
	ListByDay(ctx context.Context, day models.Day) ([]models.AttendanceDetail, error)
	ListByRange(ctx context.Context, from, to models.Day) ([]models.AttendanceDetail, error)
	Upsert(ctx context.Context, day models.Day, entry models.AttendanceEntry) (*models.AttendanceRecord, error)
	ReplaceDay(ctx context.Context, day models.Day, entries []models.AttendanceEntry) (int, error)
}

// AttendanceService records and lists daily attendance.
type AttendanceService struct {
	repo      attendanceRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
}

// NewAttendanceService constructs the attendance service. Timestamps are reduced to days in loc.
func NewAttendanceService(repo attendanceRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	RegisterAttendanceValidations(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, location: loc}
}

// RegisterAttendanceValidations adds the attendance_status tag to validate.
func RegisterAttendanceValidations(validate *validator.Validate) {
	_ = validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
}

// ParseDay converts raw input into a calendar day using the service timezone.
func (s *AttendanceService) ParseDay(raw string) (models.Day, error) {
	day, err := models.ParseDay(strings.TrimSpace(raw), s.location)
	if err != nil {
		return models.Day{}, appErrors.Wrap(err, appErrors.KindValidation, "invalid date").WithDetail("field", "date")
	}
	return day, nil
}

// ListDay returns every record of a single day.
func (s *AttendanceService) ListDay(ctx context.Context, rawDay string) ([]models.AttendanceDetail, error) {
	day, err := s.ParseDay(rawDay)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	records, err := s.repo.ListByDay(ctx, day)
	s.metrics.ObserveDBQuery("attendance_by_day", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to list attendance")
	}
	return records, nil
}

// ListMonth returns every record of a calendar month, newest day first.
func (s *AttendanceService) ListMonth(ctx context.Context, query dto.MonthQuery) ([]models.AttendanceDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindValidation, "invalid month")
	}
	from, to := models.MonthRange(query.Month, query.Year)
	start := time.Now()
	records, err := s.repo.ListByRange(ctx, from, to)
	s.metrics.ObserveDBQuery("attendance_by_month", start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to list attendance")
	}
	return records, nil
}

// Upsert creates or overwrites the record of one student for one day.
func (s *AttendanceService) Upsert(ctx context.Context, req dto.AttendanceUpsertRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindValidation, "invalid attendance payload")
	}
	day, err := s.ParseDay(req.Date)
	if err != nil {
		return nil, err
	}
	if !validStudentID(req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	record, err := s.repo.Upsert(ctx, day, models.AttendanceEntry{
		StudentID: req.StudentID,
		Status:    models.AttendanceStatus(req.Status),
		Note:      optionalText(req.Note),
	})
	if err != nil {
		return nil, mapAttendanceWriteError(err)
	}
	s.metrics.RecordAttendanceWrite("upsert", 1)
	s.cache.InvalidateReadModels(ctx)
	return record, nil
}

// ReplaceDay swaps every record of a day for the submitted entries.
// Students missing from the submission lose their record for that day.
func (s *AttendanceService) ReplaceDay(ctx context.Context, rawDay string, req dto.AttendanceDayRequest) (models.Day, int, error) {
	day, err := s.ParseDay(rawDay)
	if err != nil {
		return models.Day{}, 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Day{}, 0, appErrors.Wrap(err, appErrors.KindValidation, "invalid attendance payload")
	}

	seen := make(map[string]struct{}, len(req.Entries))
	entries := make([]models.AttendanceEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if _, dup := seen[entry.StudentID]; dup {
			return models.Day{}, 0, appErrors.New(appErrors.KindValidation, "student listed more than once").
				WithDetail("student_id", entry.StudentID)
		}
		seen[entry.StudentID] = struct{}{}
		if !validStudentID(entry.StudentID) {
			return models.Day{}, 0, appErrors.Clone(appErrors.ErrNotFound, "student not found").
				WithDetail("student_id", entry.StudentID)
		}
		entries = append(entries, models.AttendanceEntry{
			StudentID: entry.StudentID,
			Status:    models.AttendanceStatus(entry.Status),
			Note:      optionalText(entry.Note),
		})
	}

	count, err := s.repo.ReplaceDay(ctx, day, entries)
	if err != nil {
		return models.Day{}, 0, mapAttendanceWriteError(err)
	}
	s.metrics.RecordAttendanceWrite("replace_day", count)
	s.cache.InvalidateReadModels(ctx)
	s.logger.Info("attendance day replaced",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.String("day", day.String()),
		zap.Int("count", count),
	)
	return day, count, nil
}

func mapAttendanceWriteError(err error) error {
	if errors.Is(err, repository.ErrStudentNotFound) {
		return appErrors.Wrap(err, appErrors.KindNotFound, "student not found")
	}
	return appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to save attendance")
}
