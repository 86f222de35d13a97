package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type reportRosterReader interface {
	List(ctx context.Context) ([]models.Student, error)
}

type reportAttendanceReader interface {
	ListByRange(ctx context.Context, from, to models.Day) ([]models.AttendanceDetail, error)
}

// ReportService builds monthly reports from the roster and attendance stores.
type ReportService struct {
	students   reportRosterReader
	attendance reportAttendanceReader
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(students reportRosterReader, attendance reportAttendanceReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{students: students, attendance: attendance, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Monthly returns the report for a month. The boolean reports whether it came from cache.
func (s *ReportService) Monthly(ctx context.Context, query dto.MonthQuery) (*models.MonthlyReport, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.KindValidation, "invalid month")
	}

	key := monthlyReportCacheKey(query.Month, query.Year)
	var cached models.MonthlyReport
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	start := time.Now()
	roster, err := s.students.List(ctx)
	s.metrics.ObserveDBQuery("report_roster", start)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to load roster")
	}

	from, to := models.MonthRange(query.Month, query.Year)
	start = time.Now()
	details, err := s.attendance.ListByRange(ctx, from, to)
	s.metrics.ObserveDBQuery("report_attendance", start)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to load attendance")
	}

	records := make([]models.AttendanceRecord, len(details))
	for i, detail := range details {
		records[i] = detail.AttendanceRecord
	}

	report := BuildMonthlyReport(query.Month, query.Year, roster, records)
	_ = s.cache.Set(ctx, key, report, 0)
	return &report, false, nil
}
