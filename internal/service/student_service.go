package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
	"github.com/noah-isme/attendance-tracker-api/pkg/spreadsheet"
)

const studentCodeWidth = 3

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	MaxNumericCode(ctx context.Context) (int, error)
	Create(ctx context.Context, input models.NewStudent) (*models.Student, error)
	Update(ctx context.Context, id string, patch models.StudentPatch) (*models.Student, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (models.ClearResult, error)
	ReplaceAll(ctx context.Context, inputs []models.NewStudent) (models.ImportOutcome, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Code      *string `json:"code" validate:"omitempty,max=32"`
	ClassName *string `json:"class_name" validate:"omitempty,max=100"`
}

// RenameStudentRequest holds the optional fields of a rename.
type RenameStudentRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=200"`
	Code      *string `json:"code" validate:"omitempty,max=32"`
	ClassName *string `json:"class_name" validate:"omitempty,max=100"`
}

// StudentService handles roster use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns the roster ordered by code. The boolean reports a cache hit.
func (s *StudentService) List(ctx context.Context) ([]models.Student, bool, error) {
	var cached []models.Student
	if hit, _ := s.cache.Get(ctx, studentListCacheKey, &cached); hit {
		return cached, true, nil
	}

	start := time.Now()
	students, err := s.repo.List(ctx)
	s.metrics.ObserveDBQuery("students_list", start)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to list students")
	}
	_ = s.cache.Set(ctx, studentListCacheKey, students, 0)
	return students, false, nil
}

// Create registers a single student. A missing code is generated from the highest numeric code.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindValidation, "invalid student payload")
	}

	input := models.NewStudent{Name: req.Name, ClassName: optionalText(req.ClassName)}
	if code := optionalText(req.Code); code != nil {
		input.Code = *code
	} else {
		max, err := s.repo.MaxNumericCode(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to generate student code")
		}
		input.Code = formatStudentCode(max + 1)
	}

	student, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, mapStudentWriteError(err, "failed to create student")
	}
	s.cache.InvalidateReadModels(ctx)
	return student, nil
}

// Rename updates the provided fields of a student. An empty class name clears it.
func (s *StudentService) Rename(ctx context.Context, id string, req RenameStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindValidation, "invalid student payload")
	}
	if !validStudentID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	patch := models.StudentPatch{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.New(appErrors.KindValidation, "name must not be blank").WithDetail("field", "name")
		}
		patch.Name = &name
	}
	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code == "" {
			return nil, appErrors.New(appErrors.KindValidation, "code must not be blank").WithDetail("field", "code")
		}
		patch.Code = &code
	}
	if req.ClassName != nil {
		className := strings.TrimSpace(*req.ClassName)
		patch.ClassName = &className
	}

	if patch.Empty() {
		student, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, mapStudentWriteError(err, "failed to load student")
		}
		return student, nil
	}

	student, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, mapStudentWriteError(err, "failed to update student")
	}
	s.cache.InvalidateReadModels(ctx)
	return student, nil
}

// Delete removes a student and, through the cascade, their attendance.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if !validStudentID(id) {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStudentWriteError(err, "failed to delete student")
	}
	s.cache.InvalidateReadModels(ctx)
	return nil
}

// ClearAll wipes every student and attendance record.
func (s *StudentService) ClearAll(ctx context.Context) (models.ClearResult, error) {
	result, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return models.ClearResult{}, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to clear roster")
	}
	s.cache.InvalidateReadModels(ctx)
	s.logger.Info("roster cleared",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.Int64("deleted_students", result.DeletedStudents),
		zap.Int64("deleted_attendance", result.DeletedAttendance),
	)
	return result, nil
}

// BulkImport normalizes raw names and writes the survivors with sequential codes.
// Individual write failures are counted in the outcome rather than aborting the batch.
func (s *StudentService) BulkImport(ctx context.Context, raw []string, replaceAll bool) (models.ImportOutcome, error) {
	names := NormalizeStudentNames(raw)
	if len(names) == 0 {
		return models.ImportOutcome{}, appErrors.Clone(appErrors.ErrNoValidNames, "").WithDetail("received", len(raw))
	}

	inputs := make([]models.NewStudent, len(names))
	for i, name := range names {
		inputs[i] = models.NewStudent{Name: name, Code: formatStudentCode(i + 1)}
	}

	var outcome models.ImportOutcome
	if replaceAll {
		var err error
		outcome, err = s.repo.ReplaceAll(ctx, inputs)
		if err != nil {
			return models.ImportOutcome{}, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to replace roster")
		}
	} else {
		outcome.Created = make([]models.Student, 0, len(inputs))
		for i, input := range inputs {
			student, err := s.repo.Create(ctx, input)
			outcome = outcome.Add(i+1, student, err)
		}
	}

	for _, position := range outcome.FailedPositions {
		s.logger.Warn("student import row failed",
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Int("position", position),
			zap.String("code", inputs[position-1].Code),
		)
	}
	s.metrics.RecordImport(outcome.CreatedCount(), outcome.Failed)
	s.cache.InvalidateReadModels(ctx)
	s.logger.Info("students imported",
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.Int("received", len(raw)),
		zap.Int("accepted", len(names)),
		zap.Int("created", outcome.CreatedCount()),
		zap.Int("failed", outcome.Failed),
		zap.Bool("replace_all", replaceAll),
	)
	return outcome, nil
}

// ImportSpreadsheet reads the first column of an xlsx workbook and runs BulkImport on it.
func (s *StudentService) ImportSpreadsheet(ctx context.Context, r io.Reader, replaceAll bool) (models.ImportOutcome, error) {
	values, err := readRosterWorkbook(r)
	if err != nil {
		return models.ImportOutcome{}, err
	}
	return s.BulkImport(ctx, values, replaceAll)
}

// PreviewSpreadsheet reports what ImportSpreadsheet would write without touching the roster.
func (s *StudentService) PreviewSpreadsheet(r io.Reader) (*dto.ImportPreviewResponse, error) {
	values, err := readRosterWorkbook(r)
	if err != nil {
		return nil, err
	}
	preview := &dto.ImportPreviewResponse{Names: []dto.PreviewName{}}
	for _, value := range values {
		name, ok := NormalizeStudentName(value)
		if !ok {
			preview.RejectedCount++
			continue
		}
		preview.Names = append(preview.Names, dto.PreviewName{
			Position: len(preview.Names) + 1,
			Raw:      value,
			Name:     name,
			Gender:   string(DetectGender(value)),
		})
	}
	preview.AcceptedCount = len(preview.Names)
	return preview, nil
}

func readRosterWorkbook(r io.Reader) ([]string, error) {
	values, err := spreadsheet.FirstColumn(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindValidation, "file is not a readable xlsx workbook")
	}
	return values, nil
}

func mapStudentWriteError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	case errors.Is(err, repository.ErrDuplicateCode):
		return appErrors.Wrap(err, appErrors.KindDuplicateCode, appErrors.ErrDuplicateCode.Message)
	default:
		return appErrors.Wrap(err, appErrors.KindStoreFailure, message)
	}
}

// formatStudentCode zero-pads n to three digits without truncating wider numbers.
func formatStudentCode(n int) string {
	code := strconv.Itoa(n)
	if len(code) >= studentCodeWidth {
		return code
	}
	return fmt.Sprintf("%0*d", studentCodeWidth, n)
}

func validStudentID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// optionalText trims v and treats blank as absent.
func optionalText(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
