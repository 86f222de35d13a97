package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

const (
	rosterUploadField      = "file"
	rosterUploadExtension  = ".xlsx"
	multipartOverheadBytes = 1 << 20
	defaultMaxUploadBytes  = 10 << 20
)

type studentService interface {
	List(ctx context.Context) ([]models.Student, bool, error)
	Create(ctx context.Context, req service.CreateStudentRequest) (*models.Student, error)
	Rename(ctx context.Context, id string, req service.RenameStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) (models.ClearResult, error)
	BulkImport(ctx context.Context, raw []string, replaceAll bool) (models.ImportOutcome, error)
	ImportSpreadsheet(ctx context.Context, r io.Reader, replaceAll bool) (models.ImportOutcome, error)
	PreviewSpreadsheet(r io.Reader) (*dto.ImportPreviewResponse, error)
}

// StudentHandler exposes roster endpoints.
type StudentHandler struct {
	students       studentService
	maxUploadBytes int64
}

// NewStudentHandler constructs StudentHandler. Uploads larger than maxUploadBytes are rejected.
func NewStudentHandler(students studentService, maxUploadBytes int64) *StudentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &StudentHandler{students: students, maxUploadBytes: maxUploadBytes}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, hit, err := h.students.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, students, middleware.ResponseMeta(c))
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.KindValidation, "invalid payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Rename godoc
// @Summary Rename student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.RenameStudentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Rename(c *gin.Context) {
	var req service.RenameStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.KindValidation, "invalid payload"))
		return
	}
	student, err := h.students.Rename(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Delete godoc
// @Summary Delete student and their attendance
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Clear godoc
// @Summary Delete every student and attendance record
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [delete]
func (h *StudentHandler) Clear(c *gin.Context) {
	result, err := h.students.ClearAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// BulkImport godoc
// @Summary Import students from raw names
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.BulkImportRequest true "Raw names"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/bulk [post]
func (h *StudentHandler) BulkImport(c *gin.Context) {
	var req dto.BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.KindValidation, "invalid payload"))
		return
	}
	outcome, err := h.students.BulkImport(c.Request.Context(), req.Names, req.ReplaceAll)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, importResponse(outcome))
}

// Upload godoc
// @Summary Import students from an .xlsx roster
// @Description Names are read from column A of the first sheet.
// @Tags Students
// @Accept mpfd
// @Produce json
// @Param file formData file true "Roster workbook"
// @Param replace_all formData bool false "Replace the current roster (default true)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/upload [post]
func (h *StudentHandler) Upload(c *gin.Context) {
	file, err := h.openRosterUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	replaceAll, err := parseReplaceAll(c.PostForm("replace_all"))
	if err != nil {
		response.Error(c, err)
		return
	}

	outcome, err := h.students.ImportSpreadsheet(c.Request.Context(), file, replaceAll)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, importResponse(outcome))
}

// Preview godoc
// @Summary Preview an .xlsx roster without importing it
// @Tags Students
// @Accept mpfd
// @Produce json
// @Param file formData file true "Roster workbook"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/upload/preview [post]
func (h *StudentHandler) Preview(c *gin.Context) {
	file, err := h.openRosterUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	preview, err := h.students.PreviewSpreadsheet(file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview)
}

func (h *StudentHandler) openRosterUpload(c *gin.Context) (io.ReadCloser, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverheadBytes)
	header, err := c.FormFile(rosterUploadField)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, appErrors.New(appErrors.KindValidation, "roster file is too large").WithDetail("max_bytes", h.maxUploadBytes)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindValidation, "roster file is required").WithDetail("field", rosterUploadField)
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), rosterUploadExtension) {
		return nil, appErrors.New(appErrors.KindValidation, "only .xlsx files are supported").WithDetail("filename", header.Filename)
	}
	if header.Size > h.maxUploadBytes {
		return nil, appErrors.New(appErrors.KindValidation, "roster file is too large").WithDetail("max_bytes", h.maxUploadBytes)
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.KindValidation, "unreadable roster file")
	}
	return file, nil
}

func parseReplaceAll(raw string) (bool, error) {
	if strings.TrimSpace(raw) == "" {
		return true, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.KindValidation, "replace_all must be a boolean").WithDetail("field", "replace_all")
	}
	return value, nil
}

func importResponse(outcome models.ImportOutcome) dto.BulkImportResponse {
	created := outcome.Created
	if created == nil {
		created = []models.Student{}
	}
	return dto.BulkImportResponse{
		Message:      fmt.Sprintf("imported %d students", len(created)),
		CreatedCount: len(created),
		FailedCount:  outcome.Failed,
		Students:     created,
	}
}
