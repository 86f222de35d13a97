package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type studentServiceMock struct {
	students   []models.Student
	cacheHit   bool
	err        error
	outcome    models.ImportOutcome
	preview    *dto.ImportPreviewResponse
	gotNames   []string
	gotReplace *bool
	gotUpload  []byte
	gotID      string
}

func (m *studentServiceMock) List(ctx context.Context) ([]models.Student, bool, error) {
	return m.students, m.cacheHit, m.err
}

func (m *studentServiceMock) Create(ctx context.Context, req service.CreateStudentRequest) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Student{ID: "s-1", Name: req.Name, Code: "001"}, nil
}

func (m *studentServiceMock) Rename(ctx context.Context, id string, req service.RenameStudentRequest) (*models.Student, error) {
	m.gotID = id
	if m.err != nil {
		return nil, m.err
	}
	return &models.Student{ID: id, Name: *req.Name, Code: "001"}, nil
}

func (m *studentServiceMock) Delete(ctx context.Context, id string) error {
	m.gotID = id
	return m.err
}

func (m *studentServiceMock) ClearAll(ctx context.Context) (models.ClearResult, error) {
	return models.ClearResult{DeletedStudents: 2, DeletedAttendance: 5}, m.err
}

func (m *studentServiceMock) BulkImport(ctx context.Context, raw []string, replaceAll bool) (models.ImportOutcome, error) {
	m.gotNames = raw
	m.gotReplace = &replaceAll
	return m.outcome, m.err
}

func (m *studentServiceMock) ImportSpreadsheet(ctx context.Context, r io.Reader, replaceAll bool) (models.ImportOutcome, error) {
	m.gotReplace = &replaceAll
	m.gotUpload, _ = io.ReadAll(r)
	return m.outcome, m.err
}

func (m *studentServiceMock) PreviewSpreadsheet(r io.Reader) (*dto.ImportPreviewResponse, error) {
	m.gotUpload, _ = io.ReadAll(r)
	return m.preview, m.err
}

func TestStudentHandlerListReportsCacheHit(t *testing.T) {
	mock := &studentServiceMock{students: []models.Student{{ID: "s-1", Name: "A", Code: "001"}}, cacheHit: true}
	h := NewStudentHandler(mock, 0)

	c, w := newGinContext(http.MethodGet, "/students", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), `"code":"001"`)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestStudentHandlerCreateAndRename(t *testing.T) {
	mock := &studentServiceMock{}
	h := NewStudentHandler(mock, 0)

	c, w := newGinContext(http.MethodPost, "/students", mustJSON(t, map[string]string{"name": "สมชาย"}))
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	c, w = newGinContext(http.MethodPost, "/students", []byte("{"))
	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)

	c, w = newGinContext(http.MethodPut, "/students/s-9", mustJSON(t, map[string]string{"name": "B"}))
	c.Params = gin.Params{{Key: "id", Value: "s-9"}}
	h.Rename(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-9", mock.gotID)
}

func TestStudentHandlerMapsErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{appErrors.Clone(appErrors.ErrDuplicateCode, "student code already used"), http.StatusConflict, "DUPLICATE_CODE"},
		{appErrors.Clone(appErrors.ErrNotFound, "student not found"), http.StatusNotFound, "NOT_FOUND"},
		{assert.AnError, http.StatusInternalServerError, "STORE_FAILURE"},
	}
	for _, tc := range cases {
		h := NewStudentHandler(&studentServiceMock{err: tc.err}, 0)
		c, w := newGinContext(http.MethodPut, "/students/s-1", mustJSON(t, map[string]string{"name": "B"}))
		c.Params = gin.Params{{Key: "id", Value: "s-1"}}
		h.Rename(c)
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.code, decode(t, w).Error.Code)
	}
}

func TestStudentHandlerDeleteAndClear(t *testing.T) {
	mock := &studentServiceMock{}
	h := NewStudentHandler(mock, 0)

	c, w := newGinContext(http.MethodDelete, "/students/s-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "s-1", mock.gotID)

	c, w = newGinContext(http.MethodDelete, "/students", nil)
	h.Clear(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted_students":2,"deleted_attendance":5}`, string(decode(t, w).Data))
}

func TestStudentHandlerBulkImport(t *testing.T) {
	mock := &studentServiceMock{outcome: models.ImportOutcome{Created: []models.Student{{ID: "s-1", Name: "A", Code: "001"}}, Failed: 1}}
	h := NewStudentHandler(mock, 0)

	c, w := newGinContext(http.MethodPost, "/students/bulk", mustJSON(t, map[string]interface{}{"names": []string{"ด.ช.A", "B"}}))
	h.BulkImport(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"ด.ช.A", "B"}, mock.gotNames)
	require.NotNil(t, mock.gotReplace)
	assert.False(t, *mock.gotReplace)

	var body dto.BulkImportResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	assert.Equal(t, 1, body.CreatedCount)
	assert.Equal(t, 1, body.FailedCount)

	h = NewStudentHandler(&studentServiceMock{err: appErrors.Clone(appErrors.ErrNoValidNames, "")}, 0)
	c, w = newGinContext(http.MethodPost, "/students/bulk", mustJSON(t, map[string]interface{}{"names": []string{"1"}}))
	h.BulkImport(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_VALID_NAMES", decode(t, w).Error.Code)
}

func TestStudentHandlerUpload(t *testing.T) {
	mock := &studentServiceMock{outcome: models.ImportOutcome{Created: []models.Student{}}}
	h := NewStudentHandler(mock, 64)

	c, w := newUploadContext(t, "/students/upload", "roster.XLSX", []byte("workbook"), nil)
	h.Upload(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, *mock.gotReplace, "replace_all defaults to true")
	assert.Equal(t, []byte("workbook"), mock.gotUpload)

	c, w = newUploadContext(t, "/students/upload", "roster.xlsx", []byte("workbook"), map[string]string{"replace_all": "false"})
	h.Upload(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, *mock.gotReplace)
}

func TestStudentHandlerUploadRejects(t *testing.T) {
	h := NewStudentHandler(&studentServiceMock{}, 8)

	cases := []struct {
		name     string
		filename string
		content  []byte
		fields   map[string]string
		message  string
	}{
		{"missing file", "", nil, nil, "roster file is required"},
		{"wrong extension", "roster.csv", []byte("a"), nil, "only .xlsx files are supported"},
		{"too large", "roster.xlsx", []byte("0123456789"), nil, "roster file is too large"},
		{"body over limit", "roster.xlsx", bytes.Repeat([]byte("x"), multipartOverheadBytes+64), nil, "roster file is too large"},
		{"bad flag", "roster.xlsx", []byte("a"), map[string]string{"replace_all": "maybe"}, "replace_all must be a boolean"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := newUploadContext(t, "/students/upload", tc.filename, tc.content, tc.fields)
			h.Upload(c)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.message, decode(t, w).Error.Message)
		})
	}
}

func TestStudentHandlerPreview(t *testing.T) {
	mock := &studentServiceMock{preview: &dto.ImportPreviewResponse{
		Names:         []dto.PreviewName{{Position: 1, Raw: "ด.ช.A", Name: "A", Gender: "male"}},
		AcceptedCount: 1,
		RejectedCount: 2,
	}}
	h := NewStudentHandler(mock, 0)

	c, w := newUploadContext(t, "/students/upload/preview", "roster.xlsx", []byte("workbook"), nil)
	h.Preview(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"gender":"male"`)
	assert.Nil(t, mock.gotReplace)
}
