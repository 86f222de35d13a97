package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type reportService interface {
	Monthly(ctx context.Context, query dto.MonthQuery) (*models.MonthlyReport, bool, error)
}

type reportExporter interface {
	ExportMonthly(ctx context.Context, query dto.ExportQuery) (*service.ExportFile, error)
}

// ReportHandler exposes monthly report endpoints.
type ReportHandler struct {
	reports reportService
	exports reportExporter
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService, exports reportExporter) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Monthly godoc
// @Summary Monthly attendance report
// @Tags Reports
// @Produce json
// @Param month query int true "Month 1-12"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/monthly [get]
func (h *ReportHandler) Monthly(c *gin.Context) {
	var query dto.MonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.KindValidation, "invalid month"))
		return
	}
	report, hit, err := h.reports.Monthly(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Download the monthly report
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Produce application/pdf
// @Param month query int true "Month 1-12"
// @Param year query int true "Year"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/monthly/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.KindValidation, "invalid export query"))
		return
	}
	file, err := h.exports.ExportMonthly(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
