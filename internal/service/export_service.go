package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/export"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

const (
	reportTitle     = "รายงานการเช็คชื่อนักเรียน"
	reportSheetName = "รายงานการเช็คชื่อ"
	reportFilePart  = "รายงานการเช็คชื่อ"
)

var thaiMonths = [...]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

var reportHeaders = []string{
	"ลำดับ", "ชื่อ-นามสกุล", "รหัสนักเรียน", "มาเรียน", "ขาดเรียน", "มาสาย", "ลา", "รวม", "เปอร์เซ็นต์การมาเรียน",
}

var reportColumnWidths = []float64{8, 25, 12, 10, 10, 10, 8, 8, 18}

var reportNumericColumns = map[string]bool{
	"ลำดับ": true, "มาเรียน": true, "ขาดเรียน": true, "มาสาย": true, "ลา": true, "รวม": true,
}

var reportLegend = []string{
	"- มาเรียน = นักเรียนมาเรียนตรงเวลา",
	"- ขาดเรียน = นักเรียนไม่มาเรียนโดยไม่มีการแจ้ง",
	"- มาสาย = นักเรียนมาเรียนแต่สาย",
	"- ลา = นักเรียนลาป่วยหรือลากิจ",
}

var exportContentTypes = map[string]string{
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatCSV:  "text/csv; charset=utf-8",
	FormatPDF:  "application/pdf",
}

type monthlyReporter interface {
	Monthly(ctx context.Context, query dto.MonthQuery) (*models.MonthlyReport, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type xlsxRenderer interface {
	Render(doc export.Document, sheet string) ([]byte, error)
}

// ExportFile is a rendered report ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders monthly reports as downloadable files.
type ExportService struct {
	reports  monthlyReporter
	csv      csvRenderer
	pdf      pdfRenderer
	xlsx     xlsxRenderer
	metrics  *MetricsService
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(reports monthlyReporter, csv csvRenderer, pdf pdfRenderer, xlsx xlsxRenderer, metrics *MetricsService, logger *zap.Logger, loc *time.Location) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, xlsx: xlsx, metrics: metrics, logger: logger, location: loc, now: time.Now}
}

// ExportMonthly renders the monthly report in the requested format, xlsx by default.
func (s *ExportService) ExportMonthly(ctx context.Context, query dto.ExportQuery) (*ExportFile, error) {
	format := query.Format
	if format == "" {
		format = FormatXLSX
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		return nil, appErrors.New(appErrors.KindValidation, "unsupported export format").WithDetail("format", format)
	}

	report, _, err := s.reports.Monthly(ctx, query.MonthQuery)
	if err != nil {
		return nil, err
	}
	if len(report.Students) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no students to export")
	}

	doc := MonthlyReportDocument(report, s.now().In(s.location))

	var payload []byte
	switch format {
	case FormatCSV:
		payload, err = s.csv.Render(doc.Table)
	case FormatPDF:
		payload, err = s.pdf.Render(doc)
	default:
		payload, err = s.xlsx.Render(doc, reportSheetName)
	}
	if errors.Is(err, export.ErrFontRequired) {
		return nil, appErrors.Wrap(err, appErrors.KindValidation, "pdf export requires REPORTS_PDF_FONT_PATH").WithDetail("format", format)
	}
	if err != nil {
		s.logger.Error("report export failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.KindStoreFailure, "failed to render report")
	}

	s.metrics.RecordExport(format)
	return &ExportFile{
		Filename:    ReportFilename(report.Month, report.Year, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

// MonthlyReportDocument lays out a monthly report for the exporters.
func MonthlyReportDocument(report *models.MonthlyReport, generatedAt time.Time) export.Document {
	rows := make([]map[string]string, 0, len(report.Students))
	for i, student := range report.Students {
		rows = append(rows, map[string]string{
			"ลำดับ":                 strconv.Itoa(i + 1),
			"ชื่อ-นามสกุล":          student.Name,
			"รหัสนักเรียน":          student.Code,
			"มาเรียน":               strconv.Itoa(student.Present),
			"ขาดเรียน":              strconv.Itoa(student.Absent),
			"มาสาย":                 strconv.Itoa(student.Late),
			"ลา":                    strconv.Itoa(student.Excused),
			"รวม":                   strconv.Itoa(student.Total),
			"เปอร์เซ็นต์การมาเรียน": fmt.Sprintf("%d%%", student.AttendanceRate),
		})
	}

	return export.Document{
		Title: reportTitle,
		Subtitles: []string{
			fmt.Sprintf("เดือน: %s %d", ThaiMonthName(report.Month), report.Year),
			"วันที่สร้างรายงาน: " + formatThaiTimestamp(generatedAt),
		},
		Table: export.Dataset{
			Headers: reportHeaders,
			Rows:    rows,
			Numeric: reportNumericColumns,
		},
		SummaryTitle: "สรุปรวม",
		Summary: []export.SummaryLine{
			{Label: "จำนวนนักเรียนทั้งหมด", Value: report.Summary.TotalStudents},
			{Label: "วันเรียนในเดือน", Value: report.Summary.SchoolDaysInMonth},
			{Label: "อัตราการมาเรียนเฉลี่ย", Value: fmt.Sprintf("%d%%", report.Summary.AvgAttendanceRate)},
			{Label: "จำนวนการขาดเรียนรวม", Value: report.Summary.TotalAbsent},
		},
		NotesTitle:   "หมายเหตุ:",
		Notes:        reportLegend,
		ColumnWidths: reportColumnWidths,
	}
}

// ReportFilename builds the download name, e.g. รายงานการเช็คชื่อ_มีนาคม_2025.xlsx.
func ReportFilename(month, year int, format string) string {
	return fmt.Sprintf("%s_%s_%d.%s", reportFilePart, ThaiMonthName(month), year, format)
}

// ThaiMonthName returns the Thai name of month 1-12.
func ThaiMonthName(month int) string {
	if month < 1 || month > 12 {
		return strconv.Itoa(month)
	}
	return thaiMonths[month-1]
}

// formatThaiTimestamp renders t as "02 มีนาคม 2025 เวลา 14:05 น.".
func formatThaiTimestamp(t time.Time) string {
	return fmt.Sprintf("%02d %s %d เวลา %02d:%02d น.", t.Day(), ThaiMonthName(int(t.Month())), t.Year(), t.Hour(), t.Minute())
}
