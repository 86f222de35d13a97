package dto

import "github.com/noah-isme/attendance-tracker-api/internal/models"

// BulkImportRequest captures POST /students/bulk payload. Names are raw spreadsheet values.
type BulkImportRequest struct {
	Names      []string `json:"names"`
	ReplaceAll bool     `json:"replace_all"`
}

// BulkImportResponse reports how many students were written.
type BulkImportResponse struct {
	Message      string           `json:"message"`
	CreatedCount int              `json:"created_count"`
	FailedCount  int              `json:"failed_count"`
	Students     []models.Student `json:"students"`
}

// PreviewName is one accepted name of an upload preview.
type PreviewName struct {
	Position int    `json:"position"`
	Raw      string `json:"raw"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
}

// ImportPreviewResponse lists what an upload would import without writing anything.
type ImportPreviewResponse struct {
	Names         []PreviewName `json:"names"`
	AcceptedCount int           `json:"accepted_count"`
	RejectedCount int           `json:"rejected_count"`
}
