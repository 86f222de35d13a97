package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM lets spreadsheet applications detect UTF-8 for non-latin names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter renders a Dataset as comma separated values.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header row followed by one record per row, in header order, after a UTF-8 BOM.
// Cells missing from a row are written empty.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}

	records := make([][]string, 0, len(data.Rows)+1)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		records = append(records, data.record(row))
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	if err := csv.NewWriter(&buf).WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
