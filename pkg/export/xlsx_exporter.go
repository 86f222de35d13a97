package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders documents into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter builds an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render lays the document out top to bottom: title, subtitles, a blank row, the table,
// then the summary block and notes, each preceded by a blank row.
func (e *XLSXExporter) Render(doc Document, sheet string) ([]byte, error) {
	if len(doc.Table.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	w := &sheetWriter{f: f, sheet: sheet, row: 1}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("bold style: %w", err)
	}

	if doc.Title != "" {
		if err := w.line(titleStyle, doc.Title); err != nil {
			return nil, err
		}
	}
	for i, subtitle := range doc.Subtitles {
		style := 0
		if i == 0 {
			style = bold
		}
		if err := w.line(style, subtitle); err != nil {
			return nil, err
		}
	}
	w.blank()

	if err := w.line(bold, toInterfaces(doc.Table.Headers)...); err != nil {
		return nil, err
	}
	for _, row := range doc.Table.Rows {
		values := make([]interface{}, len(doc.Table.Headers))
		for i, header := range doc.Table.Headers {
			values[i] = cellValue(row[header], doc.Table.Numeric[header])
		}
		if err := w.line(0, values...); err != nil {
			return nil, err
		}
	}

	if len(doc.Summary) > 0 {
		w.blank()
		if doc.SummaryTitle != "" {
			if err := w.line(bold, doc.SummaryTitle); err != nil {
				return nil, err
			}
		}
		for _, s := range doc.Summary {
			if err := w.line(0, s.Label, s.Value); err != nil {
				return nil, err
			}
		}
	}

	if len(doc.Notes) > 0 {
		w.blank()
		if doc.NotesTitle != "" {
			if err := w.line(0, doc.NotesTitle); err != nil {
				return nil, err
			}
		}
		for _, note := range doc.Notes {
			if err := w.line(0, note); err != nil {
				return nil, err
			}
		}
	}

	for i, width := range doc.ColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width %s: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func (w *sheetWriter) blank() {
	w.row++
}

// line writes values starting at column A of the current row and advances to the next row.
func (w *sheetWriter) line(style int, values ...interface{}) error {
	start, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := w.f.SetSheetRow(w.sheet, start, &values); err != nil {
		return fmt.Errorf("write row %d: %w", w.row, err)
	}
	if style != 0 && len(values) > 0 {
		end, err := excelize.CoordinatesToCellName(len(values), w.row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := w.f.SetCellStyle(w.sheet, start, end, style); err != nil {
			return fmt.Errorf("style row %d: %w", w.row, err)
		}
	}
	w.row++
	return nil
}

func cellValue(raw string, numeric bool) interface{} {
	if !numeric {
		return raw
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
