package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const utf8FontFamily = "report"

// ErrFontRequired reports text outside the core fonts' latin range with no UTF-8 font configured.
var ErrFontRequired = errors.New("pdf export of non-latin text requires a UTF-8 font")

// PDFExporter renders documents into a basic tabular PDF.
// Core PDF fonts only cover latin text; configure a UTF-8 TrueType font for Thai names.
type PDFExporter struct {
	fontPath string
}

// NewPDFExporter constructs a PDF exporter. fontPath may be empty.
func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: fontPath}
}

// Render creates a landscape PDF with the title, context lines, table body and summary.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	data := doc.Table
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	if e.fontPath == "" && !latinOnly(doc) {
		return nil, ErrFontRequired
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	family := "Arial"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if e.fontPath != "" {
		pdf.AddUTF8Font(utf8FontFamily, "", e.fontPath)
		pdf.AddUTF8Font(utf8FontFamily, "B", e.fontPath)
		family = utf8FontFamily
		translate = func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load pdf font: %w", err)
	}
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, translate(doc.Title), "", 1, "C", false, 0, "")
	}
	pdf.SetFont(family, "", 10)
	for _, line := range doc.Subtitles {
		pdf.CellFormat(0, 6, translate(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(family, "B", 9)
	colWidth := 277.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, translate(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			align := ""
			if data.Numeric[header] {
				align = "R"
			}
			pdf.CellFormat(colWidth, 7, translate(row[header]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(doc.Summary) > 0 {
		pdf.Ln(4)
		if doc.SummaryTitle != "" {
			pdf.SetFont(family, "B", 10)
			pdf.CellFormat(0, 7, translate(doc.SummaryTitle), "", 1, "L", false, 0, "")
		}
		pdf.SetFont(family, "", 10)
		for _, line := range doc.Summary {
			pdf.CellFormat(80, 6, translate(line.Label), "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, translate(fmt.Sprint(line.Value)), "", 1, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// latinOnly reports whether every rendered string fits the latin-1 range of the core fonts.
func latinOnly(doc Document) bool {
	texts := append([]string{doc.Title, doc.SummaryTitle}, doc.Subtitles...)
	texts = append(texts, doc.Table.Headers...)
	for _, row := range doc.Table.Rows {
		for _, header := range doc.Table.Headers {
			texts = append(texts, row[header])
		}
	}
	for _, line := range doc.Summary {
		texts = append(texts, line.Label, fmt.Sprint(line.Value))
	}
	for _, text := range texts {
		for _, r := range text {
			if r > 0xFF {
				return false
			}
		}
	}
	return true
}
