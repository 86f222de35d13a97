package export

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Numeric marks headers whose values are written as numbers where the format supports it.
	Numeric map[string]bool
}

// record returns the cells of row in header order.
func (d Dataset) record(row map[string]string) []string {
	cells := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		cells[i] = row[header]
	}
	return cells
}

// SummaryLine is a label/value pair rendered under the table.
type SummaryLine struct {
	Label string
	Value interface{}
}

// Document is a titled table with optional context lines, a summary block and notes.
type Document struct {
	Title        string
	Subtitles    []string
	Table        Dataset
	SummaryTitle string
	Summary      []SummaryLine
	NotesTitle   string
	Notes        []string
	// ColumnWidths are spreadsheet character widths per table column.
	ColumnWidths []float64
}
