package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned when a workbook contains no worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// FirstColumn returns the non-blank values of column A on the first worksheet, in row order.
// Values are returned as displayed; cleaning is left to the caller.
func FirstColumn(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(row[0]) == "" {
			continue
		}
		values = append(values, row[0])
	}
	return values, nil
}
