package internal

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ImportXLSX reads the Subscriptions sheet (or the first sheet) of a workbook.
// Row 1 holds the field names, as written by ExportXLSX.
func ImportXLSX(path string) ([]any, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in file")
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if s == subscriptionsSheet {
			sheet = s
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, fmt.Errorf("sheet %s: %w", sheet, ErrNoHeader)
	}

	var items []any
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		items = append(items, recordFromRow(rows[0], row))
	}
	return items, nil
}
