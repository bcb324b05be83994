package internal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoHeader is returned for tabular imports without a header row
var ErrNoHeader = errors.New("file is empty, expected a header row")

// ImportCSV reads a CSV file whose first row names the record fields
func ImportCSV(path string) ([]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([]any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, ErrNoHeader
	}

	items := make([]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		items = append(items, recordFromRow(rows[0], row))
	}
	return items, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
