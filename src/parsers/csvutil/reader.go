// backend/src/parsers/csvutil/reader.go
package csvutil

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/tradejournal/backend/src/security/validation"
)

var ErrNoHeader = errors.New("csv file has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a CSV file read into memory with cleaned cells.
type Table struct {
	Headers []string
	Rows    [][]string
	index   map[string]int
}

// ReadCSV reads a whole CSV export. A UTF-8 BOM is stripped and blank lines are dropped.
// Rows may have fewer or more cells than the header.
func ReadCSV(r io.Reader) (*Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records: %w", err)
	}

	t := &Table{index: make(map[string]int)}
	for _, record := range records {
		cleaned := make([]string, len(record))
		blank := true
		for i, cell := range record {
			cleaned[i] = validation.CleanCell(cell)
			if cleaned[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if t.Headers == nil {
			t.Headers = cleaned
			continue
		}
		t.Rows = append(t.Rows, cleaned)
	}
	if t.Headers == nil {
		return nil, ErrNoHeader
	}

	for i, h := range t.Headers {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t, nil
}

// Index returns the column position of header, or -1. Matching falls back to a
// case-insensitive comparison when there is no exact match.
func (t *Table) Index(header string) int {
	header = strings.TrimSpace(header)
	if header == "" {
		return -1
	}
	if i, ok := t.index[header]; ok {
		return i
	}
	for i, h := range t.Headers {
		if strings.EqualFold(h, header) {
			return i
		}
	}
	return -1
}

// Cell returns row[idx], or "" when the column is unmapped or the row is short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
