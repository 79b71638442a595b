package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format identifies a supported bulk import payload encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat indicates an unknown payload encoding.
var ErrUnsupportedFormat = errors.New("importer: unsupported file format")

// FormatFromFilename guesses the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV, nil
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return FormatXLSX, nil
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON, nil
	}
	return "", ErrUnsupportedFormat
}

// Row is one parsed record keyed by normalized header name.
type Row map[string]string

// Parse decodes the payload into header-keyed rows. Header names are
// lowercased and trimmed; cell values keep their raw text.
func Parse(format Format, r io.Reader) ([]Row, error) {
	switch format {
	case FormatCSV:
		return parseCSV(r)
	case FormatXLSX:
		return parseXLSX(r)
	case FormatJSON:
		return parseJSON(r)
	}
	return nil, ErrUnsupportedFormat
}

func parseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Some exports pad short rows; tolerate ragged records.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("importer: read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("importer: file has no data rows")
	}
	return rowsFromCells(records[0], records[1:]), nil
}

func parseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("importer: read spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("importer: spreadsheet has no sheets")
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("importer: read sheet rows: %w", err)
	}
	if len(cells) < 2 {
		return nil, errors.New("importer: file has no data rows")
	}
	return rowsFromCells(cells[0], cells[1:]), nil
}

func parseJSON(r io.Reader) ([]Row, error) {
	var records []map[string]any
	dec := json.NewDecoder(r)
	// Keep numbers as their literal text; float64 round-tripping turns
	// large integers into scientific notation.
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("importer: decode json: %w", err)
	}
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := Row{}
		for key, value := range record {
			if value == nil {
				continue
			}
			row[normalizeHeader(key)] = fmt.Sprintf("%v", value)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.New("importer: file has no data rows")
	}
	return rows, nil
}

func rowsFromCells(header []string, records [][]string) []Row {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = normalizeHeader(h)
	}
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		if isBlank(record) {
			continue
		}
		row := Row{}
		for i, key := range keys {
			if key == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if value != "" {
				row[key] = value
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	return strings.ReplaceAll(h, "-", "_")
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
