// Package portability moves records in and out of the console as CSV.
// Import parses an uploaded file into per-row field mappings and creates
// one record per row; export writes the current snapshot back out.
package portability

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/recadm/recadm/pkg/record"
	"github.com/recadm/recadm/pkg/table"
)

// ParseError reports a whole-file CSV parse failure. Nothing is imported
// when the file itself cannot be read.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return "could not read CSV: " + e.Message
}

// CSVData is a parsed CSV file: the effective header (reserved columns
// removed) and one field mapping per data row, in file order.
type CSVData struct {
	Header []string
	Rows   []record.Fields
}

// ParseCSV reads a CSV document with a header row. Column names become
// field names; columns named "id" or "createdAt" are dropped (the server
// owns those). Short rows are padded with empty strings, long rows have
// their extra cells ignored. An empty file or a file without a single
// usable column is a ParseError.
func ParseCSV(r io.Reader) (*CSVData, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Message: "file is empty"}
	}

	rawHeader := rows[0]
	keep := make([]int, 0, len(rawHeader))
	header := make([]string, 0, len(rawHeader))
	for i, name := range rawHeader {
		if record.IsReserved(name) || name == "" {
			continue
		}
		keep = append(keep, i)
		header = append(header, name)
	}
	if len(header) == 0 {
		return nil, &ParseError{Message: "header row has no usable columns"}
	}

	data := &CSVData{Header: header}
	for _, row := range rows[1:] {
		var f record.Fields
		for j, i := range keep {
			// Missing cells become empty strings, matching the
			// create payload the importer will send.
			val := ""
			if i < len(row) {
				val = row[i]
			}
			f.Set(header[j], val)
		}
		data.Rows = append(data.Rows, f)
	}
	return data, nil
}

// Preview returns up to n rows for display before the import runs.
func (d *CSVData) Preview(n int) []record.Fields {
	if n >= len(d.Rows) {
		return d.Rows
	}
	return d.Rows[:n]
}

// ExportCSV writes records as CSV: id and createdAt first (createdAt in
// display form), then the sorted union of field names. Absent fields
// render as empty cells.
func ExportCSV(w io.Writer, records []record.Record) error {
	union := map[string]bool{}
	for _, rec := range records {
		for _, k := range rec.Fields.Keys() {
			union[k] = true
		}
	}
	fieldCols := make([]string, 0, len(union))
	for k := range union {
		fieldCols = append(fieldCols, k)
	}
	sort.Strings(fieldCols)

	cw := csv.NewWriter(w)
	header := append([]string{record.FieldID, record.FieldCreatedAt}, fieldCols...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row, rec.ID, table.DisplayCreatedAt(rec))
		for _, col := range fieldCols {
			v, _ := rec.Fields.Get(col)
			row = append(row, table.CellString(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
