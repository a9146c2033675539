package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// ExportFileName is the download name offered for a filtered view.
const ExportFileName = "filtered_results.csv"

// WriteCSV writes t as UTF-8 comma-separated text: a header row in column
// order, then one record per row. Quoting follows encoding/csv, so values
// containing commas, quotes or newlines round-trip.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j := range rec {
			rec[j] = ""
			if j < len(row) {
				rec[j] = row[j].String()
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV returns t serialized by WriteCSV.
func ExportCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
