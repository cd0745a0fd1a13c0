package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

const (
	// ExportFileName is the download name offered for the clean table.
	ExportFileName = "cleaned_suicide_data.csv"

	// ExportMediaType is the media type of the export.
	ExportMediaType = "text/csv"
)

// exportFlushInterval is how many rows are buffered between flushes.
const exportFlushInterval = 1000

// WriteCSV writes t as comma-delimited UTF-8 text: a header row of column
// names followed by one record per row, with no index column. Numbers use
// their shortest round-trip form and missing numbers are written empty.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range t.rows {
		if err := cw.Write(t.Record(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if (i+1)%exportFlushInterval == 0 {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// EncodeCSV returns the CSV encoding of t.
func EncodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
