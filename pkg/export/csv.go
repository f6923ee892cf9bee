package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table is tabular export content shared by the CSV and PDF renderers.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// CSV renders the table into CSV bytes. The title is not part of the CSV
// output; it only matters for the PDF rendering.
func CSV(t Table) ([]byte, error) {
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
