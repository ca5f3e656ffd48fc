package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders documents into CSV bytes. Tables follow each other,
// each introduced by its name and separated by an empty record.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the document.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	for i, table := range doc.Tables {
		if i > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return nil, fmt.Errorf("write csv separator: %w", err)
			}
		}
		if len(doc.Tables) > 1 && table.Name != "" {
			if err := writer.Write([]string{table.Name}); err != nil {
				return nil, fmt.Errorf("write csv table name: %w", err)
			}
		}
		if err := writer.Write(table.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, row := range table.Rows {
			record := make([]string, len(table.Headers))
			for j := range table.Headers {
				record[j] = cell(row, j)
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
