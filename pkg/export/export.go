// Package export renders tabular report documents as CSV, PDF or XLSX.
package export

import (
	"fmt"
	"strings"
)

// Format is an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat normalises a requested format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Table is one named block of rows.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Document is a titled set of tables.
type Document struct {
	Title  string
	Tables []Table
}

func (d Document) validate() error {
	if len(d.Tables) == 0 {
		return fmt.Errorf("document has no tables")
	}
	for _, t := range d.Tables {
		if len(t.Headers) == 0 {
			return fmt.Errorf("table %q requires at least one header", t.Name)
		}
	}
	return nil
}

// Renderer encodes documents in any supported format.
type Renderer struct {
	csv  *CSVExporter
	pdf  *PDFExporter
	xlsx *XLSXExporter
}

// NewRenderer builds a renderer with every exporter.
func NewRenderer() *Renderer {
	return &Renderer{csv: NewCSVExporter(), pdf: NewPDFExporter(), xlsx: NewXLSXExporter()}
}

// Render encodes doc as format.
func (r *Renderer) Render(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatPDF:
		return r.pdf.Render(doc)
	case FormatXLSX:
		return r.xlsx.Render(doc)
	case FormatCSV:
		return r.csv.Render(doc)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
