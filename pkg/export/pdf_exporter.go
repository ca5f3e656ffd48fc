package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders documents into tabular PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with the document title and one table per section.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	orientation := "P"
	width := 190.0
	for _, t := range doc.Tables {
		if len(t.Headers) > 6 {
			orientation, width = "L", 277.0
			break
		}
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	for _, table := range doc.Tables {
		if table.Name != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, fmt.Sprintf("%s (%d)", table.Name, len(table.Rows)), "", 1, "L", false, 0, "")
		}
		colWidth := width / float64(len(table.Headers))
		pdf.SetFont("Arial", "B", 10)
		for _, header := range table.Headers {
			pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range table.Rows {
			for i := range table.Headers {
				pdf.CellFormat(colWidth, 7, cell(row, i), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
