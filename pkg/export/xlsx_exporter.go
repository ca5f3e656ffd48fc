package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// XLSXExporter renders each table of a document to its own worksheet.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render builds the workbook and returns its bytes.
func (e *XLSXExporter) Render(doc Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, table := range doc.Tables {
		name := sheetName(table.Name, i)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}

		if err := writeRow(f, name, 1, table.Headers); err != nil {
			return nil, err
		}
		for r, row := range table.Rows {
			padded := make([]string, len(table.Headers))
			for c := range table.Headers {
				padded[c] = cell(row, c)
			}
			if err := writeRow(f, name, r+2, padded); err != nil {
				return nil, err
			}
		}

		last, err := excelize.ColumnNumberToName(len(table.Headers))
		if err != nil {
			return nil, fmt.Errorf("resolve column: %w", err)
		}
		_ = f.SetCellStyle(name, "A1", last+"1", bold)
		_ = f.AutoFilter(name, fmt.Sprintf("A1:%s1", last), nil)
		_ = f.SetColWidth(name, "A", last, 18)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("resolve cell: %w", err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, start, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func sheetName(name string, index int) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = fmt.Sprintf("Sheet%d", index+1)
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}
