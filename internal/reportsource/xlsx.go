package reportsource

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MetaSheet holds key/value class metadata in workbook reports.
const MetaSheet = "meta"

// Workbook column headers.
const (
	ColumnSID        = "sid"
	ColumnProgram    = "program"
	ColumnGivenName  = "given_name"
	ColumnFamilyName = "family_name"
	ColumnBatch      = "batch"
	ColumnScore      = "score"
	ColumnGrade      = "grade"
	ColumnCourseCode = "course_code"
)

func (p *Parser) parseXLSX(body []byte) (*Report, error) {
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	report := &Report{}
	if idx, _ := f.GetSheetIndex(MetaSheet); idx >= 0 {
		metaRows, err := f.GetRows(MetaSheet)
		if err != nil {
			return nil, fmt.Errorf("%w: read meta sheet: %v", ErrUnreadable, err)
		}
		for _, row := range metaRows {
			if len(row) >= 2 {
				applyMetaValue(&report.Header, row[0], row[1])
			}
		}
	}

	sheet := ""
	for _, name := range f.GetSheetList() {
		if !strings.EqualFold(name, MetaSheet) {
			sheet = name
			break
		}
	}
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no grade sheet", ErrUnreadable)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %v", ErrUnreadable, sheet, err)
	}

	var columns map[string]int
	for i, row := range rows {
		if columns == nil {
			if cols := headerColumns(row); cols != nil {
				columns = cols
				continue
			}
			// preamble before the header row
			if len(row) >= 2 && applyMetaValue(&report.Header, row[0], row[1]) {
				continue
			}
			applyHeaderLine(&report.Header, strings.Join(row, " "))
			continue
		}
		if blankRow(row) {
			continue
		}
		report.Rows = append(report.Rows, rowFromCells(i+1, row, columns))
	}
	if columns == nil {
		return nil, fmt.Errorf("%w: sheet %s has no %s/%s header row", ErrUnreadable, sheet, ColumnSID, ColumnGrade)
	}
	return report, nil
}

func headerColumns(row []string) map[string]int {
	cols := make(map[string]int, len(row))
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		if key != "" {
			cols[key] = i
		}
	}
	_, hasSID := cols[ColumnSID]
	_, hasGrade := cols[ColumnGrade]
	if !hasSID || !hasGrade {
		return nil
	}
	return cols
}

func applyMetaValue(header *ClassHeader, key, value string) bool {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(key), ":"))) {
	case "course_code", "course":
		header.CourseCode = value
	case "instructor":
		header.Instructor = value
	case "year":
		if year, err := strconv.Atoi(value); err == nil {
			header.Year = year
		}
	case "trimester":
		header.Trimester = strings.TrimPrefix(strings.ToUpper(value), "T")
	case "term":
		if m := termPattern.FindStringSubmatch(value); m != nil {
			header.Year, _ = strconv.Atoi(m[1])
			header.Trimester = m[2]
		}
	case "section":
		if section, err := strconv.Atoi(value); err == nil {
			header.Section = section
		}
	default:
		return false
	}
	return true
}

func rowFromCells(line int, cells []string, columns map[string]int) Row {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}
	row := Row{
		Line:       line,
		SID:        cell(ColumnSID),
		Program:    cell(ColumnProgram),
		GivenName:  cell(ColumnGivenName),
		FamilyName: cell(ColumnFamilyName),
		Batch:      cell(ColumnBatch),
		Grade:      cell(ColumnGrade),
		CourseCode: cell(ColumnCourseCode),
	}
	scoreText := cell(ColumnScore)
	if scoreText == "" {
		row.Problem = "missing score"
		return row
	}
	score, err := strconv.Atoi(scoreText)
	if err != nil {
		if f, ferr := strconv.ParseFloat(scoreText, 64); ferr == nil {
			score = int(f)
		} else {
			row.Problem = fmt.Sprintf("invalid score %q", scoreText)
			return row
		}
	}
	row.Score = score
	return row
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
