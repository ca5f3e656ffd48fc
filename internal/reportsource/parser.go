package reportsource

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	instructorMarker = "Grade Report for Instructor"
	sectionMarker    = "Section"
	trimesterMarker  = "Trimester:"
)

var (
	termPattern    = regexp.MustCompile(`(\d{4})\s*T\s*(\d+)`)
	nonDigitPrefix = regexp.MustCompile(`^\D+`)
	leadingDigits  = regexp.MustCompile(`^\d+`)
)

type format int

const (
	formatText format = iota
	formatPDF
	formatXLSX
)

// Parser decodes report documents.
type Parser struct {
	studentIDPrefix string
}

// NewParser builds a parser recognising student rows by the given sid prefix.
func NewParser(studentIDPrefix string) *Parser {
	prefix := strings.TrimSpace(studentIDPrefix)
	if prefix == "" {
		prefix = "EGCI"
	}
	return &Parser{studentIDPrefix: prefix}
}

// Parse dispatches on the document type.
func (p *Parser) Parse(doc *Document) (*Report, error) {
	if doc == nil || len(doc.Body) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrUnreadable)
	}
	var (
		report *Report
		err    error
	)
	switch detectFormat(doc) {
	case formatPDF:
		report, err = p.parsePDF(doc.Body)
	case formatXLSX:
		report, err = p.parseXLSX(doc.Body)
	default:
		report = p.ParseText(string(doc.Body))
	}
	if err != nil {
		return nil, err
	}
	if err := report.validate(); err != nil {
		return nil, err
	}
	return report, nil
}

func detectFormat(doc *Document) format {
	name := strings.ToLower(doc.Name)
	contentType := strings.ToLower(doc.ContentType)
	switch {
	case bytes.HasPrefix(doc.Body, []byte("%PDF")),
		strings.Contains(contentType, "pdf"),
		strings.HasSuffix(name, ".pdf"):
		return formatPDF
	case strings.Contains(contentType, "spreadsheetml"),
		strings.HasSuffix(name, ".xlsx"),
		bytes.HasPrefix(doc.Body, []byte("PK\x03\x04")):
		return formatXLSX
	default:
		return formatText
	}
}

// ParseText reads the line-oriented report layout. Metadata validation is left to Parse.
func (p *Parser) ParseText(text string) *Report {
	report := &Report{}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
	for i, line := range lines {
		if applyHeaderLine(&report.Header, line) {
			continue
		}
		if row, ok := p.parseStudentLine(line); ok {
			row.Line = i + 1
			report.Rows = append(report.Rows, row)
		}
	}
	return report
}

// applyHeaderLine updates header from a metadata line and reports whether the line was one.
func applyHeaderLine(header *ClassHeader, line string) bool {
	matched := false
	if strings.Contains(line, instructorMarker) {
		matched = true
		parts := strings.Split(line, ". ")
		header.Instructor = strings.TrimSpace(parts[len(parts)-1])
	}
	if strings.Contains(line, sectionMarker) {
		matched = true
		parts := strings.SplitN(line, ", ", 2)
		code := strings.TrimSpace(parts[0])
		if len(code) > 7 {
			code = code[:7]
		}
		header.CourseCode = code
		if len(parts) > 1 {
			digits := leadingDigits.FindString(nonDigitPrefix.ReplaceAllString(parts[1], ""))
			if section, err := strconv.Atoi(digits); err == nil {
				header.Section = section
			}
		}
	}
	if strings.Contains(line, trimesterMarker) {
		matched = true
		field := line
		if parts := strings.Split(line, ": "); len(parts) > 2 {
			field = parts[2]
		}
		if m := termPattern.FindStringSubmatch(field); m != nil {
			year, _ := strconv.Atoi(m[1])
			header.Year = year
			header.Trimester = m[2]
		}
	}
	return matched
}

// parseStudentLine reads "<prefix>...<id:7><program:4><name><score><grade>".
func (p *Parser) parseStudentLine(line string) (Row, bool) {
	idx := strings.Index(line, p.studentIDPrefix)
	if idx < 1 {
		return Row{}, false
	}
	tmp := line[idx:]
	if len(tmp) < 18 {
		return Row{Problem: "student row is truncated"}, true
	}
	row := Row{
		SID:     strings.TrimSpace(tmp[7:14]),
		Program: strings.TrimSpace(tmp[14:18]),
	}
	info := tmp[18:]

	var digits strings.Builder
	for _, r := range info {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	scoreText := digits.String()
	if scoreText == "" {
		row.Problem = "student row has no score"
		return row, true
	}
	score, err := strconv.Atoi(scoreText)
	if err != nil {
		row.Problem = fmt.Sprintf("invalid score %q", scoreText)
		return row, true
	}
	row.Score = score

	if at := strings.Index(info, scoreText); at >= 0 {
		row.Grade = strings.TrimSpace(info[at+len(scoreText):])
		row.GivenName, row.FamilyName = splitName(info[:at])
	} else {
		row.Grade = strings.TrimSpace(strings.TrimLeftFunc(info, func(r rune) bool { return !unicode.IsDigit(r) }))
		row.GivenName, row.FamilyName = splitName(stripDigits(info))
	}
	return row, true
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '+' {
			return -1
		}
		return r
	}, s)
}

func splitName(raw string) (string, string) {
	name := strings.TrimSpace(raw)
	given, family, _ := strings.Cut(name, " ")
	return strings.TrimSpace(given), strings.TrimSpace(family)
}
