// Package reportsource fetches grade-report documents and turns them into
// class metadata plus student grade rows.
package reportsource

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFetch is returned when the document cannot be downloaded.
	ErrFetch = errors.New("grade report fetch failed")
	// ErrNoClassMetadata is returned when the course, instructor or term is missing.
	ErrNoClassMetadata = errors.New("grade report is missing class metadata")
	// ErrUnreadable is returned when the document body cannot be decoded.
	ErrUnreadable = errors.New("grade report is unreadable")
)

// ClassHeader identifies the class a report belongs to.
type ClassHeader struct {
	CourseCode string
	Instructor string
	Year       int
	Trimester  string
	Section    int
}

func (h ClassHeader) missing() []string {
	var fields []string
	if h.CourseCode == "" {
		fields = append(fields, "course")
	}
	if h.Instructor == "" {
		fields = append(fields, "instructor")
	}
	if h.Year == 0 || h.Trimester == "" {
		fields = append(fields, "term")
	}
	return fields
}

// Row is a single student line of a report.
type Row struct {
	Line       int
	SID        string
	Program    string
	GivenName  string
	FamilyName string
	Batch      string
	Score      int
	Grade      string
	// CourseCode overrides the header course when set.
	CourseCode string
	// Problem describes why the row could not be read, if it could not.
	Problem string
}

// Report is a parsed grade-report document.
type Report struct {
	Header ClassHeader
	Rows   []Row
	// Source is the downloaded document the report was parsed from.
	Source *Document
}

func (r *Report) validate() error {
	if missing := r.Header.missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrNoClassMetadata, strings.Join(missing, ", "))
	}
	return nil
}

// Document is a downloaded report body.
type Document struct {
	Name        string
	ContentType string
	Body        []byte
}

// Source loads and parses reports by URL.
type Source struct {
	fetcher *Fetcher
	parser  *Parser
}

// NewSource combines a fetcher and a parser.
func NewSource(fetcher *Fetcher, parser *Parser) *Source {
	return &Source{fetcher: fetcher, parser: parser}
}

// Load downloads the document at url and parses it.
func (s *Source) Load(ctx context.Context, url string) (*Report, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	report, err := s.parser.Parse(doc)
	if err != nil {
		return nil, err
	}
	report.Source = doc
	return report, nil
}
