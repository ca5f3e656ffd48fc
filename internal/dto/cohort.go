package dto

import (
	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/models"
)

// CohortStudent is a completed attempt as shown in cohort reports.
type CohortStudent struct {
	Course     string  `json:"course"`
	SID        string  `json:"sid"`
	Batch      string  `json:"batch"`
	Program    string  `json:"program"`
	Grade      string  `json:"grade"`
	GradeValue float64 `json:"grade_value"`
	Trimester  string  `json:"trimester"`
}

// RosterStudent is a student of the cohort without a completed attempt.
type RosterStudent struct {
	SID        string `json:"sid"`
	Batch      string `json:"batch"`
	Program    string `json:"program"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// CohortReport is the per-course completion report.
type CohortReport struct {
	Course       CourseView      `json:"course"`
	Batches      []string        `json:"batches"`
	Total        int             `json:"total"`
	Completed    []CohortStudent `json:"completed"`
	Unregistered []RosterStudent `json:"unregistered"`
	Superseded   []string        `json:"superseded"`
}

// CourseOverallReport is the cohort report for every catalog course.
type CourseOverallReport struct {
	Batches []string       `json:"batches"`
	Total   int            `json:"total"`
	Courses []CohortReport `json:"courses"`
}

// NewCohortReport projects a cohort result for a course.
func NewCohortReport(course CourseView, batches []string, result academic.CohortResult) CohortReport {
	report := CohortReport{
		Course:       course,
		Batches:      batches,
		Total:        len(result.Completed),
		Completed:    make([]CohortStudent, 0, len(result.Completed)),
		Unregistered: make([]RosterStudent, 0, len(result.Unregistered)),
		Superseded:   append([]string{}, result.Superseded...),
	}
	for _, a := range result.Completed {
		report.Completed = append(report.Completed, CohortStudent{
			Course:     course.Code,
			SID:        a.SID,
			Batch:      a.Batch,
			Program:    a.Program,
			Grade:      a.Grade,
			GradeValue: a.GradeValue,
			Trimester:  a.TermKey(),
		})
	}
	for _, s := range result.Unregistered {
		report.Unregistered = append(report.Unregistered, RosterStudent{
			SID:        s.SID,
			Batch:      s.Batch,
			Program:    s.Program,
			GivenName:  s.GivenName,
			FamilyName: s.FamilyName,
		})
	}
	return report
}

// RosterFromStudents converts student rows into cohort roster entries.
func RosterFromStudents(students []models.Student) []academic.CohortStudent {
	roster := make([]academic.CohortStudent, 0, len(students))
	for _, s := range students {
		roster = append(roster, academic.CohortStudent{
			SID:        s.SID,
			Batch:      s.Batch,
			Program:    s.Program,
			GivenName:  s.GivenName,
			FamilyName: s.FamilyName,
		})
	}
	return roster
}
