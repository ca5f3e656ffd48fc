package models

import (
	"time"

	"github.com/noah-isme/academic-records-api/internal/academic"
)

// Enrollment is one student's recorded attempt at one class.
type Enrollment struct {
	ID           string                `db:"id" json:"id"`
	StudentID    string                `db:"student_id" json:"student_id"`
	ClassID      string                `db:"class_id" json:"class_id"`
	Category     academic.Category     `db:"category" json:"category"`
	Score        int                   `db:"score" json:"score"`
	Grade        string                `db:"grade" json:"grade"`
	GradeValue   float64               `db:"grade_value" json:"grade_value"`
	IsGrading    bool                  `db:"is_grading" json:"is_grading"`
	GradeOutcome academic.GradeOutcome `db:"grade_outcome" json:"grade_outcome"`
	CreatedAt    time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time             `db:"updated_at" json:"updated_at"`
}

// ApplyGrade sets the letter, score and derived values of the enrollment.
func (e *Enrollment) ApplyGrade(score int, gv academic.GradeValue) {
	e.Score = score
	e.Grade = gv.Letter
	e.GradeValue = gv.Value
	e.IsGrading = gv.IsGrading
	e.GradeOutcome = gv.Outcome
}

// TakenEnrollment is an enrollment joined with its class and course.
type TakenEnrollment struct {
	EnrollmentID string            `db:"enrollment_id"`
	ClassID      string            `db:"class_id"`
	CourseID     string            `db:"course_id"`
	CourseCode   string            `db:"course_code"`
	CourseName   string            `db:"course_name"`
	Credit       int               `db:"credit"`
	Category     academic.Category `db:"category"`
	Score        int               `db:"score"`
	Grade        string            `db:"grade"`
	GradeValue   float64           `db:"grade_value"`
	IsGrading    bool              `db:"is_grading"`
	Year         int               `db:"year"`
	Trimester    string            `db:"trimester"`
}

// Taken converts the row into the progress computation's view.
func (t TakenEnrollment) Taken() academic.TakenCourse {
	return academic.TakenCourse{
		EnrollmentID: t.EnrollmentID,
		ClassID:      t.ClassID,
		CourseID:     t.CourseID,
		CourseCode:   t.CourseCode,
		Credit:       t.Credit,
		Grade:        t.Grade,
		GradeValue:   t.GradeValue,
		IsGrading:    t.IsGrading,
	}
}

// CourseAttempt is an enrollment in an offering of a reported course.
type CourseAttempt struct {
	CourseID   string  `db:"course_id"`
	CourseCode string  `db:"course_code"`
	ClassID    string  `db:"class_id"`
	SID        string  `db:"sid"`
	Batch      string  `db:"batch"`
	Program    string  `db:"program"`
	Grade      string  `db:"grade"`
	GradeValue float64 `db:"grade_value"`
	Year       int     `db:"year"`
	Trimester  string  `db:"trimester"`
}

// Attempt converts the row into the cohort computation's view.
func (a CourseAttempt) Attempt() academic.CohortAttempt {
	return academic.CohortAttempt{
		CourseID:   a.CourseID,
		CourseCode: a.CourseCode,
		ClassID:    a.ClassID,
		SID:        a.SID,
		Batch:      a.Batch,
		Program:    a.Program,
		Grade:      a.Grade,
		GradeValue: a.GradeValue,
		Year:       a.Year,
		Trimester:  a.Trimester,
	}
}
