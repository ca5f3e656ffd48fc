package dto

import (
	"time"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/models"
)

// TakenCourseView is one enrollment in a student's history.
type TakenCourseView struct {
	EnrollmentID string  `json:"enrollment_id"`
	ClassID      string  `json:"class_id"`
	CourseCode   string  `json:"course_code"`
	CourseName   string  `json:"course_name"`
	Credit       int     `json:"credit"`
	Score        int     `json:"score"`
	Grade        string  `json:"grade"`
	GradeValue   float64 `json:"grade_value"`
	IsGrading    bool    `json:"is_grading"`
	Trimester    string  `json:"trimester"`
	TakenCount   int     `json:"taken_count"`
}

// StudentProgress is the read-side projection of a student's progress.
type StudentProgress struct {
	SID               string                  `json:"sid"`
	GivenName         string                  `json:"given_name"`
	FamilyName        string                  `json:"family_name"`
	Batch             string                  `json:"batch"`
	Program           string                  `json:"program"`
	Status            models.StudentStatus    `json:"status"`
	Progress          academic.ProgressRecord `json:"progress"`
	TotalEarned       int                     `json:"total_earned"`
	ProgressUpdatedAt *time.Time              `json:"progress_updated_at,omitempty"`
	Core              []TakenCourseView       `json:"core"`
	Required          []TakenCourseView       `json:"required"`
	Elective          []TakenCourseView       `json:"elective"`
	Uncategorized     []TakenCourseView       `json:"uncategorized"`
}

// NewStudentProgress builds the projection from the student row and its enrollments.
func NewStudentProgress(student models.Student, taken []models.TakenEnrollment) StudentProgress {
	record := student.Progress()
	view := StudentProgress{
		SID:               student.SID,
		GivenName:         student.GivenName,
		FamilyName:        student.FamilyName,
		Batch:             student.Batch,
		Program:           student.Program,
		Status:            student.Status,
		Progress:          record,
		TotalEarned:       record.TotalEarned(),
		ProgressUpdatedAt: student.ProgressUpdatedAt,
		Core:              []TakenCourseView{},
		Required:          []TakenCourseView{},
		Elective:          []TakenCourseView{},
		Uncategorized:     []TakenCourseView{},
	}

	attempts := make(map[string]int, len(taken))
	for _, t := range taken {
		attempts[t.CourseID]++
	}

	for _, t := range taken {
		item := TakenCourseView{
			EnrollmentID: t.EnrollmentID,
			ClassID:      t.ClassID,
			CourseCode:   t.CourseCode,
			CourseName:   t.CourseName,
			Credit:       t.Credit,
			Score:        t.Score,
			Grade:        t.Grade,
			GradeValue:   t.GradeValue,
			IsGrading:    t.IsGrading,
			Trimester:    academic.TermKey(t.Year, t.Trimester),
			TakenCount:   attempts[t.CourseID],
		}
		switch t.Category {
		case academic.CategoryCore:
			view.Core = append(view.Core, item)
		case academic.CategoryRequired:
			view.Required = append(view.Required, item)
		case academic.CategoryElective:
			view.Elective = append(view.Elective, item)
		default:
			view.Uncategorized = append(view.Uncategorized, item)
		}
	}
	return view
}
