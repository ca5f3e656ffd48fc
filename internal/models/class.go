package models

import (
	"time"

	"github.com/noah-isme/academic-records-api/internal/academic"
)

// Class is one offering of a course in a term and section.
type Class struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	Year         int       `db:"year" json:"year"`
	Trimester    string    `db:"trimester" json:"trimester"`
	Section      int       `db:"section" json:"section"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TermKey returns the sortable year+trimester key of the offering.
func (c Class) TermKey() string {
	return academic.TermKey(c.Year, c.Trimester)
}

// ClassOffering identifies a class by its natural key.
type ClassOffering struct {
	CourseID     string
	InstructorID string
	Year         int
	Trimester    string
	Section      int
}
