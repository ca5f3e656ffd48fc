package models

import (
	"time"

	"github.com/noah-isme/academic-records-api/internal/academic"
)

// Curriculum governs one or more batches with categorized course sets.
type Curriculum struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Batches  []string `db:"-" json:"batches"`
	Core     []string `db:"-" json:"core"`
	Required []string `db:"-" json:"required"`
	Elective []string `db:"-" json:"elective"`
}

// CurriculumBatch is a row of curriculum_batches.
type CurriculumBatch struct {
	CurriculumID string `db:"curriculum_id"`
	Batch        string `db:"batch"`
}

// CurriculumCourse is a row of curriculum_courses.
type CurriculumCourse struct {
	CurriculumID string `db:"curriculum_id"`
	CourseID     string `db:"course_id"`
	Category     string `db:"category"`
}

// Classification converts the curriculum into the classifier's view.
func (c Curriculum) Classification() academic.Curriculum {
	return academic.Curriculum{
		ID:       c.ID,
		Batches:  c.Batches,
		Core:     c.Core,
		Required: c.Required,
		Elective: c.Elective,
	}
}
