package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/models"
)

// CurriculumRepository loads curricula with their batches and course sets.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository creates a new repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

func (r *CurriculumRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListAll returns every curriculum in load order (oldest first).
func (r *CurriculumRepository) ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.Curriculum, error) {
	target := r.exec(exec)

	var curricula []models.Curriculum
	if err := sqlx.SelectContext(ctx, target, &curricula, `SELECT id, name, created_at FROM curricula ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("list curricula: %w", err)
	}
	if len(curricula) == 0 {
		return curricula, nil
	}

	index := make(map[string]int, len(curricula))
	for i := range curricula {
		index[curricula[i].ID] = i
	}

	var batches []models.CurriculumBatch
	if err := sqlx.SelectContext(ctx, target, &batches, `SELECT curriculum_id, batch FROM curriculum_batches ORDER BY curriculum_id, batch`); err != nil {
		return nil, fmt.Errorf("list curriculum batches: %w", err)
	}
	for _, b := range batches {
		if i, ok := index[b.CurriculumID]; ok {
			curricula[i].Batches = append(curricula[i].Batches, b.Batch)
		}
	}

	var courses []models.CurriculumCourse
	if err := sqlx.SelectContext(ctx, target, &courses, `SELECT curriculum_id, course_id, category FROM curriculum_courses ORDER BY curriculum_id, course_id`); err != nil {
		return nil, fmt.Errorf("list curriculum courses: %w", err)
	}
	for _, c := range courses {
		i, ok := index[c.CurriculumID]
		if !ok {
			continue
		}
		switch academic.Category(c.Category) {
		case academic.CategoryCore:
			curricula[i].Core = append(curricula[i].Core, c.CourseID)
		case academic.CategoryRequired:
			curricula[i].Required = append(curricula[i].Required, c.CourseID)
		case academic.CategoryElective:
			curricula[i].Elective = append(curricula[i].Elective, c.CourseID)
		}
	}

	return curricula, nil
}
