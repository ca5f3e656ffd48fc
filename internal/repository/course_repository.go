package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const courseColumns = `id, code, name, description, credit, credit_lecture, credit_lab, credit_self_study, created_at, updated_at`

// CourseRepository reads the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByCode returns the course with the exact code.
func (r *CourseRepository) FindByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE code = $1`
	var course models.Course
	if err := sqlx.GetContext(ctx, r.exec(exec), &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByID returns the course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := sqlx.GetContext(ctx, r.exec(exec), &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns the whole catalog ordered by code.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
