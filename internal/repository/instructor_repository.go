package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// InstructorRepository resolves instructors by name.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// FindByNameFragment returns the first instructor whose name contains fragment, ignoring case.
func (r *InstructorRepository) FindByNameFragment(ctx context.Context, fragment string) (*models.Instructor, error) {
	const query = `SELECT id, name, created_at FROM instructors WHERE name ILIKE $1 ESCAPE '\' ORDER BY name ASC, id ASC LIMIT 1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, "%"+escapeLike(strings.TrimSpace(fragment))+"%"); err != nil {
		return nil, err
	}
	return &instructor, nil
}

func escapeLike(raw string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(raw)
}
