package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const classColumns = `id, course_id, instructor_id, year, trimester, section, created_at, updated_at`

// ClassRepository persists class offerings and their enrollment order.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns the class by identifier.
func (r *ClassRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	var class models.Class
	if err := sqlx.GetContext(ctx, r.exec(exec), &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindOffering returns the class matching course, instructor, term and section.
func (r *ClassRepository) FindOffering(ctx context.Context, exec sqlx.ExtContext, offering models.ClassOffering) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE course_id = $1 AND instructor_id = $2 AND year = $3 AND trimester = $4 AND section = $5 ORDER BY created_at ASC LIMIT 1`
	var class models.Class
	if err := sqlx.GetContext(ctx, r.exec(exec), &class, query, offering.CourseID, offering.InstructorID, offering.Year, offering.Trimester, offering.Section); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a new class offering. It returns ErrOfferingExists when the offering is taken.
func (r *ClassRepository) Create(ctx context.Context, exec sqlx.ExtContext, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, course_id, instructor_id, year, trimester, section, created_at, updated_at)
VALUES (:id, :course_id, :instructor_id, :year, :trimester, :section, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, class); err != nil {
		if IsUniqueViolation(err) {
			return ErrOfferingExists
		}
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// EnsureOffering inserts the class unless its offering already exists and
// returns the stored offering. A concurrent insert of the same offering does
// not abort the caller's transaction.
func (r *ClassRepository) EnsureOffering(ctx context.Context, exec sqlx.ExtContext, class *models.Class) (*models.Class, error) {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, course_id, instructor_id, year, trimester, section, created_at, updated_at)
VALUES (:id, :course_id, :instructor_id, :year, :trimester, :section, :created_at, :updated_at)
ON CONFLICT (course_id, instructor_id, year, trimester, section) DO NOTHING`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, class); err != nil {
		return nil, fmt.Errorf("ensure class: %w", err)
	}
	stored, err := r.FindOffering(ctx, exec, models.ClassOffering{
		CourseID:     class.CourseID,
		InstructorID: class.InstructorID,
		Year:         class.Year,
		Trimester:    class.Trimester,
		Section:      class.Section,
	})
	if err != nil {
		return nil, fmt.Errorf("load ensured class: %w", err)
	}
	return stored, nil
}

// AppendEnrollment links an enrollment at the end of the class's ordered set.
func (r *ClassRepository) AppendEnrollment(ctx context.Context, exec sqlx.ExtContext, classID, enrollmentID string) error {
	const query = `INSERT INTO class_enrollments (class_id, enrollment_id) VALUES ($1, $2)`
	if _, err := r.exec(exec).ExecContext(ctx, query, classID, enrollmentID); err != nil {
		return fmt.Errorf("link enrollment to class: %w", err)
	}
	return nil
}
