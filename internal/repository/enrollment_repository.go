package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const enrollmentColumns = `id, student_id, class_id, category, score, grade, grade_value, is_grading, grade_outcome, created_at, updated_at`

// EnrollmentRepository persists grade records.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID returns the enrollment by identifier.
func (r *EnrollmentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, r.exec(exec), &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now

	const query = `INSERT INTO enrollments (id, student_id, class_id, category, score, grade, grade_value, is_grading, grade_outcome, created_at, updated_at)
VALUES (:id, :student_id, :class_id, :category, :score, :grade, :grade_value, :is_grading, :grade_outcome, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateGrade overwrites the score and grade fields in place.
func (r *EnrollmentRepository) UpdateGrade(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET score = :score, grade = :grade, grade_value = :grade_value, is_grading = :is_grading,
grade_outcome = :grade_outcome, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, enrollment); err != nil {
		return fmt.Errorf("update enrollment grade: %w", err)
	}
	return nil
}

// CountForStudentClass counts enrollments a student holds in one class.
func (r *EnrollmentRepository) CountForStudentClass(ctx context.Context, studentID, classID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND class_id = $2`, studentID, classID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// ListCourseAttempts returns every enrollment in offerings of the given
// courses, ordered by offering creation then class insertion order. A nil
// slice selects every course.
func (r *EnrollmentRepository) ListCourseAttempts(ctx context.Context, courseIDs []string) ([]models.CourseAttempt, error) {
	query := `
SELECT c.course_id, co.code AS course_code, c.id AS class_id, s.sid, s.batch, s.program,
       e.grade, e.grade_value, c.year, c.trimester
FROM class_enrollments ce
JOIN classes c ON c.id = ce.class_id
JOIN courses co ON co.id = c.course_id
JOIN enrollments e ON e.id = ce.enrollment_id
JOIN students s ON s.id = e.student_id`
	var args []interface{}
	if courseIDs != nil {
		query += `
WHERE c.course_id = ANY($1)`
		args = append(args, pq.Array(courseIDs))
	}
	query += `
ORDER BY c.created_at ASC, c.id ASC, ce.position ASC`

	var attempts []models.CourseAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, args...); err != nil {
		return nil, fmt.Errorf("list course attempts: %w", err)
	}
	return attempts, nil
}
