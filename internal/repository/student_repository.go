package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/models"
)

const studentColumns = `id, sid, given_name, family_name, batch, program, status, credits_attempted, core_earned, required_earned, elective_earned, gpa, progress_updated_at, created_at, updated_at`

// StudentRepository persists students, their category buckets and progress.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// EnsureExists inserts a minimal student unless the sid is already present.
// It reports whether a row was created.
func (r *StudentRepository) EnsureExists(ctx context.Context, exec sqlx.ExtContext, student *models.Student) (bool, error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.Status == "" {
		student.Status = models.StudentStatusStudying
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, sid, given_name, family_name, batch, program, status, created_at, updated_at)
VALUES (:id, :sid, :given_name, :family_name, :batch, :program, :status, :created_at, :updated_at)
ON CONFLICT (sid) DO NOTHING`
	res, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, student)
	if err != nil {
		return false, fmt.Errorf("ensure student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure student rows affected: %w", err)
	}
	return affected > 0, nil
}

// LockBySID loads the student and holds its row lock until the transaction ends.
func (r *StudentRepository) LockBySID(ctx context.Context, exec sqlx.ExtContext, sid string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE sid = $1 FOR UPDATE`
	var student models.Student
	if err := sqlx.GetContext(ctx, r.exec(exec), &student, query, sid); err != nil {
		return nil, err
	}
	return &student, nil
}

// LockByID is LockBySID keyed by the internal identifier.
func (r *StudentRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 FOR UPDATE`
	var student models.Student
	if err := sqlx.GetContext(ctx, r.exec(exec), &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindBySID reads a student without locking.
func (r *StudentRepository) FindBySID(ctx context.Context, sid string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE sid = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, sid); err != nil {
		return nil, err
	}
	return &student, nil
}

// AppendTakenCourse adds an enrollment to one of the student's category buckets.
func (r *StudentRepository) AppendTakenCourse(ctx context.Context, exec sqlx.ExtContext, studentID, enrollmentID string, category academic.Category) error {
	if !category.Credited() {
		return fmt.Errorf("append taken course: category %q has no bucket", category)
	}
	const query = `INSERT INTO student_courses (student_id, enrollment_id, category) VALUES ($1, $2, $3)`
	if _, err := r.exec(exec).ExecContext(ctx, query, studentID, enrollmentID, string(category)); err != nil {
		return fmt.Errorf("append taken course: %w", err)
	}
	return nil
}

// ListTaken returns every enrollment of the student with its bucket category,
// buckets first in insertion order.
func (r *StudentRepository) ListTaken(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.TakenEnrollment, error) {
	const query = `
SELECT e.id AS enrollment_id, e.class_id, c.course_id, co.code AS course_code, co.name AS course_name, co.credit,
       COALESCE(sc.category, 'none') AS category, e.score, e.grade, e.grade_value, e.is_grading, c.year, c.trimester
FROM enrollments e
JOIN classes c ON c.id = e.class_id
JOIN courses co ON co.id = c.course_id
LEFT JOIN student_courses sc ON sc.enrollment_id = e.id AND sc.student_id = e.student_id
WHERE e.student_id = $1
ORDER BY sc.position ASC NULLS LAST, e.created_at ASC, e.id ASC`
	var taken []models.TakenEnrollment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &taken, query, studentID); err != nil {
		return nil, fmt.Errorf("list taken courses: %w", err)
	}
	return taken, nil
}

// UpdateProgress stores the recomputed progress columns.
func (r *StudentRepository) UpdateProgress(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET credits_attempted = :credits_attempted, core_earned = :core_earned, required_earned = :required_earned,
elective_earned = :elective_earned, gpa = :gpa, progress_updated_at = :progress_updated_at, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, student)
	if err != nil {
		return fmt.Errorf("update student progress: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update student progress: student %s not found", student.ID)
	}
	return nil
}

// ListRoster returns students matching the filter ordered by sid.
func (r *StudentRepository) ListRoster(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if len(filter.Batches) > 0 {
		args = append(args, pq.Array(filter.Batches))
		conditions = append(conditions, fmt.Sprintf("batch = ANY($%d)", len(args)))
	}
	if filter.Program != "" {
		args = append(args, filter.Program)
		conditions = append(conditions, fmt.Sprintf("UPPER(program) = UPPER($%d)", len(args)))
	}
	query := `SELECT ` + studentColumns + ` FROM students`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY sid ASC`

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return students, nil
}

// ListSIDs returns every sid ordered ascending.
func (r *StudentRepository) ListSIDs(ctx context.Context) ([]string, error) {
	var sids []string
	if err := r.db.SelectContext(ctx, &sids, `SELECT sid FROM students ORDER BY sid ASC`); err != nil {
		return nil, fmt.Errorf("list student ids: %w", err)
	}
	return sids, nil
}
