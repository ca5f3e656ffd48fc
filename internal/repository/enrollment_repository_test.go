package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WithArgs(sqlmock.AnyArg(), "s1", "class-1", "core", 85, "A", 4.0, true, "graded", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	gv, err := academic.GradeToValue("A")
	require.NoError(t, err)
	enrollment := &models.Enrollment{StudentID: "s1", ClassID: "class-1", Category: academic.CategoryCore}
	enrollment.ApplyGrade(85, gv)
	require.NoError(t, repo.Create(context.Background(), nil, enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET score")).
		WithArgs(60, "W", 0.0, false, "non_graded", sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	gv, _ := academic.GradeToValue("W")
	enrollment := &models.Enrollment{ID: "e1"}
	enrollment.ApplyGrade(60, gv)
	require.NoError(t, repo.UpdateGrade(context.Background(), nil, enrollment))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListCourseAttempts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	columns := []string{"course_id", "course_code", "class_id", "sid", "batch", "program", "grade", "grade_value", "year", "trimester"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.course_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("c1", "EGCI111", "class-1", "6088001", "6088", "ICCI", "A", 4.0, 2020, "1").
			AddRow("c1", "EGCI111", "class-2", "6088001", "6088", "ICCI", "F", 0.0, 2021, "2"))

	attempts, err := repo.ListCourseAttempts(context.Background(), []string{"c1"})
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "2021T2", attempts[1].Attempt().TermKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListAllAttempts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY c.created_at ASC, c.id ASC, ce.position ASC")).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}))

	attempts, err := repo.ListCourseAttempts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, attempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
