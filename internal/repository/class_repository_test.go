package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestClassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classes")).
		WithArgs(sqlmock.AnyArg(), "c1", "i1", 2021, "2", 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{CourseID: "c1", InstructorID: "i1", Year: 2021, Trimester: "2", Section: 1}
	require.NoError(t, repo.Create(context.Background(), nil, class))
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, "2021T2", class.TermKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreateReportsExistingOffering(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classes")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), nil, &models.Class{CourseID: "c1", InstructorID: "i1", Year: 2021, Trimester: "2", Section: 1})
	require.ErrorIs(t, err, ErrOfferingExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryEnsureOfferingReturnsStoredClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (course_id, instructor_id, year, trimester, section) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE course_id = $1")).
		WithArgs("c2", "i1", 2022, "2", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "instructor_id", "year", "trimester", "section", "created_at", "updated_at"}).
			AddRow("class-existing", "c2", "i1", 2022, "2", 1, time.Now(), time.Now()))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	class, err := repo.EnsureOffering(context.Background(), tx, &models.Class{CourseID: "c2", InstructorID: "i1", Year: 2022, Trimester: "2", Section: 1})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, "class-existing", class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindOffering(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE course_id = $1 AND instructor_id = $2 AND year = $3 AND trimester = $4 AND section = $5")).
		WithArgs("c1", "i1", 2021, "2", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "instructor_id", "year", "trimester", "section", "created_at", "updated_at"}).
			AddRow("class-1", "c1", "i1", 2021, "2", 1, time.Now(), time.Now()))

	class, err := repo.FindOffering(context.Background(), nil, models.ClassOffering{CourseID: "c1", InstructorID: "i1", Year: 2021, Trimester: "2", Section: 1})
	require.NoError(t, err)
	assert.Equal(t, "class-1", class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryAppendEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_enrollments (class_id, enrollment_id) VALUES ($1, $2)")).
		WithArgs("class-1", "enr-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AppendEnrollment(context.Background(), nil, "class-1", "enr-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
