package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructorRepositoryFindByNameFragment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM instructors WHERE name ILIKE $1")).
		WithArgs("%Sunsern%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow("i1", "Dr. Sunsern Cheamanunkul", time.Now()))

	instructor, err := repo.FindByNameFragment(context.Background(), " Sunsern ")
	require.NoError(t, err)
	assert.Equal(t, "i1", instructor.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% \_off\\`, escapeLike(`50% _off\`))
}
