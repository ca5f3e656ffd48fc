//go:build integration

package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/internal/testutil/testdb"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const seedCatalogSQL = `
INSERT INTO courses (id, code, name, credit) VALUES ('course-111', 'ICCI111', 'Calculus I', 3);
INSERT INTO instructors (id, name) VALUES ('inst-1', 'Asst. Prof. Jane Roe');
INSERT INTO curricula (id, name) VALUES ('cur-2020', 'Curriculum 2020');
INSERT INTO curriculum_batches (curriculum_id, batch) VALUES ('cur-2020', '2020');
INSERT INTO curriculum_courses (curriculum_id, course_id, category) VALUES ('cur-2020', 'course-111', 'required');
`

func TestConcurrentUploadsRecordOneEnrollment(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.DB.ExecContext(ctx, seedCatalogSQL)
	require.NoError(t, err)

	classes := repository.NewClassRepository(h.DB)
	class := &models.Class{CourseID: "course-111", InstructorID: "inst-1", Year: 2020, Trimester: "1", Section: 1}
	require.NoError(t, classes.Create(ctx, nil, class))

	students := repository.NewStudentRepository(h.DB)
	enrollments := repository.NewEnrollmentRepository(h.DB)
	progress := service.NewProgressService(students, nil, nil)
	ingestion := service.NewIngestionService(service.IngestionDeps{
		Tx:          h.DB,
		Classes:     classes,
		Courses:     repository.NewCourseRepository(h.DB),
		Instructors: repository.NewInstructorRepository(h.DB),
		Curricula:   repository.NewCurriculumRepository(h.DB),
		Students:    students,
		Enrollments: enrollments,
		Progress:    progress,
	}, nil, nil)

	req := dto.GradeRecordRequest{StudentID: "6281234", ClassID: class.ID, Score: 88, Grade: "A", Batch: "2020", Program: "ICCI"}
	actor := models.Actor{UserID: "coord-1", Role: models.RoleCoordinator}

	const attempts = 4
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		committed  int
		duplicates int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ingestion.UploadGrade(ctx, actor, req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case appErrors.HasCode(err, appErrors.ErrDuplicate):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, committed)
	assert.Equal(t, attempts-1, duplicates)

	count, err := enrollments.CountForStudentClass(ctx, mustStudentID(t, students, "6281234"), class.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	view, err := progress.Get(ctx, "6281234")
	require.NoError(t, err)
	assert.Equal(t, 3, view.Progress.RequiredEarned)
	require.NotNil(t, view.Progress.GPA)
	assert.InDelta(t, 4.0, *view.Progress.GPA, 0.0001)
	assert.Len(t, view.Required, 1)
}

func TestDuplicateOfferingIsRejected(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.DB.ExecContext(ctx, seedCatalogSQL)
	require.NoError(t, err)

	classes := repository.NewClassRepository(h.DB)
	require.NoError(t, classes.Create(ctx, nil, &models.Class{CourseID: "course-111", InstructorID: "inst-1", Year: 2021, Trimester: "2", Section: 1}))
	err = classes.Create(ctx, nil, &models.Class{CourseID: "course-111", InstructorID: "inst-1", Year: 2021, Trimester: "2", Section: 1})
	assert.ErrorIs(t, err, repository.ErrOfferingExists)
}

func mustStudentID(t *testing.T, students *repository.StudentRepository, sid string) string {
	t.Helper()
	student, err := students.FindBySID(context.Background(), sid)
	require.NoError(t, err)
	return student.ID
}
