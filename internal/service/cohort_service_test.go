package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func seedCohort(db *memoryDB) {
	seedCatalog(db)
	db.classes = []models.Class{
		{ID: "class-1", CourseID: "course-111", Year: 2020, Trimester: "1"},
		{ID: "class-2", CourseID: "course-111", Year: 2020, Trimester: "3"},
	}
	for i, sid := range []string{"6200001", "6200002", "6200003", "6200004", "6200005"} {
		program := "ICCI"
		if sid == "6200005" {
			program = "ICMC"
		}
		db.students[sid] = &models.Student{ID: "s" + sid, SID: sid, Batch: "2020", Program: program, GivenName: "Student", FamilyName: string(rune('A' + i))}
	}
	enroll := func(id, sid, classID, grade string, value float64) {
		db.enrollments = append(db.enrollments, &models.Enrollment{ID: id, StudentID: "s" + sid, ClassID: classID, Grade: grade, GradeValue: value, IsGrading: true})
		db.classOrder[classID] = append(db.classOrder[classID], id)
	}
	enroll("e1", "6200001", "class-1", "A", 4)
	enroll("e2", "6200002", "class-1", "F", 0)
	enroll("e3", "6200003", "class-1", "F", 0)
	enroll("e4", "6200005", "class-1", "A", 4)
	enroll("e5", "6200001", "class-2", "F", 0)
	enroll("e6", "6200002", "class-2", "B", 3)
}

func newCohortFixture(t *testing.T) (*CohortService, *recordingCache) {
	t.Helper()
	db := newMemoryDB()
	seedCohort(db)
	cache := &recordingCache{}
	svc := NewCohortService(fakeCourses{db: db}, fakeEnrollments{db: db}, fakeStudents{db: db}, fakeCurricula{db: db}, cache, nil, nil,
		CohortConfig{PrimaryProgram: "icci", CacheTTL: time.Minute})
	return svc, cache
}

func TestCountStudentsAppliesLatestAttempt(t *testing.T) {
	svc, _ := newCohortFixture(t)

	report, err := svc.CountStudents(context.Background(), "ICCI111", CohortQuery{Batches: []string{"2020", " ", "2020"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"2020"}, report.Batches)
	assert.Equal(t, []string{"core_course", "required_courses"}, report.Course.Category)
	require.Len(t, report.Completed, 1)
	assert.Equal(t, dto.CohortStudent{Course: "ICCI111", SID: "6200002", Batch: "2020", Program: "ICCI", Grade: "B", GradeValue: 3, Trimester: "2020T3"}, report.Completed[0])
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, []string{"6200001"}, report.Superseded)

	var unregistered []string
	for _, s := range report.Unregistered {
		unregistered = append(unregistered, s.SID)
	}
	assert.Equal(t, []string{"6200003", "6200004"}, unregistered)
}

func TestCountStudentsIncludeOutsideProgram(t *testing.T) {
	svc, _ := newCohortFixture(t)

	report, err := svc.CountStudents(context.Background(), "ICCI111", CohortQuery{Batches: []string{"2020"}, IncludeOutsideProgram: true})
	require.NoError(t, err)

	var completed []string
	for _, c := range report.Completed {
		completed = append(completed, c.SID)
	}
	assert.ElementsMatch(t, []string{"6200002", "6200005"}, completed)
}

func TestCountStudentsUsesCache(t *testing.T) {
	svc, cache := newCohortFixture(t)
	query := CohortQuery{Batches: []string{"2020"}}

	first, err := svc.CountStudents(context.Background(), "ICCI111", query)
	require.NoError(t, err)
	second, err := svc.CountStudents(context.Background(), "ICCI111", query)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first, second)
}

func TestCountStudentsUnknownCourse(t *testing.T) {
	svc, _ := newCohortFixture(t)
	_, err := svc.CountStudents(context.Background(), "NOPE", CohortQuery{Batches: []string{"2020"}})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestCohortReportsRequireBatch(t *testing.T) {
	svc, _ := newCohortFixture(t)

	_, err := svc.CountStudents(context.Background(), "ICCI111", CohortQuery{Batches: []string{" ", ""}})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.CourseOverall(context.Background(), CohortQuery{IncludeOutsideProgram: true})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.ExportCohort(context.Background(), "ICCI111", CohortQuery{}, "csv")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestCourseOverallCoversEveryCourse(t *testing.T) {
	svc, _ := newCohortFixture(t)

	overall, err := svc.CourseOverall(context.Background(), CohortQuery{Batches: []string{"2020"}})
	require.NoError(t, err)
	require.Len(t, overall.Courses, 2)
	assert.Equal(t, 4, overall.Total)
	assert.Equal(t, "ICCI111", overall.Courses[0].Course.Code)
	assert.Len(t, overall.Courses[0].Completed, 1)
	assert.Equal(t, "ICCI112", overall.Courses[1].Course.Code)
	assert.Equal(t, []string{"elective_courses"}, overall.Courses[1].Course.Category)
	assert.Empty(t, overall.Courses[1].Completed)
	assert.Len(t, overall.Courses[1].Unregistered, 4)
}

func TestExportCohortCSV(t *testing.T) {
	svc, _ := newCohortFixture(t)

	file, err := svc.ExportCohort(context.Background(), "ICCI111", CohortQuery{Batches: []string{"2020"}}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "cohort_icci111.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	body := string(file.Body)
	assert.True(t, strings.HasPrefix(body, "Completed\n"))
	assert.Contains(t, body, "6200002,2020,ICCI,B,3.0,2020T3")
	assert.Contains(t, body, "Superseded\nsid\n6200001\n")
}

func TestExportCohortRejectsUnknownFormat(t *testing.T) {
	svc, _ := newCohortFixture(t)
	_, err := svc.ExportCohort(context.Background(), "ICCI111", CohortQuery{}, "docx")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
