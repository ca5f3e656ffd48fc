package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/reportsource"
	"github.com/noah-isme/academic-records-api/internal/repository"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// memoryDB is an in-memory stand-in for the relational store.
type memoryDB struct {
	seq         int
	courses     []models.Course
	instructors []models.Instructor
	curricula   []models.Curriculum
	classes     []models.Class
	students    map[string]*models.Student
	enrollments []*models.Enrollment
	linked      map[string]academic.Category
	classOrder  map[string][]string
	failCreate  error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		students:   map[string]*models.Student{},
		linked:     map[string]academic.Category{},
		classOrder: map[string][]string{},
	}
}

func (m *memoryDB) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memoryDB) courseByID(id string) *models.Course {
	for i := range m.courses {
		if m.courses[i].ID == id {
			return &m.courses[i]
		}
	}
	return nil
}

func (m *memoryDB) studentByID(id string) *models.Student {
	for _, s := range m.students {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (m *memoryDB) enrollmentCount(studentID, classID string) int {
	count := 0
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.ClassID == classID {
			count++
		}
	}
	return count
}

type fakeCourses struct{ db *memoryDB }

func (f fakeCourses) FindByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Course, error) {
	for _, c := range f.db.courses {
		if c.Code == code {
			course := c
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeCourses) List(ctx context.Context) ([]models.Course, error) {
	courses := append([]models.Course(nil), f.db.courses...)
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

type fakeInstructors struct{ db *memoryDB }

func (f fakeInstructors) FindByNameFragment(ctx context.Context, fragment string) (*models.Instructor, error) {
	for _, i := range f.db.instructors {
		if strings.Contains(strings.ToLower(i.Name), strings.ToLower(fragment)) {
			instructor := i
			return &instructor, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeCurricula struct{ db *memoryDB }

func (f fakeCurricula) ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.Curriculum, error) {
	return f.db.curricula, nil
}

type fakeClasses struct{ db *memoryDB }

func (f fakeClasses) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error) {
	for _, c := range f.db.classes {
		if c.ID == id {
			class := c
			return &class, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeClasses) FindOffering(ctx context.Context, exec sqlx.ExtContext, offering models.ClassOffering) (*models.Class, error) {
	for _, c := range f.db.classes {
		if c.CourseID == offering.CourseID && c.InstructorID == offering.InstructorID && c.Year == offering.Year &&
			c.Trimester == offering.Trimester && c.Section == offering.Section {
			class := c
			return &class, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeClasses) Create(ctx context.Context, exec sqlx.ExtContext, class *models.Class) error {
	if _, err := f.FindOffering(ctx, exec, models.ClassOffering{CourseID: class.CourseID, InstructorID: class.InstructorID, Year: class.Year, Trimester: class.Trimester, Section: class.Section}); err == nil {
		return repository.ErrOfferingExists
	}
	class.ID = f.db.nextID("class")
	class.CreatedAt = time.Now()
	f.db.classes = append(f.db.classes, *class)
	return nil
}

func (f fakeClasses) EnsureOffering(ctx context.Context, exec sqlx.ExtContext, class *models.Class) (*models.Class, error) {
	offering := models.ClassOffering{CourseID: class.CourseID, InstructorID: class.InstructorID, Year: class.Year, Trimester: class.Trimester, Section: class.Section}
	if existing, err := f.FindOffering(ctx, exec, offering); err == nil {
		return existing, nil
	}
	if err := f.Create(ctx, exec, class); err != nil {
		return nil, err
	}
	return class, nil
}

func (f fakeClasses) AppendEnrollment(ctx context.Context, exec sqlx.ExtContext, classID, enrollmentID string) error {
	f.db.classOrder[classID] = append(f.db.classOrder[classID], enrollmentID)
	return nil
}

// txBoundClasses rejects class writes made outside a transaction.
type txBoundClasses struct {
	fakeClasses
	writes int
}

func (f *txBoundClasses) Create(ctx context.Context, exec sqlx.ExtContext, class *models.Class) error {
	if exec == nil {
		return errors.New("class write outside transaction")
	}
	f.writes++
	return f.fakeClasses.Create(ctx, exec, class)
}

func (f *txBoundClasses) EnsureOffering(ctx context.Context, exec sqlx.ExtContext, class *models.Class) (*models.Class, error) {
	if exec == nil {
		return nil, errors.New("class write outside transaction")
	}
	f.writes++
	return f.fakeClasses.EnsureOffering(ctx, exec, class)
}

type fakeStudents struct{ db *memoryDB }

func (f fakeStudents) EnsureExists(ctx context.Context, exec sqlx.ExtContext, student *models.Student) (bool, error) {
	if _, ok := f.db.students[student.SID]; ok {
		return false, nil
	}
	stored := *student
	stored.ID = f.db.nextID("student")
	stored.Status = models.StudentStatusStudying
	f.db.students[student.SID] = &stored
	return true, nil
}

func (f fakeStudents) LockBySID(ctx context.Context, exec sqlx.ExtContext, sid string) (*models.Student, error) {
	return f.FindBySID(ctx, sid)
}

func (f fakeStudents) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error) {
	if s := f.db.studentByID(id); s != nil {
		student := *s
		return &student, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeStudents) FindBySID(ctx context.Context, sid string) (*models.Student, error) {
	s, ok := f.db.students[sid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	student := *s
	return &student, nil
}

func (f fakeStudents) AppendTakenCourse(ctx context.Context, exec sqlx.ExtContext, studentID, enrollmentID string, category academic.Category) error {
	f.db.linked[enrollmentID] = category
	return nil
}

func (f fakeStudents) ListTaken(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.TakenEnrollment, error) {
	var taken []models.TakenEnrollment
	for _, e := range f.db.enrollments {
		if e.StudentID != studentID {
			continue
		}
		class, err := fakeClasses{db: f.db}.FindByID(ctx, exec, e.ClassID)
		if err != nil {
			return nil, err
		}
		course := f.db.courseByID(class.CourseID)
		category, ok := f.db.linked[e.ID]
		if !ok {
			category = academic.CategoryNone
		}
		taken = append(taken, models.TakenEnrollment{
			EnrollmentID: e.ID,
			ClassID:      e.ClassID,
			CourseID:     course.ID,
			CourseCode:   course.Code,
			CourseName:   course.Name,
			Credit:       course.Credit,
			Category:     category,
			Score:        e.Score,
			Grade:        e.Grade,
			GradeValue:   e.GradeValue,
			IsGrading:    e.IsGrading,
			Year:         class.Year,
			Trimester:    class.Trimester,
		})
	}
	return taken, nil
}

func (f fakeStudents) UpdateProgress(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	stored, ok := f.db.students[student.SID]
	if !ok {
		return sql.ErrNoRows
	}
	*stored = *student
	return nil
}

func (f fakeStudents) ListSIDs(ctx context.Context) ([]string, error) {
	sids := make([]string, 0, len(f.db.students))
	for sid := range f.db.students {
		sids = append(sids, sid)
	}
	sort.Strings(sids)
	return sids, nil
}

func (f fakeStudents) ListRoster(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	var roster []models.Student
	for _, s := range f.db.students {
		if len(filter.Batches) > 0 && !containsString(filter.Batches, s.Batch) {
			continue
		}
		if filter.Program != "" && !strings.EqualFold(filter.Program, s.Program) {
			continue
		}
		roster = append(roster, *s)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].SID < roster[j].SID })
	return roster, nil
}

type fakeEnrollments struct{ db *memoryDB }

func (f fakeEnrollments) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	for _, e := range f.db.enrollments {
		if e.ID == id {
			enrollment := *e
			return &enrollment, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeEnrollments) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if f.db.failCreate != nil {
		return f.db.failCreate
	}
	enrollment.ID = f.db.nextID("enrollment")
	stored := *enrollment
	f.db.enrollments = append(f.db.enrollments, &stored)
	return nil
}

func (f fakeEnrollments) UpdateGrade(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	for _, e := range f.db.enrollments {
		if e.ID == enrollment.ID {
			*e = *enrollment
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f fakeEnrollments) ListCourseAttempts(ctx context.Context, courseIDs []string) ([]models.CourseAttempt, error) {
	var attempts []models.CourseAttempt
	for _, class := range f.db.classes {
		if courseIDs != nil && !containsString(courseIDs, class.CourseID) {
			continue
		}
		course := f.db.courseByID(class.CourseID)
		for _, enrollmentID := range f.db.classOrder[class.ID] {
			e, err := f.FindByID(ctx, nil, enrollmentID)
			if err != nil {
				return nil, err
			}
			student := f.db.studentByID(e.StudentID)
			attempts = append(attempts, models.CourseAttempt{
				CourseID:   course.ID,
				CourseCode: course.Code,
				ClassID:    class.ID,
				SID:        student.SID,
				Batch:      student.Batch,
				Program:    student.Program,
				Grade:      e.Grade,
				GradeValue: e.GradeValue,
				Year:       class.Year,
				Trimester:  class.Trimester,
			})
		}
	}
	return attempts, nil
}

type fakeReports struct {
	report *reportsource.Report
	err    error
}

func (f fakeReports) Load(ctx context.Context, url string) (*reportsource.Report, error) {
	return f.report, f.err
}

type recordingCache struct {
	invalidated []string
	entries     map[string][]byte
	hits        int
}

func (r *recordingCache) Invalidate(ctx context.Context, pattern string) error {
	r.invalidated = append(r.invalidated, pattern)
	r.entries = nil
	return nil
}

func (r *recordingCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, ok := r.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, err
	}
	r.hits++
	return true, nil
}

func (r *recordingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if r.entries == nil {
		r.entries = map[string][]byte{}
	}
	r.entries[key] = payload
	return nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// seedCatalog creates two courses, one instructor and two curricula.
func seedCatalog(db *memoryDB) {
	db.courses = []models.Course{
		{ID: "course-111", Code: "ICCI111", Name: "Calculus I", Credit: 3},
		{ID: "course-112", Code: "ICCI112", Name: "Programming", Credit: 4},
	}
	db.instructors = []models.Instructor{{ID: "inst-1", Name: "Asst. Prof. Jane Roe"}}
	db.curricula = []models.Curriculum{
		{ID: "cur-2020", Batches: []string{"2020"}, Required: []string{"course-111"}, Elective: []string{"course-112"}},
		{ID: "cur-2021", Batches: []string{"2021"}, Core: []string{"course-111"}, Elective: []string{"course-112"}},
	}
}
