package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/export"
)

type cohortCourseReader interface {
	FindByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
}

type courseAttemptReader interface {
	ListCourseAttempts(ctx context.Context, courseIDs []string) ([]models.CourseAttempt, error)
}

type rosterReader interface {
	ListRoster(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type documentRenderer interface {
	Render(doc export.Document, format export.Format) ([]byte, error)
}

// CohortConfig tunes cohort reporting.
type CohortConfig struct {
	PrimaryProgram string
	CacheTTL       time.Duration
}

// CohortQuery selects the cohort of a report.
type CohortQuery struct {
	Batches               []string
	IncludeOutsideProgram bool
}

func (q CohortQuery) normalized() CohortQuery {
	seen := make(map[string]struct{}, len(q.Batches))
	batches := make([]string, 0, len(q.Batches))
	for _, b := range q.Batches {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		batches = append(batches, b)
	}
	sort.Strings(batches)
	return CohortQuery{Batches: batches, IncludeOutsideProgram: q.IncludeOutsideProgram}
}

// validate requires at least one batch.
func (q CohortQuery) validate() error {
	if len(q.Batches) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one batch is required")
	}
	return nil
}

func (q CohortQuery) cacheSuffix() string {
	return strings.Join(q.Batches, ",") + ":" + strconv.FormatBool(q.IncludeOutsideProgram)
}

// ExportFile is a rendered cohort report.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// CohortService answers course completion questions for student cohorts.
type CohortService struct {
	courses   cohortCourseReader
	attempts  courseAttemptReader
	roster    rosterReader
	curricula curriculumLister
	cache     reportCache
	renderer  documentRenderer
	logger    *zap.Logger
	config    CohortConfig
}

// NewCohortService constructs a CohortService.
func NewCohortService(courses cohortCourseReader, attempts courseAttemptReader, roster rosterReader, curricula curriculumLister, cache reportCache, renderer documentRenderer, logger *zap.Logger, cfg CohortConfig) *CohortService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	cfg.PrimaryProgram = strings.ToUpper(strings.TrimSpace(cfg.PrimaryProgram))
	return &CohortService{
		courses:   courses,
		attempts:  attempts,
		roster:    roster,
		curricula: curricula,
		cache:     cache,
		renderer:  renderer,
		logger:    logger,
		config:    cfg,
	}
}

// CountStudents reports who completed courseCode, who has not and who lost a pass to a later attempt.
func (s *CohortService) CountStudents(ctx context.Context, courseCode string, query CohortQuery) (*dto.CohortReport, error) {
	query = query.normalized()
	if err := query.validate(); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(courseCode)
	key := fmt.Sprintf("cohort:%s:%s", code, query.cacheSuffix())

	var cached dto.CohortReport
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	course, err := s.courses.FindByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course [%s] not found", code))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	curricula, err := s.loadCurricula(ctx)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListCourseAttempts(ctx, []string{course.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course attempts")
	}
	roster, err := s.loadRoster(ctx, query)
	if err != nil {
		return nil, err
	}

	report := s.buildReport(*course, curricula, attempts, roster, query)
	s.toCache(ctx, key, report)
	return &report, nil
}

// CourseOverall runs CountStudents for every catalog course in code order.
func (s *CohortService) CourseOverall(ctx context.Context, query CohortQuery) (*dto.CourseOverallReport, error) {
	query = query.normalized()
	if err := query.validate(); err != nil {
		return nil, err
	}
	key := "cohort:all:" + query.cacheSuffix()

	var cached dto.CourseOverallReport
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	curricula, err := s.loadCurricula(ctx)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.ListCourseAttempts(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course attempts")
	}
	roster, err := s.loadRoster(ctx, query)
	if err != nil {
		return nil, err
	}

	byCourse := make(map[string][]models.CourseAttempt, len(courses))
	for _, a := range attempts {
		byCourse[a.CourseID] = append(byCourse[a.CourseID], a)
	}

	overall := dto.CourseOverallReport{
		Batches: query.Batches,
		Total:   len(roster),
		Courses: make([]dto.CohortReport, 0, len(courses)),
	}
	for _, course := range courses {
		overall.Courses = append(overall.Courses, s.buildReport(course, curricula, byCourse[course.ID], roster, query))
	}
	s.toCache(ctx, key, overall)
	return &overall, nil
}

// ExportCohort renders the CountStudents report of courseCode in the requested format.
func (s *CohortService) ExportCohort(ctx context.Context, courseCode string, query CohortQuery, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	report, err := s.CountStudents(ctx, courseCode, query)
	if err != nil {
		return nil, err
	}

	body, err := s.renderer.Render(cohortDocument(report), format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render cohort report")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("cohort_%s.%s", strings.ToLower(report.Course.Code), format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func (s *CohortService) buildReport(course models.Course, curricula []academic.Curriculum, attempts []models.CourseAttempt, roster []academic.CohortStudent, query CohortQuery) dto.CohortReport {
	view := make([]academic.CohortAttempt, 0, len(attempts))
	for _, a := range attempts {
		view = append(view, a.Attempt())
	}
	result := academic.BuildCohort(view, roster, s.filter(query))
	labels := academic.CategoriesForCourse(curricula, course.ID).Labels()
	return dto.NewCohortReport(dto.NewCourseView(course, labels), query.Batches, result)
}

func (s *CohortService) filter(query CohortQuery) academic.CohortFilter {
	return academic.CohortFilter{
		Batches:               query.Batches,
		Program:               s.config.PrimaryProgram,
		IncludeOutsideProgram: query.IncludeOutsideProgram,
	}
}

func (s *CohortService) loadRoster(ctx context.Context, query CohortQuery) ([]academic.CohortStudent, error) {
	filter := models.StudentFilter{Batches: query.Batches}
	if !query.IncludeOutsideProgram {
		filter.Program = s.config.PrimaryProgram
	}
	students, err := s.roster.ListRoster(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return dto.RosterFromStudents(students), nil
}

func (s *CohortService) loadCurricula(ctx context.Context) ([]academic.Curriculum, error) {
	curricula, err := s.curricula.ListAll(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curricula")
	}
	return classificationView(curricula), nil
}

func (s *CohortService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Debug("cohort cache lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *CohortService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.config.CacheTTL); err != nil {
		s.logger.Debug("cohort cache store failed", zap.String("key", key), zap.Error(err))
	}
}

func cohortDocument(report *dto.CohortReport) export.Document {
	completed := export.Table{
		Name:    "Completed",
		Headers: []string{"sid", "batch", "program", "grade", "grade_value", "trimester"},
	}
	for _, c := range report.Completed {
		completed.Rows = append(completed.Rows, []string{
			c.SID, c.Batch, c.Program, c.Grade, strconv.FormatFloat(c.GradeValue, 'f', 1, 64), c.Trimester,
		})
	}
	unregistered := export.Table{
		Name:    "Unregistered",
		Headers: []string{"sid", "batch", "program", "given_name", "family_name"},
	}
	for _, u := range report.Unregistered {
		unregistered.Rows = append(unregistered.Rows, []string{u.SID, u.Batch, u.Program, u.GivenName, u.FamilyName})
	}
	superseded := export.Table{Name: "Superseded", Headers: []string{"sid"}}
	for _, sid := range report.Superseded {
		superseded.Rows = append(superseded.Rows, []string{sid})
	}

	title := fmt.Sprintf("%s %s", report.Course.Code, report.Course.Name)
	if len(report.Batches) > 0 {
		title += " - batches " + strings.Join(report.Batches, ", ")
	}
	return export.Document{Title: title, Tables: []export.Table{completed, unregistered, superseded}}
}
