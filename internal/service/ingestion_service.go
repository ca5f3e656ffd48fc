package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/reportsource"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/observability"
)

// Ingestion modes used in metrics and logs.
const (
	ModeSingle      = "single"
	ModeBatch       = "batch"
	ModeCorrection  = "correction"
	ModeRecalculate = "recalculate"
)

// CohortCachePattern matches every cached cohort report.
const CohortCachePattern = "cohort:*"

type ingestionClassStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error)
	FindOffering(ctx context.Context, exec sqlx.ExtContext, offering models.ClassOffering) (*models.Class, error)
	Create(ctx context.Context, exec sqlx.ExtContext, class *models.Class) error
	EnsureOffering(ctx context.Context, exec sqlx.ExtContext, class *models.Class) (*models.Class, error)
	AppendEnrollment(ctx context.Context, exec sqlx.ExtContext, classID, enrollmentID string) error
}

// classResolver finds the class a unit enrolls into, using the unit's transaction.
type classResolver func(ctx context.Context, exec sqlx.ExtContext) (*models.Class, error)

type courseFinder interface {
	FindByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Course, error)
}

type instructorFinder interface {
	FindByNameFragment(ctx context.Context, fragment string) (*models.Instructor, error)
}

type curriculumLister interface {
	ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.Curriculum, error)
}

type ingestionStudentStore interface {
	EnsureExists(ctx context.Context, exec sqlx.ExtContext, student *models.Student) (bool, error)
	LockBySID(ctx context.Context, exec sqlx.ExtContext, sid string) (*models.Student, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error)
	AppendTakenCourse(ctx context.Context, exec sqlx.ExtContext, studentID, enrollmentID string, category academic.Category) error
	ListTaken(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.TakenEnrollment, error)
}

type ingestionEnrollmentStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	UpdateGrade(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
}

type progressRecomputer interface {
	Recompute(ctx context.Context, exec sqlx.ExtContext, student *models.Student) (academic.ProgressRecord, error)
}

type reportLoader interface {
	Load(ctx context.Context, url string) (*reportsource.Report, error)
}

type documentArchiver interface {
	Archive(ctx context.Context, doc *reportsource.Document) (string, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// IngestionDeps groups the collaborators of IngestionService.
type IngestionDeps struct {
	Tx          txProvider
	Classes     ingestionClassStore
	Courses     courseFinder
	Instructors instructorFinder
	Curricula   curriculumLister
	Students    ingestionStudentStore
	Enrollments ingestionEnrollmentStore
	Progress    progressRecomputer
	Reports     reportLoader
	Archive     documentArchiver
	Cache       cacheInvalidator
	Metrics     *MetricsService
}

// IngestionService records grades and keeps student progress consistent with them.
type IngestionService struct {
	tx          txProvider
	classes     ingestionClassStore
	courses     courseFinder
	instructors instructorFinder
	curricula   curriculumLister
	students    ingestionStudentStore
	enrollments ingestionEnrollmentStore
	progress    progressRecomputer
	reports     reportLoader
	archive     documentArchiver
	cache       cacheInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewIngestionService constructs an IngestionService.
func NewIngestionService(deps IngestionDeps, validate *validator.Validate, logger *zap.Logger) *IngestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionService{
		tx:          deps.Tx,
		classes:     deps.Classes,
		courses:     deps.Courses,
		instructors: deps.Instructors,
		curricula:   deps.Curricula,
		students:    deps.Students,
		enrollments: deps.Enrollments,
		progress:    deps.Progress,
		reports:     deps.Reports,
		archive:     deps.Archive,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		validator:   validate,
		logger:      logger,
	}
}

// UploadGrade records a single grade as one all-or-nothing unit.
func (s *IngestionService) UploadGrade(ctx context.Context, actor models.Actor, req dto.GradeRecordRequest) (*dto.IngestionResult, error) {
	result, err := s.ingest(ctx, ModeSingle, req, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info("grade recorded",
		zap.String("actor", actor.UserID),
		zap.String("sid", result.StudentID),
		zap.String("class_id", result.ClassID),
		zap.String("category", string(result.Category)),
	)
	s.invalidateReports(ctx)
	return result, nil
}

// UploadFromDocument ingests every row of a grade-report document. Rows are
// processed sequentially and a failing row is skipped without affecting the rest.
func (s *IngestionService) UploadFromDocument(ctx context.Context, actor models.Actor, req dto.ImportDocumentRequest) (*dto.BatchIngestionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}

	report, err := s.reports.Load(ctx, req.URL)
	if err != nil {
		s.metrics.RecordIngestion(ModeBatch, OutcomeAborted, appErrors.ErrUpstreamFetch.Code)
		s.logger.Warn("grade report unavailable", zap.String("url", req.URL), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamFetch.Code, appErrors.ErrUpstreamFetch.Status, err.Error())
	}

	header := report.Header
	course, err := s.courses.FindByCode(ctx, nil, header.CourseCode)
	if err != nil {
		return nil, s.abortBatch(notFoundOr(err, fmt.Sprintf("course [%s] not found", header.CourseCode), "failed to load course"))
	}
	instructor, err := s.instructors.FindByNameFragment(ctx, header.Instructor)
	if err != nil {
		return nil, s.abortBatch(notFoundOr(err, fmt.Sprintf("instructor [%s] not found", header.Instructor), "failed to load instructor"))
	}

	class, err := s.createHeaderClass(ctx, models.ClassOffering{
		CourseID:     course.ID,
		InstructorID: instructor.ID,
		Year:         header.Year,
		Trimester:    header.Trimester,
		Section:      header.Section,
	})
	if err != nil {
		return nil, s.abortBatch(err)
	}

	result := &dto.BatchIngestionResult{ClassID: class.ID, CourseCode: course.Code, ArchivedAs: s.archiveSource(ctx, report)}
	rowClasses := map[string]string{course.Code: class.ID}
	for _, row := range report.Rows {
		if err := s.ingestRow(ctx, row, header, instructor.ID, rowClasses); err != nil {
			appErr := appErrors.FromError(err)
			result.SkippedCount++
			result.Failures = append(result.Failures, dto.RowFailure{
				Row:       row.Line,
				StudentID: row.SID,
				Code:      appErr.Code,
				Reason:    appErr.Message,
			})
			s.logger.Warn("grade report row skipped",
				zap.Int("row", row.Line),
				zap.String("sid", row.SID),
				zap.String("code", appErr.Code),
				zap.Error(err),
			)
			if appErr.Status >= 500 {
				observability.CaptureErr(err)
			}
			continue
		}
		result.ProcessedCount++
	}

	s.metrics.RecordBatchRows(result.ProcessedCount, result.SkippedCount)
	s.logger.Info("grade report imported",
		zap.String("actor", actor.UserID),
		zap.String("class_id", class.ID),
		zap.String("course", course.Code),
		zap.Int("processed", result.ProcessedCount),
		zap.Int("skipped", result.SkippedCount),
	)
	s.invalidateReports(ctx)
	return result, nil
}

// CorrectGrade replaces the score and letter of an enrollment and recomputes its owner's progress.
func (s *IngestionService) CorrectGrade(ctx context.Context, actor models.Actor, enrollmentID string, req dto.CorrectGradeRequest) (enrollment *models.Enrollment, err error) {
	defer func() { s.recordOutcome(ModeCorrection, err) }()

	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade correction payload")
	}
	gv, err := gradeValue(req.Grade)
	if err != nil {
		return nil, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	enrollment, err = s.enrollments.FindByID(ctx, tx, enrollmentID)
	if err != nil {
		err = notFoundOr(err, "enrollment not found", "failed to load enrollment")
		return nil, err
	}
	student, err := s.students.LockByID(ctx, tx, enrollment.StudentID)
	if err != nil {
		err = notFoundOr(err, "student not found", "failed to lock student")
		return nil, err
	}

	previous := enrollment.Grade
	enrollment.ApplyGrade(req.Score, gv)
	if err = s.enrollments.UpdateGrade(ctx, tx, enrollment); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
		return nil, err
	}
	if _, err = s.progress.Recompute(ctx, tx, student); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit grade correction")
		return nil, err
	}

	s.logger.Info("grade corrected",
		zap.String("actor", actor.UserID),
		zap.String("enrollment_id", enrollment.ID),
		zap.String("sid", student.SID),
		zap.String("from", previous),
		zap.String("to", enrollment.Grade),
	)
	s.invalidateReports(ctx)
	return enrollment, nil
}

// Recalculate recomputes and stores the progress of the student with the given sid.
func (s *IngestionService) Recalculate(ctx context.Context, sid string) (record *academic.ProgressRecord, err error) {
	defer func() { s.recordOutcome(ModeRecalculate, err) }()

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	student, err := s.students.LockBySID(ctx, tx, strings.TrimSpace(sid))
	if err != nil {
		err = notFoundOr(err, "student not found", "failed to lock student")
		return nil, err
	}
	progress, err := s.progress.Recompute(ctx, tx, student)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit recalculation")
		return nil, err
	}
	return &progress, nil
}

func (s *IngestionService) ingestRow(ctx context.Context, row reportsource.Row, header reportsource.ClassHeader, instructorID string, classes map[string]string) error {
	if row.Problem != "" {
		err := appErrors.Clone(appErrors.ErrValidation, row.Problem)
		s.recordOutcome(ModeBatch, err)
		return err
	}
	code := strings.TrimSpace(row.CourseCode)
	if code == "" {
		code = header.CourseCode
	}
	result, err := s.ingest(ctx, ModeBatch, dto.GradeRecordRequest{
		StudentID:  row.SID,
		Score:      row.Score,
		Grade:      row.Grade,
		Program:    row.Program,
		GivenName:  row.GivenName,
		FamilyName: row.FamilyName,
		Batch:      row.Batch,
	}, s.rowClass(code, header, instructorID, classes))
	if err != nil {
		return err
	}
	classes[code] = result.ClassID
	return nil
}

// rowClass resolves the class of a row that may name a course other than the
// header's. A missing offering is created inside the row's unit so that it is
// rolled back with the row.
func (s *IngestionService) rowClass(code string, header reportsource.ClassHeader, instructorID string, classes map[string]string) classResolver {
	if id, ok := classes[code]; ok {
		return s.classByID(id)
	}
	return func(ctx context.Context, exec sqlx.ExtContext) (*models.Class, error) {
		course, err := s.courses.FindByCode(ctx, exec, code)
		if err != nil {
			return nil, notFoundOr(err, fmt.Sprintf("course [%s] not found", code), "failed to load course")
		}
		class, err := s.classes.EnsureOffering(ctx, exec, offeringClass(models.ClassOffering{
			CourseID:     course.ID,
			InstructorID: instructorID,
			Year:         header.Year,
			Trimester:    header.Trimester,
			Section:      header.Section,
		}))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class")
		}
		return class, nil
	}
}

func (s *IngestionService) classByID(id string) classResolver {
	return func(ctx context.Context, exec sqlx.ExtContext) (*models.Class, error) {
		class, err := s.classes.FindByID(ctx, exec, id)
		if err != nil {
			return nil, notFoundOr(err, "class not found", "failed to load class")
		}
		return class, nil
	}
}

// createHeaderClass creates the report's class in its own transaction. The
// offering must not exist yet.
func (s *IngestionService) createHeaderClass(ctx context.Context, offering models.ClassOffering) (class *models.Class, err error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, err := s.classes.FindOffering(ctx, tx, offering)
	if err == nil && existing != nil {
		err = appErrors.Clone(appErrors.ErrDuplicate, "this class already exists")
		return nil, err
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		return nil, err
	}

	class = offeringClass(offering)
	if err = s.classes.Create(ctx, tx, class); err != nil {
		if errors.Is(err, repository.ErrOfferingExists) {
			err = appErrors.Clone(appErrors.ErrDuplicate, "this class already exists")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit class")
		return nil, err
	}
	return class, nil
}

// ingest runs one unit: resolve the class and the student, reject duplicates,
// classify, persist, link and recompute, all under the student's row lock.
// A nil resolve looks the class up by req.ClassID.
func (s *IngestionService) ingest(ctx context.Context, mode string, req dto.GradeRecordRequest, resolve classResolver) (result *dto.IngestionResult, err error) {
	defer func() { s.recordOutcome(mode, err) }()

	req.StudentID = strings.TrimSpace(req.StudentID)
	req.ClassID = strings.TrimSpace(req.ClassID)
	req.Grade = strings.TrimSpace(req.Grade)
	if resolve == nil {
		err = s.validator.Struct(req)
		resolve = s.classByID(req.ClassID)
	} else {
		err = s.validator.StructExcept(req, "ClassID")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade record")
	}
	gv, err := gradeValue(req.Grade)
	if err != nil {
		return nil, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	class, err := resolve(ctx, tx)
	if err != nil {
		return nil, err
	}

	created, err := s.students.EnsureExists(ctx, tx, &models.Student{
		SID:        req.StudentID,
		GivenName:  strings.TrimSpace(req.GivenName),
		FamilyName: strings.TrimSpace(req.FamilyName),
		Batch:      strings.TrimSpace(req.Batch),
		Program:    strings.TrimSpace(req.Program),
	})
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
		return nil, err
	}
	student, err := s.students.LockBySID(ctx, tx, req.StudentID)
	if err != nil {
		err = notFoundOr(err, "student not found", "failed to lock student")
		return nil, err
	}

	taken, err := s.students.ListTaken(ctx, tx, student.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load taken courses")
		return nil, err
	}
	history := make([]academic.TakenCourse, 0, len(taken))
	for _, t := range taken {
		history = append(history, t.Taken())
	}
	if academic.IsDuplicate(academic.TakenClassSet(history), class.ID) {
		err = appErrors.Clone(appErrors.ErrDuplicate, fmt.Sprintf("student %s already holds an enrollment in this class", student.SID))
		return nil, err
	}

	curricula, err := s.curricula.ListAll(ctx, tx)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curricula")
		return nil, err
	}
	classification := academic.Classify(classificationView(curricula), student.Batch, class.CourseID)
	if len(classification.Conflicts) > 0 {
		s.metrics.RecordCurriculumConflict()
		s.logger.Warn("batch governed by several curricula",
			zap.String("batch", student.Batch),
			zap.String("curriculum_id", classification.CurriculumID),
			zap.Strings("conflicts", classification.Conflicts),
		)
	}

	enrollment := &models.Enrollment{
		StudentID: student.ID,
		ClassID:   class.ID,
		Category:  classification.Category,
	}
	enrollment.ApplyGrade(req.Score, gv)
	if err = s.enrollments.Create(ctx, tx, enrollment); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		return nil, err
	}
	if err = s.classes.AppendEnrollment(ctx, tx, class.ID, enrollment.ID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link enrollment to class")
		return nil, err
	}
	if classification.Category.Credited() {
		if err = s.students.AppendTakenCourse(ctx, tx, student.ID, enrollment.ID, classification.Category); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student history")
			return nil, err
		}
	}

	progress, err := s.progress.Recompute(ctx, tx, student)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit enrollment")
		return nil, err
	}

	return &dto.IngestionResult{
		EnrollmentID:   enrollment.ID,
		StudentID:      student.SID,
		ClassID:        class.ID,
		Category:       classification.Category,
		StudentCreated: created,
		Progress:       progress,
	}, nil
}

func (s *IngestionService) begin(ctx context.Context) (*sqlx.Tx, error) {
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	return tx, nil
}

func (s *IngestionService) abortBatch(err error) error {
	s.recordOutcome(ModeBatch, err)
	return err
}

func (s *IngestionService) recordOutcome(mode string, err error) {
	if err == nil {
		s.metrics.RecordIngestion(mode, OutcomeCommitted, "")
		return
	}
	s.metrics.RecordIngestion(mode, OutcomeAborted, appErrors.FromError(err).Code)
}

// archiveSource keeps the imported document. Failures are logged only.
func (s *IngestionService) archiveSource(ctx context.Context, report *reportsource.Report) string {
	if s.archive == nil || report.Source == nil {
		return ""
	}
	name, err := s.archive.Archive(ctx, report.Source)
	if err != nil {
		s.logger.Warn("grade report archive failed", zap.String("document", report.Source.Name), zap.Error(err))
		return ""
	}
	return name
}

func (s *IngestionService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, CohortCachePattern); err != nil {
		s.logger.Warn("failed to invalidate cohort reports", zap.Error(err))
	}
}

func gradeValue(letter string) (academic.GradeValue, error) {
	gv, err := academic.GradeToValue(letter)
	if err != nil {
		return academic.GradeValue{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown grade letter %q", letter))
	}
	return gv, nil
}

func offeringClass(offering models.ClassOffering) *models.Class {
	return &models.Class{
		CourseID:     offering.CourseID,
		InstructorID: offering.InstructorID,
		Year:         offering.Year,
		Trimester:    offering.Trimester,
		Section:      offering.Section,
	}
}

func classificationView(curricula []models.Curriculum) []academic.Curriculum {
	view := make([]academic.Curriculum, 0, len(curricula))
	for _, c := range curricula {
		view = append(view, c.Classification())
	}
	return view
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
