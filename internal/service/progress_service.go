package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/academic"
	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type progressStudentStore interface {
	FindBySID(ctx context.Context, sid string) (*models.Student, error)
	ListTaken(ctx context.Context, exec sqlx.ExtContext, studentID string) ([]models.TakenEnrollment, error)
	UpdateProgress(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
}

// ProgressService recomputes and reads stored academic progress.
type ProgressService struct {
	students progressStudentStore
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewProgressService constructs a ProgressService.
func NewProgressService(students progressStudentStore, metrics *MetricsService, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{students: students, metrics: metrics, logger: logger, now: time.Now}
}

// Recompute rebuilds the student's progress from every bucketed enrollment and stores it.
// The caller owns the transaction and must already hold the student's row lock.
func (s *ProgressService) Recompute(ctx context.Context, exec sqlx.ExtContext, student *models.Student) (academic.ProgressRecord, error) {
	start := s.now()
	taken, err := s.students.ListTaken(ctx, exec, student.ID)
	if err != nil {
		return academic.ProgressRecord{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load taken courses")
	}

	var core, required, elective []academic.TakenCourse
	for _, t := range taken {
		switch t.Category {
		case academic.CategoryCore:
			core = append(core, t.Taken())
		case academic.CategoryRequired:
			required = append(required, t.Taken())
		case academic.CategoryElective:
			elective = append(elective, t.Taken())
		}
	}
	record := academic.Recompute(core, required, elective)

	student.ApplyProgress(record, s.now().UTC())
	if err := s.students.UpdateProgress(ctx, exec, student); err != nil {
		return academic.ProgressRecord{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store progress")
	}
	s.metrics.ObserveRecompute(s.now().Sub(start))
	return student.Progress(), nil
}

// Get returns the stored progress and bucketed history of a student.
func (s *ProgressService) Get(ctx context.Context, sid string) (*dto.StudentProgress, error) {
	student, err := s.students.FindBySID(ctx, sid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	taken, err := s.students.ListTaken(ctx, nil, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load taken courses")
	}
	view := dto.NewStudentProgress(*student, taken)
	return &view, nil
}
