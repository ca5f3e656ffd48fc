package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/academic"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/jobs"
)

// ReconcileJobType labels progress reconciliation jobs.
const ReconcileJobType = "progress_reconcile"

// Reconciliation triggers.
const (
	ReconcileTriggerManual   = "manual"
	ReconcileTriggerSchedule = "schedule"
)

type sidLister interface {
	ListSIDs(ctx context.Context) ([]string, error)
}

type progressRecalculator interface {
	Recalculate(ctx context.Context, sid string) (*academic.ProgressRecord, error)
}

// ReconcileConfig configures the reconciliation schedule and worker pool.
type ReconcileConfig struct {
	// Schedule is a five-field cron expression. Empty disables scheduled runs.
	Schedule string
	Workers  int
	Retries  int
}

// ReconcileService periodically recomputes every student's progress so that
// stored records converge with their enrollments.
type ReconcileService struct {
	students sidLister
	recalc   progressRecalculator
	metrics  *MetricsService
	logger   *zap.Logger
	queue    *jobs.Queue
	cron     *cron.Cron
	schedule string
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(students sidLister, recalc progressRecalculator, metrics *MetricsService, logger *zap.Logger, cfg ReconcileConfig) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReconcileService{
		students: students,
		recalc:   recalc,
		metrics:  metrics,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: cfg.Schedule,
	}
	s.queue = jobs.NewQueue("reconcile", s.run, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: 2,
		MaxRetries: cfg.Retries,
		RetryDelay: 30 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the cron schedule.
func (s *ReconcileService) Start(ctx context.Context) error {
	s.queue.Start(ctx)
	if s.schedule == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Enqueue(ReconcileTriggerSchedule); err != nil {
			s.logger.Warn("scheduled reconciliation skipped", zap.Error(err))
		}
	}); err != nil {
		s.queue.Stop()
		return fmt.Errorf("invalid reconcile schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("reconciliation scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts scheduling and waits for running jobs.
func (s *ReconcileService) Stop() {
	<-s.cron.Stop().Done()
	s.queue.Stop()
}

// Enqueue queues a reconciliation run and returns its job ID.
func (s *ReconcileService) Enqueue(trigger string) (string, error) {
	id := uuid.NewString()
	if err := s.queue.Enqueue(jobs.Job{ID: id, Type: ReconcileJobType, Payload: trigger}); err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return "", appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, "a reconciliation run is already pending")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue reconciliation")
	}
	s.logger.Info("reconciliation enqueued", zap.String("job_id", id), zap.String("trigger", trigger))
	return id, nil
}

// Status reports the state of a reconciliation job.
func (s *ReconcileService) Status(id string) (jobs.State, error) {
	state, ok := s.queue.State(id)
	if !ok {
		return jobs.State{}, appErrors.Clone(appErrors.ErrNotFound, "reconciliation job not found")
	}
	return state, nil
}

func (s *ReconcileService) run(ctx context.Context, job jobs.Job) error {
	start := time.Now()
	sids, err := s.students.ListSIDs(ctx)
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}

	succeeded, failed := 0, 0
	for _, sid := range sids {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.recalc.Recalculate(ctx, sid); err != nil {
			failed++
			s.logger.Warn("student reconciliation failed", zap.String("job_id", job.ID), zap.String("sid", sid), zap.Error(err))
			continue
		}
		succeeded++
	}

	s.metrics.RecordReconcile(succeeded, failed)
	s.logger.Info("reconciliation finished",
		zap.String("job_id", job.ID),
		zap.Int("students", len(sids)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)
	return ctx.Err()
}
