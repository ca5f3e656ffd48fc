// Package jobs runs background work on an in-memory worker pool with retries
// and per-job status tracking.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the buffer cannot accept another job.
var ErrQueueFull = errors.New("job queue is full")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// State reports what happened to a job.
type State struct {
	JobID     string    `json:"job_id"`
	Type      string    `json:"type"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	// HistorySize bounds how many finished job states are remembered.
	HistorySize int
	Logger      *zap.Logger
}

// Queue is a lightweight in-memory job dispatcher backed by goroutines.
type Queue struct {
	name    string
	handler Handler

	workers     int
	maxRetries  int
	retryDelay  time.Duration
	historySize int
	logger      *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool

	states  map[string]*State
	history []string
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:        name,
		handler:     handler,
		workers:     cfg.Workers,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		historySize: cfg.HistorySize,
		logger:      cfg.Logger.With(zap.String("queue", name)),
		jobs:        make(chan Job, cfg.BufferSize),
		states:      make(map[string]*State),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue pushes a job without blocking. It fails with ErrQueueFull when the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	q.setState(job, StatusQueued, nil)
	select {
	case q.jobs <- job:
		return nil
	default:
		q.setState(job, StatusFailed, ErrQueueFull)
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

// State returns the last known state of a job.
func (q *Queue) State(id string) (State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	state, ok := q.states[id]
	if !ok {
		return State{}, false
	}
	return *state, true
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.setState(job, StatusRunning, nil)
			if err := q.handler(q.ctx, job); err != nil {
				q.handleFailure(workerID, job, err)
				continue
			}
			q.setState(job, StatusSucceeded, nil)
		}
	}
}

func (q *Queue) handleFailure(workerID int, job Job, err error) {
	job.Attempt++
	fields := []zap.Field{zap.Int("worker", workerID), zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err)}
	if job.Attempt > q.maxRetries {
		q.setState(job, StatusFailed, err)
		q.logger.Error("job exceeded retries", fields...)
		return
	}
	q.setState(job, StatusQueued, err)
	q.logger.Warn("job failed, retrying", fields...)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.setState(j, StatusFailed, err)
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}

func (q *Queue) setState(job Job, status Status, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	state, ok := q.states[job.ID]
	if !ok {
		state = &State{JobID: job.ID, Type: job.Type}
		q.states[job.ID] = state
		q.history = append(q.history, job.ID)
		if len(q.history) > q.historySize {
			delete(q.states, q.history[0])
			q.history = q.history[1:]
		}
	}
	state.Status = status
	state.Attempts = job.Attempt
	if status == StatusRunning {
		state.Attempts = job.Attempt + 1
	}
	if err != nil {
		state.LastError = err.Error()
	}
	state.UpdatedAt = time.Now().UTC()
}
