package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, q *Queue, id string, want Status) State {
	t.Helper()
	var state State
	require.Eventually(t, func() bool {
		var ok bool
		state, ok = q.State(id)
		return ok && state.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return state
}

func TestQueueRunsJob(t *testing.T) {
	var runs int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "reconcile"}))
	state := waitForStatus(t, q, "job-1", StatusSucceeded)
	assert.Equal(t, 1, state.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestQueueRetriesThenFails(t *testing.T) {
	var runs int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-2"}))
	state := waitForStatus(t, q, "job-2", StatusFailed)
	assert.Equal(t, "boom", state.LastError)
	assert.Equal(t, 2, state.Attempts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestQueueRejectsWhenNotStarted(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
}

func TestQueueRejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(release)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	waitForStatus(t, q, "a", StatusRunning)
	require.NoError(t, q.Enqueue(Job{ID: "b"}))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "c"}), ErrQueueFull)
}

func TestQueueForgetsOldStates(t *testing.T) {
	q := NewQueue("history", func(ctx context.Context, job Job) error { return nil }, QueueConfig{HistorySize: 1})
	q.setState(Job{ID: "old"}, StatusSucceeded, nil)
	q.setState(Job{ID: "new"}, StatusSucceeded, nil)

	_, ok := q.State("old")
	assert.False(t, ok)
	_, ok = q.State("new")
	assert.True(t, ok)
}
