package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/tasks"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, task)
	return "task-1", nil
}

func (q *fakeQueue) enqueued() []backlite.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]backlite.Task(nil), q.tasks...)
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("30 3 * * *"))
	assert.NoError(t, ValidateSchedule("@daily"))
	assert.Error(t, ValidateSchedule(""))
	assert.Error(t, ValidateSchedule("every night"))
	assert.Error(t, ValidateSchedule("0 30 3 * * *"), "seconds field is not accepted")
}

func TestScheduler_Add(t *testing.T) {
	s := New()
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add(Job{Name: "a", Schedule: "@hourly", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "a", Schedule: "@hourly", Run: noop}), "duplicate name")
	assert.Error(t, s.Add(Job{Name: "b", Schedule: "bogus", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "c", Schedule: "@hourly"}))
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New()
	ran := make(chan struct{}, 4)
	require.NoError(t, s.Add(Job{
		Name:     "tick",
		Schedule: "@every 1s",
		Run: func(ctx context.Context) error {
			ran <- struct{}{}
			return errors.New("failures are logged, not fatal")
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	assert.False(t, s.NextRun("tick").IsZero())
	assert.True(t, s.NextRun("missing").IsZero())

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestScheduler_StopsWithContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.isRunning
	}, time.Second, 10*time.Millisecond)

	s.Stop()
}

func TestAuditRetentionJob(t *testing.T) {
	queue := &fakeQueue{}
	job := AuditRetentionJob(queue, config.Audit{RetentionDays: 30, CleanupSchedule: "30 3 * * *"})

	assert.Equal(t, "30 3 * * *", job.Schedule)
	require.NoError(t, job.Run(context.Background()))
	require.Len(t, queue.enqueued(), 1)
	assert.Equal(t, tasks.PurgeAuditEventsTask{RetentionDays: 30}, queue.enqueued()[0])

	queue.err = errors.New("queue closed")
	assert.Error(t, job.Run(context.Background()))
}
