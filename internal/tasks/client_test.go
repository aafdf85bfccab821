package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(filepath.Join(t.TempDir(), "library-tasks.db"), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestQueuePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "library-tasks.db"), QueuePath(filepath.Join("data", "library.db")))
	assert.Equal(t, "library-tasks", QueuePath("library"))
}

func TestNewClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library-tasks.db")

	client, err := NewClient(path, DefaultConfig())
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "queue database should be created")
	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	assert.True(t, client.Stop(context.Background()), "stopping an idle client is a no-op")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx))
}

type fakePurger struct {
	mu        sync.Mutex
	retention time.Duration
	deleted   int64
	err       error
	logged    []string
	done      chan struct{}
}

func (f *fakePurger) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retention = retention
	return f.deleted, f.err
}

func (f *fakePurger) LogMaintenance(action string, _ int64, _ error) {
	f.mu.Lock()
	f.logged = append(f.logged, action)
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
}

func TestPurgeAuditEventsProcessor(t *testing.T) {
	t.Run("uses task retention", func(t *testing.T) {
		purger := &fakePurger{deleted: 4}
		err := PurgeAuditEventsProcessor(purger)(context.Background(), PurgeAuditEventsTask{RetentionDays: 30})
		require.NoError(t, err)
		assert.Equal(t, 30*24*time.Hour, purger.retention)
		assert.Equal(t, []string{"purge_audit_events"}, purger.logged)
	})

	t.Run("defaults retention", func(t *testing.T) {
		purger := &fakePurger{}
		require.NoError(t, PurgeAuditEventsProcessor(purger)(context.Background(), PurgeAuditEventsTask{}))
		assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, purger.retention)
	})

	t.Run("records failures", func(t *testing.T) {
		purger := &fakePurger{err: errors.New("disk full")}
		err := PurgeAuditEventsProcessor(purger)(context.Background(), PurgeAuditEventsTask{RetentionDays: 1})
		assert.ErrorContains(t, err, "disk full")
		assert.Len(t, purger.logged, 1)
	})

	t.Run("nil purger", func(t *testing.T) {
		assert.Error(t, PurgeAuditEventsProcessor(nil)(context.Background(), PurgeAuditEventsTask{}))
	})
}

func TestPurgeAuditEventsQueue_RunsEnqueuedTask(t *testing.T) {
	client := newTestClient(t)
	purger := &fakePurger{done: make(chan struct{})}
	client.Register(NewPurgeAuditEventsQueue(purger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(ctx, PurgeAuditEventsTask{RetentionDays: 7})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case <-purger.done:
		purger.mu.Lock()
		assert.Equal(t, 7*24*time.Hour, purger.retention)
		purger.mu.Unlock()
	case <-time.After(5 * time.Second):
		t.Fatal("purge task was not executed within timeout")
	}
}

func TestPurgeAuditEventsTaskConfig(t *testing.T) {
	cfg := PurgeAuditEventsTask{}.Config()
	assert.Equal(t, "purge_audit_events", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.Tasks{Workers: 3})
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)

	assert.Equal(t, DefaultConfig(), FromSettings(config.Tasks{}))
}

var _ backlite.Task = PurgeAuditEventsTask{}
