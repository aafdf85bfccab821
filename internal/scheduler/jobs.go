package scheduler

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/tasks"
)

// Enqueuer hands a task to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// AuditRetentionJob enqueues a purge of audit events past the retention period.
func AuditRetentionJob(queue Enqueuer, cfg config.Audit) Job {
	return Job{
		Name:     "audit_retention",
		Schedule: cfg.CleanupSchedule,
		Run: func(ctx context.Context) error {
			_, err := queue.Enqueue(ctx, tasks.PurgeAuditEventsTask{RetentionDays: cfg.RetentionDays})
			return err
		},
	}
}
