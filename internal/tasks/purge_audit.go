package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DefaultAuditRetentionDays applies when a purge task carries no retention.
const DefaultAuditRetentionDays = 90

// AuditPurger deletes old audit events and records that it did so.
type AuditPurger interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
	LogMaintenance(action string, affected int64, err error)
}

// PurgeAuditEventsTask removes audit events older than RetentionDays.
type PurgeAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t PurgeAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PurgeAuditEventsProcessor returns the processor for PurgeAuditEventsTask.
func PurgeAuditEventsProcessor(purger AuditPurger) backlite.QueueProcessor[PurgeAuditEventsTask] {
	return func(ctx context.Context, task PurgeAuditEventsTask) error {
		if purger == nil {
			return errors.New("audit purger not configured")
		}

		days := task.RetentionDays
		if days <= 0 {
			days = DefaultAuditRetentionDays
		}

		deleted, err := purger.DeleteOldEvents(time.Duration(days) * 24 * time.Hour)
		purger.LogMaintenance("purge_audit_events", deleted, err)
		if err != nil {
			return fmt.Errorf("purge audit events: %w", err)
		}

		log.Printf("[TASK] Purged %d audit events older than %d days", deleted, days)
		return nil
	}
}

func NewPurgeAuditEventsQueue(purger AuditPurger) backlite.Queue {
	return backlite.NewQueue(PurgeAuditEventsProcessor(purger))
}
