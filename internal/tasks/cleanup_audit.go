package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// AuditEventCleaner deletes audit log rows older than a retention window.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

const DefaultAuditRetentionDays = 90

var errNoAuditCleaner = errors.New("audit log prune has no cleaner")

// CleanupAuditEventsTask prunes the audit log of renewals, returns, overdue
// notices and catalog edits older than RetentionDays.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupAuditEventsTask) days() int {
	if t.RetentionDays <= 0 {
		return DefaultAuditRetentionDays
	}
	return t.RetentionDays
}

func (t CleanupAuditEventsTask) retention() time.Duration {
	return time.Duration(t.days()) * 24 * time.Hour
}

// Config keeps failed prunes with their payload for a day so /tasks can
// show what went wrong. Client.Register may override the timings.
func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneAuditLog removes the events the task no longer retains and reports
// how many rows went.
func PruneAuditLog(ctx context.Context, cleaner AuditEventCleaner, task CleanupAuditEventsTask) (int64, error) {
	if cleaner == nil {
		return 0, errNoAuditCleaner
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return cleaner.DeleteOldEvents(task.retention())
}

func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		pruned, err := PruneAuditLog(ctx, cleaner, task)
		if err != nil {
			return fmt.Errorf("prune audit log: %w", err)
		}
		if pruned > 0 {
			log.Printf("[TASK] Pruned %d audit events past %d days", pruned, task.days())
		}
		return nil
	}
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}
