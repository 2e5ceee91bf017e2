package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/locallibrary/internal/entities"
)

const dayLayout = "2006-01-02"

// OverdueFinder lists the copies still on loan past their due date.
type OverdueFinder interface {
	FindOverdue(day time.Time) ([]entities.BookInstance, error)
}

// OverdueRecorder writes one audit event per overdue copy.
type OverdueRecorder interface {
	LogOverdue(instance entities.BookInstance, daysOverdue int) error
	WasOverdueLoggedSince(instanceID uuid.UUID, since time.Time) (bool, error)
}

// OverdueScanTask finds every loan due before Day and records it.
// An empty Day means the date the task runs.
type OverdueScanTask struct {
	Day string `json:"day,omitempty"`
}

// Config returns the queue configuration for overdue scans.
func (t OverdueScanTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_scan",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ScanResult summarises one overdue scan.
type ScanResult struct {
	Overdue  int
	Recorded int
	Skipped  int
}

// ScanOverdue records every copy overdue on day. Copies already recorded on
// the same day are skipped, so running the scan twice is harmless.
func ScanOverdue(ctx context.Context, finder OverdueFinder, recorder OverdueRecorder, day time.Time) (ScanResult, error) {
	day = entities.DateOnly(day)

	overdue, err := finder.FindOverdue(day)
	if err != nil {
		return ScanResult{}, fmt.Errorf("find overdue loans: %w", err)
	}

	result := ScanResult{Overdue: len(overdue)}
	for _, instance := range overdue {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		logged, err := recorder.WasOverdueLoggedSince(instance.ID, day)
		if err != nil {
			return result, fmt.Errorf("check overdue event for %s: %w", instance.ID, err)
		}
		if logged {
			result.Skipped++
			continue
		}

		if err := recorder.LogOverdue(instance, daysOverdue(instance, day)); err != nil {
			return result, fmt.Errorf("record overdue %s: %w", instance.ID, err)
		}
		result.Recorded++
	}

	return result, nil
}

func daysOverdue(instance entities.BookInstance, day time.Time) int {
	if instance.DueBack == nil {
		return 0
	}
	return int(day.Sub(entities.DateOnly(*instance.DueBack)).Hours() / 24)
}

// OverdueScanProcessor creates a processor function for OverdueScanTask.
func OverdueScanProcessor(finder OverdueFinder, recorder OverdueRecorder) backlite.QueueProcessor[OverdueScanTask] {
	return func(ctx context.Context, task OverdueScanTask) error {
		if finder == nil || recorder == nil {
			return fmt.Errorf("overdue scan not configured")
		}

		day := entities.Today()
		if task.Day != "" {
			parsed, err := time.Parse(dayLayout, task.Day)
			if err != nil {
				return fmt.Errorf("invalid scan day %q: %w", task.Day, err)
			}
			day = parsed
		}

		result, err := ScanOverdue(ctx, finder, recorder, day)
		if err != nil {
			return err
		}

		log.Printf("[TASK] Overdue scan for %s: %d overdue, %d recorded, %d already recorded",
			day.Format(dayLayout), result.Overdue, result.Recorded, result.Skipped)
		return nil
	}
}

// NewOverdueScanQueue creates a backlite queue for overdue scans.
func NewOverdueScanQueue(finder OverdueFinder, recorder OverdueRecorder) backlite.Queue {
	return backlite.NewQueue(OverdueScanProcessor(finder, recorder))
}
