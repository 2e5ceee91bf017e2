// Package scheduler runs the library's periodic jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/locallibrary/internal/entities"
)

// DefaultOverdueSchedule runs the overdue scan daily at 08:00.
const DefaultOverdueSchedule = "0 8 * * *"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRunAfter returns when schedule next fires after t.
func NextRunAfter(schedule string, t time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t), nil
}

// Enqueuer hands the periodic jobs to the task queue.
type Enqueuer interface {
	EnqueueOverdueScan(day time.Time) (string, error)
	EnqueueAuditCleanup(retentionDays int) (string, error)
}

// OverdueScheduler enqueues the overdue scan and the audit cleanup on a
// cron schedule.
type OverdueScheduler struct {
	enqueuer      Enqueuer
	schedule      string
	retentionDays int
	today         func() time.Time

	cron      *cron.Cron
	mu        sync.RWMutex
	isRunning bool
	lastRun   time.Time
}

// NewOverdueScheduler creates a scheduler. An empty schedule falls back to
// DefaultOverdueSchedule.
func NewOverdueScheduler(enqueuer Enqueuer, schedule string, retentionDays int) *OverdueScheduler {
	if schedule == "" {
		schedule = DefaultOverdueSchedule
	}
	return &OverdueScheduler{
		enqueuer:      enqueuer,
		schedule:      schedule,
		retentionDays: retentionDays,
		today:         entities.Today,
		cron:          cron.New(cron.WithParser(parser)),
	}
}

// Start registers the job and starts the cron loop. It stops by itself
// when ctx is cancelled.
func (s *OverdueScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("failed to schedule overdue scan: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRunAfter(s.schedule, time.Now())
	log.Printf("Overdue scheduler: started with schedule '%s'. Next run: %v", s.schedule, next)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the cron loop.
func (s *OverdueScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	// A running job takes mu to record lastRun, so wait outside the lock.
	<-s.cron.Stop().Done()

	log.Printf("Overdue scheduler: stopped")
}

// RunNow enqueues both jobs immediately.
func (s *OverdueScheduler) RunNow() error {
	return s.enqueue()
}

// IsRunning returns whether the scheduler is active.
func (s *OverdueScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastRun returns when the jobs were last enqueued.
func (s *OverdueScheduler) LastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

func (s *OverdueScheduler) run() {
	if err := s.enqueue(); err != nil {
		log.Printf("Overdue scheduler: %v", err)
	}
}

func (s *OverdueScheduler) enqueue() error {
	day := s.today()

	scanID, err := s.enqueuer.EnqueueOverdueScan(day)
	if err != nil {
		return fmt.Errorf("enqueue overdue scan: %w", err)
	}

	cleanupID, err := s.enqueuer.EnqueueAuditCleanup(s.retentionDays)
	if err != nil {
		return fmt.Errorf("enqueue audit cleanup: %w", err)
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	log.Printf("Overdue scheduler: queued scan %s for %s and cleanup %s", scanID, day.Format("2006-01-02"), cleanupID)
	return nil
}
