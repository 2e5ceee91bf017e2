package tasks

import (
	"time"

	"github.com/mikestefanello/backlite"
)

// Config tunes the queue behind the daily overdue scan and the audit log
// prune. Both jobs are short and safe to repeat, so one worker and a few
// retries are enough. Zero fields take the DefaultConfig value.
type Config struct {
	Workers int

	// MaxRetries counts attempts after the first failure.
	MaxRetries int
	RetryDelay time.Duration

	// TaskTimeout bounds a single scan or prune.
	TaskTimeout time.Duration

	// ReleaseAfter returns a task claimed by a crashed worker to the queue.
	ReleaseAfter time.Duration

	CleanupInterval time.Duration

	// RetentionDuration is how long finished tasks stay visible on /tasks.
	RetentionDuration time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:           1,
		MaxRetries:        2,
		RetryDelay:        2 * time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      10 * time.Minute,
		CleanupInterval:   6 * time.Hour,
		RetentionDuration: 7 * 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = d.TaskTimeout
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = d.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.RetentionDuration <= 0 {
		c.RetentionDuration = d.RetentionDuration
	}
	return c
}

// tune applies the retry, timeout and retention settings to a registered
// queue. The queue keeps its name and payload retention policy.
func (c Config) tune(q *backlite.QueueConfig) {
	q.MaxAttempts = c.MaxRetries + 1
	q.Backoff = c.RetryDelay
	q.Timeout = c.TaskTimeout
	if q.Retention != nil {
		q.Retention.Duration = c.RetentionDuration
	}
}
