package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

const queueDSNParams = "?_journal=WAL&_timeout=5000&_busy_timeout=5000"

// Client runs the overdue scan and audit prune on a backlite queue. The
// queue always lives in SQLite, even when the catalog runs on Postgres.
type Client struct {
	client  *backlite.Client
	db      *sql.DB
	config  Config
	running atomic.Bool
}

// QueueDatabasePath puts the queue next to the catalog database:
// data/library.db becomes data/library-tasks.db.
func QueueDatabasePath(catalogDBPath string) string {
	ext := filepath.Ext(catalogDBPath)
	return strings.TrimSuffix(catalogDBPath, ext) + "-tasks" + ext
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+queueDSNParams)
	if err != nil {
		return nil, err
	}
	// each worker holds a connection while it runs; the dispatcher and
	// the /tasks page need a few more
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func NewClient(catalogDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	db, err := openQueueDB(QueueDatabasePath(catalogDBPath), cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("open task queue database: %w", err)
	}

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err == nil {
		err = client.Install()
	}
	if err != nil {
		return nil, errors.Join(fmt.Errorf("set up task queue: %w", err), db.Close())
	}

	return &Client{client: client, db: db, config: cfg}, nil
}

// Register tunes each queue with the client's Config and adds it to the
// dispatcher. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.config.tune(q.Config())
		c.client.Register(q)
	}
}

// Start launches the workers and returns. Later calls do nothing.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	log.Printf("Task queue started with %d workers", c.config.Workers)
	c.client.Start(ctx)
}

// Stop waits for running scans and prunes. It reports false when ctx
// expired before they finished.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.Load() {
		return true
	}
	drained := c.client.Stop(ctx)
	if drained {
		log.Println("Task queue stopped")
	} else {
		log.Println("Task queue stopped before running tasks finished")
	}
	return drained
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// EnqueueOverdueScan schedules a scan of the loans due before day.
// A zero day scans against the date the task runs on.
func (c *Client) EnqueueOverdueScan(day time.Time) (string, error) {
	var task OverdueScanTask
	if !day.IsZero() {
		task.Day = day.Format(dayLayout)
	}
	return c.enqueue(task)
}

func (c *Client) EnqueueAuditCleanup(retentionDays int) (string, error) {
	return c.enqueue(CleanupAuditEventsTask{RetentionDays: retentionDays})
}

func (c *Client) enqueue(task backlite.Task) (string, error) {
	name := task.Config().Name
	ids, err := c.client.Add(task).Save()
	switch {
	case err != nil:
		return "", fmt.Errorf("enqueue %s: %w", name, err)
	case len(ids) == 0:
		return "", fmt.Errorf("enqueue %s: no task id returned", name)
	}
	return ids[0], nil
}

// Status backs the /tasks/:id page.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
