package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/locallibrary/internal/forms"
)

// TasksController lets librarians trigger the background jobs by hand.
type TasksController struct {
	queue         TaskQueue
	retentionDays int
}

func NewTasksController(queue TaskQueue, retentionDays int) *TasksController {
	return &TasksController{queue: queue, retentionDays: retentionDays}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

var taskTypes = []TaskTypeInfo{
	{Type: "overdue_scan", Description: "Record an audit event for every loan past its due date"},
	{Type: "cleanup_audit_events", Description: "Delete audit events older than the retention period"},
}

// ListTaskTypes returns the task types that can be triggered.
// GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": taskTypes})
}

// GetTaskStatus returns the status of a specific task.
// GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, c.Param("id"))
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     c.Param("id"),
		"status": taskStatusToString(status),
	})
}

// RunTask enqueues a task of the given type. overdue_scan accepts an
// optional "day" form or query value (YYYY-MM-DD).
// POST /api/tasks/:id/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("id")

	var (
		id  string
		err error
	)
	switch taskType {
	case "overdue_scan":
		var day time.Time
		if raw := c.Request.FormValue("day"); raw != "" {
			if day, err = time.Parse(forms.DateLayout, raw); err != nil {
				respondBadRequest(c, "day must be formatted as YYYY-MM-DD")
				return
			}
		}
		id, err = tc.queue.EnqueueOverdueScan(day)
	case "cleanup_audit_events":
		id, err = tc.queue.EnqueueAuditCleanup(tc.retentionDays)
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
