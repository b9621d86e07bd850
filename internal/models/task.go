package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the stored status of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// ValidTaskStatus reports whether s is one of the stored task statuses.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority orders tasks within a day.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// ValidTaskPriority reports whether p is a known priority.
func ValidTaskPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work, optionally attached to a project and assigned to a
// member. DueTime is a "HH:MM" wall-clock string validated on input.
// CompletedAt is stamped by the lifecycle transition.
type Task struct {
	TaskID      uuid.UUID // UUIDv7
	OrgID       uuid.UUID
	ProjectID   *uuid.UUID
	AssigneeID  *uuid.UUID
	Title       string
	Notes       string
	DueDate     *time.Time
	DueTime     string
	Status      TaskStatus
	Priority    TaskPriority
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
