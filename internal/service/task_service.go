package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// CreateTaskCmd carries the validated fields for a new task.
type CreateTaskCmd struct {
	ProjectID  *uuid.UUID
	AssigneeID *uuid.UUID
	Title      string `validate:"required,min=1,max=255"`
	Notes      string `validate:"max=10000"`
	DueDate    *time.Time
	DueTime    string              `validate:"omitempty,timeofday"`
	Priority   models.TaskPriority `validate:"omitempty,oneof=low medium high"`
}

// UpdateTaskCmd patches mutable task fields; nil means untouched.
type UpdateTaskCmd struct {
	ProjectID  *uuid.UUID
	AssigneeID *uuid.UUID
	Title      *string `validate:"omitempty,min=1,max=255"`
	Notes      *string `validate:"omitempty,max=10000"`
	DueDate    *time.Time
	DueTime    *string              `validate:"omitempty,timeofday"`
	Priority   *models.TaskPriority `validate:"omitempty,oneof=low medium high"`
}

// TaskFilter narrows ListTasks: project, then assignee, then status, then
// tenant-wide.
type TaskFilter struct {
	ProjectID  *uuid.UUID
	AssigneeID *uuid.UUID
	Status     *models.TaskStatus
}

// CreateTask inserts a todo task. An assignee must be a member of the tenant.
func (s *Service) CreateTask(ctx context.Context, tc tenant.Context, cmd CreateTaskCmd) (*models.Task, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}
	if cmd.ProjectID != nil {
		if _, err := s.projectInTenant(ctx, tc, *cmd.ProjectID); err != nil {
			return nil, err
		}
	}
	if cmd.AssigneeID != nil {
		if _, err := s.memberOfTenant(ctx, tc, *cmd.AssigneeID); err != nil {
			return nil, err
		}
	}

	priority := cmd.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	now := time.Now()
	task := &models.Task{
		TaskID:     uuid.Must(uuid.NewV7()),
		OrgID:      tc.OrgID,
		ProjectID:  cmd.ProjectID,
		AssigneeID: cmd.AssigneeID,
		Title:      cmd.Title,
		Notes:      cmd.Notes,
		DueDate:    cmd.DueDate,
		DueTime:    cmd.DueTime,
		Status:     models.TaskStatusTodo,
		Priority:   priority,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.stores.Tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if err := s.indexes.Tasks.Insert(task); err != nil {
		return nil, fmt.Errorf("failed to index task: %w", err)
	}

	err := s.recordActivity(ctx, tc, "task_created",
		models.EntityRef{Type: models.EntityTypeTask, ID: task.TaskID},
		fmt.Sprintf("Created task %q", task.Title), nil)
	if err != nil {
		return nil, err
	}

	return task, nil
}

// GetTask returns one task after the ownership check.
func (s *Service) GetTask(ctx context.Context, tc tenant.Context, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.stores.Tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := tc.AssertOwns(task.OrgID); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask applies a field-level patch.
func (s *Service) UpdateTask(ctx context.Context, tc tenant.Context, taskID uuid.UUID, cmd UpdateTaskCmd) (*models.Task, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}

	task, err := s.GetTask(ctx, tc, taskID)
	if err != nil {
		return nil, err
	}
	before := *task

	if cmd.ProjectID != nil {
		if _, err := s.projectInTenant(ctx, tc, *cmd.ProjectID); err != nil {
			return nil, err
		}
		task.ProjectID = cmd.ProjectID
	}
	if cmd.AssigneeID != nil {
		if _, err := s.memberOfTenant(ctx, tc, *cmd.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = cmd.AssigneeID
	}
	if cmd.Title != nil {
		task.Title = *cmd.Title
	}
	if cmd.Notes != nil {
		task.Notes = *cmd.Notes
	}
	if cmd.DueDate != nil {
		task.DueDate = cmd.DueDate
	}
	if cmd.DueTime != nil {
		task.DueTime = *cmd.DueTime
	}
	if cmd.Priority != nil {
		task.Priority = *cmd.Priority
	}

	if err := s.stores.Tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := s.indexes.Tasks.Replace(&before, task); err != nil {
		return nil, fmt.Errorf("failed to reindex task: %w", err)
	}

	err = s.recordActivity(ctx, tc, "task_updated",
		models.EntityRef{Type: models.EntityTypeTask, ID: task.TaskID},
		fmt.Sprintf("Updated task %q", task.Title), nil)
	if err != nil {
		return nil, err
	}

	return task, nil
}

// TransitionTask moves a task along todo <-> in_progress -> done. Completing
// stamps CompletedAt; leaving done clears it.
func (s *Service) TransitionTask(ctx context.Context, tc tenant.Context, taskID uuid.UUID, target models.TaskStatus) (*models.Task, error) {
	if !models.ValidTaskStatus(target) {
		return nil, &ValidationError{Field: "Status", Reason: "unknown task status"}
	}

	task, err := s.GetTask(ctx, tc, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status == target {
		return task, nil
	}
	if !taskTransitionAllowed(task.Status, target) {
		return nil, fmt.Errorf("task %s -> %s: %w", task.Status, target, ErrIllegalTransition)
	}

	before := *task
	stampTaskTransition(task, target, time.Now())

	if err := s.stores.Tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := s.indexes.Tasks.Replace(&before, task); err != nil {
		return nil, fmt.Errorf("failed to reindex task: %w", err)
	}

	err = s.recordActivity(ctx, tc, "task_"+string(target),
		models.EntityRef{Type: models.EntityTypeTask, ID: task.TaskID},
		fmt.Sprintf("Task %q is now %s", task.Title, target), nil)
	if err != nil {
		return nil, err
	}

	return task, nil
}

// DeleteTask removes a task and its aggregate entry. Tasks have no dependent
// records.
func (s *Service) DeleteTask(ctx context.Context, tc tenant.Context, taskID uuid.UUID) error {
	task, err := s.GetTask(ctx, tc, taskID)
	if err != nil {
		return err
	}

	if err := s.stores.Tasks.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if err := s.indexes.Tasks.Delete(task); err != nil {
		return fmt.Errorf("failed to deindex task: %w", err)
	}

	return s.recordActivity(ctx, tc, "task_deleted",
		models.EntityRef{Type: models.EntityTypeTask, ID: taskID},
		fmt.Sprintf("Deleted task %q", task.Title), nil)
}

// ListTasks returns the tenant's tasks narrowed by the most selective
// available index, sorted by due date ascending with undated tasks last.
func (s *Service) ListTasks(ctx context.Context, tc tenant.Context, filter TaskFilter) ([]*models.Task, error) {
	var (
		tasks []*models.Task
		err   error
	)

	switch {
	case filter.ProjectID != nil:
		if _, err := s.projectInTenant(ctx, tc, *filter.ProjectID); err != nil {
			return nil, err
		}
		tasks, err = s.stores.Tasks.ListByProject(ctx, *filter.ProjectID)
	case filter.AssigneeID != nil:
		tasks, err = s.stores.Tasks.ListByAssignee(ctx, tc.OrgID, *filter.AssigneeID)
	case filter.Status != nil:
		tasks, err = s.stores.Tasks.ListByOrgAndStatus(ctx, tc.OrgID, *filter.Status)
	default:
		tasks, err = s.stores.Tasks.ListByOrg(ctx, tc.OrgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	out := tasks[:0]
	for _, t := range tasks {
		if t.OrgID != tc.OrgID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		switch {
		case a == nil && b == nil:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return out, nil
}
