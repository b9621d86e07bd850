package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

// TaskStore implements store.TaskStore using in-memory storage.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*models.Task
}

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[uuid.UUID]*models.Task),
	}
}

func cloneTask(t *models.Task) *models.Task {
	clone := *t
	clone.ProjectID = cloneUUID(t.ProjectID)
	clone.AssigneeID = cloneUUID(t.AssigneeID)
	clone.DueDate = cloneTime(t.DueDate)
	clone.CompletedAt = cloneTime(t.CompletedAt)
	return &clone
}

// Create creates a new task.
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.TaskID]; exists {
		return store.ErrAlreadyExists
	}

	s.tasks[task.TaskID] = cloneTask(task)
	return nil
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, store.ErrNotFound
	}

	return cloneTask(task), nil
}

// Update updates an existing task.
func (s *TaskStore) Update(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.TaskID]; !exists {
		return store.ErrNotFound
	}

	task.UpdatedAt = time.Now()
	s.tasks[task.TaskID] = cloneTask(task)
	return nil
}

// Delete deletes a task by ID.
func (s *TaskStore) Delete(ctx context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return store.ErrNotFound
	}

	delete(s.tasks, taskID)
	return nil
}

func (s *TaskStore) list(match func(*models.Task) bool) []*models.Task {
	var out []*models.Task
	for _, t := range s.tasks {
		if match(t) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ListByOrg returns the organization's tasks.
func (s *TaskStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(t *models.Task) bool { return t.OrgID == orgID }), nil
}

// ListByProject returns the tasks attached to one project.
func (s *TaskStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(t *models.Task) bool { return t.ProjectID != nil && *t.ProjectID == projectID }), nil
}

// ListByAssignee returns the tasks assigned to one member of an organization.
func (s *TaskStore) ListByAssignee(ctx context.Context, orgID, assigneeID uuid.UUID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(t *models.Task) bool {
		return t.OrgID == orgID && t.AssigneeID != nil && *t.AssigneeID == assigneeID
	}), nil
}

// ListByOrgAndStatus returns the organization's tasks in one stored status.
func (s *TaskStore) ListByOrgAndStatus(ctx context.Context, orgID uuid.UUID, status models.TaskStatus) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(t *models.Task) bool { return t.OrgID == orgID && t.Status == status }), nil
}

// ListPage walks all tasks in id order for the aggregate backfill.
func (s *TaskStore) ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Task
	for _, t := range s.tasks {
		if bytes.Compare(t.TaskID[:], afterID[:]) > 0 {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].TaskID[:], out[j].TaskID[:]) < 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
