package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

// TaskStore implements store.TaskStore using PostgreSQL.
type TaskStore struct {
	pool *pgxpool.Pool
}

// NewTaskStore creates a new PostgreSQL-backed task store.
func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{
		pool: pool,
	}
}

const taskColumns = `task_id, org_id, project_id, assignee_id, title, notes, due_date, due_time, status, priority, completed_at, created_at, updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.TaskID,
		&t.OrgID,
		&t.ProjectID,
		&t.AssigneeID,
		&t.Title,
		&t.Notes,
		&t.DueDate,
		&t.DueTime,
		&t.Status,
		&t.Priority,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create creates a new task in the database.
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		task.TaskID,
		task.OrgID,
		task.ProjectID,
		task.AssigneeID,
		task.Title,
		task.Notes,
		task.DueDate,
		task.DueTime,
		task.Status,
		task.Priority,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create task: %w", mapPostgresError(err))
	}

	return nil
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE task_id = $1`

	task, err := scanTask(s.pool.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", mapPostgresError(err))
	}

	return task, nil
}

// Update updates an existing task.
func (s *TaskStore) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now()

	query := `
		UPDATE tasks SET
			project_id = $2,
			assignee_id = $3,
			title = $4,
			notes = $5,
			due_date = $6,
			due_time = $7,
			status = $8,
			priority = $9,
			completed_at = $10,
			updated_at = $11
		WHERE task_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		task.TaskID,
		task.ProjectID,
		task.AssigneeID,
		task.Title,
		task.Notes,
		task.DueDate,
		task.DueTime,
		task.Status,
		task.Priority,
		task.CompletedAt,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update task: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, taskID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE task_id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListByOrg lists the tasks of one organization.
func (s *TaskStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE org_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, orgID)
}

// ListByProject lists the tasks attached to one project.
func (s *TaskStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, projectID)
}

// ListByAssignee lists the tasks assigned to one member of an organization.
func (s *TaskStore) ListByAssignee(ctx context.Context, orgID, assigneeID uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE org_id = $1 AND assignee_id = $2 ORDER BY created_at DESC`
	return s.list(ctx, query, orgID, assigneeID)
}

// ListByOrgAndStatus lists one organization's tasks with the given status.
func (s *TaskStore) ListByOrgAndStatus(ctx context.Context, orgID uuid.UUID, status models.TaskStatus) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE org_id = $1 AND status = $2 ORDER BY created_at DESC`
	return s.list(ctx, query, orgID, status)
}

// ListPage walks all tasks across organizations in id order for the
// aggregate backfill.
func (s *TaskStore) ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE task_id > $1
		ORDER BY task_id
		LIMIT $2
	`
	return s.list(ctx, query, afterID, limit)
}

func (s *TaskStore) list(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}
