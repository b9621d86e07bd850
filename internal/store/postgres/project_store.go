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

// ProjectStore implements store.ProjectStore using PostgreSQL.
type ProjectStore struct {
	pool *pgxpool.Pool
}

// NewProjectStore creates a new PostgreSQL-backed project store.
func NewProjectStore(pool *pgxpool.Pool) *ProjectStore {
	return &ProjectStore{
		pool: pool,
	}
}

const projectColumns = `project_id, org_id, client_id, name, description, start_date, end_date, status, completed_at, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ProjectID,
		&p.OrgID,
		&p.ClientID,
		&p.Name,
		&p.Description,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
		&p.CompletedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a new project in the database.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		project.ProjectID,
		project.OrgID,
		project.ClientID,
		project.Name,
		project.Description,
		project.StartDate,
		project.EndDate,
		project.Status,
		project.CompletedAt,
		project.CreatedAt,
		project.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create project: %w", mapPostgresError(err))
	}

	return nil
}

// Get retrieves a project by ID.
func (s *ProjectStore) Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE project_id = $1`

	project, err := scanProject(s.pool.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", mapPostgresError(err))
	}

	return project, nil
}

// Update updates an existing project.
func (s *ProjectStore) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now()

	query := `
		UPDATE projects SET
			client_id = $2,
			name = $3,
			description = $4,
			start_date = $5,
			end_date = $6,
			status = $7,
			completed_at = $8,
			updated_at = $9
		WHERE project_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		project.ProjectID,
		project.ClientID,
		project.Name,
		project.Description,
		project.StartDate,
		project.EndDate,
		project.Status,
		project.CompletedAt,
		project.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update project: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// Delete removes a project.
func (s *ProjectStore) Delete(ctx context.Context, projectID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE project_id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListByOrg lists the projects of one organization, newest-first.
func (s *ProjectStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE org_id = $1
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, orgID)
}

// ListByClient lists the projects attached to one client, newest-first.
func (s *ProjectStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE client_id = $1
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, clientID)
}

func (s *ProjectStore) list(ctx context.Context, query string, arg any) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}
