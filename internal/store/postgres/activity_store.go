package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/centriq-hq/centriq/internal/models"
)

// ActivityStore implements store.ActivityStore using PostgreSQL. The table is
// append-only: no update or delete statement exists in this file.
type ActivityStore struct {
	pool *pgxpool.Pool
}

// NewActivityStore creates a new PostgreSQL-backed activity store.
func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{
		pool: pool,
	}
}

const activityColumns = `activity_id, org_id, user_id, activity_type, entity_type, entity_id, description, metadata, created_at`

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var (
		a        models.Activity
		metadata []byte
	)

	err := row.Scan(
		&a.ActivityID,
		&a.OrgID,
		&a.UserID,
		&a.ActivityType,
		&a.EntityType,
		&a.EntityID,
		&a.Description,
		&metadata,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if metadata != nil {
		if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode activity metadata: %w", err)
		}
	}

	return &a, nil
}

// Append inserts one immutable activity row.
func (s *ActivityStore) Append(ctx context.Context, activity *models.Activity) error {
	var metadata []byte
	if activity.Metadata != nil {
		var err error
		metadata, err = json.Marshal(activity.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode activity metadata: %w", err)
		}
	}

	query := `
		INSERT INTO activities (` + activityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		activity.ActivityID,
		activity.OrgID,
		activity.UserID,
		activity.ActivityType,
		activity.EntityType,
		activity.EntityID,
		activity.Description,
		metadata,
		activity.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append activity: %w", mapPostgresError(err))
	}

	return nil
}

// ListByOrg returns activities for the tenant within the optional time range,
// newest-first, at most limit rows (0 means no limit).
func (s *ActivityStore) ListByOrg(ctx context.Context, orgID uuid.UUID, from, to *time.Time, limit int) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE org_id = $1`
	args := []any{orgID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return s.list(ctx, query, args...)
}

// ListByEntity returns the history of one record, newest-first.
func (s *ActivityStore) ListByEntity(ctx context.Context, orgID uuid.UUID, entityType string, entityID uuid.UUID, limit int) ([]*models.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE org_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC
	`
	args := []any{orgID, entityType, entityID}

	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return s.list(ctx, query, args...)
}

func (s *ActivityStore) list(ctx context.Context, query string, args ...any) ([]*models.Activity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}
