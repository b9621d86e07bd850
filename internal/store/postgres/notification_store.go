package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

// NotificationStore implements store.NotificationStore using PostgreSQL.
// Attachment rows ride in the same transaction as their notification and are
// removed with it through ON DELETE CASCADE.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// NewNotificationStore creates a new PostgreSQL-backed notification store.
func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{
		pool: pool,
	}
}

const notificationColumns = `notification_id, org_id, user_id, author_id, type, message, entity_type, entity_id, is_read, priority, created_at`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var (
		n        models.Notification
		authorID *uuid.UUID
	)

	err := row.Scan(
		&n.NotificationID,
		&n.OrgID,
		&n.UserID,
		&authorID,
		&n.Type,
		&n.Message,
		&n.EntityType,
		&n.EntityID,
		&n.IsRead,
		&n.Priority,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Rows from before the author column carry NULL here; the author then
	// only lives in the legacy message prefix.
	if authorID != nil {
		n.AuthorID = *authorID
	}

	return &n, nil
}

// CreateWithAttachments inserts the notification and its attachment rows in
// one transaction; either all rows land or none do.
func (s *NotificationStore) CreateWithAttachments(ctx context.Context, n *models.Notification, attachments []*models.Attachment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	var authorID *uuid.UUID
	if n.AuthorID != uuid.Nil {
		authorID = &n.AuthorID
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.Exec(ctx, query,
		n.NotificationID,
		n.OrgID,
		n.UserID,
		authorID,
		n.Type,
		n.Message,
		n.EntityType,
		n.EntityID,
		n.IsRead,
		n.Priority,
		n.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create notification: %w", mapPostgresError(err))
	}

	for _, att := range attachments {
		_, err = tx.Exec(ctx, `
			INSERT INTO attachments (
				attachment_id, org_id, notification_id, storage_id, file_name, file_size, mime_type, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			att.AttachmentID,
			att.OrgID,
			att.NotificationID,
			att.StorageID,
			att.FileName,
			att.FileSize,
			att.MimeType,
			att.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create attachment: %w", mapPostgresError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit notification: %w", err)
	}

	return nil
}

// Get retrieves a notification by ID.
func (s *NotificationStore) Get(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE notification_id = $1`

	n, err := scanNotification(s.pool.QueryRow(ctx, query, notificationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", mapPostgresError(err))
	}

	return n, nil
}

// ListByEntity lists the notifications attached to one record, oldest-first.
func (s *NotificationStore) ListByEntity(ctx context.Context, orgID uuid.UUID, entityType string, entityID uuid.UUID) ([]*models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE org_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at
	`
	return s.list(ctx, query, orgID, entityType, entityID)
}

// ListByRecipient lists one member's notifications, newest-first.
func (s *NotificationStore) ListByRecipient(ctx context.Context, orgID, userID uuid.UUID) ([]*models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE org_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, orgID, userID)
}

// ListAttachments lists the attachments of one notification.
func (s *NotificationStore) ListAttachments(ctx context.Context, notificationID uuid.UUID) ([]*models.Attachment, error) {
	query := `
		SELECT attachment_id, org_id, notification_id, storage_id, file_name, file_size, mime_type, created_at
		FROM attachments
		WHERE notification_id = $1
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, notificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var attachments []*models.Attachment
	for rows.Next() {
		var att models.Attachment
		err := rows.Scan(
			&att.AttachmentID,
			&att.OrgID,
			&att.NotificationID,
			&att.StorageID,
			&att.FileName,
			&att.FileSize,
			&att.MimeType,
			&att.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, &att)
	}

	return attachments, rows.Err()
}

// MarkRead marks one notification read.
func (s *NotificationStore) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE notification_id = $1`, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a notification; its attachments cascade.
func (s *NotificationStore) Delete(ctx context.Context, notificationID uuid.UUID) error {
	result, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE notification_id = $1`, notificationID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *NotificationStore) list(ctx context.Context, query string, args ...any) ([]*models.Notification, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}
