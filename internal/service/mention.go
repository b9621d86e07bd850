package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// AttachmentInput describes one uploaded file to link to a mention. StorageID
// references a blob already written to external storage.
type AttachmentInput struct {
	StorageID string `validate:"required"`
	FileName  string `validate:"required,max=255"`
	FileSize  int64  `validate:"gte=0"`
	MimeType  string `validate:"max=255"`
}

// CreateMentionCmd fans one comment out to the mentioned recipients.
type CreateMentionCmd struct {
	RecipientIDs []uuid.UUID      `validate:"required,min=1"`
	Text         string           `validate:"required,max=10000"`
	Entity       models.EntityRef `validate:"required"`
	Attachments  []AttachmentInput
}

// Mention is a notification joined with its resolved author and attachments.
// The author comes from the AuthorID column when set, falling back to the
// legacy message prefix for rows written before the column existed.
type Mention struct {
	Notification *models.Notification
	AuthorID     uuid.UUID
	AuthorName   string
	Text         string
	Attachments  []*models.Attachment
}

// CreateMention records one mention notification per recipient. Every
// recipient must be a member of the caller's tenant: a single foreign
// recipient fails the whole call with ErrCrossTenantAccess before any row is
// written, so a mixed recipient list creates zero notifications.
func (s *Service) CreateMention(ctx context.Context, tc tenant.Context, cmd CreateMentionCmd) ([]*models.Notification, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}
	for _, att := range cmd.Attachments {
		if err := s.checkStruct(att); err != nil {
			return nil, err
		}
	}
	if err := s.entityInTenant(ctx, tc, cmd.Entity); err != nil {
		return nil, err
	}

	for _, recipientID := range cmd.RecipientIDs {
		if _, err := s.memberOfTenant(ctx, tc, recipientID); err != nil {
			if errors.Is(err, tenant.ErrCrossTenantAccess) {
				log.Warn().
					Str("org_id", tc.OrgID.String()).
					Str("recipient_id", recipientID.String()).
					Msg("Rejecting mention for non-member recipient")
				return nil, tenant.ErrCrossTenantAccess
			}
			return nil, err
		}
	}

	var created []*models.Notification
	for _, recipientID := range cmd.RecipientIDs {
		now := time.Now()
		n := &models.Notification{
			NotificationID: uuid.Must(uuid.NewV7()),
			OrgID:          tc.OrgID,
			UserID:         recipientID,
			AuthorID:       tc.UserID,
			Type:           models.NotificationTypeMention,
			Message:        models.EncodeMentionMessage(tc.UserID, cmd.Text),
			EntityType:     cmd.Entity.Type,
			EntityID:       cmd.Entity.ID,
			Priority:       "normal",
			CreatedAt:      now,
		}

		attachments := make([]*models.Attachment, 0, len(cmd.Attachments))
		for _, att := range cmd.Attachments {
			attachments = append(attachments, &models.Attachment{
				AttachmentID:   uuid.Must(uuid.NewV7()),
				OrgID:          tc.OrgID,
				NotificationID: n.NotificationID,
				StorageID:      att.StorageID,
				FileName:       att.FileName,
				FileSize:       att.FileSize,
				MimeType:       att.MimeType,
				CreatedAt:      now,
			})
		}

		if err := s.stores.Notifications.CreateWithAttachments(ctx, n, attachments); err != nil {
			return nil, fmt.Errorf("failed to create notification: %w", err)
		}
		created = append(created, n)
	}

	if len(created) > 0 {
		err := s.recordActivity(ctx, tc, "mention_created", cmd.Entity,
			fmt.Sprintf("Mentioned %d member(s)", len(created)),
			map[string]any{"recipients": len(created)})
		if err != nil {
			return nil, err
		}
	}

	return created, nil
}

// ListMentionsByEntity returns the mention thread on one record, with authors
// resolved and attachments loaded, newest-first.
func (s *Service) ListMentionsByEntity(ctx context.Context, tc tenant.Context, ref models.EntityRef) ([]*Mention, error) {
	if err := s.entityInTenant(ctx, tc, ref); err != nil {
		return nil, err
	}

	notifications, err := s.stores.Notifications.ListByEntity(ctx, tc.OrgID, ref.Type, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	mentions := make([]*Mention, 0, len(notifications))
	for _, n := range notifications {
		if n.Type != models.NotificationTypeMention {
			continue
		}
		m, err := s.resolveMention(ctx, n)
		if err != nil {
			return nil, err
		}
		mentions = append(mentions, m)
	}
	return mentions, nil
}

// ListMyNotifications returns the caller's notifications, newest-first, with
// authors resolved.
func (s *Service) ListMyNotifications(ctx context.Context, tc tenant.Context) ([]*Mention, error) {
	notifications, err := s.stores.Notifications.ListByRecipient(ctx, tc.OrgID, tc.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	mentions := make([]*Mention, 0, len(notifications))
	for _, n := range notifications {
		m, err := s.resolveMention(ctx, n)
		if err != nil {
			return nil, err
		}
		mentions = append(mentions, m)
	}
	return mentions, nil
}

// MarkNotificationRead marks one of the caller's notifications read.
func (s *Service) MarkNotificationRead(ctx context.Context, tc tenant.Context, notificationID uuid.UUID) error {
	n, err := s.stores.Notifications.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if err := tc.AssertOwns(n.OrgID); err != nil {
		return err
	}
	if n.UserID != tc.UserID {
		return tenant.ErrCrossTenantAccess
	}
	if n.IsRead {
		return nil
	}
	if err := s.stores.Notifications.MarkRead(ctx, notificationID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// DeleteNotification removes one of the caller's notifications together with
// its attachments.
func (s *Service) DeleteNotification(ctx context.Context, tc tenant.Context, notificationID uuid.UUID) error {
	n, err := s.stores.Notifications.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if err := tc.AssertOwns(n.OrgID); err != nil {
		return err
	}
	if n.UserID != tc.UserID {
		return tenant.ErrCrossTenantAccess
	}
	if err := s.stores.Notifications.Delete(ctx, notificationID); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func (s *Service) resolveMention(ctx context.Context, n *models.Notification) (*Mention, error) {
	authorID := n.AuthorID
	text := n.Message
	if legacyAuthor, legacyText := models.SplitMentionMessage(n.Message); legacyAuthor != uuid.Nil {
		text = legacyText
		if authorID == uuid.Nil {
			authorID = legacyAuthor
		}
	}

	m := &Mention{
		Notification: n,
		AuthorID:     authorID,
		Text:         text,
	}

	if authorID != uuid.Nil {
		author, err := s.stores.Users.Get(ctx, authorID)
		switch {
		case err == nil:
			m.AuthorName = author.Name
		case errors.Is(err, store.ErrNotFound):
			// Author account gone; the mention still renders.
		default:
			return nil, fmt.Errorf("resolve author: %w", err)
		}
	}

	attachments, err := s.stores.Notifications.ListAttachments(ctx, n.NotificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	m.Attachments = attachments

	return m, nil
}

// entityInTenant checks the ownership of any referenced record by its kind.
func (s *Service) entityInTenant(ctx context.Context, tc tenant.Context, ref models.EntityRef) error {
	switch ref.Type {
	case models.EntityTypeClient:
		_, err := s.clientInTenant(ctx, tc, ref.ID)
		return err
	case models.EntityTypeProject:
		_, err := s.projectInTenant(ctx, tc, ref.ID)
		return err
	case models.EntityTypeQuote:
		_, err := s.GetQuote(ctx, tc, ref.ID)
		return err
	case models.EntityTypeInvoice:
		_, err := s.GetInvoice(ctx, tc, ref.ID)
		return err
	case models.EntityTypeTask:
		_, err := s.GetTask(ctx, tc, ref.ID)
		return err
	default:
		return &ValidationError{Field: "Entity.Type", Reason: "unknown entity type"}
	}
}
