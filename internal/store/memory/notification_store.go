package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

// NotificationStore implements store.NotificationStore using in-memory
// storage. Attachments live and die with their notification.
type NotificationStore struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID]*models.Notification
	attachments   map[uuid.UUID][]*models.Attachment // notification_id -> attachments
}

// NewNotificationStore creates a new in-memory notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		notifications: make(map[uuid.UUID]*models.Notification),
		attachments:   make(map[uuid.UUID][]*models.Attachment),
	}
}

// CreateWithAttachments inserts the notification and its attachment rows
// together; under the single lock either all land or none do.
func (s *NotificationStore) CreateWithAttachments(ctx context.Context, n *models.Notification, attachments []*models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.NotificationID]; exists {
		return store.ErrAlreadyExists
	}

	clone := *n
	s.notifications[n.NotificationID] = &clone

	for _, a := range attachments {
		ac := *a
		ac.NotificationID = n.NotificationID
		s.attachments[n.NotificationID] = append(s.attachments[n.NotificationID], &ac)
	}
	return nil
}

// Get retrieves a notification by ID.
func (s *NotificationStore) Get(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, exists := s.notifications[notificationID]
	if !exists {
		return nil, store.ErrNotFound
	}

	clone := *n
	return &clone, nil
}

func (s *NotificationStore) list(match func(*models.Notification) bool) []*models.Notification {
	var out []*models.Notification
	for _, n := range s.notifications {
		if match(n) {
			clone := *n
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ListByEntity returns the notifications attached to one record, newest-first.
func (s *NotificationStore) ListByEntity(ctx context.Context, orgID uuid.UUID, entityType string, entityID uuid.UUID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(n *models.Notification) bool {
		return n.OrgID == orgID && n.EntityType == entityType && n.EntityID == entityID
	}), nil
}

// ListByRecipient returns a member's notifications, newest-first.
func (s *NotificationStore) ListByRecipient(ctx context.Context, orgID, userID uuid.UUID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(n *models.Notification) bool {
		return n.OrgID == orgID && n.UserID == userID
	}), nil
}

// ListAttachments returns the attachments bound to one notification.
func (s *NotificationStore) ListAttachments(ctx context.Context, notificationID uuid.UUID) ([]*models.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Attachment
	for _, a := range s.attachments[notificationID] {
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

// MarkRead flags a notification as read.
func (s *NotificationStore) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.notifications[notificationID]
	if !exists {
		return store.ErrNotFound
	}

	n.IsRead = true
	return nil
}

// Delete removes a notification and, transitively, its attachments.
func (s *NotificationStore) Delete(ctx context.Context, notificationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[notificationID]; !exists {
		return store.ErrNotFound
	}

	delete(s.notifications, notificationID)
	delete(s.attachments, notificationID)
	return nil
}
