package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

// UserStore implements store.UserStore using in-memory storage.
type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[uuid.UUID]*models.User),
	}
}

// Create creates a new user.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.UserID]; exists {
		return store.ErrAlreadyExists
	}

	clone := *user
	s.users[user.UserID] = &clone
	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, store.ErrNotFound
	}

	clone := *user
	return &clone, nil
}

// Update updates an existing user.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.UserID]; !exists {
		return store.ErrNotFound
	}

	user.UpdatedAt = time.Now()
	clone := *user
	s.users[user.UserID] = &clone
	return nil
}

// MembershipStore implements store.MembershipStore using in-memory storage.
type MembershipStore struct {
	mu          sync.RWMutex
	memberships map[uuid.UUID]map[uuid.UUID]*models.Membership // org_id -> user_id -> Membership
}

// NewMembershipStore creates a new in-memory membership store.
func NewMembershipStore() *MembershipStore {
	return &MembershipStore{
		memberships: make(map[uuid.UUID]map[uuid.UUID]*models.Membership),
	}
}

// Create records a user's membership of an organization.
func (s *MembershipStore) Create(ctx context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.memberships[m.OrgID]
	if !ok {
		byUser = make(map[uuid.UUID]*models.Membership)
		s.memberships[m.OrgID] = byUser
	}
	if _, exists := byUser[m.UserID]; exists {
		return store.ErrAlreadyExists
	}

	clone := *m
	byUser[m.UserID] = &clone
	return nil
}

// Get retrieves the membership of a user within an organization.
func (s *MembershipStore) Get(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.memberships[orgID][userID]
	if !exists {
		return nil, store.ErrNotFound
	}

	clone := *m
	return &clone, nil
}

// ListByOrg returns all memberships of an organization.
func (s *MembershipStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Membership
	for _, m := range s.memberships[orgID] {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

// ListByUser returns all memberships a user holds across organizations.
func (s *MembershipStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Membership
	for _, byUser := range s.memberships {
		if m, ok := byUser[userID]; ok {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}
