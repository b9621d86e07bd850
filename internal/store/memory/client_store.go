package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

// ClientStore implements store.ClientStore using in-memory storage.
type ClientStore struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*models.Client
}

// NewClientStore creates a new in-memory client store.
func NewClientStore() *ClientStore {
	return &ClientStore{
		clients: make(map[uuid.UUID]*models.Client),
	}
}

// Create creates a new client.
func (s *ClientStore) Create(ctx context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[client.ClientID]; exists {
		return store.ErrAlreadyExists
	}

	clone := *client
	s.clients[client.ClientID] = &clone
	return nil
}

// Get retrieves a client by ID.
func (s *ClientStore) Get(ctx context.Context, clientID uuid.UUID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, exists := s.clients[clientID]
	if !exists {
		return nil, store.ErrNotFound
	}

	clone := *client
	return &clone, nil
}

// Update updates an existing client.
func (s *ClientStore) Update(ctx context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[client.ClientID]; !exists {
		return store.ErrNotFound
	}

	client.UpdatedAt = time.Now()
	clone := *client
	s.clients[client.ClientID] = &clone
	return nil
}

// Delete deletes a client by ID.
func (s *ClientStore) Delete(ctx context.Context, clientID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[clientID]; !exists {
		return store.ErrNotFound
	}

	delete(s.clients, clientID)
	return nil
}

// ListByOrg returns the organization's clients, newest-first.
func (s *ClientStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Client
	for _, c := range s.clients {
		if c.OrgID == orgID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
