// Package memory provides in-memory implementations of the store interfaces
// for tests and dev mode. Data is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

// OrganizationStore implements store.OrganizationStore using in-memory storage.
type OrganizationStore struct {
	mu            sync.RWMutex
	organizations map[uuid.UUID]*models.Organization
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		organizations: make(map[uuid.UUID]*models.Organization),
	}
}

// Create creates a new organization in memory.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organizations[org.OrgID]; exists {
		return store.ErrAlreadyExists
	}

	clone := *org
	s.organizations[org.OrgID] = &clone
	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.organizations[orgID]
	if !exists {
		return nil, store.ErrNotFound
	}

	clone := *org
	return &clone, nil
}

// Update updates an existing organization.
func (s *OrganizationStore) Update(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organizations[org.OrgID]; !exists {
		return store.ErrNotFound
	}

	org.UpdatedAt = time.Now()
	clone := *org
	s.organizations[org.OrgID] = &clone
	return nil
}

// NextQuoteNumber atomically increments the quote counter.
func (s *OrganizationStore) NextQuoteNumber(ctx context.Context, orgID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, exists := s.organizations[orgID]
	if !exists {
		return 0, store.ErrNotFound
	}

	org.LastQuoteNumber++
	org.UpdatedAt = time.Now()
	return org.LastQuoteNumber, nil
}

// NextInvoiceNumber atomically increments the invoice counter.
func (s *OrganizationStore) NextInvoiceNumber(ctx context.Context, orgID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, exists := s.organizations[orgID]
	if !exists {
		return 0, store.ErrNotFound
	}

	org.LastInvoiceNumber++
	org.UpdatedAt = time.Now()
	return org.LastInvoiceNumber, nil
}

// SetQuoteCounter forces the quote counter to a value.
func (s *OrganizationStore) SetQuoteCounter(ctx context.Context, orgID uuid.UUID, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, exists := s.organizations[orgID]
	if !exists {
		return store.ErrNotFound
	}

	org.LastQuoteNumber = value
	org.UpdatedAt = time.Now()
	return nil
}

// SetInvoiceCounter forces the invoice counter to a value.
func (s *OrganizationStore) SetInvoiceCounter(ctx context.Context, orgID uuid.UUID, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, exists := s.organizations[orgID]
	if !exists {
		return store.ErrNotFound
	}

	org.LastInvoiceNumber = value
	org.UpdatedAt = time.Now()
	return nil
}
