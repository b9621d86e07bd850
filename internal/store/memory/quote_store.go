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

// QuoteStore implements store.QuoteStore using in-memory storage.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[uuid.UUID]*models.Quote
}

// NewQuoteStore creates a new in-memory quote store.
func NewQuoteStore() *QuoteStore {
	return &QuoteStore{
		quotes: make(map[uuid.UUID]*models.Quote),
	}
}

func cloneQuote(q *models.Quote) *models.Quote {
	clone := *q
	clone.ProjectID = cloneUUID(q.ProjectID)
	clone.LineItems = append([]models.LineItem(nil), q.LineItems...)
	clone.ValidUntil = cloneTime(q.ValidUntil)
	clone.SentAt = cloneTime(q.SentAt)
	clone.ApprovedAt = cloneTime(q.ApprovedAt)
	clone.DeclinedAt = cloneTime(q.DeclinedAt)
	if q.Signature != nil {
		sig := *q.Signature
		clone.Signature = &sig
	}
	return &clone
}

// Create creates a new quote.
func (s *QuoteStore) Create(ctx context.Context, quote *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.quotes[quote.QuoteID]; exists {
		return store.ErrAlreadyExists
	}

	s.quotes[quote.QuoteID] = cloneQuote(quote)
	return nil
}

// Get retrieves a quote by ID.
func (s *QuoteStore) Get(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, exists := s.quotes[quoteID]
	if !exists {
		return nil, store.ErrNotFound
	}

	return cloneQuote(quote), nil
}

// GetByShareToken retrieves a quote by its public share token.
func (s *QuoteStore) GetByShareToken(ctx context.Context, token string) (*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.quotes {
		if q.ShareToken != "" && q.ShareToken == token {
			return cloneQuote(q), nil
		}
	}
	return nil, store.ErrNotFound
}

// Update updates an existing quote.
func (s *QuoteStore) Update(ctx context.Context, quote *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.quotes[quote.QuoteID]; !exists {
		return store.ErrNotFound
	}

	quote.UpdatedAt = time.Now()
	s.quotes[quote.QuoteID] = cloneQuote(quote)
	return nil
}

// Delete deletes a quote by ID.
func (s *QuoteStore) Delete(ctx context.Context, quoteID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.quotes[quoteID]; !exists {
		return store.ErrNotFound
	}

	delete(s.quotes, quoteID)
	return nil
}

func (s *QuoteStore) list(match func(*models.Quote) bool) []*models.Quote {
	var out []*models.Quote
	for _, q := range s.quotes {
		if match(q) {
			out = append(out, cloneQuote(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ListByOrg returns the organization's quotes, newest-first.
func (s *QuoteStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(q *models.Quote) bool { return q.OrgID == orgID }), nil
}

// ListByClient returns the quotes for one client, newest-first.
func (s *QuoteStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(q *models.Quote) bool { return q.ClientID == clientID }), nil
}

// ListByProject returns the quotes attached to one project, newest-first.
func (s *QuoteStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(q *models.Quote) bool { return q.ProjectID != nil && *q.ProjectID == projectID }), nil
}

// ListByOrgAndStatus returns the organization's quotes in one stored status,
// newest-first.
func (s *QuoteStore) ListByOrgAndStatus(ctx context.Context, orgID uuid.UUID, status models.QuoteStatus) ([]*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(q *models.Quote) bool { return q.OrgID == orgID && q.Status == status }), nil
}

// ListPage walks all quotes in id order for the aggregate backfill.
func (s *QuoteStore) ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Quote
	for _, q := range s.quotes {
		if bytes.Compare(q.QuoteID[:], afterID[:]) > 0 {
			out = append(out, cloneQuote(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].QuoteID[:], out[j].QuoteID[:]) < 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
