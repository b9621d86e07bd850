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

// InvoiceStore implements store.InvoiceStore using in-memory storage.
type InvoiceStore struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]*models.Invoice
}

// NewInvoiceStore creates a new in-memory invoice store.
func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{
		invoices: make(map[uuid.UUID]*models.Invoice),
	}
}

func cloneInvoice(i *models.Invoice) *models.Invoice {
	clone := *i
	clone.ProjectID = cloneUUID(i.ProjectID)
	clone.QuoteID = cloneUUID(i.QuoteID)
	clone.LineItems = append([]models.LineItem(nil), i.LineItems...)
	clone.SentAt = cloneTime(i.SentAt)
	clone.PaidAt = cloneTime(i.PaidAt)
	return &clone
}

// Create creates a new invoice.
func (s *InvoiceStore) Create(ctx context.Context, invoice *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invoice.InvoiceID]; exists {
		return store.ErrAlreadyExists
	}

	s.invoices[invoice.InvoiceID] = cloneInvoice(invoice)
	return nil
}

// Get retrieves an invoice by ID.
func (s *InvoiceStore) Get(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoice, exists := s.invoices[invoiceID]
	if !exists {
		return nil, store.ErrNotFound
	}

	return cloneInvoice(invoice), nil
}

// GetByShareToken retrieves an invoice by its public share token.
func (s *InvoiceStore) GetByShareToken(ctx context.Context, token string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, i := range s.invoices {
		if i.ShareToken != "" && i.ShareToken == token {
			return cloneInvoice(i), nil
		}
	}
	return nil, store.ErrNotFound
}

// Update updates an existing invoice.
func (s *InvoiceStore) Update(ctx context.Context, invoice *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invoice.InvoiceID]; !exists {
		return store.ErrNotFound
	}

	invoice.UpdatedAt = time.Now()
	s.invoices[invoice.InvoiceID] = cloneInvoice(invoice)
	return nil
}

// Delete deletes an invoice by ID.
func (s *InvoiceStore) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invoiceID]; !exists {
		return store.ErrNotFound
	}

	delete(s.invoices, invoiceID)
	return nil
}

func (s *InvoiceStore) list(match func(*models.Invoice) bool) []*models.Invoice {
	var out []*models.Invoice
	for _, i := range s.invoices {
		if match(i) {
			out = append(out, cloneInvoice(i))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ListByOrg returns the organization's invoices, newest-first.
func (s *InvoiceStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(i *models.Invoice) bool { return i.OrgID == orgID }), nil
}

// ListByClient returns the invoices for one client, newest-first.
func (s *InvoiceStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(i *models.Invoice) bool { return i.ClientID == clientID }), nil
}

// ListByProject returns the invoices attached to one project, newest-first.
func (s *InvoiceStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(i *models.Invoice) bool { return i.ProjectID != nil && *i.ProjectID == projectID }), nil
}

// ListByQuote returns the invoices generated from one quote, newest-first.
func (s *InvoiceStore) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(i *models.Invoice) bool { return i.QuoteID != nil && *i.QuoteID == quoteID }), nil
}

// ListByOrgAndStatus returns the organization's invoices in one stored
// status, newest-first.
func (s *InvoiceStore) ListByOrgAndStatus(ctx context.Context, orgID uuid.UUID, status models.InvoiceStatus) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(i *models.Invoice) bool { return i.OrgID == orgID && i.Status == status }), nil
}

// ListPage walks all invoices in id order for the aggregate backfill.
func (s *InvoiceStore) ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Invoice
	for _, i := range s.invoices {
		if bytes.Compare(i.InvoiceID[:], afterID[:]) > 0 {
			out = append(out, cloneInvoice(i))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].InvoiceID[:], out[j].InvoiceID[:]) < 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
