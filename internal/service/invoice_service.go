package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// CreateInvoiceCmd carries the validated fields for a new invoice.
type CreateInvoiceCmd struct {
	ClientID  uuid.UUID `validate:"required"`
	ProjectID *uuid.UUID
	LineItems []models.LineItem
	DueDate   time.Time `validate:"required"`
}

// UpdateInvoiceCmd patches mutable invoice fields; nil means untouched.
type UpdateInvoiceCmd struct {
	ClientID  *uuid.UUID
	ProjectID *uuid.UUID
	LineItems []models.LineItem
	DueDate   *time.Time
}

// InvoiceFilter narrows ListInvoices, same index priority as quotes.
type InvoiceFilter struct {
	ClientID  *uuid.UUID
	ProjectID *uuid.UUID
	Status    *models.InvoiceStatus
	From      *time.Time
	To        *time.Time
}

// CreateInvoice inserts a draft invoice with the next per-tenant number and a
// public share token.
func (s *Service) CreateInvoice(ctx context.Context, tc tenant.Context, cmd CreateInvoiceCmd) (*models.Invoice, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}
	if err := checkLineItems(cmd.LineItems); err != nil {
		return nil, err
	}
	if _, err := s.clientInTenant(ctx, tc, cmd.ClientID); err != nil {
		return nil, err
	}
	if cmd.ProjectID != nil {
		if _, err := s.projectInTenant(ctx, tc, *cmd.ProjectID); err != nil {
			return nil, err
		}
	}
	return s.createInvoice(ctx, tc, cmd, nil)
}

// CreateInvoiceFromQuote builds an invoice from an approved quote, copying
// its line items and discounted total and linking back to the quote.
func (s *Service) CreateInvoiceFromQuote(ctx context.Context, tc tenant.Context, quoteID uuid.UUID, dueDate time.Time) (*models.Invoice, error) {
	quote, err := s.GetQuote(ctx, tc, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != models.QuoteStatusApproved {
		return nil, fmt.Errorf("quote %s is %s, not approved: %w", quote.Number, quote.Status, ErrIllegalTransition)
	}

	items := make([]models.LineItem, len(quote.LineItems))
	copy(items, quote.LineItems)
	if quote.DiscountPercent > 0 {
		// The discount is carried over as a negative line so the invoice
		// total matches the approved quote total.
		items = append(items, models.LineItem{
			Description: fmt.Sprintf("Discount (%d%%)", quote.DiscountPercent),
			Quantity:    1,
			UnitPrice:   quote.Total - quote.SubtotalCents(),
		})
	}

	cmd := CreateInvoiceCmd{
		ClientID:  quote.ClientID,
		ProjectID: quote.ProjectID,
		LineItems: items,
		DueDate:   dueDate,
	}
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}
	return s.createInvoice(ctx, tc, cmd, &quote.QuoteID)
}

func (s *Service) createInvoice(ctx context.Context, tc tenant.Context, cmd CreateInvoiceCmd, quoteID *uuid.UUID) (*models.Invoice, error) {
	number, err := s.nextInvoiceNumber(ctx, tc)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, li := range cmd.LineItems {
		total += li.Quantity * li.UnitPrice
	}

	now := time.Now()
	invoice := &models.Invoice{
		InvoiceID:  uuid.Must(uuid.NewV7()),
		OrgID:      tc.OrgID,
		ClientID:   cmd.ClientID,
		ProjectID:  cmd.ProjectID,
		QuoteID:    quoteID,
		Number:     number,
		LineItems:  cmd.LineItems,
		Total:      total,
		DueDate:    cmd.DueDate,
		Status:     models.InvoiceStatusDraft,
		ShareToken: generateShareToken(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.stores.Invoices.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	if err := s.indexes.Invoices.Insert(invoice); err != nil {
		return nil, fmt.Errorf("failed to index invoice: %w", err)
	}

	meta := map[string]any{"total": invoice.Total}
	if quoteID != nil {
		meta["quote_id"] = quoteID.String()
	}
	err = s.recordActivity(ctx, tc, "invoice_created",
		models.EntityRef{Type: models.EntityTypeInvoice, ID: invoice.InvoiceID},
		fmt.Sprintf("Created invoice %s", invoice.Number), meta)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("org_id", tc.OrgID.String()).
		Str("invoice_id", invoice.InvoiceID.String()).
		Str("number", invoice.Number).
		Msg("Created invoice")

	return invoice, nil
}

// GetInvoice returns one invoice after the ownership check.
func (s *Service) GetInvoice(ctx context.Context, tc tenant.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.stores.Invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := tc.AssertOwns(invoice.OrgID); err != nil {
		return nil, err
	}
	return invoice, nil
}

// GetInvoiceByShareToken is the unauthenticated public-link read.
func (s *Service) GetInvoiceByShareToken(ctx context.Context, token string) (*models.Invoice, error) {
	return s.stores.Invoices.GetByShareToken(ctx, token)
}

// UpdateInvoice applies a field-level patch and recomputes the total.
func (s *Service) UpdateInvoice(ctx context.Context, tc tenant.Context, invoiceID uuid.UUID, cmd UpdateInvoiceCmd) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, tc, invoiceID)
	if err != nil {
		return nil, err
	}
	before := *invoice

	if cmd.ClientID != nil {
		if _, err := s.clientInTenant(ctx, tc, *cmd.ClientID); err != nil {
			return nil, err
		}
		invoice.ClientID = *cmd.ClientID
	}
	if cmd.ProjectID != nil {
		if _, err := s.projectInTenant(ctx, tc, *cmd.ProjectID); err != nil {
			return nil, err
		}
		invoice.ProjectID = cmd.ProjectID
	}
	if cmd.LineItems != nil {
		if err := checkLineItems(cmd.LineItems); err != nil {
			return nil, err
		}
		invoice.LineItems = cmd.LineItems
		invoice.Total = 0
		for _, li := range cmd.LineItems {
			invoice.Total += li.Quantity * li.UnitPrice
		}
	}
	if cmd.DueDate != nil {
		invoice.DueDate = *cmd.DueDate
	}

	if err := s.stores.Invoices.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	if err := s.indexes.Invoices.Replace(&before, invoice); err != nil {
		return nil, fmt.Errorf("failed to reindex invoice: %w", err)
	}

	err = s.recordActivity(ctx, tc, "invoice_updated",
		models.EntityRef{Type: models.EntityTypeInvoice, ID: invoice.InvoiceID},
		fmt.Sprintf("Updated invoice %s", invoice.Number),
		map[string]any{"total": invoice.Total})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

// SendInvoice moves a draft invoice to sent, stamping SentAt.
func (s *Service) SendInvoice(ctx context.Context, tc tenant.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.transitionInvoice(ctx, tc, invoiceID, models.InvoiceStatusSent)
}

// MarkInvoicePaid moves a sent invoice to paid, stamping PaidAt.
func (s *Service) MarkInvoicePaid(ctx context.Context, tc tenant.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.transitionInvoice(ctx, tc, invoiceID, models.InvoiceStatusPaid)
}

// CancelInvoice moves a sent invoice to cancelled.
func (s *Service) CancelInvoice(ctx context.Context, tc tenant.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.transitionInvoice(ctx, tc, invoiceID, models.InvoiceStatusCancelled)
}

func (s *Service) transitionInvoice(ctx context.Context, tc tenant.Context, invoiceID uuid.UUID, target models.InvoiceStatus) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, tc, invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice.Status == target {
		return invoice, nil
	}
	if !invoiceTransitionAllowed(invoice.Status, target) {
		return nil, fmt.Errorf("invoice %s -> %s: %w", invoice.Status, target, ErrIllegalTransition)
	}

	before := *invoice
	stampInvoiceTransition(invoice, target, time.Now())

	if err := s.stores.Invoices.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	if err := s.indexes.Invoices.Replace(&before, invoice); err != nil {
		return nil, fmt.Errorf("failed to reindex invoice: %w", err)
	}

	err = s.recordActivity(ctx, tc, "invoice_"+string(target),
		models.EntityRef{Type: models.EntityTypeInvoice, ID: invoice.InvoiceID},
		fmt.Sprintf("Invoice %s is now %s", invoice.Number, target),
		map[string]any{"total": invoice.Total})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

// DeleteInvoice removes an invoice and its aggregate entry. Invoices have no
// dependent records.
func (s *Service) DeleteInvoice(ctx context.Context, tc tenant.Context, invoiceID uuid.UUID) error {
	invoice, err := s.GetInvoice(ctx, tc, invoiceID)
	if err != nil {
		return err
	}

	if err := s.stores.Invoices.Delete(ctx, invoiceID); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if err := s.indexes.Invoices.Delete(invoice); err != nil {
		return fmt.Errorf("failed to deindex invoice: %w", err)
	}

	return s.recordActivity(ctx, tc, "invoice_deleted",
		models.EntityRef{Type: models.EntityTypeInvoice, ID: invoiceID},
		fmt.Sprintf("Deleted invoice %s", invoice.Number), nil)
}

// ListInvoices returns the tenant's invoices narrowed by the most selective
// available index, residual-filtered.
func (s *Service) ListInvoices(ctx context.Context, tc tenant.Context, filter InvoiceFilter) ([]*models.Invoice, error) {
	var (
		invoices []*models.Invoice
		err      error
	)

	switch {
	case filter.ProjectID != nil:
		if _, err := s.projectInTenant(ctx, tc, *filter.ProjectID); err != nil {
			return nil, err
		}
		invoices, err = s.stores.Invoices.ListByProject(ctx, *filter.ProjectID)
	case filter.ClientID != nil:
		if _, err := s.clientInTenant(ctx, tc, *filter.ClientID); err != nil {
			return nil, err
		}
		invoices, err = s.stores.Invoices.ListByClient(ctx, *filter.ClientID)
	case filter.Status != nil:
		invoices, err = s.stores.Invoices.ListByOrgAndStatus(ctx, tc.OrgID, *filter.Status)
	default:
		invoices, err = s.stores.Invoices.ListByOrg(ctx, tc.OrgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	out := invoices[:0]
	for _, inv := range invoices {
		if inv.OrgID != tc.OrgID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.From != nil && inv.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && inv.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// ListOverdueInvoices returns the tenant's sent invoices whose due date has
// passed, using the same derivation as the dashboard counter.
func (s *Service) ListOverdueInvoices(ctx context.Context, tc tenant.Context) ([]*models.Invoice, error) {
	sent := models.InvoiceStatusSent
	invoices, err := s.ListInvoices(ctx, tc, InvoiceFilter{Status: &sent})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := invoices[:0]
	for _, inv := range invoices {
		if inv.Overdue(now) {
			out = append(out, inv)
		}
	}
	return out, nil
}
