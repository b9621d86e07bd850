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

// CreateQuoteCmd carries the validated fields for a new quote.
type CreateQuoteCmd struct {
	ClientID        uuid.UUID `validate:"required"`
	ProjectID       *uuid.UUID
	Title           string `validate:"required,min=1,max=255"`
	LineItems       []models.LineItem
	DiscountPercent int64 `validate:"gte=0,lte=100"`
	ValidUntil      *time.Time
}

// UpdateQuoteCmd patches mutable quote fields; nil means untouched. Status is
// deliberately absent: it only moves through the lifecycle entry points.
type UpdateQuoteCmd struct {
	ClientID        *uuid.UUID
	ProjectID       *uuid.UUID
	Title           *string `validate:"omitempty,min=1,max=255"`
	LineItems       []models.LineItem
	DiscountPercent *int64 `validate:"omitempty,gte=0,lte=100"`
	ValidUntil      *time.Time
}

// QuoteFilter narrows ListQuotes. The most selective populated field picks
// the index: project, then client, then status, then tenant-wide.
type QuoteFilter struct {
	ClientID  *uuid.UUID
	ProjectID *uuid.UUID
	Status    *models.QuoteStatus
	From      *time.Time
	To        *time.Time
}

func checkLineItems(items []models.LineItem) error {
	if len(items) == 0 {
		return &ValidationError{Field: "LineItems", Reason: "at least one line item is required"}
	}
	for i, li := range items {
		if li.Description == "" {
			return &ValidationError{Field: fmt.Sprintf("LineItems[%d].Description", i), Reason: "required"}
		}
		if li.Quantity <= 0 {
			return &ValidationError{Field: fmt.Sprintf("LineItems[%d].Quantity", i), Reason: "must be positive"}
		}
		if li.UnitPrice < 0 {
			return &ValidationError{Field: fmt.Sprintf("LineItems[%d].UnitPrice", i), Reason: "must not be negative"}
		}
	}
	return nil
}

func computeTotal(items []models.LineItem, discountPercent int64) int64 {
	var subtotal int64
	for _, li := range items {
		subtotal += li.Quantity * li.UnitPrice
	}
	return subtotal * (100 - discountPercent) / 100
}

// CreateQuote inserts a draft quote with the next per-tenant number, a public
// share token, and an aggregate index entry.
func (s *Service) CreateQuote(ctx context.Context, tc tenant.Context, cmd CreateQuoteCmd) (*models.Quote, error) {
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

	number, err := s.nextQuoteNumber(ctx, tc)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	quote := &models.Quote{
		QuoteID:         uuid.Must(uuid.NewV7()),
		OrgID:           tc.OrgID,
		ClientID:        cmd.ClientID,
		ProjectID:       cmd.ProjectID,
		Number:          number,
		Title:           cmd.Title,
		LineItems:       cmd.LineItems,
		DiscountPercent: cmd.DiscountPercent,
		Total:           computeTotal(cmd.LineItems, cmd.DiscountPercent),
		ValidUntil:      cmd.ValidUntil,
		Status:          models.QuoteStatusDraft,
		ShareToken:      generateShareToken(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.stores.Quotes.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}
	if err := s.indexes.Quotes.Insert(quote); err != nil {
		return nil, fmt.Errorf("failed to index quote: %w", err)
	}

	err = s.recordActivity(ctx, tc, "quote_created",
		models.EntityRef{Type: models.EntityTypeQuote, ID: quote.QuoteID},
		fmt.Sprintf("Created quote %s", quote.Number),
		map[string]any{"total": quote.Total})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("org_id", tc.OrgID.String()).
		Str("quote_id", quote.QuoteID.String()).
		Str("number", quote.Number).
		Msg("Created quote")

	return quote, nil
}

// GetQuote returns one quote after the ownership check.
func (s *Service) GetQuote(ctx context.Context, tc tenant.Context, quoteID uuid.UUID) (*models.Quote, error) {
	quote, err := s.stores.Quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := tc.AssertOwns(quote.OrgID); err != nil {
		return nil, err
	}
	return quote, nil
}

// GetQuoteByShareToken is the unauthenticated public-link read. The token is
// the whole capability; it grants access to exactly this record.
func (s *Service) GetQuoteByShareToken(ctx context.Context, token string) (*models.Quote, error) {
	return s.stores.Quotes.GetByShareToken(ctx, token)
}

// UpdateQuote applies a field-level patch, recomputes the total, and swaps
// the aggregate entry when a key-relevant field changed.
func (s *Service) UpdateQuote(ctx context.Context, tc tenant.Context, quoteID uuid.UUID, cmd UpdateQuoteCmd) (*models.Quote, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}

	quote, err := s.GetQuote(ctx, tc, quoteID)
	if err != nil {
		return nil, err
	}
	before := *quote

	if cmd.ClientID != nil {
		if _, err := s.clientInTenant(ctx, tc, *cmd.ClientID); err != nil {
			return nil, err
		}
		quote.ClientID = *cmd.ClientID
	}
	if cmd.ProjectID != nil {
		if _, err := s.projectInTenant(ctx, tc, *cmd.ProjectID); err != nil {
			return nil, err
		}
		quote.ProjectID = cmd.ProjectID
	}
	if cmd.Title != nil {
		quote.Title = *cmd.Title
	}
	if cmd.LineItems != nil {
		if err := checkLineItems(cmd.LineItems); err != nil {
			return nil, err
		}
		quote.LineItems = cmd.LineItems
	}
	if cmd.DiscountPercent != nil {
		quote.DiscountPercent = *cmd.DiscountPercent
	}
	if cmd.ValidUntil != nil {
		quote.ValidUntil = cmd.ValidUntil
	}
	quote.Total = computeTotal(quote.LineItems, quote.DiscountPercent)

	if err := s.stores.Quotes.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	if err := s.indexes.Quotes.Replace(&before, quote); err != nil {
		return nil, fmt.Errorf("failed to reindex quote: %w", err)
	}

	err = s.recordActivity(ctx, tc, "quote_updated",
		models.EntityRef{Type: models.EntityTypeQuote, ID: quote.QuoteID},
		fmt.Sprintf("Updated quote %s", quote.Number),
		map[string]any{"total": quote.Total})
	if err != nil {
		return nil, err
	}

	return quote, nil
}

// SendQuote moves a draft quote to sent, stamping SentAt.
func (s *Service) SendQuote(ctx context.Context, tc tenant.Context, quoteID uuid.UUID) (*models.Quote, error) {
	return s.transitionQuote(ctx, tc, quoteID, models.QuoteStatusSent, nil)
}

// ApproveQuote moves a sent quote to approved, stamping ApprovedAt and the
// signer metadata.
func (s *Service) ApproveQuote(ctx context.Context, tc tenant.Context, quoteID uuid.UUID, sig models.SignatureMetadata) (*models.Quote, error) {
	if sig.SignerName == "" {
		return nil, &ValidationError{Field: "SignerName", Reason: "required"}
	}
	return s.transitionQuote(ctx, tc, quoteID, models.QuoteStatusApproved, &sig)
}

// DeclineQuote moves a sent quote to declined, stamping DeclinedAt.
func (s *Service) DeclineQuote(ctx context.Context, tc tenant.Context, quoteID uuid.UUID) (*models.Quote, error) {
	return s.transitionQuote(ctx, tc, quoteID, models.QuoteStatusDeclined, nil)
}

func (s *Service) transitionQuote(ctx context.Context, tc tenant.Context, quoteID uuid.UUID, target models.QuoteStatus, sig *models.SignatureMetadata) (*models.Quote, error) {
	quote, err := s.GetQuote(ctx, tc, quoteID)
	if err != nil {
		return nil, err
	}

	if quote.Status == target {
		// Same-status write: no transition fires, timestamps stay put.
		return quote, nil
	}
	if !quoteTransitionAllowed(quote.Status, target) {
		return nil, fmt.Errorf("quote %s -> %s: %w", quote.Status, target, ErrIllegalTransition)
	}

	before := *quote
	now := time.Now()
	if sig != nil {
		sig.SignedAt = now
	}
	stampQuoteTransition(quote, target, now, sig)

	if err := s.stores.Quotes.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	if err := s.indexes.Quotes.Replace(&before, quote); err != nil {
		return nil, fmt.Errorf("failed to reindex quote: %w", err)
	}

	sigMeta := map[string]any{"total": quote.Total}
	if sig != nil {
		sigMeta["signer_name"] = sig.SignerName
		sigMeta["ip_address"] = sig.IPAddress
	}
	err = s.recordActivity(ctx, tc, "quote_"+string(target),
		models.EntityRef{Type: models.EntityTypeQuote, ID: quote.QuoteID},
		fmt.Sprintf("Quote %s is now %s", quote.Number, target), sigMeta)
	if err != nil {
		return nil, err
	}

	return quote, nil
}

// DeleteQuote removes a quote when no invoice was generated from it, along
// with its aggregate entry.
func (s *Service) DeleteQuote(ctx context.Context, tc tenant.Context, quoteID uuid.UUID) error {
	quote, err := s.GetQuote(ctx, tc, quoteID)
	if err != nil {
		return err
	}

	invoices, err := s.stores.Invoices.ListByQuote(ctx, quoteID)
	if err != nil {
		return fmt.Errorf("failed to check dependent invoices: %w", err)
	}
	if len(invoices) > 0 {
		return fmt.Errorf("quote has %d invoices: %w", len(invoices), ErrHasDependents)
	}

	if err := s.stores.Quotes.Delete(ctx, quoteID); err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	if err := s.indexes.Quotes.Delete(quote); err != nil {
		return fmt.Errorf("failed to deindex quote: %w", err)
	}

	return s.recordActivity(ctx, tc, "quote_deleted",
		models.EntityRef{Type: models.EntityTypeQuote, ID: quoteID},
		fmt.Sprintf("Deleted quote %s", quote.Number), nil)
}

// ListQuotes returns the tenant's quotes narrowed by the most selective
// available index, residual-filtered, newest-first.
func (s *Service) ListQuotes(ctx context.Context, tc tenant.Context, filter QuoteFilter) ([]*models.Quote, error) {
	var (
		quotes []*models.Quote
		err    error
	)

	switch {
	case filter.ProjectID != nil:
		if _, err := s.projectInTenant(ctx, tc, *filter.ProjectID); err != nil {
			return nil, err
		}
		quotes, err = s.stores.Quotes.ListByProject(ctx, *filter.ProjectID)
	case filter.ClientID != nil:
		if _, err := s.clientInTenant(ctx, tc, *filter.ClientID); err != nil {
			return nil, err
		}
		quotes, err = s.stores.Quotes.ListByClient(ctx, *filter.ClientID)
	case filter.Status != nil:
		quotes, err = s.stores.Quotes.ListByOrgAndStatus(ctx, tc.OrgID, *filter.Status)
	default:
		quotes, err = s.stores.Quotes.ListByOrg(ctx, tc.OrgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	out := quotes[:0]
	for _, q := range quotes {
		if q.OrgID != tc.OrgID {
			continue
		}
		if filter.Status != nil && q.Status != *filter.Status {
			continue
		}
		if filter.From != nil && q.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && q.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}
