package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/centriq-hq/centriq/internal/aggindex"
	"github.com/centriq-hq/centriq/internal/models"
)

func TestCreateQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	quote, err := f.svc.CreateQuote(ctx, f.tc, CreateQuoteCmd{
		ClientID: client.ClientID,
		Title:    "Website rebuild",
		LineItems: []models.LineItem{
			{Description: "Design", Quantity: 2, UnitPrice: 50000},
			{Description: "Build", Quantity: 10, UnitPrice: 20000},
		},
		DiscountPercent: 10,
	})
	require.NoError(t, err)

	require.Equal(t, "Q-000001", quote.Number)
	require.Equal(t, models.QuoteStatusDraft, quote.Status)
	require.NotEmpty(t, quote.ShareToken)
	// (2*500 + 10*200) * 0.9 = 2700.00
	require.Equal(t, int64(270000), quote.Total)
	require.Nil(t, quote.SentAt)

	second := f.createQuote(t, ctx, f.tc, client.ClientID, 100)
	require.Equal(t, "Q-000002", second.Number)

	// One indexed entry per quote, totals summed per tenant.
	require.Equal(t, int64(2), f.svc.indexes.Quotes.Count(f.tc.OrgID, aggindex.Unbounded()))
	require.Equal(t, int64(270100), f.svc.indexes.Quotes.Sum(f.tc.OrgID, aggindex.Unbounded()))
	require.Equal(t, int64(0), f.svc.indexes.Quotes.Count(f.other.OrgID, aggindex.Unbounded()))
}

func TestCreateQuoteRejectsBadLineItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	tests := []struct {
		name  string
		items []models.LineItem
	}{
		{name: "empty", items: nil},
		{name: "zero quantity", items: []models.LineItem{{Description: "Work", Quantity: 0, UnitPrice: 100}}},
		{name: "negative price", items: []models.LineItem{{Description: "Work", Quantity: 1, UnitPrice: -1}}},
		{name: "missing description", items: []models.LineItem{{Quantity: 1, UnitPrice: 100}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateQuote(ctx, f.tc, CreateQuoteCmd{
				ClientID:  client.ClientID,
				Title:     "Bad",
				LineItems: tt.items,
			})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestQuoteLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)
	quote := f.createQuote(t, ctx, f.tc, client.ClientID, 10000)

	// draft -> approved is not reachable.
	_, err := f.svc.ApproveQuote(ctx, f.tc, quote.QuoteID, models.SignatureMetadata{SignerName: "C. Burns"})
	require.ErrorIs(t, err, ErrIllegalTransition)

	sent, err := f.svc.SendQuote(ctx, f.tc, quote.QuoteID)
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	firstSentAt := *sent.SentAt

	// Sending an already-sent quote is a silent no-op; SentAt is untouched.
	again, err := f.svc.SendQuote(ctx, f.tc, quote.QuoteID)
	require.NoError(t, err)
	require.NotNil(t, again.SentAt)
	require.Equal(t, firstSentAt, *again.SentAt)

	approved, err := f.svc.ApproveQuote(ctx, f.tc, quote.QuoteID, models.SignatureMetadata{
		SignerName: "C. Burns",
		IPAddress:  "203.0.113.9",
	})
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.Signature)
	require.Equal(t, "C. Burns", approved.Signature.SignerName)
	require.False(t, approved.Signature.SignedAt.IsZero())

	// approved is terminal.
	_, err = f.svc.DeclineQuote(ctx, f.tc, quote.QuoteID)
	require.ErrorIs(t, err, ErrIllegalTransition)

	// The index entry followed the status across transitions.
	require.Equal(t, int64(1), f.svc.indexes.Quotes.Count(f.tc.OrgID,
		aggindex.Prefix(aggindex.String(string(models.QuoteStatusApproved)))))
	require.Equal(t, int64(0), f.svc.indexes.Quotes.Count(f.tc.OrgID,
		aggindex.Prefix(aggindex.String(string(models.QuoteStatusDraft)))))
}

func TestUpdateQuoteRecomputesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)
	quote := f.createQuote(t, ctx, f.tc, client.ClientID, 10000)

	updated, err := f.svc.UpdateQuote(ctx, f.tc, quote.QuoteID, UpdateQuoteCmd{
		LineItems: []models.LineItem{{Description: "More work", Quantity: 3, UnitPrice: 10000}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(30000), updated.Total)

	require.Equal(t, int64(30000), f.svc.indexes.Quotes.Sum(f.tc.OrgID, aggindex.Unbounded()))
	require.Equal(t, int64(1), f.svc.indexes.Quotes.Count(f.tc.OrgID, aggindex.Unbounded()))
}

func TestDeleteQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)
	quote := f.createQuote(t, ctx, f.tc, client.ClientID, 10000)

	// An invoice generated from the quote blocks deletion.
	_, err := f.svc.SendQuote(ctx, f.tc, quote.QuoteID)
	require.NoError(t, err)
	_, err = f.svc.ApproveQuote(ctx, f.tc, quote.QuoteID, models.SignatureMetadata{SignerName: "C. Burns"})
	require.NoError(t, err)
	invoice, err := f.svc.CreateInvoiceFromQuote(ctx, f.tc, quote.QuoteID, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)

	err = f.svc.DeleteQuote(ctx, f.tc, quote.QuoteID)
	require.ErrorIs(t, err, ErrHasDependents)

	require.NoError(t, f.svc.DeleteInvoice(ctx, f.tc, invoice.InvoiceID))
	require.NoError(t, f.svc.DeleteQuote(ctx, f.tc, quote.QuoteID))

	require.Equal(t, int64(0), f.svc.indexes.Quotes.Count(f.tc.OrgID, aggindex.Unbounded()))
}

func TestListQuotesFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)
	otherClient := f.createClient(t, ctx, f.tc)

	q1 := f.createQuote(t, ctx, f.tc, client.ClientID, 100)
	f.createQuote(t, ctx, f.tc, otherClient.ClientID, 200)
	_, err := f.svc.SendQuote(ctx, f.tc, q1.QuoteID)
	require.NoError(t, err)

	byClient, err := f.svc.ListQuotes(ctx, f.tc, QuoteFilter{ClientID: &client.ClientID})
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	require.Equal(t, q1.QuoteID, byClient[0].QuoteID)

	sent := models.QuoteStatusSent
	byStatus, err := f.svc.ListQuotes(ctx, f.tc, QuoteFilter{Status: &sent})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)

	all, err := f.svc.ListQuotes(ctx, f.tc, QuoteFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	none, err := f.svc.ListQuotes(ctx, f.other, QuoteFilter{})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetQuoteByShareToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)
	quote := f.createQuote(t, ctx, f.tc, client.ClientID, 10000)

	got, err := f.svc.GetQuoteByShareToken(ctx, quote.ShareToken)
	require.NoError(t, err)
	require.Equal(t, quote.QuoteID, got.QuoteID)

	_, err = f.svc.GetQuoteByShareToken(ctx, "no-such-token")
	require.Error(t, err)
}

func TestQuoteNumberingMigratesFromExistingRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	// Records written before the counter existed: highest issued is Q-000007.
	for _, number := range []string{"Q-000003", "Q-000007", "garbled"} {
		legacy := f.createQuote(t, ctx, f.tc, client.ClientID, 100)
		legacy.Number = number
		require.NoError(t, f.svc.stores.Quotes.Update(ctx, legacy))
	}
	require.NoError(t, f.svc.stores.Organizations.SetQuoteCounter(ctx, f.tc.OrgID, 0))

	quote := f.createQuote(t, ctx, f.tc, client.ClientID, 100)
	require.Equal(t, "Q-000008", quote.Number)

	next := f.createQuote(t, ctx, f.tc, client.ClientID, 100)
	require.Equal(t, "Q-000009", next.Number)
}

func TestQuoteExpiredIsDerived(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	q := &models.Quote{Status: models.QuoteStatusSent, ValidUntil: &past}
	require.True(t, q.Expired(now))

	q.ValidUntil = &future
	require.False(t, q.Expired(now))

	// Only sent quotes expire.
	q = &models.Quote{Status: models.QuoteStatusDraft, ValidUntil: &past}
	require.False(t, q.Expired(now))
}
