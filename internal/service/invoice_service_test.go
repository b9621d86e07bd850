package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/centriq-hq/centriq/internal/aggindex"
	"github.com/centriq-hq/centriq/internal/models"
)

func TestCreateInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	invoice, err := f.svc.CreateInvoice(ctx, f.tc, CreateInvoiceCmd{
		ClientID: client.ClientID,
		LineItems: []models.LineItem{
			{Description: "Milestone 1", Quantity: 1, UnitPrice: 150000},
		},
		DueDate: time.Now().AddDate(0, 0, 30),
	})
	require.NoError(t, err)

	require.Equal(t, "INV-000001", invoice.Number)
	require.Equal(t, models.InvoiceStatusDraft, invoice.Status)
	require.Equal(t, int64(150000), invoice.Total)
	require.NotEmpty(t, invoice.ShareToken)

	require.Equal(t, int64(1), f.svc.indexes.Invoices.Count(f.tc.OrgID, aggindex.Unbounded()))
}

func TestCreateInvoiceFromQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	quote, err := f.svc.CreateQuote(ctx, f.tc, CreateQuoteCmd{
		ClientID: client.ClientID,
		Title:    "Discounted engagement",
		LineItems: []models.LineItem{
			{Description: "Work", Quantity: 4, UnitPrice: 25000},
		},
		DiscountPercent: 25,
	})
	require.NoError(t, err)
	require.Equal(t, int64(75000), quote.Total)

	due := time.Now().AddDate(0, 0, 14)

	// Only approved quotes convert.
	_, err = f.svc.CreateInvoiceFromQuote(ctx, f.tc, quote.QuoteID, due)
	require.ErrorIs(t, err, ErrIllegalTransition)

	_, err = f.svc.SendQuote(ctx, f.tc, quote.QuoteID)
	require.NoError(t, err)
	_, err = f.svc.ApproveQuote(ctx, f.tc, quote.QuoteID, models.SignatureMetadata{SignerName: "C. Burns"})
	require.NoError(t, err)

	invoice, err := f.svc.CreateInvoiceFromQuote(ctx, f.tc, quote.QuoteID, due)
	require.NoError(t, err)

	require.Equal(t, quote.Total, invoice.Total)
	require.NotNil(t, invoice.QuoteID)
	require.Equal(t, quote.QuoteID, *invoice.QuoteID)
	require.Equal(t, quote.ClientID, invoice.ClientID)
}

func TestInvoiceLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	invoice, err := f.svc.CreateInvoice(ctx, f.tc, CreateInvoiceCmd{
		ClientID:  client.ClientID,
		LineItems: []models.LineItem{{Description: "Work", Quantity: 1, UnitPrice: 50000}},
		DueDate:   time.Now().AddDate(0, 0, 30),
	})
	require.NoError(t, err)

	_, err = f.svc.MarkInvoicePaid(ctx, f.tc, invoice.InvoiceID)
	require.ErrorIs(t, err, ErrIllegalTransition)

	sent, err := f.svc.SendInvoice(ctx, f.tc, invoice.InvoiceID)
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)

	paid, err := f.svc.MarkInvoicePaid(ctx, f.tc, invoice.InvoiceID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = f.svc.CancelInvoice(ctx, f.tc, invoice.InvoiceID)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestOverdueAgreesWithStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	mk := func(due time.Time, send bool) *models.Invoice {
		inv, err := f.svc.CreateInvoice(ctx, f.tc, CreateInvoiceCmd{
			ClientID:  client.ClientID,
			LineItems: []models.LineItem{{Description: "Work", Quantity: 1, UnitPrice: 10000}},
			DueDate:   due,
		})
		require.NoError(t, err)
		if send {
			inv, err = f.svc.SendInvoice(ctx, f.tc, inv.InvoiceID)
			require.NoError(t, err)
		}
		return inv
	}

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().AddDate(0, 0, 30)

	overdueInv := mk(past, true)
	mk(future, true)  // sent but not due
	mk(past, false)   // due but still draft
	paid := mk(past, true)
	_, err := f.svc.MarkInvoicePaid(ctx, f.tc, paid.InvoiceID)
	require.NoError(t, err)

	overdue, err := f.svc.ListOverdueInvoices(ctx, f.tc)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, overdueInv.InvoiceID, overdue[0].InvoiceID)

	stats, err := f.svc.GetDashboardStats(ctx, f.tc, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(len(overdue)), stats.Invoices.OverdueCount)
	require.Equal(t, overdueInv.Total, stats.Invoices.OverdueValue)
}
