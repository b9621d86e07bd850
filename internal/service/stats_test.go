package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/centriq-hq/centriq/internal/aggindex"
	"github.com/centriq-hq/centriq/internal/models"
)

func TestGetDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)
	now := time.Now()

	// Two quotes: one approved at 500.00, one still draft at 100.00.
	q1 := f.createQuote(t, ctx, f.tc, client.ClientID, 50000)
	_, err := f.svc.SendQuote(ctx, f.tc, q1.QuoteID)
	require.NoError(t, err)
	_, err = f.svc.ApproveQuote(ctx, f.tc, q1.QuoteID, models.SignatureMetadata{SignerName: "C. Burns"})
	require.NoError(t, err)
	f.createQuote(t, ctx, f.tc, client.ClientID, 10000)

	// Invoices: one paid at 300.00, one outstanding at 200.00.
	mkInvoice := func(total int64) *models.Invoice {
		inv, err := f.svc.CreateInvoice(ctx, f.tc, CreateInvoiceCmd{
			ClientID:  client.ClientID,
			LineItems: []models.LineItem{{Description: "Work", Quantity: 1, UnitPrice: total}},
			DueDate:   now.AddDate(0, 0, 30),
		})
		require.NoError(t, err)
		_, err = f.svc.SendInvoice(ctx, f.tc, inv.InvoiceID)
		require.NoError(t, err)
		return inv
	}
	paid := mkInvoice(30000)
	_, err = f.svc.MarkInvoicePaid(ctx, f.tc, paid.InvoiceID)
	require.NoError(t, err)
	mkInvoice(20000)

	// Tasks: one open and overdue, one open and future, one done.
	pastDue := now.Add(-24 * time.Hour)
	futureDue := now.AddDate(0, 0, 3)
	_, err = f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: "Late", DueDate: &pastDue})
	require.NoError(t, err)
	_, err = f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: "Upcoming", DueDate: &futureDue})
	require.NoError(t, err)
	doneTask, err := f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: "Finished"})
	require.NoError(t, err)
	_, err = f.svc.TransitionTask(ctx, f.tc, doneTask.TaskID, models.TaskStatusDone)
	require.NoError(t, err)

	stats, err := f.svc.GetDashboardStats(ctx, f.tc, now)
	require.NoError(t, err)

	require.Equal(t, int64(1), stats.Quotes.DraftCount)
	require.Equal(t, int64(1), stats.Quotes.ApprovedCount)
	require.Equal(t, int64(50000), stats.Quotes.ApprovedValue)

	require.Equal(t, int64(1), stats.Invoices.SentCount)
	require.Equal(t, int64(20000), stats.Invoices.OutstandingValue)
	require.Equal(t, int64(1), stats.Invoices.PaidCount)
	require.Equal(t, int64(30000), stats.Invoices.PaidValue)
	require.Equal(t, int64(0), stats.Invoices.OverdueCount)

	require.Equal(t, int64(2), stats.Tasks.TodoCount)
	require.Equal(t, int64(1), stats.Tasks.DoneCount)
	require.Equal(t, int64(1), stats.Tasks.OverdueCount)

	require.Equal(t, int64(30000), stats.Revenue.PaidValue)

	// The second tenant sees an empty dashboard.
	otherStats, err := f.svc.GetDashboardStats(ctx, f.other, now)
	require.NoError(t, err)
	require.Zero(t, otherStats.Quotes.DraftCount)
	require.Zero(t, otherStats.Invoices.PaidValue)
	require.Zero(t, otherStats.Tasks.TodoCount)
}

func TestBackfillIndexesRebuildsFromStores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.createClient(t, ctx, f.tc)

	for i := 0; i < 25; i++ {
		f.createQuote(t, ctx, f.tc, client.ClientID, 1000)
	}
	inv, err := f.svc.CreateInvoice(ctx, f.tc, CreateInvoiceCmd{
		ClientID:  client.ClientID,
		LineItems: []models.LineItem{{Description: "Work", Quantity: 1, UnitPrice: 5000}},
		DueDate:   time.Now().AddDate(0, 0, 30),
	})
	require.NoError(t, err)
	_, err = f.svc.CreateTask(ctx, f.tc, CreateTaskCmd{Title: "One"})
	require.NoError(t, err)

	wantQuoteSum := f.svc.indexes.Quotes.Sum(f.tc.OrgID, aggindex.Unbounded())

	// Simulate a restart with empty in-memory indexes.
	f.svc.indexes.Quotes.Reset()
	f.svc.indexes.Invoices.Reset()
	f.svc.indexes.Tasks.Reset()
	require.Zero(t, f.svc.indexes.Quotes.Count(f.tc.OrgID, aggindex.Unbounded()))

	require.NoError(t, f.svc.BackfillIndexes(ctx))

	require.Equal(t, int64(25), f.svc.indexes.Quotes.Count(f.tc.OrgID, aggindex.Unbounded()))
	require.Equal(t, wantQuoteSum, f.svc.indexes.Quotes.Sum(f.tc.OrgID, aggindex.Unbounded()))
	require.Equal(t, int64(1), f.svc.indexes.Invoices.Count(f.tc.OrgID, aggindex.Unbounded()))
	require.Equal(t, inv.Total, f.svc.indexes.Invoices.Sum(f.tc.OrgID, aggindex.Unbounded()))
	require.Equal(t, int64(1), f.svc.indexes.Tasks.Count(f.tc.OrgID, aggindex.Unbounded()))
}
