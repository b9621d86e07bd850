package service

import (
	"context"
	"fmt"
	"time"

	"github.com/centriq-hq/centriq/internal/aggindex"
	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// QuoteStats aggregates the tenant's quotes by status. Monetary values are
// cents.
type QuoteStats struct {
	DraftCount    int64
	SentCount     int64
	SentValue     int64
	ApprovedCount int64
	ApprovedValue int64
	DeclinedCount int64
}

// InvoiceStats aggregates the tenant's invoices. OutstandingValue is the sum
// of sent invoices; OverdueCount uses the same derivation as
// ListOverdueInvoices, so the two always agree.
type InvoiceStats struct {
	DraftCount       int64
	SentCount        int64
	OutstandingValue int64
	PaidCount        int64
	PaidValue        int64
	OverdueCount     int64
	OverdueValue     int64
}

// TaskStats aggregates the tenant's open tasks. Overdue counts tasks with a
// due date in the past that are not done.
type TaskStats struct {
	TodoCount       int64
	InProgressCount int64
	DoneCount       int64
	OverdueCount    int64
}

// RevenueStats compares paid invoice value inside a window against the
// organization's annual target. TargetCents of 0 means no target is set.
type RevenueStats struct {
	WindowStart time.Time
	WindowEnd   time.Time
	PaidValue   int64
	TargetCents int64
}

// DashboardStats is the aggregate snapshot behind the dashboard, served from
// the order-statistics indexes without scanning record tables.
type DashboardStats struct {
	Quotes   QuoteStats
	Invoices InvoiceStats
	Tasks    TaskStats
	Revenue  RevenueStats
}

// GetDashboardStats assembles the tenant's dashboard snapshot. Status counts
// and sums come from the aggregate indexes in O(log n) per figure; the
// overdue invoice figures reuse the derived classification so they match the
// overdue list row for row.
func (s *Service) GetDashboardStats(ctx context.Context, tc tenant.Context, now time.Time) (*DashboardStats, error) {
	org, err := s.stores.Organizations.Get(ctx, tc.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	stats := &DashboardStats{}

	qs := &stats.Quotes
	qs.DraftCount = s.indexes.Quotes.Count(tc.OrgID, aggindex.Prefix(aggindex.String(string(models.QuoteStatusDraft))))
	sentBounds := aggindex.Prefix(aggindex.String(string(models.QuoteStatusSent)))
	qs.SentCount = s.indexes.Quotes.Count(tc.OrgID, sentBounds)
	qs.SentValue = s.indexes.Quotes.Sum(tc.OrgID, sentBounds)
	approvedBounds := aggindex.Prefix(aggindex.String(string(models.QuoteStatusApproved)))
	qs.ApprovedCount = s.indexes.Quotes.Count(tc.OrgID, approvedBounds)
	qs.ApprovedValue = s.indexes.Quotes.Sum(tc.OrgID, approvedBounds)
	qs.DeclinedCount = s.indexes.Quotes.Count(tc.OrgID, aggindex.Prefix(aggindex.String(string(models.QuoteStatusDeclined))))

	is := &stats.Invoices
	is.DraftCount = s.indexes.Invoices.Count(tc.OrgID, aggindex.Prefix(aggindex.String(string(models.InvoiceStatusDraft))))
	outstandingBounds := aggindex.Prefix(aggindex.String(string(models.InvoiceStatusSent)))
	is.SentCount = s.indexes.Invoices.Count(tc.OrgID, outstandingBounds)
	is.OutstandingValue = s.indexes.Invoices.Sum(tc.OrgID, outstandingBounds)
	paidBounds := aggindex.Prefix(aggindex.String(string(models.InvoiceStatusPaid)))
	is.PaidCount = s.indexes.Invoices.Count(tc.OrgID, paidBounds)
	is.PaidValue = s.indexes.Invoices.Sum(tc.OrgID, paidBounds)

	// Overdue depends on the due date, which is not part of the index key, so
	// these two figures come from the shared derivation over sent invoices.
	overdue, err := s.ListOverdueInvoices(ctx, tc)
	if err != nil {
		return nil, err
	}
	is.OverdueCount = int64(len(overdue))
	for _, inv := range overdue {
		is.OverdueValue += inv.Total
	}

	ts := &stats.Tasks
	ts.TodoCount = s.indexes.Tasks.Count(tc.OrgID, aggindex.Prefix(aggindex.String(string(models.TaskStatusTodo))))
	ts.InProgressCount = s.indexes.Tasks.Count(tc.OrgID, aggindex.Prefix(aggindex.String(string(models.TaskStatusInProgress))))
	ts.DoneCount = s.indexes.Tasks.Count(tc.OrgID, aggindex.Prefix(aggindex.String(string(models.TaskStatusDone))))
	for _, status := range []models.TaskStatus{models.TaskStatusTodo, models.TaskStatusInProgress} {
		ts.OverdueCount += s.indexes.Tasks.Count(tc.OrgID, aggindex.Range(
			aggindex.Incl(aggindex.String(string(status))),
			aggindex.Excl(aggindex.String(string(status)), aggindex.Time(now)),
		))
	}

	// Revenue window: the calendar year containing now, measured over the
	// creation time carried in the index key.
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	yearEnd := yearStart.AddDate(1, 0, 0)
	stats.Revenue = RevenueStats{
		WindowStart: yearStart,
		WindowEnd:   yearEnd,
		TargetCents: org.RevenueTarget,
		PaidValue: s.indexes.Invoices.Sum(tc.OrgID, aggindex.Range(
			aggindex.Incl(aggindex.String(string(models.InvoiceStatusPaid)), aggindex.Time(yearStart)),
			aggindex.Excl(aggindex.String(string(models.InvoiceStatusPaid)), aggindex.Time(yearEnd)),
		)),
	}

	return stats, nil
}

// QuoteValueInWindow sums quotes of one status created inside [from, to).
func (s *Service) QuoteValueInWindow(tc tenant.Context, status models.QuoteStatus, from, to time.Time) int64 {
	return s.indexes.Quotes.Sum(tc.OrgID, aggindex.Range(
		aggindex.Incl(aggindex.String(string(status)), aggindex.Time(from)),
		aggindex.Excl(aggindex.String(string(status)), aggindex.Time(to)),
	))
}

// InvoiceValueInWindow sums invoices of one status created inside [from, to).
func (s *Service) InvoiceValueInWindow(tc tenant.Context, status models.InvoiceStatus, from, to time.Time) int64 {
	return s.indexes.Invoices.Sum(tc.OrgID, aggindex.Range(
		aggindex.Incl(aggindex.String(string(status)), aggindex.Time(from)),
		aggindex.Excl(aggindex.String(string(status)), aggindex.Time(to)),
	))
}
