package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const backfillPageSize = 500

// BackfillIndexes rebuilds every aggregate index from the record tables. The
// indexes are reset first, then each table is walked in id-page order and
// re-inserted. Run on startup or after an index is suspected stale; callers
// must not serve aggregate reads concurrently.
func (s *Service) BackfillIndexes(ctx context.Context) error {
	start := time.Now()

	s.indexes.Quotes.Reset()
	s.indexes.Invoices.Reset()
	s.indexes.Tasks.Reset()

	var quotes, invoices, tasks int

	afterID := uuid.Nil
	for {
		page, err := s.stores.Quotes.ListPage(ctx, afterID, backfillPageSize)
		if err != nil {
			return fmt.Errorf("failed to page quotes: %w", err)
		}
		for _, q := range page {
			if err := s.indexes.Quotes.Insert(q); err != nil {
				return fmt.Errorf("failed to backfill quote %s: %w", q.QuoteID, err)
			}
			afterID = q.QuoteID
			quotes++
		}
		if len(page) < backfillPageSize {
			break
		}
	}

	afterID = uuid.Nil
	for {
		page, err := s.stores.Invoices.ListPage(ctx, afterID, backfillPageSize)
		if err != nil {
			return fmt.Errorf("failed to page invoices: %w", err)
		}
		for _, inv := range page {
			if err := s.indexes.Invoices.Insert(inv); err != nil {
				return fmt.Errorf("failed to backfill invoice %s: %w", inv.InvoiceID, err)
			}
			afterID = inv.InvoiceID
			invoices++
		}
		if len(page) < backfillPageSize {
			break
		}
	}

	afterID = uuid.Nil
	for {
		page, err := s.stores.Tasks.ListPage(ctx, afterID, backfillPageSize)
		if err != nil {
			return fmt.Errorf("failed to page tasks: %w", err)
		}
		for _, t := range page {
			if err := s.indexes.Tasks.Insert(t); err != nil {
				return fmt.Errorf("failed to backfill task %s: %w", t.TaskID, err)
			}
			afterID = t.TaskID
			tasks++
		}
		if len(page) < backfillPageSize {
			break
		}
	}

	log.Info().
		Int("quotes", quotes).
		Int("invoices", invoices).
		Int("tasks", tasks).
		Dur("elapsed", time.Since(start)).
		Msg("Rebuilt aggregate indexes")

	return nil
}
