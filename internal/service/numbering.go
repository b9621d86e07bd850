package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/centriq-hq/centriq/internal/tenant"
)

// Quote and invoice numbers are per-organization monotonic sequences
// (Q-000001, INV-000001). The fast path increments the counter held on the
// organization row. Organizations that predate the counters come back with a
// fresh counter of 1; for those the existing records are scanned once and the
// counter is bumped past the highest number already issued (migration path).

func parseSequence(number, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(number, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Service) nextQuoteNumber(ctx context.Context, tc tenant.Context) (string, error) {
	seq, err := s.stores.Organizations.NextQuoteNumber(ctx, tc.OrgID)
	if err != nil {
		return "", fmt.Errorf("failed to advance quote counter: %w", err)
	}

	if seq == 1 {
		quotes, err := s.stores.Quotes.ListByOrg(ctx, tc.OrgID)
		if err != nil {
			return "", fmt.Errorf("failed to scan existing quote numbers: %w", err)
		}
		var max int64
		for _, q := range quotes {
			if n, ok := parseSequence(q.Number, "Q-"); ok && n > max {
				max = n
			}
		}
		if max >= seq {
			seq = max + 1
			if err := s.stores.Organizations.SetQuoteCounter(ctx, tc.OrgID, seq); err != nil {
				return "", fmt.Errorf("failed to reconcile quote counter: %w", err)
			}
			log.Info().
				Str("org_id", tc.OrgID.String()).
				Int64("counter", seq).
				Msg("Reconciled quote counter from existing records")
		}
	}

	return fmt.Sprintf("Q-%06d", seq), nil
}

func (s *Service) nextInvoiceNumber(ctx context.Context, tc tenant.Context) (string, error) {
	seq, err := s.stores.Organizations.NextInvoiceNumber(ctx, tc.OrgID)
	if err != nil {
		return "", fmt.Errorf("failed to advance invoice counter: %w", err)
	}

	if seq == 1 {
		invoices, err := s.stores.Invoices.ListByOrg(ctx, tc.OrgID)
		if err != nil {
			return "", fmt.Errorf("failed to scan existing invoice numbers: %w", err)
		}
		var max int64
		for _, inv := range invoices {
			if n, ok := parseSequence(inv.Number, "INV-"); ok && n > max {
				max = n
			}
		}
		if max >= seq {
			seq = max + 1
			if err := s.stores.Organizations.SetInvoiceCounter(ctx, tc.OrgID, seq); err != nil {
				return "", fmt.Errorf("failed to reconcile invoice counter: %w", err)
			}
			log.Info().
				Str("org_id", tc.OrgID.String()).
				Int64("counter", seq).
				Msg("Reconciled invoice counter from existing records")
		}
	}

	return fmt.Sprintf("INV-%06d", seq), nil
}
