package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the stored status of a quote. "expired" is a derived
// classification (ValidUntil elapsed) and is never stored.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusApproved QuoteStatus = "approved"
	QuoteStatusDeclined QuoteStatus = "declined"
)

// ValidQuoteStatus reports whether s is one of the stored quote statuses.
func ValidQuoteStatus(s QuoteStatus) bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusApproved, QuoteStatusDeclined:
		return true
	}
	return false
}

// LineItem is one billable line on a quote or invoice. Monetary amounts are
// cents.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// SignatureMetadata records who approved a quote and from where.
type SignatureMetadata struct {
	SignerName string    `json:"signer_name"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	SignedAt   time.Time `json:"signed_at"`
}

// Quote is a priced proposal for a client. Number is a per-organization
// monotonic sequence (Q-000001). Transition timestamps are stamped by the
// lifecycle state machine, never by direct input.
type Quote struct {
	QuoteID         uuid.UUID // UUIDv7
	OrgID           uuid.UUID
	ClientID        uuid.UUID
	ProjectID       *uuid.UUID
	Number          string
	Title           string
	LineItems       []LineItem
	DiscountPercent int64 // 0..100
	Total           int64 // cents, after discount
	ValidUntil      *time.Time
	Status          QuoteStatus
	SentAt          *time.Time
	ApprovedAt      *time.Time
	DeclinedAt      *time.Time
	Signature       *SignatureMetadata
	ShareToken      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Expired reports the derived "expired" classification: a sent quote whose
// ValidUntil has elapsed. Stored status is untouched.
func (q *Quote) Expired(now time.Time) bool {
	return q.Status == QuoteStatusSent && q.ValidUntil != nil && q.ValidUntil.Before(now)
}

// SubtotalCents returns the line-item total before discount.
func (q *Quote) SubtotalCents() int64 {
	var total int64
	for _, li := range q.LineItems {
		total += li.Quantity * li.UnitPrice
	}
	return total
}
