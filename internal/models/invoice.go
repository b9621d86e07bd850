package models

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is the stored status of an invoice. "overdue" is a derived
// classification and is never stored.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// ValidInvoiceStatus reports whether s is one of the stored invoice statuses.
func ValidInvoiceStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoice bills a client, optionally tied to a project or an approved quote.
// Number is a per-organization monotonic sequence (INV-000001).
type Invoice struct {
	InvoiceID  uuid.UUID // UUIDv7
	OrgID      uuid.UUID
	ClientID   uuid.UUID
	ProjectID  *uuid.UUID
	QuoteID    *uuid.UUID
	Number     string
	LineItems  []LineItem
	Total      int64 // cents
	DueDate    time.Time
	Status     InvoiceStatus
	SentAt     *time.Time
	PaidAt     *time.Time
	ShareToken string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Overdue reports the derived "overdue" classification: a sent invoice whose
// due date has passed. This is the single derivation shared by the statistics
// query and the overdue list, which must agree.
func (i *Invoice) Overdue(now time.Time) bool {
	return i.Status == InvoiceStatusSent && i.DueDate.Before(now)
}
