package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant. Every other record in the system carries
// the OrgID of exactly one organization, and no query crosses that boundary.
type Organization struct {
	OrgID             uuid.UUID // UUIDv7
	Name              string
	RevenueTarget     int64 // cents per year; 0 means no target set
	LastQuoteNumber   int64 // monotonic counter backing quote numbering
	LastInvoiceNumber int64 // monotonic counter backing invoice numbering
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Membership joins a user to an organization with a free-form role string.
type Membership struct {
	UserID    uuid.UUID
	OrgID     uuid.UUID
	Role      string
	CreatedAt time.Time
}

// IsAdmin reports whether the membership role grants admin rights. Roles are
// free-form strings, tested by substring match ("admin", "org-admin", ...).
func (m *Membership) IsAdmin() bool {
	return strings.Contains(strings.ToLower(m.Role), "admin")
}

// User holds the display fields resolved when rendering mentions and feeds.
type User struct {
	UserID    uuid.UUID // UUIDv7
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
