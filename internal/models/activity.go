package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity type names used in activity rows, notifications, and entity refs.
const (
	EntityTypeClient       = "client"
	EntityTypeProject      = "project"
	EntityTypeQuote        = "quote"
	EntityTypeInvoice      = "invoice"
	EntityTypeTask         = "task"
	EntityTypeNotification = "notification"
)

// EntityRef points at one record of a named entity kind.
type EntityRef struct {
	Type string
	ID   uuid.UUID
}

// Activity is one immutable audit-trail row. Rows are only ever appended;
// nothing in the system updates or deletes them.
type Activity struct {
	ActivityID   uuid.UUID // UUIDv7; creation order follows id order
	OrgID        uuid.UUID
	UserID       uuid.UUID
	ActivityType string
	EntityType   string
	EntityID     uuid.UUID
	Description  string
	Metadata     map[string]any
	CreatedAt    time.Time
}
