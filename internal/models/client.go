package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientStatus is the stored status of a client record.
type ClientStatus string

const (
	ClientStatusLead     ClientStatus = "lead"
	ClientStatusActive   ClientStatus = "active"
	ClientStatusArchived ClientStatus = "archived"
)

// ValidClientStatus reports whether s is one of the stored client statuses.
func ValidClientStatus(s ClientStatus) bool {
	switch s {
	case ClientStatusLead, ClientStatusActive, ClientStatusArchived:
		return true
	}
	return false
}

// Client is a customer record owned by one organization.
type Client struct {
	ClientID  uuid.UUID // UUIDv7
	OrgID     uuid.UUID
	Name      string
	Email     string
	Phone     string
	Company   string
	Notes     string
	Status    ClientStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
