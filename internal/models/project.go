package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the stored status of a project.
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// ValidProjectStatus reports whether s is one of the stored project statuses.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project is a body of work for a client. EndDate, when set, must not precede
// StartDate. CompletedAt is stamped by the lifecycle transition, never by
// direct input.
type Project struct {
	ProjectID   uuid.UUID // UUIDv7
	OrgID       uuid.UUID
	ClientID    uuid.UUID
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      ProjectStatus
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
