package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// CreateProjectCmd carries the validated fields for a new project.
type CreateProjectCmd struct {
	ClientID    uuid.UUID `validate:"required"`
	Name        string    `validate:"required,min=1,max=255"`
	Description string    `validate:"omitempty,max=10000"`
	StartDate   *time.Time
	EndDate     *time.Time
}

// UpdateProjectCmd patches mutable project fields; nil means untouched.
type UpdateProjectCmd struct {
	ClientID    *uuid.UUID
	Name        *string `validate:"omitempty,min=1,max=255"`
	Description *string `validate:"omitempty,max=10000"`
	StartDate   *time.Time
	EndDate     *time.Time
}

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	ClientID *uuid.UUID
	Status   *models.ProjectStatus
}

func checkProjectDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return &ValidationError{Field: "EndDate", Reason: "end date precedes start date"}
	}
	return nil
}

// CreateProject inserts a project after resolving its client within the
// caller's tenant.
func (s *Service) CreateProject(ctx context.Context, tc tenant.Context, cmd CreateProjectCmd) (*models.Project, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}
	if err := checkProjectDates(cmd.StartDate, cmd.EndDate); err != nil {
		return nil, err
	}
	if _, err := s.clientInTenant(ctx, tc, cmd.ClientID); err != nil {
		return nil, err
	}

	now := time.Now()
	project := &models.Project{
		ProjectID:   uuid.Must(uuid.NewV7()),
		OrgID:       tc.OrgID,
		ClientID:    cmd.ClientID,
		Name:        cmd.Name,
		Description: cmd.Description,
		StartDate:   cmd.StartDate,
		EndDate:     cmd.EndDate,
		Status:      models.ProjectStatusPlanning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.stores.Projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	err := s.recordActivity(ctx, tc, "project_created",
		models.EntityRef{Type: models.EntityTypeProject, ID: project.ProjectID},
		fmt.Sprintf("Created project %s", project.Name), nil)
	if err != nil {
		return nil, err
	}

	return project, nil
}

// GetProject returns one project after the ownership check.
func (s *Service) GetProject(ctx context.Context, tc tenant.Context, projectID uuid.UUID) (*models.Project, error) {
	return s.projectInTenant(ctx, tc, projectID)
}

// UpdateProject applies a field-level patch to an owned project, re-resolving
// any foreign key present in the patch.
func (s *Service) UpdateProject(ctx context.Context, tc tenant.Context, projectID uuid.UUID, cmd UpdateProjectCmd) (*models.Project, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}

	project, err := s.projectInTenant(ctx, tc, projectID)
	if err != nil {
		return nil, err
	}

	if cmd.ClientID != nil {
		if _, err := s.clientInTenant(ctx, tc, *cmd.ClientID); err != nil {
			return nil, err
		}
		project.ClientID = *cmd.ClientID
	}
	if cmd.Name != nil {
		project.Name = *cmd.Name
	}
	if cmd.Description != nil {
		project.Description = *cmd.Description
	}
	if cmd.StartDate != nil {
		project.StartDate = cmd.StartDate
	}
	if cmd.EndDate != nil {
		project.EndDate = cmd.EndDate
	}
	if err := checkProjectDates(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	if err := s.stores.Projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	err = s.recordActivity(ctx, tc, "project_updated",
		models.EntityRef{Type: models.EntityTypeProject, ID: project.ProjectID},
		fmt.Sprintf("Updated project %s", project.Name), nil)
	if err != nil {
		return nil, err
	}

	return project, nil
}

// TransitionProject moves a project to a new lifecycle status, stamping
// CompletedAt on completion and recording a transition-typed activity.
func (s *Service) TransitionProject(ctx context.Context, tc tenant.Context, projectID uuid.UUID, target models.ProjectStatus) (*models.Project, error) {
	if !models.ValidProjectStatus(target) {
		return nil, &ValidationError{Field: "Status", Reason: fmt.Sprintf("unknown status %q", target)}
	}

	project, err := s.projectInTenant(ctx, tc, projectID)
	if err != nil {
		return nil, err
	}

	if project.Status == target {
		// Same-status write: no transition fires, timestamps stay put.
		return project, nil
	}
	if !projectTransitionAllowed(project.Status, target) {
		return nil, fmt.Errorf("project %s -> %s: %w", project.Status, target, ErrIllegalTransition)
	}

	stampProjectTransition(project, target, time.Now())

	if err := s.stores.Projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	err = s.recordActivity(ctx, tc, "project_"+string(target),
		models.EntityRef{Type: models.EntityTypeProject, ID: project.ProjectID},
		fmt.Sprintf("Project %s is now %s", project.Name, target), nil)
	if err != nil {
		return nil, err
	}

	return project, nil
}

// DeleteProject removes a project when no tasks, quotes, or invoices still
// reference it.
func (s *Service) DeleteProject(ctx context.Context, tc tenant.Context, projectID uuid.UUID) error {
	project, err := s.projectInTenant(ctx, tc, projectID)
	if err != nil {
		return err
	}

	tasks, err := s.stores.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to check dependent tasks: %w", err)
	}
	if len(tasks) > 0 {
		return fmt.Errorf("project has %d tasks: %w", len(tasks), ErrHasDependents)
	}

	quotes, err := s.stores.Quotes.ListByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to check dependent quotes: %w", err)
	}
	if len(quotes) > 0 {
		return fmt.Errorf("project has %d quotes: %w", len(quotes), ErrHasDependents)
	}

	invoices, err := s.stores.Invoices.ListByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to check dependent invoices: %w", err)
	}
	if len(invoices) > 0 {
		return fmt.Errorf("project has %d invoices: %w", len(invoices), ErrHasDependents)
	}

	if err := s.stores.Projects.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return s.recordActivity(ctx, tc, "project_deleted",
		models.EntityRef{Type: models.EntityTypeProject, ID: projectID},
		fmt.Sprintf("Deleted project %s", project.Name), nil)
}

// ListProjects returns the tenant's projects, using the client index when a
// client filter is present, newest-first.
func (s *Service) ListProjects(ctx context.Context, tc tenant.Context, filter ProjectFilter) ([]*models.Project, error) {
	var (
		projects []*models.Project
		err      error
	)

	// Most selective index first: client, then tenant-wide.
	switch {
	case filter.ClientID != nil:
		if _, err := s.clientInTenant(ctx, tc, *filter.ClientID); err != nil {
			return nil, err
		}
		projects, err = s.stores.Projects.ListByClient(ctx, *filter.ClientID)
	default:
		projects, err = s.stores.Projects.ListByOrg(ctx, tc.OrgID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	if filter.Status == nil {
		return projects, nil
	}

	out := projects[:0]
	for _, p := range projects {
		if p.Status == *filter.Status {
			out = append(out, p)
		}
	}
	return out, nil
}
