package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// CreateClientCmd carries the validated fields for a new client.
type CreateClientCmd struct {
	Name    string              `validate:"required,min=1,max=255"`
	Email   string              `validate:"omitempty,email"`
	Phone   string              `validate:"omitempty,max=50"`
	Company string              `validate:"omitempty,max=255"`
	Notes   string              `validate:"omitempty,max=10000"`
	Status  models.ClientStatus `validate:"omitempty"`
}

// UpdateClientCmd patches mutable client fields; nil means untouched.
type UpdateClientCmd struct {
	Name    *string              `validate:"omitempty,min=1,max=255"`
	Email   *string              `validate:"omitempty,email"`
	Phone   *string              `validate:"omitempty,max=50"`
	Company *string              `validate:"omitempty,max=255"`
	Notes   *string              `validate:"omitempty,max=10000"`
	Status  *models.ClientStatus `validate:"omitempty"`
}

// ClientFilter narrows ListClients.
type ClientFilter struct {
	Status *models.ClientStatus
}

// CreateClient inserts a client stamped with the caller's tenant.
func (s *Service) CreateClient(ctx context.Context, tc tenant.Context, cmd CreateClientCmd) (*models.Client, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}

	status := cmd.Status
	if status == "" {
		status = models.ClientStatusLead
	}
	if !models.ValidClientStatus(status) {
		return nil, &ValidationError{Field: "Status", Reason: fmt.Sprintf("unknown status %q", status)}
	}

	now := time.Now()
	client := &models.Client{
		ClientID:  uuid.Must(uuid.NewV7()),
		OrgID:     tc.OrgID,
		Name:      cmd.Name,
		Email:     cmd.Email,
		Phone:     cmd.Phone,
		Company:   cmd.Company,
		Notes:     cmd.Notes,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.stores.Clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	err := s.recordActivity(ctx, tc, "client_created",
		models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID},
		fmt.Sprintf("Created client %s", client.Name), nil)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// GetClient returns one client after the ownership check.
func (s *Service) GetClient(ctx context.Context, tc tenant.Context, clientID uuid.UUID) (*models.Client, error) {
	return s.clientInTenant(ctx, tc, clientID)
}

// UpdateClient applies a field-level patch to an owned client.
func (s *Service) UpdateClient(ctx context.Context, tc tenant.Context, clientID uuid.UUID, cmd UpdateClientCmd) (*models.Client, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}

	client, err := s.clientInTenant(ctx, tc, clientID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		client.Name = *cmd.Name
	}
	if cmd.Email != nil {
		client.Email = *cmd.Email
	}
	if cmd.Phone != nil {
		client.Phone = *cmd.Phone
	}
	if cmd.Company != nil {
		client.Company = *cmd.Company
	}
	if cmd.Notes != nil {
		client.Notes = *cmd.Notes
	}
	if cmd.Status != nil {
		if !models.ValidClientStatus(*cmd.Status) {
			return nil, &ValidationError{Field: "Status", Reason: fmt.Sprintf("unknown status %q", *cmd.Status)}
		}
		client.Status = *cmd.Status
	}

	if err := s.stores.Clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	err = s.recordActivity(ctx, tc, "client_updated",
		models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID},
		fmt.Sprintf("Updated client %s", client.Name), nil)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// DeleteClient removes a client, but only when nothing depends on it:
// projects, quotes, and invoices all block the delete. There is no cascade.
func (s *Service) DeleteClient(ctx context.Context, tc tenant.Context, clientID uuid.UUID) error {
	client, err := s.clientInTenant(ctx, tc, clientID)
	if err != nil {
		return err
	}

	projects, err := s.stores.Projects.ListByClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to check dependent projects: %w", err)
	}
	if len(projects) > 0 {
		return fmt.Errorf("client has %d projects: %w", len(projects), ErrHasDependents)
	}

	quotes, err := s.stores.Quotes.ListByClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to check dependent quotes: %w", err)
	}
	if len(quotes) > 0 {
		return fmt.Errorf("client has %d quotes: %w", len(quotes), ErrHasDependents)
	}

	invoices, err := s.stores.Invoices.ListByClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("failed to check dependent invoices: %w", err)
	}
	if len(invoices) > 0 {
		return fmt.Errorf("client has %d invoices: %w", len(invoices), ErrHasDependents)
	}

	if err := s.stores.Clients.Delete(ctx, clientID); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	return s.recordActivity(ctx, tc, "client_deleted",
		models.EntityRef{Type: models.EntityTypeClient, ID: clientID},
		fmt.Sprintf("Deleted client %s", client.Name), nil)
}

// ListClients returns the tenant's clients, optionally narrowed by status,
// newest-first.
func (s *Service) ListClients(ctx context.Context, tc tenant.Context, filter ClientFilter) ([]*models.Client, error) {
	clients, err := s.stores.Clients.ListByOrg(ctx, tc.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	if filter.Status == nil {
		return clients, nil
	}

	out := clients[:0]
	for _, c := range clients {
		if c.Status == *filter.Status {
			out = append(out, c)
		}
	}
	return out, nil
}
