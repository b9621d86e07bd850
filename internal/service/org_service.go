package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// CreateOrganizationCmd creates a tenant with the calling user as its first
// admin member.
type CreateOrganizationCmd struct {
	Name          string `validate:"required,min=1,max=255"`
	RevenueTarget int64  `validate:"gte=0"`
}

// UpdateOrganizationCmd patches mutable organization fields.
type UpdateOrganizationCmd struct {
	Name          *string `validate:"omitempty,min=1,max=255"`
	RevenueTarget *int64  `validate:"omitempty,gte=0"`
}

// AddMemberCmd joins a user to the caller's organization.
type AddMemberCmd struct {
	UserID uuid.UUID `validate:"required"`
	Role   string    `validate:"required,max=100"`
}

// CreateOrganization creates a new tenant owned by userID, who becomes its
// first admin member.
func (s *Service) CreateOrganization(ctx context.Context, userID uuid.UUID, cmd CreateOrganizationCmd) (*models.Organization, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}

	now := time.Now()
	org := &models.Organization{
		OrgID:         uuid.Must(uuid.NewV7()),
		Name:          cmd.Name,
		RevenueTarget: cmd.RevenueTarget,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.stores.Organizations.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	membership := &models.Membership{
		UserID:    userID,
		OrgID:     org.OrgID,
		Role:      "admin",
		CreatedAt: now,
	}
	if err := s.stores.Memberships.Create(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	log.Info().
		Str("org_id", org.OrgID.String()).
		Str("owner", userID.String()).
		Msg("Created organization")

	return org, nil
}

// GetOrganization returns the caller's organization.
func (s *Service) GetOrganization(ctx context.Context, tc tenant.Context) (*models.Organization, error) {
	return s.stores.Organizations.Get(ctx, tc.OrgID)
}

// UpdateOrganization patches the caller's organization. Admin only.
func (s *Service) UpdateOrganization(ctx context.Context, tc tenant.Context, cmd UpdateOrganizationCmd) (*models.Organization, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, tc); err != nil {
		return nil, err
	}

	org, err := s.stores.Organizations.Get(ctx, tc.OrgID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		org.Name = *cmd.Name
	}
	if cmd.RevenueTarget != nil {
		org.RevenueTarget = *cmd.RevenueTarget
	}

	if err := s.stores.Organizations.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

// AddMember joins a user to the caller's organization. Admin only.
func (s *Service) AddMember(ctx context.Context, tc tenant.Context, cmd AddMemberCmd) (*models.Membership, error) {
	if err := s.checkStruct(cmd); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, tc); err != nil {
		return nil, err
	}

	if _, err := s.stores.Users.Get(ctx, cmd.UserID); err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	membership := &models.Membership{
		UserID:    cmd.UserID,
		OrgID:     tc.OrgID,
		Role:      cmd.Role,
		CreatedAt: time.Now(),
	}
	if err := s.stores.Memberships.Create(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	log.Info().
		Str("org_id", tc.OrgID.String()).
		Str("user_id", cmd.UserID.String()).
		Str("role", cmd.Role).
		Msg("Added member")

	return membership, nil
}

// ListMembers returns the organization's memberships.
func (s *Service) ListMembers(ctx context.Context, tc tenant.Context) ([]*models.Membership, error) {
	return s.stores.Memberships.ListByOrg(ctx, tc.OrgID)
}

// requireAdmin fails with ErrCrossTenantAccess unless the caller holds an
// admin-flavored role in their organization.
func (s *Service) requireAdmin(ctx context.Context, tc tenant.Context) error {
	m, err := s.stores.Memberships.Get(ctx, tc.UserID, tc.OrgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return tenant.ErrCrossTenantAccess
		}
		return err
	}
	if !m.IsAdmin() {
		return tenant.ErrCrossTenantAccess
	}
	return nil
}
