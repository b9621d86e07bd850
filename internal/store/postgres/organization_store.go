package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

// OrganizationStore implements store.OrganizationStore using PostgreSQL.
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// NewOrganizationStore creates a new PostgreSQL-backed organization store.
// It shares the connection pool with the other stores.
func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{
		pool: pool,
	}
}

// Create creates a new organization in the database.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (
			org_id, name, revenue_target, last_quote_number, last_invoice_number, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		org.OrgID,
		org.Name,
		org.RevenueTarget,
		org.LastQuoteNumber,
		org.LastInvoiceNumber,
		org.CreatedAt,
		org.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Str("name", org.Name).
		Msg("Created organization")

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	query := `
		SELECT org_id, name, revenue_target, last_quote_number, last_invoice_number, created_at, updated_at
		FROM organizations
		WHERE org_id = $1
	`

	var org models.Organization
	err := s.pool.QueryRow(ctx, query, orgID).Scan(
		&org.OrgID,
		&org.Name,
		&org.RevenueTarget,
		&org.LastQuoteNumber,
		&org.LastInvoiceNumber,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", mapPostgresError(err))
	}

	return &org, nil
}

// Update updates an existing organization. Counters are managed through the
// Next*/Set* methods, not here.
func (s *OrganizationStore) Update(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now()

	query := `
		UPDATE organizations SET
			name = $2,
			revenue_target = $3,
			updated_at = $4
		WHERE org_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		org.OrgID,
		org.Name,
		org.RevenueTarget,
		org.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update organization: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Msg("Updated organization")

	return nil
}

// NextQuoteNumber atomically advances the quote counter and returns the new
// value.
func (s *OrganizationStore) NextQuoteNumber(ctx context.Context, orgID uuid.UUID) (int64, error) {
	return s.advanceCounter(ctx, orgID, "last_quote_number")
}

// NextInvoiceNumber atomically advances the invoice counter and returns the
// new value.
func (s *OrganizationStore) NextInvoiceNumber(ctx context.Context, orgID uuid.UUID) (int64, error) {
	return s.advanceCounter(ctx, orgID, "last_invoice_number")
}

func (s *OrganizationStore) advanceCounter(ctx context.Context, orgID uuid.UUID, column string) (int64, error) {
	// column is one of two fixed names, never user input.
	query := fmt.Sprintf(`
		UPDATE organizations
		SET %s = %s + 1
		WHERE org_id = $1
		RETURNING %s
	`, column, column, column)

	var value int64
	err := s.pool.QueryRow(ctx, query, orgID).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, fmt.Errorf("failed to advance %s: %w", column, mapPostgresError(err))
	}

	return value, nil
}

// SetQuoteCounter forces the quote counter to a value (migration path).
func (s *OrganizationStore) SetQuoteCounter(ctx context.Context, orgID uuid.UUID, value int64) error {
	return s.setCounter(ctx, orgID, "last_quote_number", value)
}

// SetInvoiceCounter forces the invoice counter to a value (migration path).
func (s *OrganizationStore) SetInvoiceCounter(ctx context.Context, orgID uuid.UUID, value int64) error {
	return s.setCounter(ctx, orgID, "last_invoice_number", value)
}

func (s *OrganizationStore) setCounter(ctx context.Context, orgID uuid.UUID, column string, value int64) error {
	query := fmt.Sprintf(`
		UPDATE organizations
		SET %s = $2
		WHERE org_id = $1
	`, column)

	result, err := s.pool.Exec(ctx, query, orgID, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", column, mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}
