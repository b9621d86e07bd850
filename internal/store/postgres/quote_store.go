package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

// QuoteStore implements store.QuoteStore using PostgreSQL. Line items and the
// signature block are stored as JSONB.
type QuoteStore struct {
	pool *pgxpool.Pool
}

// NewQuoteStore creates a new PostgreSQL-backed quote store.
func NewQuoteStore(pool *pgxpool.Pool) *QuoteStore {
	return &QuoteStore{
		pool: pool,
	}
}

const quoteColumns = `quote_id, org_id, client_id, project_id, number, title, line_items, discount_percent, total,
	valid_until, status, sent_at, approved_at, declined_at, signature, share_token, created_at, updated_at`

func scanQuote(row pgx.Row) (*models.Quote, error) {
	var (
		q         models.Quote
		lineItems []byte
		signature []byte
	)

	err := row.Scan(
		&q.QuoteID,
		&q.OrgID,
		&q.ClientID,
		&q.ProjectID,
		&q.Number,
		&q.Title,
		&lineItems,
		&q.DiscountPercent,
		&q.Total,
		&q.ValidUntil,
		&q.Status,
		&q.SentAt,
		&q.ApprovedAt,
		&q.DeclinedAt,
		&signature,
		&q.ShareToken,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(lineItems, &q.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	if signature != nil {
		q.Signature = &models.SignatureMetadata{}
		if err := json.Unmarshal(signature, q.Signature); err != nil {
			return nil, fmt.Errorf("failed to decode signature: %w", err)
		}
	}

	return &q, nil
}

func quoteArgs(q *models.Quote) ([]any, error) {
	lineItems, err := json.Marshal(q.LineItems)
	if err != nil {
		return nil, fmt.Errorf("failed to encode line items: %w", err)
	}

	var signature []byte
	if q.Signature != nil {
		signature, err = json.Marshal(q.Signature)
		if err != nil {
			return nil, fmt.Errorf("failed to encode signature: %w", err)
		}
	}

	return []any{
		q.QuoteID,
		q.OrgID,
		q.ClientID,
		q.ProjectID,
		q.Number,
		q.Title,
		lineItems,
		q.DiscountPercent,
		q.Total,
		q.ValidUntil,
		q.Status,
		q.SentAt,
		q.ApprovedAt,
		q.DeclinedAt,
		signature,
		q.ShareToken,
		q.CreatedAt,
		q.UpdatedAt,
	}, nil
}

// Create creates a new quote in the database.
func (s *QuoteStore) Create(ctx context.Context, quote *models.Quote) error {
	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	args, err := quoteArgs(quote)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create quote: %w", mapPostgresError(err))
	}

	return nil
}

// Get retrieves a quote by ID.
func (s *QuoteStore) Get(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE quote_id = $1`
	return s.get(ctx, query, quoteID)
}

// GetByShareToken retrieves a quote by its public share token.
func (s *QuoteStore) GetByShareToken(ctx context.Context, token string) (*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE share_token = $1`
	return s.get(ctx, query, token)
}

func (s *QuoteStore) get(ctx context.Context, query string, arg any) (*models.Quote, error) {
	quote, err := scanQuote(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", mapPostgresError(err))
	}
	return quote, nil
}

// Update updates an existing quote.
func (s *QuoteStore) Update(ctx context.Context, quote *models.Quote) error {
	quote.UpdatedAt = time.Now()

	query := `
		UPDATE quotes SET
			client_id = $3,
			project_id = $4,
			number = $5,
			title = $6,
			line_items = $7,
			discount_percent = $8,
			total = $9,
			valid_until = $10,
			status = $11,
			sent_at = $12,
			approved_at = $13,
			declined_at = $14,
			signature = $15,
			share_token = $16,
			updated_at = $18
		WHERE quote_id = $1
	`

	args, err := quoteArgs(quote)
	if err != nil {
		return err
	}

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// Delete removes a quote.
func (s *QuoteStore) Delete(ctx context.Context, quoteID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM quotes WHERE quote_id = $1`, quoteID)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListByOrg lists the quotes of one organization, newest-first.
func (s *QuoteStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE org_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, orgID)
}

// ListByClient lists the quotes for one client, newest-first.
func (s *QuoteStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE client_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, clientID)
}

// ListByProject lists the quotes attached to one project, newest-first.
func (s *QuoteStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE project_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, projectID)
}

// ListByOrgAndStatus lists one organization's quotes with the given status,
// newest-first.
func (s *QuoteStore) ListByOrgAndStatus(ctx context.Context, orgID uuid.UUID, status models.QuoteStatus) ([]*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE org_id = $1 AND status = $2 ORDER BY created_at DESC`
	return s.list(ctx, query, orgID, status)
}

// ListPage walks all quotes across organizations in id order for the
// aggregate backfill.
func (s *QuoteStore) ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Quote, error) {
	query := `
		SELECT ` + quoteColumns + `
		FROM quotes
		WHERE quote_id > $1
		ORDER BY quote_id
		LIMIT $2
	`
	return s.list(ctx, query, afterID, limit)
}

func (s *QuoteStore) list(ctx context.Context, query string, args ...any) ([]*models.Quote, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}

	return quotes, rows.Err()
}
