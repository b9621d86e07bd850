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

// InvoiceStore implements store.InvoiceStore using PostgreSQL.
type InvoiceStore struct {
	pool *pgxpool.Pool
}

// NewInvoiceStore creates a new PostgreSQL-backed invoice store.
func NewInvoiceStore(pool *pgxpool.Pool) *InvoiceStore {
	return &InvoiceStore{
		pool: pool,
	}
}

const invoiceColumns = `invoice_id, org_id, client_id, project_id, quote_id, number, line_items, total,
	due_date, status, sent_at, paid_at, share_token, created_at, updated_at`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var (
		inv       models.Invoice
		lineItems []byte
	)

	err := row.Scan(
		&inv.InvoiceID,
		&inv.OrgID,
		&inv.ClientID,
		&inv.ProjectID,
		&inv.QuoteID,
		&inv.Number,
		&lineItems,
		&inv.Total,
		&inv.DueDate,
		&inv.Status,
		&inv.SentAt,
		&inv.PaidAt,
		&inv.ShareToken,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(lineItems, &inv.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}

	return &inv, nil
}

// Create creates a new invoice in the database.
func (s *InvoiceStore) Create(ctx context.Context, invoice *models.Invoice) error {
	lineItems, err := json.Marshal(invoice.LineItems)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = s.pool.Exec(ctx, query,
		invoice.InvoiceID,
		invoice.OrgID,
		invoice.ClientID,
		invoice.ProjectID,
		invoice.QuoteID,
		invoice.Number,
		lineItems,
		invoice.Total,
		invoice.DueDate,
		invoice.Status,
		invoice.SentAt,
		invoice.PaidAt,
		invoice.ShareToken,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create invoice: %w", mapPostgresError(err))
	}

	return nil
}

// Get retrieves an invoice by ID.
func (s *InvoiceStore) Get(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1`
	return s.get(ctx, query, invoiceID)
}

// GetByShareToken retrieves an invoice by its public share token.
func (s *InvoiceStore) GetByShareToken(ctx context.Context, token string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE share_token = $1`
	return s.get(ctx, query, token)
}

func (s *InvoiceStore) get(ctx context.Context, query string, arg any) (*models.Invoice, error) {
	invoice, err := scanInvoice(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", mapPostgresError(err))
	}
	return invoice, nil
}

// Update updates an existing invoice.
func (s *InvoiceStore) Update(ctx context.Context, invoice *models.Invoice) error {
	invoice.UpdatedAt = time.Now()

	lineItems, err := json.Marshal(invoice.LineItems)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	query := `
		UPDATE invoices SET
			client_id = $2,
			project_id = $3,
			quote_id = $4,
			number = $5,
			line_items = $6,
			total = $7,
			due_date = $8,
			status = $9,
			sent_at = $10,
			paid_at = $11,
			share_token = $12,
			updated_at = $13
		WHERE invoice_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		invoice.InvoiceID,
		invoice.ClientID,
		invoice.ProjectID,
		invoice.QuoteID,
		invoice.Number,
		lineItems,
		invoice.Total,
		invoice.DueDate,
		invoice.Status,
		invoice.SentAt,
		invoice.PaidAt,
		invoice.ShareToken,
		invoice.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// Delete removes an invoice.
func (s *InvoiceStore) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM invoices WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", mapPostgresError(err))
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListByOrg lists the invoices of one organization, newest-first.
func (s *InvoiceStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE org_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, orgID)
}

// ListByClient lists the invoices for one client, newest-first.
func (s *InvoiceStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE client_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, clientID)
}

// ListByProject lists the invoices attached to one project, newest-first.
func (s *InvoiceStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE project_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, projectID)
}

// ListByQuote lists the invoices generated from one quote.
func (s *InvoiceStore) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE quote_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, quoteID)
}

// ListByOrgAndStatus lists one organization's invoices with the given status,
// newest-first.
func (s *InvoiceStore) ListByOrgAndStatus(ctx context.Context, orgID uuid.UUID, status models.InvoiceStatus) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE org_id = $1 AND status = $2 ORDER BY created_at DESC`
	return s.list(ctx, query, orgID, status)
}

// ListPage walks all invoices across organizations in id order for the
// aggregate backfill.
func (s *InvoiceStore) ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE invoice_id > $1
		ORDER BY invoice_id
		LIMIT $2
	`
	return s.list(ctx, query, afterID, limit)
}

func (s *InvoiceStore) list(ctx context.Context, query string, args ...any) ([]*models.Invoice, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	return invoices, rows.Err()
}
