// Package store defines the persistence interfaces for all entity kinds and
// the sentinel errors implementations map their backend failures onto.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// OrganizationStore persists tenants, memberships, and the per-tenant
// monotonic counters backing quote/invoice numbering.
type OrganizationStore interface {
	Create(ctx context.Context, org *models.Organization) error
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error

	// NextQuoteNumber atomically increments the quote counter and returns
	// the new value. NextInvoiceNumber mirrors it.
	NextQuoteNumber(ctx context.Context, orgID uuid.UUID) (int64, error)
	NextInvoiceNumber(ctx context.Context, orgID uuid.UUID) (int64, error)

	// SetQuoteCounter / SetInvoiceCounter force the counter to a value.
	// Used once per organization when the counter is found absent and the
	// existing records are scanned instead (migration path).
	SetQuoteCounter(ctx context.Context, orgID uuid.UUID, value int64) error
	SetInvoiceCounter(ctx context.Context, orgID uuid.UUID, value int64) error
}

// UserStore persists user display records.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// MembershipStore persists the (user, organization, role) join.
type MembershipStore interface {
	Create(ctx context.Context, m *models.Membership) error
	Get(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Membership, error)
}

// ClientStore persists client records.
type ClientStore interface {
	Create(ctx context.Context, client *models.Client) error
	Get(ctx context.Context, clientID uuid.UUID) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, clientID uuid.UUID) error
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Client, error)
}

// ProjectStore persists project records.
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, projectID uuid.UUID) error
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Project, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error)
}

// QuoteStore persists quote records. List methods return rows for one
// already-narrowed foreign key; residual filtering happens in the service.
type QuoteStore interface {
	Create(ctx context.Context, quote *models.Quote) error
	Get(ctx context.Context, quoteID uuid.UUID) (*models.Quote, error)
	GetByShareToken(ctx context.Context, token string) (*models.Quote, error)
	Update(ctx context.Context, quote *models.Quote) error
	Delete(ctx context.Context, quoteID uuid.UUID) error
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Quote, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Quote, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Quote, error)
	ListByOrgAndStatus(ctx context.Context, orgID uuid.UUID, status models.QuoteStatus) ([]*models.Quote, error)

	// ListPage walks all quotes across organizations in id order, for the
	// one-shot aggregate backfill. afterID of uuid.Nil starts from the top.
	ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Quote, error)
}

// InvoiceStore persists invoice records.
type InvoiceStore interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	Get(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	GetByShareToken(ctx context.Context, token string) (*models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, invoiceID uuid.UUID) error
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Invoice, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Invoice, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Invoice, error)
	ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]*models.Invoice, error)
	ListByOrgAndStatus(ctx context.Context, orgID uuid.UUID, status models.InvoiceStatus) ([]*models.Invoice, error)
	ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Invoice, error)
}

// TaskStore persists task records.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, taskID uuid.UUID) error
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error)
	ListByAssignee(ctx context.Context, orgID, assigneeID uuid.UUID) ([]*models.Task, error)
	ListByOrgAndStatus(ctx context.Context, orgID uuid.UUID, status models.TaskStatus) ([]*models.Task, error)
	ListPage(ctx context.Context, afterID uuid.UUID, limit int) ([]*models.Task, error)
}

// ActivityStore persists the append-only audit trail. There is deliberately
// no update or delete; rows are immutable once written.
type ActivityStore interface {
	Append(ctx context.Context, activity *models.Activity) error

	// ListByOrg returns activities for the tenant within the optional time
	// range, newest-first, at most limit rows (0 means no limit).
	ListByOrg(ctx context.Context, orgID uuid.UUID, from, to *time.Time, limit int) ([]*models.Activity, error)

	// ListByEntity returns the history of one record, newest-first.
	ListByEntity(ctx context.Context, orgID uuid.UUID, entityType string, entityID uuid.UUID, limit int) ([]*models.Activity, error)
}

// NotificationStore persists notifications and their attachments. An
// attachment belongs to exactly one notification and is deleted with it.
type NotificationStore interface {
	// CreateWithAttachments inserts the notification and its attachment rows
	// in one transaction; either all rows land or none do.
	CreateWithAttachments(ctx context.Context, n *models.Notification, attachments []*models.Attachment) error

	Get(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error)
	ListByEntity(ctx context.Context, orgID uuid.UUID, entityType string, entityID uuid.UUID) ([]*models.Notification, error)
	ListByRecipient(ctx context.Context, orgID, userID uuid.UUID) ([]*models.Notification, error)
	ListAttachments(ctx context.Context, notificationID uuid.UUID) ([]*models.Attachment, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	Delete(ctx context.Context, notificationID uuid.UUID) error
}

// Stores bundles every store interface for wiring into the service layer.
type Stores struct {
	Organizations OrganizationStore
	Users         UserStore
	Memberships   MembershipStore
	Clients       ClientStore
	Projects      ProjectStore
	Quotes        QuoteStore
	Invoices      InvoiceStore
	Tasks         TaskStore
	Activities    ActivityStore
	Notifications NotificationStore
}
