package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/centriq-hq/centriq/internal/store"
)

// NewStores wires a full PostgreSQL store set over one shared pool.
func NewStores(pool *pgxpool.Pool) store.Stores {
	return store.Stores{
		Organizations: NewOrganizationStore(pool),
		Users:         NewUserStore(pool),
		Memberships:   NewMembershipStore(pool),
		Clients:       NewClientStore(pool),
		Projects:      NewProjectStore(pool),
		Quotes:        NewQuoteStore(pool),
		Invoices:      NewInvoiceStore(pool),
		Tasks:         NewTaskStore(pool),
		Activities:    NewActivityStore(pool),
		Notifications: NewNotificationStore(pool),
	}
}
