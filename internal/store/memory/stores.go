package memory

import "github.com/centriq-hq/centriq/internal/store"

// NewStores wires a full in-memory store set, for tests and dev mode.
func NewStores() store.Stores {
	return store.Stores{
		Organizations: NewOrganizationStore(),
		Users:         NewUserStore(),
		Memberships:   NewMembershipStore(),
		Clients:       NewClientStore(),
		Projects:      NewProjectStore(),
		Quotes:        NewQuoteStore(),
		Invoices:      NewInvoiceStore(),
		Tasks:         NewTaskStore(),
		Activities:    NewActivityStore(),
		Notifications: NewNotificationStore(),
	}
}
