//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/store"
)

func setupPostgres(t *testing.T, ctx context.Context) store.Stores {
	container, err := tcpostgres.Run(ctx, "postgres:18-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &PoolConfig{ConnString: connString})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))

	return NewStores(pool)
}

func seedOrg(t *testing.T, ctx context.Context, stores store.Stores) *models.Organization {
	now := time.Now().UTC().Truncate(time.Millisecond)
	org := &models.Organization{
		OrgID:     uuid.Must(uuid.NewV7()),
		Name:      "Acme Consulting",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, stores.Organizations.Create(ctx, org))
	return org
}

func seedClient(t *testing.T, ctx context.Context, stores store.Stores, orgID uuid.UUID) *models.Client {
	now := time.Now().UTC().Truncate(time.Millisecond)
	client := &models.Client{
		ClientID:  uuid.Must(uuid.NewV7()),
		OrgID:     orgID,
		Name:      "Globex",
		Status:    models.ClientStatusLead,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, stores.Clients.Create(ctx, client))
	return client
}

func TestIntegration_OrganizationCounters(t *testing.T) {
	ctx := context.Background()
	stores := setupPostgres(t, ctx)
	org := seedOrg(t, ctx, stores)

	n, err := stores.Organizations.NextQuoteNumber(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = stores.Organizations.NextQuoteNumber(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	// Invoice counter is independent.
	n, err = stores.Organizations.NextInvoiceNumber(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	require.NoError(t, stores.Organizations.SetQuoteCounter(ctx, org.OrgID, 41))
	n, err = stores.Organizations.NextQuoteNumber(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, int64(42), n)

	_, err = stores.Organizations.NextQuoteNumber(ctx, uuid.Must(uuid.NewV7()))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestIntegration_QuoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := setupPostgres(t, ctx)
	org := seedOrg(t, ctx, stores)
	client := seedClient(t, ctx, stores, org.OrgID)

	now := time.Now().UTC().Truncate(time.Millisecond)
	quote := &models.Quote{
		QuoteID:  uuid.Must(uuid.NewV7()),
		OrgID:    org.OrgID,
		ClientID: client.ClientID,
		Number:   "Q-000001",
		Title:    "Engagement",
		LineItems: []models.LineItem{
			{Description: "Design", Quantity: 2, UnitPrice: 50000},
		},
		DiscountPercent: 10,
		Total:           90000,
		Status:          models.QuoteStatusDraft,
		ShareToken:      "tok-abc123",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, stores.Quotes.Create(ctx, quote))

	got, err := stores.Quotes.Get(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.Equal(t, quote.Number, got.Number)
	require.Equal(t, quote.LineItems, got.LineItems)
	require.Nil(t, got.Signature)

	byToken, err := stores.Quotes.GetByShareToken(ctx, "tok-abc123")
	require.NoError(t, err)
	require.Equal(t, quote.QuoteID, byToken.QuoteID)

	// The (org, number) pair is unique.
	dup := *quote
	dup.QuoteID = uuid.Must(uuid.NewV7())
	dup.ShareToken = "tok-other"
	require.ErrorIs(t, stores.Quotes.Create(ctx, &dup), store.ErrAlreadyExists)

	got.Status = models.QuoteStatusApproved
	got.Signature = &models.SignatureMetadata{SignerName: "C. Burns", SignedAt: now}
	require.NoError(t, stores.Quotes.Update(ctx, got))

	signed, err := stores.Quotes.Get(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.NotNil(t, signed.Signature)
	require.Equal(t, "C. Burns", signed.Signature.SignerName)

	byStatus, err := stores.Quotes.ListByOrgAndStatus(ctx, org.OrgID, models.QuoteStatusApproved)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)

	page, err := stores.Quotes.ListPage(ctx, uuid.Nil, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
}

func TestIntegration_NotificationAttachmentsCascade(t *testing.T) {
	ctx := context.Background()
	stores := setupPostgres(t, ctx)
	org := seedOrg(t, ctx, stores)
	client := seedClient(t, ctx, stores, org.OrgID)

	now := time.Now().UTC().Truncate(time.Millisecond)
	recipient := &models.User{
		UserID:    uuid.Must(uuid.NewV7()),
		Name:      "Recipient",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, stores.Users.Create(ctx, recipient))

	authorID := uuid.Must(uuid.NewV7())
	n := &models.Notification{
		NotificationID: uuid.Must(uuid.NewV7()),
		OrgID:          org.OrgID,
		UserID:         recipient.UserID,
		AuthorID:       authorID,
		Type:           models.NotificationTypeMention,
		Message:        models.EncodeMentionMessage(authorID, "look at this"),
		EntityType:     models.EntityTypeClient,
		EntityID:       client.ClientID,
		Priority:       "normal",
		CreatedAt:      now,
	}
	attachments := []*models.Attachment{{
		AttachmentID:   uuid.Must(uuid.NewV7()),
		OrgID:          org.OrgID,
		NotificationID: n.NotificationID,
		StorageID:      "blob-1",
		FileName:       "contract.pdf",
		FileSize:       2048,
		MimeType:       "application/pdf",
		CreatedAt:      now,
	}}
	require.NoError(t, stores.Notifications.CreateWithAttachments(ctx, n, attachments))

	listed, err := stores.Notifications.ListAttachments(ctx, n.NotificationID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, stores.Notifications.Delete(ctx, n.NotificationID))

	listed, err = stores.Notifications.ListAttachments(ctx, n.NotificationID)
	require.NoError(t, err)
	require.Empty(t, listed)

	_, err = stores.Notifications.Get(ctx, n.NotificationID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
