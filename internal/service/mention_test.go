package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/tenant"
)

func TestCreateMention(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := f.createClient(t, ctx, f.tc)
	memberID := f.addMember(t, ctx, f.tc, "staff")

	created, err := f.svc.CreateMention(ctx, f.tc, CreateMentionCmd{
		RecipientIDs: []uuid.UUID{memberID},
		Text:         "please review this client",
		Entity:       models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID},
		Attachments: []AttachmentInput{
			{StorageID: "blob-1", FileName: "contract.pdf", FileSize: 2048, MimeType: "application/pdf"},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	n := created[0]
	require.Equal(t, f.tc.UserID, n.AuthorID)
	require.Equal(t, memberID, n.UserID)
	// Legacy wire form keeps the author prefix on the message.
	require.Equal(t, models.EncodeMentionMessage(f.tc.UserID, "please review this client"), n.Message)

	member := tenant.Context{UserID: memberID, OrgID: f.tc.OrgID}
	inbox, err := f.svc.ListMyNotifications(ctx, member)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, "please review this client", inbox[0].Text)
	require.Equal(t, f.tc.UserID, inbox[0].AuthorID)
	require.NotEmpty(t, inbox[0].AuthorName)
	require.Len(t, inbox[0].Attachments, 1)
	require.Equal(t, "contract.pdf", inbox[0].Attachments[0].FileName)
}

func TestCreateMentionRejectsCrossTenantRecipients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := f.createClient(t, ctx, f.tc)

	// The recipient belongs to a different tenant: the call fails and no
	// rows are written.
	created, err := f.svc.CreateMention(ctx, f.tc, CreateMentionCmd{
		RecipientIDs: []uuid.UUID{f.other.UserID},
		Text:         "you cannot see this",
		Entity:       models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID},
	})
	require.ErrorIs(t, err, tenant.ErrCrossTenantAccess)
	require.Empty(t, created)

	inbox, err := f.svc.ListMyNotifications(ctx, f.other)
	require.NoError(t, err)
	require.Empty(t, inbox)
}

func TestCreateMentionMixedRecipientListWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := f.createClient(t, ctx, f.tc)
	memberID := f.addMember(t, ctx, f.tc, "staff")

	// One valid member plus one foreign recipient: all-or-nothing, so the
	// member's inbox stays empty too.
	created, err := f.svc.CreateMention(ctx, f.tc, CreateMentionCmd{
		RecipientIDs: []uuid.UUID{memberID, f.other.UserID},
		Text:         "mixed fanout",
		Entity:       models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID},
	})
	require.ErrorIs(t, err, tenant.ErrCrossTenantAccess)
	require.Empty(t, created)

	member := tenant.Context{UserID: memberID, OrgID: f.tc.OrgID}
	inbox, err := f.svc.ListMyNotifications(ctx, member)
	require.NoError(t, err)
	require.Empty(t, inbox)
}

func TestListMentionsByEntityResolvesLegacyRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := f.createClient(t, ctx, f.tc)
	memberID := f.addMember(t, ctx, f.tc, "staff")

	// A row written before the author column existed: the author only lives
	// in the message prefix.
	legacy := &models.Notification{
		NotificationID: uuid.Must(uuid.NewV7()),
		OrgID:          f.tc.OrgID,
		UserID:         memberID,
		Type:           models.NotificationTypeMention,
		Message:        models.EncodeMentionMessage(f.tc.UserID, "old style"),
		EntityType:     models.EntityTypeClient,
		EntityID:       client.ClientID,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, f.svc.stores.Notifications.CreateWithAttachments(ctx, legacy, nil))

	mentions, err := f.svc.ListMentionsByEntity(ctx, f.tc,
		models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID})
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	require.Equal(t, "old style", mentions[0].Text)
	require.Equal(t, f.tc.UserID, mentions[0].AuthorID)

	// Another tenant cannot read the thread even with the right ids.
	_, err = f.svc.ListMentionsByEntity(ctx, f.other,
		models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID})
	require.ErrorIs(t, err, tenant.ErrCrossTenantAccess)
}

func TestListMentionsByEntityNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := f.createClient(t, ctx, f.tc)
	memberID := f.addMember(t, ctx, f.tc, "staff")

	base := time.Now()
	for i, text := range []string{"first", "second", "third"} {
		n := &models.Notification{
			NotificationID: uuid.Must(uuid.NewV7()),
			OrgID:          f.tc.OrgID,
			UserID:         memberID,
			AuthorID:       f.tc.UserID,
			Type:           models.NotificationTypeMention,
			Message:        models.EncodeMentionMessage(f.tc.UserID, text),
			EntityType:     models.EntityTypeClient,
			EntityID:       client.ClientID,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.svc.stores.Notifications.CreateWithAttachments(ctx, n, nil))
	}

	mentions, err := f.svc.ListMentionsByEntity(ctx, f.tc,
		models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID})
	require.NoError(t, err)
	require.Len(t, mentions, 3)
	require.Equal(t, "third", mentions[0].Text)
	require.Equal(t, "second", mentions[1].Text)
	require.Equal(t, "first", mentions[2].Text)
}

func TestMarkNotificationRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := f.createClient(t, ctx, f.tc)
	memberID := f.addMember(t, ctx, f.tc, "staff")

	created, err := f.svc.CreateMention(ctx, f.tc, CreateMentionCmd{
		RecipientIDs: []uuid.UUID{memberID},
		Text:         "ping",
		Entity:       models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	// Only the recipient may mark it read.
	err = f.svc.MarkNotificationRead(ctx, f.tc, created[0].NotificationID)
	require.ErrorIs(t, err, tenant.ErrCrossTenantAccess)

	member := tenant.Context{UserID: memberID, OrgID: f.tc.OrgID}
	require.NoError(t, f.svc.MarkNotificationRead(ctx, member, created[0].NotificationID))

	inbox, err := f.svc.ListMyNotifications(ctx, member)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.True(t, inbox[0].Notification.IsRead)

	// Marking twice is a no-op.
	require.NoError(t, f.svc.MarkNotificationRead(ctx, member, created[0].NotificationID))
}

func TestDeleteNotificationRemovesAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := f.createClient(t, ctx, f.tc)
	memberID := f.addMember(t, ctx, f.tc, "staff")

	created, err := f.svc.CreateMention(ctx, f.tc, CreateMentionCmd{
		RecipientIDs: []uuid.UUID{memberID},
		Text:         "with file",
		Entity:       models.EntityRef{Type: models.EntityTypeClient, ID: client.ClientID},
		Attachments:  []AttachmentInput{{StorageID: "blob-2", FileName: "a.txt"}},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	member := tenant.Context{UserID: memberID, OrgID: f.tc.OrgID}
	require.NoError(t, f.svc.DeleteNotification(ctx, member, created[0].NotificationID))

	attachments, err := f.svc.stores.Notifications.ListAttachments(ctx, created[0].NotificationID)
	require.NoError(t, err)
	require.Empty(t, attachments)
}
