package server

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/centriq-hq/centriq/internal/auth"
	"github.com/centriq-hq/centriq/internal/models"
	"github.com/centriq-hq/centriq/internal/service"
	"github.com/centriq-hq/centriq/internal/store"
	"github.com/centriq-hq/centriq/internal/store/memory"
)

type testServer struct {
	handler http.Handler
	svc     *service.Service
	stores  store.Stores
	token   string
	orgID   uuid.UUID
	userID  uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	privatePEM := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))

	stores := memory.NewStores()
	indexes, err := service.NewIndexes()
	require.NoError(t, err)
	svc := service.New(stores, indexes)

	user := &models.User{
		UserID:    uuid.Must(uuid.NewV7()),
		Name:      "Owner",
		Email:     "owner@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, stores.Users.Create(ctx, user))
	org, err := svc.CreateOrganization(ctx, user.UserID, service.CreateOrganizationCmd{Name: "Acme Consulting"})
	require.NoError(t, err)

	token, err := auth.IssueToken(privatePEM, user.UserID, org.OrgID, time.Hour)
	require.NoError(t, err)

	srv := NewServer(svc, Config{JWTPublicKeyPEM: publicPEM})
	handler, err := srv.Handler(zerolog.Nop())
	require.NoError(t, err)

	return &testServer{
		handler: handler,
		svc:     svc,
		stores:  stores,
		token:   token,
		orgID:   org.OrgID,
		userID:  user.UserID,
	}
}

// do issues an authenticated request and decodes the JSON response into out
// when out is non-nil.
func (ts *testServer) do(t *testing.T, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func (ts *testServer) createClient(t *testing.T) clientView {
	t.Helper()
	var client clientView
	rec := ts.do(t, http.MethodPost, "/v1/clients", map[string]any{"name": "Globex"}, &client)
	require.Equal(t, http.StatusCreated, rec.Code)
	return client
}

func TestHealthIsOpen(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestV1RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/clients", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClientCRUD(t *testing.T) {
	ts := newTestServer(t)

	client := ts.createClient(t)
	require.Equal(t, "Globex", client.Name)
	require.Equal(t, "lead", client.Status)

	var fetched clientView
	rec := ts.do(t, http.MethodGet, "/v1/clients/"+client.ClientID.String(), nil, &fetched)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, client.ClientID, fetched.ClientID)

	var updated clientView
	rec = ts.do(t, http.MethodPatch, "/v1/clients/"+client.ClientID.String(), map[string]any{"status": "active"}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "active", updated.Status)

	rec = ts.do(t, http.MethodDelete, "/v1/clients/"+client.ClientID.String(), nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/clients/"+client.ClientID.String(), nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/clients", map[string]any{"name": ""}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/clients", map[string]any{"name": "Globex", "status": "bogus"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/clients/not-a-uuid", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	client := ts.createClient(t)

	var quote quoteView
	rec := ts.do(t, http.MethodPost, "/v1/quotes", map[string]any{
		"client_id": client.ClientID,
		"title":     "Engagement",
		"line_items": []map[string]any{
			{"description": "Work", "quantity": 2, "unit_price": 5000},
		},
		"discount_percent": 10,
	}, &quote)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Q-000001", quote.Number)
	require.EqualValues(t, 9000, quote.Total)
	require.Equal(t, "draft", quote.Status)

	// draft -> approved is rejected before the quote is sent
	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/quotes/%s/approve", quote.QuoteID), map[string]any{"signer_name": "Pat"}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	var sent quoteView
	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/quotes/%s/send", quote.QuoteID), nil, &sent)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "sent", sent.Status)
	require.NotNil(t, sent.SentAt)

	var approved quoteView
	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/quotes/%s/approve", quote.QuoteID), map[string]any{"signer_name": "Pat"}, &approved)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.Signature)
	require.Equal(t, "Pat", approved.Signature.SignerName)
}

func TestSharedQuoteIsPublicAndTokenFree(t *testing.T) {
	ts := newTestServer(t)
	client := ts.createClient(t)

	var quote quoteView
	rec := ts.do(t, http.MethodPost, "/v1/quotes", map[string]any{
		"client_id":  client.ClientID,
		"title":      "Engagement",
		"line_items": []map[string]any{{"description": "Work", "quantity": 1, "unit_price": 5000}},
	}, &quote)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, quote.ShareToken)

	// no Authorization header at all
	req := httptest.NewRequest(http.MethodGet, "/share/quotes/"+quote.ShareToken, nil)
	pub := httptest.NewRecorder()
	ts.handler.ServeHTTP(pub, req)
	require.Equal(t, http.StatusOK, pub.Code)

	var shared quoteView
	require.NoError(t, json.Unmarshal(pub.Body.Bytes(), &shared))
	require.Equal(t, quote.QuoteID, shared.QuoteID)
	require.Empty(t, shared.ShareToken)

	req = httptest.NewRequest(http.MethodGet, "/share/quotes/unknown-token", nil)
	miss := httptest.NewRecorder()
	ts.handler.ServeHTTP(miss, req)
	require.Equal(t, http.StatusNotFound, miss.Code)
}

func TestInvoiceFromQuoteOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	client := ts.createClient(t)

	var quote quoteView
	rec := ts.do(t, http.MethodPost, "/v1/quotes", map[string]any{
		"client_id":        client.ClientID,
		"title":            "Engagement",
		"line_items":       []map[string]any{{"description": "Work", "quantity": 1, "unit_price": 10000}},
		"discount_percent": 25,
	}, &quote)
	require.Equal(t, http.StatusCreated, rec.Code)

	ts.do(t, http.MethodPost, fmt.Sprintf("/v1/quotes/%s/send", quote.QuoteID), nil, nil)
	ts.do(t, http.MethodPost, fmt.Sprintf("/v1/quotes/%s/approve", quote.QuoteID), map[string]any{"signer_name": "Pat"}, nil)

	var invoice invoiceView
	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/quotes/%s/invoice", quote.QuoteID), map[string]any{
		"due_date": time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
	}, &invoice)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "INV-000001", invoice.Number)
	require.Equal(t, quote.Total, invoice.Total)
	require.NotNil(t, invoice.QuoteID)
	require.Equal(t, quote.QuoteID, *invoice.QuoteID)

	// the approved quote now has a dependent invoice
	rec = ts.do(t, http.MethodDelete, "/v1/quotes/"+quote.QuoteID.String(), nil, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTaskTransitionOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	var task taskView
	rec := ts.do(t, http.MethodPost, "/v1/tasks", map[string]any{"title": "Follow up"}, &task)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "todo", task.Status)

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/tasks/%s/transition", task.TaskID), map[string]any{"status": "done"}, &task)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "done", task.Status)
	require.NotNil(t, task.CompletedAt)

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/tasks/%s/transition", task.TaskID), map[string]any{"status": "in_progress"}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/tasks", map[string]any{"title": "Bad time", "due_time": "25:00"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMentionFanoutOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := ts.createClient(t)

	recipient := &models.User{
		UserID:    uuid.Must(uuid.NewV7()),
		Name:      "Robin",
		Email:     "robin@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, ts.stores.Users.Create(ctx, recipient))
	rec := ts.do(t, http.MethodPost, "/v1/organization/members", map[string]any{
		"user_id": recipient.UserID,
		"role":    "member",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]int
	rec = ts.do(t, http.MethodPost, "/v1/mentions", map[string]any{
		"recipient_ids": []uuid.UUID{recipient.UserID},
		"text":          "please review",
		"entity_type":   "client",
		"entity_id":     client.ClientID,
	}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, created["delivered"])

	var mentions []mentionView
	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/mentions?entity_type=client&entity_id=%s", client.ClientID), nil, &mentions)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mentions, 1)
	require.Equal(t, "please review", mentions[0].Text)
	require.NotNil(t, mentions[0].AuthorID)
	require.Equal(t, ts.userID, *mentions[0].AuthorID)
	// the author prefix never leaks into the rendered text
	require.NotContains(t, mentions[0].Text, ts.userID.String())
}

func TestDashboardStatsOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	client := ts.createClient(t)

	var quote quoteView
	rec := ts.do(t, http.MethodPost, "/v1/quotes", map[string]any{
		"client_id":  client.ClientID,
		"title":      "Engagement",
		"line_items": []map[string]any{{"description": "Work", "quantity": 1, "unit_price": 7000}},
	}, &quote)
	require.Equal(t, http.StatusCreated, rec.Code)
	ts.do(t, http.MethodPost, fmt.Sprintf("/v1/quotes/%s/send", quote.QuoteID), nil, nil)

	var stats dashboardStatsView
	rec = ts.do(t, http.MethodGet, "/v1/stats/dashboard", nil, &stats)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, stats.Quotes.SentCount)
	require.EqualValues(t, 7000, stats.Quotes.SentValue)
	require.EqualValues(t, 0, stats.Quotes.DraftCount)
}

func TestActivityFeedOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	client := ts.createClient(t)

	var feed []activityView
	rec := ts.do(t, http.MethodGet, "/v1/activity", nil, &feed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, feed)

	var history []activityView
	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/v1/activity/entity?entity_type=client&entity_id=%s", client.ClientID), nil, &history)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, history, 1)
	require.Equal(t, "client_created", history[0].ActivityType)
}
