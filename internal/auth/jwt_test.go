package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/centriq-hq/centriq/internal/tenant"
)

func generateKeyPair(t *testing.T) (privatePEM, publicPEM string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))

	return privatePEM, publicPEM
}

func TestMiddleware(t *testing.T) {
	privatePEM, publicPEM := generateKeyPair(t)

	mw, err := Middleware(publicPEM)
	require.NoError(t, err)

	userID := uuid.Must(uuid.NewV7())
	orgID := uuid.Must(uuid.NewV7())

	e := echo.New()
	handler := mw(func(c echo.Context) error {
		tc, err := TenantFromEcho(c)
		require.NoError(t, err)
		require.Equal(t, userID, tc.UserID)
		require.Equal(t, orgID, tc.OrgID)
		return c.NoContent(http.StatusOK)
	})

	do := func(authorization string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/clients", nil)
		if authorization != "" {
			req.Header.Set(echo.HeaderAuthorization, authorization)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := handler(c)
		if err != nil {
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			return httpErr.Code
		}
		return rec.Code
	}

	t.Run("valid token", func(t *testing.T) {
		token, err := IssueToken(privatePEM, userID, orgID, time.Hour)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, do("Bearer "+token))
	})

	t.Run("missing token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do(""))
	})

	t.Run("garbage token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do("Bearer not-a-jwt"))
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := IssueToken(privatePEM, userID, orgID, -time.Minute)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, do("Bearer "+token))
	})

	t.Run("wrong key", func(t *testing.T) {
		otherPrivate, _ := generateKeyPair(t)
		token, err := IssueToken(otherPrivate, userID, orgID, time.Hour)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, do("Bearer "+token))
	})
}

func TestMiddlewareNoActiveTenant(t *testing.T) {
	privatePEM, publicPEM := generateKeyPair(t)

	mw, err := Middleware(publicPEM)
	require.NoError(t, err)

	// A token with a subject but no organization claim at all.
	signingKey, err := jwt.ParseECPrivateKeyFromPEM([]byte(privatePEM))
	require.NoError(t, err)
	bare := jwt.NewWithClaims(jwt.SigningMethodES256, &jwt.RegisteredClaims{
		Subject:   uuid.Must(uuid.NewV7()).String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := bare.SignedString(signingKey)
	require.NoError(t, err)

	e := echo.New()
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/clients", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = handler(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.Code)

	_, err = TenantFromEcho(c)
	require.ErrorIs(t, err, tenant.ErrUnauthenticated)
}
