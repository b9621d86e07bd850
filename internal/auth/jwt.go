package auth

import (
	"crypto/ecdsa"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/centriq-hq/centriq/internal/tenant"
)

// tenantContextKey is the echo context key the middleware stores the resolved
// tenant under.
const tenantContextKey = "tenant"

type jwtVerifier struct {
	publicKey *ecdsa.PublicKey
}

func newJWTVerifierFromPEM(publicKeyPEM string) (*jwtVerifier, error) {
	if publicKeyPEM == "" {
		return nil, errors.New("JWT public key not provided")
	}

	publicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, err
	}

	return &jwtVerifier{publicKey: publicKey}, nil
}

func bearerToken(req *http.Request) (string, bool) {
	header := req.Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	return token, ok && token != ""
}

// Middleware returns echo middleware that validates Bearer JWTs and stores
// the resolved tenant on the request context. Requests without a usable
// identity are rejected before any handler runs.
func Middleware(publicKeyPEM string) (echo.MiddlewareFunc, error) {
	v, err := newJWTVerifierFromPEM(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, ok := bearerToken(c.Request())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			parsed, err := jwt.ParseWithClaims(tokenStr, &tenant.Claims{}, func(t *jwt.Token) (any, error) {
				if t.Method != jwt.SigningMethodES256 {
					return nil, errors.New("invalid signing method")
				}
				return v.publicKey, nil
			})
			if err != nil {
				log.Debug().Err(err).Msg("JWT parse error")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims, ok := parsed.Claims.(*tenant.Claims)
			if !ok || !parsed.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
			}

			tc, err := tenant.ResolveTenant(claims)
			if err != nil {
				switch {
				case errors.Is(err, tenant.ErrNoActiveTenant):
					return echo.NewHTTPError(http.StatusForbidden, "no active organization")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}
			}

			c.Set(tenantContextKey, tc)
			return next(c)
		}
	}, nil
}

// TenantFromEcho returns the tenant stored by Middleware.
func TenantFromEcho(c echo.Context) (tenant.Context, error) {
	tc, ok := c.Get(tenantContextKey).(tenant.Context)
	if !ok {
		return tenant.Context{}, tenant.ErrUnauthenticated
	}
	return tc, nil
}
