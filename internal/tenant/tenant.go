// Package tenant resolves the caller's active organization from identity
// claims and enforces that every record touched belongs to it. The resolved
// tenant travels as an explicit Context value threaded through every service
// call rather than being re-derived from ambient auth state.
package tenant

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrUnauthenticated is returned when no identity is present.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNoActiveTenant is returned when the identity carries no resolvable
	// active-organization claim.
	ErrNoActiveTenant = errors.New("no active tenant")

	// ErrCrossTenantAccess is returned when a record belongs to a different
	// organization than the caller's.
	ErrCrossTenantAccess = errors.New("cross-tenant access denied")
)

// Claims is the identity token payload. The organization claim has gone
// through three spellings over time; ResolveTenant accepts the first
// populated one.
type Claims struct {
	jwt.RegisteredClaims

	ActiveOrgID string `json:"activeOrgId,omitempty"`
	OrgID       string `json:"orgId,omitempty"`
	LegacyOrgID string `json:"org_id,omitempty"`
}

// orgClaim returns the first populated organization claim.
func (c *Claims) orgClaim() string {
	for _, v := range []string{c.ActiveOrgID, c.OrgID, c.LegacyOrgID} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Context identifies the caller and their active organization for the
// duration of one operation.
type Context struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
}

// ResolveTenant derives a tenant Context from identity claims. It fails with
// ErrUnauthenticated when the identity is absent or has no subject, and
// ErrNoActiveTenant when none of the organization claims is usable.
func ResolveTenant(claims *Claims) (Context, error) {
	if claims == nil || claims.Subject == "" {
		return Context{}, ErrUnauthenticated
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Context{}, fmt.Errorf("%w: malformed subject", ErrUnauthenticated)
	}

	org := claims.orgClaim()
	if org == "" {
		return Context{}, ErrNoActiveTenant
	}

	orgID, err := uuid.Parse(org)
	if err != nil {
		return Context{}, fmt.Errorf("%w: malformed organization claim", ErrNoActiveTenant)
	}

	return Context{UserID: userID, OrgID: orgID}, nil
}

// AssertOwns fails with ErrCrossTenantAccess unless the record's organization
// is the caller's active organization.
func (c Context) AssertOwns(recordOrgID uuid.UUID) error {
	if recordOrgID != c.OrgID {
		return ErrCrossTenantAccess
	}
	return nil
}
