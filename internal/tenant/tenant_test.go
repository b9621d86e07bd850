package tenant

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsFor(subject, active, orgID, legacy string) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		ActiveOrgID:      active,
		OrgID:            orgID,
		LegacyOrgID:      legacy,
	}
}

func TestResolveTenant(t *testing.T) {
	user := uuid.Must(uuid.NewV7())
	orgA := uuid.Must(uuid.NewV7())
	orgB := uuid.Must(uuid.NewV7())

	tests := []struct {
		name    string
		claims  *Claims
		wantOrg uuid.UUID
		wantErr error
	}{
		{"nil identity", nil, uuid.Nil, ErrUnauthenticated},
		{"empty subject", claimsFor("", orgA.String(), "", ""), uuid.Nil, ErrUnauthenticated},
		{"malformed subject", claimsFor("not-a-uuid", orgA.String(), "", ""), uuid.Nil, ErrUnauthenticated},
		{"no org claim", claimsFor(user.String(), "", "", ""), uuid.Nil, ErrNoActiveTenant},
		{"malformed org claim", claimsFor(user.String(), "nope", "", ""), uuid.Nil, ErrNoActiveTenant},
		{"activeOrgId", claimsFor(user.String(), orgA.String(), "", ""), orgA, nil},
		{"orgId fallback", claimsFor(user.String(), "", orgA.String(), ""), orgA, nil},
		{"org_id fallback", claimsFor(user.String(), "", "", orgA.String()), orgA, nil},
		{"first populated claim wins", claimsFor(user.String(), orgA.String(), orgB.String(), orgB.String()), orgA, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := ResolveTenant(tt.claims)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user, tc.UserID)
			assert.Equal(t, tt.wantOrg, tc.OrgID)
		})
	}
}

func TestAssertOwns(t *testing.T) {
	org := uuid.Must(uuid.NewV7())
	other := uuid.Must(uuid.NewV7())
	tc := Context{UserID: uuid.Must(uuid.NewV7()), OrgID: org}

	require.NoError(t, tc.AssertOwns(org))
	require.ErrorIs(t, tc.AssertOwns(other), ErrCrossTenantAccess)
}
