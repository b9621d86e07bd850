package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/centriq-hq/centriq/internal/auth"
)

type TokenCmd struct {
	UserID     string        `help:"User identifier (UUID)" required:""`
	OrgID      string        `help:"Active organization identifier (UUID)" required:""`
	TTL        time.Duration `help:"Token lifetime" default:"1h"`
	SigningKey string        `help:"path to the PEM-encoded ECDSA private key" required:"" env:"CENTRIQ_JWT_SIGNING_KEY"`
}

func (t *TokenCmd) Run(ctx context.Context) error {
	userID, err := uuid.Parse(t.UserID)
	if err != nil {
		return fmt.Errorf("malformed user id: %w", err)
	}
	orgID, err := uuid.Parse(t.OrgID)
	if err != nil {
		return fmt.Errorf("malformed org id: %w", err)
	}

	signingKeyPEM, err := os.ReadFile(t.SigningKey)
	if err != nil {
		return fmt.Errorf("failed to read signing key: %w", err)
	}

	token, err := auth.IssueToken(string(signingKeyPEM), userID, orgID, t.TTL)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
