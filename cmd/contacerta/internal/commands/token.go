package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/auth"
	"github.com/contacerta/contacerta/internal/models"
)

// TokenCmd signs an access token with the shared secret. Meant for local
// development against a backend that trusts --jwt-secret.
type TokenCmd struct {
	Subject string        `arg:"" optional:"" help:"Identity id (a new one when empty)"`
	TTL     time.Duration `help:"Token lifetime" default:"24h" name:"ttl"`
}

func (c *TokenCmd) Run(ctx context.Context, globals *Globals) error {
	if err := globals.applyProfile(); err != nil {
		return err
	}
	if globals.JWTSecret == "" {
		return errors.New("--jwt-secret is required to sign tokens")
	}

	identity := models.Identity{ID: uuid.New(), Email: globals.Email}
	if c.Subject != "" {
		id, err := parseID("identity", c.Subject)
		if err != nil {
			return err
		}
		identity.ID = id
	}

	token, err := auth.IssueToken([]byte(globals.JWTSecret), identity, globals.JWTAudience, c.TTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Println(token)
	return nil
}
