package auth

import (
	"context"

	"github.com/contacerta/contacerta/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying the authenticated identity.
// Stores read it to scope queries to the caller.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	return identity, ok
}
